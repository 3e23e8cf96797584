package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bloghub/backend/internal/auth/middleware"
	"github.com/bloghub/backend/internal/models"
	"github.com/bloghub/backend/internal/repositories"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PostService is the interface that wraps methods for post business logic
type PostService interface {
	// Method Create validates and stores a new post authored by the given user.
	//
	// "req" parameter contains title, content and an optional image URL.
	// "authorID" parameter is the id of the authenticated author.
	//
	// If validation fails or some other error occurs, the error will be returned together with "nil" value.
	Create(ctx context.Context, req *models.CreatePostRequest, authorID int) (*models.Post, error)
	// Method GetAll retrieves all posts, newest first.
	GetAll(ctx context.Context) ([]models.Post, error)
	// Method GetByID retrieves a post by ID.
	//
	// If post with such ID does not exist, repositories.ErrPostNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, postID int) (*models.Post, error)
	// Method GetByAuthor retrieves the posts created by the given user.
	GetByAuthor(ctx context.Context, authorID int) ([]models.Post, error)
	// Method Update applies the provided fields to an existing post and returns the updated post.
	//
	// If post with such ID does not exist, repositories.ErrPostNotFound will be returned together with "nil" value.
	Update(ctx context.Context, postID int, req *models.UpdatePostRequest) (*models.Post, error)
	// Method Delete removes a post by ID.
	//
	// If post with such ID does not exist, repositories.ErrPostNotFound will be returned.
	Delete(ctx context.Context, postID int) error
}

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	BaseHandler
	postService PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService PostService, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		BaseHandler: BaseHandler{Logger: logger},
		postService: postService,
	}
}

// RegisterRoutes registers all post handler routes
func (h *PostHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/posts", h.GetAll)
	r.Get("/posts/{id}", h.GetByID)
	r.Put("/posts/{id}", h.Update)
	r.Delete("/posts/{id}", h.Delete)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/posts", h.Create)
		r.Get("/user/posts", h.GetUserPosts)
	})
}

// Create handles POST /posts
// @Summary Create a new post
// @Description Create a new post authored by the authenticated user
// @Tags post
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreatePostRequest true "Post creation request"
// @Success 201 {object} models.Post "Post created successfully"
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /posts [post]
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.Logger.Error("no authenticated user in context")
		h.RespondError(w, http.StatusInternalServerError, "no authenticated user in context")
		return
	}

	var req models.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), &req, user.ID)
	if err != nil {
		h.Logger.Error("failed to create post", zap.Error(err))
		errStatus := http.StatusInternalServerError
		if strings.Contains(err.Error(), "must be at least") {
			errStatus = http.StatusBadRequest
		}
		h.RespondError(w, errStatus, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusCreated, post)
}

// GetAll handles GET /posts
// @Summary Get all posts
// @Description Get all posts, newest first
// @Tags post
// @Produce json
// @Success 200 {object} SuccessResponse "Retrieved all posts"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /posts [get]
func (h *PostHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.GetAll(r.Context())
	if err != nil {
		h.Logger.Error("failed to get posts", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondSuccess(w, http.StatusOK, posts, "Retrieved all posts")
}

// GetByID handles GET /posts/{id}
// @Summary Get post by id
// @Tags post
// @Produce json
// @Param id path int true "Post id"
// @Success 200 {object} models.Post "Post"
// @Failure 404 {object} ErrorResponse "Post not found"
// @Router /posts/{id} [get]
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusNotFound, "Post not found")
		return
	}

	post, err := h.postService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			h.RespondError(w, http.StatusNotFound, "Post not found")
			return
		}
		h.Logger.Error("failed to get post by id", zap.Error(err), zap.Int("postId", id))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, post)
}

// GetUserPosts handles GET /user/posts
// @Summary Get the authenticated user's posts
// @Tags post
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} SuccessResponse "Retrieved user posts"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /user/posts [get]
func (h *PostHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.Logger.Error("no authenticated user in context")
		h.RespondError(w, http.StatusInternalServerError, "no authenticated user in context")
		return
	}

	posts, err := h.postService.GetByAuthor(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("failed to get user posts", zap.Error(err), zap.Int("userId", user.ID))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondSuccess(w, http.StatusOK, posts, "Retrieved user posts")
}

// Update handles PUT /posts/{id}
// @Summary Update a post
// @Description Update a post's title, content or image; absent fields are left untouched
// @Tags post
// @Accept json
// @Produce json
// @Param id path int true "Post id"
// @Param request body models.UpdatePostRequest true "Post update request"
// @Success 200 {object} models.Post "Updated post"
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 404 {object} ErrorResponse "Post not found"
// @Router /posts/{id} [put]
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusNotFound, "Post not found")
		return
	}

	var req models.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := h.postService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			h.RespondError(w, http.StatusNotFound, "Post not found")
			return
		}
		h.Logger.Error("failed to update post", zap.Error(err), zap.Int("postId", id))
		errStatus := http.StatusInternalServerError
		if strings.Contains(err.Error(), "must be at least") {
			errStatus = http.StatusBadRequest
		}
		h.RespondError(w, errStatus, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id}
// @Summary Delete a post
// @Tags post
// @Produce json
// @Param id path int true "Post id"
// @Success 200 {object} map[string]string "Post deleted"
// @Failure 404 {object} ErrorResponse "Post not found"
// @Router /posts/{id} [delete]
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusNotFound, "Post not found")
		return
	}

	if err := h.postService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			h.RespondError(w, http.StatusNotFound, "Post not found")
			return
		}
		h.Logger.Error("failed to delete post", zap.Error(err), zap.Int("postId", id))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}
