package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/bloghub/backend/internal/auth/middleware"
	"github.com/bloghub/backend/internal/models"
	"github.com/bloghub/backend/internal/repositories"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserService is the interface that wraps methods for user profile business logic
type UserService interface {
	// Method GetByID retrieves the public view of a user.
	//
	// "userID" parameter is used to identify the user.
	//
	// If user with such ID does not exist, repositories.ErrUserNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, userID int) (*models.UserView, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	BaseHandler
	userService UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{Logger: logger},
		userService: userService,
	}
}

// RegisterRoutes registers all user handler routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler, adminMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/user", h.GetCurrentUser)
		r.With(adminMiddleware).Get("/admin", h.AdminWelcome)
	})
	r.Get("/users/{id}", h.GetUserByID)
}

// GetCurrentUser handles GET /user
// @Summary Get current user
// @Description Get the authenticated user's details
// @Tags user
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} SuccessResponse "User fetched successfully"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "No user found with this id"
// @Router /user [get]
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.Logger.Error("no authenticated user in context")
		h.RespondError(w, http.StatusInternalServerError, "no authenticated user in context")
		return
	}

	h.RespondSuccess(w, http.StatusOK, user.ToView(), "User fetched successfully")
}

// GetUserByID handles GET /users/{id}
// @Summary Get user by id
// @Description Get a user's public details by id
// @Tags user
// @Produce json
// @Param id path int true "User id"
// @Success 200 {object} SuccessResponse "User fetched successfully"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users/{id} [get]
func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusNotFound, "User not found")
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			h.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.Logger.Error("failed to get user by id", zap.Error(err), zap.Int("userId", id))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondSuccess(w, http.StatusOK, user, "User fetched successfully")
}

// AdminWelcome handles GET /admin
// @Summary Admin welcome
// @Description Admin-only route demonstrating role gating
// @Tags user
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]string "Welcome Admin"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Insufficient permissions"
// @Router /admin [get]
func (h *UserHandler) AdminWelcome(w http.ResponseWriter, r *http.Request) {
	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "Welcome Admin"})
}
