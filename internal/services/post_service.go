package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/bloghub/backend/internal/models"
	"go.uber.org/zap"
)

// Post content constraints
const (
	minTitleLength   = 5
	minContentLength = 10
)

// PostRepository is the interface that wraps methods for posts table data access
type PostRepository interface {
	// Method Create inserts a new post into the database.
	//
	// "post" parameter is used to create a new post; its ID is set on success.
	//
	// If some error occurs during post creation, the error will be returned.
	Create(ctx context.Context, post *models.Post) error
	// Method GetAll retrieves all posts, newest first.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetAll(ctx context.Context) ([]models.Post, error)
	// Method GetByID retrieves a post by ID.
	//
	// If post with such ID does not exist, repositories.ErrPostNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, postID int) (*models.Post, error)
	// Method GetByAuthor retrieves all posts created by the given user.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetByAuthor(ctx context.Context, authorID int) ([]models.Post, error)
	// Method Update persists the post's editable fields.
	//
	// If some error occurs during post update, the error will be returned.
	Update(ctx context.Context, post *models.Post) error
	// Method Delete removes a post by ID.
	//
	// If post with such ID does not exist, repositories.ErrPostNotFound will be returned.
	Delete(ctx context.Context, postID int) error
}

// postService implements post CRUD business logic
type postService struct {
	postRepo PostRepository
	logger   *zap.Logger
}

// NewPostService creates a new post service
func NewPostService(postRepo PostRepository, logger *zap.Logger) *postService {
	return &postService{
		postRepo: postRepo,
		logger:   logger,
	}
}

// Create validates and stores a new post authored by the given user
func (s *postService) Create(ctx context.Context, req *models.CreatePostRequest, authorID int) (*models.Post, error) {
	title := strings.TrimSpace(req.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateContent(req.Content); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:    title,
		Content:  req.Content,
		AuthorID: authorID,
		Image:    req.Image,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post created", zap.Int("postId", post.ID), zap.Int("authorId", authorID))
	return post, nil
}

// GetAll retrieves all posts
func (s *postService) GetAll(ctx context.Context) ([]models.Post, error) {
	posts, err := s.postRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// GetByID retrieves a single post
func (s *postService) GetByID(ctx context.Context, postID int) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

// GetByAuthor retrieves the posts created by the given user
func (s *postService) GetByAuthor(ctx context.Context, authorID int) ([]models.Post, error) {
	posts, err := s.postRepo.GetByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// Update applies the provided fields to an existing post.
// Fields absent from the request are left untouched; provided fields are
// validated with the same rules as creation.
func (s *postService) Update(ctx context.Context, postID int, req *models.UpdatePostRequest) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		post.Title = title
	}
	if req.Content != nil {
		if err := validateContent(*req.Content); err != nil {
			return nil, err
		}
		post.Content = *req.Content
	}
	if req.Image != nil {
		post.Image = *req.Image
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Delete removes a post
func (s *postService) Delete(ctx context.Context, postID int) error {
	return s.postRepo.Delete(ctx, postID)
}

func validateTitle(title string) error {
	if len(title) < minTitleLength {
		return fmt.Errorf("title must be at least %d characters", minTitleLength)
	}
	return nil
}

func validateContent(content string) error {
	if len(content) < minContentLength {
		return fmt.Errorf("content must be at least %d characters", minContentLength)
	}
	return nil
}
