package services

import (
	"context"

	"github.com/bloghub/backend/internal/models"
)

// UserReader is the interface that wraps the lookup needed for public user views
type UserReader interface {
	// Method GetByID retrieves a user by ID with the password hash excluded.
	//
	// "userID" parameter is used to retrieve a user by ID.
	//
	// If user with such ID does not exist, repositories.ErrUserNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, userID int) (*models.User, error)
}

// userService implements user profile lookups
type userService struct {
	userRepo UserReader
}

// NewUserService creates a new user service
func NewUserService(userRepo UserReader) *userService {
	return &userService{
		userRepo: userRepo,
	}
}

// GetByID retrieves the public view of a user
func (s *userService) GetByID(ctx context.Context, userID int) (*models.UserView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.ToView(), nil
}
