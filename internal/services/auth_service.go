// Package services contains the business logic for authentication, users and posts
package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bloghub/backend/internal/auth/service"
	"github.com/bloghub/backend/internal/models"
	"go.uber.org/zap"
)

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user; its ID is set on success.
	//
	// If some error occurs during user creation, the error will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByEmail retrieves a user by email, including the password hash.
	//
	// "email" parameter is used to retrieve a user by email.
	//
	// If user with such email does not exist, repositories.ErrUserNotFound will be returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method ExistsByUsername checks if a user with such username exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// authService implements registration and login
type authService struct {
	userRepo UserRepository
	tokens   *service.TokenService
	hasher   *service.PasswordHasher
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	tokens *service.TokenService,
	hasher *service.PasswordHasher,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
		logger:   logger,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Register creates a new user account and returns the created user
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	normalizedEmail, normalizedUsername, err := checkRegisterCredentials(ctx, s.userRepo, req.Email, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	// Hash password
	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     normalizedUsername,
		Email:        normalizedEmail,
		PasswordHash: passwordHash,
		Role:         roleForUsername(normalizedUsername),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int("userId", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login authenticates a user and returns a signed access token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return "", fmt.Errorf("please provide email and password")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Unknown email and wrong password are indistinguishable to the client
		return "", fmt.Errorf("invalid email or password")
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return "", fmt.Errorf("invalid email or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

// roleForUsername assigns the admin role to usernames containing "admin".
// This is how the blog bootstraps admin accounts; there is no separate
// promotion endpoint.
func roleForUsername(username string) models.Role {
	if strings.Contains(strings.ToLower(username), "admin") {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// Method that combines all checks for register credentials
//
// There is no need for check parts to wait each other, so the uniqueness and
// format checks run in parallel.
func checkRegisterCredentials(ctx context.Context, userRepo UserRepository, email, username, password string) (string, string, error) {
	validationErrors := make(chan error, 3)
	// Normalize email and username
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	normalizedUsername := strings.TrimSpace(username)

	// Validate password
	go func() {
		if len(password) < 6 {
			validationErrors <- fmt.Errorf("password must be at least 6 characters")
			return
		}
		validationErrors <- nil
	}()

	// Validate email and check its uniqueness
	go func() {
		if !emailRegex.MatchString(normalizedEmail) {
			validationErrors <- fmt.Errorf("invalid email format")
			return
		}
		emailExists, err := userRepo.ExistsByEmail(ctx, normalizedEmail)
		if err != nil {
			validationErrors <- fmt.Errorf("failed to check email: %w", err)
			return
		}
		if emailExists {
			validationErrors <- fmt.Errorf("email already exists")
			return
		}
		validationErrors <- nil
	}()

	// Validate username and check its uniqueness
	go func() {
		if normalizedUsername == "" {
			validationErrors <- fmt.Errorf("username cannot be empty")
			return
		}
		usernameExists, err := userRepo.ExistsByUsername(ctx, normalizedUsername)
		if err != nil {
			validationErrors <- fmt.Errorf("failed to check username: %w", err)
			return
		}
		if usernameExists {
			validationErrors <- fmt.Errorf("username already exists")
			return
		}
		validationErrors <- nil
	}()

	for i := 0; i < 3; i++ {
		err := <-validationErrors
		if err != nil {
			return "", "", fmt.Errorf("failed to check user credentials: %w", err)
		}
	}

	return normalizedEmail, normalizedUsername, nil
}
