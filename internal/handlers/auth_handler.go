package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bloghub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic
type AuthService interface {
	// Method Register performs user credentials validation and creation.
	//
	// "req" parameter contains username, email and password.
	//
	// If user passed invalid credentials, or such user already exists, or some other error occurs,
	// the error will be returned together with "nil" value.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	// Method Login performs user credentials validation and returns a signed access token.
	//
	// "req" parameter contains email and password.
	//
	// If user passed invalid credentials, or such user does not exist, or some other error occurs,
	// the error will be returned together with an empty token string.
	Login(ctx context.Context, req *models.LoginRequest) (string, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
}

// Register handles POST /auth/register
// @Summary Register a new user
// @Description Register a new user with username, email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 201 {object} SuccessResponse "User registered successfully"
// @Failure 400 {object} ErrorResponse "Invalid input or user already exists"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		h.RespondError(w, http.StatusBadRequest, "please provide username, email and password")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.Logger.Error("failed to register user", zap.Error(err))
		errStatus := http.StatusInternalServerError
		// Validation and uniqueness failures are the client's fault
		if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "invalid") ||
			strings.Contains(err.Error(), "cannot be empty") || strings.Contains(err.Error(), "must be at least") {
			errStatus = http.StatusBadRequest
		}
		h.RespondError(w, errStatus, err.Error())
		return
	}

	h.RespondSuccess(w, http.StatusCreated, user.ToView(), "User registered successfully")
}

// LoginResponse is the response body for a successful login
type LoginResponse struct {
	Status  string `json:"status"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login handles POST /auth/login
// @Summary Login a user
// @Description Authenticate a user with email and password and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} LoginResponse "User logged in successfully"
// @Failure 400 {object} ErrorResponse "Invalid email or password"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.Logger.Warn("failed to login user", zap.Error(err))
		errStatus := http.StatusBadRequest
		if !strings.Contains(err.Error(), "invalid email or password") && !strings.Contains(err.Error(), "please provide") {
			errStatus = http.StatusInternalServerError
		}
		h.RespondError(w, errStatus, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, LoginResponse{
		Status:  "success",
		Token:   token,
		Message: "User logged in successfully",
	})
}
