package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bloghub/backend/internal/auth/middleware"
	"github.com/bloghub/backend/internal/auth/service"
	"github.com/bloghub/backend/internal/config"
	"github.com/bloghub/backend/internal/handlers"
	"github.com/bloghub/backend/internal/models"
	"github.com/bloghub/backend/internal/repositories"
	"github.com/bloghub/backend/internal/services"
	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	testDB     *sql.DB
	testRouter chi.Router
	testTokens *service.TokenService
	testLogger *zap.Logger
)

// requireTestDB skips the test when no test database is reachable
func requireTestDB(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("test database not available")
	}
}

// seedTestData inserts test data into the database
func seedTestData(t *testing.T, db *sql.DB) {
	t.Helper()

	// Clear existing data
	_, err := db.Exec("DELETE FROM posts")
	require.NoError(t, err, "Failed to clear posts")
	_, err = db.Exec("DELETE FROM users")
	require.NoError(t, err, "Failed to clear users")

	// Reset AUTO_INCREMENT
	_, err = db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	require.NoError(t, err, "Failed to reset users AUTO_INCREMENT")
	_, err = db.Exec("ALTER TABLE posts AUTO_INCREMENT = 1")
	require.NoError(t, err, "Failed to reset posts AUTO_INCREMENT")

	// Insert test users with known passwords
	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err, "Failed to hash password")

	query := `INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)`
	_, err = db.Exec(query, "testuser", "test@example.com", string(passwordHash), models.RoleUser)
	require.NoError(t, err, "Failed to seed test user")
	_, err = db.Exec(query, "siteadmin", "admin@example.com", string(passwordHash), models.RoleAdmin)
	require.NoError(t, err, "Failed to seed admin user")
}

// cleanupTestData removes all test data
func cleanupTestData(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec("DELETE FROM posts")
	require.NoError(t, err, "Failed to cleanup posts")
	_, err = db.Exec("DELETE FROM users")
	require.NoError(t, err, "Failed to cleanup users")
}

// loginAs returns a bearer token for the given seeded user
func loginAs(t *testing.T, email string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": "password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	testRouter.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "login for %s failed: %s", email, w.Body.String())

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.NotEmpty(t, response["token"])
	return response["token"]
}

// setupTestRouter creates a test router with all handlers
func setupTestRouter(db *sql.DB, logger *zap.Logger) chi.Router {
	userRepo := repositories.NewUserRepository(db, logger)
	postRepo := repositories.NewPostRepository(db, logger)
	hasher := service.NewPasswordHasher(bcrypt.MinCost)

	authSvc := services.NewAuthService(userRepo, testTokens, hasher, logger)
	userSvc := services.NewUserService(userRepo)
	postSvc := services.NewPostService(postRepo, logger)

	protect := middleware.AuthMiddleware(testTokens, userRepo)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	r := chi.NewRouter()
	handlers.NewAuthHandler(authSvc, logger).RegisterRoutes(r)
	handlers.NewUserHandler(userSvc, logger).RegisterRoutes(r, protect, adminOnly)
	handlers.NewPostHandler(postSvc, logger).RegisterRoutes(r, protect)

	return r
}

// TestMain sets up and tears down the test environment
func TestMain(m *testing.M) {
	// Initialize logger
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Setup test database
	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}
	dsn := cfg.DSN()
	if dsn == "" {
		// Default test database connection
		dsn = "root:password@tcp(localhost:3306)/bloghub_test?parseTime=true&charset=utf8mb4"
	}
	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		jwtSecret = "test-secret-key-for-integration-tests"
	}
	testTokens = service.NewTokenService(jwtSecret, 1*time.Hour)

	db, err := sql.Open("mysql", dsn)
	if err == nil {
		if err = db.Ping(); err == nil {
			testDB = db
			setupTestSchemaForMain(testDB)
			testRouter = setupTestRouter(testDB, testLogger)
		} else {
			testLogger.Warn("test database unreachable, integration tests will be skipped", zap.Error(err))
			db.Close()
		}
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

// setupTestSchemaForMain creates the test database schema (for TestMain)
func setupTestSchemaForMain(db *sql.DB) {
	usersTable := `
		CREATE TABLE IF NOT EXISTS users (
			id INT PRIMARY KEY AUTO_INCREMENT,
			username VARCHAR(255) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'user',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_email (email),
			INDEX idx_username (username)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
	`

	postsTable := `
		CREATE TABLE IF NOT EXISTS posts (
			id INT PRIMARY KEY AUTO_INCREMENT,
			title VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			author_id INT NOT NULL,
			image VARCHAR(2048) NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_author_id (author_id),
			FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
	`

	db.Exec(usersTable)
	db.Exec(postsTable)
}

func TestIntegration_Register(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	requireTestDB(t)

	tests := []struct {
		name           string
		requestBody    map[string]string
		expectedStatus int
		validateFunc   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "success valid registration",
			requestBody: map[string]string{
				"username": "newuser",
				"email":    "newuser@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusCreated,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response struct {
					Status string          `json:"status"`
					Data   models.UserView `json:"data"`
				}
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Equal(t, "success", response.Status)
				assert.Equal(t, "newuser", response.Data.Username)
				assert.Equal(t, models.RoleUser, response.Data.Role)

				// Verify user was created in database
				var count int
				err = testDB.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", "newuser@example.com").Scan(&count)
				require.NoError(t, err)
				assert.Equal(t, 1, count)

				// Verify password is hashed (not stored as plaintext)
				var passwordHash string
				err = testDB.QueryRow("SELECT password_hash FROM users WHERE email = ?", "newuser@example.com").Scan(&passwordHash)
				require.NoError(t, err)
				assert.NotEqual(t, "password123", passwordHash)
				assert.True(t, len(passwordHash) > 50) // bcrypt hashes are typically 60 characters
			},
		},
		{
			name: "admin username gets admin role",
			requestBody: map[string]string{
				"username": "newadmin",
				"email":    "newadmin@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusCreated,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var role string
				err := testDB.QueryRow("SELECT role FROM users WHERE email = ?", "newadmin@example.com").Scan(&role)
				require.NoError(t, err)
				assert.Equal(t, "admin", role)
			},
		},
		{
			name: "duplicate email",
			requestBody: map[string]string{
				"username": "anotheruser",
				"email":    "test@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Contains(t, response["message"], "email already exists")
			},
		},
		{
			name: "duplicate username",
			requestBody: map[string]string{
				"username": "testuser",
				"email":    "unique@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Contains(t, response["message"], "username already exists")
			},
		},
		{
			name: "invalid email format",
			requestBody: map[string]string{
				"username": "validuser",
				"email":    "invalid-email",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Contains(t, response["message"], "invalid email format")
			},
		},
		{
			name: "password too short",
			requestBody: map[string]string{
				"username": "validuser",
				"email":    "valid@example.com",
				"password": "12345",
			},
			expectedStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Contains(t, response["message"], "password must be at least 6 characters")
			},
		},
		{
			name: "missing fields",
			requestBody: map[string]string{
				"username": "validuser",
			},
			expectedStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Contains(t, response["message"], "please provide username, email and password")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanupTestData(t, testDB)
			seedTestData(t, testDB)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			testRouter.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateFunc != nil {
				tt.validateFunc(t, w)
			}
		})
	}
}

func TestIntegration_Login(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	requireTestDB(t)

	cleanupTestData(t, testDB)
	seedTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	tests := []struct {
		name           string
		requestBody    map[string]string
		expectedStatus int
		validateFunc   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "success",
			requestBody: map[string]string{
				"email":    "test@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusOK,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				require.NotEmpty(t, response["token"])

				// The issued token resolves back to the seeded user
				userID, err := testTokens.Verify(response["token"])
				require.NoError(t, err)
				assert.Equal(t, 1, userID)
			},
		},
		{
			name: "case insensitive email",
			requestBody: map[string]string{
				"email":    "TEST@EXAMPLE.COM",
				"password": "password123",
			},
			expectedStatus: http.StatusOK,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.NotEmpty(t, response["token"])
			},
		},
		{
			name: "wrong password",
			requestBody: map[string]string{
				"email":    "test@example.com",
				"password": "wrongpassword",
			},
			expectedStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Contains(t, response["message"], "invalid email or password")
			},
		},
		{
			name: "unknown email",
			requestBody: map[string]string{
				"email":    "nonexistent@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Contains(t, response["message"], "invalid email or password")
			},
		},
		{
			name: "empty credentials",
			requestBody: map[string]string{
				"email":    "",
				"password": "",
			},
			expectedStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Contains(t, response["message"], "please provide email and password")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			testRouter.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateFunc != nil {
				tt.validateFunc(t, w)
			}
		})
	}
}

func TestIntegration_ProtectedRoutes(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	requireTestDB(t)

	cleanupTestData(t, testDB)
	seedTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	userToken := loginAs(t, "test@example.com")
	adminToken := loginAs(t, "admin@example.com")

	tests := []struct {
		name           string
		path           string
		token          string
		expectedStatus int
		validateFunc   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:           "current user without token",
			path:           "/user",
			token:          "",
			expectedStatus: http.StatusUnauthorized,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Equal(t, "error", response["status"])
				assert.Contains(t, response["message"], "authentication required")
			},
		},
		{
			name:           "current user with garbage token",
			path:           "/user",
			token:          "not-a-jwt",
			expectedStatus: http.StatusUnauthorized,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Contains(t, response["message"], "invalid or expired token")
			},
		},
		{
			name:           "current user with valid token",
			path:           "/user",
			token:          userToken,
			expectedStatus: http.StatusOK,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response struct {
					Status string          `json:"status"`
					Data   models.UserView `json:"data"`
				}
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Equal(t, "testuser", response.Data.Username)
				// Password hash must never leak through the profile endpoint
				assert.NotContains(t, w.Body.String(), "password")
			},
		},
		{
			name:           "admin route with user role",
			path:           "/admin",
			token:          userToken,
			expectedStatus: http.StatusForbidden,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Contains(t, response["message"], "insufficient permissions")
			},
		},
		{
			name:           "admin route with admin role",
			path:           "/admin",
			token:          adminToken,
			expectedStatus: http.StatusOK,
			validateFunc: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response map[string]string
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.Equal(t, "Welcome Admin", response["message"])
			},
		},
		{
			name:           "admin route without token",
			path:           "/admin",
			token:          "",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()

			testRouter.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateFunc != nil {
				tt.validateFunc(t, w)
			}
		})
	}
}

func TestIntegration_GetUserByID(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	requireTestDB(t)

	cleanupTestData(t, testDB)
	seedTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	t.Run("existing user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
		w := httptest.NewRecorder()

		testRouter.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Status string          `json:"status"`
			Data   models.UserView `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, 1, response.Data.ID)
		assert.Equal(t, "testuser", response.Data.Username)
	})

	t.Run("unknown user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/9999", nil)
		w := httptest.NewRecorder()

		testRouter.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
