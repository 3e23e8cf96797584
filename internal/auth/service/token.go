// Package service provides the token and password primitives for authentication
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification failure kinds. Both are surfaced as 401 at the HTTP
// boundary, but callers and tests can tell them apart with errors.Is.
var (
	// ErrTokenInvalid is returned for malformed tokens or signature mismatches
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired is returned for well-signed tokens past their expiry
	ErrTokenExpired = errors.New("token is expired")
)

// TokenService issues and verifies signed, time-limited access tokens.
// The signing secret is process-wide configuration loaded once at startup.
type TokenService struct {
	secret            string
	accessTokenExpiry time.Duration
}

// NewTokenService creates a new token service
func NewTokenService(secret string, accessExpiry time.Duration) *TokenService {
	return &TokenService{
		secret:            secret,
		accessTokenExpiry: accessExpiry,
	}
}

// Issue creates a signed access token binding the given user ID.
// The token embeds issued-at and expiry (now + configured TTL) timestamps.
func (ts *TokenService) Issue(userID int) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(ts.accessTokenExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(ts.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// Verify checks the token signature and expiry and returns the embedded user ID.
// Returns ErrTokenExpired for expired tokens and ErrTokenInvalid for anything
// else (bad signature, malformed token, missing claims).
func (ts *TokenService) Verify(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}

	if !token.Valid {
		return 0, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrTokenInvalid
	}

	// Extract userID (JWT claims decode numbers as float64)
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, ErrTokenInvalid
	}

	return int(userID), nil
}
