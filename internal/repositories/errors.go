// Package repositories provides data access for users and posts
package repositories

import "errors"

// Sentinel errors for lookups, checked with errors.Is
var (
	ErrUserNotFound = errors.New("user not found")
	ErrPostNotFound = errors.New("post not found")
)
