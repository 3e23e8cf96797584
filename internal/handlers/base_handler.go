// Package handlers contains the HTTP handlers for the blog API
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// SuccessResponse is the envelope for successful responses carrying data
type SuccessResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the envelope for error responses
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondSuccess sends a success envelope with data and message
func (h *BaseHandler) RespondSuccess(w http.ResponseWriter, status int, data any, message string) {
	h.RespondJSON(w, status, SuccessResponse{
		Status:  "success",
		Data:    data,
		Message: message,
	})
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, ErrorResponse{
		Status:  "error",
		Message: message,
	})
}
