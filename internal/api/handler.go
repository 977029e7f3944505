// Package api provides HTTP response helpers, health, and session handlers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response with a single user-safe message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// FieldErrors writes a structured per-field validation error map so the
// caller can highlight exactly which input is invalid.
func FieldErrors(w http.ResponseWriter, fields domain.FieldErrors) {
	JSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
}
