package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oeonyangoemma-bot/agrivision/internal/store"
)

// HealthHandler reports service and storage health.
type HealthHandler struct {
	repo store.Repository
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository) *HealthHandler {
	return &HealthHandler{repo: repo}
}

// RegisterHealth registers the health endpoint.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.handleHealth)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		Error(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
