// Package history exposes a user's persisted analyses: paged reads plus a
// WebSocket feed that pushes the current list after every change.
package history

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oeonyangoemma-bot/agrivision/internal/api"
	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
	"github.com/oeonyangoemma-bot/agrivision/internal/identity"
	"github.com/oeonyangoemma-bot/agrivision/internal/store"
)

// pageSize bounds a history listing.
const pageSize = 20

// Handler serves the past-analyses endpoints.
type Handler struct {
	repo store.Repository
}

// NewHandler creates a new history handler.
func NewHandler(repo store.Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the history endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/analyses", h.handleList)
	r.Get("/api/analyses/{id}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	analyses, err := h.listFor(r, userID)
	if err != nil {
		slog.Error("failed to list analyses", "user_id", userID, "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load analyses")
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"analyses": analyses})
}

// listFor returns the requester's recent analyses. Anonymous requesters
// have no persisted history, so they get an empty list with no query.
func (h *Handler) listFor(r *http.Request, userID string) ([]domain.Analysis, error) {
	if domain.IsAnonymous(userID) {
		return []domain.Analysis{}, nil
	}
	analyses, err := h.repo.ListAnalyses(r.Context(), userID, pageSize)
	if err != nil {
		return nil, err
	}
	if analyses == nil {
		analyses = []domain.Analysis{}
	}
	return analyses, nil
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if domain.IsAnonymous(userID) {
		api.Error(w, http.StatusNotFound, "analysis not found")
		return
	}

	analysis, err := h.repo.GetAnalysis(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			api.Error(w, http.StatusNotFound, "analysis not found")
			return
		}
		slog.Error("failed to load analysis", "user_id", userID, "id", id, "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"analysis": analysis})
}
