package analysis

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oeonyangoemma-bot/agrivision/internal/api"
	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
	"github.com/oeonyangoemma-bot/agrivision/internal/identity"
)

// Handler exposes the analysis pipeline over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a new analysis handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the analysis endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/analysis", h.handleSubmit)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	// Base64 expands the image ~4/3, plus JSON framing.
	r.Body = http.MaxBytesReader(w, r.Body, h.svc.maxBytes*2)

	var in SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.FieldErrors(w, domain.FieldErrors{"body": "invalid request body"})
		return
	}

	userID := identity.UserIDFromContext(r.Context())
	record, err := h.svc.Perform(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, userID, err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"analysis": record})
}

// writeError converts pipeline failures into user-safe responses. Diagnostic
// detail is logged, never returned verbatim to the caller.
func (h *Handler) writeError(w http.ResponseWriter, userID string, err error) {
	if fields, ok := domain.AsFieldErrors(err); ok {
		api.FieldErrors(w, fields)
		return
	}
	if errors.Is(err, domain.ErrModel) {
		slog.Error("analysis model call failed", "user_id", userID, "error", err)
		api.Error(w, http.StatusBadGateway, "An unexpected error occurred during analysis.")
		return
	}
	if errors.Is(err, domain.ErrStorage) {
		slog.Error("analysis persistence failed", "user_id", userID, "error", err)
		api.Error(w, http.StatusInternalServerError, "The analysis could not be saved.")
		return
	}
	slog.Error("analysis failed", "user_id", userID, "error", err)
	api.Error(w, http.StatusInternalServerError, "An unexpected error occurred during analysis.")
}
