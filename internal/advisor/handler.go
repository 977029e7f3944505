package advisor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/oeonyangoemma-bot/agrivision/internal/api"
	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
	"github.com/oeonyangoemma-bot/agrivision/internal/identity"
)

// maxChatBodyBytes bounds a chat request body (question plus resent history).
const maxChatBodyBytes = 1 << 20

// Handler exposes the advisory loop over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a new chat handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the chat endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.handleChat)
}

type chatRequest struct {
	Question string                    `json:"question"`
	History  []domain.ConversationTurn `json:"history,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.FieldErrors(w, domain.FieldErrors{"body": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		api.FieldErrors(w, domain.FieldErrors{"question": "a question is required"})
		return
	}

	userID := identity.UserIDFromContext(r.Context())
	advice, err := h.svc.Advise(r.Context(), userID, req.Question, req.History)
	if err != nil {
		if errors.Is(err, domain.ErrModel) {
			slog.Error("chat model call failed", "user_id", userID, "error", err)
			api.Error(w, http.StatusBadGateway, "Sorry, I couldn't process that question.")
			return
		}
		slog.Error("chat failed", "user_id", userID, "error", err)
		api.Error(w, http.StatusInternalServerError, "Sorry, I couldn't process that question.")
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"advice": advice})
}
