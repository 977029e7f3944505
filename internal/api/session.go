package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
	"github.com/oeonyangoemma-bot/agrivision/internal/identity"
	"github.com/oeonyangoemma-bot/agrivision/internal/store"
)

// SessionHandler issues and clears the opaque identity cookie.
type SessionHandler struct {
	repo  store.Repository
	isDev bool
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(repo store.Repository, isDev bool) *SessionHandler {
	return &SessionHandler{repo: repo, isDev: isDev}
}

// RegisterRoutes registers the session endpoints.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/session", h.handleGet)
	r.Post("/api/session", h.handleSignIn)
	r.Delete("/api/session", h.handleSignOut)
}

func (h *SessionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	JSON(w, http.StatusOK, map[string]any{
		"user_id":   userID,
		"username":  identity.UsernameFromContext(r.Context()),
		"anonymous": domain.IsAnonymous(userID),
	})
}

func (h *SessionHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	// Already signed in: keep the existing identity.
	if userID := identity.UserIDFromContext(r.Context()); !domain.IsAnonymous(userID) {
		JSON(w, http.StatusOK, map[string]any{"user_id": userID, "anonymous": false})
		return
	}

	userID, err := identity.NewUserID()
	if err != nil {
		slog.Error("failed to mint user id", "error", err)
		Error(w, http.StatusInternalServerError, "failed to establish identity")
		return
	}

	now := time.Now()
	user := &domain.User{
		UserID:     userID,
		Username:   identity.DeriveUsername(userID),
		LastSeenAt: now,
		CreatedAt:  now,
	}
	if err := h.repo.UpsertUser(r.Context(), user); err != nil {
		slog.Error("failed to create user", "error", err)
		Error(w, http.StatusInternalServerError, "failed to establish identity")
		return
	}

	identity.SetCookie(w, userID, h.isDev)
	JSON(w, http.StatusCreated, map[string]any{"user_id": userID, "username": user.Username, "anonymous": false})
}

func (h *SessionHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	identity.ClearCookie(w, h.isDev)
	w.WriteHeader(http.StatusNoContent)
}
