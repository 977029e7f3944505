package history

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
	"github.com/oeonyangoemma-bot/agrivision/internal/identity"
	"github.com/oeonyangoemma-bot/agrivision/internal/store"
)

// WebSocketHandler streams a user's analysis history over a WebSocket: the
// current ordered list on connect, then again after every underlying change.
type WebSocketHandler struct {
	repo store.Repository
}

// NewWebSocketHandler creates a new history feed handler.
func NewWebSocketHandler(repo store.Repository) *WebSocketHandler {
	return &WebSocketHandler{repo: repo}
}

type historyEvent struct {
	Type     string            `json:"type"`
	Analyses []domain.Analysis `json:"analyses"`
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	slog.Info("history feed connection request", "user_id", userID, "ip", r.RemoteAddr)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "feed ended")

	ctx := r.Context()

	// Anonymous sessions have no history and never receive updates; send
	// the empty list once and hold the connection until the client leaves.
	if domain.IsAnonymous(userID) {
		if err := h.push(ctx, ws, nil); err != nil {
			return
		}
		h.awaitClose(ctx, ws)
		return
	}

	updates, cancel := h.repo.Subscribe(userID)
	defer cancel()

	// Reads are only expected as close frames; a reader goroutine surfaces
	// them as context cancellation.
	readCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		defer stop()
		for {
			if _, _, err := ws.Read(readCtx); err != nil {
				return
			}
		}
	}()

	if err := h.pushCurrent(readCtx, ws, userID); err != nil {
		return
	}

	for {
		select {
		case <-readCtx.Done():
			return
		case <-updates:
			if err := h.pushCurrent(readCtx, ws, userID); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) pushCurrent(ctx context.Context, ws *websocket.Conn, userID string) error {
	analyses, err := h.repo.ListAnalyses(ctx, userID, pageSize)
	if err != nil {
		slog.Error("history feed query failed", "user_id", userID, "error", err)
		return err
	}
	return h.push(ctx, ws, analyses)
}

func (h *WebSocketHandler) push(ctx context.Context, ws *websocket.Conn, analyses []domain.Analysis) error {
	if analyses == nil {
		analyses = []domain.Analysis{}
	}
	if err := wsjson.Write(ctx, ws, historyEvent{Type: "analyses", Analyses: analyses}); err != nil {
		slog.Debug("history feed write failed", "error", err)
		return err
	}
	return nil
}

func (h *WebSocketHandler) awaitClose(ctx context.Context, ws *websocket.Conn) {
	for {
		if _, _, err := ws.Read(ctx); err != nil {
			return
		}
	}
}
