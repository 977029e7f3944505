// Package identity provides cookie-based opaque identity primitives.
//
// Requests without a valid identity cookie run as the anonymous sentinel
// user: their analyses are ephemeral and they have no addressable history.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
	"github.com/oeonyangoemma-bot/agrivision/internal/store"
)

const (
	// CookieName is the identity cookie issued on sign-in.
	CookieName   = "agrivision_uid"
	cookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const (
	userIDKey contextKey = iota
	usernameKey
)

var userIDPattern = regexp.MustCompile(`^user_[a-f0-9]{32}$`)

// UserIDFromContext extracts the user ID from the request context. Returns
// the anonymous sentinel when no identity was established.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok && v != "" {
		return v
	}
	return domain.AnonymousUserID
}

// UsernameFromContext extracts the username from the request context.
func UsernameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(usernameKey).(string); ok {
		return v
	}
	return ""
}

// NewUserID mints a fresh opaque identifier.
func NewUserID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate user id: %w", err)
	}
	return "user_" + hex.EncodeToString(buf), nil
}

// IsValidUserID reports whether id matches the issued identifier format.
func IsValidUserID(id string) bool {
	return userIDPattern.MatchString(id)
}

// DeriveUsername builds a stable display name from an opaque identifier.
func DeriveUsername(userID string) string {
	if len(userID) > 13 {
		return "grower-" + userID[len(userID)-8:]
	}
	return "grower"
}

// SetCookie writes the identity cookie on a response.
func SetCookie(w http.ResponseWriter, userID string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    userID,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Expires:  time.Now().Add(cookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// ClearCookie expires the identity cookie on a response.
func ClearCookie(w http.ResponseWriter, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// WithUser returns a context carrying the given identity. Exposed for
// handler tests.
func WithUser(ctx context.Context, userID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, usernameKey, DeriveUsername(userID))
}

// Middleware resolves the requester's identity from the cookie. A missing,
// malformed, or unknown identifier degrades to the anonymous sentinel; it
// never fails the request.
func Middleware(repo store.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := domain.AnonymousUserID

			if c, err := r.Cookie(CookieName); err == nil && IsValidUserID(c.Value) {
				user, err := repo.GetUser(r.Context(), c.Value)
				if err != nil {
					slog.Warn("identity lookup failed, continuing as anonymous", "error", err)
				} else if user != nil {
					userID = user.UserID
					if err := repo.UpdateLastSeen(r.Context(), userID, time.Now()); err != nil {
						slog.Warn("failed to update last seen", "user_id", userID, "error", err)
					}
				}
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, usernameKey, DeriveUsername(userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
