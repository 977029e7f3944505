// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
)

// Repository defines the interface for persisting users and analysis records.
//
// Analysis records are write-once: there is no update or delete path. All
// failures are wrapped as domain.ErrStorage.
type Repository interface {
	// SaveAnalysis inserts a new analysis record. The store assigns the
	// identifier and the creation timestamp; both are written back into the
	// passed record.
	SaveAnalysis(ctx context.Context, analysis *domain.Analysis) error

	// GetAnalysis retrieves one record by id, scoped to its owning user.
	// Returns domain.ErrNotFound for missing or foreign records.
	GetAnalysis(ctx context.Context, userID, id string) (*domain.Analysis, error)

	// ListAnalyses retrieves the most recent records for a user, ordered by
	// creation time descending, bounded by limit.
	ListAnalyses(ctx context.Context, userID string, limit int) ([]domain.Analysis, error)

	// GetUser retrieves a user by their user ID. Returns nil, nil when the
	// user does not exist.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// Subscribe registers for change notifications on a user's analysis
	// history. The returned channel receives a signal after every insert for
	// that user; the cancel func must be called to release the registration.
	Subscribe(userID string) (<-chan struct{}, func())

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
