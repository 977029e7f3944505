package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	notifier *notifier
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, notifier: newNotifier()}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		image_url TEXT NOT NULL,
		additional_details TEXT NOT NULL DEFAULT '',
		analysis_result TEXT NOT NULL,
		confidence_level REAL NOT NULL,
		suggested_actions TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_user_created ON analyses(user_id, created_at DESC);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveAnalysis inserts a new analysis record with a generated identifier and
// a server-assigned creation timestamp. Records are immutable once written.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, analysis *domain.Analysis) error {
	analysis.ID = uuid.NewString()
	analysis.CreatedAt = time.Now()

	query := `
	INSERT INTO analyses (id, user_id, image_url, additional_details, analysis_result, confidence_level, suggested_actions, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		analysis.ID, analysis.UserID, analysis.ImageURL,
		analysis.AdditionalDetails, analysis.AnalysisResult,
		analysis.ConfidenceLevel, analysis.SuggestedActions,
		analysis.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w (%v)", domain.ErrStorage, err)
	}

	s.notifier.notify(analysis.UserID)
	return nil
}

// GetAnalysis retrieves one record by id, scoped to its owning user.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, userID, id string) (*domain.Analysis, error) {
	query := `
	SELECT id, user_id, image_url, additional_details, analysis_result, confidence_level, suggested_actions, created_at
	FROM analyses WHERE id = ? AND user_id = ?`

	row := s.db.QueryRowContext(ctx, query, id, userID)

	analysis, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan analysis row: %w (%v)", domain.ErrStorage, err)
	}
	return analysis, nil
}

// ListAnalyses retrieves the most recent records for a user, newest first.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, userID string, limit int) ([]domain.Analysis, error) {
	query := `
	SELECT id, user_id, image_url, additional_details, analysis_result, confidence_level, suggested_actions, created_at
	FROM analyses WHERE user_id = ?
	ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w (%v)", domain.ErrStorage, err)
	}
	defer rows.Close()

	var analyses []domain.Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis row: %w (%v)", domain.ErrStorage, err)
		}
		analyses = append(analyses, *analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w (%v)", domain.ErrStorage, err)
	}
	return analyses, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	var analysis domain.Analysis
	var createdAt int64

	err := row.Scan(
		&analysis.ID, &analysis.UserID, &analysis.ImageURL,
		&analysis.AdditionalDetails, &analysis.AnalysisResult,
		&analysis.ConfidenceLevel, &analysis.SuggestedActions,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	analysis.CreatedAt = time.Unix(0, createdAt)
	return &analysis, nil
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT user_id, username, last_seen_at, created_at FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var lastSeen, createdAt int64

	err := row.Scan(&user.UserID, &user.Username, &lastSeen, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w (%v)", domain.ErrStorage, err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Username, user.LastSeenAt.Unix(), user.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w (%v)", domain.ErrStorage, err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ? WHERE user_id = ?`

	_, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last seen: %w (%v)", domain.ErrStorage, err)
	}
	return nil
}

// Subscribe registers for change notifications on a user's analysis history.
func (s *SQLiteStore) Subscribe(userID string) (<-chan struct{}, func()) {
	return s.notifier.subscribe(userID)
}
