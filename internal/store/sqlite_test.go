package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAnalysisAssignsIdentity(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	a := &domain.Analysis{
		UserID:           "user_1",
		ImageURL:         "/media/leaf.jpg",
		AnalysisResult:   "Powdery mildew",
		ConfidenceLevel:  0.8,
		SuggestedActions: "Improve airflow.",
	}
	if err := repo.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	if a.ID == "" {
		t.Error("expected a generated identifier")
	}
	if a.CreatedAt.IsZero() {
		t.Error("expected a server-assigned timestamp")
	}

	got, err := repo.GetAnalysis(ctx, "user_1", a.ID)
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if got.AnalysisResult != "Powdery mildew" || got.ConfidenceLevel != 0.8 {
		t.Errorf("round-tripped record does not match: %+v", got)
	}
	if !got.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("stored timestamp %v, want %v", got.CreatedAt, a.CreatedAt)
	}
}

func TestGetAnalysisScopedToOwner(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	a := &domain.Analysis{UserID: "user_1", ImageURL: "/media/x.jpg", AnalysisResult: "ok", SuggestedActions: "none"}
	if err := repo.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	// Another user cannot address the record even with its exact id.
	if _, err := repo.GetAnalysis(ctx, "user_2", a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-user get: got %v, want ErrNotFound", err)
	}
	if _, err := repo.GetAnalysis(ctx, "user_1", "no-such-id"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing id: got %v, want ErrNotFound", err)
	}
}

func TestListAnalysesNewestFirst(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a := &domain.Analysis{
			UserID:           "user_1",
			ImageURL:         "/media/x.jpg",
			AnalysisResult:   fmt.Sprintf("finding %d", i),
			SuggestedActions: "none",
		}
		if err := repo.SaveAnalysis(ctx, a); err != nil {
			t.Fatalf("SaveAnalysis %d failed: %v", i, err)
		}
	}
	other := &domain.Analysis{UserID: "user_2", ImageURL: "/media/y.jpg", AnalysisResult: "other", SuggestedActions: "none"}
	if err := repo.SaveAnalysis(ctx, other); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	got, err := repo.ListAnalyses(ctx, "user_1", 3)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want limit of 3", len(got))
	}
	if got[0].AnalysisResult != "finding 4" {
		t.Errorf("first record = %q, want the newest", got[0].AnalysisResult)
	}
	for i := 1; i < len(got); i++ {
		if !got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Errorf("records not strictly descending at index %d", i)
		}
	}
	for _, a := range got {
		if a.UserID != "user_1" {
			t.Errorf("record %s belongs to %s, want user_1 only", a.ID, a.UserID)
		}
	}
}

func TestListAnalysesEmptyHistory(t *testing.T) {
	repo := newTestStore(t)

	got, err := repo.ListAnalyses(context.Background(), "user_1", 10)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records for a fresh user, want 0", len(got))
	}
}

func TestUserLifecycle(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	// Unknown users come back as nil, not an error.
	got, err := repo.GetUser(ctx, "user_missing")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown user, got %+v", got)
	}

	now := time.Now().Truncate(time.Second)
	user := &domain.User{UserID: "user_1", Username: "grower-deadbeef", LastSeenAt: now, CreatedAt: now}
	if err := repo.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	got, err = repo.GetUser(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Username != "grower-deadbeef" || !got.LastSeenAt.Equal(now) {
		t.Errorf("round-tripped user does not match: %+v", got)
	}

	// Upserting again keeps one row and refreshes last_seen_at.
	later := now.Add(time.Hour)
	user.LastSeenAt = later
	if err := repo.UpsertUser(ctx, user); err != nil {
		t.Fatalf("second UpsertUser failed: %v", err)
	}
	got, err = repo.GetUser(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !got.LastSeenAt.Equal(later) {
		t.Errorf("LastSeenAt = %v, want %v", got.LastSeenAt, later)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt changed on upsert: %v, want %v", got.CreatedAt, now)
	}
}

func TestUpdateLastSeen(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	user := &domain.User{UserID: "user_1", Username: "grower", LastSeenAt: now, CreatedAt: now}
	if err := repo.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	later := now.Add(2 * time.Hour)
	if err := repo.UpdateLastSeen(ctx, "user_1", later); err != nil {
		t.Fatalf("UpdateLastSeen failed: %v", err)
	}

	got, err := repo.GetUser(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !got.LastSeenAt.Equal(later) {
		t.Errorf("LastSeenAt = %v, want %v", got.LastSeenAt, later)
	}
}

func TestSubscribeSignalsOnSave(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	ch, cancel := repo.Subscribe("user_1")
	defer cancel()

	otherCh, otherCancel := repo.Subscribe("user_2")
	defer otherCancel()

	a := &domain.Analysis{UserID: "user_1", ImageURL: "/media/x.jpg", AnalysisResult: "ok", SuggestedActions: "none"}
	if err := repo.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal for the owning user")
	}

	select {
	case <-otherCh:
		t.Fatal("unrelated user received a change signal")
	default:
	}
}

func TestSubscribeCancelStopsSignals(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	ch, cancel := repo.Subscribe("user_1")
	cancel()

	a := &domain.Analysis{UserID: "user_1", ImageURL: "/media/x.jpg", AnalysisResult: "ok", SuggestedActions: "none"}
	if err := repo.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	select {
	case <-ch:
		t.Fatal("cancelled subscription still received a signal")
	default:
	}
}
