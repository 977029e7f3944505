package advisor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
)

// fakeRepo serves canned analysis lists and records query activity.
type fakeRepo struct {
	listed    []domain.Analysis
	listErr   error
	listCalls int
}

func (f *fakeRepo) SaveAnalysis(ctx context.Context, a *domain.Analysis) error { return nil }

func (f *fakeRepo) GetAnalysis(ctx context.Context, userID, id string) (*domain.Analysis, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) ListAnalyses(ctx context.Context, userID string, limit int) ([]domain.Analysis, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit < len(f.listed) {
		return f.listed[:limit], nil
	}
	return f.listed, nil
}

func (f *fakeRepo) GetUser(ctx context.Context, userID string) (*domain.User, error) { return nil, nil }
func (f *fakeRepo) UpsertUser(ctx context.Context, user *domain.User) error          { return nil }
func (f *fakeRepo) UpdateLastSeen(ctx context.Context, userID string, t time.Time) error {
	return nil
}
func (f *fakeRepo) Subscribe(userID string) (<-chan struct{}, func()) {
	return make(chan struct{}), func() {}
}
func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

func recentAnalyses(n int) []domain.Analysis {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	out := make([]domain.Analysis, n)
	for i := range out {
		out[i] = domain.Analysis{
			ID:             fmt.Sprintf("a%d", i),
			UserID:         "user_1",
			AnalysisResult: fmt.Sprintf("Finding %d", i),
			CreatedAt:      base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return out
}

func TestSearchAnonymousAlwaysEmpty(t *testing.T) {
	repo := &fakeRepo{listed: recentAnalyses(5)}
	lookup := NewHistoryLookup(repo)

	// The invariant holds for arbitrary query strings.
	queries := []string{"", "lettuce", "LETTUCE", "   ", "a", "Δοκιμή", "x\x00y", "%_*"}
	for _, q := range queries {
		records, err := lookup.Search(context.Background(), domain.AnonymousUserID, q)
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", q, err)
		}
		if len(records) != 0 {
			t.Errorf("Search(%q) returned %d records, want 0", q, len(records))
		}
	}

	if repo.listCalls != 0 {
		t.Errorf("storage queried %d times for anonymous lookups, want 0", repo.listCalls)
	}
}

func TestSearchBoundAndOrder(t *testing.T) {
	repo := &fakeRepo{listed: recentAnalyses(25)}
	lookup := NewHistoryLookup(repo)

	records, err := lookup.Search(context.Background(), "user_1", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(records) > lookupPageSize {
		t.Fatalf("got %d records, want at most %d", len(records), lookupPageSize)
	}
	for i := 1; i < len(records); i++ {
		if !records[i].CreatedAt.Before(records[i-1].CreatedAt) {
			t.Errorf("records not strictly descending at index %d", i)
		}
	}
}

func TestSearchCaseInsensitiveFilter(t *testing.T) {
	repo := &fakeRepo{listed: []domain.Analysis{
		{AnalysisResult: "Aphid Infestation", AdditionalDetails: "lettuce", CreatedAt: time.Now()},
		{AnalysisResult: "Soil dryness", AdditionalDetails: "maize field", CreatedAt: time.Now().Add(-time.Hour)},
		{AnalysisResult: "Healthy LETTUCE crop", CreatedAt: time.Now().Add(-2 * time.Hour)},
	}}
	lookup := NewHistoryLookup(repo)

	records, err := lookup.Search(context.Background(), "user_1", "Lettuce")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}
	// The filter matches the diagnosis and the notes fields.
	if records[0].AdditionalDetails != "lettuce" {
		t.Errorf("expected notes match first, got %+v", records[0])
	}
	if records[1].AnalysisResult != "Healthy LETTUCE crop" {
		t.Errorf("expected diagnosis match second, got %+v", records[1])
	}
}

func TestSearchEmptyQueryReturnsAll(t *testing.T) {
	repo := &fakeRepo{listed: recentAnalyses(4)}
	lookup := NewHistoryLookup(repo)

	records, err := lookup.Search(context.Background(), "user_1", "   ")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(records) != 4 {
		t.Errorf("got %d records, want all 4 when no query is given", len(records))
	}
}
