package advisor

import (
	"context"
	"strings"
	"time"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
	"github.com/oeonyangoemma-bot/agrivision/internal/llm"
	"github.com/oeonyangoemma-bot/agrivision/internal/store"
)

const (
	// LookupToolName is the capability declared to the model.
	LookupToolName = "lookup_past_analyses"

	// lookupPageSize bounds every lookup result.
	lookupPageSize = 10
)

// lookupToolDeclaration describes the history lookup capability. The model
// supplies the arguments; the orchestrator executes the side effect.
func lookupToolDeclaration() llm.Tool {
	return llm.Tool{
		Name:        LookupToolName,
		Description: "Look up the user's past crop analyses. Optionally filters by a search phrase matched against the diagnosis and the user's notes.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Free-text search phrase. Leave empty to fetch the most recent analyses.",
				},
				"userId": map[string]any{
					"type":        "string",
					"description": "Identifier of the user whose history to search.",
				},
			},
		},
	}
}

// HistoryLookup resolves a lookup query against the persisted analysis
// history.
type HistoryLookup struct {
	repo store.Repository
}

// NewHistoryLookup creates the lookup tool executor.
func NewHistoryLookup(repo store.Repository) *HistoryLookup {
	return &HistoryLookup{repo: repo}
}

// Search fetches the requester's most recent analyses, newest first and
// bounded to the page size, then applies a case-insensitive substring filter
// over the diagnosis and notes when a non-empty query is given.
//
// Anonymous requesters always get the empty sequence without a storage
// round-trip: anonymous sessions have no addressable history.
func (l *HistoryLookup) Search(ctx context.Context, userID, query string) ([]domain.Analysis, error) {
	if domain.IsAnonymous(userID) {
		return nil, nil
	}

	records, err := l.repo.ListAnalyses(ctx, userID, lookupPageSize)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return records, nil
	}

	needle := strings.ToLower(query)
	filtered := make([]domain.Analysis, 0, len(records))
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.AnalysisResult), needle) ||
			strings.Contains(strings.ToLower(rec.AdditionalDetails), needle) {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// lookupRecord is the tool-result shape handed back to the model.
type lookupRecord struct {
	AnalysisResult    string `json:"analysisResult"`
	AdditionalDetails string `json:"additionalDetails,omitempty"`
	SuggestedActions  string `json:"suggestedActions,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
}

func toLookupRecords(records []domain.Analysis) []lookupRecord {
	out := make([]lookupRecord, 0, len(records))
	for _, rec := range records {
		lr := lookupRecord{
			AnalysisResult:    rec.AnalysisResult,
			AdditionalDetails: rec.AdditionalDetails,
			SuggestedActions:  rec.SuggestedActions,
		}
		if !rec.CreatedAt.IsZero() {
			lr.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
		}
		out = append(out, lr)
	}
	return out
}
