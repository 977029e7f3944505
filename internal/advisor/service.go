// Package advisor implements the conversational advisory loop: a stateless
// per-request orchestration that answers agricultural questions, optionally
// grounding the answer in the user's own analysis history via a model
// tool-calling round.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
	"github.com/oeonyangoemma-bot/agrivision/internal/llm"
)

// PlaceholderAdvice is returned when no text is extractable after both
// model rounds. It bounds worst-case latency: the orchestrator terminates
// here instead of entering further tool-calling rounds.
const PlaceholderAdvice = "I'm still processing your question. Please ask again in a moment."

// Service orchestrates one question/answer cycle. No session state is held
// between invocations; the full turn history is resent on every call.
type Service struct {
	client llm.Client
	lookup *HistoryLookup
}

// NewService wires the orchestrator dependencies.
func NewService(client llm.Client, lookup *HistoryLookup) *Service {
	return &Service{client: client, lookup: lookup}
}

func systemPrompt(userID string) string {
	base := "You are an agricultural advisor for farmers. Provide helpful, practical advice in plain language."
	if domain.IsAnonymous(userID) {
		return base + " The user is not signed in, so no past analysis history is available; do not attempt a history lookup."
	}
	return fmt.Sprintf(
		"%s You may call the %s tool to consult the user's past crop analyses when the question refers to them. The user's identifier is %q.",
		base, LookupToolName, userID,
	)
}

// Advise answers a question, issuing at most two model round-trips. The
// second occurs if and only if the first requested a history lookup; the
// lookup executes at most once per invocation.
func (s *Service) Advise(ctx context.Context, userID, question string, history []domain.ConversationTurn) (string, error) {
	turns := append(slices.Clone(history), domain.UserTurn(question))

	completion, err := s.client.Complete(ctx, llm.Request{
		System: systemPrompt(userID),
		Turns:  turns,
		Tools:  []llm.Tool{lookupToolDeclaration()},
	})
	if err != nil {
		return "", err
	}

	calls := completion.ToolCalls()
	if len(calls) == 0 {
		if text := completion.Text(); text != "" {
			return text, nil
		}
		// Empty reply with no tool request: recover locally.
		return PlaceholderAdvice, nil
	}

	// The model requested a lookup. Execute it ourselves (the model never
	// runs side effects), answer every call ID, and resubmit once. Only the
	// first call is executed; duplicates in the same reply get a stub.
	segments := slices.Clone(completion.Segments)
	for i, call := range calls {
		var result string
		if i == 0 {
			result = s.executeLookup(ctx, userID, call)
		} else {
			result = `{"error":"the history lookup already ran for this question"}`
		}
		segments = append(segments, domain.ToolResultSegment(call.ID, result))
	}
	turns = append(turns, domain.AssistantTurn(segments...))

	// No tools on the second dispatch: this is the terminal round.
	second, err := s.client.Complete(ctx, llm.Request{
		System: systemPrompt(userID),
		Turns:  turns,
	})
	if err != nil {
		return "", err
	}
	if text := second.Text(); text != "" {
		return text, nil
	}
	return PlaceholderAdvice, nil
}

// executeLookup runs the history lookup for a tool call. The requester's
// authenticated identifier is authoritative; a userId argument supplied by
// the model is never trusted. Storage failures degrade to an error payload
// in the tool result so the conversation still gets a best-effort reply.
func (s *Service) executeLookup(ctx context.Context, userID string, call llm.ToolCall) string {
	query, _ := call.Arguments["query"].(string)

	records, err := s.lookup.Search(ctx, userID, query)
	if err != nil {
		slog.Warn("history lookup failed", "user_id", userID, "error", err)
		return `{"error":"the analysis history is temporarily unavailable"}`
	}

	payload, err := json.Marshal(map[string]any{"analyses": toLookupRecords(records)})
	if err != nil {
		slog.Warn("failed to encode lookup result", "user_id", userID, "error", err)
		return `{"analyses":[]}`
	}
	return string(payload)
}
