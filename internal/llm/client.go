// Package llm defines the abstract interface to the hosted language model
// provider. The pipelines and the conversation orchestrator depend only on
// the Client interface, keeping provider-specific types out of the core and
// making the flows testable with in-memory fakes.
package llm

import (
	"context"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
)

// Tool declares a capability the model may request during a completion. The
// model never executes side effects itself; the caller runs the tool and
// resubmits the result.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// JSONSchema declares a fixed output schema for a structured completion.
type JSONSchema struct {
	Name   string
	Schema map[string]any
}

// Request is one submission to the provider.
type Request struct {
	System         string
	Turns          []domain.ConversationTurn
	Tools          []Tool
	ResponseSchema *JSONSchema
}

// ToolCall is a tool-invocation request extracted from a completion.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Completion is the provider's reply: an ordered sequence of text and
// tool-invocation segments. Consumers must handle both.
type Completion struct {
	Segments []domain.Segment
}

// Text returns the ordered concatenation of all text segments.
func (c *Completion) Text() string {
	return domain.ConversationTurn{Segments: c.Segments}.Text()
}

// ToolCalls returns the tool-invocation requests in segment order.
func (c *Completion) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, s := range c.Segments {
		if s.Kind == domain.SegmentToolCall {
			calls = append(calls, ToolCall{ID: s.ToolCallID, Name: s.ToolName, Arguments: s.ToolArgs})
		}
	}
	return calls
}

// Client submits requests to the language model provider.
//
// Implementations wrap all failures (transport, provider, unparseable
// output) as domain.ErrModel. Callers must not retry automatically; a
// user-initiated resubmission is the recovery path.
type Client interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}
