package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
)

// OpenAIClient implements Client against any OpenAI-compatible completion
// API using the official OpenAI Go SDK.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates a provider client. baseURL may be empty for the
// default OpenAI endpoint; apiKey is required.
func NewOpenAIClient(baseURL, apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("model API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Complete submits one request and returns the reply as an ordered segment
// sequence. Provider failures and empty replies come back as domain.ErrModel.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Messages: toOpenAIMessages(req.System, req.Turns),
		Model:    openai.ChatModel(c.model),
	}

	if len(req.Tools) > 0 {
		params.Tools = toOpenAITools(req.Tools)
	}

	if req.ResponseSchema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.ResponseSchema.Name,
					Schema: req.ResponseSchema.Schema,
					Strict: openai.Bool(true),
				},
			},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModel, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: completion contained no choices", domain.ErrModel)
	}

	msg := resp.Choices[0].Message

	var segments []domain.Segment
	if msg.Content != "" {
		segments = append(segments, domain.TextSegment(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		segments = append(segments, domain.ToolCallSegment(
			tc.ID,
			tc.Function.Name,
			ParseToolArguments(tc.Function.Arguments),
		))
	}

	return &Completion{Segments: segments}, nil
}
