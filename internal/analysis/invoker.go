// Package analysis implements the crop image analysis pipeline: input
// validation, the structured model invocation, and optional persistence.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
	"github.com/oeonyangoemma-bot/agrivision/internal/llm"
)

const analysisSystemPrompt = `You are an assistant specializing in agricultural analysis. ` +
	`Analyze the provided crop image and identify any signs of disease, pests, or soil dryness. ` +
	`Explain your findings in plain language that someone with limited technical knowledge can understand.`

// analysisSchema is the fixed output schema declared on every analysis call.
var analysisSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"analysisResult": map[string]any{
			"type":        "string",
			"description": "Clear, concise description of the findings and any issues identified.",
		},
		"confidenceLevel": map[string]any{
			"type":        "number",
			"minimum":     0,
			"maximum":     1,
			"description": "Confidence in the analysis result, between 0 and 1.",
		},
		"suggestedActions": map[string]any{
			"type":        "string",
			"description": "Practical steps the farmer can take to address the identified issues.",
		},
	},
	"required":             []string{"analysisResult", "confidenceLevel", "suggestedActions"},
	"additionalProperties": false,
}

// AnalyzeInput is one image plus optional free-text context.
type AnalyzeInput struct {
	MediaDataURI      string
	AdditionalDetails string
}

// AnalyzeOutput is the parsed structured diagnosis.
type AnalyzeOutput struct {
	AnalysisResult   string  `json:"analysisResult"`
	ConfidenceLevel  float64 `json:"confidenceLevel"`
	SuggestedActions string  `json:"suggestedActions"`
}

// Invoker turns one image into a structured diagnosis via a single model
// call. It has no side effects beyond the outbound request and never
// retries; a user-initiated resubmission is the recovery path.
type Invoker struct {
	client llm.Client
}

// NewInvoker creates an invoker bound to a provider client.
func NewInvoker(client llm.Client) *Invoker {
	return &Invoker{client: client}
}

// Analyze submits the image and parses the structured reply. Any provider
// failure or non-conforming output is reported as domain.ErrModel.
func (inv *Invoker) Analyze(ctx context.Context, in AnalyzeInput) (AnalyzeOutput, error) {
	prompt := "Analyze this crop image."
	if details := strings.TrimSpace(in.AdditionalDetails); details != "" {
		prompt += "\nAdditional details from the grower: " + details
	}

	completion, err := inv.client.Complete(ctx, llm.Request{
		System: analysisSystemPrompt,
		Turns: []domain.ConversationTurn{{
			Role: domain.RoleUser,
			Segments: []domain.Segment{
				domain.TextSegment(prompt),
				domain.ImageSegment(in.MediaDataURI),
			},
		}},
		ResponseSchema: &llm.JSONSchema{Name: "crop_health_analysis", Schema: analysisSchema},
	})
	if err != nil {
		return AnalyzeOutput{}, err
	}

	text := completion.Text()
	if text == "" {
		return AnalyzeOutput{}, fmt.Errorf("%w: %w", domain.ErrModel, domain.ErrEmptyResponse)
	}

	var out AnalyzeOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return AnalyzeOutput{}, fmt.Errorf("%w: output did not conform to the analysis schema", domain.ErrModel)
	}
	if out.AnalysisResult == "" {
		return AnalyzeOutput{}, fmt.Errorf("%w: output missing analysis result", domain.ErrModel)
	}

	out.ConfidenceLevel = domain.ClampConfidence(out.ConfidenceLevel)
	return out, nil
}
