package llm

import (
	"encoding/json"

	"github.com/openai/openai-go/v3"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
)

// toOpenAIMessages converts an optional system instruction plus the ordered
// turn history into OpenAI message parameters. Turn order is preserved
// exactly; within a turn, the role message is emitted first and any
// tool-result segments follow as tool messages answering their call IDs.
func toOpenAIMessages(system string, turns []domain.ConversationTurn) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}

	for _, turn := range turns {
		var text string
		var images []string
		var toolCalls []domain.Segment
		var toolResults []domain.Segment

		for _, s := range turn.Segments {
			switch s.Kind {
			case domain.SegmentText:
				text += s.Text
			case domain.SegmentImage:
				images = append(images, s.ImageURL)
			case domain.SegmentToolCall:
				toolCalls = append(toolCalls, s)
			case domain.SegmentToolResult:
				toolResults = append(toolResults, s)
			}
		}

		switch {
		case turn.Role == domain.RoleAssistant && len(toolCalls) > 0:
			msgs = append(msgs, assistantMessageWithToolCalls(text, toolCalls))
		case turn.Role == domain.RoleAssistant && text != "":
			msgs = append(msgs, openai.AssistantMessage(text))
		case len(images) > 0:
			msgs = append(msgs, userMessageWithImages(text, images))
		case text != "":
			msgs = append(msgs, openai.UserMessage(text))
		}

		for _, s := range toolResults {
			msgs = append(msgs, openai.ToolMessage(s.ToolResult, s.ToolCallID))
		}
	}

	return msgs
}

func assistantMessageWithToolCalls(text string, calls []domain.Segment) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{}
	if text != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(text),
		}
	}
	for _, c := range calls {
		args, err := json.Marshal(c.ToolArgs)
		if err != nil {
			args = []byte("{}")
		}
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: c.ToolCallID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      c.ToolName,
					Arguments: string(args),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func userMessageWithImages(text string, images []string) openai.ChatCompletionMessageParamUnion {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(images)+1)
	if text != "" {
		parts = append(parts, openai.TextContentPart(text))
	}
	for _, url := range images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: url,
		}))
	}
	return openai.UserMessage(parts)
}

// toOpenAITools converts tool declarations to the OpenAI function-tool
// format. Parameters are passed through as a JSON Schema object.
func toOpenAITools(tools []Tool) []openai.ChatCompletionToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, t := range tools {
		result[i] = openai.ChatCompletionFunctionTool(
			openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Parameters),
			},
		)
	}
	return result
}

// ParseToolArguments parses a JSON arguments string into a map. Malformed
// arguments yield an empty map rather than failing the completion.
func ParseToolArguments(argsJSON string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return make(map[string]any)
	}
	return args
}
