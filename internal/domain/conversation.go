package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SegmentKind discriminates the variants of a content segment.
type SegmentKind string

const (
	SegmentText       SegmentKind = "text"
	SegmentImage      SegmentKind = "image"
	SegmentToolCall   SegmentKind = "tool_call"
	SegmentToolResult SegmentKind = "tool_result"
)

// Segment is one content unit inside a conversation turn. Exactly the fields
// for its Kind are populated; consumers switch on Kind rather than sniffing
// the shape of the payload.
type Segment struct {
	Kind SegmentKind `json:"kind"`

	// SegmentText
	Text string `json:"text,omitempty"`

	// SegmentImage: a data URI or resolvable URL.
	ImageURL string `json:"image_url,omitempty"`

	// SegmentToolCall
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	ToolArgs   map[string]any `json:"tool_args,omitempty"`

	// SegmentToolResult
	ToolResult string `json:"tool_result,omitempty"`
}

// TextSegment builds a plain text segment.
func TextSegment(text string) Segment {
	return Segment{Kind: SegmentText, Text: text}
}

// ImageSegment builds an image segment from a data URI or URL.
func ImageSegment(url string) Segment {
	return Segment{Kind: SegmentImage, ImageURL: url}
}

// ToolCallSegment builds a tool-invocation segment.
func ToolCallSegment(id, name string, args map[string]any) Segment {
	return Segment{Kind: SegmentToolCall, ToolCallID: id, ToolName: name, ToolArgs: args}
}

// ToolResultSegment builds a tool-result segment answering a prior call.
func ToolResultSegment(callID, result string) Segment {
	return Segment{Kind: SegmentToolResult, ToolCallID: callID, ToolResult: result}
}

// ConversationTurn is one exchange unit in the chat history. Insertion order
// of turns and of segments within a turn is semantically significant: it
// reconstructs the dialogue context on every stateless call.
type ConversationTurn struct {
	Role     Role      `json:"role"`
	Segments []Segment `json:"segments"`
}

// UserTurn builds a plain-text user turn.
func UserTurn(text string) ConversationTurn {
	return ConversationTurn{Role: RoleUser, Segments: []Segment{TextSegment(text)}}
}

// AssistantTurn builds an assistant turn from arbitrary segments.
func AssistantTurn(segments ...Segment) ConversationTurn {
	return ConversationTurn{Role: RoleAssistant, Segments: segments}
}

// Text returns the ordered concatenation of all text segments in the turn.
// Tool-invocation and tool-result segments contribute nothing.
func (t ConversationTurn) Text() string {
	var out string
	for _, s := range t.Segments {
		if s.Kind == SegmentText {
			out += s.Text
		}
	}
	return out
}
