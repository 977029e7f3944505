package domain

import "testing"

func TestTurnText(t *testing.T) {
	turn := AssistantTurn(
		TextSegment("The last analysis "),
		ToolCallSegment("call_1", "lookup_past_analyses", map[string]any{"query": "lettuce"}),
		TextSegment("found aphids."),
		ToolResultSegment("call_1", `{"analyses":[]}`),
	)

	// Tool segments contribute no text; order of text segments is preserved.
	want := "The last analysis found aphids."
	if got := turn.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestTurnTextEmpty(t *testing.T) {
	turn := AssistantTurn(ToolCallSegment("call_1", "lookup_past_analyses", nil))
	if got := turn.Text(); got != "" {
		t.Errorf("Text() = %q, want empty", got)
	}
}

func TestUserTurn(t *testing.T) {
	turn := UserTurn("what did you find?")
	if turn.Role != RoleUser {
		t.Errorf("role = %q, want %q", turn.Role, RoleUser)
	}
	if len(turn.Segments) != 1 || turn.Segments[0].Kind != SegmentText {
		t.Fatalf("unexpected segments: %+v", turn.Segments)
	}
}

func TestSegmentConstructors(t *testing.T) {
	img := ImageSegment("data:image/png;base64,AAAA")
	if img.Kind != SegmentImage || img.ImageURL == "" {
		t.Errorf("unexpected image segment: %+v", img)
	}

	call := ToolCallSegment("id1", "lookup_past_analyses", map[string]any{"query": "maize"})
	if call.Kind != SegmentToolCall || call.ToolCallID != "id1" || call.ToolName != "lookup_past_analyses" {
		t.Errorf("unexpected tool call segment: %+v", call)
	}

	res := ToolResultSegment("id1", "{}")
	if res.Kind != SegmentToolResult || res.ToolResult != "{}" {
		t.Errorf("unexpected tool result segment: %+v", res)
	}
}
