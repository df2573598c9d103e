package anthropic

import (
	"testing"

	"llmhub/gateway/pkg/schema"
)

func chatReq(msgs ...schema.Message) *schema.ChatCompletionRequest {
	return &schema.ChatCompletionRequest{Model: "claude-3-5-sonnet", Messages: msgs}
}

func textMsg(role, text string) schema.Message {
	return schema.Message{Role: role, Content: schema.NewTextContent(text)}
}

func TestTranslateRequestSystemExtraction(t *testing.T) {
	req := TranslateRequest(chatReq(
		textMsg(schema.RoleSystem, "be terse"),
		textMsg(schema.RoleUser, "hi"),
	))

	if req.System != "be terse" {
		t.Errorf("System = %q, want %q", req.System, "be terse")
	}
	if len(req.Messages) != 1 {
		t.Fatalf("messages = %+v, want only the user turn", req.Messages)
	}
	if req.Messages[0].Role != "user" {
		t.Errorf("role = %q", req.Messages[0].Role)
	}
	if req.MaxTokens != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want default %d", req.MaxTokens, DefaultMaxTokens)
	}
}

func TestTranslateRequestJoinsSystemMessages(t *testing.T) {
	req := TranslateRequest(chatReq(
		textMsg(schema.RoleSystem, "one"),
		textMsg(schema.RoleSystem, "two"),
		textMsg(schema.RoleUser, "hi"),
	))
	if req.System != "one\ntwo" {
		t.Errorf("System = %q", req.System)
	}
}

func TestTranslateRequestToolResult(t *testing.T) {
	req := TranslateRequest(chatReq(
		textMsg(schema.RoleUser, "weather?"),
		schema.Message{
			Role: schema.RoleAssistant,
			ToolCalls: []schema.ToolCall{{
				ID:   "call_1",
				Type: "function",
				Function: schema.FunctionCall{
					Name:      "get_weather",
					Arguments: `{"city":"Berlin"}`,
				},
			}},
		},
		schema.Message{
			Role:       schema.RoleTool,
			ToolCallID: "call_1",
			Content:    schema.NewTextContent("sunny"),
		},
	))

	if len(req.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(req.Messages))
	}

	assistant := req.Messages[1]
	blocks, ok := assistant.Content.([]ContentBlock)
	if !ok || len(blocks) != 1 || blocks[0].Type != "tool_use" {
		t.Fatalf("assistant content = %+v", assistant.Content)
	}
	if blocks[0].Name != "get_weather" || blocks[0].Input["city"] != "Berlin" {
		t.Errorf("tool_use block = %+v", blocks[0])
	}

	toolTurn := req.Messages[2]
	if toolTurn.Role != "user" {
		t.Errorf("tool result role = %q, want user", toolTurn.Role)
	}
	rblocks, ok := toolTurn.Content.([]ContentBlock)
	if !ok || len(rblocks) != 1 || rblocks[0].Type != "tool_result" || rblocks[0].ToolUseID != "call_1" {
		t.Errorf("tool_result block = %+v", toolTurn.Content)
	}
}

func TestTranslateToolChoice(t *testing.T) {
	tests := []struct {
		name   string
		choice any
		want   any
	}{
		{name: "auto", choice: "auto", want: map[string]any{"type": "auto"}},
		{name: "required maps to any", choice: "required", want: map[string]any{"type": "any"}},
		{name: "none drops", choice: "none", want: nil},
		{
			name:   "function",
			choice: map[string]any{"type": "function", "function": map[string]any{"name": "f"}},
			want:   map[string]any{"type": "tool", "name": "f"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateToolChoice(tt.choice)
			if tt.want == nil {
				if got != nil {
					t.Errorf("got %+v, want nil", got)
				}
				return
			}
			gm, wm := got.(map[string]any), tt.want.(map[string]any)
			for k, v := range wm {
				if gm[k] != v {
					t.Errorf("key %s = %v, want %v", k, gm[k], v)
				}
			}
		})
	}
}

func TestMapStopReason(t *testing.T) {
	tests := []struct{ in, want string }{
		{"end_turn", "stop"},
		{"stop_sequence", "stop"},
		{"max_tokens", "length"},
		{"tool_use", "tool_calls"},
		{"weird", "weird"},
	}
	for _, tt := range tests {
		if got := MapStopReason(tt.in); got != tt.want {
			t.Errorf("MapStopReason(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTranslateResponse(t *testing.T) {
	resp := TranslateResponse(&Response{
		ID:    "msg_1",
		Model: "claude-3-5-sonnet",
		Content: []ContentBlock{
			{Type: "text", Text: "hello "},
			{Type: "text", Text: "there"},
		},
		StopReason: "end_turn",
		Usage:      Usage{InputTokens: 10, OutputTokens: 5},
	})

	if resp.ID != "msg_1" || resp.Model != "claude-3-5-sonnet" {
		t.Errorf("identity fields: %+v", resp)
	}
	if got := resp.Choices[0].Message.Content.Text(); got != "hello there" {
		t.Errorf("content = %q", got)
	}
	if resp.Choices[0].FinishReason != "stop" {
		t.Errorf("finish_reason = %q", resp.Choices[0].FinishReason)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
}
