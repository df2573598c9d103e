package anthropic

import (
	"encoding/json"
	"testing"
)

func event(t *testing.T, raw string) *StreamEvent {
	t.Helper()
	var ev StreamEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	return &ev
}

func TestTranslateStreamEvents(t *testing.T) {
	st := NewStreamState()

	chunk := TranslateStreamEvent(event(t,
		`{"type":"message_start","message":{"id":"msg_1","model":"claude-3-5-sonnet","usage":{"input_tokens":12}}}`), st)
	if chunk == nil {
		t.Fatal("message_start should emit a role chunk")
	}
	if chunk.Choices[0].Delta.Role != "assistant" {
		t.Errorf("role = %q", chunk.Choices[0].Delta.Role)
	}
	if chunk.Model != "claude-3-5-sonnet" {
		t.Errorf("model = %q", chunk.Model)
	}

	chunk = TranslateStreamEvent(event(t,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"hel"}}`), st)
	if chunk == nil || chunk.Choices[0].Delta.Content != "hel" {
		t.Fatalf("text delta chunk = %+v", chunk)
	}

	if c := TranslateStreamEvent(event(t, `{"type":"content_block_stop","index":0}`), st); c != nil {
		t.Errorf("content_block_stop should not emit, got %+v", c)
	}

	chunk = TranslateStreamEvent(event(t,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":7}}`), st)
	if chunk == nil || chunk.Choices[0].FinishReason == nil || *chunk.Choices[0].FinishReason != "stop" {
		t.Fatalf("final chunk = %+v", chunk)
	}
	if chunk.Usage == nil || chunk.Usage.PromptTokens != 12 || chunk.Usage.CompletionTokens != 7 || chunk.Usage.TotalTokens != 19 {
		t.Errorf("usage = %+v", chunk.Usage)
	}
}

func TestTranslateStreamToolUse(t *testing.T) {
	st := NewStreamState()
	TranslateStreamEvent(event(t, `{"type":"message_start","message":{"id":"m","model":"claude","usage":{"input_tokens":1}}}`), st)

	chunk := TranslateStreamEvent(event(t,
		`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather"}}`), st)
	if chunk == nil || len(chunk.Choices[0].Delta.ToolCalls) != 1 {
		t.Fatalf("tool start chunk = %+v", chunk)
	}
	tc := chunk.Choices[0].Delta.ToolCalls[0]
	if tc.Index != 0 || tc.ID != "toolu_1" || tc.Function.Name != "get_weather" {
		t.Errorf("tool call delta = %+v", tc)
	}

	chunk = TranslateStreamEvent(event(t,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"city\":"}}`), st)
	if chunk == nil || chunk.Choices[0].Delta.ToolCalls[0].Function.Arguments != `{"city":` {
		t.Fatalf("arguments delta = %+v", chunk)
	}

	// Stream chunks for one message share one id.
	if chunk.ID == "" || chunk.ID != st.id {
		t.Errorf("chunk id = %q", chunk.ID)
	}
}

func TestTranslateStreamTextBlockStartIsSilent(t *testing.T) {
	st := NewStreamState()
	if c := TranslateStreamEvent(event(t,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`), st); c != nil {
		t.Errorf("text content_block_start should not emit, got %+v", c)
	}
}
