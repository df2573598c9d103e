package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMessageContentUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantText  string
		wantParts int
	}{
		{
			name:     "plain string",
			input:    `"hello"`,
			wantText: "hello",
		},
		{
			name:      "part list",
			input:     `[{"type":"text","text":"a"},{"type":"text","text":"b"}]`,
			wantText:  "a b",
			wantParts: 2,
		},
		{
			name:      "image part skipped in text",
			input:     `[{"type":"text","text":"look"},{"type":"image_url","image_url":{"url":"https://x/y.png"}}]`,
			wantText:  "look",
			wantParts: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c MessageContent
			if err := json.Unmarshal([]byte(tt.input), &c); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := c.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if len(c.Parts) != tt.wantParts {
				t.Errorf("len(Parts) = %d, want %d", len(c.Parts), tt.wantParts)
			}
		})
	}
}

func TestMessageContentRoundTrip(t *testing.T) {
	inputs := []string{
		`"just text"`,
		`[{"type":"text","text":"a"},{"type":"image_url","image_url":{"url":"https://x/y.png"}}]`,
	}
	for _, input := range inputs {
		var c MessageContent
		if err := json.Unmarshal([]byte(input), &c); err != nil {
			t.Fatalf("unmarshal %s: %v", input, err)
		}
		out, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var again MessageContent
		if err := json.Unmarshal(out, &again); err != nil {
			t.Fatalf("re-unmarshal: %v", err)
		}
		if again.Text() != c.Text() {
			t.Errorf("round trip changed text: %q != %q", again.Text(), c.Text())
		}
	}
}

func TestEffectiveMaxTokens(t *testing.T) {
	intp := func(n int) *int { return &n }

	tests := []struct {
		name string
		req  ChatCompletionRequest
		want int
	}{
		{name: "neither set", want: 0},
		{name: "max_tokens only", req: ChatCompletionRequest{MaxTokens: intp(100)}, want: 100},
		{name: "max_completion_tokens wins", req: ChatCompletionRequest{MaxTokens: intp(100), MaxCompletionTokens: intp(50)}, want: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.EffectiveMaxTokens(); got != tt.want {
				t.Errorf("EffectiveMaxTokens() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChatRequestRoundTrip(t *testing.T) {
	input := `{
		"model": "gpt-4",
		"messages": [
			{"role": "system", "content": "be terse"},
			{"role": "user", "content": "hi"}
		],
		"temperature": 0.2,
		"stream": true,
		"tools": [{"type":"function","function":{"name":"get_weather","parameters":{"type":"object"}}}],
		"response_format": {"type":"json_schema","json_schema":{"name":"answer","schema":{"type":"object"}}}
	}`

	var req ChatCompletionRequest
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Model != "gpt-4" || len(req.Messages) != 2 || !req.Stream {
		t.Fatalf("unexpected decode: %+v", req)
	}
	if req.Temperature == nil || *req.Temperature != 0.2 {
		t.Errorf("temperature not decoded")
	}
	if req.ResponseFormat == nil || req.ResponseFormat.JSONSchema == nil || req.ResponseFormat.JSONSchema.Name != "answer" {
		t.Errorf("response_format not decoded: %+v", req.ResponseFormat)
	}

	out, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again ChatCompletionRequest
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if again.Messages[0].Content.Text() != "be terse" {
		t.Errorf("system content lost in round trip")
	}
}

func TestNewResponseID(t *testing.T) {
	id := NewResponseID()
	if !strings.HasPrefix(id, "chatcmpl-") {
		t.Errorf("NewResponseID() = %q, want chatcmpl- prefix", id)
	}
	if id == NewResponseID() {
		t.Errorf("ids should be unique")
	}
}

func TestEmbeddingsInputUnmarshal(t *testing.T) {
	var single EmbeddingsInput
	if err := json.Unmarshal([]byte(`"one"`), &single); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if got := single.Texts(); len(got) != 1 || got[0] != "one" {
		t.Errorf("Texts() = %v", got)
	}

	var multi EmbeddingsInput
	if err := json.Unmarshal([]byte(`["a","b"]`), &multi); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if got := multi.Texts(); len(got) != 2 {
		t.Errorf("Texts() = %v", got)
	}

	var bad EmbeddingsInput
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Errorf("expected error for numeric input")
	}
}
