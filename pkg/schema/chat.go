package schema

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Message roles recognized on the chat surface.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Reasoning effort levels accepted on the chat surface.
const (
	ReasoningEffortLow    = "low"
	ReasoningEffortMedium = "medium"
	ReasoningEffortHigh   = "high"
)

// ChatCompletionRequest is the unified chat request. It is the superset of
// fields the gateway recognizes and forwards; unknown fields are dropped by
// the JSON decoder.
type ChatCompletionRequest struct {
	Model               string           `json:"model"`
	Messages            []Message        `json:"messages"`
	Temperature         *float64         `json:"temperature,omitempty"`
	TopP                *float64         `json:"top_p,omitempty"`
	N                   *int             `json:"n,omitempty"`
	Stream              bool             `json:"stream,omitempty"`
	MaxTokens           *int             `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int             `json:"max_completion_tokens,omitempty"`
	Stop                []string         `json:"stop,omitempty"`
	PresencePenalty     *float64         `json:"presence_penalty,omitempty"`
	FrequencyPenalty    *float64         `json:"frequency_penalty,omitempty"`
	LogitBias           map[string]int   `json:"logit_bias,omitempty"`
	User                string           `json:"user,omitempty"`
	Tools               []Tool           `json:"tools,omitempty"`
	ToolChoice          any              `json:"tool_choice,omitempty"`
	ResponseFormat      *ResponseFormat  `json:"response_format,omitempty"`
	Logprobs            *bool            `json:"logprobs,omitempty"`
	TopLogprobs         *int             `json:"top_logprobs,omitempty"`
	Reasoning           *ReasoningConfig `json:"reasoning,omitempty"`
}

// EffectiveMaxTokens returns max_completion_tokens when set, falling back to
// max_tokens, or 0 when neither is present.
func (r *ChatCompletionRequest) EffectiveMaxTokens() int {
	if r.MaxCompletionTokens != nil {
		return *r.MaxCompletionTokens
	}
	if r.MaxTokens != nil {
		return *r.MaxTokens
	}
	return 0
}

// ReasoningConfig carries the requested reasoning effort for models that
// support extended thinking.
type ReasoningConfig struct {
	Effort string `json:"effort,omitempty"`
}

// ResponseFormat selects the output format, optionally with a JSON schema.
type ResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *JSONSchemaSpec `json:"json_schema,omitempty"`
}

// JSONSchemaSpec is the schema payload of a json_schema response format.
type JSONSchemaSpec struct {
	Name   string         `json:"name,omitempty"`
	Strict *bool          `json:"strict,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
}

// Message is a single conversation turn. Content is either a plain string or
// an ordered list of parts.
type Message struct {
	Role       string         `json:"role"`
	Content    MessageContent `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// MessageContent is the string-or-parts union used by the messages field.
// Exactly one of String or Parts is set; a zero value encodes as null.
type MessageContent struct {
	String *string
	Parts  []ContentPart
}

// Text flattens the content to plain text. Image parts are skipped.
func (c MessageContent) Text() string {
	if c.String != nil {
		return *c.String
	}
	out := ""
	for _, p := range c.Parts {
		if p.Type == ContentPartText {
			if out != "" {
				out += " "
			}
			out += p.Text
		}
	}
	return out
}

// IsZero reports whether no content was provided.
func (c MessageContent) IsZero() bool {
	return c.String == nil && c.Parts == nil
}

// NewTextContent returns string-valued message content.
func NewTextContent(s string) MessageContent {
	return MessageContent{String: &s}
}

// MarshalJSON implements json.Marshaler.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.String != nil {
		return json.Marshal(*c.String)
	}
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = MessageContent{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.String = &s
		c.Parts = nil
		return nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("content must be a string or an array of parts: %w", err)
	}
	c.String = nil
	c.Parts = parts
	return nil
}

// Content part types.
const (
	ContentPartText     = "text"
	ContentPartImageURL = "image_url"
)

// ContentPart is one element of a multi-part message content array.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references image content by URL or data URI.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// Tool declares a function the model may call.
type Tool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes a callable function.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolCall is a function invocation emitted by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatCompletionResponse is the unified non-streaming chat response.
type ChatCompletionResponse struct {
	ID                string       `json:"id"`
	Object            string       `json:"object"`
	Created           int64        `json:"created"`
	Model             string       `json:"model"`
	Choices           []ChatChoice `json:"choices"`
	Usage             *Usage       `json:"usage,omitempty"`
	SystemFingerprint string       `json:"system_fingerprint,omitempty"`
}

// ChatChoice is one generated alternative in a chat response.
type ChatChoice struct {
	Index        int      `json:"index"`
	Message      Message  `json:"message"`
	FinishReason string   `json:"finish_reason,omitempty"`
	Logprobs     *LogProb `json:"logprobs,omitempty"`
}

// LogProb carries token log-probability information when requested.
type LogProb struct {
	Content []TokenLogProb `json:"content,omitempty"`
}

// TokenLogProb is the log probability of a single generated token.
type TokenLogProb struct {
	Token       string         `json:"token"`
	Logprob     float64        `json:"logprob"`
	TopLogprobs []TokenLogProb `json:"top_logprobs,omitempty"`
}

// Usage reports token consumption for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewResponseID generates a locally unique response id with the standard
// chatcmpl prefix, used when the upstream provider does not supply one.
func NewResponseID() string {
	return "chatcmpl-" + uuid.NewString()
}

// NewToolCallID generates an id for tool calls synthesized from providers
// that do not assign their own.
func NewToolCallID() string {
	return "call_" + uuid.NewString()
}
