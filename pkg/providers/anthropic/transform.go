package anthropic

import (
	"encoding/json"
	"time"

	"llmhub/gateway/pkg/schema"
)

// Anthropic wire types for the /messages endpoint.

// Request is the Anthropic messages request body.
type Request struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	System        string    `json:"system,omitempty"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   *float64  `json:"temperature,omitempty"`
	TopP          *float64  `json:"top_p,omitempty"`
	Stream        bool      `json:"stream,omitempty"`
	Tools         []Tool    `json:"tools,omitempty"`
	ToolChoice    any       `json:"tool_choice,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
	Metadata      *Metadata `json:"metadata,omitempty"`
}

// Metadata carries the optional user id.
type Metadata struct {
	UserID string `json:"user_id,omitempty"`
}

// Message is one Anthropic conversation turn. Content is a string or a list
// of content blocks.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentBlock is one block of structured message content.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`

	// image (base64 source)
	Source *ImageSource `json:"source,omitempty"`
}

// ImageSource is Anthropic's inline image payload.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Tool is an Anthropic tool declaration.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// Response is the Anthropic messages response body.
type Response struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Model        string         `json:"model"`
	Content      []ContentBlock `json:"content"`
	StopReason   string         `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        Usage          `json:"usage"`
}

// Usage is Anthropic's token accounting.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// DefaultMaxTokens is applied when the incoming request does not set
// max_tokens; the Anthropic API requires the field.
const DefaultMaxTokens = 4096

// TranslateRequest converts a unified chat request to the Anthropic shape.
// System messages are lifted out of the message list into the top-level
// system field, and OpenAI tool conventions map onto Anthropic's tool_use /
// tool_result content blocks.
func TranslateRequest(req *schema.ChatCompletionRequest) *Request {
	out := &Request{
		Model:         req.Model,
		MaxTokens:     req.EffectiveMaxTokens(),
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		Stream:        req.Stream,
		StopSequences: req.Stop,
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	if req.User != "" {
		out.Metadata = &Metadata{UserID: req.User}
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case schema.RoleSystem:
			if out.System != "" {
				out.System += "\n"
			}
			out.System += msg.Content.Text()
		case schema.RoleTool:
			out.Messages = append(out.Messages, Message{
				Role: "user",
				Content: []ContentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content.Text(),
				}},
			})
		case schema.RoleAssistant:
			out.Messages = append(out.Messages, translateAssistant(msg))
		default:
			out.Messages = append(out.Messages, Message{Role: "user", Content: translateContent(msg.Content)})
		}
	}

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, Tool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			InputSchema: t.Function.Parameters,
		})
	}
	out.ToolChoice = translateToolChoice(req.ToolChoice)
	return out
}

func translateAssistant(msg schema.Message) Message {
	if len(msg.ToolCalls) == 0 {
		return Message{Role: "assistant", Content: translateContent(msg.Content)}
	}
	var blocks []ContentBlock
	if text := msg.Content.Text(); text != "" {
		blocks = append(blocks, ContentBlock{Type: "text", Text: text})
	}
	for _, tc := range msg.ToolCalls {
		var input map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
		blocks = append(blocks, ContentBlock{
			Type:  "tool_use",
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: input,
		})
	}
	return Message{Role: "assistant", Content: blocks}
}

// translateContent keeps plain strings as strings and converts part lists
// to content blocks; image_url parts become url-sourced image blocks.
func translateContent(c schema.MessageContent) any {
	if c.String != nil {
		return *c.String
	}
	var blocks []ContentBlock
	for _, p := range c.Parts {
		switch p.Type {
		case schema.ContentPartText:
			blocks = append(blocks, ContentBlock{Type: "text", Text: p.Text})
		case schema.ContentPartImageURL:
			if p.ImageURL != nil {
				blocks = append(blocks, ContentBlock{
					Type:   "image",
					Source: &ImageSource{Type: "url", URL: p.ImageURL.URL},
				})
			}
		}
	}
	return blocks
}

func translateToolChoice(choice any) any {
	switch v := choice.(type) {
	case string:
		switch v {
		case "auto":
			return map[string]any{"type": "auto"}
		case "required":
			return map[string]any{"type": "any"}
		case "none":
			return nil
		}
	case map[string]any:
		if fn, ok := v["function"].(map[string]any); ok {
			if name, ok := fn["name"].(string); ok {
				return map[string]any{"type": "tool", "name": name}
			}
		}
	}
	return nil
}

// MapStopReason converts Anthropic stop reasons to OpenAI finish reasons.
func MapStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "tool_use":
		return "tool_calls"
	default:
		return reason
	}
}

// TranslateResponse converts an Anthropic response to the unified shape.
func TranslateResponse(resp *Response) *schema.ChatCompletionResponse {
	id := resp.ID
	if id == "" {
		id = schema.NewResponseID()
	}

	msg := schema.Message{Role: schema.RoleAssistant}
	var text string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			args, _ := json.Marshal(block.Input)
			msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: schema.FunctionCall{
					Name:      block.Name,
					Arguments: string(args),
				},
			})
		}
	}
	msg.Content = schema.NewTextContent(text)

	return &schema.ChatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   resp.Model,
		Choices: []schema.ChatChoice{{
			Index:        0,
			Message:      msg,
			FinishReason: MapStopReason(resp.StopReason),
		}},
		Usage: &schema.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}
