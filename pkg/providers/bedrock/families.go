package bedrock

import (
	"context"
	"net/http"
	"strings"
	"time"

	"llmhub/gateway/pkg/providers/anthropic"
	"llmhub/gateway/pkg/schema"
)

// AnthropicVersion is the version tag Bedrock requires in Claude bodies in
// place of the anthropic-version header.
const AnthropicVersion = "bedrock-2023-05-31"

// claudeRequest wraps the Anthropic body for Bedrock. The model and stream
// fields are shadowed out of the serialized body: the invoke path selects
// both the model and the streaming mode.
type claudeRequest struct {
	*anthropic.Request
	AnthropicVersion string `json:"anthropic_version"`
	Model            string `json:"model,omitempty"`
	Stream           bool   `json:"stream,omitempty"`
}

func newClaudeRequest(req *schema.ChatCompletionRequest) claudeRequest {
	return claudeRequest{
		Request:          anthropic.TranslateRequest(req),
		AnthropicVersion: AnthropicVersion,
	}
}

func (a *Adapter) invokeClaude(ctx context.Context, modelID string, req *schema.ChatCompletionRequest) (*schema.ChatCompletionResponse, error) {
	var resp anthropic.Response
	err := a.client.DoJSON(ctx, http.MethodPost, a.invokeURL(modelID, false), nil, newClaudeRequest(req), &resp)
	if err != nil {
		return nil, err
	}
	return anthropic.TranslateResponse(&resp), nil
}

// Titan / Nova converse-style wire types.

type titanRequest struct {
	InferenceConfig titanInferenceConfig `json:"inferenceConfig"`
	Messages        []titanMessage       `json:"messages"`
}

type titanInferenceConfig struct {
	MaxNewTokens int `json:"max_new_tokens"`
}

type titanMessage struct {
	Role    string         `json:"role"`
	Content []titanContent `json:"content"`
}

type titanContent struct {
	Text string `json:"text"`
}

type titanResponse struct {
	Output     titanOutput `json:"output"`
	StopReason string      `json:"stopReason"`
	Usage      titanUsage  `json:"usage"`
}

type titanOutput struct {
	Message titanMessage `json:"message"`
}

type titanUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

const titanDefaultMaxTokens = 512

func translateTitanRequest(req *schema.ChatCompletionRequest) titanRequest {
	out := titanRequest{
		InferenceConfig: titanInferenceConfig{MaxNewTokens: titanDefaultMaxTokens},
	}
	if max := req.EffectiveMaxTokens(); max > 0 {
		out.InferenceConfig.MaxNewTokens = max
	}
	for _, msg := range req.Messages {
		role := "user"
		if msg.Role == schema.RoleAssistant {
			role = "assistant"
		}
		out.Messages = append(out.Messages, titanMessage{
			Role:    role,
			Content: []titanContent{{Text: msg.Content.Text()}},
		})
	}
	return out
}

func mapTitanStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	default:
		return "stop"
	}
}

func translateTitanResponse(resp *titanResponse) *schema.ChatCompletionResponse {
	var text strings.Builder
	for _, c := range resp.Output.Message.Content {
		text.WriteString(c.Text)
	}
	return &schema.ChatCompletionResponse{
		ID:      schema.NewResponseID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Choices: []schema.ChatChoice{{
			Index: 0,
			Message: schema.Message{
				Role:    schema.RoleAssistant,
				Content: schema.NewTextContent(text.String()),
			},
			FinishReason: mapTitanStopReason(resp.StopReason),
		}},
		Usage: &schema.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}

func (a *Adapter) invokeTitan(ctx context.Context, modelID string, req *schema.ChatCompletionRequest) (*schema.ChatCompletionResponse, error) {
	var resp titanResponse
	err := a.client.DoJSON(ctx, http.MethodPost, a.invokeURL(modelID, false), nil, translateTitanRequest(req), &resp)
	if err != nil {
		return nil, err
	}
	return translateTitanResponse(&resp), nil
}

// AI21 Jurassic wire types. Jurassic has no chat surface; the conversation
// is rendered to a prompt and the completion parsed back out.

type jurassicRequest struct {
	Prompt        string   `json:"prompt"`
	MaxTokens     int      `json:"maxTokens,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"topP,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
	NumResults    int      `json:"numResults,omitempty"`
}

type jurassicResponse struct {
	ID          any                  `json:"id"`
	Completions []jurassicCompletion `json:"completions"`
}

type jurassicCompletion struct {
	Data struct {
		Text string `json:"text"`
	} `json:"data"`
	FinishReason struct {
		Reason string `json:"reason"`
	} `json:"finishReason"`
}

func translateJurassicRequest(req *schema.ChatCompletionRequest) jurassicRequest {
	var prompt strings.Builder
	for _, msg := range req.Messages {
		if prompt.Len() > 0 {
			prompt.WriteString("\n")
		}
		prompt.WriteString(msg.Role)
		prompt.WriteString(": ")
		prompt.WriteString(msg.Content.Text())
	}
	return jurassicRequest{
		Prompt:        prompt.String(),
		MaxTokens:     req.EffectiveMaxTokens(),
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		StopSequences: req.Stop,
		NumResults:    1,
	}
}

func mapJurassicFinishReason(reason string) string {
	switch reason {
	case "length":
		return "length"
	default:
		return "stop"
	}
}

func translateJurassicResponse(resp *jurassicResponse) *schema.ChatCompletionResponse {
	out := &schema.ChatCompletionResponse{
		ID:      schema.NewResponseID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
	}
	for i, c := range resp.Completions {
		out.Choices = append(out.Choices, schema.ChatChoice{
			Index: i,
			Message: schema.Message{
				Role:    schema.RoleAssistant,
				Content: schema.NewTextContent(c.Data.Text),
			},
			FinishReason: mapJurassicFinishReason(c.FinishReason.Reason),
		})
	}
	return out
}

func (a *Adapter) invokeJurassic(ctx context.Context, modelID string, req *schema.ChatCompletionRequest) (*schema.ChatCompletionResponse, error) {
	var resp jurassicResponse
	err := a.client.DoJSON(ctx, http.MethodPost, a.invokeURL(modelID, false), nil, translateJurassicRequest(req), &resp)
	if err != nil {
		return nil, err
	}
	return translateJurassicResponse(&resp), nil
}

// Titan embeddings wire types.

type titanEmbeddingsRequest struct {
	InputText string `json:"inputText"`
}

type titanEmbeddingsResponse struct {
	Embedding           []float64 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}
