package schema

// CompletionRequest is the legacy text-completion request shape.
type CompletionRequest struct {
	Model            string         `json:"model"`
	Prompt           string         `json:"prompt"`
	Temperature      *float64       `json:"temperature,omitempty"`
	TopP             *float64       `json:"top_p,omitempty"`
	N                *int           `json:"n,omitempty"`
	Stream           bool           `json:"stream,omitempty"`
	MaxTokens        *int           `json:"max_tokens,omitempty"`
	Stop             []string       `json:"stop,omitempty"`
	PresencePenalty  *float64       `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64       `json:"frequency_penalty,omitempty"`
	LogitBias        map[string]int `json:"logit_bias,omitempty"`
	User             string         `json:"user,omitempty"`
}

// ToChat converts the legacy request into a single-user-message chat request.
// Providers without a native completion endpoint serve completions through
// their chat path and unwrap the first choice.
func (r *CompletionRequest) ToChat() *ChatCompletionRequest {
	return &ChatCompletionRequest{
		Model:            r.Model,
		Messages:         []Message{{Role: RoleUser, Content: NewTextContent(r.Prompt)}},
		Temperature:      r.Temperature,
		TopP:             r.TopP,
		N:                r.N,
		Stream:           r.Stream,
		MaxTokens:        r.MaxTokens,
		Stop:             r.Stop,
		PresencePenalty:  r.PresencePenalty,
		FrequencyPenalty: r.FrequencyPenalty,
		LogitBias:        r.LogitBias,
		User:             r.User,
	}
}

// CompletionResponse is the legacy text-completion response shape.
type CompletionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   *Usage             `json:"usage,omitempty"`
}

// CompletionChoice is one generated alternative of a legacy completion.
type CompletionChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// CompletionFromChat unwraps a chat response into the legacy completion
// shape, taking the flattened text of each choice.
func CompletionFromChat(resp *ChatCompletionResponse) *CompletionResponse {
	out := &CompletionResponse{
		ID:      resp.ID,
		Object:  "text_completion",
		Created: resp.Created,
		Model:   resp.Model,
		Usage:   resp.Usage,
	}
	for _, ch := range resp.Choices {
		out.Choices = append(out.Choices, CompletionChoice{
			Text:         ch.Message.Content.Text(),
			Index:        ch.Index,
			FinishReason: ch.FinishReason,
		})
	}
	return out
}
