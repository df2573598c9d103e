// Package openai implements the OpenAI provider adapter. The unified schema
// is already OpenAI-shaped, so requests pass through with the model id
// rewritten and responses are returned as-is; streaming forwards upstream
// chunks unchanged.
package openai

import (
	"context"
	"net/http"

	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/providers"
	"llmhub/gateway/pkg/schema"
)

// DefaultBaseURL is the OpenAI API root used when no override is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// Adapter talks to the OpenAI API.
type Adapter struct {
	key          string
	apiKey       string
	organization string
	baseURL      string
	client       *providers.Client
}

// New builds an adapter from a provider record, resolving its secret
// references. Called once per snapshot build.
func New(cfg *config.ProviderConfig) (*Adapter, error) {
	apiKey, err := cfg.APIKey.Resolve()
	if err != nil {
		return nil, err
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Adapter{
		key:          cfg.Key,
		apiKey:       apiKey,
		organization: cfg.OrganizationID,
		baseURL:      baseURL,
		client:       providers.NewClient(string(config.ProviderOpenAI)),
	}, nil
}

// Key implements providers.Adapter.
func (a *Adapter) Key() string { return a.key }

// Type implements providers.Adapter.
func (a *Adapter) Type() config.ProviderType { return config.ProviderOpenAI }

func (a *Adapter) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+a.apiKey)
	if a.organization != "" {
		h.Set("OpenAI-Organization", a.organization)
	}
	return h
}

// ChatCompletion implements providers.Adapter.
func (a *Adapter) ChatCompletion(ctx context.Context, req *schema.ChatCompletionRequest, _ *config.ModelConfig) (*providers.ChatResult, error) {
	url := a.baseURL + "/chat/completions"
	if req.Stream {
		resp, err := a.client.DoStream(ctx, http.MethodPost, url, a.header(), req)
		if err != nil {
			return nil, err
		}
		return &providers.ChatResult{Stream: providers.PassthroughStream(ctx, string(config.ProviderOpenAI), resp)}, nil
	}

	var out schema.ChatCompletionResponse
	if err := a.client.DoJSON(ctx, http.MethodPost, url, a.header(), req, &out); err != nil {
		return nil, err
	}
	return &providers.ChatResult{Response: &out}, nil
}

// Completion implements providers.Adapter.
func (a *Adapter) Completion(ctx context.Context, req *schema.CompletionRequest, _ *config.ModelConfig) (*schema.CompletionResponse, error) {
	var out schema.CompletionResponse
	if err := a.client.DoJSON(ctx, http.MethodPost, a.baseURL+"/completions", a.header(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Embeddings implements providers.Adapter.
func (a *Adapter) Embeddings(ctx context.Context, req *schema.EmbeddingsRequest, _ *config.ModelConfig) (*schema.EmbeddingsResponse, error) {
	var out schema.EmbeddingsResponse
	if err := a.client.DoJSON(ctx, http.MethodPost, a.baseURL+"/embeddings", a.header(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
