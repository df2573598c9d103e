// Package anthropic implements the Anthropic provider adapter over the
// /messages API. Chat requests are translated between the unified schema
// and Anthropic's message/content-block model; completions and embeddings
// are not part of the Anthropic surface.
package anthropic

import (
	"context"
	"net/http"

	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/providers"
	"llmhub/gateway/pkg/schema"
)

// DefaultBaseURL is the Anthropic API root.
const DefaultBaseURL = "https://api.anthropic.com/v1"

// APIVersion is the pinned anthropic-version header value.
const APIVersion = "2023-06-01"

// Adapter talks to the Anthropic messages API.
type Adapter struct {
	key     string
	apiKey  string
	baseURL string
	client  *providers.Client
}

// New builds an adapter from a provider record, resolving its secret
// references.
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
		key:     cfg.Key,
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  providers.NewClient(string(config.ProviderAnthropic)),
	}, nil
}

// Key implements providers.Adapter.
func (a *Adapter) Key() string { return a.key }

// Type implements providers.Adapter.
func (a *Adapter) Type() config.ProviderType { return config.ProviderAnthropic }

func (a *Adapter) header() http.Header {
	h := http.Header{}
	h.Set("x-api-key", a.apiKey)
	h.Set("anthropic-version", APIVersion)
	return h
}

// ChatCompletion implements providers.Adapter.
func (a *Adapter) ChatCompletion(ctx context.Context, req *schema.ChatCompletionRequest, _ *config.ModelConfig) (*providers.ChatResult, error) {
	body := TranslateRequest(req)
	url := a.baseURL + "/messages"

	if req.Stream {
		resp, err := a.client.DoStream(ctx, http.MethodPost, url, a.header(), body)
		if err != nil {
			return nil, err
		}
		return &providers.ChatResult{Stream: streamChunks(ctx, resp)}, nil
	}

	var out Response
	if err := a.client.DoJSON(ctx, http.MethodPost, url, a.header(), body, &out); err != nil {
		return nil, err
	}
	return &providers.ChatResult{Response: TranslateResponse(&out)}, nil
}

// Completion implements providers.Adapter. Anthropic has no legacy
// completion surface.
func (a *Adapter) Completion(_ context.Context, _ *schema.CompletionRequest, _ *config.ModelConfig) (*schema.CompletionResponse, error) {
	return nil, providers.ErrUnsupported(config.ProviderAnthropic, providers.OpCompletion)
}

// Embeddings implements providers.Adapter.
func (a *Adapter) Embeddings(_ context.Context, _ *schema.EmbeddingsRequest, _ *config.ModelConfig) (*schema.EmbeddingsResponse, error) {
	return nil, providers.ErrUnsupported(config.ProviderAnthropic, providers.OpEmbeddings)
}
