// Package azure implements the Azure OpenAI provider adapter. Azure speaks
// the OpenAI wire format but addresses models through per-deployment paths
// and authenticates with an api-key header; the request body carries no
// model field because the deployment path segment selects it.
package azure

import (
	"context"
	"fmt"
	"net/http"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/providers"
	"llmhub/gateway/pkg/schema"
)

// Adapter talks to an Azure OpenAI resource.
type Adapter struct {
	key        string
	apiKey     string
	baseURL    string
	apiVersion string
	client     *providers.Client
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
		baseURL = fmt.Sprintf("https://%s.openai.azure.com", cfg.ResourceName)
	}
	return &Adapter{
		key:        cfg.Key,
		apiKey:     apiKey,
		baseURL:    baseURL,
		apiVersion: cfg.APIVersion,
		client:     providers.NewClient(string(config.ProviderAzure)),
	}, nil
}

// Key implements providers.Adapter.
func (a *Adapter) Key() string { return a.key }

// Type implements providers.Adapter.
func (a *Adapter) Type() config.ProviderType { return config.ProviderAzure }

func (a *Adapter) header() http.Header {
	h := http.Header{}
	h.Set("api-key", a.apiKey)
	return h
}

// endpoint builds the deployment-scoped URL for one operation.
func (a *Adapter) endpoint(deployment, operation string) string {
	return fmt.Sprintf("%s/openai/deployments/%s/%s?api-version=%s",
		a.baseURL, deployment, operation, a.apiVersion)
}

func deploymentFor(model *config.ModelConfig) (string, error) {
	if model == nil || model.Deployment == "" {
		e := apierror.New(apierror.KindInvalidRequest, "azure model %q has no deployment configured", modelKey(model))
		e.Provider = string(config.ProviderAzure)
		return "", e
	}
	return model.Deployment, nil
}

func modelKey(model *config.ModelConfig) string {
	if model == nil {
		return ""
	}
	return model.Key
}

// chatRequest shadows the model field out of the serialized body; the
// deployment path segment selects the model on Azure.
type chatRequest struct {
	*schema.ChatCompletionRequest
	Model string `json:"model,omitempty"`
}

type completionRequest struct {
	*schema.CompletionRequest
	Model string `json:"model,omitempty"`
}

type embeddingsRequest struct {
	*schema.EmbeddingsRequest
	Model string `json:"model,omitempty"`
}

// ChatCompletion implements providers.Adapter.
func (a *Adapter) ChatCompletion(ctx context.Context, req *schema.ChatCompletionRequest, model *config.ModelConfig) (*providers.ChatResult, error) {
	deployment, err := deploymentFor(model)
	if err != nil {
		return nil, err
	}
	url := a.endpoint(deployment, "chat/completions")
	body := chatRequest{ChatCompletionRequest: req}

	if req.Stream {
		resp, err := a.client.DoStream(ctx, http.MethodPost, url, a.header(), body)
		if err != nil {
			return nil, err
		}
		return &providers.ChatResult{Stream: providers.PassthroughStream(ctx, string(config.ProviderAzure), resp)}, nil
	}

	var out schema.ChatCompletionResponse
	if err := a.client.DoJSON(ctx, http.MethodPost, url, a.header(), body, &out); err != nil {
		return nil, err
	}
	return &providers.ChatResult{Response: &out}, nil
}

// Completion implements providers.Adapter.
func (a *Adapter) Completion(ctx context.Context, req *schema.CompletionRequest, model *config.ModelConfig) (*schema.CompletionResponse, error) {
	deployment, err := deploymentFor(model)
	if err != nil {
		return nil, err
	}
	var out schema.CompletionResponse
	body := completionRequest{CompletionRequest: req}
	if err := a.client.DoJSON(ctx, http.MethodPost, a.endpoint(deployment, "completions"), a.header(), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Embeddings implements providers.Adapter.
func (a *Adapter) Embeddings(ctx context.Context, req *schema.EmbeddingsRequest, model *config.ModelConfig) (*schema.EmbeddingsResponse, error) {
	deployment, err := deploymentFor(model)
	if err != nil {
		return nil, err
	}
	var out schema.EmbeddingsResponse
	body := embeddingsRequest{EmbeddingsRequest: req}
	if err := a.client.DoJSON(ctx, http.MethodPost, a.endpoint(deployment, "embeddings"), a.header(), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
