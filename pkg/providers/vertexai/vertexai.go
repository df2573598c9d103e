// Package vertexai implements the Google provider adapter for Gemini models.
// Two endpoints are supported: the Generative Language API authenticated with
// an API key, and the regional Vertex AI endpoint authenticated with a
// service account via OAuth2. The wire format is the same on both.
package vertexai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/providers"
	"llmhub/gateway/pkg/schema"
)

// GenerativeLanguageBaseURL is the API-key endpoint root.
const GenerativeLanguageBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// tokenScope is the OAuth2 scope requested for service-account access.
const tokenScope = "https://www.googleapis.com/auth/cloud-platform"

// tokenEarlyExpiry forces a refresh this long before a cached token expires
// so in-flight requests never carry a token that dies mid-request.
const tokenEarlyExpiry = 60 * time.Second

// Adapter talks to Gemini models through either Google endpoint.
type Adapter struct {
	key      string
	apiKey   string
	project  string
	location string
	tokens   oauth2.TokenSource
	client   *providers.Client
}

// New builds an adapter from a provider record. An api_key selects the
// Generative Language endpoint; otherwise service-account credentials are
// loaded from credentials_path, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg *config.ProviderConfig) (*Adapter, error) {
	a := &Adapter{
		key:      cfg.Key,
		project:  cfg.ProjectID,
		location: cfg.Location,
		client:   providers.NewClient(string(config.ProviderVertexAI)),
	}

	if !cfg.APIKey.IsZero() {
		apiKey, err := cfg.APIKey.Resolve()
		if err != nil {
			return nil, err
		}
		a.apiKey = apiKey
		return a, nil
	}

	credsPath := cfg.CredentialsPath
	if credsPath == "" {
		credsPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if credsPath == "" {
		return nil, fmt.Errorf("vertexai provider %q: no api_key and no service account credentials", cfg.Key)
	}
	data, err := os.ReadFile(credsPath)
	if err != nil {
		return nil, fmt.Errorf("reading service account credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, tokenScope)
	if err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	// ReuseTokenSourceWithExpiry serializes refreshes and hands out the
	// cached token until it nears expiry.
	a.tokens = oauth2.ReuseTokenSourceWithExpiry(nil, creds.TokenSource, tokenEarlyExpiry)
	return a, nil
}

// Key implements providers.Adapter.
func (a *Adapter) Key() string { return a.key }

// Type implements providers.Adapter.
func (a *Adapter) Type() config.ProviderType { return config.ProviderVertexAI }

// endpoint builds the model method URL for whichever auth path is active.
func (a *Adapter) endpoint(model, method string, stream bool) (string, http.Header, error) {
	if a.apiKey != "" {
		u := fmt.Sprintf("%s/models/%s:%s?key=%s", GenerativeLanguageBaseURL, url.PathEscape(model), method, a.apiKey)
		if stream {
			u += "&alt=sse"
		}
		return u, nil, nil
	}

	token, err := a.tokens.Token()
	if err != nil {
		return "", nil, apierror.Wrap(apierror.KindUpstreamAuth, err, "fetching google access token")
	}
	u := fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:%s",
		a.location, a.project, a.location, url.PathEscape(model), method)
	if stream {
		u += "?alt=sse"
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token.AccessToken)
	return u, h, nil
}

// embeddingsEndpoint builds the regional generateEmbeddings URL. Embeddings
// go through the Vertex AI endpoint on both auth paths, so project_id and
// location are required even when an API key is configured.
func (a *Adapter) embeddingsEndpoint(model string) (string, http.Header, error) {
	if a.project == "" || a.location == "" {
		return "", nil, apierror.New(apierror.KindConfigInvalid,
			"vertexai provider %q: project_id and location are required for embeddings", a.key)
	}
	u := fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s/generateEmbeddings",
		a.location, a.project, a.location, url.PathEscape(model))
	if a.apiKey != "" {
		return u + "?key=" + a.apiKey, nil, nil
	}
	token, err := a.tokens.Token()
	if err != nil {
		return "", nil, apierror.Wrap(apierror.KindUpstreamAuth, err, "fetching google access token")
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token.AccessToken)
	return u, h, nil
}

// ChatCompletion implements providers.Adapter.
func (a *Adapter) ChatCompletion(ctx context.Context, req *schema.ChatCompletionRequest, _ *config.ModelConfig) (*providers.ChatResult, error) {
	body := translateRequest(req)

	if req.Stream {
		u, header, err := a.endpoint(req.Model, "streamGenerateContent", true)
		if err != nil {
			return nil, err
		}
		resp, err := a.client.DoStream(ctx, http.MethodPost, u, header, body)
		if err != nil {
			return nil, err
		}
		return &providers.ChatResult{Stream: streamChunks(ctx, req.Model, resp)}, nil
	}

	u, header, err := a.endpoint(req.Model, "generateContent", false)
	if err != nil {
		return nil, err
	}
	var out generateResponse
	if err := a.client.DoJSON(ctx, http.MethodPost, u, header, body, &out); err != nil {
		return nil, err
	}
	return &providers.ChatResult{Response: translateResponse(&out, req.Model)}, nil
}

// Completion implements providers.Adapter. Gemini has no text completion
// surface; the prompt is served through the chat path.
func (a *Adapter) Completion(ctx context.Context, req *schema.CompletionRequest, model *config.ModelConfig) (*schema.CompletionResponse, error) {
	if req.Stream {
		return nil, providers.ErrUnsupported(config.ProviderVertexAI, "streaming "+providers.OpCompletion)
	}
	result, err := a.ChatCompletion(ctx, req.ToChat(), model)
	if err != nil {
		return nil, err
	}
	return schema.CompletionFromChat(result.Response), nil
}

// Embeddings implements providers.Adapter. The endpoint accepts the
// OpenAI-shaped payload and answers in kind, so the body and response pass
// through untranslated.
func (a *Adapter) Embeddings(ctx context.Context, req *schema.EmbeddingsRequest, _ *config.ModelConfig) (*schema.EmbeddingsResponse, error) {
	u, header, err := a.embeddingsEndpoint(req.Model)
	if err != nil {
		return nil, err
	}
	var out schema.EmbeddingsResponse
	if err := a.client.DoJSON(ctx, http.MethodPost, u, header, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
