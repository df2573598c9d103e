package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/schema"
	"llmhub/gateway/pkg/secret"
)

func newTestAdapter(t *testing.T, baseURL string) *Adapter {
	t.Helper()
	a, err := New(&config.ProviderConfig{
		Key:            "oa",
		Type:           "openai",
		APIKey:         secret.Ref{Literal: "sk-test"},
		OrganizationID: "org-42",
		BaseURL:        baseURL,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestChatCompletionRoundTrip(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("OpenAI-Organization"); got != "org-42" {
			t.Errorf("OpenAI-Organization = %q", got)
		}
		var req map[string]any
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		if req["model"] != "gpt-4o" {
			t.Errorf("forwarded model = %v", req["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],"usage":{"prompt_tokens":2,"completion_tokens":1,"total_tokens":3}}`)
	}))
	defer upstream.Close()

	a := newTestAdapter(t, upstream.URL)
	result, err := a.ChatCompletion(context.Background(), &schema.ChatCompletionRequest{
		Model:    "gpt-4o",
		Messages: []schema.Message{{Role: schema.RoleUser, Content: schema.NewTextContent("hi")}},
	}, nil)
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if result.IsStream() {
		t.Fatal("non-streaming request produced a stream")
	}
	if got := result.Response.Choices[0].Message.Content.Text(); got != "hello" {
		t.Errorf("content = %q", got)
	}
	if result.Response.Usage.TotalTokens != 3 {
		t.Errorf("usage = %+v", result.Response.Usage)
	}
}

func TestCompletionRoundTrip(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"cmpl-1","object":"text_completion","model":"gpt-3.5-turbo-instruct","choices":[{"text":"ok","index":0,"finish_reason":"stop"}]}`)
	}))
	defer upstream.Close()

	a := newTestAdapter(t, upstream.URL)
	resp, err := a.Completion(context.Background(), &schema.CompletionRequest{
		Model:  "gpt-3.5-turbo-instruct",
		Prompt: "hi",
	}, nil)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if resp.Choices[0].Text != "ok" {
		t.Errorf("text = %q", resp.Choices[0].Text)
	}
}

func TestEmbeddingsRoundTrip(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"object":"list","model":"text-embedding-3-small","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2]}],"usage":{"prompt_tokens":2,"total_tokens":2}}`)
	}))
	defer upstream.Close()

	a := newTestAdapter(t, upstream.URL)
	resp, err := a.Embeddings(context.Background(), &schema.EmbeddingsRequest{
		Model: "text-embedding-3-small",
		Input: schema.EmbeddingsInput{Strings: []string{"hi"}},
	}, nil)
	if err != nil {
		t.Fatalf("Embeddings: %v", err)
	}
	if len(resp.Data) != 1 || len(resp.Data[0].Embedding) != 2 {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestUpstreamErrorClassified(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"slow down"}}`)
	}))
	defer upstream.Close()

	a := newTestAdapter(t, upstream.URL)
	_, err := a.ChatCompletion(context.Background(), &schema.ChatCompletionRequest{
		Model:    "gpt-4o",
		Messages: []schema.Message{{Role: schema.RoleUser, Content: schema.NewTextContent("hi")}},
	}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	ae := apierror.FromError(err)
	if ae.Kind != apierror.KindUpstreamRateLimited {
		t.Errorf("kind = %s", ae.Kind)
	}
	if !ae.Retryable() {
		t.Error("429 must be retryable")
	}
}
