package azure

import (
	"encoding/json"
	"strings"
	"testing"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/schema"
	"llmhub/gateway/pkg/secret"
)

func testAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := New(&config.ProviderConfig{
		Key:          "az",
		Type:         "azure",
		APIKey:       secret.Ref{Literal: "azure-key"},
		ResourceName: "acme",
		APIVersion:   "2024-02-01",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestEndpointURL(t *testing.T) {
	a := testAdapter(t)
	got := a.endpoint("prod4o", "chat/completions")
	want := "https://acme.openai.azure.com/openai/deployments/prod4o/chat/completions?api-version=2024-02-01"
	if got != want {
		t.Errorf("endpoint = %q\nwant       %q", got, want)
	}
}

func TestBaseURLOverride(t *testing.T) {
	a, err := New(&config.ProviderConfig{
		Key:        "az",
		APIKey:     secret.Ref{Literal: "k"},
		BaseURL:    "https://private.example.com",
		APIVersion: "2024-02-01",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := a.endpoint("d", "embeddings"); !strings.HasPrefix(got, "https://private.example.com/openai/") {
		t.Errorf("endpoint = %q", got)
	}
}

func TestBodyOmitsModel(t *testing.T) {
	req := &schema.ChatCompletionRequest{
		Model:    "gpt-4o",
		Messages: []schema.Message{{Role: schema.RoleUser, Content: schema.NewTextContent("hi")}},
	}
	b, err := json.Marshal(chatRequest{ChatCompletionRequest: req})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, present := decoded["model"]; present {
		t.Errorf("body should not carry a model field: %s", b)
	}
	if _, present := decoded["messages"]; !present {
		t.Errorf("messages missing from body: %s", b)
	}
}

func TestDeploymentRequired(t *testing.T) {
	_, err := deploymentFor(&config.ModelConfig{Key: "gpt-4o-azure"})
	if err == nil {
		t.Fatal("expected error for missing deployment")
	}
	ae := apierror.FromError(err)
	if ae.Kind != apierror.KindInvalidRequest {
		t.Errorf("kind = %s", ae.Kind)
	}

	dep, err := deploymentFor(&config.ModelConfig{Key: "gpt-4o-azure", Deployment: "prod4o"})
	if err != nil || dep != "prod4o" {
		t.Errorf("deploymentFor = %q, %v", dep, err)
	}
}
