package config

import (
	"strings"
	"testing"
)

const validYAML = `
general:
  trace_content_enabled: true
providers:
  - key: oa
    type: openai
    api_key: sk-test
models:
  - key: gpt-4
    type: gpt-4
    provider: oa
pipelines:
  - name: default
    type: chat
    plugins:
      - logging:
          level: info
      - model-router:
          models:
            - gpt-4
`

func TestParseValid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cfg.General.TraceContentEnabled {
		t.Error("trace_content_enabled not decoded")
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].Key != "oa" {
		t.Fatalf("providers = %+v", cfg.Providers)
	}
	if cfg.Providers[0].APIKey.Literal != "sk-test" {
		t.Errorf("api_key scalar shorthand not decoded: %+v", cfg.Providers[0].APIKey)
	}
	if len(cfg.Pipelines[0].Plugins) != 2 || cfg.Pipelines[0].Plugins[1].ModelRouter == nil {
		t.Fatalf("plugins = %+v", cfg.Pipelines[0].Plugins)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{
			name:    "duplicate provider key",
			mutate:  func(c *Config) { c.Providers = append(c.Providers, c.Providers[0]) },
			wantMsg: "duplicate key",
		},
		{
			name:    "unknown provider type",
			mutate:  func(c *Config) { c.Providers[0].Type = "watsonx" },
			wantMsg: "unknown provider type",
		},
		{
			name:    "model references missing provider",
			mutate:  func(c *Config) { c.Models[0].Provider = "nope" },
			wantMsg: `provider "nope" not found`,
		},
		{
			name: "enabled model on disabled provider",
			mutate: func(c *Config) {
				f := false
				c.Providers[0].Enabled = &f
			},
			wantMsg: "is disabled",
		},
		{
			name:    "router entry with empty key",
			mutate:  func(c *Config) { c.Pipelines[0].Plugins[1].ModelRouter.Models[0].Key = "" },
			wantMsg: "empty key",
		},
		{
			name: "router not last",
			mutate: func(c *Config) {
				p := c.Pipelines[0].Plugins
				c.Pipelines[0].Plugins = []PluginConfig{p[1], p[0]}
			},
			wantMsg: "must be the last plugin",
		},
		{
			name:    "pipeline without router",
			mutate:  func(c *Config) { c.Pipelines[0].Plugins = c.Pipelines[0].Plugins[:1] },
			wantMsg: "model-router",
		},
		{
			name:    "unknown pipeline type",
			mutate:  func(c *Config) { c.Pipelines[0].Type = "images" },
			wantMsg: "unknown pipeline type",
		},
		{
			name:    "azure missing api_version",
			mutate:  func(c *Config) { c.Providers[0].Type = "azure"; c.Providers[0].ResourceName = "acme" },
			wantMsg: "api_version",
		},
		{
			name:    "bedrock missing credentials",
			mutate:  func(c *Config) { c.Providers[0].Type = "bedrock"; c.Providers[0].Region = "us-east-1" },
			wantMsg: "use_iam_role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(validYAML))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidateAllowsDanglingRouterReference(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// A pipeline may keep referencing a model that was removed; the router
	// skips the entry at request time.
	cfg.Models = nil
	if err := cfg.Validate(); err != nil {
		t.Errorf("dangling router reference must not block a reload: %v", err)
	}
}

func TestParseProviderTypeCaseInsensitive(t *testing.T) {
	for _, s := range []string{"openai", "OpenAI", "OPENAI", " openai "} {
		pt, err := ParseProviderType(s)
		if err != nil || pt != ProviderOpenAI {
			t.Errorf("ParseProviderType(%q) = %v, %v", s, pt, err)
		}
	}
	if _, err := ParseProviderType("cohere"); err == nil {
		t.Error("unknown tag should be rejected, not guessed")
	}
}

func TestModelEntryShorthand(t *testing.T) {
	cfg, err := Parse([]byte(strings.Replace(validYAML,
		"            - gpt-4",
		"            - key: gpt-4\n              priority: 5", 1)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	entry := cfg.Pipelines[0].Plugins[1].ModelRouter.Models[0]
	if entry.Key != "gpt-4" || entry.Priority == nil || *entry.Priority != 5 {
		t.Errorf("entry = %+v", entry)
	}
	if entry.EffectivePriority(3) != 5 {
		t.Errorf("configured priority should win over index")
	}
	if (ModelEntry{Key: "x"}).EffectivePriority(3) != 3 {
		t.Errorf("missing priority should default to index")
	}
}
