// Package config defines the raw configuration records consumed by the
// gateway: providers, models, pipelines, and general settings. Records are
// loaded from a YAML file or from database rows, validated, and compiled
// into an immutable snapshot by the state package.
package config

import (
	"fmt"
	"strings"

	"llmhub/gateway/pkg/secret"
)

// ProviderType identifies a backend variant.
type ProviderType string

// Known provider variants.
const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderAzure     ProviderType = "azure"
	ProviderBedrock   ProviderType = "bedrock"
	ProviderVertexAI  ProviderType = "vertexai"
)

// ParseProviderType parses a provider type tag case-insensitively. Unknown
// tags are rejected rather than guessed.
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai":
		return ProviderOpenAI, nil
	case "anthropic":
		return ProviderAnthropic, nil
	case "azure":
		return ProviderAzure, nil
	case "bedrock":
		return ProviderBedrock, nil
	case "vertexai":
		return ProviderVertexAI, nil
	default:
		return "", fmt.Errorf("unknown provider type %q", s)
	}
}

// PipelineType scopes a pipeline to one operation.
type PipelineType string

// Pipeline operation types.
const (
	PipelineChat       PipelineType = "chat"
	PipelineCompletion PipelineType = "completion"
	PipelineEmbeddings PipelineType = "embeddings"
)

// ParsePipelineType parses a pipeline type tag.
func ParsePipelineType(s string) (PipelineType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chat":
		return PipelineChat, nil
	case "completion":
		return PipelineCompletion, nil
	case "embeddings":
		return PipelineEmbeddings, nil
	default:
		return "", fmt.Errorf("unknown pipeline type %q", s)
	}
}

// Config is the raw configuration bundle.
type Config struct {
	General   GeneralConfig    `yaml:"general" json:"general"`
	Providers []ProviderConfig `yaml:"providers" json:"providers"`
	Models    []ModelConfig    `yaml:"models" json:"models"`
	Pipelines []PipelineConfig `yaml:"pipelines" json:"pipelines"`
}

// GeneralConfig carries process-wide settings.
type GeneralConfig struct {
	// TraceContentEnabled controls whether request messages and response
	// content are attached to spans as attributes.
	TraceContentEnabled bool `yaml:"trace_content_enabled" json:"trace_content_enabled"`
}

// ProviderConfig is one provider record. The variant tag selects which of
// the per-variant fields are meaningful.
type ProviderConfig struct {
	Key     string `yaml:"key" json:"key"`
	Type    string `yaml:"type" json:"type"`
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// openai, anthropic, azure, vertexai (API-key path)
	APIKey secret.Ref `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// openai
	OrganizationID string `yaml:"organization_id,omitempty" json:"organization_id,omitempty"`

	// openai default override, azure base override
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	// azure
	ResourceName string `yaml:"resource_name,omitempty" json:"resource_name,omitempty"`
	APIVersion   string `yaml:"api_version,omitempty" json:"api_version,omitempty"`

	// bedrock
	Region             string     `yaml:"region,omitempty" json:"region,omitempty"`
	InferenceProfileID string     `yaml:"inference_profile_id,omitempty" json:"inference_profile_id,omitempty"`
	UseIAMRole         bool       `yaml:"use_iam_role,omitempty" json:"use_iam_role,omitempty"`
	AccessKey          secret.Ref `yaml:"access_key,omitempty" json:"access_key,omitempty"`
	SecretKey          secret.Ref `yaml:"secret_key,omitempty" json:"secret_key,omitempty"`
	SessionToken       secret.Ref `yaml:"session_token,omitempty" json:"session_token,omitempty"`

	// vertexai
	ProjectID       string `yaml:"project_id,omitempty" json:"project_id,omitempty"`
	Location        string `yaml:"location,omitempty" json:"location,omitempty"`
	CredentialsPath string `yaml:"credentials_path,omitempty" json:"credentials_path,omitempty"`
}

// IsEnabled reports whether the provider participates in snapshots.
// Providers are enabled unless explicitly disabled.
func (p *ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// ModelConfig binds a user-facing model key to a provider-native model id.
type ModelConfig struct {
	Key      string `yaml:"key" json:"key"`
	Type     string `yaml:"type" json:"type"`
	Provider string `yaml:"provider" json:"provider"`
	Enabled  *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// Deployment supplies the Azure deployment path segment.
	Deployment string `yaml:"deployment,omitempty" json:"deployment,omitempty"`

	// ModelProvider selects the Bedrock model family (anthropic, titan, ai21).
	ModelProvider string `yaml:"model_provider,omitempty" json:"model_provider,omitempty"`

	// ModelVersion is the Bedrock model version suffix (default v1:0).
	ModelVersion string `yaml:"model_version,omitempty" json:"model_version,omitempty"`
}

// IsEnabled reports whether the model participates in snapshots.
func (m *ModelConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// PipelineConfig is one pipeline record: a named, typed, ordered plugin list.
type PipelineConfig struct {
	Name    string         `yaml:"name" json:"name"`
	Type    string         `yaml:"type" json:"type"`
	Plugins []PluginConfig `yaml:"plugins" json:"plugins"`
}

// PluginConfig is one entry of a pipeline's plugin list. Exactly one of the
// fields is set, matching the single-key mapping form used in config files.
type PluginConfig struct {
	Logging     *LoggingPluginConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
	Tracing     *TracingPluginConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
	ModelRouter *ModelRouterConfig   `yaml:"model-router,omitempty" json:"model-router,omitempty"`
}

// LoggingPluginConfig configures the logging plugin.
type LoggingPluginConfig struct {
	Level string `yaml:"level" json:"level"`
}

// TracingPluginConfig configures the tracing plugin.
type TracingPluginConfig struct {
	Endpoint            string     `yaml:"endpoint" json:"endpoint"`
	APIKey              secret.Ref `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	TraceContentEnabled *bool      `yaml:"trace_content_enabled,omitempty" json:"trace_content_enabled,omitempty"`
}

// ModelRouterConfig configures the terminal model-router plugin.
type ModelRouterConfig struct {
	Models []ModelEntry `yaml:"models" json:"models"`
}
