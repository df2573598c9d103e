// Package bedrock implements the AWS Bedrock provider adapter. Requests are
// signed with SigV4 against the bedrock-runtime endpoint and bodies are
// translated per model family (Anthropic Claude, Amazon Titan, AI21).
package bedrock

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/providers"
	"llmhub/gateway/pkg/schema"
)

// Model families served through Bedrock.
const (
	FamilyAnthropic = "anthropic"
	FamilyTitan     = "titan"
	FamilyAI21      = "ai21"
)

// DefaultModelVersion is appended to composed model ids when the model
// record does not pin one.
const DefaultModelVersion = "v1:0"

// Adapter talks to the Bedrock runtime API.
type Adapter struct {
	key       string
	region    string
	profileID string
	client    *providers.Client
}

// New builds an adapter from a provider record. With use_iam_role the AWS
// default credential chain supplies credentials (and keeps them refreshed);
// otherwise the explicit key references are resolved once.
func New(ctx context.Context, cfg *config.ProviderConfig) (*Adapter, error) {
	var creds aws.CredentialsProvider
	if cfg.UseIAMRole {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS default credentials: %w", err)
		}
		creds = awsCfg.Credentials
	} else {
		accessKey, err := cfg.AccessKey.Resolve()
		if err != nil {
			return nil, err
		}
		secretKey, err := cfg.SecretKey.Resolve()
		if err != nil {
			return nil, err
		}
		sessionToken := ""
		if !cfg.SessionToken.IsZero() {
			if sessionToken, err = cfg.SessionToken.Resolve(); err != nil {
				return nil, err
			}
		}
		creds = credentials.NewStaticCredentialsProvider(accessKey, secretKey, sessionToken)
	}

	client := providers.NewClient(string(config.ProviderBedrock))
	client.SetTransport(newSigningTransport(client.Transport(), aws.NewCredentialsCache(creds), cfg.Region))

	return &Adapter{
		key:       cfg.Key,
		region:    cfg.Region,
		profileID: cfg.InferenceProfileID,
		client:    client,
	}, nil
}

// Key implements providers.Adapter.
func (a *Adapter) Key() string { return a.key }

// Type implements providers.Adapter.
func (a *Adapter) Type() config.ProviderType { return config.ProviderBedrock }

// ModelID builds the Bedrock model id for a model record. Full ARNs and ids
// that already carry a family segment pass through unchanged; bare ids are
// composed as {inference_profile_id}.{model_provider}.{type}:{model_version}.
func (a *Adapter) ModelID(model *config.ModelConfig) string {
	t := model.Type
	if strings.HasPrefix(t, "arn:") || strings.Contains(t, ".") {
		return t
	}
	version := model.ModelVersion
	if version == "" {
		version = DefaultModelVersion
	}
	id := fmt.Sprintf("%s.%s:%s", model.ModelProvider, t, version)
	if a.profileID != "" {
		id = a.profileID + "." + id
	}
	return id
}

// familyFor selects the body-translation family for a model record.
func familyFor(model *config.ModelConfig) (string, error) {
	if model.ModelProvider != "" {
		switch strings.ToLower(model.ModelProvider) {
		case FamilyAnthropic, FamilyTitan, FamilyAI21:
			return strings.ToLower(model.ModelProvider), nil
		}
		return "", badFamily(model)
	}
	t := model.Type
	switch {
	case strings.Contains(t, "anthropic"), strings.Contains(t, "claude"):
		return FamilyAnthropic, nil
	case strings.Contains(t, "titan"), strings.Contains(t, "nova"):
		return FamilyTitan, nil
	case strings.Contains(t, "ai21"), strings.Contains(t, "j2"), strings.Contains(t, "jamba"):
		return FamilyAI21, nil
	}
	return "", badFamily(model)
}

func badFamily(model *config.ModelConfig) error {
	e := apierror.New(apierror.KindInvalidRequest, "cannot determine bedrock model family for %q", model.Key)
	e.Provider = string(config.ProviderBedrock)
	e.Model = model.Key
	return e
}

func (a *Adapter) invokeURL(modelID string, stream bool) string {
	op := "invoke"
	if stream {
		op = "invoke-with-response-stream"
	}
	return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com/model/%s/%s",
		a.region, url.PathEscape(modelID), op)
}

// ChatCompletion implements providers.Adapter.
func (a *Adapter) ChatCompletion(ctx context.Context, req *schema.ChatCompletionRequest, model *config.ModelConfig) (*providers.ChatResult, error) {
	family, err := familyFor(model)
	if err != nil {
		return nil, err
	}
	modelID := a.ModelID(model)

	if req.Stream {
		if family != FamilyAnthropic {
			return nil, providers.ErrUnsupported(config.ProviderBedrock, "streaming "+providers.OpChat)
		}
		resp, err := a.client.DoStream(ctx, http.MethodPost, a.invokeURL(modelID, true), nil, newClaudeRequest(req))
		if err != nil {
			return nil, err
		}
		return &providers.ChatResult{Stream: streamClaude(ctx, resp)}, nil
	}

	var out *schema.ChatCompletionResponse
	switch family {
	case FamilyAnthropic:
		out, err = a.invokeClaude(ctx, modelID, req)
	case FamilyTitan:
		out, err = a.invokeTitan(ctx, modelID, req)
	case FamilyAI21:
		out, err = a.invokeJurassic(ctx, modelID, req)
	}
	if err != nil {
		return nil, err
	}
	out.Model = req.Model
	return &providers.ChatResult{Response: out}, nil
}

// Completion implements providers.Adapter. Bedrock has no dedicated text
// completion surface; the prompt is served through the chat path and the
// first choice is unwrapped.
func (a *Adapter) Completion(ctx context.Context, req *schema.CompletionRequest, model *config.ModelConfig) (*schema.CompletionResponse, error) {
	if req.Stream {
		return nil, providers.ErrUnsupported(config.ProviderBedrock, "streaming "+providers.OpCompletion)
	}
	result, err := a.ChatCompletion(ctx, req.ToChat(), model)
	if err != nil {
		return nil, err
	}
	return schema.CompletionFromChat(result.Response), nil
}

// Embeddings implements providers.Adapter. Only the Titan embedding models
// support this operation; each input text is embedded with one invocation.
func (a *Adapter) Embeddings(ctx context.Context, req *schema.EmbeddingsRequest, model *config.ModelConfig) (*schema.EmbeddingsResponse, error) {
	if !strings.Contains(model.Type, "titan-embed") {
		return nil, providers.ErrUnsupported(config.ProviderBedrock, providers.OpEmbeddings)
	}
	modelID := a.ModelID(model)

	out := &schema.EmbeddingsResponse{Object: "list", Model: req.Model, Usage: &schema.Usage{}}
	for i, text := range req.Input.Texts() {
		var resp titanEmbeddingsResponse
		err := a.client.DoJSON(ctx, http.MethodPost, a.invokeURL(modelID, false), nil,
			titanEmbeddingsRequest{InputText: text}, &resp)
		if err != nil {
			return nil, err
		}
		out.Data = append(out.Data, schema.Embedding{
			Object:    "embedding",
			Index:     i,
			Embedding: resp.Embedding,
		})
		out.Usage.PromptTokens += resp.InputTextTokenCount
		out.Usage.TotalTokens += resp.InputTextTokenCount
	}
	return out, nil
}
