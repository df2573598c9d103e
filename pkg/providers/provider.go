// Package providers defines the adapter abstraction over upstream LLM
// backends and the shared HTTP plumbing adapters are built on. One adapter
// instance is constructed per provider record at snapshot-build time; it
// exclusively owns its HTTP client and resolved secret material and is
// shared read-only by all in-flight requests.
package providers

import (
	"context"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/schema"
)

// Operation names an adapter capability.
type Operation string

// Adapter operations.
const (
	OpChat       Operation = "chat"
	OpCompletion Operation = "completion"
	OpEmbeddings Operation = "embeddings"
)

// StreamChunk is one element of a streamed chat response. Exactly one of
// Chunk and Err is set; an Err element is always the last one delivered.
type StreamChunk struct {
	Chunk *schema.ChatCompletionChunk
	Err   error
}

// ChatResult is the outcome of a chat call: a complete response, or a lazy,
// single-pass stream of chunks. The stream channel is closed by the producer
// when the upstream stream ends; abandoning the consuming context aborts the
// upstream request.
type ChatResult struct {
	Response *schema.ChatCompletionResponse
	Stream   <-chan *StreamChunk
}

// IsStream reports whether the result is a streaming response.
func (r *ChatResult) IsStream() bool { return r.Stream != nil }

// Adapter is the provider-facing interface. Adapters translate the unified
// schema to their native wire format and back. Calling an operation the
// backend does not support returns an UnsupportedOperation error at
// dispatch time rather than at build time.
type Adapter interface {
	// Key returns the provider key this adapter was built from.
	Key() string

	// Type returns the provider variant tag.
	Type() config.ProviderType

	// ChatCompletion executes a chat request against the upstream model.
	// The request's Model field has already been rewritten to the
	// provider-native id by the model router; model carries the full model
	// record for variants that need more than the id.
	ChatCompletion(ctx context.Context, req *schema.ChatCompletionRequest, model *config.ModelConfig) (*ChatResult, error)

	// Completion executes a legacy text-completion request.
	Completion(ctx context.Context, req *schema.CompletionRequest, model *config.ModelConfig) (*schema.CompletionResponse, error)

	// Embeddings executes an embeddings request.
	Embeddings(ctx context.Context, req *schema.EmbeddingsRequest, model *config.ModelConfig) (*schema.EmbeddingsResponse, error)
}

// ErrUnsupported builds the canonical error for an operation a provider
// variant does not implement.
func ErrUnsupported(pt config.ProviderType, op Operation) *apierror.Error {
	e := apierror.New(apierror.KindUnsupportedOperation, "%s does not support %s", pt, op)
	e.Provider = string(pt)
	return e
}
