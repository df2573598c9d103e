// Package pipeline compiles pipeline records into executable plugin chains.
// A compiled pipeline is an ordered sequence of wrapping plugins around a
// terminal model-router handler; plugins observe the request on the way in
// and the outcome on the way out.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/providers"
	"llmhub/gateway/pkg/schema"
)

// Exec carries one request through a pipeline. Exactly one of the request
// fields is set, matching the pipeline type.
type Exec struct {
	RequestID string

	Chat       *schema.ChatCompletionRequest
	Completion *schema.CompletionRequest
	Embeddings *schema.EmbeddingsRequest
}

// RequestedModel returns the model named by whichever request is set.
func (e *Exec) RequestedModel() string {
	switch {
	case e.Chat != nil:
		return e.Chat.Model
	case e.Completion != nil:
		return e.Completion.Model
	case e.Embeddings != nil:
		return e.Embeddings.Model
	}
	return ""
}

// Result is the outcome of a pipeline execution. ModelKey and ProviderType
// identify the candidate that served the request.
type Result struct {
	Chat       *providers.ChatResult
	Completion *schema.CompletionResponse
	Embeddings *schema.EmbeddingsResponse

	ModelKey     string
	ProviderType config.ProviderType
}

// IsStream reports whether the result carries a streaming chat response.
func (r *Result) IsStream() bool {
	return r.Chat != nil && r.Chat.IsStream()
}

// Handler executes one stage of a pipeline.
type Handler func(ctx context.Context, ex *Exec) (*Result, error)

// Plugin wraps the downstream handler, middleware style.
type Plugin interface {
	Name() string
	Wrap(next Handler) Handler
}

// ModelSource resolves a model key to its record and adapter. Implemented by
// the state snapshot.
type ModelSource interface {
	Model(key string) (*config.ModelConfig, providers.Adapter, bool)
}

// Pipeline is a compiled, immutable plugin chain. It is built once per
// snapshot and shared read-only by all requests routed to it.
type Pipeline struct {
	Name    string
	Type    config.PipelineType
	handler Handler
}

// Execute runs the request through the chain.
func (p *Pipeline) Execute(ctx context.Context, ex *Exec) (*Result, error) {
	return p.handler(ctx, ex)
}

// Compile builds a pipeline from its record. The plugin list has already
// been validated: the model-router appears exactly once, in terminal
// position. traceContent is the process-wide default for the tracing plugin.
func Compile(cfg *config.PipelineConfig, source ModelSource, logger *slog.Logger, traceContent bool) (*Pipeline, error) {
	pt, err := config.ParsePipelineType(cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", cfg.Name, err)
	}

	var handler Handler
	var wrappers []Plugin
	for _, pc := range cfg.Plugins {
		switch {
		case pc.ModelRouter != nil:
			router := NewRouter(cfg.Name, pt, pc.ModelRouter, source, logger)
			handler = router.Route
		case pc.Logging != nil:
			wrappers = append(wrappers, NewLoggingPlugin(cfg.Name, pc.Logging, logger))
		case pc.Tracing != nil:
			tp, err := NewTracingPlugin(cfg.Name, pt, pc.Tracing, traceContent)
			if err != nil {
				return nil, fmt.Errorf("pipeline %q: %w", cfg.Name, err)
			}
			wrappers = append(wrappers, tp)
		default:
			return nil, fmt.Errorf("pipeline %q: plugin entry sets no known plugin", cfg.Name)
		}
	}
	if handler == nil {
		return nil, fmt.Errorf("pipeline %q: no model-router plugin", cfg.Name)
	}

	// Wrap in reverse so the first configured plugin runs outermost.
	for i := len(wrappers) - 1; i >= 0; i-- {
		handler = wrappers[i].Wrap(handler)
	}

	return &Pipeline{Name: cfg.Name, Type: pt, handler: handler}, nil
}
