package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/providers"
)

// Router is the terminal pipeline stage. It tries the configured model
// candidates in priority order until one serves the request.
type Router struct {
	pipeline string
	ptype    config.PipelineType
	entries  []config.ModelEntry
	source   ModelSource
	logger   *slog.Logger
}

// NewRouter compiles a model-router plugin config. The candidate list is
// sorted by ascending effective priority once at build time; the sort is
// stable so ties preserve config order.
func NewRouter(pipelineName string, pt config.PipelineType, cfg *config.ModelRouterConfig, source ModelSource, logger *slog.Logger) *Router {
	type ranked struct {
		entry    config.ModelEntry
		priority int
	}
	order := make([]ranked, len(cfg.Models))
	for i, e := range cfg.Models {
		if _, _, ok := source.Model(e.Key); !ok {
			logger.Warn("model router references unavailable model",
				"pipeline", pipelineName, "model_key", e.Key)
		}
		order[i] = ranked{entry: e, priority: e.EffectivePriority(i)}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].priority < order[j].priority })
	entries := make([]config.ModelEntry, len(order))
	for i, r := range order {
		entries[i] = r.entry
	}

	return &Router{
		pipeline: pipelineName,
		ptype:    pt,
		entries:  entries,
		source:   source,
		logger:   logger,
	}
}

// Route implements Handler. Candidates are attempted strictly sequentially.
// A retryable upstream failure falls through to the next candidate; any
// other failure returns immediately. Streams count as success as soon as the
// upstream headers are in; errors surfacing mid-stream are never retried.
func (r *Router) Route(ctx context.Context, ex *Exec) (*Result, error) {
	var lastErr error
	for _, entry := range r.entries {
		model, adapter, ok := r.source.Model(entry.Key)
		if !ok || !model.IsEnabled() {
			r.logger.Warn("model router skipping unavailable candidate",
				"pipeline", r.pipeline, "model_key", entry.Key)
			continue
		}

		result, err := r.attempt(ctx, ex, model, adapter)
		if err == nil {
			result.ModelKey = model.Key
			result.ProviderType = adapter.Type()
			return result, nil
		}
		ae := apierror.FromError(err).WithModel(string(adapter.Type()), model.Key)
		if !ae.Retryable() || ctx.Err() != nil {
			return nil, ae
		}
		r.logger.Warn("model router candidate failed, trying next",
			"pipeline", r.pipeline, "model_key", model.Key,
			"provider", adapter.Key(), "error", ae)
		lastErr = ae
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, apierror.New(apierror.KindModelNotFound,
		"pipeline %q has no available model candidate", r.pipeline)
}

// attempt invokes the adapter operation matching the pipeline type with the
// request's model rewritten to the provider-native id. The incoming request
// is copied so a fallback starts from the original.
func (r *Router) attempt(ctx context.Context, ex *Exec, model *config.ModelConfig, adapter providers.Adapter) (*Result, error) {
	switch r.ptype {
	case config.PipelineChat:
		req := *ex.Chat
		req.Model = model.Type
		out, err := adapter.ChatCompletion(ctx, &req, model)
		if err != nil {
			return nil, err
		}
		return &Result{Chat: out}, nil

	case config.PipelineCompletion:
		req := *ex.Completion
		req.Model = model.Type
		// The completion operation is non-streaming; forwarding the flag
		// would make upstreams answer with SSE the JSON decode cannot read.
		req.Stream = false
		out, err := adapter.Completion(ctx, &req, model)
		if err != nil {
			return nil, err
		}
		return &Result{Completion: out}, nil

	case config.PipelineEmbeddings:
		req := *ex.Embeddings
		req.Model = model.Type
		out, err := adapter.Embeddings(ctx, &req, model)
		if err != nil {
			return nil, err
		}
		return &Result{Embeddings: out}, nil
	}
	return nil, apierror.New(apierror.KindInternal, "unknown pipeline type %q", r.ptype)
}
