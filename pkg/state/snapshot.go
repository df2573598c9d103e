// Package state owns the gateway's runtime configuration: immutable
// snapshots compiled from raw config records, an atomically swappable store,
// and the reloaders that feed it from a YAML file or a database.
package state

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/pipeline"
	"llmhub/gateway/pkg/providers"
	"llmhub/gateway/pkg/providers/anthropic"
	"llmhub/gateway/pkg/providers/azure"
	"llmhub/gateway/pkg/providers/bedrock"
	"llmhub/gateway/pkg/providers/openai"
	"llmhub/gateway/pkg/providers/vertexai"
)

// modelBinding pairs a model record with the adapter serving it.
type modelBinding struct {
	model   *config.ModelConfig
	adapter providers.Adapter
}

// Snapshot is an immutable, validated bundle of adapters and compiled
// pipelines serving one configuration epoch. In-flight requests hold the
// snapshot they captured at entry; reloads never mutate it.
type Snapshot struct {
	models          map[string]modelBinding
	pipelines       map[string]*pipeline.Pipeline
	pipelineOrder   []string
	defaultPipeline string
	traceContent    bool
}

// Model implements pipeline.ModelSource.
func (s *Snapshot) Model(key string) (*config.ModelConfig, providers.Adapter, bool) {
	b, ok := s.models[key]
	if !ok {
		return nil, nil, false
	}
	return b.model, b.adapter, true
}

// Pipeline resolves a pipeline by name; the empty name selects the default.
func (s *Snapshot) Pipeline(name string) (*pipeline.Pipeline, bool) {
	if name == "" {
		name = s.defaultPipeline
	}
	p, ok := s.pipelines[name]
	return p, ok
}

// PipelineFor resolves the pipeline serving one operation. A named lookup
// must match both name and type. With no name, the default pipeline is used
// when its type matches, else the first configured pipeline of that type.
func (s *Snapshot) PipelineFor(name string, pt config.PipelineType) (*pipeline.Pipeline, bool) {
	if name != "" {
		p, ok := s.pipelines[name]
		if !ok || p.Type != pt {
			return nil, false
		}
		return p, true
	}
	if p, ok := s.pipelines[s.defaultPipeline]; ok && p.Type == pt {
		return p, true
	}
	for _, n := range s.pipelineOrder {
		if p := s.pipelines[n]; p.Type == pt {
			return p, true
		}
	}
	return nil, false
}

// DefaultPipeline returns the name served when no pipeline header is present.
func (s *Snapshot) DefaultPipeline() string { return s.defaultPipeline }

// TraceContentEnabled reports the process-wide content-tracing default.
func (s *Snapshot) TraceContentEnabled() bool { return s.traceContent }

// Build validates raw configuration and compiles it into a snapshot:
// resolving secrets, constructing one adapter per enabled provider, and
// compiling every pipeline. Any failure aborts the whole build so a broken
// config can never be half-installed.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apierror.Wrap(apierror.KindConfigInvalid, err, "configuration rejected")
	}

	adapters := make(map[string]providers.Adapter, len(cfg.Providers))
	for i := range cfg.Providers {
		pc := &cfg.Providers[i]
		if !pc.IsEnabled() {
			continue
		}
		adapter, err := buildAdapter(ctx, pc)
		if err != nil {
			return nil, apierror.Wrap(apierror.KindConfigInvalid, err, "building provider %q", pc.Key)
		}
		adapters[pc.Key] = adapter
	}

	traceContent := cfg.General.TraceContentEnabled
	if v, err := strconv.ParseBool(os.Getenv("TRACE_CONTENT_ENABLED")); err == nil {
		traceContent = v
	}

	snap := &Snapshot{
		models:       make(map[string]modelBinding, len(cfg.Models)),
		pipelines:    make(map[string]*pipeline.Pipeline, len(cfg.Pipelines)),
		traceContent: traceContent,
	}
	for i := range cfg.Models {
		mc := &cfg.Models[i]
		adapter, ok := adapters[mc.Provider]
		if !ok {
			// Provider disabled; the model is skipped and the router warns
			// at request time if a pipeline still references it.
			logger.Warn("model skipped, provider disabled", "model_key", mc.Key, "provider", mc.Provider)
			continue
		}
		snap.models[mc.Key] = modelBinding{model: mc, adapter: adapter}
	}

	for i := range cfg.Pipelines {
		pc := &cfg.Pipelines[i]
		p, err := pipeline.Compile(pc, snap, logger, snap.traceContent)
		if err != nil {
			return nil, apierror.Wrap(apierror.KindConfigInvalid, err, "compiling pipeline %q", pc.Name)
		}
		snap.pipelines[pc.Name] = p
		snap.pipelineOrder = append(snap.pipelineOrder, pc.Name)
		if snap.defaultPipeline == "" || pc.Name == "default" {
			snap.defaultPipeline = pc.Name
		}
	}
	return snap, nil
}

func buildAdapter(ctx context.Context, pc *config.ProviderConfig) (providers.Adapter, error) {
	pt, err := config.ParseProviderType(pc.Type)
	if err != nil {
		return nil, err
	}
	switch pt {
	case config.ProviderOpenAI:
		return openai.New(pc)
	case config.ProviderAnthropic:
		return anthropic.New(pc)
	case config.ProviderAzure:
		return azure.New(pc)
	case config.ProviderBedrock:
		return bedrock.New(ctx, pc)
	case config.ProviderVertexAI:
		return vertexai.New(ctx, pc)
	}
	return nil, apierror.New(apierror.KindConfigInvalid, "unknown provider type %q", pc.Type)
}
