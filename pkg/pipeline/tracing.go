package pipeline

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/providers"
	"llmhub/gateway/pkg/telemetry"
)

// Span attribute keys following the gen_ai semantic conventions.
const (
	attrSystem        = "gen_ai.system"
	attrOperation     = "gen_ai.operation.name"
	attrRequestModel  = "gen_ai.request.model"
	attrResponseModel = "gen_ai.response.model"
	attrInputTokens   = "gen_ai.usage.input_tokens"
	attrOutputTokens  = "gen_ai.usage.output_tokens"
	attrPrompt        = "gen_ai.prompt"
	attrCompletion    = "gen_ai.completion"
)

// TracingPlugin opens a span covering the downstream call. For streaming
// responses the span stays open until the stream terminates and token counts
// are filled from the final chunk.
type TracingPlugin struct {
	pipeline     string
	op           string
	tracer       trace.Tracer
	traceContent bool
}

// NewTracingPlugin builds the plugin and installs the process exporter on
// first use. traceContentDefault is the general.trace_content_enabled flag;
// the plugin config may override it per pipeline.
func NewTracingPlugin(pipelineName string, pt config.PipelineType, cfg *config.TracingPluginConfig, traceContentDefault bool) (*TracingPlugin, error) {
	apiKey := ""
	if !cfg.APIKey.IsZero() {
		var err error
		if apiKey, err = cfg.APIKey.Resolve(); err != nil {
			return nil, err
		}
	}
	if err := telemetry.InitTracing(context.Background(), cfg.Endpoint, apiKey); err != nil {
		return nil, err
	}

	traceContent := traceContentDefault
	if cfg.TraceContentEnabled != nil {
		traceContent = *cfg.TraceContentEnabled
	}
	return &TracingPlugin{
		pipeline:     pipelineName,
		op:           string(pt),
		tracer:       otel.Tracer("llmhub/gateway/pipeline"),
		traceContent: traceContent,
	}, nil
}

// Name implements Plugin.
func (p *TracingPlugin) Name() string { return "tracing" }

// Wrap implements Plugin.
func (p *TracingPlugin) Wrap(next Handler) Handler {
	return func(ctx context.Context, ex *Exec) (*Result, error) {
		ctx, span := p.tracer.Start(ctx, "gen_ai."+p.op, trace.WithSpanKind(trace.SpanKindClient))
		span.SetAttributes(
			attribute.String(attrOperation, p.op),
			attribute.String(attrRequestModel, ex.RequestedModel()),
		)
		if p.traceContent && ex.Chat != nil {
			if msgs, err := json.Marshal(ex.Chat.Messages); err == nil {
				span.SetAttributes(attribute.String(attrPrompt, string(msgs)))
			}
		}

		result, err := next(ctx, ex)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return nil, err
		}

		span.SetAttributes(attribute.String(attrSystem, string(result.ProviderType)))
		if result.IsStream() {
			// The span closes when the stream drains; chunks flow through
			// a watcher that accumulates usage and content.
			result.Chat.Stream = p.watchStream(ctx, span, result.Chat.Stream)
			return result, nil
		}

		p.recordResponse(span, result)
		span.End()
		return result, nil
	}
}

func (p *TracingPlugin) recordResponse(span trace.Span, result *Result) {
	switch {
	case result.Chat != nil && result.Chat.Response != nil:
		resp := result.Chat.Response
		span.SetAttributes(attribute.String(attrResponseModel, resp.Model))
		if resp.Usage != nil {
			span.SetAttributes(
				attribute.Int(attrInputTokens, resp.Usage.PromptTokens),
				attribute.Int(attrOutputTokens, resp.Usage.CompletionTokens),
			)
		}
		if p.traceContent && len(resp.Choices) > 0 {
			span.SetAttributes(attribute.String(attrCompletion, resp.Choices[0].Message.Content.Text()))
		}
	case result.Completion != nil:
		span.SetAttributes(attribute.String(attrResponseModel, result.Completion.Model))
		if result.Completion.Usage != nil {
			span.SetAttributes(
				attribute.Int(attrInputTokens, result.Completion.Usage.PromptTokens),
				attribute.Int(attrOutputTokens, result.Completion.Usage.CompletionTokens),
			)
		}
	case result.Embeddings != nil:
		span.SetAttributes(attribute.String(attrResponseModel, result.Embeddings.Model))
		if result.Embeddings.Usage != nil {
			span.SetAttributes(attribute.Int(attrInputTokens, result.Embeddings.Usage.PromptTokens))
		}
	}
}

// watchStream forwards chunks unchanged while accumulating span attributes;
// the span ends exactly once, when the upstream channel closes.
func (p *TracingPlugin) watchStream(ctx context.Context, span trace.Span, in <-chan *providers.StreamChunk) <-chan *providers.StreamChunk {
	out := make(chan *providers.StreamChunk)
	go func() {
		defer span.End()
		defer close(out)

		var content string
		for sc := range in {
			if sc.Err != nil {
				span.RecordError(sc.Err)
				span.SetStatus(codes.Error, sc.Err.Error())
			} else if chunk := sc.Chunk; chunk != nil {
				if chunk.Model != "" {
					span.SetAttributes(attribute.String(attrResponseModel, chunk.Model))
				}
				if chunk.Usage != nil {
					span.SetAttributes(
						attribute.Int(attrInputTokens, chunk.Usage.PromptTokens),
						attribute.Int(attrOutputTokens, chunk.Usage.CompletionTokens),
					)
				}
				if p.traceContent && len(chunk.Choices) > 0 {
					content += chunk.Choices[0].Delta.Content
				}
			}
			select {
			case out <- sc:
			case <-ctx.Done():
				return
			}
		}
		if p.traceContent && content != "" {
			span.SetAttributes(attribute.String(attrCompletion, content))
		}
	}()
	return out
}
