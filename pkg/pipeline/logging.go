package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"llmhub/gateway/pkg/config"
)

// LoggingPlugin records one event line per request at the configured level,
// with the request id, pipeline, selected model, latency, and outcome.
type LoggingPlugin struct {
	pipeline string
	level    slog.Level
	logger   *slog.Logger
}

// NewLoggingPlugin builds the plugin from its config. Unknown levels fall
// back to info.
func NewLoggingPlugin(pipelineName string, cfg *config.LoggingPluginConfig, logger *slog.Logger) *LoggingPlugin {
	return &LoggingPlugin{
		pipeline: pipelineName,
		level:    parseLevel(cfg.Level),
		logger:   logger,
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warning", "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Name implements Plugin.
func (p *LoggingPlugin) Name() string { return "logging" }

// Wrap implements Plugin.
func (p *LoggingPlugin) Wrap(next Handler) Handler {
	return func(ctx context.Context, ex *Exec) (*Result, error) {
		start := time.Now()
		result, err := next(ctx, ex)
		attrs := []any{
			"request_id", ex.RequestID,
			"pipeline", p.pipeline,
			"requested_model", ex.RequestedModel(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			p.logger.Log(ctx, slog.LevelError, "pipeline request failed",
				append(attrs, "error", err)...)
			return nil, err
		}
		attrs = append(attrs,
			"model_key", result.ModelKey,
			"provider_type", string(result.ProviderType),
			"stream", result.IsStream(),
		)
		p.logger.Log(ctx, p.level, "pipeline request served", attrs...)
		return result, nil
	}
}
