// Command gateway runs the LLM gateway: an OpenAI-compatible proxy routing
// chat, completion, and embeddings traffic across configured providers.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"llmhub/gateway/pkg/server"
	"llmhub/gateway/pkg/state"
	"llmhub/gateway/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gateway:", err)
		os.Exit(1)
	}
}

func run() error {
	logger := telemetry.NewLogger(os.Getenv("LOG_LEVEL"))

	port := envInt("PORT", 3000)
	managementPort := envInt("MANAGEMENT_PORT", 8080)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := state.NewStore(logger)

	// The initial snapshot must install before serving; a broken config at
	// startup is a hard failure rather than an empty gateway.
	switch os.Getenv("HUB_MODE") {
	case "database":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL must be set when HUB_MODE=database")
		}
		source, err := state.OpenDBSource(ctx, dsn, store, logger)
		if err != nil {
			return err
		}
		if err := source.Load(ctx); err != nil {
			return fmt.Errorf("loading initial configuration: %w", err)
		}
		if err := source.Poll(ctx, envInt("DB_POLL_INTERVAL_SECONDS", 30)); err != nil {
			return err
		}
	default:
		path := os.Getenv("CONFIG_FILE_PATH")
		if path == "" {
			path = "config.yaml"
		}
		source := state.NewFileSource(path, store, logger)
		if err := source.Load(ctx); err != nil {
			return fmt.Errorf("loading initial configuration: %w", err)
		}
		if err := source.Watch(ctx); err != nil {
			return err
		}
	}

	defer func() {
		_ = telemetry.ShutdownTracing(context.Background())
	}()

	srv := server.New(store, logger)
	return srv.Start(ctx, port, managementPort)
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
