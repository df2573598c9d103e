package state

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"sync"
	"sync/atomic"

	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/telemetry"
)

// Store holds the current snapshot behind an atomic pointer. Readers take
// the pointer once per request and keep using that snapshot for the request
// lifetime; writers swap in fully-built snapshots and never mutate old ones.
type Store struct {
	current atomic.Pointer[Snapshot]
	logger  *slog.Logger

	// reload bookkeeping, serialized; the request path never touches it.
	mu       sync.Mutex
	lastHash [sha256.Size]byte
}

// NewStore builds an empty store. Current returns nil until the first
// successful Apply.
func NewStore(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

// Current returns the live snapshot, or nil before the first install.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Apply builds a snapshot from raw configuration and installs it. The raw
// bytes are hashed so an unchanged config reloads as a no-op; a failed build
// leaves the live snapshot untouched and returns the build error.
func (s *Store) Apply(ctx context.Context, raw []byte, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := sha256.Sum256(raw)
	if sum == s.lastHash && s.current.Load() != nil {
		s.logger.Debug("config unchanged, reload skipped")
		telemetry.ConfigReloads.WithLabelValues("unchanged").Inc()
		return nil
	}

	snap, err := Build(ctx, cfg, s.logger)
	if err != nil {
		telemetry.ConfigReloads.WithLabelValues("error").Inc()
		return err
	}
	s.current.Store(snap)
	s.lastHash = sum
	telemetry.ConfigReloads.WithLabelValues("ok").Inc()
	s.logger.Info("configuration installed",
		"models", len(snap.models),
		"pipelines", len(snap.pipelines),
		"default_pipeline", snap.defaultPipeline)
	return nil
}
