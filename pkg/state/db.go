package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"llmhub/gateway/pkg/config"
)

// DBSource loads configuration rows from a Postgres store owned by the
// management service and polls it on a fixed interval. Each table keeps the
// full record as a JSON column so the row layout stays stable while the
// record shapes evolve.
type DBSource struct {
	db     *sqlx.DB
	store  *Store
	logger *slog.Logger
	cron   *cron.Cron
}

// OpenDBSource connects to the database and verifies the connection.
func OpenDBSource(ctx context.Context, dsn string, store *Store, logger *slog.Logger) (*DBSource, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to config database: %w", err)
	}
	db.SetMaxOpenConns(4)
	return &DBSource{db: db, store: store, logger: logger}, nil
}

type configRow struct {
	Config []byte `db:"config"`
}

type generalRow struct {
	TraceContentEnabled bool `db:"trace_content_enabled"`
}

// Load fetches all configuration rows and installs the resulting snapshot.
// The assembled config is re-marshalled for the store's change hash.
func (d *DBSource) Load(ctx context.Context) error {
	cfg := &config.Config{}

	var general []generalRow
	if err := d.db.SelectContext(ctx, &general, `SELECT trace_content_enabled FROM general LIMIT 1`); err != nil {
		return fmt.Errorf("loading general config: %w", err)
	}
	if len(general) > 0 {
		cfg.General.TraceContentEnabled = general[0].TraceContentEnabled
	}

	if err := loadRows(ctx, d.db, `SELECT config FROM providers ORDER BY key`, &cfg.Providers); err != nil {
		return fmt.Errorf("loading providers: %w", err)
	}
	if err := loadRows(ctx, d.db, `SELECT config FROM models ORDER BY key`, &cfg.Models); err != nil {
		return fmt.Errorf("loading models: %w", err)
	}
	if err := loadRows(ctx, d.db, `SELECT config FROM pipelines ORDER BY name`, &cfg.Pipelines); err != nil {
		return fmt.Errorf("loading pipelines: %w", err)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("hashing config: %w", err)
	}
	return d.store.Apply(ctx, raw, cfg)
}

// loadRows decodes one table's JSON config column into a record slice.
func loadRows[T any](ctx context.Context, db *sqlx.DB, query string, out *[]T) error {
	var rows []configRow
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return err
	}
	records := make([]T, 0, len(rows))
	for _, r := range rows {
		var rec T
		if err := json.Unmarshal(r.Config, &rec); err != nil {
			return fmt.Errorf("decoding row: %w", err)
		}
		records = append(records, rec)
	}
	*out = records
	return nil
}

// Poll reloads the database every intervalSeconds until the context ends. A
// failed poll is logged and the live snapshot stays in place.
func (d *DBSource) Poll(ctx context.Context, intervalSeconds int) error {
	d.cron = cron.New()
	_, err := d.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSeconds), func() {
		if err := d.Load(ctx); err != nil {
			d.logger.Error("database config reload failed, keeping live snapshot", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling config poll: %w", err)
	}
	d.cron.Start()

	go func() {
		<-ctx.Done()
		d.cron.Stop()
		d.db.Close()
	}()
	return nil
}
