package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/tokenforge/subword-induction-platform/pkg/config"
)

type Client struct {
	DB  *sql.DB
	cfg config.PostgresConfig
}

func New(cfg config.PostgresConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{DB: db, cfg: cfg}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func (c *Client) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction after error %v: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Migrate creates the trainer schema if it does not exist: one row per
// training run, the final vocabulary entries, and the ordered merge log.
func (c *Client) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS vocab_runs (
			id           BIGSERIAL PRIMARY KEY,
			run_id       TEXT NOT NULL UNIQUE,
			max_merges   INT NOT NULL,
			merges_done  INT NOT NULL,
			vocab_size   INT NOT NULL,
			started_at   TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS vocab_entries (
			run_id       TEXT NOT NULL REFERENCES vocab_runs(run_id) ON DELETE CASCADE,
			entry_id     INT NOT NULL,
			surface_form TEXT NOT NULL,
			frequency    INT NOT NULL,
			PRIMARY KEY (run_id, entry_id)
		)`,
		`CREATE TABLE IF NOT EXISTS vocab_merges (
			run_id    TEXT NOT NULL REFERENCES vocab_runs(run_id) ON DELETE CASCADE,
			iteration INT NOT NULL,
			left_sym  TEXT NOT NULL,
			right_sym TEXT NOT NULL,
			pair_count INT NOT NULL,
			PRIMARY KEY (run_id, iteration)
		)`,
	}
	for _, stmt := range statements {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
