package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/tokenforge/subword-induction-platform/internal/induction"
	"github.com/tokenforge/subword-induction-platform/internal/vocab"
	"github.com/tokenforge/subword-induction-platform/pkg/metrics"
	"github.com/tokenforge/subword-induction-platform/pkg/postgres"
)

// PostgresStore persists training runs: one vocab_runs row plus the final
// vocabulary entries and the ordered merge log, in a single transaction.
// Schema is created by postgres.Client.Migrate.
type PostgresStore struct {
	db      *postgres.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPostgresStore creates a run persister.
func NewPostgresStore(db *postgres.Client, m *metrics.Metrics) *PostgresStore {
	return &PostgresStore{
		db:      db,
		metrics: m,
		logger:  slog.Default().With("component", "postgres-sink"),
	}
}

// SaveRun persists the run summary, entries, and merge log atomically.
func (s *PostgresStore) SaveRun(ctx context.Context, runID string, startedAt time.Time, maxMerges int, store *vocab.Store, merges []induction.Merge) error {
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vocab_runs (run_id, max_merges, merges_done, vocab_size, started_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			runID, maxMerges, len(merges), store.Size(), startedAt.UTC(),
		); err != nil {
			return fmt.Errorf("inserting run row: %w", err)
		}
		for _, e := range store.Entries() {
			form := e.Form
			if form == "" {
				form = nullForm
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vocab_entries (run_id, entry_id, surface_form, frequency)
				 VALUES ($1, $2, $3, $4)`,
				runID, e.ID, form, e.Freq,
			); err != nil {
				return fmt.Errorf("inserting entry %d: %w", e.ID, err)
			}
		}
		for _, m := range merges {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vocab_merges (run_id, iteration, left_sym, right_sym, pair_count)
				 VALUES ($1, $2, $3, $4, $5)`,
				runID, m.Iteration, m.Left, m.Right, m.Count,
			); err != nil {
				return fmt.Errorf("inserting merge %d: %w", m.Iteration, err)
			}
		}
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.SinkWritesTotal.WithLabelValues("postgres", "error").Inc()
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.SinkWritesTotal.WithLabelValues("postgres", "ok").Inc()
	}
	s.logger.Info("training run persisted",
		"run_id", runID,
		"entries", store.Size(),
		"merges", len(merges),
	)
	return nil
}

// LatestRunID returns the run_id of the most recently completed run, or ""
// when no runs exist.
func (s *PostgresStore) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT run_id FROM vocab_runs ORDER BY completed_at DESC LIMIT 1`,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying latest run: %w", err)
	}
	return runID, nil
}
