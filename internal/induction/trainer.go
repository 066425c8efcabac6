// Package induction implements greedy pairwise subword merging over a
// vocabulary store: the per-iteration pair-counting pass, deterministic
// best-pair selection, merge application, and the bounded induction loop
// that drives them.
package induction

import (
	"context"
	"log/slog"
	"time"

	"github.com/tokenforge/subword-induction-platform/internal/pairtable"
	"github.com/tokenforge/subword-induction-platform/internal/vocab"
	"github.com/tokenforge/subword-induction-platform/pkg/config"
	"github.com/tokenforge/subword-induction-platform/pkg/metrics"
)

// minMergeCount is the smallest pair count worth fusing. A pair seen fewer
// than twice cannot reduce the corpus encoding, so selection below this
// threshold terminates the loop.
const minMergeCount = 2

// state is the induction loop's phase. The store is mutated only in
// stateMerging, never concurrently with the counting pass that reads it.
type state int

const (
	stateCounting state = iota
	stateSelecting
	stateMerging
	stateDone
)

// Merge records one applied merge, in application order.
type Merge struct {
	Iteration int    `json:"iteration"`
	Left      string `json:"left"`
	Right     string `json:"right"`
	Count     int    `json:"count"`
}

// Result summarises a completed training run.
type Result struct {
	Merges    []Merge
	VocabSize int
	Elapsed   time.Duration
}

// Trainer runs the induction loop against a vocabulary store.
type Trainer struct {
	cfg     config.TrainerConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Trainer. metrics may be nil when no collector is registered
// (tests, library use).
func New(cfg config.TrainerConfig, m *metrics.Metrics) *Trainer {
	return &Trainer{
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "induction-trainer"),
	}
}

// Train runs at most MaxMerges induction iterations over the store,
// terminating early once no pair occurs at least twice. Each iteration
// builds a fresh pair table, counts every adjacent symbol pair weighted by
// entry frequency, selects the most frequent pair, and fuses it across the
// whole vocabulary. The applied merges are returned in order.
//
// The loop is strictly sequential across iterations; parallelism, when
// configured, lives inside the counting pass only.
func (t *Trainer) Train(ctx context.Context, store *vocab.Store) (*Result, error) {
	started := time.Now()
	merges := make([]Merge, 0, t.cfg.MaxMerges)

	st := stateCounting
	iteration := 0
	var best pairtable.Entry

	for st != stateDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch st {
		case stateCounting:
			if iteration >= t.cfg.MaxMerges {
				st = stateDone
				continue
			}
			iterStart := time.Now()
			table := pairtable.New(t.cfg.PartitionCount)
			if err := countPairs(ctx, store, table, t.cfg.WorkerCount); err != nil {
				return nil, err
			}
			var ok bool
			best, ok = table.FindMax()
			if t.metrics != nil {
				t.metrics.DistinctPairs.Set(float64(table.Len()))
				t.metrics.MergeIterationSeconds.Observe(time.Since(iterStart).Seconds())
			}
			// The table is exhausted here; selection works off the
			// captured best entry and the next iteration starts fresh.
			if !ok {
				best = pairtable.Entry{}
			}
			st = stateSelecting

		case stateSelecting:
			if best.Count < minMergeCount {
				t.logger.Info("no more productive pairs, stopping merges",
					"iteration", iteration,
					"best_count", best.Count,
				)
				st = stateDone
				continue
			}
			st = stateMerging

		case stateMerging:
			left, right := best.Key.Split()
			rewritten := applyMerge(store, left, right)
			merges = append(merges, Merge{
				Iteration: iteration,
				Left:      left,
				Right:     right,
				Count:     best.Count,
			})
			t.logger.Info("subword merge applied",
				"iteration", iteration,
				"pair", string(best.Key),
				"count", best.Count,
				"entries_rewritten", rewritten,
			)
			if t.metrics != nil {
				t.metrics.MergesTotal.Inc()
				t.metrics.BestPairCount.Set(float64(best.Count))
				t.metrics.SymbolsTotal.Set(float64(store.SymbolTotal()))
			}
			iteration++
			st = stateCounting
		}
	}

	elapsed := time.Since(started)
	if t.metrics != nil {
		t.metrics.VocabSize.Set(float64(store.Size()))
		t.metrics.TrainDurationSeconds.Observe(elapsed.Seconds())
	}
	t.logger.Info("training run complete",
		"merges", len(merges),
		"vocab_size", store.Size(),
		"elapsed", elapsed,
	)
	return &Result{
		Merges:    merges,
		VocabSize: store.Size(),
		Elapsed:   elapsed,
	}, nil
}
