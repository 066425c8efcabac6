package induction

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tokenforge/subword-induction-platform/internal/pairtable"
	"github.com/tokenforge/subword-induction-platform/internal/vocab"
)

// countPairs runs one counting pass: for every store entry, in store order,
// every adjacent symbol pair is added to the table weighted by the entry's
// frequency. Entries with fewer than two symbols contribute nothing; empty
// forms are skipped rather than failing the iteration.
//
// With workers > 1 the entries are fanned out over a bounded pool. Each
// worker processes whole entries only, and aggregation into the table is
// commutative, so final counts are independent of scheduling.
func countPairs(ctx context.Context, store *vocab.Store, table *pairtable.Table, workers int) error {
	entries := store.Entries()
	if workers <= 1 {
		for _, e := range entries {
			countEntry(table, e)
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	chunk := (len(entries) + workers - 1) / workers
	for start := 0; start < len(entries); start += chunk {
		end := start + chunk
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, e := range batch {
				countEntry(table, e)
			}
			return nil
		})
	}
	return g.Wait()
}

// countEntry emits every adjacent pair of one entry into the table. The
// weight folds the reference's freq-many unit increments into one update.
func countEntry(table *pairtable.Table, e vocab.Entry) {
	symbols := e.Symbols()
	if len(symbols) < 2 {
		return
	}
	for i := 0; i < len(symbols)-1; i++ {
		table.Add(pairtable.MakeKey(symbols[i], symbols[i+1]), e.Freq, e.ID)
	}
}
