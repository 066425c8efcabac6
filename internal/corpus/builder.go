// Package corpus accumulates word frequencies from segmented documents into
// a vocabulary store ready for subword seeding.
package corpus

import (
	stderrors "errors"
	"log/slog"
	"sync"

	"github.com/tokenforge/subword-induction-platform/internal/segmenter"
	"github.com/tokenforge/subword-induction-platform/internal/vocab"
	"github.com/tokenforge/subword-induction-platform/pkg/errors"
	"github.com/tokenforge/subword-induction-platform/pkg/metrics"
)

// Builder feeds segmented text into a vocabulary store. Safe for concurrent
// AddText calls; Snapshot hands the store over for training.
type Builder struct {
	mu        sync.Mutex
	seg       *segmenter.Segmenter
	store     *vocab.Store
	maxVocab  int
	words     int64
	truncated int64
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewBuilder creates a Builder writing into a fresh store.
func NewBuilder(seg *segmenter.Segmenter, maxVocab int, m *metrics.Metrics) *Builder {
	return &Builder{
		seg:      seg,
		store:    vocab.NewStore(maxVocab),
		maxVocab: maxVocab,
		metrics:  m,
		logger:   slog.Default().With("component", "corpus-builder"),
	}
}

// AddText segments one document and upserts every word token. Capacity drops
// are counted but do not fail the document.
func (b *Builder) AddText(text string) int {
	words := b.seg.Segment(text)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range words {
		if err := b.store.Upsert(w); err != nil {
			if stderrors.Is(err, errors.ErrCapacityExceeded) {
				b.truncated++
				if b.metrics != nil {
					b.metrics.CapacityTruncations.WithLabelValues("vocab_size").Inc()
				}
				continue
			}
			b.logger.Error("upsert failed", "word", w, "error", err)
		}
	}
	b.words += int64(len(words))
	if b.metrics != nil {
		b.metrics.WordsSegmentedTotal.Add(float64(len(words)))
	}
	return len(words)
}

// WordCount returns the total word tokens observed so far.
func (b *Builder) WordCount() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.words
}

// Snapshot returns a copy of the current store for training. Training seeds
// and merges surface forms in place, so it must never run on the live store
// that ingestion keeps upserting bare words into.
func (b *Builder) Snapshot() *vocab.Store {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Clone()
}

// Store returns the live store. Callers must not train on it while AddText
// may still run; use Snapshot for that.
func (b *Builder) Store() *vocab.Store {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store
}
