// Package ingest wires the Kafka corpus-document topic into the corpus
// builder and drives periodic retraining.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tokenforge/subword-induction-platform/internal/corpus"
	"github.com/tokenforge/subword-induction-platform/pkg/errors"
	"github.com/tokenforge/subword-induction-platform/pkg/kafka"
	"github.com/tokenforge/subword-induction-platform/pkg/metrics"
)

// Document is the corpus message published by upstream producers.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// VocabUpdated is emitted after every completed retrain.
type VocabUpdated struct {
	RunID     string    `json:"run_id"`
	VocabSize int       `json:"vocab_size"`
	Merges    int       `json:"merges"`
	Timestamp time.Time `json:"timestamp"`
}

// Consumer consumes corpus documents into the builder and tracks whether
// anything new arrived since the last retrain.
type Consumer struct {
	builder *corpus.Builder
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu    sync.Mutex
	dirty bool
}

// New creates a Consumer feeding the given builder.
func New(builder *corpus.Builder, m *metrics.Metrics) *Consumer {
	return &Consumer{
		builder: builder,
		metrics: m,
		logger:  slog.Default().With("component", "corpus-consumer"),
	}
}

// Handler returns the kafka.MessageHandler decoding corpus documents.
func (c *Consumer) Handler() kafka.MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		doc, err := kafka.DecodeJSON[Document](value)
		if err != nil {
			return err
		}
		if doc.Text == "" {
			return errors.Newf(errors.ErrInvalidInput, "document %q has no text", doc.ID)
		}
		words := c.builder.AddText(doc.Text)
		if c.metrics != nil {
			c.metrics.DocsConsumedTotal.Inc()
		}
		c.logger.Debug("document ingested",
			"doc_id", doc.ID,
			"words", words,
		)
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return nil
	}
}

// ConsumeDirty reports whether documents arrived since the last call and
// resets the flag.
func (c *Consumer) ConsumeDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.dirty
	c.dirty = false
	return d
}
