// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the trainer.
type Metrics struct {
	MergesTotal           prometheus.Counter
	MergeIterationSeconds prometheus.Histogram
	DistinctPairs         prometheus.Gauge
	BestPairCount         prometheus.Gauge
	VocabSize             prometheus.Gauge
	SymbolsTotal          prometheus.Gauge
	TrainRunsTotal        *prometheus.CounterVec
	TrainDurationSeconds  prometheus.Histogram
	CapacityTruncations   *prometheus.CounterVec
	DocsConsumedTotal     prometheus.Counter
	WordsSegmentedTotal   prometheus.Counter
	SinkWritesTotal       *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		MergesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "subword_merges_total",
				Help: "Total pair merges applied across all training runs.",
			},
		),
		MergeIterationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "subword_merge_iteration_seconds",
				Help:    "Wall time of a single count-select-merge iteration.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		DistinctPairs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "subword_distinct_pairs",
				Help: "Distinct adjacent symbol pairs counted in the last iteration.",
			},
		),
		BestPairCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "subword_best_pair_count",
				Help: "Occurrence count of the pair selected in the last iteration.",
			},
		),
		VocabSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "subword_vocabulary_size",
				Help: "Number of entries in the vocabulary store.",
			},
		),
		SymbolsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "subword_symbols_total",
				Help: "Sum of symbol counts over all surface forms.",
			},
		),
		TrainRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subword_train_runs_total",
				Help: "Training runs by outcome (completed, exhausted, error).",
			},
			[]string{"outcome"},
		),
		TrainDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "subword_train_duration_seconds",
				Help:    "End-to-end training run duration.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),
		CapacityTruncations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subword_capacity_truncations_total",
				Help: "Entries capped or skipped at a configured capacity limit.",
			},
			[]string{"limit"},
		),
		DocsConsumedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "corpus_documents_consumed_total",
				Help: "Corpus documents consumed from Kafka.",
			},
		),
		WordsSegmentedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "corpus_words_segmented_total",
				Help: "Word tokens produced by the segmenter.",
			},
		),
		SinkWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vocab_sink_writes_total",
				Help: "Vocabulary publications by sink and status.",
			},
			[]string{"sink", "status"},
		),
	}

	prometheus.MustRegister(
		m.MergesTotal,
		m.MergeIterationSeconds,
		m.DistinctPairs,
		m.BestPairCount,
		m.VocabSize,
		m.SymbolsTotal,
		m.TrainRunsTotal,
		m.TrainDurationSeconds,
		m.CapacityTruncations,
		m.DocsConsumedTotal,
		m.WordsSegmentedTotal,
		m.SinkWritesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
