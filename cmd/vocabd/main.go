package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tokenforge/subword-induction-platform/internal/corpus"
	"github.com/tokenforge/subword-induction-platform/internal/induction"
	"github.com/tokenforge/subword-induction-platform/internal/ingest"
	"github.com/tokenforge/subword-induction-platform/internal/segmenter"
	"github.com/tokenforge/subword-induction-platform/internal/sink"
	"github.com/tokenforge/subword-induction-platform/pkg/config"
	"github.com/tokenforge/subword-induction-platform/pkg/errors"
	"github.com/tokenforge/subword-induction-platform/pkg/kafka"
	"github.com/tokenforge/subword-induction-platform/pkg/logger"
	"github.com/tokenforge/subword-induction-platform/pkg/metrics"
	"github.com/tokenforge/subword-induction-platform/pkg/postgres"
	pkgredis "github.com/tokenforge/subword-induction-platform/pkg/redis"
)

// vocabd consumes corpus documents from Kafka and retrains the subword
// vocabulary on an interval, publishing each result to the configured sinks
// and announcing it on the vocab-updated topic.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting vocabd",
		"topic", cfg.Kafka.Topics.CorpusDocuments,
		"retrain_interval", cfg.Kafka.RetrainInterval,
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	seg, err := segmenter.New(cfg.Segmenter)
	if err != nil {
		slog.Error("failed to create segmenter", "error", err)
		os.Exit(1)
	}

	svc := &service{
		cfg:      cfg,
		metrics:  m,
		builder:  corpus.NewBuilder(seg, cfg.Trainer.MaxVocabSize, m),
		trainer:  induction.New(cfg.Trainer, m),
		producer: kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.VocabUpdated),
	}
	defer svc.producer.Close()

	if cfg.Sink.RedisEnabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		svc.redis = sink.NewRedisPublisher(client, cfg.Sink, m)
	}
	if cfg.Sink.PostgresEnabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(context.Background()); err != nil {
			slog.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		svc.postgres = sink.NewPostgresStore(db, m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc.consumer = ingest.New(svc.builder, m)
	kafkaConsumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.CorpusDocuments,
		svc.consumer.Handler(),
	)

	go svc.retrainLoop(ctx)

	slog.Info("vocabd ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.CorpusDocuments,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := kafkaConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	// Final retrain so nothing ingested since the last tick is lost.
	if svc.consumer.ConsumeDirty() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := svc.retrain(shutdownCtx); err != nil {
			slog.Error("final retrain failed", "error", err)
		}
	}

	slog.Info("vocabd stopped")
}

type service struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	builder  *corpus.Builder
	trainer  *induction.Trainer
	consumer *ingest.Consumer
	producer *kafka.Producer
	redis    *sink.RedisPublisher
	postgres *sink.PostgresStore
}

// retrainLoop retrains on every interval tick that saw new documents.
func (s *service) retrainLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Kafka.RetrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.consumer.ConsumeDirty() {
				continue
			}
			if err := s.retrain(ctx); err != nil {
				if errors.IsFatal(err) {
					slog.Error("retrain failed fatally, exiting", "error", err)
					os.Exit(1)
				}
				slog.Error("retrain failed", "error", err)
			}
		}
	}
}

// retrain trains on a snapshot of the accumulated corpus and publishes the
// result. The snapshot keeps the live store out of the induction loop, so
// ingestion continues undisturbed while training runs.
func (s *service) retrain(ctx context.Context) error {
	store := s.builder.Snapshot()
	if store.Size() == 0 {
		return nil
	}
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	ctx = logger.WithRunID(ctx, runID)
	startedAt := time.Now()

	store.SeedSubwords(s.cfg.Trainer.MaxSymbolsPerForm)
	result, err := s.trainer.Train(ctx, store)
	if err != nil {
		if s.metrics != nil {
			s.metrics.TrainRunsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.TrainRunsTotal.WithLabelValues("completed").Inc()
	}

	if s.redis != nil {
		if err := s.redis.Publish(ctx, runID, store, result.Merges); err != nil {
			return err
		}
	}
	if s.postgres != nil {
		if err := s.postgres.SaveRun(ctx, runID, startedAt, s.cfg.Trainer.MaxMerges, store, result.Merges); err != nil {
			return err
		}
	}

	return s.producer.Publish(ctx, kafka.Event{
		Key: runID,
		Value: ingest.VocabUpdated{
			RunID:     runID,
			VocabSize: result.VocabSize,
			Merges:    len(result.Merges),
			Timestamp: time.Now().UTC(),
		},
	})
}
