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
	"github.com/tokenforge/subword-induction-platform/internal/segmenter"
	"github.com/tokenforge/subword-induction-platform/internal/sink"
	"github.com/tokenforge/subword-induction-platform/pkg/config"
	"github.com/tokenforge/subword-induction-platform/pkg/logger"
	"github.com/tokenforge/subword-induction-platform/pkg/metrics"
	"github.com/tokenforge/subword-induction-platform/pkg/postgres"
	pkgredis "github.com/tokenforge/subword-induction-platform/pkg/redis"
)

// sampleCorpus is used when no input file is given, so the trainer can be
// exercised end to end without any corpus on hand.
const sampleCorpus = "Although post-structuralist critiques have problematized the notion of objective epistemology, " +
	"especially within the context of late modernity's fragmented narratives, the intertextual entanglement of " +
	"discourse, power, and subjectivity remains a locus of theoretical contestation. Consequently, any hermeneutic " +
	"attempt at deconstructing the meta-narratives embedded within institutionalized knowledge systems necessitates " +
	"a nuanced understanding of semiotic multiplicity and ontological ambiguity."

func main() {
	configPath := flag.String("config", "", "path to config file")
	inputPath := flag.String("input", "", "corpus text file (built-in sample if empty)")
	outputPath := flag.String("output", "", "final vocabulary TSV file (stdout if empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, m, *inputPath, *outputPath); err != nil {
		slog.Error("training run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, m *metrics.Metrics, inputPath, outputPath string) error {
	text := sampleCorpus
	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("reading corpus file %s: %w", inputPath, err)
		}
		text = string(data)
	}

	seg, err := segmenter.New(cfg.Segmenter)
	if err != nil {
		return err
	}
	builder := corpus.NewBuilder(seg, cfg.Trainer.MaxVocabSize, m)
	words := builder.AddText(text)
	store := builder.Store()
	slog.Info("corpus segmented",
		"chars", len(text),
		"words", words,
		"vocab_size", store.Size(),
	)

	store.SeedSubwords(cfg.Trainer.MaxSymbolsPerForm)

	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	ctx = logger.WithRunID(ctx, runID)
	startedAt := time.Now()

	trainer := induction.New(cfg.Trainer, m)
	result, err := trainer.Train(ctx, store)
	if err != nil {
		if m != nil {
			m.TrainRunsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	if m != nil {
		m.TrainRunsTotal.WithLabelValues("completed").Inc()
	}

	if outputPath != "" {
		if err := sink.WriteTSVFile(outputPath, store); err != nil {
			return err
		}
		slog.Info("vocabulary saved", "path", outputPath)
	} else {
		if err := sink.WriteTSV(os.Stdout, store); err != nil {
			return err
		}
	}

	if cfg.Sink.RedisEnabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer client.Close()
		pub := sink.NewRedisPublisher(client, cfg.Sink, m)
		if err := pub.Publish(ctx, runID, store, result.Merges); err != nil {
			return err
		}
	}
	if cfg.Sink.PostgresEnabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		pg := sink.NewPostgresStore(db, m)
		if err := pg.SaveRun(ctx, runID, startedAt, cfg.Trainer.MaxMerges, store, result.Merges); err != nil {
			return err
		}
	}

	slog.Info("trainer finished",
		"run_id", runID,
		"merges", len(result.Merges),
		"vocab_size", result.VocabSize,
		"elapsed", result.Elapsed,
	)
	return nil
}
