package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tokenforge/subword-induction-platform/internal/induction"
	"github.com/tokenforge/subword-induction-platform/internal/vocab"
	"github.com/tokenforge/subword-induction-platform/pkg/config"
	"github.com/tokenforge/subword-induction-platform/pkg/metrics"
	pkgredis "github.com/tokenforge/subword-induction-platform/pkg/redis"
)

// RedisPublisher writes a finished vocabulary into Redis so downstream
// tokenization services can load it without touching the trainer. The
// vocabulary lands in a hash (form → freq) and the merge log in a list,
// both under a run-scoped key prefix, plus a "latest" pointer.
type RedisPublisher struct {
	client  *pkgredis.Client
	cfg     config.SinkConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRedisPublisher creates a publisher using the given client.
func NewRedisPublisher(client *pkgredis.Client, cfg config.SinkConfig, m *metrics.Metrics) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "redis-sink"),
	}
}

// Publish writes the vocabulary and merge log for runID.
func (p *RedisPublisher) Publish(ctx context.Context, runID string, store *vocab.Store, merges []induction.Merge) error {
	entries := store.Entries()
	fields := make(map[string]interface{}, len(entries))
	for _, e := range entries {
		form := e.Form
		if form == "" {
			form = nullForm
		}
		fields[form] = e.Freq
	}

	vocabKey := fmt.Sprintf("%s:%s:entries", p.cfg.RedisKeyPrefix, runID)
	mergeKey := fmt.Sprintf("%s:%s:merges", p.cfg.RedisKeyPrefix, runID)
	latestKey := fmt.Sprintf("%s:latest", p.cfg.RedisKeyPrefix)

	if len(fields) > 0 {
		if err := p.client.HSet(ctx, vocabKey, fields); err != nil {
			p.fail("hset")
			return fmt.Errorf("publishing vocabulary hash: %w", err)
		}
	}
	if len(merges) > 0 {
		values := make([]interface{}, 0, len(merges))
		for _, m := range merges {
			data, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("marshaling merge record: %w", err)
			}
			values = append(values, data)
		}
		if err := p.client.RPush(ctx, mergeKey, values...); err != nil {
			p.fail("rpush")
			return fmt.Errorf("publishing merge log: %w", err)
		}
	}
	for _, key := range []string{vocabKey, mergeKey} {
		if err := p.client.Expire(ctx, key, p.cfg.RedisTTL); err != nil {
			p.logger.Warn("setting ttl failed", "key", key, "error", err)
		}
	}
	if err := p.client.Set(ctx, latestKey, runID, p.cfg.RedisTTL); err != nil {
		p.fail("set")
		return fmt.Errorf("updating latest pointer: %w", err)
	}

	if p.metrics != nil {
		p.metrics.SinkWritesTotal.WithLabelValues("redis", "ok").Inc()
	}
	p.logger.Info("vocabulary published to redis",
		"run_id", runID,
		"entries", len(entries),
		"merges", len(merges),
	)
	return nil
}

func (p *RedisPublisher) fail(op string) {
	if p.metrics != nil {
		p.metrics.SinkWritesTotal.WithLabelValues("redis", "error").Inc()
	}
	p.logger.Debug("redis sink operation failed", "op", op)
}
