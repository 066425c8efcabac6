// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Trainer, Segmenter, Kafka, Redis, Postgres, Sinks, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Trainer   TrainerConfig   `yaml:"trainer"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Sink      SinkConfig      `yaml:"sink"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// TrainerConfig controls the subword induction loop: the merge iteration
// budget, pair-table sharding, counting-pass parallelism, and the capacity
// limits at which entries are capped rather than failing the run.
type TrainerConfig struct {
	MaxMerges         int `yaml:"maxMerges"`
	PartitionCount    int `yaml:"partitionCount"`
	WorkerCount       int `yaml:"workerCount"`
	MaxVocabSize      int `yaml:"maxVocabSize"`
	MaxSymbolsPerForm int `yaml:"maxSymbolsPerForm"`
}

// SegmenterConfig controls how raw text is split into word tokens before
// vocabulary population.
type SegmenterConfig struct {
	// Mode is "delimiter" (split on whitespace/punctuation) or "pattern"
	// (GPT-4 style regex splitting).
	Mode        string `yaml:"mode"`
	MaxTokenLen int    `yaml:"maxTokenLen"`
}

// SinkConfig controls where the induced vocabulary is published.
type SinkConfig struct {
	RedisEnabled    bool          `yaml:"redisEnabled"`
	RedisKeyPrefix  string        `yaml:"redisKeyPrefix"`
	RedisTTL        time.Duration `yaml:"redisTTL"`
	PostgresEnabled bool          `yaml:"postgresEnabled"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers         []string      `yaml:"brokers"`
	ConsumerGroup   string        `yaml:"consumerGroup"`
	Topics          KafkaTopics   `yaml:"topics"`
	RetrainInterval time.Duration `yaml:"retrainInterval"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	CorpusDocuments string `yaml:"corpusDocuments"`
	VocabUpdated    string `yaml:"vocabUpdated"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Trainer.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects trainer settings the induction loop cannot run with.
func (t TrainerConfig) validate() error {
	if t.MaxMerges < 0 {
		return fmt.Errorf("trainer.maxMerges must be >= 0, got %d", t.MaxMerges)
	}
	if t.PartitionCount < 1 {
		return fmt.Errorf("trainer.partitionCount must be >= 1, got %d", t.PartitionCount)
	}
	if t.WorkerCount < 1 {
		return fmt.Errorf("trainer.workerCount must be >= 1, got %d", t.WorkerCount)
	}
	return nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Trainer: TrainerConfig{
			MaxMerges:         50,
			PartitionCount:    10000,
			WorkerCount:       1,
			MaxVocabSize:      50000,
			MaxSymbolsPerForm: 256,
		},
		Segmenter: SegmenterConfig{
			Mode:        "delimiter",
			MaxTokenLen: 128,
		},
		Sink: SinkConfig{
			RedisEnabled:    false,
			RedisKeyPrefix:  "vocab",
			RedisTTL:        24 * time.Hour,
			PostgresEnabled: false,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "subword-trainer-group",
			Topics: KafkaTopics{
				CorpusDocuments: "corpus-documents",
				VocabUpdated:    "vocab-updated",
			},
			RetrainInterval: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "subwordvocab",
			User:            "subwordvocab",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SW_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SW_TRAINER_MAX_MERGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Trainer.MaxMerges = n
		}
	}
	if v := os.Getenv("SW_TRAINER_PARTITION_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Trainer.PartitionCount = n
		}
	}
	if v := os.Getenv("SW_TRAINER_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Trainer.WorkerCount = n
		}
	}
	if v := os.Getenv("SW_SEGMENTER_MODE"); v != "" {
		cfg.Segmenter.Mode = v
	}
	if v := os.Getenv("SW_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SW_KAFKA_CONSUMER_GROUP"); v != "" {
		cfg.Kafka.ConsumerGroup = v
	}
	if v := os.Getenv("SW_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SW_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SW_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SW_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SW_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SW_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SW_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SW_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("SW_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SW_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
