// Package config loads and validates build configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// stage (Sort, AllPairs, Knn, Filter, Weighting) and backing service
// (Postgres, Redis, Kafka, Enumerator).
package config

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level build configuration.
type Config struct {
	Sort       SortConfig       `yaml:"sort"`
	AllPairs   AllPairsConfig   `yaml:"allPairs"`
	Knn        KnnConfig        `yaml:"knn"`
	Filter     FilterConfig     `yaml:"filter"`
	Weighting  WeightingConfig  `yaml:"weighting"`
	Enumerator EnumeratorConfig `yaml:"enumerator"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// SortConfig controls the external sort engine's chunking, parallelism and
// temporary run files.
type SortConfig struct {
	ChunkSize     int    `yaml:"chunkSize"`
	ChunkBytes    int64  `yaml:"chunkBytes"`
	Threads       int    `yaml:"threads"`
	MaxInFlight   int    `yaml:"maxInFlight"`
	TempDir       string `yaml:"tempDir"`
	KeepTempFiles bool   `yaml:"keepTempFiles"`
	Compress      bool   `yaml:"compress"`
	Reverse       bool   `yaml:"reverse"`
}

// MeasureConfig names a proximity measure and carries its parameters.
type MeasureConfig struct {
	Name     string  `yaml:"name"`
	P        float64 `yaml:"p"`
	Alpha    float64 `yaml:"alpha"`
	Beta     float64 `yaml:"beta"`
	Gamma    float64 `yaml:"gamma"`
	Lambda   float64 `yaml:"lambda"`
	// MinCardinality is the smallest feature space Kendall's tau assumes.
	MinCardinality int  `yaml:"minCardinality"`
	Reversed       bool `yaml:"reversed"`
}

// AllPairsConfig controls the all-pairs similarity search.
type AllPairsConfig struct {
	Algorithm     string        `yaml:"algorithm"`
	Inner         string        `yaml:"inner"`
	Threads       int           `yaml:"threads"`
	ChunkSize     int           `yaml:"chunkSize"`
	Measure       MeasureConfig `yaml:"measure"`
	MinSimilarity float64       `yaml:"minSimilarity"`
	MaxSimilarity float64       `yaml:"maxSimilarity"`
	IdentityPairs bool          `yaml:"identityPairs"`
	Approximate   bool          `yaml:"approximate"`
}

// KnnConfig controls the k-nearest-neighbour reduction.
type KnnConfig struct {
	K int `yaml:"k"`
}

// FilterConfig controls frequency filtering before the similarity search.
// Features rarer than MinFeatureFreq are folded into FilteredFeature.
type FilterConfig struct {
	MinEntryFreq    float64 `yaml:"minEntryFreq"`
	MinFeatureFreq  float64 `yaml:"minFeatureFreq"`
	FilteredFeature string  `yaml:"filteredFeature"`
}

// WeightingConfig selects how raw event counts are turned into feature
// weights before the similarity search. With Auto set, the weighting the
// measure expects is applied after Scheme.
type WeightingConfig struct {
	Scheme string  `yaml:"scheme"`
	Factor float64 `yaml:"factor"`
	Auto   bool    `yaml:"auto"`
}

// EnumeratorConfig selects the string/id enumerator backend.
type EnumeratorConfig struct {
	Type       string `yaml:"type"`
	Path       string `yaml:"path"`
	Namespace  string `yaml:"namespace"`
	Enumerated bool   `yaml:"enumerated"`
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

// KafkaConfig holds Kafka broker and topic settings for stage events.
type KafkaConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Brokers     []string `yaml:"brokers"`
	StageEvents string   `yaml:"stageEvents"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
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
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config suitable for a single-machine build.
func Default() *Config {
	threads := runtime.NumCPU() + 1
	return &Config{
		Sort: SortConfig{
			ChunkSize:   500000,
			Threads:     threads,
			MaxInFlight: threads * 2,
			TempDir:     os.TempDir(),
		},
		AllPairs: AllPairsConfig{
			Algorithm: "threaded",
			Inner:     "inverted",
			Threads:   threads,
			ChunkSize: 1000,
			Measure: MeasureConfig{
				Name:  "lin",
				P:     1,
				Alpha: 0.99,
				Beta:           0.5,
				Gamma:          0.5,
				Lambda:         0.5,
				MinCardinality: 1,
			},
			MinSimilarity: math.Inf(-1),
			MaxSimilarity: math.Inf(1),
		},
		Knn: KnnConfig{
			K: 100,
		},
		Filter: FilterConfig{
			FilteredFeature: "___FILTERED___",
		},
		Weighting: WeightingConfig{
			Scheme: "none",
			Factor: 1,
		},
		Enumerator: EnumeratorConfig{
			Type:      "memory",
			Namespace: "byblo",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "byblo",
			User:            "byblo",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:     []string{"localhost:9092"},
			StageEvents: "byblo.stage.complete",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Validate reports the first configuration value that no stage can run with.
func (c *Config) Validate() error {
	switch {
	case c.Sort.ChunkSize < 1:
		return apperrors.InvalidInputf("sort.chunkSize must be at least 1, got %d", c.Sort.ChunkSize)
	case c.Sort.Threads < 1:
		return apperrors.InvalidInputf("sort.threads must be at least 1, got %d", c.Sort.Threads)
	case c.Sort.MaxInFlight < 1:
		return apperrors.InvalidInputf("sort.maxInFlight must be at least 1, got %d", c.Sort.MaxInFlight)
	case c.AllPairs.Threads < 1:
		return apperrors.InvalidInputf("allPairs.threads must be at least 1, got %d", c.AllPairs.Threads)
	case c.AllPairs.ChunkSize < 1:
		return apperrors.InvalidInputf("allPairs.chunkSize must be at least 1, got %d", c.AllPairs.ChunkSize)
	case c.AllPairs.MinSimilarity > c.AllPairs.MaxSimilarity:
		return apperrors.InvalidInputf("allPairs.minSimilarity %g exceeds maxSimilarity %g",
			c.AllPairs.MinSimilarity, c.AllPairs.MaxSimilarity)
	case c.AllPairs.Measure.MinCardinality < 1:
		return apperrors.InvalidInputf("allPairs.measure.minCardinality must be at least 1, got %d",
			c.AllPairs.Measure.MinCardinality)
	case c.Knn.K < 1:
		return apperrors.InvalidInputf("knn.k must be at least 1, got %d", c.Knn.K)
	}
	switch c.AllPairs.Algorithm {
	case "naive", "inverted", "threaded":
	default:
		return apperrors.InvalidInputf("unknown allPairs.algorithm %q", c.AllPairs.Algorithm)
	}
	switch c.AllPairs.Inner {
	case "naive", "inverted":
	default:
		return apperrors.InvalidInputf("unknown allPairs.inner %q", c.AllPairs.Inner)
	}
	switch c.Enumerator.Type {
	case "memory", "bolt", "postgres", "redis":
	default:
		return apperrors.InvalidInputf("unknown enumerator.type %q", c.Enumerator.Type)
	}
	return nil
}

// applyEnvOverrides reads BYBLO_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BYBLO_SORT_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sort.ChunkSize = n
		}
	}
	if v := os.Getenv("BYBLO_SORT_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sort.Threads = n
		}
	}
	if v := os.Getenv("BYBLO_TEMP_DIR"); v != "" {
		cfg.Sort.TempDir = v
	}
	if v := os.Getenv("BYBLO_KEEP_TEMP_FILES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Sort.KeepTempFiles = b
		}
	}
	if v := os.Getenv("BYBLO_ALLPAIRS_ALGORITHM"); v != "" {
		cfg.AllPairs.Algorithm = v
	}
	if v := os.Getenv("BYBLO_ALLPAIRS_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AllPairs.Threads = n
		}
	}
	if v := os.Getenv("BYBLO_MEASURE"); v != "" {
		cfg.AllPairs.Measure.Name = v
	}
	if v := os.Getenv("BYBLO_MEASURE_P"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AllPairs.Measure.P = f
		}
	}
	if v := os.Getenv("BYBLO_WEIGHTING"); v != "" {
		cfg.Weighting.Scheme = v
	}
	if v := os.Getenv("BYBLO_MIN_SIMILARITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AllPairs.MinSimilarity = f
		}
	}
	if v := os.Getenv("BYBLO_KNN_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Knn.K = n
		}
	}
	if v := os.Getenv("BYBLO_ENUMERATOR_TYPE"); v != "" {
		cfg.Enumerator.Type = v
	}
	if v := os.Getenv("BYBLO_ENUMERATOR_PATH"); v != "" {
		cfg.Enumerator.Path = v
	}
	if v := os.Getenv("BYBLO_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("BYBLO_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("BYBLO_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("BYBLO_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("BYBLO_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("BYBLO_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BYBLO_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("BYBLO_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BYBLO_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BYBLO_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BYBLO_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
