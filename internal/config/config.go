// Package config loads prerank run configuration from a YAML file with
// PRERANK_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/genepile/prerank"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PRERANK_"

// Store backends.
const (
	BackendDisk = "disk"
	BackendGCS  = "gcs"
	BackendS3   = "s3"
)

// Metrics backends.
const (
	MetricsNone       = "none"
	MetricsLog        = "log"
	MetricsPrometheus = "prometheus"
)

// Config is the top-level run configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AnalysisConfig holds the enrichment parameters.
type AnalysisConfig struct {
	Weight       float64 `yaml:"weight"`
	MinSize      int     `yaml:"minSize"`
	MaxSize      int     `yaml:"maxSize"`
	Permutations int     `yaml:"permutations"`
	Seed         uint64  `yaml:"seed"`
	Workers      int     `yaml:"workers"`
	Strict       bool    `yaml:"strict"`
}

// Params converts the analysis section to client parameters.
func (a AnalysisConfig) Params() prerank.Params {
	return prerank.Params{
		Weight:       a.Weight,
		MinSize:      a.MinSize,
		MaxSize:      a.MaxSize,
		Permutations: a.Permutations,
		Seed:         a.Seed,
	}
}

// StoreConfig selects where gene set libraries are read from.
type StoreConfig struct {
	Backend   string `yaml:"backend"`
	Dir       string `yaml:"dir"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Codec     string `yaml:"codec"`
	CacheSize int    `yaml:"cacheSize"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// MetricsConfig selects the stats collector. File, when set with the
// prometheus backend, receives the text exposition after a run.
type MetricsConfig struct {
	Backend string `yaml:"backend"`
	File    string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Weight:       prerank.DefaultWeight,
			MinSize:      prerank.DefaultMinSize,
			MaxSize:      prerank.DefaultMaxSize,
			Permutations: prerank.DefaultPermutations,
			Seed:         prerank.DefaultSeed,
		},
		Store: StoreConfig{
			Backend:   BackendDisk,
			Dir:       "./catalog",
			CacheSize: prerank.DefaultCacheSize,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Backend: MetricsNone,
		},
	}
}

// Load reads a YAML config file (if path is non-empty), applies environment
// overrides and validates the result. Unknown keys in the file are errors.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values no run could use.
func (c *Config) Validate() error {
	if err := c.Analysis.Params().Validate(); err != nil {
		return err
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("config: workers must be non-negative, got %d", c.Analysis.Workers)
	}

	switch c.Store.Backend {
	case BackendDisk:
		if c.Store.Dir == "" {
			return errors.New("config: disk store needs a dir")
		}
	case BackendGCS, BackendS3:
		if c.Store.Bucket == "" {
			return fmt.Errorf("config: %s store needs a bucket", c.Store.Backend)
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Store.CacheSize < 0 {
		return fmt.Errorf("config: cache size must be non-negative, got %d", c.Store.CacheSize)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch c.Metrics.Backend {
	case MetricsNone, MetricsLog, MetricsPrometheus:
	default:
		return fmt.Errorf("config: unknown metrics backend %q", c.Metrics.Backend)
	}
	return nil
}

// applyEnvOverrides reads PRERANK_* variables through lookup and overrides
// the corresponding fields. Every malformed value is reported.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvPrefix + "WEIGHT"); ok && v != "" {
		w, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(w) {
			errs = append(errs, fmt.Errorf("%sWEIGHT: invalid value %q", EnvPrefix, v))
		} else {
			cfg.Analysis.Weight = w
		}
	}
	integer("MIN_SIZE", &cfg.Analysis.MinSize)
	integer("MAX_SIZE", &cfg.Analysis.MaxSize)
	integer("PERMUTATIONS", &cfg.Analysis.Permutations)
	if v, ok := lookup(EnvPrefix + "SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEED: %w", EnvPrefix, err))
		} else {
			cfg.Analysis.Seed = seed
		}
	}
	integer("WORKERS", &cfg.Analysis.Workers)
	if v, ok := lookup(EnvPrefix + "STRICT"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSTRICT: %w", EnvPrefix, err))
		} else {
			cfg.Analysis.Strict = b
		}
	}

	str("STORE_BACKEND", &cfg.Store.Backend)
	str("STORE_DIR", &cfg.Store.Dir)
	str("STORE_BUCKET", &cfg.Store.Bucket)
	str("STORE_PREFIX", &cfg.Store.Prefix)
	str("STORE_REGION", &cfg.Store.Region)
	str("STORE_ENDPOINT", &cfg.Store.Endpoint)
	str("STORE_CODEC", &cfg.Store.Codec)
	integer("CACHE_SIZE", &cfg.Store.CacheSize)

	str("LOG_LEVEL", &cfg.Logging.Level)
	str("METRICS_BACKEND", &cfg.Metrics.Backend)
	str("METRICS_FILE", &cfg.Metrics.File)

	return errors.Join(errs...)
}
