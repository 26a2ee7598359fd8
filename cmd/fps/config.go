package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/hupe1980/fps/pointio"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk CLI configuration. Command-line flags override it.
type Config struct {
	Store       StoreConfig    `yaml:"store"`
	Compression string         `yaml:"compression"`
	Log         LogConfig      `yaml:"log"`
	Resources   ResourceConfig `yaml:"resources"`
	Sampler     SamplerConfig  `yaml:"sampler"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}

// StoreConfig selects and addresses the blob store holding tensors.
type StoreConfig struct {
	// Kind is one of local, minio or s3.
	Kind string `yaml:"kind"`

	// Root is the directory for local stores and the key prefix for
	// remote ones.
	Root string `yaml:"root"`

	Bucket       string `yaml:"bucket"`
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Secure       bool   `yaml:"secure"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ResourceConfig mirrors resource.Config.
type ResourceConfig struct {
	MaxWorkers         int64 `yaml:"max_workers"`
	MemoryLimitBytes   int64 `yaml:"memory_limit_bytes"`
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`
}

// SamplerConfig mirrors the CPU backend options.
type SamplerConfig struct {
	Workers        int `yaml:"workers"`
	BlockSize      int `yaml:"block_size"`
	BlockThreshold int `yaml:"block_threshold"`
}

// MetricsConfig exports Prometheus metrics. Both outputs are optional.
type MetricsConfig struct {
	// Textfile is written in the text exposition format when the command
	// finishes, for node_exporter's textfile collector.
	Textfile string `yaml:"textfile"`

	// Addr serves /metrics while the command runs.
	Addr string `yaml:"addr"`
}

func (m MetricsConfig) enabled() bool { return m.Textfile != "" || m.Addr != "" }

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Kind: "local",
			Root: ".",
		},
		Compression: "zstd",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Resources: ResourceConfig{
			MaxWorkers: int64(runtime.GOMAXPROCS(0)),
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. An empty path returns
// the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the settings that can be checked without touching a store.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case "local":
		if c.Store.Root == "" {
			return errors.New("store: local store needs a root directory")
		}
	case "minio", "s3":
		if c.Store.Bucket == "" {
			return fmt.Errorf("store: %s store needs a bucket", c.Store.Kind)
		}
		if c.Store.Kind == "minio" && c.Store.Endpoint == "" {
			return errors.New("store: minio store needs an endpoint")
		}
	default:
		return fmt.Errorf("store: unknown kind %q", c.Store.Kind)
	}

	if _, err := pointio.ParseCompression(c.Compression); err != nil {
		return err
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q", c.Log.Format)
	}

	if c.Resources.MaxWorkers < 0 || c.Resources.MemoryLimitBytes < 0 || c.Resources.IOLimitBytesPerSec < 0 {
		return errors.New("resources: limits must not be negative")
	}
	if c.Sampler.Workers < 0 || c.Sampler.BlockSize < 0 {
		return errors.New("sampler: workers and block_size must not be negative")
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log: %w", err)
	}
	return lvl, nil
}
