// Package config provides unified configuration for the layoutbench binaries.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the unified configuration.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	HTTP      HTTPConfig      `json:"http" yaml:"http"`
	GRPC      GRPCConfig      `json:"grpc" yaml:"grpc"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Document  DocumentConfig  `json:"document" yaml:"document"`
	Generate  GenerateConfig  `json:"generate" yaml:"generate"`
	Benchmark BenchmarkConfig `json:"benchmark" yaml:"benchmark"`
	Bootstrap BootstrapConfig `json:"bootstrap" yaml:"bootstrap"`
	Archive   ArchiveConfig   `json:"archive" yaml:"archive"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr"`

	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// GRPCConfig holds gRPC server configuration.
type GRPCConfig struct {
	Addr    string `json:"addr" yaml:"addr"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	// Driver is sqlite3 or postgres
	Driver string `json:"driver" yaml:"driver"`

	// Path is the SQLite file (sqlite3 only, defaults under DataDir)
	Path string `json:"path" yaml:"path"`

	// DSN is the connection URL (postgres only)
	DSN string `json:"dsn" yaml:"dsn"`

	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// DocumentConfig controls how documents are stored.
type DocumentConfig struct {
	// Compression is none, snappy or zstd
	Compression string `json:"compression" yaml:"compression"`
}

// GenerateConfig controls bulk generation.
type GenerateConfig struct {
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// BenchmarkConfig controls sweeps.
type BenchmarkConfig struct {
	Scales           []int `json:"scales" yaml:"scales"`
	AnalyticsWorkers int   `json:"analytics_workers" yaml:"analytics_workers"`
}

// BootstrapConfig controls the optional seed-and-sweep run after startup.
type BootstrapConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Delay   time.Duration `json:"delay" yaml:"delay"`
	Records int           `json:"records" yaml:"records"`
}

// ArchiveConfig selects where sweep reports are kept.
type ArchiveConfig struct {
	// Type is none, local or s3
	Type   string   `json:"type" yaml:"type"`
	Path   string   `json:"path" yaml:"path"`
	Prefix string   `json:"prefix" yaml:"prefix"`
	S3     S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	Bucket       string `json:"bucket" yaml:"bucket"`
	Region       string `json:"region" yaml:"region"`
	Endpoint     string `json:"endpoint" yaml:"endpoint"`
	UsePathStyle bool   `json:"use_path_style" yaml:"use_path_style"`
}

// LogConfig controls the logger.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/layoutbench",
		HTTP: HTTPConfig{
			Addr:         ":3000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
		GRPC: GRPCConfig{
			Addr:    ":9090",
			Enabled: false,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Document: DocumentConfig{
			Compression: "none",
		},
		Generate: GenerateConfig{
			BatchSize: 500,
		},
		Benchmark: BenchmarkConfig{
			Scales:           []int{1000, 10000, 50000, 100000},
			AnalyticsWorkers: 1,
		},
		Bootstrap: BootstrapConfig{
			Enabled: false,
			Delay:   2 * time.Second,
			Records: 100000,
		},
		Archive: ArchiveConfig{
			Type:   "none",
			Prefix: "sweeps",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Resolve fills paths derived from DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/layoutbench"
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.DataDir, "layoutbench.db")
	}
	if c.Archive.Path == "" {
		c.Archive.Path = filepath.Join(c.DataDir, "reports")
	}
}

// DatabaseLocation returns the DSN for the configured driver.
func (c *Config) DatabaseLocation() string {
	if c.Database.Driver == "postgres" {
		return c.Database.DSN
	}
	return c.Database.Path
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	switch c.Database.Driver {
	case "sqlite3":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required when driver is postgres")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite3 or postgres)", c.Database.Driver)
	}

	switch c.Document.Compression {
	case "none", "snappy", "zstd":
	default:
		return fmt.Errorf("invalid document compression: %s (must be none, snappy, or zstd)", c.Document.Compression)
	}

	if c.Generate.BatchSize < 1 {
		return fmt.Errorf("generate.batch_size must be positive, got %d", c.Generate.BatchSize)
	}

	if len(c.Benchmark.Scales) == 0 {
		return fmt.Errorf("benchmark.scales must not be empty")
	}
	for _, s := range c.Benchmark.Scales {
		if s <= 0 {
			return fmt.Errorf("benchmark.scales must be positive, got %d", s)
		}
	}
	if c.Benchmark.AnalyticsWorkers < 1 {
		return fmt.Errorf("benchmark.analytics_workers must be at least 1, got %d", c.Benchmark.AnalyticsWorkers)
	}

	if c.Bootstrap.Enabled && c.Bootstrap.Records <= 0 {
		return fmt.Errorf("bootstrap.records must be positive, got %d", c.Bootstrap.Records)
	}

	switch c.Archive.Type {
	case "none", "local":
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return fmt.Errorf("archive.s3.bucket is required when archive type is s3")
		}
	default:
		return fmt.Errorf("invalid archive type: %s (must be none, local, or s3)", c.Archive.Type)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// EnvPrefix is the prefix of every environment variable read by LoadFromEnv.
const EnvPrefix = "LAYOUTBENCH_"

// LoadFromEnv overrides cfg with environment variables. Unparseable values
// are ignored.
func LoadFromEnv(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	boolean := func(name string, dst *bool) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v == "true" || v == "1"
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	str("DATA_DIR", &cfg.DataDir)

	str("HTTP_ADDR", &cfg.HTTP.Addr)
	str("GRPC_ADDR", &cfg.GRPC.Addr)
	boolean("GRPC_ENABLED", &cfg.GRPC.Enabled)

	str("DB_DRIVER", &cfg.Database.Driver)
	str("DB_PATH", &cfg.Database.Path)
	str("DB_DSN", &cfg.Database.DSN)
	integer("DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	integer("DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)

	str("DOCUMENT_COMPRESSION", &cfg.Document.Compression)
	integer("GENERATE_BATCH_SIZE", &cfg.Generate.BatchSize)
	integer("ANALYTICS_WORKERS", &cfg.Benchmark.AnalyticsWorkers)
	if v := os.Getenv(EnvPrefix + "SCALES"); v != "" {
		if scales, err := ParseScales(v); err == nil {
			cfg.Benchmark.Scales = scales
		}
	}

	boolean("BOOTSTRAP_ENABLED", &cfg.Bootstrap.Enabled)
	duration("BOOTSTRAP_DELAY", &cfg.Bootstrap.Delay)
	integer("BOOTSTRAP_RECORDS", &cfg.Bootstrap.Records)

	str("ARCHIVE_TYPE", &cfg.Archive.Type)
	str("ARCHIVE_PATH", &cfg.Archive.Path)
	str("ARCHIVE_PREFIX", &cfg.Archive.Prefix)
	str("S3_BUCKET", &cfg.Archive.S3.Bucket)
	str("S3_REGION", &cfg.Archive.S3.Region)
	str("S3_ENDPOINT", &cfg.Archive.S3.Endpoint)
	boolean("S3_USE_PATH_STYLE", &cfg.Archive.S3.UsePathStyle)

	str("LOG_LEVEL", &cfg.Log.Level)
	boolean("LOG_DEVELOPMENT", &cfg.Log.Development)
}

// ParseScales parses a comma separated list of positive integers.
func ParseScales(s string) ([]int, error) {
	var scales []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid scale %q: %w", part, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("scale must be positive, got %d", n)
		}
		scales = append(scales, n)
	}
	if len(scales) == 0 {
		return nil, fmt.Errorf("no scales given")
	}
	return scales, nil
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.Database.Driver == "sqlite3" {
		dirs = append(dirs, filepath.Dir(c.Database.Path))
	}
	if c.Archive.Type == "local" {
		dirs = append(dirs, c.Archive.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
