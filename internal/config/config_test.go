package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Database.Path != filepath.Join("./data/layoutbench", "layoutbench.db") {
		t.Errorf("unexpected database path %q", cfg.Database.Path)
	}
	if len(cfg.Benchmark.Scales) != 4 || cfg.Benchmark.Scales[3] != 100000 {
		t.Errorf("unexpected default scales %v", cfg.Benchmark.Scales)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"compression", func(c *Config) { c.Document.Compression = "gzip" }},
		{"batch size", func(c *Config) { c.Generate.BatchSize = 0 }},
		{"empty scales", func(c *Config) { c.Benchmark.Scales = nil }},
		{"negative scale", func(c *Config) { c.Benchmark.Scales = []int{10, -1} }},
		{"workers", func(c *Config) { c.Benchmark.AnalyticsWorkers = 0 }},
		{"bootstrap records", func(c *Config) { c.Bootstrap.Enabled = true; c.Bootstrap.Records = 0 }},
		{"archive type", func(c *Config) { c.Archive.Type = "gcs" }},
		{"s3 without bucket", func(c *Config) { c.Archive.Type = "s3" }},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Resolve()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_dir: /tmp/lb
http:
  addr: ":8088"
database:
  driver: postgres
  dsn: postgres://bench@localhost/bench?sslmode=disable
document:
  compression: zstd
benchmark:
  scales: [10, 20]
  analytics_workers: 4
bootstrap:
  enabled: true
  delay: 5s
  records: 1000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.HTTP.Addr != ":8088" || cfg.Database.Driver != "postgres" || cfg.Document.Compression != "zstd" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Benchmark.Scales) != 2 || cfg.Benchmark.AnalyticsWorkers != 4 {
		t.Errorf("unexpected benchmark config %+v", cfg.Benchmark)
	}
	if !cfg.Bootstrap.Enabled || cfg.Bootstrap.Delay != 5*time.Second {
		t.Errorf("unexpected bootstrap config %+v", cfg.Bootstrap)
	}
	// Untouched sections keep their defaults
	if cfg.Generate.BatchSize != 500 {
		t.Errorf("batch size default lost: %d", cfg.Generate.BatchSize)
	}
	if cfg.DatabaseLocation() != "postgres://bench@localhost/bench?sslmode=disable" {
		t.Errorf("unexpected location %q", cfg.DatabaseLocation())
	}
}

func TestLoadFromFile_JSONAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(jsonPath, []byte(`{"generate": {"batch_size": 50}}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	cfg, err := LoadFromFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Generate.BatchSize != 50 {
		t.Errorf("batch size = %d, want 50", cfg.Generate.BatchSize)
	}

	tomlPath := filepath.Join(dir, "config.toml")
	os.WriteFile(tomlPath, []byte(""), 0644)
	if _, err := LoadFromFile(tomlPath); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LAYOUTBENCH_HTTP_ADDR", ":9999")
	t.Setenv("LAYOUTBENCH_DOCUMENT_COMPRESSION", "snappy")
	t.Setenv("LAYOUTBENCH_SCALES", "100, 200,300")
	t.Setenv("LAYOUTBENCH_BOOTSTRAP_ENABLED", "1")
	t.Setenv("LAYOUTBENCH_BOOTSTRAP_DELAY", "250ms")
	t.Setenv("LAYOUTBENCH_ANALYTICS_WORKERS", "not-a-number")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.HTTP.Addr != ":9999" || cfg.Document.Compression != "snappy" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Benchmark.Scales) != 3 || cfg.Benchmark.Scales[2] != 300 {
		t.Errorf("unexpected scales %v", cfg.Benchmark.Scales)
	}
	if !cfg.Bootstrap.Enabled || cfg.Bootstrap.Delay != 250*time.Millisecond {
		t.Errorf("unexpected bootstrap %+v", cfg.Bootstrap)
	}
	if cfg.Benchmark.AnalyticsWorkers != 1 {
		t.Errorf("invalid integer should be ignored, got %d", cfg.Benchmark.AnalyticsWorkers)
	}
}

func TestParseScales(t *testing.T) {
	if _, err := ParseScales("10,x"); err == nil {
		t.Error("expected error for non-numeric scale")
	}
	if _, err := ParseScales("10,0"); err == nil {
		t.Error("expected error for zero scale")
	}
	if _, err := ParseScales(" , "); err == nil {
		t.Error("expected error for empty list")
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Archive.Type = "local"
	cfg.Resolve()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if _, err := os.Stat(cfg.Archive.Path); err != nil {
		t.Errorf("archive directory missing: %v", err)
	}
}
