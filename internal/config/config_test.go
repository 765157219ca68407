package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
source_dir: /data/export
output_dir: /data/parquet
timezone: Europe/Berlin
families: [steps, sleep]
compression:
  algorithm: snappy
rolling:
  short_days: 7
  long_days: 30
query:
  memory_limit: 512MB
  max_rows: 5000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SourceDir != "/data/export" {
		t.Errorf("source_dir = %s", cfg.SourceDir)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %s", cfg.Timezone)
	}
	if cfg.Compression.Algorithm != "snappy" {
		t.Errorf("compression = %s", cfg.Compression.Algorithm)
	}
	// Defaults survive partial files.
	if cfg.Compression.Level != 3 {
		t.Errorf("compression level = %d", cfg.Compression.Level)
	}
	if cfg.Query.MaxRows != 5000 {
		t.Errorf("max_rows = %d", cfg.Query.MaxRows)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("FITLOOM_TEST_SRC", "/env/export")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "source_dir: ${FITLOOM_TEST_SRC}\noutput_dir: out\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SourceDir != "/env/export" {
		t.Errorf("source_dir = %s", cfg.SourceDir)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty source", func(c *Config) { c.SourceDir = "" }},
		{"empty output", func(c *Config) { c.OutputDir = "" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"bad compression", func(c *Config) { c.Compression.Algorithm = "brotli" }},
		{"zero short window", func(c *Config) { c.Rolling.ShortDays = 0 }},
		{"long below short", func(c *Config) { c.Rolling.ShortDays = 30; c.Rolling.LongDays = 7 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc != time.Local {
		t.Errorf("empty timezone should resolve to local, got %v", loc)
	}

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc != time.UTC {
		t.Errorf("loc = %v", loc)
	}
}

func TestFamilyEnabled(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.FamilyEnabled("steps") {
		t.Error("empty filter should enable everything")
	}

	cfg.Families = []string{"steps", "sleep"}
	if !cfg.FamilyEnabled("sleep") {
		t.Error("listed family disabled")
	}
	if cfg.FamilyEnabled("activities") {
		t.Error("unlisted family enabled")
	}
}
