package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete pipeline configuration.
type Config struct {
	// SourceDir is the root directory of the tracker export files.
	SourceDir string `yaml:"source_dir"`

	// OutputDir is the directory receiving the Parquet snapshots.
	OutputDir string `yaml:"output_dir"`

	// Timezone is the IANA zone name applied to timestamps that carry no
	// explicit offset. Empty means the process-local zone.
	Timezone string `yaml:"timezone"`

	// Families restricts the run to the named metric families.
	// Empty means all families.
	Families []string `yaml:"families"`

	// Compression configures Parquet compression.
	Compression CompressionConfig `yaml:"compression"`

	// Rolling configures the rolling-window lengths used by queries.
	Rolling RollingConfig `yaml:"rolling"`

	// Query configures the query service.
	Query QueryConfig `yaml:"query"`
}

// CompressionConfig configures Parquet compression.
type CompressionConfig struct {
	// Algorithm is the compression algorithm: snappy, zstd, lz4, gzip, none.
	Algorithm string `yaml:"algorithm"`

	// Level is the compression level (for zstd: 1-22).
	Level int `yaml:"level"`
}

// RollingConfig configures rolling-window lengths in days.
type RollingConfig struct {
	ShortDays int `yaml:"short_days"`
	LongDays  int `yaml:"long_days"`
}

// QueryConfig configures the query service.
type QueryConfig struct {
	// MemoryLimit is the DuckDB memory limit.
	MemoryLimit string `yaml:"memory_limit"`

	// MaxRows is the maximum number of rows returned per query.
	MaxRows int `yaml:"max_rows"`
}

// Load loads configuration from a YAML file. Environment variables in the
// file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SourceDir: "export",
		OutputDir: "data/parquet",
		Compression: CompressionConfig{
			Algorithm: "zstd",
			Level:     3,
		},
		Rolling: RollingConfig{
			ShortDays: 7,
			LongDays:  30,
		},
		Query: QueryConfig{
			MemoryLimit: "1GB",
			MaxRows:     1000000,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Rolling.ShortDays <= 0 {
		return fmt.Errorf("rolling.short_days must be positive, got %d", c.Rolling.ShortDays)
	}
	if c.Rolling.LongDays < c.Rolling.ShortDays {
		return fmt.Errorf("rolling.long_days must be >= rolling.short_days")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("timezone %q: %w", c.Timezone, err)
		}
	}
	switch c.Compression.Algorithm {
	case "", "none", "snappy", "zstd", "lz4", "gzip":
	default:
		return fmt.Errorf("unknown compression algorithm %q", c.Compression.Algorithm)
	}
	return nil
}

// Location resolves the configured default timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// FamilyEnabled reports whether the named family is included in this run.
func (c *Config) FamilyEnabled(name string) bool {
	if len(c.Families) == 0 {
		return true
	}
	for _, f := range c.Families {
		if f == name {
			return true
		}
	}
	return false
}
