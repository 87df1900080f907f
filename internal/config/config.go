// Package config provides configuration management for the catdata tools.
// Settings load from a YAML file with sensible defaults for every option.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the catdata tools.
type Config struct {
	Naming NamingConfig `yaml:"naming"`
	Limits LimitsConfig `yaml:"limits"`
	Paths  PathsConfig  `yaml:"paths"`
}

// NamingConfig controls the category name table.
type NamingConfig struct {
	CaseSensitive bool `yaml:"case_sensitive"` // Distinguish names by case (default: true)
}

// LimitsConfig controls category data limiting.
type LimitsConfig struct {
	Enabled bool    `yaml:"enabled"` // Enable data limiting (default: false)
	Points  int     `yaml:"points"`  // Max points per category, 0 for unlimited
	Seconds float64 `yaml:"seconds"` // Max history span in seconds, 0 for unlimited
}

// PathsConfig contains file locations.
type PathsConfig struct {
	Database string `yaml:"database"` // SQLite database path (default: ./catdata.db)
	Filters  string `yaml:"filters"`  // Filter preference file watched for changes
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Naming: NamingConfig{CaseSensitive: true},
		Paths:  PathsConfig{Database: "./catdata.db"},
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings for internal consistency.
func (c *Config) Validate() error {
	if c.Limits.Points < 0 {
		return fmt.Errorf("config: limits.points must not be negative (got %d)", c.Limits.Points)
	}
	if c.Limits.Seconds < 0 {
		return fmt.Errorf("config: limits.seconds must not be negative (got %g)", c.Limits.Seconds)
	}
	if c.Paths.Database == "" {
		return fmt.Errorf("config: paths.database is required")
	}
	return nil
}
