package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the flat client configuration for batchwatch. Everything here
// has a sensible default; a config file is optional and flags override it.
type Config struct {
	// AWS settings
	Region string `yaml:"region"` // empty = SDK chain, then EC2 metadata

	// Log retrieval
	LogGroup  string `yaml:"log_group"` // CloudWatch Logs group for Batch jobs
	TailLines int    `yaml:"tail_lines"`

	// Watch loop
	PollInterval time.Duration `yaml:"poll_interval"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// GetDefaults returns a config with sensible defaults
func GetDefaults() *Config {
	return &Config{
		LogGroup:     "/aws/batch/job",
		TailLines:    10,
		PollInterval: 5 * time.Second,
		LogLevel:     "INFO",
	}
}

// searchPaths lists the locations probed when no --config is given,
// in priority order.
func searchPaths() []string {
	paths := []string{"batchwatch-config.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".batchwatch", "config.yml"))
	}
	paths = append(paths, "/etc/batchwatch/config.yml")
	return paths
}

// Load reads the configuration file at path, or searches common locations
// when path is empty. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := GetDefaults()

	if path == "" {
		for _, candidate := range searchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.TailLines < 0 {
		return fmt.Errorf("tail_lines must not be negative")
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll_interval must be at least 1s")
	}
	if c.LogGroup == "" {
		return fmt.Errorf("log_group must not be empty")
	}
	return nil
}
