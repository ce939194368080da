// Package config loads nm-remover settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Theme name, one of the themes known to the terminal UI
	Theme string `yaml:"theme"`

	// Walker goroutines, 0 means one per CPU
	Workers int `yaml:"workers"`

	// Directory name globs the scanner never descends into
	Skip []string `yaml:"skip"`

	// Persist measured sizes between runs
	Cache     bool   `yaml:"cache"`
	CachePath string `yaml:"cache_path"`

	ReplaceHomeWithTilde bool          `yaml:"replace_home_with_tilde"`
	ProgressUpdateFreq   time.Duration `yaml:"progress_update_freq"`
}

func Default() *Config {
	return &Config{
		Theme:                "nord",
		Workers:              0,
		Skip:                 []string{},
		Cache:                false,
		ReplaceHomeWithTilde: true,
		ProgressUpdateFreq:   50 * time.Millisecond,
	}
}

// DefaultPath is ~/.config/nm-remover/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "nm-remover", "config.yaml"), nil
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Workers < 0 {
		return errors.New("workers must be >= 0")
	}
	if c.ProgressUpdateFreq <= 0 {
		return errors.New("progress_update_freq must be positive")
	}
	for _, pattern := range c.Skip {
		if pattern == "" {
			return errors.New("skip patterns must not be empty")
		}
	}
	return nil
}
