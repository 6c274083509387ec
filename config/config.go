// Package config handles browser-mcp configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level browser-mcp configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Store   StoreConfig   `yaml:"store"`
	Sites   SitesConfig   `yaml:"sites"`
	Reports ReportsConfig `yaml:"reports"`
	Learn   LearnConfig   `yaml:"learn"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	// Remote is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome.
	Remote           string        `yaml:"remote"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	MemoryLimit      int64         `yaml:"memory_limit"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	UserAgent        string        `yaml:"user_agent"`
	ViewportWidth    int           `yaml:"viewport_width"`
	ViewportHeight   int           `yaml:"viewport_height"`
}

// StoreConfig locates the link store database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SitesConfig controls the scraping pipeline.
type SitesConfig struct {
	UserAgent string        `yaml:"user_agent"`
	DelayMin  time.Duration `yaml:"delay_min"`
	DelayMax  time.Duration `yaml:"delay_max"`
	MaxBytes  int64         `yaml:"max_bytes"`
}

// ReportsConfig controls static report generation.
type ReportsConfig struct {
	Dir string `yaml:"dir"`
}

// LearnConfig tunes the pattern-learning subsystem.
type LearnConfig struct {
	// CombineFields bundles all fields learned in one session into a
	// single multi-rule pattern instead of one pattern per field.
	CombineFields bool `yaml:"combine_fields"`
}

// LoadFile reads a YAML configuration file and applies defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.ViewportWidth <= 0 {
		c.Browser.ViewportWidth = 1280
	}
	if c.Browser.ViewportHeight <= 0 {
		c.Browser.ViewportHeight = 800
	}
	if c.Store.Path == "" {
		c.Store.Path = "browser-mcp.db"
	}
	if c.Sites.UserAgent == "" {
		c.Sites.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	}
	if c.Sites.DelayMin <= 0 {
		c.Sites.DelayMin = 500 * time.Millisecond
	}
	if c.Sites.DelayMax <= c.Sites.DelayMin {
		c.Sites.DelayMax = c.Sites.DelayMin + 1500*time.Millisecond
	}
	if c.Sites.MaxBytes <= 0 {
		c.Sites.MaxBytes = 10 * 1024 * 1024
	}
	if c.Reports.Dir == "" {
		c.Reports.Dir = "reports"
	}
}
