// Package config loads and saves the application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Database configuration
	Database DatabaseConfig `toml:"database"`

	// Card catalog (remote lookup) configuration
	Catalog CatalogConfig `toml:"catalog"`

	// Translation fallback configuration
	Translation TranslationConfig `toml:"translation"`

	// CSV watch directory configuration
	Watch WatchConfig `toml:"watch"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// DatabaseConfig contains collection store settings.
type DatabaseConfig struct {
	Path string `toml:"path"` // Path to the SQLite collection database
}

// CatalogConfig contains remote card-database settings.
type CatalogConfig struct {
	BaseURL string `toml:"base_url"` // Catalog API base URL
	Timeout string `toml:"timeout"`  // Per-request timeout (e.g., "10s")
}

// TranslationConfig contains the optional translation fallback settings.
type TranslationConfig struct {
	TargetLanguage string   `toml:"target_language"` // Secondary rules-text language tag
	Endpoints      []string `toml:"endpoints"`       // Endpoints in priority order
}

// WatchConfig contains CSV drop-directory settings.
type WatchConfig struct {
	Directory    string `toml:"directory"`     // Directory watched for CSV exports ("" = disabled)
	PollInterval string `toml:"poll_interval"` // Backup polling interval (e.g., "2s")
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode  bool   `toml:"debug_mode"`  // Enable debug logging
	ReportPath string `toml:"report_path"` // Default HTML report output path
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "",
		},
		Catalog: CatalogConfig{
			BaseURL: "https://api.scryfall.com",
			Timeout: "10s",
		},
		Translation: TranslationConfig{
			TargetLanguage: "fr",
			Endpoints:      nil,
		},
		Watch: WatchConfig{
			Directory:    "",
			PollInterval: "2s",
		},
		App: AppConfig{
			DebugMode:  false,
			ReportPath: "collection-report.html",
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".commander-companion")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from disk. Returns default config if the
// file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Catalog.Timeout); err != nil {
		return fmt.Errorf("invalid catalog timeout %q: %w", c.Catalog.Timeout, err)
	}

	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL cannot be empty")
	}
	if _, err := url.Parse(c.Catalog.BaseURL); err != nil {
		return fmt.Errorf("invalid catalog base URL %q: %w", c.Catalog.BaseURL, err)
	}

	for _, endpoint := range c.Translation.Endpoints {
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid translation endpoint %q", endpoint)
		}
	}

	if _, err := time.ParseDuration(c.Watch.PollInterval); err != nil {
		return fmt.Errorf("invalid watch poll interval %q: %w", c.Watch.PollInterval, err)
	}

	return nil
}

// GetCatalogTimeout returns the catalog timeout as a duration.
func (c *Config) GetCatalogTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Catalog.Timeout)
}

// GetWatchPollInterval returns the watch poll interval as a duration.
func (c *Config) GetWatchPollInterval() (time.Duration, error) {
	return time.ParseDuration(c.Watch.PollInterval)
}
