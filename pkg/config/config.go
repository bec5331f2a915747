// Package config loads the application configuration with the precedence
// defaults, then the optional config file, then environment variables.
// The API credential is environment-only and never touches the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tiancaiamao/nanocode/pkg/logger"
)

const (
	// DefaultModel is used when neither the config file nor the
	// environment names a model.
	DefaultModel = "grok-4-1-fast"

	// DefaultBaseURL is the xAI API endpoint.
	DefaultBaseURL = "https://api.x.ai/v1"
)

// Config represents the application configuration.
type Config struct {
	Model   string     `json:"model"`
	BaseURL string     `json:"baseUrl"`
	Log     *LogConfig `json:"log,omitempty"`

	// APIKey comes from XAI_API_KEY only; it is never read from or
	// serialized to the config file.
	APIKey string `json:"-"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level  string `json:"level,omitempty"`  // Log level: debug, info, warn, error
	File   string `json:"file,omitempty"`   // Log file path (empty = no logging)
	Prefix string `json:"prefix,omitempty"` // Log prefix
}

// DefaultLogConfig returns the default logging configuration: info level
// and no log file, so nothing competes with the interactive console.
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:  "info",
		Prefix: "[nanocode] ",
	}
}

// LoggerConfig translates to the logger package's configuration.
func (c *LogConfig) LoggerConfig() *logger.Config {
	if c == nil {
		c = DefaultLogConfig()
	}
	return &logger.Config{
		Level:    logger.ParseLogLevel(c.Level),
		Prefix:   c.Prefix,
		FilePath: c.File,
	}
}

// LoadConfig loads configuration from file and merges with environment
// variables. Environment variables take precedence over config file values.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{
		Model:   DefaultModel,
		BaseURL: DefaultBaseURL,
		Log:     DefaultLogConfig(),
	}

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Merge with defaults (file values override defaults)
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if val := os.Getenv("MODEL"); val != "" {
		cfg.Model = val
	}
	if val := os.Getenv("XAI_BASE_URL"); val != "" {
		cfg.BaseURL = val
	}
	cfg.APIKey = os.Getenv("XAI_API_KEY")

	return cfg, nil
}

// Validate reports a configuration the process cannot start with.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("XAI_API_KEY is not set")
	}
	if c.Model == "" {
		return fmt.Errorf("model is empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is empty")
	}
	return nil
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".nanocode", "config.json"), nil
}

// HistoryPath returns the REPL input history file path.
func HistoryPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".nanocode", "history"), nil
}
