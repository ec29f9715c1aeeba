package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"lsp-finder/src/internal/common"
	"lsp-finder/src/internal/types"
)

// Config contains finder configuration
type Config struct {
	// DefaultClient is the client ecosystem queried when a request
	// does not name one.
	DefaultClient types.ClientName `yaml:"default_client"`

	// RequestTimeoutSeconds bounds one request to one client.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds,omitempty"`

	// OverallTimeoutSeconds bounds a whole fan-out dispatch.
	OverallTimeoutSeconds int `yaml:"overall_timeout_seconds,omitempty"`

	// AutoExpandSingle expands a lone hierarchy root automatically.
	AutoExpandSingle bool `yaml:"auto_expand_single"`

	// IncludeDeclaration adds the declaration to reference listings.
	IncludeDeclaration bool `yaml:"include_declaration"`

	LogLevel string `yaml:"log_level,omitempty"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateDefaultConfig generates a default configuration file
func GenerateDefaultConfig(path string) error {
	return SaveConfig(GetDefaultConfig(), path)
}

func validateConfig(config *Config) error {
	if !types.IsClientName(string(config.DefaultClient)) {
		return fmt.Errorf("unknown default_client %q, want one of %v", config.DefaultClient, types.ClientNames)
	}
	if config.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative")
	}
	if config.OverallTimeoutSeconds < 0 {
		return fmt.Errorf("overall_timeout_seconds must not be negative")
	}
	if config.RequestTimeoutSeconds > 0 && config.OverallTimeoutSeconds > 0 &&
		config.OverallTimeoutSeconds < config.RequestTimeoutSeconds {
		return fmt.Errorf("overall_timeout_seconds must not be shorter than request_timeout_seconds")
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lsp-finder", "config.yaml")
}

// GetDefaultConfig returns the built-in defaults
func GetDefaultConfig() *Config {
	return &Config{
		DefaultClient:         types.ClientNvimLSP,
		RequestTimeoutSeconds: int(common.DefaultRequestTimeout / time.Second),
		OverallTimeoutSeconds: int(common.DefaultOverallTimeout / time.Second),
		AutoExpandSingle:      true,
		IncludeDeclaration:    true,
		LogLevel:              "info",
	}
}

// RequestTimeout returns the per-request timeout as a duration,
// falling back to the built-in default when unset.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return common.DefaultRequestTimeout
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// OverallTimeout returns the fan-out timeout as a duration.
func (c *Config) OverallTimeout() time.Duration {
	if c.OverallTimeoutSeconds <= 0 {
		return common.DefaultOverallTimeout
	}
	return time.Duration(c.OverallTimeoutSeconds) * time.Second
}
