package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lsp-finder/src/internal/types"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, types.ClientNvimLSP, cfg.DefaultClient)
	assert.True(t, cfg.AutoExpandSingle)
	assert.True(t, cfg.IncludeDeclaration)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.GreaterOrEqual(t, cfg.OverallTimeoutSeconds, cfg.RequestTimeoutSeconds)
	require.NoError(t, validateConfig(cfg))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_client: coc.nvim
request_timeout_seconds: 3
overall_timeout_seconds: 8
auto_expand_single: false
include_declaration: true
log_level: debug
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, types.ClientCoc, cfg.DefaultClient)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 8*time.Second, cfg.OverallTimeout())
	assert.False(t, cfg.AutoExpandSingle)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_client: [unterminated"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"vim-lsp client", func(c *Config) { c.DefaultClient = types.ClientVimLSP }, false},
		{"unknown client", func(c *Config) { c.DefaultClient = "helix" }, true},
		{"negative request timeout", func(c *Config) { c.RequestTimeoutSeconds = -1 }, true},
		{"negative overall timeout", func(c *Config) { c.OverallTimeoutSeconds = -1 }, true},
		{"overall shorter than request", func(c *Config) {
			c.RequestTimeoutSeconds = 10
			c.OverallTimeoutSeconds = 5
		}, true},
		{"unset timeouts fall back", func(c *Config) {
			c.RequestTimeoutSeconds = 0
			c.OverallTimeoutSeconds = 0
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tc.mutate(cfg)
			err := validateConfig(cfg)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := GetDefaultConfig()
	cfg.DefaultClient = types.ClientVimLSP
	cfg.RequestTimeoutSeconds = 2

	require.NoError(t, SaveConfig(cfg, path))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGenerateDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, GenerateDefaultConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loaded)
}

func TestTimeoutFallbacks(t *testing.T) {
	cfg := &Config{DefaultClient: types.ClientNvimLSP}
	assert.Greater(t, cfg.RequestTimeout(), time.Duration(0))
	assert.Greater(t, cfg.OverallTimeout(), time.Duration(0))
	assert.GreaterOrEqual(t, cfg.OverallTimeout(), cfg.RequestTimeout())
}
