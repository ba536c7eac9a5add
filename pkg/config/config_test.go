package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Defaults.Threshold)
	assert.Equal(t, 3, cfg.Defaults.Shares)
	assert.Empty(t, cfg.Defaults.Identifier)
	assert.True(t, cfg.Storage.Encrypt)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold too high", func(c *Config) { c.Defaults.Threshold = 10 }},
		{"shares below threshold", func(c *Config) { c.Defaults.Shares = 1 }},
		{"bad identifier", func(c *Config) { c.Defaults.Identifier = "abcd" }},
		{"short secret", func(c *Config) { c.Defaults.SecretLength = 8 }},
		{"negative passphrase length", func(c *Config) { c.Security.MinPassphraseLength = -1 }},
		{"empty store path", func(c *Config) { c.Storage.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg.Defaults.Threshold = 3
	cfg.Defaults.Shares = 5
	cfg.Defaults.Identifier = "cash"
	cfg.UI.UseColor = false
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"defaults": {"threshold": 4, "shares": 6}}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Defaults.Threshold)
	assert.Equal(t, 16, cfg.Defaults.SecretLength)
	assert.True(t, cfg.Security.WipeMemory)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{not json"), 0600))
	_, err := Load(garbage)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"defaults": {"threshold": 1}}`), 0600))
	_, err = Load(invalid)
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv("CODEX32_CONFIG", "/tmp/custom.json")
	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.json", path)

	t.Setenv("CODEX32_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err = Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "codex32", "config.json"), path)
}
