// Package config provides configuration management for the codex32 CLI
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Davincible/codex32/internal/validation"
)

// Config represents the main configuration structure
type Config struct {
	Version  string          `json:"version"`
	Defaults DefaultSettings `json:"defaults"`
	Security SecurityConfig  `json:"security"`
	UI       UIConfig        `json:"ui"`
	Storage  StorageConfig   `json:"storage"`
}

// DefaultSettings contains default values for split
type DefaultSettings struct {
	Threshold    int    `json:"threshold"`     // Default: 2
	Shares       int    `json:"shares"`        // Default: 3
	Identifier   string `json:"identifier"`    // Empty: derive from the master fingerprint
	SecretLength int    `json:"secret_length"` // Bytes of random secret, default 16
}

// SecurityConfig contains security-related settings
type SecurityConfig struct {
	WipeMemory             bool `json:"wipe_memory"`              // Zero secrets after use
	RequireStorePassphrase bool `json:"require_store_passphrase"` // Refuse to store unencrypted
	MinPassphraseLength    int  `json:"min_passphrase_length"`
}

// UIConfig contains user interface settings
type UIConfig struct {
	UseColor bool `json:"use_color"`
}

// StorageConfig contains share store settings
type StorageConfig struct {
	Path    string `json:"path"`    // Share store directory
	Encrypt bool   `json:"encrypt"` // Encrypt share sets at rest
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	storePath := filepath.Join(".codex32", "shares")
	if home, err := os.UserHomeDir(); err == nil {
		storePath = filepath.Join(home, ".codex32", "shares")
	}

	return &Config{
		Version: "1.0.0",
		Defaults: DefaultSettings{
			Threshold:    2,
			Shares:       3,
			SecretLength: 16,
		},
		Security: SecurityConfig{
			WipeMemory:          true,
			MinPassphraseLength: 8,
		},
		UI: UIConfig{
			UseColor: true,
		},
		Storage: StorageConfig{
			Path:    storePath,
			Encrypt: true,
		},
	}
}

// Validate checks the configured defaults
func (c *Config) Validate() error {
	if err := validation.ValidateSplitParams(c.Defaults.Threshold, c.Defaults.Shares); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	if c.Defaults.Identifier != "" {
		if err := validation.ValidateIdentifier(c.Defaults.Identifier); err != nil {
			return fmt.Errorf("defaults: %w", err)
		}
	}

	if err := validation.ValidateSecretLength(c.Defaults.SecretLength); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	if c.Security.MinPassphraseLength < 0 {
		return fmt.Errorf("security: min_passphrase_length cannot be negative")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage: path cannot be empty")
	}

	return nil
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Unset fields keep their defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Path returns the configuration file path
func Path() (string, error) {
	if customPath := os.Getenv("CODEX32_CONFIG"); customPath != "" {
		return customPath, nil
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "codex32", "config.json"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "codex32", "config.json"), nil
}
