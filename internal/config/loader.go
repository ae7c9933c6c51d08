// Package config provides configuration management for n8n-backup.
//
// This file contains config loading functionality including:
// - XDG config path detection
// - TOML and YAML file parsing
// - .env files
// - Environment variable overrides
// - Validation
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "N8N_BACKUP_"

// DetectConfigPath searches for a config file using XDG standard paths.
// Returns the first config file found, or empty string if none exists.
//
// Search order:
// 1. $XDG_CONFIG_HOME/n8n-backup/config.toml
// 2. ~/.config/n8n-backup/config.toml
// 3. ~/.config/n8n-backup/config.yaml
//
// Returns empty string if no config file is found (caller should use defaults).
func DetectConfigPath() string {
	var candidates []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "n8n-backup", "config.toml"))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(homeDir, ".config", "n8n-backup", "config.toml"),
			filepath.Join(homeDir, ".config", "n8n-backup", "config.yaml"),
		)
	}

	for _, configPath := range candidates {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}
	return ""
}

// DefaultConfigPath returns where a new config file goes:
// $XDG_CONFIG_HOME/n8n-backup/config.toml, or ~/.config/n8n-backup/config.toml.
func DefaultConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "n8n-backup", "config.toml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "n8n-backup", "config.toml"), nil
}

// Load loads a config from the specified path.
// If the file doesn't exist, returns an error.
// After loading, applies environment variable overrides and validates.
func Load(path string) (*Config, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &backuperrors.ConfigError{Path: path, Err: fmt.Errorf("%w: config file", backuperrors.ErrNotFound)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &backuperrors.ConfigError{Path: path, Err: backuperrors.Wrapf(backuperrors.ErrIO, err, "read")}
	}

	// Start with defaults
	cfg := DefaultConfig()

	if err := decode(path, data, cfg); err != nil {
		return nil, &backuperrors.ConfigError{Path: path, Err: fmt.Errorf("failed to parse: %w", err)}
	}

	applyEnvOverrides(cfg)
	expandPath(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, &backuperrors.ConfigError{Path: path, Err: err}
	}

	return cfg, nil
}

// LoadWithDefaults attempts to load a config from XDG standard paths.
// If no config file is found, returns a config with all default values.
// If a config file is found but fails to load/validate, returns an error.
func LoadWithDefaults() (*Config, error) {
	configPath := DetectConfigPath()
	if configPath == "" {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		expandPath(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, &backuperrors.ConfigError{Err: err}
		}
		return cfg, nil
	}

	return Load(configPath)
}

// LoadEnvFile loads KEY=value pairs from path into the process
// environment. Variables that are already set keep their value.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return &backuperrors.ConfigError{Path: path, Err: err}
	}
	return nil
}

// decode parses data by the file extension: .yaml and .yml are YAML,
// anything else is TOML.
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return toml.Unmarshal(data, cfg)
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables follow the pattern: N8N_BACKUP_<SECTION>_<FIELD>
//
// Examples:
// - N8N_BACKUP_SERVER_BASE_URL overrides [server].base_url
// - N8N_BACKUP_HTTP_TIMEOUT overrides [http].timeout ("30s")
// - N8N_BACKUP_INCLUDE_TAGS overrides [include].tags
//
// N8N_BACKUP_BASE_URL and N8N_BACKUP_API_KEY are accepted as short forms
// and take precedence.
//
// Boolean fields: use "true"/"false" strings
func applyEnvOverrides(c *Config) {
	// Helper to lookup and apply string override
	applyString := func(key string, target *string) {
		if val, ok := os.LookupEnv(EnvPrefix + key); ok && val != "" {
			*target = val
		}
	}

	// Helper to lookup and apply bool override
	applyBool := func(key string, target *bool) {
		if val, ok := os.LookupEnv(EnvPrefix + key); ok && val != "" {
			switch strings.ToLower(val) {
			case "true", "1", "yes", "on":
				*target = true
			case "false", "0", "no", "off":
				*target = false
			}
		}
	}

	applyDuration := func(key string, target *time.Duration) {
		if val, ok := os.LookupEnv(EnvPrefix + key); ok && val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				*target = d
			}
		}
	}

	// Server section
	applyString("SERVER_BASE_URL", &c.Server.BaseURL)
	applyString("SERVER_API_KEY", &c.Server.APIKey)
	applyString("SERVER_API_KEY_ENV", &c.Server.APIKeyEnv)
	applyBool("SERVER_INSECURE", &c.Server.Insecure)
	applyString("BASE_URL", &c.Server.BaseURL)
	applyString("API_KEY", &c.Server.APIKey)

	// HTTP section
	applyDuration("HTTP_TIMEOUT", &c.HTTP.Timeout)
	applyString("HTTP_USER_AGENT", &c.HTTP.UserAgent)

	// Output section
	applyString("OUTPUT_PATH", &c.Output.Path)
	applyBool("OUTPUT_DIR", &c.Output.Dir)
	applyBool("OUTPUT_PRETTY", &c.Output.Pretty)

	// Include section
	applyBool("INCLUDE_WORKFLOWS", &c.Include.Workflows)
	applyBool("INCLUDE_USERS", &c.Include.Users)
	applyBool("INCLUDE_EXECUTIONS", &c.Include.Executions)
	applyBool("INCLUDE_TAGS", &c.Include.Tags)
	applyBool("INCLUDE_VARIABLES", &c.Include.Variables)
	applyBool("INCLUDE_PROJECTS", &c.Include.Projects)

	// Log section
	applyBool("LOG_VERBOSE", &c.Log.Verbose)
	applyBool("LOG_QUIET", &c.Log.Quiet)
	applyString("LOG_COLOR", &c.Log.Color)
}

// expandPath expands ~ to the home directory in the output path.
func expandPath(c *Config) {
	if strings.HasPrefix(c.Output.Path, "~/") || c.Output.Path == "~" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			c.Output.Path = filepath.Join(homeDir, strings.TrimPrefix(c.Output.Path, "~/"))
		}
	}
}
