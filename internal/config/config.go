// Package config provides configuration management for n8n-backup.
//
// The configuration is stored in TOML (or YAML) format and supports
// validation and default values for all fields. Command-line flags are
// applied on top of the loaded values by the caller.
package config

import (
	"fmt"
	"os"
	"time"

	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
	"github.com/chazuruo/n8n-backup/internal/resource"
)

// Color modes of LogConfig.Color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// DefaultOutputRoot is the folder that receives backups when no output
// path is configured.
const DefaultOutputRoot = "backups"

// Config is the top-level configuration struct for n8n-backup.
type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	HTTP    HTTPConfig    `toml:"http" yaml:"http"`
	Output  OutputConfig  `toml:"output" yaml:"output"`
	Include IncludeConfig `toml:"include" yaml:"include"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// ServerConfig identifies the n8n instance.
type ServerConfig struct {
	// BaseURL is the base URL of the n8n instance (e.g. "https://n8n.example.com").
	BaseURL string `toml:"base_url" yaml:"base_url"`

	// APIKey is the n8n API key. Prefer APIKeyEnv to keep the key out of
	// the file.
	APIKey string `toml:"api_key" yaml:"api_key"`

	// APIKeyEnv names an environment variable holding the API key. It is
	// used when APIKey is empty.
	APIKeyEnv string `toml:"api_key_env" yaml:"api_key_env"`

	// Insecure skips TLS certificate validation (self-signed certificates).
	Insecure bool `toml:"insecure" yaml:"insecure"`
}

// HTTPConfig contains transport settings.
type HTTPConfig struct {
	// Timeout bounds each request, e.g. "30s". Zero waits forever.
	Timeout time.Duration `toml:"timeout" yaml:"timeout"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `toml:"user_agent" yaml:"user_agent"`
}

// OutputConfig controls where and how the backup is written.
type OutputConfig struct {
	// Path is the archive file or directory to write. Empty means a
	// timestamped name below DefaultOutputRoot.
	Path string `toml:"path" yaml:"path"`

	// Dir writes a directory tree instead of a zip archive.
	Dir bool `toml:"dir" yaml:"dir"`

	// Pretty indents workflow files.
	Pretty bool `toml:"pretty" yaml:"pretty"`
}

// IncludeConfig opts into resource kinds. When none is set every kind is
// exported.
type IncludeConfig struct {
	Workflows  bool `toml:"workflows" yaml:"workflows"`
	Users      bool `toml:"users" yaml:"users"`
	Executions bool `toml:"executions" yaml:"executions"`
	Tags       bool `toml:"tags" yaml:"tags"`
	Variables  bool `toml:"variables" yaml:"variables"`
	Projects   bool `toml:"projects" yaml:"projects"`
}

// Flags returns the opt-in flags keyed by kind.
func (c IncludeConfig) Flags() map[resource.Kind]bool {
	return map[resource.Kind]bool{
		resource.Workflows:  c.Workflows,
		resource.Users:      c.Users,
		resource.Executions: c.Executions,
		resource.Tags:       c.Tags,
		resource.Variables:  c.Variables,
		resource.Projects:   c.Projects,
	}
}

// Selection resolves the opt-in flags into a selection.
func (c IncludeConfig) Selection() resource.Selection {
	return resource.NewSelection(c.Flags())
}

// LogConfig contains console output settings.
type LogConfig struct {
	// Verbose enables debug output.
	Verbose bool `toml:"verbose" yaml:"verbose"`

	// Quiet suppresses everything below warnings.
	Quiet bool `toml:"quiet" yaml:"quiet"`

	// Color controls colored output.
	// Valid values: "auto", "always", "never".
	Color string `toml:"color" yaml:"color"`
}

// DefaultConfig returns a Config with all default values set.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			APIKeyEnv: "N8N_API_KEY",
		},
		HTTP: HTTPConfig{
			Timeout: 0,
		},
		Output: OutputConfig{
			Path:   "",
			Dir:    false,
			Pretty: false,
		},
		Log: LogConfig{
			Color: ColorAuto,
		},
	}
}

// APIKey returns the configured key, falling back to the variable named
// by api_key_env.
func (c *Config) APIKey() string {
	if c.Server.APIKey != "" {
		return c.Server.APIKey
	}
	if c.Server.APIKeyEnv != "" {
		return os.Getenv(c.Server.APIKeyEnv)
	}
	return ""
}

// Validate checks the configuration for valid values.
// Returns a nil error if the config is valid, or an error describing the problem.
// The server credentials are checked separately by RequireServer because
// they may still come from the command line.
func (c *Config) Validate() error {
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("%w: http.timeout must be >= 0; got %s", backuperrors.ErrInvalid, c.HTTP.Timeout)
	}

	validColors := map[string]bool{
		ColorAuto:   true,
		ColorAlways: true,
		ColorNever:  true,
	}
	if !validColors[c.Log.Color] {
		return fmt.Errorf("%w: log.color must be one of: auto, always, never; got %q", backuperrors.ErrInvalid, c.Log.Color)
	}
	if c.Log.Verbose && c.Log.Quiet {
		return fmt.Errorf("%w: log.verbose and log.quiet are mutually exclusive", backuperrors.ErrInvalid)
	}

	return nil
}

// RequireServer checks that a base URL and an API key are available.
func (c *Config) RequireServer() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("%w: base URL is required", backuperrors.ErrInvalid)
	}
	if c.APIKey() == "" {
		return fmt.Errorf("%w: API key is required", backuperrors.ErrInvalid)
	}
	return nil
}
