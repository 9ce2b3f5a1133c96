// Package config handles the XDG configuration directory, file paths and settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "taskdesk"

	// FileName is the optional settings file inside the config directory.
	FileName = "config.yaml"

	// OAuthClientFile is the OAuth client credentials filename (google backend).
	OAuthClientFile = "oauth_client.json"

	// SessionDBFile is the SQLite file used by the sqlite session store.
	SessionDBFile = "session.db"

	// EnvPrefix prefixes environment overrides, e.g. TASKDESK_SERVER.
	EnvPrefix = "TASKDESK"
)

// Backends.
const (
	BackendREST   = "rest"
	BackendGoogle = "google"
)

// Session stores.
const (
	SessionStoreFile   = "file"
	SessionStoreSQLite = "sqlite"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `mapstructure:"-"`

	// Server is the base URL of the REST task API.
	Server string `mapstructure:"server"`

	// Backend selects the task backend: rest or google.
	Backend string `mapstructure:"backend"`

	// SessionStore selects where the session is persisted: file or sqlite.
	SessionStore string `mapstructure:"session_store"`

	// Timeout bounds each backend request.
	Timeout time.Duration `mapstructure:"timeout"`

	// Output is the default list output format.
	Output string `mapstructure:"output"`

	// RequireDueDate makes the due date a required form field.
	RequireDueDate bool `mapstructure:"require_due_date"`

	// Debug enables debug logging.
	Debug bool `mapstructure:"-"`

	// Quiet suppresses informational output.
	Quiet bool `mapstructure:"-"`
}

// Default returns a Config with built-in defaults rooted at dir.
func Default(dir string) *Config {
	return &Config{
		Dir:          dir,
		Server:       "http://localhost:5000/api",
		Backend:      BackendREST,
		SessionStore: SessionStoreFile,
		Timeout:      10 * time.Second,
		Output:       OutputTable,
	}
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskdesk or $HOME/.config/taskdesk.
// No settings file or environment is read; see Load.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return Default(dir), nil
}

// Load creates a Config like New and overlays config.yaml from the config
// directory and TASKDESK_* environment variables.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(cfg.Path())
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server", cfg.Server)
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("session_store", cfg.SessionStore)
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("require_due_date", cfg.RequireDueDate)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("invalid %s: %w", FileName, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendREST, BackendGoogle:
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	switch c.SessionStore {
	case SessionStoreFile, SessionStoreSQLite:
	default:
		return fmt.Errorf("unknown session store: %s", c.SessionStore)
	}
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format: %s", c.Output)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %s", c.Timeout)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Path returns the path to the settings file.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, FileName)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// SessionDBPath returns the path to the SQLite session database.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.Dir, SessionDBFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}
