package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. FORGEDESK_SERVER_BASE_URL.
const EnvPrefix = "FORGEDESK"

// DefaultPollIntervalSec matches the portal's 30 second refresh cadence.
const DefaultPollIntervalSec = 30

// ServerConfig holds the Work Forge backend connection settings.
type ServerConfig struct {
	// BaseURL is the root URL of the Work Forge API (without /api).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// PollIntervalSec is how often (in seconds) to refresh the feed.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// RequestTimeoutSec bounds a single HTTP request.
	RequestTimeoutSec int `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// UserConfig overrides the identity derived from the bearer token.
type UserConfig struct {
	ID   string `mapstructure:"id" yaml:"id"`
	Name string `mapstructure:"name" yaml:"name"`
	Role string `mapstructure:"role" yaml:"role"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	// Theme picks the palette variant: "default" follows the terminal
	// background, "dark" and "light" force one side.
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// DatabaseConfig locates the local SQLite cache.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	User     UserConfig     `mapstructure:"user" yaml:"user"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
}

// PollInterval returns the configured refresh period.
func (c *AppConfig) PollInterval() time.Duration {
	if c.Server.PollIntervalSec <= 0 {
		return DefaultPollIntervalSec * time.Second
	}
	return time.Duration(c.Server.PollIntervalSec) * time.Second
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *AppConfig) RequestTimeout() time.Duration {
	if c.Server.RequestTimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/forgedesk/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(userDir(".config"), "forgedesk", "config.yaml")
}

// DefaultDatabasePath returns ~/.local/share/forgedesk/forgedesk.db.
func DefaultDatabasePath() string {
	return filepath.Join(userDir(".local", "share"), "forgedesk", "forgedesk.db")
}

// DefaultLogPath returns ~/.local/state/forgedesk/forgedesk.log.
func DefaultLogPath() string {
	return filepath.Join(userDir(".local", "state"), "forgedesk", "forgedesk.log")
}

func userDir(parts ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(append([]string{home}, parts...)...)
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:           "http://localhost:5000",
			PollIntervalSec:   DefaultPollIntervalSec,
			RequestTimeoutSec: 15,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		Log: LogConfig{
			Path:  DefaultLogPath(),
			Level: "info",
		},
		Database: DatabaseConfig{
			Path: DefaultDatabasePath(),
		},
	}
}

// LoadEnvFile loads KEY=value pairs from a .env file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with FORGEDESK_ override file values.
// If the file does not exist, defaults (plus environment) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values and so
	// AutomaticEnv can see every key during Unmarshal.
	d := defaultAppConfig()
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.poll_interval_sec", d.Server.PollIntervalSec)
	v.SetDefault("server.request_timeout_sec", d.Server.RequestTimeoutSec)
	v.SetDefault("user.id", "")
	v.SetDefault("user.name", "")
	v.SetDefault("user.role", "")
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("database.path", d.Database.Path)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Server.PollIntervalSec <= 0 {
		cfg.Server.PollIntervalSec = DefaultPollIntervalSec
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("user", cfg.User)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)
	v.Set("database", cfg.Database)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
