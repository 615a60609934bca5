// Package config provides configuration management for confgen.
//
// Configuration is loaded from three sources with the following precedence
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (CONFGEN_ prefix)
//  3. Config file (.confgen.yaml)
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/confgen/confgen/internal/schema"
	"github.com/confgen/confgen/internal/tree"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the global configuration for confgen.
type Config struct {
	// LogLevel controls the verbosity of log output.
	// Valid values: debug, info, warn, error.
	LogLevel string `mapstructure:"log-level" json:"logLevel"`

	// LogFormat controls the format of log output.
	// Valid values: text, json.
	LogFormat string `mapstructure:"log-format" json:"logFormat"`

	// Quiet suppresses all log output below error level.
	Quiet bool `mapstructure:"quiet" json:"quiet"`

	// NoColor disables ANSI color in diff output.
	NoColor bool `mapstructure:"no-color" json:"noColor"`

	// Language is the default emission target (python, go).
	Language string `mapstructure:"language" json:"language"`

	// NamingStyle is the default field naming style (snake, camel, pascal,
	// keep). Empty means renderer default.
	NamingStyle string `mapstructure:"naming-style" json:"namingStyle"`

	// Format overrides input format auto-detection (yaml, json, toml).
	// Empty means detect by extension.
	Format string `mapstructure:"format" json:"format"`

	// PollInterval bounds how often a watch instance re-checks its input.
	PollInterval time.Duration `mapstructure:"poll-interval" json:"pollInterval"`

	// Debounce is the quiet window coalescing change bursts in watch mode.
	Debounce time.Duration `mapstructure:"debounce" json:"debounce"`

	// StateDir overrides the registry/state directory. Empty means the
	// per-user default.
	StateDir string `mapstructure:"state-dir" json:"stateDir"`

	// ConfigFile is the resolved path to the config file used.
	// Set after Load() — not read from config itself.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:     LogLevelInfo,
		LogFormat:    LogFormatText,
		Language:     "python",
		PollInterval: 2 * time.Second,
		Debounce:     500 * time.Millisecond,
	}
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		// valid
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
		// valid
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	if _, err := schema.ParseStyle(c.NamingStyle); err != nil {
		return err
	}

	if c.Format != "" {
		if _, err := tree.ParseFormat(c.Format); err != nil {
			return err
		}
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval %s: must be positive", c.PollInterval)
	}

	if c.Debounce <= 0 {
		return fmt.Errorf("invalid debounce %s: must be positive", c.Debounce)
	}

	return nil
}

// EffectiveLogLevel returns the log level to use. When Quiet is true the log
// level is overridden to "error" regardless of the configured LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// Style returns the configured naming style. Validate has already checked it.
func (c *Config) Style() schema.Style {
	style, _ := schema.ParseStyle(c.NamingStyle)
	return style
}

// InputFormat returns the configured format override, empty when detection
// by extension applies. Validate has already checked it.
func (c *Config) InputFormat() tree.Format {
	if c.Format == "" {
		return ""
	}

	f, _ := tree.ParseFormat(c.Format)

	return f
}

// Load initialises configuration from flags, environment variables, and an
// optional config file. A fresh viper instance is used on every call so that
// Load is safe for concurrent tests.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureEnv(v)

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Store the resolved config file path so downstream code can locate it.
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log-level", LogLevelInfo)
	v.SetDefault("log-format", LogFormatText)
	v.SetDefault("quiet", false)
	v.SetDefault("no-color", false)
	v.SetDefault("language", "python")
	v.SetDefault("naming-style", "")
	v.SetDefault("format", "")
	v.SetDefault("poll-interval", 2*time.Second)
	v.SetDefault("debounce", 500*time.Millisecond)
	v.SetDefault("state-dir", "")
}

// configureEnv sets up environment variable support.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("CONFGEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

// configureFile sets up the config file source.
func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	// Auto-discovery mode.
	v.SetConfigName(".confgen")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "confgen"))
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file found → perfectly fine in auto-discovery.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}

		// Found a file but it was malformed.
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// bindFlags walks from cmd up to the root and binds all PersistentFlags.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	// Bind the current command's own flags.
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	// Walk up to root and bind all persistent flags at each level.
	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext extracts a Config from ctx, falling back to Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
