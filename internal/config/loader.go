package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader resolves configuration from, in order of priority: an explicit
// file, BOXPUSH_* environment variables, a discovered .boxpush.yaml, and
// the built-in defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader makes a loader with the standard search paths.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName(".boxpush")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	v.AddConfigPath("/etc/boxpush")

	v.SetEnvPrefix("BOXPUSH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// SetConfigFile pins the loader to one file instead of searching.
func (l *Loader) SetConfigFile(path string) {
	l.v.SetConfigFile(path)
}

// ConfigFileUsed reports which file Load read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Load resolves and validates the configuration. A missing config file
// falls back to defaults; a malformed one is an error.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.seedDefaults(cfg)

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// seedDefaults registers cfg's values with viper so partial config files
// and env vars overlay rather than replace them.
func (l *Loader) seedDefaults(cfg *Config) {
	defaults := map[string]any{
		"oracle.provider":       cfg.Oracle.Provider,
		"oracle.model":          cfg.Oracle.Model,
		"oracle.base_url":       cfg.Oracle.BaseURL,
		"oracle.timeout":        cfg.Oracle.Timeout,
		"oracle.max_tokens":     cfg.Oracle.MaxTokens,
		"oracle.temperature":    cfg.Oracle.Temperature,
		"oracle.rate_limit_rps": cfg.Oracle.RateLimitRPS,
		"oracle.retries":        cfg.Oracle.Retries,

		"run.level":          cfg.Run.Level,
		"run.episodes":       cfg.Run.Episodes,
		"run.tick_sec":       cfg.Run.TickSec,
		"run.oracle_timeout": cfg.Run.OracleTimeout,
		"run.retrieve_limit": cfg.Run.RetrieveLimit,
		"run.parallel":       cfg.Run.Parallel,

		"memory.dir":           cfg.Memory.Dir,
		"memory.in_memory":     cfg.Memory.InMemory,
		"memory.reflect_every": cfg.Memory.ReflectEvery,

		"history.enabled": cfg.History.Enabled,
		"history.path":    cfg.History.Path,

		"levels.file": cfg.Levels.File,

		"output.log_level": cfg.Output.LogLevel,
		"output.verbose":   cfg.Output.Verbose,
		"output.quiet":     cfg.Output.Quiet,
	}
	for key, value := range defaults {
		l.v.SetDefault(key, value)
	}
}

// LoadFromFile loads and validates configuration from one specific file.
func LoadFromFile(path string) (*Config, error) {
	l := NewLoader()
	l.SetConfigFile(path)
	return l.Load()
}
