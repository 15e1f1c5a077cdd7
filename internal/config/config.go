// Package config handles all configuration management for boxpush.
//
// Configuration is loaded from multiple sources in order of precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables (BOXPUSH_*)
// 3. Configuration file (.boxpush.yaml)
// 4. Default values (lowest priority)
package config

import (
	"time"
)

// Config is the main configuration structure for boxpush.
// It contains all settings needed to run the application.
type Config struct {
	// Oracle configures the decision oracle (Gemini, Ollama, scripted).
	Oracle OracleConfig `mapstructure:"oracle" yaml:"oracle"`

	// Run configures episode execution.
	Run RunConfig `mapstructure:"run" yaml:"run"`

	// Memory configures the agent memory stream.
	Memory MemoryConfig `mapstructure:"memory" yaml:"memory"`

	// History configures the episode history store.
	History HistoryConfig `mapstructure:"history" yaml:"history"`

	// Levels configures level loading.
	Levels LevelsConfig `mapstructure:"levels" yaml:"levels"`

	// Output configures logging and terminal output.
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// OracleConfig configures the decision oracle provider.
type OracleConfig struct {
	// Provider is the oracle backend: "gemini", "ollama", "scripted"
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Model is the model to use (e.g., "gemini-2.0-flash", "llama3.1")
	Model string `mapstructure:"model" yaml:"model"`

	// BaseURL is the API base URL
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// APIKey is the API key (for Gemini)
	// This should be set via environment variable, not config file
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// Timeout is the per-request timeout
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// MaxTokens is the maximum tokens in response
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`

	// Temperature controls randomness (0.0 = deterministic)
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// RateLimitRPS is requests per second limit (0 = unlimited)
	RateLimitRPS int `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`

	// Retries is how many times a transient failure is retried
	Retries int `mapstructure:"retries" yaml:"retries"`
}

// RunConfig configures episode execution.
type RunConfig struct {
	// Level is the level key to run
	Level string `mapstructure:"level" yaml:"level"`

	// Episodes is how many episodes to run back to back
	Episodes int `mapstructure:"episodes" yaml:"episodes"`

	// TickSec is the simulated time one non-push action covers
	TickSec float64 `mapstructure:"tick_sec" yaml:"tick_sec"`

	// OracleTimeout bounds one decision call from the controller side
	OracleTimeout time.Duration `mapstructure:"oracle_timeout" yaml:"oracle_timeout"`

	// RetrieveLimit caps memories fed into the oracle prompt
	RetrieveLimit int `mapstructure:"retrieve_limit" yaml:"retrieve_limit"`

	// Parallel is how many levels run concurrently for `run --all` (0 = auto)
	Parallel int `mapstructure:"parallel" yaml:"parallel"`
}

// MemoryConfig configures the agent memory stream.
type MemoryConfig struct {
	// Dir is the on-disk memory directory (badger)
	Dir string `mapstructure:"dir" yaml:"dir"`

	// InMemory keeps memories in RAM only
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory"`

	// ReflectEvery fires a reflection after this many sealed episodes
	ReflectEvery int `mapstructure:"reflect_every" yaml:"reflect_every"`
}

// HistoryConfig configures the episode history store.
type HistoryConfig struct {
	// Enabled enables sqlite episode history
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Path is the sqlite database file
	Path string `mapstructure:"path" yaml:"path"`
}

// LevelsConfig configures level loading.
type LevelsConfig struct {
	// File is an optional YAML file of custom levels merged over the
	// built-in set
	File string `mapstructure:"file" yaml:"file"`
}

// OutputConfig configures logging and terminal output.
type OutputConfig struct {
	// LogLevel is the log verbosity: "debug", "info", "warn", "error"
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// Verbose enables verbose output
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`

	// Quiet suppresses all output except errors
	Quiet bool `mapstructure:"quiet" yaml:"quiet"`
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	validProviders := map[string]bool{"gemini": true, "ollama": true, "scripted": true}
	if !validProviders[c.Oracle.Provider] {
		return &ValidationError{Field: "oracle.provider", Message: "invalid provider, must be one of: gemini, ollama, scripted"}
	}

	if c.Oracle.Provider == "gemini" && c.Oracle.APIKey == "" {
		return &ValidationError{Field: "oracle.api_key", Message: "API key is required for Gemini (set BOXPUSH_ORACLE_API_KEY)"}
	}

	if c.Oracle.Provider == "ollama" && c.Oracle.Model == "" {
		return &ValidationError{Field: "oracle.model", Message: "model is required for Ollama"}
	}

	if c.Run.Episodes < 1 {
		return &ValidationError{Field: "run.episodes", Message: "episodes must be at least 1"}
	}

	if c.Run.TickSec <= 0 {
		return &ValidationError{Field: "run.tick_sec", Message: "tick_sec must be positive"}
	}

	if !c.Memory.InMemory && c.Memory.Dir == "" {
		return &ValidationError{Field: "memory.dir", Message: "memory directory is required unless in_memory is set"}
	}

	if c.History.Enabled && c.History.Path == "" {
		return &ValidationError{Field: "history.path", Message: "history path is required when history is enabled"}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Output.LogLevel] {
		return &ValidationError{Field: "output.log_level", Message: "invalid log level, must be one of: debug, info, warn, error"}
	}

	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "config validation error: " + e.Field + ": " + e.Message
}
