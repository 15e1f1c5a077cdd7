package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns a Config with sensible default values.
// These defaults run offline against the scripted oracle.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()

	return &Config{
		Oracle:  defaultOracleConfig(),
		Run:     defaultRunConfig(),
		Memory:  defaultMemoryConfig(dataDir),
		History: defaultHistoryConfig(dataDir),
		Levels:  LevelsConfig{},
		Output: OutputConfig{
			LogLevel: "info",
		},
	}
}

// defaultDataDir returns the default data directory path.
func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".local", "share", "boxpush")
}

// defaultOracleConfig returns the default oracle configuration.
func defaultOracleConfig() OracleConfig {
	return OracleConfig{
		Provider:     "scripted",
		Model:        "gemini-2.0-flash",
		Timeout:      60 * time.Second,
		MaxTokens:    2048,
		Temperature:  0.2,
		RateLimitRPS: 0,
		Retries:      2,
	}
}

// defaultRunConfig returns the default run configuration.
func defaultRunConfig() RunConfig {
	return RunConfig{
		Level:         "tutorial",
		Episodes:      1,
		TickSec:       0.5,
		OracleTimeout: 30 * time.Second,
		RetrieveLimit: 5,
		Parallel:      0,
	}
}

// defaultMemoryConfig returns the default memory configuration.
func defaultMemoryConfig(dataDir string) MemoryConfig {
	return MemoryConfig{
		Dir:          filepath.Join(dataDir, "memory"),
		InMemory:     false,
		ReflectEvery: 3,
	}
}

// defaultHistoryConfig returns the default history configuration.
func defaultHistoryConfig(dataDir string) HistoryConfig {
	return HistoryConfig{
		Enabled: true,
		Path:    filepath.Join(dataDir, "history.db"),
	}
}
