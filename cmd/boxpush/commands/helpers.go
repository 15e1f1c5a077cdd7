package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tarslab/boxpush/internal/config"
	"github.com/tarslab/boxpush/internal/level"
	"github.com/tarslab/boxpush/internal/logger"
	"github.com/tarslab/boxpush/internal/memory"
	"github.com/tarslab/boxpush/internal/oracle"
)

// loadConfig loads configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.NewLoader().Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if quiet {
		cfg.Output.Quiet = true
	}
	return cfg, nil
}

// newLogger builds the application logger from the output config.
func newLogger(cfg *config.Config) *logger.Logger {
	lvl := logger.LevelInfo
	switch cfg.Output.LogLevel {
	case "debug":
		lvl = logger.LevelDebug
	case "warn":
		lvl = logger.LevelWarn
	case "error":
		lvl = logger.LevelError
	}
	if cfg.Output.Verbose {
		lvl = logger.LevelDebug
	}
	if cfg.Output.Quiet {
		lvl = logger.LevelError
	}
	return logger.New(lvl, os.Stderr)
}

// openStream opens the memory stream per config: badger-backed unless
// in_memory is set. The returned closer is a no-op for in-memory streams.
func openStream(cfg *config.Config) (*memory.Stream, func(), error) {
	if cfg.Memory.InMemory {
		return memory.NewStream(), func() {}, nil
	}

	if err := os.MkdirAll(cfg.Memory.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating memory directory: %w", err)
	}
	store, err := memory.OpenBadger(cfg.Memory.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening memory store: %w", err)
	}
	stream, err := memory.NewPersistentStream(store)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("replaying memory store: %w", err)
	}
	return stream, func() { _ = stream.Close() }, nil
}

// loadLevelSet returns the built-in levels, merged with a custom level
// file when one is configured.
func loadLevelSet(cfg *config.Config) (map[string]*level.Config, error) {
	if cfg.Levels.File == "" {
		return level.BuiltIn(), nil
	}
	levels, err := level.LoadFile(cfg.Levels.File)
	if err != nil {
		return nil, fmt.Errorf("loading levels from %s: %w", cfg.Levels.File, err)
	}
	return levels, nil
}

// buildOracle constructs the configured oracle, wrapped with retries.
func buildOracle(cfg *config.Config) (oracle.Oracle, error) {
	o, err := oracle.New(oracle.Options{
		Provider:     cfg.Oracle.Provider,
		BaseURL:      cfg.Oracle.BaseURL,
		APIKey:       cfg.Oracle.APIKey,
		Model:        cfg.Oracle.Model,
		Temperature:  cfg.Oracle.Temperature,
		MaxTokens:    cfg.Oracle.MaxTokens,
		Timeout:      cfg.Oracle.Timeout,
		RateLimitRPS: cfg.Oracle.RateLimitRPS,
	})
	if err != nil {
		return nil, fmt.Errorf("creating oracle: %w", err)
	}
	if cfg.Oracle.Retries > 0 {
		retry := oracle.DefaultRetryConfig()
		retry.MaxRetries = cfg.Oracle.Retries
		o = oracle.WithRetries(o, retry)
	}
	return o, nil
}

// ensureParentDir creates the parent directory of a file path.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// truncate shortens a string to max runes, appending an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
