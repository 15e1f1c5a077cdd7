package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigHonorsConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boxpush.yaml")
	yaml := "oracle:\n  provider: ollama\n  model: llama3\noutput:\n  log_level: warn\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	origFile, origVerbose := cfgFile, verbose
	cfgFile, verbose = path, true
	defer func() { cfgFile, verbose = origFile, origVerbose }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Oracle.Provider != "ollama" {
		t.Errorf("provider = %q, want ollama from the flagged file", cfg.Oracle.Provider)
	}
	if cfg.Oracle.Model != "llama3" {
		t.Errorf("model = %q, want llama3", cfg.Oracle.Model)
	}
	if cfg.Output.LogLevel != "warn" {
		t.Errorf("log level = %q, want warn", cfg.Output.LogLevel)
	}
	if !cfg.Output.Verbose {
		t.Error("--verbose flag not applied on top of the file")
	}
}

func TestLoadConfigRejectsMissingFile(t *testing.T) {
	orig := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "nope.yaml")
	defer func() { cfgFile = orig }()

	if _, err := loadConfig(); err == nil {
		t.Error("loadConfig() with a missing --config file should fail")
	}
}
