package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tarslab/boxpush/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and manage boxpush configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the resolved configuration: defaults overlaid with the
config file and BOXPUSH_* environment variables.

Examples:
  # Show config in YAML format
  boxpush config show

  # Show config as JSON
  boxpush config show --json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowJSON bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output as JSON")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	redacted := redactConfig(cfg)

	if !isQuiet() {
		if used := loader.ConfigFileUsed(); used != "" {
			fmt.Printf("# Config file: %s\n\n", used)
		} else {
			fmt.Print("# No config file found, using defaults\n\n")
		}
	}

	var out []byte
	if configShowJSON {
		out, err = json.MarshalIndent(redacted, "", "  ")
	} else {
		out, err = yaml.Marshal(redacted)
	}
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// redactConfig returns a copy safe to print: the oracle API key never
// reaches the terminal.
func redactConfig(cfg *config.Config) *config.Config {
	out := *cfg
	if out.Oracle.APIKey != "" {
		out.Oracle.APIKey = "***REDACTED***"
	}
	return &out
}
