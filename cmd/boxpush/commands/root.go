// Package commands wires up the boxpush CLI.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "boxpush",
	Short: "LLM-driven box pushing agent",
	Long: `Boxpush runs an LLM agent against 2D box-pushing levels.

Each episode the agent observes the simulated world, asks a decision
oracle (Gemini, Ollama or a scripted stand-in) what to do, applies the
chosen push or barrier, and learns from the outcome through an episodic
memory stream and periodic reflections.

Examples:
  # Run the tutorial level offline (scripted oracle)
  boxpush run

  # Run 10 episodes of the friction level against Gemini
  boxpush run --level friction --episodes 10

  # Run every built-in level in parallel
  boxpush run --all

  # Inspect what the agent has learned
  boxpush memory stats
  boxpush history stats`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .boxpush.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

// initConfig points viper at the config file and the BOXPUSH_* env vars.
// A missing config file is fine; defaults cover everything.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".boxpush")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("BOXPUSH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	if isVerbose() && viper.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
	return nil
}

func isVerbose() bool { return verbose && !quiet }

func isQuiet() bool { return quiet }
