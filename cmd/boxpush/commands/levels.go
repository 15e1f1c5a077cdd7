package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarslab/boxpush/internal/level"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List available levels",
	Long: `List the built-in levels plus any custom levels from the configured
level file.

Examples:
  # List levels
  boxpush levels

  # Show full level parameters as JSON
  boxpush levels --json`,
	Args: cobra.NoArgs,
	RunE: runLevels,
}

var levelsJSON bool

func init() {
	rootCmd.AddCommand(levelsCmd)

	levelsCmd.Flags().BoolVar(&levelsJSON, "json", false, "output as JSON")
}

func runLevels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	levels, err := loadLevelSet(cfg)
	if err != nil {
		return err
	}

	if levelsJSON {
		data, err := json.MarshalIndent(levels, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling levels: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("📦 Levels (%d)\n\n", len(levels))
	for _, key := range level.Keys(levels) {
		lvl := levels[key]
		fmt.Printf("  %-10s %s\n", key, lvl.Name)
		fmt.Printf("             %s\n", lvl.Description)
		fmt.Printf("             box (%.0f,%.0f) → goal (%.0f,%.0f) r%.0f | %0.fs, %d steps",
			lvl.BoxPosition.X, lvl.BoxPosition.Y,
			lvl.GoalPosition.X, lvl.GoalPosition.Y, lvl.GoalRadius,
			lvl.TimeLimitSec, lvl.MaxSteps)
		if lvl.BarrierBudget > 0 {
			fmt.Printf(", %d barriers", lvl.BarrierBudget)
		}
		if len(lvl.Obstacles) > 0 {
			fmt.Printf(", %d obstacles", len(lvl.Obstacles))
		}
		fmt.Println()
		fmt.Println()
	}

	return nil
}
