package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tarslab/boxpush/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse episode history",
	Long: `Browse the episode history ledger.

Examples:
  # Recent episodes
  boxpush history

  # Failed barrier-level episodes
  boxpush history --level barrier --failed

  # High-reward episodes
  boxpush history --min-reward 150

  # Aggregate statistics
  boxpush history stats

  # Per-level statistics
  boxpush history stats --level friction`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show episode statistics",
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

var (
	historyLevel     string
	historyFailed    bool
	historySucceeded bool
	historyMinReward float64
	historyLimit     int
	historyJSON      bool
	historyStatLevel string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyStatsCmd)

	historyCmd.Flags().StringVar(&historyLevel, "level", "", "filter by level")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "failed episodes only")
	historyCmd.Flags().BoolVar(&historySucceeded, "succeeded", false, "successful episodes only")
	historyCmd.Flags().Float64Var(&historyMinReward, "min-reward", 0, "minimum reward")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of episodes to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")

	historyStatsCmd.Flags().StringVar(&historyStatLevel, "level", "", "show stats for one level")
}

func openConfiguredHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled in config")
	}
	store, err := history.NewStore(history.StoreConfig{Path: cfg.History.Path})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	return store, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	q := history.SearchQuery{
		Level: historyLevel,
		Limit: historyLimit,
	}
	if historyFailed {
		v := false
		q.Success = &v
	}
	if historySucceeded {
		v := true
		q.Success = &v
	}
	if cmd.Flags().Changed("min-reward") {
		q.MinReward = &historyMinReward
	}

	result, err := store.Search(context.Background(), q)
	if err != nil {
		return fmt.Errorf("searching history: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling history: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(result.Records) == 0 {
		fmt.Println("No episodes recorded yet.")
		return nil
	}

	fmt.Printf("📜 Episodes (showing %d of %d)\n\n", len(result.Records), result.TotalCount)
	for _, r := range result.Records {
		mark := "✗"
		detail := r.Cause
		if r.Success {
			mark = "✓"
			detail = "success"
		}
		fmt.Printf("%s %s  %-10s %-20s %3d steps  reward %7.1f", mark,
			r.CreatedAt.Format("2006-01-02 15:04"), r.Level, detail, r.Steps, r.Reward)
		if r.Degraded > 0 {
			fmt.Printf("  (%d degraded)", r.Degraded)
		}
		fmt.Println()
	}
	return nil
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	if historyStatLevel != "" {
		stats, err := store.GetLevelStats(ctx, historyStatLevel)
		if err != nil {
			return fmt.Errorf("getting level stats: %w", err)
		}
		printLevelStats(stats)
		return nil
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}
	printAggregateStats(stats)
	return nil
}

func printLevelStats(stats *history.LevelStats) {
	if stats.Attempts == 0 {
		fmt.Printf("No episodes recorded for level %q.\n", stats.Level)
		return
	}
	fmt.Printf("📊 %s\n", stats.Level)
	fmt.Printf("   Attempts:     %d\n", stats.Attempts)
	fmt.Printf("   Successes:    %d (%.1f%%)\n", stats.Successes, stats.SuccessRate*100)
	fmt.Printf("   Best reward:  %.1f\n", stats.BestReward)
	fmt.Printf("   Mean reward:  %.1f\n", stats.MeanReward)
	fmt.Printf("   Mean steps:   %.1f\n", stats.MeanSteps)
	fmt.Printf("   Strategies:   %d distinct\n", stats.Strategies)
	if !stats.FirstRun.IsZero() {
		fmt.Printf("   First run:    %s\n", stats.FirstRun.Format("2006-01-02 15:04"))
		fmt.Printf("   Last run:     %s\n", stats.LastRun.Format("2006-01-02 15:04"))
	}
}

func printAggregateStats(stats *history.Stats) {
	if stats.TotalEpisodes == 0 {
		fmt.Println("No episodes recorded yet.")
		fmt.Println("\nRun some episodes first to collect statistics.")
		return
	}

	successRate := float64(stats.Successes) / float64(stats.TotalEpisodes) * 100

	fmt.Println("📊 Episode Statistics")
	fmt.Printf("   Total episodes: %d\n", stats.TotalEpisodes)
	fmt.Printf("   Successes:      %d (%.1f%%)\n", stats.Successes, successRate)
	fmt.Println()

	if len(stats.ByLevel) > 0 {
		fmt.Println("   By level:")
		for _, lvl := range sortedKeys(stats.ByLevel) {
			bar := makeProgressBar(int(stats.ByLevel[lvl]), int(stats.TotalEpisodes), 20)
			fmt.Printf("     %-10s %s %d\n", lvl, bar, stats.ByLevel[lvl])
		}
		fmt.Println()
	}

	if len(stats.ByCause) > 0 {
		fmt.Println("   Failures by cause:")
		for _, cause := range sortedKeys(stats.ByCause) {
			fmt.Printf("     %-22s %d\n", cause, stats.ByCause[cause])
		}
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func makeProgressBar(current, total, width int) string {
	if total == 0 {
		return strings.Repeat("░", width)
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
