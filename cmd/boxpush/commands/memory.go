package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarslab/boxpush/internal/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect the agent's memory stream",
	Long:  `View the episodic memories and reflections the agent has accumulated.`,
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory stream statistics",
	Args:  cobra.NoArgs,
	RunE:  runMemoryStats,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent memories",
	Long: `List recent memories, newest last.

Examples:
  # Last 10 memories
  boxpush memory list

  # Memories relevant to one level, ranked by importance and recency
  boxpush memory list --level barrier

  # Reflections only
  boxpush memory list --kind reflection`,
	Args: cobra.NoArgs,
	RunE: runMemoryList,
}

var (
	memoryListLevel string
	memoryListKind  string
	memoryListLimit int
	memoryListJSON  bool
)

func init() {
	rootCmd.AddCommand(memoryCmd)
	memoryCmd.AddCommand(memoryStatsCmd)
	memoryCmd.AddCommand(memoryListCmd)

	memoryListCmd.Flags().StringVar(&memoryListLevel, "level", "", "rank memories for this level")
	memoryListCmd.Flags().StringVar(&memoryListKind, "kind", "", "filter by kind (memory, reflection)")
	memoryListCmd.Flags().IntVar(&memoryListLimit, "limit", 10, "number of memories to show")
	memoryListCmd.Flags().BoolVar(&memoryListJSON, "json", false, "output as JSON")
}

func openConfiguredStream() (*memory.Stream, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Memory.InMemory {
		return nil, nil, fmt.Errorf("memory.in_memory is set: nothing persisted to inspect")
	}
	return openStream(cfg)
}

func runMemoryStats(cmd *cobra.Command, args []string) error {
	stream, closeStream, err := openConfiguredStream()
	if err != nil {
		return err
	}
	defer closeStream()

	st := stream.Stats()
	fmt.Println("🧠 Memory Stream")
	fmt.Printf("   Memories:        %d\n", st.Memories)
	fmt.Printf("   Reflections:     %d\n", st.Reflections)
	fmt.Printf("   Mean importance: %.1f\n", st.MeanImportance)
	fmt.Printf("   High importance: %d\n", st.HighImportance)
	return nil
}

func runMemoryList(cmd *cobra.Command, args []string) error {
	stream, closeStream, err := openConfiguredStream()
	if err != nil {
		return err
	}
	defer closeStream()

	var records []*memory.Record
	if memoryListLevel != "" || memoryListKind != "" {
		records = stream.RetrieveRelevant(memory.Query{
			Level: memoryListLevel,
			Kind:  memory.Kind(memoryListKind),
			Limit: memoryListLimit,
		})
	} else {
		records = stream.Recent(memoryListLimit)
	}

	if memoryListJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling memories: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No memories yet. Run some episodes first.")
		return nil
	}

	for _, r := range records {
		kind := "💭"
		if r.Kind == memory.KindReflection {
			kind = "💡"
		}
		fmt.Printf("%s [%d] %s %s\n", kind, r.Importance,
			r.CreatedAt.Format("2006-01-02 15:04"), truncate(r.Summary, 70))
		if r.Learning != "" {
			fmt.Printf("       ↳ %s\n", truncate(r.Learning, 66))
		}
	}
	return nil
}
