package commands

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tarslab/boxpush/internal/config"
	"github.com/tarslab/boxpush/internal/episode"
	"github.com/tarslab/boxpush/internal/history"
	"github.com/tarslab/boxpush/internal/level"
	"github.com/tarslab/boxpush/internal/logger"
	"github.com/tarslab/boxpush/internal/memory"
	"github.com/tarslab/boxpush/internal/metrics"
	"github.com/tarslab/boxpush/internal/oracle"
	"github.com/tarslab/boxpush/internal/reflection"
	"github.com/tarslab/boxpush/internal/worker"
	"github.com/tarslab/boxpush/internal/world"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run episodes on a level",
	Long: `Run one or more episodes of the box-pushing agent on a level.

The agent asks the configured oracle for a decision each step, applies
it to the simulated world, and seals the episode into memory and history
when it ends. Back-to-back episodes reuse the accumulated memories, so
later attempts benefit from earlier mistakes.

Examples:
  # One episode of the tutorial with the scripted oracle
  boxpush run

  # Ten episodes of the friction level
  boxpush run --level friction --episodes 10

  # Every level, in parallel
  boxpush run --all --episodes 5

  # Force the offline oracle regardless of config
  boxpush run --offline`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runLevel    string
	runEpisodes int
	runAll      bool
	runOffline  bool
	runMetrics  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runLevel, "level", "l", "", "level key to run (default from config)")
	runCmd.Flags().IntVarP(&runEpisodes, "episodes", "n", 0, "episodes to run (default from config)")
	runCmd.Flags().BoolVar(&runAll, "all", false, "run every level in parallel")
	runCmd.Flags().BoolVar(&runOffline, "offline", false, "use the scripted oracle")
	runCmd.Flags().BoolVar(&runMetrics, "metrics", false, "dump collected metrics as JSON after the run")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runLevel != "" {
		cfg.Run.Level = runLevel
	}
	if runEpisodes > 0 {
		cfg.Run.Episodes = runEpisodes
	}
	if runOffline {
		cfg.Oracle.Provider = "scripted"
	}

	log := newLogger(cfg)

	levels, err := loadLevelSet(cfg)
	if err != nil {
		return err
	}

	stream, closeStream, err := openStream(cfg)
	if err != nil {
		return err
	}
	defer closeStream()

	var hist *history.Store
	if cfg.History.Enabled {
		if err := ensureParentDir(cfg.History.Path); err != nil {
			return fmt.Errorf("creating history directory: %w", err)
		}
		hist, err = history.NewStore(history.StoreConfig{Path: cfg.History.Path})
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer func() { _ = hist.Close() }()
	}

	o, err := buildOracle(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = o.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runAll {
		err = runAllLevels(ctx, cfg, levels, o, stream, hist, log)
	} else {
		err = runOneLevel(ctx, cfg, levels, o, stream, hist, log)
	}

	if runMetrics {
		if raw, exportErr := metrics.Global().Export(); exportErr == nil {
			fmt.Println(string(raw))
		}
	}
	return err
}

func runOneLevel(ctx context.Context, cfg *config.Config, levels map[string]*level.Config, o oracle.Oracle, stream *memory.Stream, hist *history.Store, log *logger.Logger) error {
	lvl, ok := levels[cfg.Run.Level]
	if !ok {
		return fmt.Errorf("unknown level %q (try `boxpush levels`)", cfg.Run.Level)
	}

	ctrl := newController(cfg, o, stream, hist, log)
	episodes, err := ctrl.RunSeries(ctx, lvl, cfg.Run.Episodes)

	for i, ep := range episodes {
		printEpisode(i+1, len(episodes), ep)
	}
	printSessionSummary(lvl.Key, episodes)

	if err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	return nil
}

func runAllLevels(ctx context.Context, cfg *config.Config, levels map[string]*level.Config, o oracle.Oracle, stream *memory.Stream, hist *history.Store, log *logger.Logger) error {
	pool := worker.NewPool(worker.Config{Workers: cfg.Run.Parallel})
	pool.Start()
	defer pool.Stop()

	// One controller per level: a controller admits one episode at a time.
	// The oracle, stream and history store are shared and concurrency-safe.
	tasks := make([]*worker.SessionTask, 0, len(levels))
	for _, key := range level.Keys(levels) {
		task := worker.NewSessionTask(levels[key], cfg.Run.Episodes, newController(cfg, o, stream, hist, log))
		tasks = append(tasks, task)
		if err := pool.Submit(task); err != nil {
			return fmt.Errorf("submitting session for %s: %w", key, err)
		}
	}

	var firstErr error
	for range tasks {
		select {
		case r := <-pool.Results():
			if r.Error != nil && firstErr == nil {
				firstErr = r.Error
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID() < tasks[j].ID() })
	fmt.Println()
	for _, task := range tasks {
		res := task.Result()
		if res == nil {
			continue
		}
		printSessionSummary(res.Level, res.Episodes)
	}

	return firstErr
}

func newController(cfg *config.Config, o oracle.Oracle, stream *memory.Stream, hist *history.Store, log *logger.Logger) *episode.Controller {
	refl := reflection.New(o, stream, reflection.Config{
		Every: cfg.Memory.ReflectEvery,
	}, log)

	return episode.New(world.NewKinematic(), o, stream, refl, hist, episode.Config{
		OracleTimeout: cfg.Run.OracleTimeout,
		TickSec:       cfg.Run.TickSec,
		RetrieveLimit: cfg.Run.RetrieveLimit,
	}, log)
}

func printEpisode(n, total int, ep *episode.Episode) {
	if isQuiet() || ep.Outcome == nil {
		return
	}
	mark := "✗"
	detail := "failure"
	if ep.Outcome.Success {
		mark = "✓"
		detail = "success"
	} else if ep.Outcome.Cause != "" {
		detail = string(ep.Outcome.Cause)
	}
	fmt.Printf("%s episode %d/%d: %s in %d steps, reward %.1f (%.1fs)\n",
		mark, n, total, detail, len(ep.Steps), ep.Outcome.Reward, ep.ElapsedSec)
}

func printSessionSummary(levelKey string, episodes []*episode.Episode) {
	if isQuiet() || len(episodes) == 0 {
		return
	}
	successes := 0
	best := 0.0
	total := 0.0
	for i, ep := range episodes {
		if ep.Outcome == nil {
			continue
		}
		if ep.Outcome.Success {
			successes++
		}
		if i == 0 || ep.Outcome.Reward > best {
			best = ep.Outcome.Reward
		}
		total += ep.Outcome.Reward
	}
	fmt.Printf("\n📦 %s: %d/%d succeeded, best reward %.1f, mean %.1f\n",
		levelKey, successes, len(episodes), best, total/float64(len(episodes)))
}
