// Package reflection turns batches of episode memories into higher-level
// lessons. Synthesis goes through the decision oracle; when the oracle is
// unreachable a deterministic heuristic produces the lesson instead, so a
// reflection is always non-empty.
package reflection

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tarslab/boxpush/internal/logger"
	"github.com/tarslab/boxpush/internal/memory"
	"github.com/tarslab/boxpush/internal/oracle"
	"github.com/tarslab/boxpush/internal/task"
)

// Config tunes the trigger policy and synthesis window.
type Config struct {
	// Every fires a reflection after this many sealed episodes.
	Every int
	// FailureImportance fires early when a failure memory of at least
	// this importance lands since the last reflection.
	FailureImportance int
	// Window is how many recent memories feed one synthesis.
	Window int
	// FallbackWindow is how many recent failures the heuristic examines.
	FallbackWindow int
}

// DefaultConfig returns the standard trigger policy.
func DefaultConfig() Config {
	return Config{
		Every:             3,
		FailureImportance: 8,
		Window:            10,
		FallbackWindow:    5,
	}
}

// Engine owns the trigger state and the synthesis path.
type Engine struct {
	oracle oracle.Oracle
	stream *memory.Stream
	cfg    Config
	log    *logger.Logger

	mu         sync.Mutex
	sealed     int
	hotFailure bool
}

// New creates a reflection engine over the given oracle and stream.
func New(o oracle.Oracle, stream *memory.Stream, cfg Config, log *logger.Logger) *Engine {
	if cfg.Every <= 0 {
		cfg.Every = DefaultConfig().Every
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.FallbackWindow <= 0 {
		cfg.FallbackWindow = DefaultConfig().FallbackWindow
	}
	if log == nil {
		log = logger.Default()
	}
	return &Engine{oracle: o, stream: stream, cfg: cfg, log: log.WithPrefix("REFLECT")}
}

// NoteEpisode updates the trigger state after a sealed episode. rec is the
// memory the controller appended for that episode.
func (e *Engine) NoteEpisode(rec *memory.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sealed++
	if rec != nil && strings.HasPrefix(rec.Outcome, "failure") &&
		e.cfg.FailureImportance > 0 && rec.Importance >= e.cfg.FailureImportance {
		e.hotFailure = true
	}
}

// ShouldReflect reports whether the trigger policy has fired: every N
// sealed episodes, or earlier on a high-importance failure.
func (e *Engine) ShouldReflect() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sealed >= e.cfg.Every || e.hotFailure
}

// Reflect synthesizes one reflection from recent memories, appends it to
// the stream and resets the trigger. The oracle path and the fallback path
// both produce non-empty text; only the append can fail.
func (e *Engine) Reflect(ctx context.Context) (*memory.Record, error) {
	recent := recentMemories(e.stream, e.cfg.Window)
	if len(recent) == 0 {
		return nil, fmt.Errorf("no memories to reflect on")
	}

	text := e.synthesize(ctx, recent)

	rec := &memory.Record{
		Kind:       memory.KindReflection,
		Summary:    text,
		Importance: 8,
	}
	if err := e.stream.Append(rec); err != nil {
		return nil, fmt.Errorf("storing reflection: %w", err)
	}

	e.mu.Lock()
	e.sealed = 0
	e.hotFailure = false
	e.mu.Unlock()

	e.log.Info("reflection stored: %s", text)
	return rec, nil
}

func (e *Engine) synthesize(ctx context.Context, recent []*memory.Record) string {
	texts := make([]string, 0, len(recent))
	for _, r := range recent {
		texts = append(texts, describe(r))
	}

	if e.oracle != nil {
		text, err := e.oracle.Reflect(ctx, texts)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		if err != nil {
			e.log.Warn("oracle reflection failed, using heuristic: %v", err)
		}
	}
	return Fallback(recent, e.cfg.FallbackWindow)
}

// Fallback is the deterministic heuristic: find the dominant cause among
// the last k failures and map it to a lesson. Same memory set, same text.
func Fallback(memories []*memory.Record, k int) string {
	counts := map[task.FailureCause]int{}
	failures := 0
	for i := len(memories) - 1; i >= 0 && failures < k; i-- {
		r := memories[i]
		if r.Kind != memory.KindMemory || !strings.HasPrefix(r.Outcome, "failure") {
			continue
		}
		failures++
		for _, cause := range []task.FailureCause{
			task.CauseOutOfBounds, task.CauseTimeout,
			task.CauseStepLimit, task.CauseWorldFailure,
		} {
			if strings.Contains(r.Outcome, string(cause)) {
				counts[cause]++
				break
			}
		}
	}

	if failures == 0 {
		return "Recent attempts are succeeding; keep the current strategy and favor fewer, smoother pushes."
	}

	dominant, max := task.CauseNone, 0
	// Fixed check order keeps ties deterministic.
	for _, cause := range []task.FailureCause{
		task.CauseOutOfBounds, task.CauseTimeout,
		task.CauseStepLimit, task.CauseWorldFailure,
	} {
		if counts[cause] > max {
			dominant, max = cause, counts[cause]
		}
	}

	switch dominant {
	case task.CauseOutOfBounds:
		return "Recent failures pushed the box off the field; reduce force magnitude and use shorter pushes near the edges."
	case task.CauseTimeout:
		return "Recent failures ran out of time; commit to a stronger initial push instead of waiting and observing."
	case task.CauseStepLimit:
		return "Recent failures burned the step budget; plan a direct push toward the goal and cut exploratory actions."
	case task.CauseWorldFailure:
		return "Recent failures sent malformed actions to the world; keep forces and durations inside the documented limits."
	default:
		return fmt.Sprintf("Last %d attempts failed for mixed reasons; vary one parameter at a time to isolate the cause.", failures)
	}
}

func recentMemories(stream *memory.Stream, window int) []*memory.Record {
	recent := stream.Recent(window)
	out := make([]*memory.Record, 0, len(recent))
	for _, r := range recent {
		if r.Kind == memory.KindMemory {
			out = append(out, r)
		}
	}
	return out
}

func describe(r *memory.Record) string {
	parts := []string{r.Summary}
	if r.Action != "" {
		parts = append(parts, "action: "+r.Action)
	}
	if r.Outcome != "" {
		parts = append(parts, "outcome: "+r.Outcome)
	}
	if r.Learning != "" {
		parts = append(parts, "learning: "+r.Learning)
	}
	return strings.Join(parts, " | ")
}
