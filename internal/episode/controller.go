package episode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tarslab/boxpush/internal/history"
	"github.com/tarslab/boxpush/internal/level"
	"github.com/tarslab/boxpush/internal/logger"
	"github.com/tarslab/boxpush/internal/memory"
	"github.com/tarslab/boxpush/internal/metrics"
	"github.com/tarslab/boxpush/internal/oracle"
	"github.com/tarslab/boxpush/internal/reflection"
	"github.com/tarslab/boxpush/internal/sim"
	"github.com/tarslab/boxpush/internal/task"
	"github.com/tarslab/boxpush/internal/world"
)

// Config tunes the controller.
type Config struct {
	// OracleTimeout bounds one decision call.
	OracleTimeout time.Duration
	// TickSec is the simulated time one non-push action covers.
	TickSec float64
	// RetrieveLimit caps memories fed into the oracle prompt.
	RetrieveLimit int
}

// DefaultConfig returns the standard controller tuning.
func DefaultConfig() Config {
	return Config{
		OracleTimeout: 30 * time.Second,
		TickSec:       0.5,
		RetrieveLimit: 5,
	}
}

// Controller runs episodes one at a time. The state machine guarantees at
// most one in-flight oracle call: Paused is entered before Decide and left
// after the action is chosen, and the world only advances in Running.
type Controller struct {
	world   world.World
	oracle  oracle.Oracle
	eval    *task.Evaluator
	stream  *memory.Stream
	reflect *reflection.Engine
	hist    *history.Store
	cfg     Config
	log     *logger.Logger

	mu    sync.Mutex
	state State
}

// New creates a controller. hist and reflect may be nil; the episode loop
// then skips persistence and reflection.
func New(w world.World, o oracle.Oracle, stream *memory.Stream, refl *reflection.Engine, hist *history.Store, cfg Config, log *logger.Logger) *Controller {
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = DefaultConfig().OracleTimeout
	}
	if cfg.TickSec <= 0 {
		cfg.TickSec = DefaultConfig().TickSec
	}
	if cfg.RetrieveLimit <= 0 {
		cfg.RetrieveLimit = DefaultConfig().RetrieveLimit
	}
	if log == nil {
		log = logger.Default()
	}
	return &Controller{
		world:   w,
		oracle:  o,
		eval:    task.NewEvaluator(),
		stream:  stream,
		reflect: refl,
		hist:    hist,
		cfg:     cfg,
		state:   StateIdle,
		log:     log.WithPrefix("EPISODE"),
	}
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// RunEpisode runs one full Idle→Running→terminal→Idle cycle on the given
// level and returns the sealed episode. Only a busy controller, a broken
// world reset or a cancelled context produce an error; oracle trouble and
// in-episode failures are data, not errors.
func (c *Controller) RunEpisode(ctx context.Context, lvl *level.Config) (*Episode, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, fmt.Errorf("controller busy: state %s", c.state)
	}
	c.state = StateRunning
	c.mu.Unlock()
	defer c.setState(StateIdle)

	active := metrics.Global().Gauge(metrics.MetricActiveEpisodes)
	active.Inc()
	defer active.Dec()

	initial, err := c.world.Reset(lvl)
	if err != nil {
		return nil, fmt.Errorf("resetting world for %s: %w", lvl.Key, err)
	}

	ep := &Episode{
		ID:        uuid.New().String(),
		Level:     lvl.Key,
		Initial:   initial,
		StartedAt: time.Now(),
	}
	log := c.log.WithField("episode", ep.ID[:8]).WithField("level", lvl.Key)
	log.Info("episode started")

	barriersPlaced := 0
	cur := initial
	worldFailed := false

	for {
		if cur.GoalContact {
			break
		}
		if outOfBounds(cur.Box.Position) {
			break
		}
		if cur.ElapsedSec > lvl.TimeLimitSec {
			break
		}
		if len(ep.Steps) >= lvl.MaxSteps {
			break
		}

		decision, degraded, err := c.decide(ctx, lvl, ep, cur, barriersPlaced)
		if err != nil {
			return nil, err
		}

		action := decision.Action
		note := ""
		applyErr := error(nil)

		switch action.Type {
		case sim.ActionPush:
			applyErr = c.world.ApplyForce(action.ForceX, action.ForceY, action.DurationMS/1000)
		case sim.ActionBarrier:
			if barriersPlaced >= lvl.BarrierBudget {
				// Rejected placement: the oracle used its turn anyway.
				note = "barrier budget exhausted"
				log.Warn("barrier rejected: budget %d exhausted", lvl.BarrierBudget)
			} else {
				applyErr = c.world.PlaceBarrier(sim.Barrier{
					Position: sim.Point{X: action.X, Y: action.Y},
					AngleDeg: action.AngleDeg,
				})
				if applyErr == nil {
					barriersPlaced++
				}
			}
		}

		if applyErr != nil {
			worldFailed = true
			metrics.IncCounter(metrics.MetricErrors)
			log.Error("world rejected action %s: %v", action.Label(), applyErr)
			ep.Steps = append(ep.Steps, Step{
				Index:    len(ep.Steps),
				Action:   action,
				Decision: decision,
				Result:   cur,
				Degraded: degraded,
				Note:     "world apply failure: " + applyErr.Error(),
			})
			break
		}

		dt := c.cfg.TickSec
		if action.Type == sim.ActionPush && action.DurationMS/1000 > dt {
			dt = action.DurationMS / 1000
		}
		next, advErr := c.world.Advance(dt)
		if advErr != nil {
			worldFailed = true
			metrics.IncCounter(metrics.MetricErrors)
			log.Error("world advance failed: %v", advErr)
			ep.Steps = append(ep.Steps, Step{
				Index:    len(ep.Steps),
				Action:   action,
				Decision: decision,
				Result:   cur,
				Degraded: degraded,
				Note:     "world apply failure: " + advErr.Error(),
			})
			break
		}
		next.Step = len(ep.Steps) + 1

		ep.Steps = append(ep.Steps, Step{
			Index:    len(ep.Steps),
			Action:   action,
			Decision: decision,
			Result:   next,
			Degraded: degraded,
			Note:     note,
		})
		cur = next
	}

	c.seal(ctx, ep, lvl, worldFailed)
	return ep, nil
}

// RunSeries runs n episodes back to back (the auto-reset loop), stopping
// early only when the context is cancelled.
func (c *Controller) RunSeries(ctx context.Context, lvl *level.Config, n int) ([]*Episode, error) {
	episodes := make([]*Episode, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return episodes, err
		}
		ep, err := c.RunEpisode(ctx, lvl)
		if err != nil {
			return episodes, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, nil
}

// decide pauses the clock, asks the oracle, and resumes. Unavailable and
// out-of-schema answers degrade to Wait; only a dead parent context aborts
// the episode.
func (c *Controller) decide(ctx context.Context, lvl *level.Config, ep *Episode, cur sim.State, barriersPlaced int) (*oracle.Decision, bool, error) {
	c.setState(StatePaused)
	defer c.setState(StateRunning)

	req := c.buildRequest(lvl, ep, cur, barriersPlaced)

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.OracleTimeout)
	defer cancel()

	metrics.IncCounter(metrics.MetricOracleRequests)
	start := time.Now()
	decision, err := c.oracle.Decide(callCtx, req)
	metrics.ObserveHistogram(metrics.MetricOracleLatency, time.Since(start).Seconds())

	if err != nil {
		metrics.IncCounter(metrics.MetricOracleErrors)
		if ctx.Err() != nil {
			return nil, false, fmt.Errorf("episode aborted: %w", ctx.Err())
		}
		c.log.Warn("oracle failed, substituting wait: %v", err)
		metrics.IncCounter(metrics.MetricDegradedSteps)
		return &oracle.Decision{
			Reasoning: "oracle degraded: " + err.Error(),
			Action:    sim.NewWait("oracle degraded"),
		}, true, nil
	}
	return decision, false, nil
}

func (c *Controller) buildRequest(lvl *level.Config, ep *Episode, cur sim.State, barriersPlaced int) *oracle.Request {
	var memories, reflections []string
	if c.stream != nil {
		for _, r := range c.stream.RetrieveRelevant(memory.Query{Level: lvl.Key, Limit: c.cfg.RetrieveLimit}) {
			switch r.Kind {
			case memory.KindReflection:
				reflections = append(reflections, r.Summary)
			default:
				text := r.Summary
				if r.Learning != "" {
					text += " (" + r.Learning + ")"
				}
				memories = append(memories, text)
			}
		}
	}

	past := make([]string, 0, len(ep.Steps))
	for _, s := range ep.Steps {
		past = append(past, s.Action.Label())
	}

	return &oracle.Request{
		Level:        lvl.Key,
		Goal:         lvl.Description,
		State:        cur,
		Step:         len(ep.Steps),
		MaxSteps:     lvl.MaxSteps,
		TimeLeftSec:  lvl.TimeLimitSec - cur.ElapsedSec,
		BarriersLeft: lvl.BarrierBudget - barriersPlaced,
		Memories:     memories,
		Reflections:  reflections,
		History:      past,
	}
}

// seal evaluates the finished episode, records memory and history, and
// triggers reflection per policy. Every terminal episode produces exactly
// one memory; failure is data too.
func (c *Controller) seal(ctx context.Context, ep *Episode, lvl *level.Config, worldFailed bool) {
	final := ep.Final()
	ep.ElapsedSec = final.ElapsedSec

	trace := &task.Trace{
		Level:       lvl,
		Initial:     ep.Initial,
		Final:       final,
		Actions:     ep.Actions(),
		States:      ep.States(),
		Steps:       len(ep.Steps),
		ElapsedSec:  ep.ElapsedSec,
		WorldFailed: worldFailed,
	}
	out := c.eval.Evaluate(trace)
	ep.Outcome = &out

	if out.Success {
		c.setState(StateSucceeded)
		metrics.IncCounter(metrics.MetricSuccessesTotal)
	} else {
		c.setState(StateFailed)
		metrics.IncCounter(metrics.MetricFailuresTotal)
	}
	metrics.IncCounter(metrics.MetricEpisodesTotal)
	metrics.ObserveHistogram(metrics.MetricEpisodeSteps, float64(len(ep.Steps)))
	metrics.ObserveHistogram(metrics.MetricEpisodeReward, out.Reward)
	metrics.ObserveHistogram(metrics.MetricEpisodeDuration, ep.ElapsedSec)
	metrics.SetGauge(metrics.MetricLastReward, out.Reward)

	outcomeText := "success"
	if !out.Success {
		outcomeText = "failure: " + string(out.Cause)
	}
	c.log.WithField("level", lvl.Key).Info("episode sealed: %s in %d steps, reward %.1f",
		outcomeText, len(ep.Steps), out.Reward)

	rec := &memory.Record{
		Kind:       memory.KindMemory,
		Level:      lvl.Key,
		Summary:    fmt.Sprintf("%s: %s in %d steps (reward %.0f)", lvl.Key, outcomeText, len(ep.Steps), out.Reward),
		Action:     lastActionLabel(ep),
		Outcome:    outcomeText,
		Learning:   learningOf(ep, &out),
		Importance: importanceOf(&out),
	}
	if c.stream != nil {
		if err := c.stream.Append(rec); err != nil {
			c.log.Error("recording memory: %v", err)
		} else {
			metrics.IncCounter(metrics.MetricMemoriesTotal)
		}
	}

	if c.hist != nil {
		hrec := &history.EpisodeRecord{
			EpisodeID:    ep.ID,
			Level:        lvl.Key,
			Success:      out.Success,
			Cause:        string(out.Cause),
			Reward:       out.Reward,
			Steps:        len(ep.Steps),
			DurationSec:  ep.ElapsedSec,
			StrategyHash: out.StrategyHash,
			Summary:      rec.Summary,
			Degraded:     ep.DegradedSteps(),
			CreatedAt:    time.Now(),
		}
		if err := c.hist.Store(ctx, hrec); err != nil {
			c.log.Error("recording history: %v", err)
		}
	}

	if c.reflect != nil {
		c.reflect.NoteEpisode(rec)
		if c.reflect.ShouldReflect() {
			if _, err := c.reflect.Reflect(ctx); err != nil {
				c.log.Warn("reflection skipped: %v", err)
			} else {
				metrics.IncCounter(metrics.MetricReflectionsTotal)
			}
		}
	}
}

func outOfBounds(p sim.Point) bool {
	return p.Y > level.LowerBound || p.X < level.LeftMargin || p.X > level.RightMargin
}

// importanceOf scores a sealed episode for retrieval. Surprising endings
// rank higher: falling off the field or crashing the world is worth more
// attention than a routine step-limit failure.
func importanceOf(out *task.Outcome) int {
	if out.Success {
		imp := 6
		if out.Novel {
			imp++
		}
		return imp
	}
	switch out.Cause {
	case task.CauseOutOfBounds, task.CauseWorldFailure:
		return 8
	default:
		return 6
	}
}

func lastActionLabel(ep *Episode) string {
	for i := len(ep.Steps) - 1; i >= 0; i-- {
		if ep.Steps[i].Action.Type != sim.ActionWait {
			return ep.Steps[i].Action.Label()
		}
	}
	if len(ep.Steps) > 0 {
		return ep.Steps[len(ep.Steps)-1].Action.Label()
	}
	return "none"
}

func lastStrategy(ep *Episode) string {
	for i := len(ep.Steps) - 1; i >= 0; i-- {
		if d := ep.Steps[i].Decision; d != nil && d.Strategy != "" {
			return d.Strategy
		}
	}
	return ""
}

// learningOf distills a one-line lesson from how the episode ended, falling
// back to the oracle's own strategy label when no pattern applies.
func learningOf(ep *Episode, out *task.Outcome) string {
	switch {
	case out.Success && len(ep.Steps) <= 5:
		return "fast win: a few decisive pushes reached the goal"
	case out.Success && barriersPlacedIn(ep) > 0:
		return "placed barriers guided the box in"
	case out.Cause == task.CauseOutOfBounds && out.FinalDistance < out.InitialDistance:
		return "overshot past the goal; use shorter pushes near the target"
	case out.Cause == task.CauseTimeout && out.InitialDistance-out.FinalDistance < 50:
		return "too slow: the box barely moved before time ran out"
	}
	return lastStrategy(ep)
}

// barriersPlacedIn counts barrier actions that the world actually accepted.
func barriersPlacedIn(ep *Episode) int {
	n := 0
	for _, s := range ep.Steps {
		if s.Action.Type == sim.ActionBarrier && s.Note == "" && !s.Degraded {
			n++
		}
	}
	return n
}
