// Package task evaluates sealed episodes: success and failure predicates,
// reward shaping, and strategy-signature novelty.
package task

import (
	"math"
	"sync"

	"github.com/tarslab/boxpush/internal/level"
	"github.com/tarslab/boxpush/internal/sim"
)

// FailureCause classifies why an episode failed.
type FailureCause string

const (
	CauseNone         FailureCause = ""
	CauseOutOfBounds  FailureCause = "out_of_bounds"
	CauseTimeout      FailureCause = "timeout"
	CauseStepLimit    FailureCause = "step_limit_exceeded"
	CauseWorldFailure FailureCause = "world_apply_failure"
)

// Velocity sign reversals below this magnitude (px/s) are jitter, not
// direction changes, for the smoothness bonus.
const jitterThreshold = 20.0

// Trace is the evaluator's view of a sealed episode. The controller builds
// one when the episode terminates; the evaluator never mutates it.
type Trace struct {
	Level       *level.Config
	Initial     sim.State
	Final       sim.State
	Actions     []sim.Action
	States      []sim.State
	Steps       int
	ElapsedSec  float64
	WorldFailed bool
}

// Outcome is the full evaluation of one episode. The predicate fields are
// independent facts; Cause is the first one that fired in priority order.
type Outcome struct {
	Success bool         `json:"success"`
	Cause   FailureCause `json:"cause,omitempty"`

	OutOfBounds bool `json:"out_of_bounds"`
	Timeout     bool `json:"timeout"`
	StepLimit   bool `json:"step_limit"`

	Reward          float64 `json:"reward"`
	StrategyHash    string  `json:"strategy_hash"`
	Novel           bool    `json:"novel"`
	Smooth          bool    `json:"smooth"`
	InitialDistance float64 `json:"initial_distance"`
	FinalDistance   float64 `json:"final_distance"`
	TotalForce      float64 `json:"total_force"`
}

// Evaluator computes Outcomes. It carries the set of strategy signatures
// seen so far, so the novelty bonus fires once per distinct signature
// across the run.
type Evaluator struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewEvaluator returns an evaluator with an empty novelty history.
func NewEvaluator() *Evaluator {
	return &Evaluator{seen: make(map[string]bool)}
}

// Evaluate classifies a sealed trace and computes its reward.
func (e *Evaluator) Evaluate(tr *Trace) Outcome {
	lvl := tr.Level
	out := Outcome{
		InitialDistance: tr.Initial.GoalDistance(),
		FinalDistance:   tr.Final.GoalDistance(),
		StrategyHash:    Signature(tr.Actions),
	}

	pos := tr.Final.Box.Position
	out.OutOfBounds = pos.Y > level.LowerBound ||
		pos.X < level.LeftMargin || pos.X > level.RightMargin
	out.Timeout = tr.ElapsedSec > lvl.TimeLimitSec
	out.StepLimit = tr.Steps >= lvl.MaxSteps

	out.Success = !out.OutOfBounds && out.FinalDistance < lvl.GoalRadius

	if !out.Success {
		switch {
		case out.OutOfBounds:
			out.Cause = CauseOutOfBounds
		case out.Timeout:
			out.Cause = CauseTimeout
		case out.StepLimit:
			out.Cause = CauseStepLimit
		case tr.WorldFailed:
			out.Cause = CauseWorldFailure
		}
	}

	for _, a := range tr.Actions {
		out.TotalForce += a.ForceMagnitude()
	}
	out.Smooth = smooth(tr.States)
	out.Novel = e.markSeen(out.StrategyHash)
	out.Reward = reward(lvl, &out, tr.Steps)
	return out
}

// markSeen records a signature and reports whether it was new.
func (e *Evaluator) markSeen(sig string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seen[sig] {
		return false
	}
	e.seen[sig] = true
	return true
}

// reward sums the shaping terms. No clamping: a bad episode goes negative.
func reward(lvl *level.Config, out *Outcome, steps int) float64 {
	var r float64
	if out.Success {
		r += 100
		r += math.Max(0, 50-float64(steps)*2)
	}
	if out.Smooth {
		r += 20
	}
	r += (out.InitialDistance - out.FinalDistance) * 0.5
	if out.Novel {
		r += 30
	}
	if out.OutOfBounds {
		r -= 50
	}
	if out.Timeout {
		r -= 20
	}
	if lvl.ExcessiveForce > 0 && out.TotalForce > lvl.ExcessiveForce {
		r -= 10
	}
	return r
}

// smooth reports whether the velocity trace has no axis sign reversal
// where both sides of the reversal exceed the jitter threshold.
func smooth(states []sim.State) bool {
	for i := 1; i < len(states); i++ {
		prev, cur := states[i-1].Box.Velocity, states[i].Box.Velocity
		if reversal(prev.X, cur.X) || reversal(prev.Y, cur.Y) {
			return false
		}
	}
	return true
}

func reversal(a, b float64) bool {
	return a*b < 0 && math.Abs(a) > jitterThreshold && math.Abs(b) > jitterThreshold
}
