// Package episode drives one attempt at a level: the state machine around
// the world, the oracle, the evaluator and the memory stream.
package episode

import (
	"time"

	"github.com/tarslab/boxpush/internal/oracle"
	"github.com/tarslab/boxpush/internal/sim"
	"github.com/tarslab/boxpush/internal/task"
)

// State is the controller state. Paused covers the oracle call: the
// simulation clock does not advance while a decision is outstanding.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Step is one (decision, action, resulting state) entry in the trace.
type Step struct {
	Index    int              `json:"index"`
	Action   sim.Action       `json:"action"`
	Decision *oracle.Decision `json:"decision,omitempty"`
	Result   sim.State        `json:"result"`
	Degraded bool             `json:"degraded,omitempty"`
	Note     string           `json:"note,omitempty"`
}

// Episode is one sealed attempt at one level.
type Episode struct {
	ID        string        `json:"id"`
	Level     string        `json:"level"`
	Initial   sim.State     `json:"initial"`
	Steps     []Step        `json:"steps"`
	Outcome   *task.Outcome `json:"outcome,omitempty"`
	StartedAt time.Time     `json:"started_at"`

	// ElapsedSec is simulated time only; oracle thinking never counts.
	ElapsedSec float64 `json:"elapsed_sec"`
}

// DegradedSteps counts steps where the oracle's answer was replaced by the
// safe default.
func (e *Episode) DegradedSteps() int {
	n := 0
	for _, s := range e.Steps {
		if s.Degraded {
			n++
		}
	}
	return n
}

// Actions returns the action sequence in order.
func (e *Episode) Actions() []sim.Action {
	actions := make([]sim.Action, len(e.Steps))
	for i, s := range e.Steps {
		actions[i] = s.Action
	}
	return actions
}

// States returns the per-step resulting states in order.
func (e *Episode) States() []sim.State {
	states := make([]sim.State, len(e.Steps))
	for i, s := range e.Steps {
		states[i] = s.Result
	}
	return states
}

// Final returns the last observed state, or the initial one for an episode
// with no steps.
func (e *Episode) Final() sim.State {
	if len(e.Steps) == 0 {
		return e.Initial
	}
	return e.Steps[len(e.Steps)-1].Result
}
