package sim

import (
	"fmt"
	"math"
)

// ActionType tags the Action union.
type ActionType string

const (
	ActionPush    ActionType = "push"
	ActionBarrier ActionType = "barrier"
	ActionWait    ActionType = "wait"
	ActionObserve ActionType = "observe"
)

// Action is a tagged union over the four moves the agent can make.
// Only the fields valid for the tag are ever set; use the constructors
// so malformed payloads are rejected before they reach the world.
type Action struct {
	Type ActionType `json:"type"`

	// Push
	ForceX     float64 `json:"force_x,omitempty"`
	ForceY     float64 `json:"force_y,omitempty"`
	DurationMS float64 `json:"duration_ms,omitempty"`

	// Barrier
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	AngleDeg float64 `json:"angle_deg,omitempty"`

	// Wait
	Reason string `json:"reason,omitempty"`

	// Observe
	Focus string `json:"focus,omitempty"`
}

// Push limits. Forces outside this range are either typos from the oracle
// or attempts to launch the box off-screen; both are rejected.
const (
	MaxForce      = 500.0
	MaxDurationMS = 5000.0
)

// NewPush builds a push action. Duration defaults to 200ms when zero.
func NewPush(fx, fy, durationMS float64) (Action, error) {
	if math.IsNaN(fx) || math.IsNaN(fy) || math.IsInf(fx, 0) || math.IsInf(fy, 0) {
		return Action{}, fmt.Errorf("push force must be finite, got (%v, %v)", fx, fy)
	}
	if math.Abs(fx) > MaxForce || math.Abs(fy) > MaxForce {
		return Action{}, fmt.Errorf("push force (%.1f, %.1f) exceeds limit %.0f", fx, fy, MaxForce)
	}
	if durationMS < 0 || durationMS > MaxDurationMS {
		return Action{}, fmt.Errorf("push duration %.0fms out of range [0, %.0f]", durationMS, MaxDurationMS)
	}
	if durationMS == 0 {
		durationMS = 200
	}
	return Action{Type: ActionPush, ForceX: fx, ForceY: fy, DurationMS: durationMS}, nil
}

// NewBarrier builds a barrier placement action.
func NewBarrier(x, y, angleDeg float64) (Action, error) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(angleDeg) {
		return Action{}, fmt.Errorf("barrier parameters must be finite")
	}
	return Action{Type: ActionBarrier, X: x, Y: y, AngleDeg: angleDeg}, nil
}

// NewWait builds a wait action.
func NewWait(reason string) Action {
	return Action{Type: ActionWait, Reason: reason}
}

// NewObserve builds an observe action.
func NewObserve(focus string) Action {
	if focus == "" {
		focus = "state"
	}
	return Action{Type: ActionObserve, Focus: focus}
}

// Label returns a compact human-readable form used in memories and prompts.
func (a Action) Label() string {
	switch a.Type {
	case ActionPush:
		return fmt.Sprintf("push(%.0f,%.0f,%.0fms)", a.ForceX, a.ForceY, a.DurationMS)
	case ActionBarrier:
		return fmt.Sprintf("barrier(%.0f,%.0f,%.0f°)", a.X, a.Y, a.AngleDeg)
	case ActionWait:
		return "wait"
	case ActionObserve:
		return "observe(" + a.Focus + ")"
	default:
		return string(a.Type)
	}
}

// ForceMagnitude returns the applied force magnitude; zero for non-push
// actions.
func (a Action) ForceMagnitude() float64 {
	if a.Type != ActionPush {
		return 0
	}
	return Vec{X: a.ForceX, Y: a.ForceY}.Magnitude()
}

// Validate checks the tag is known and tag-specific fields are usable.
func (a Action) Validate() error {
	switch a.Type {
	case ActionPush:
		_, err := NewPush(a.ForceX, a.ForceY, a.DurationMS)
		return err
	case ActionBarrier:
		_, err := NewBarrier(a.X, a.Y, a.AngleDeg)
		return err
	case ActionWait, ActionObserve:
		return nil
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}
