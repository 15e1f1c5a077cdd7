// Package oracle talks to the LLM that decides the agent's next action.
// Providers share one contract: build a prompt from the current observation
// and retrieved memories, get structured JSON back, validate it against the
// action schema. Anything out of schema is a ContractError, never a panic.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/tarslab/boxpush/internal/sim"
)

// ErrUnavailable marks network and timeout failures talking to the
// provider. The controller substitutes a safe default action and keeps
// the episode going.
var ErrUnavailable = errors.New("oracle unavailable")

// ContractError reports a structurally invalid decision: unknown action
// type, out-of-range confidence, unparseable JSON. Handled like
// ErrUnavailable, but kept distinct for logs.
type ContractError struct {
	Reason string
	Raw    string
}

func (e *ContractError) Error() string {
	return "oracle contract violation: " + e.Reason
}

// Oracle is the decision provider interface.
type Oracle interface {
	// Name returns the provider name.
	Name() string

	// Decide picks the next action for the given observation.
	Decide(ctx context.Context, req *Request) (*Decision, error)

	// Reflect synthesizes a general lesson from a set of memory texts.
	Reflect(ctx context.Context, memories []string) (string, error)

	// HealthCheck verifies the provider is available.
	HealthCheck(ctx context.Context) error

	// Close releases any resources.
	Close() error
}

// Request is everything the oracle sees before deciding.
type Request struct {
	Level        string    `json:"level"`
	Goal         string    `json:"goal"`
	State        sim.State `json:"state"`
	Step         int       `json:"step"`
	MaxSteps     int       `json:"max_steps"`
	TimeLeftSec  float64   `json:"time_left_sec"`
	BarriersLeft int       `json:"barriers_left"`
	Memories     []string  `json:"memories,omitempty"`
	Reflections  []string  `json:"reflections,omitempty"`
	History      []string  `json:"history,omitempty"`
}

// Decision is the structured response. Confidence must land in [0,1] and
// Action must be one of the four known variants; Validate enforces both.
type Decision struct {
	Reasoning    string       `json:"reasoning"`
	Action       sim.Action   `json:"action"`
	Prediction   string       `json:"prediction,omitempty"`
	Confidence   float64      `json:"confidence"`
	Observations []string     `json:"observations,omitempty"`
	Strategy     string       `json:"strategy,omitempty"`
	Alternatives []sim.Action `json:"alternatives,omitempty"`
}

// Validate checks the decision against the schema contract.
func (d *Decision) Validate() error {
	if d.Confidence < 0 || d.Confidence > 1 {
		return &ContractError{Reason: fmt.Sprintf("confidence %v outside [0,1]", d.Confidence)}
	}
	if err := d.Action.Validate(); err != nil {
		return &ContractError{Reason: err.Error()}
	}
	return nil
}
