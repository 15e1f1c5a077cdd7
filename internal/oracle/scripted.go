package oracle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tarslab/boxpush/internal/sim"
)

// ScriptedOracle replays a fixed decision sequence. Offline mode and tests
// use it in place of a live provider; when the script runs out it repeats
// the last entry. Safe for concurrent use, so parallel sessions can share
// one instance.
type ScriptedOracle struct {
	decisions []Decision

	mu   sync.Mutex
	next int
}

// NewScriptedOracle builds an oracle over a fixed decision list.
func NewScriptedOracle(decisions ...Decision) *ScriptedOracle {
	return &ScriptedOracle{decisions: decisions}
}

// NewPushScript is the canonical offline script: push right with the given
// force every step.
func NewPushScript(forceX, forceY, durationMS float64) (*ScriptedOracle, error) {
	action, err := sim.NewPush(forceX, forceY, durationMS)
	if err != nil {
		return nil, fmt.Errorf("building push script: %w", err)
	}
	return NewScriptedOracle(Decision{
		Reasoning:  "scripted: constant push toward the goal",
		Action:     action,
		Confidence: 1.0,
		Strategy:   "constant push",
	}), nil
}

func (o *ScriptedOracle) Name() string { return "scripted" }

// Decide implements Oracle.
func (o *ScriptedOracle) Decide(ctx context.Context, req *Request) (*Decision, error) {
	if len(o.decisions) == 0 {
		return nil, &ContractError{Reason: "empty script"}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	o.mu.Lock()
	d := o.decisions[o.next]
	if o.next < len(o.decisions)-1 {
		o.next++
	}
	o.mu.Unlock()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Reflect implements Oracle. Scripted runs still need deterministic,
// non-empty reflection text.
func (o *ScriptedOracle) Reflect(ctx context.Context, memories []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Sprintf("Reviewed %d memories: %s", len(memories),
		strings.Join(firstN(memories, 2), "; ")), nil
}

func (o *ScriptedOracle) HealthCheck(ctx context.Context) error { return nil }

func (o *ScriptedOracle) Close() error { return nil }

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
