package task

import (
	"testing"

	"github.com/tarslab/boxpush/internal/level"
	"github.com/tarslab/boxpush/internal/sim"
)

func trace(t *testing.T, mutate func(*Trace)) *Trace {
	t.Helper()
	lvl, err := level.Get("tutorial")
	if err != nil {
		t.Fatal(err)
	}
	initial := sim.State{
		Box:  sim.BoxState{Position: lvl.BoxPosition},
		Goal: sim.GoalState{Position: lvl.GoalPosition, Radius: lvl.GoalRadius},
	}
	final := initial
	tr := &Trace{
		Level:      lvl,
		Initial:    initial,
		Final:      final,
		Steps:      5,
		ElapsedSec: 10,
	}
	if mutate != nil {
		mutate(tr)
	}
	return tr
}

func at(x, y float64) sim.State {
	return sim.State{
		Box:  sim.BoxState{Position: sim.Point{X: x, Y: y}},
		Goal: sim.GoalState{Position: sim.Point{X: 600, Y: 300}, Radius: 30},
	}
}

func TestSuccessPredicate(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		success bool
	}{
		{"inside radius", 625, 300, true},
		{"outside radius", 635, 300, false},
		{"on boundary is not inside", 630, 300, false},
		{"dead center", 600, 300, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator()
			out := e.Evaluate(trace(t, func(tr *Trace) {
				tr.Final = at(tt.x, tt.y)
			}))
			if out.Success != tt.success {
				t.Errorf("Success = %v, want %v (distance %v)", out.Success, tt.success, out.FinalDistance)
			}
		})
	}
}

func TestFailurePriority(t *testing.T) {
	e := NewEvaluator()
	// Out of bounds AND over the step limit: OutOfBounds wins.
	out := e.Evaluate(trace(t, func(tr *Trace) {
		tr.Final = at(300, 700)
		tr.Steps = 25
	}))
	if out.Cause != CauseOutOfBounds {
		t.Errorf("Cause = %q, want %q", out.Cause, CauseOutOfBounds)
	}
	if !out.OutOfBounds || !out.StepLimit {
		t.Errorf("predicate facts lost: oob=%v steplimit=%v", out.OutOfBounds, out.StepLimit)
	}

	out = e.Evaluate(trace(t, func(tr *Trace) {
		tr.ElapsedSec = 90
		tr.Steps = 25
	}))
	if out.Cause != CauseTimeout {
		t.Errorf("Cause = %q, want %q", out.Cause, CauseTimeout)
	}

	out = e.Evaluate(trace(t, func(tr *Trace) {
		tr.Steps = 20
	}))
	if out.Cause != CauseStepLimit {
		t.Errorf("Cause = %q, want %q", out.Cause, CauseStepLimit)
	}

	out = e.Evaluate(trace(t, func(tr *Trace) {
		tr.WorldFailed = true
	}))
	if out.Cause != CauseWorldFailure {
		t.Errorf("Cause = %q, want %q", out.Cause, CauseWorldFailure)
	}
}

func TestRewardSuccessBase(t *testing.T) {
	e := NewEvaluator()
	out := e.Evaluate(trace(t, func(tr *Trace) {
		tr.Final = at(600, 300)
		tr.Steps = 5
	}))
	if !out.Success {
		t.Fatal("expected success")
	}
	// 100 base + 40 time bonus + 20 smooth + 200 distance + 30 novelty.
	want := 100.0 + 40 + 20 + (400.0 * 0.5) + 30
	if out.Reward != want {
		t.Errorf("Reward = %v, want %v", out.Reward, want)
	}
}

func TestRewardMonotonicInSteps(t *testing.T) {
	prev := 1e12
	for steps := 1; steps <= 30; steps++ {
		e := NewEvaluator()
		out := e.Evaluate(trace(t, func(tr *Trace) {
			tr.Final = at(600, 300)
			tr.Steps = steps
		}))
		if out.Reward > prev {
			t.Fatalf("reward increased with more steps: %d steps -> %v (prev %v)", steps, out.Reward, prev)
		}
		prev = out.Reward
	}

	// Time bonus floors at zero from 25 steps on.
	rewardAt := func(steps int) float64 {
		e := NewEvaluator()
		return e.Evaluate(trace(t, func(tr *Trace) {
			tr.Final = at(600, 300)
			tr.Steps = steps
		})).Reward
	}
	if rewardAt(25) != rewardAt(29) {
		t.Errorf("time bonus not floored: %v vs %v", rewardAt(25), rewardAt(29))
	}
}

func TestNoveltyFiresOnce(t *testing.T) {
	e := NewEvaluator()
	actions := []sim.Action{
		{Type: sim.ActionPush, ForceX: 50, DurationMS: 1000},
		{Type: sim.ActionPush, ForceX: 50, DurationMS: 1000},
	}
	first := e.Evaluate(trace(t, func(tr *Trace) { tr.Actions = actions }))
	second := e.Evaluate(trace(t, func(tr *Trace) { tr.Actions = actions }))
	if !first.Novel {
		t.Error("first occurrence not marked novel")
	}
	if second.Novel {
		t.Error("second occurrence marked novel")
	}
	if got := first.Reward - second.Reward; got != 30 {
		t.Errorf("novelty bonus delta = %v, want 30", got)
	}
}

func TestPenalties(t *testing.T) {
	e := NewEvaluator()
	base := e.Evaluate(trace(t, nil))

	e = NewEvaluator()
	// (600,700) keeps the goal distance at 400, so only the penalty differs.
	oob := e.Evaluate(trace(t, func(tr *Trace) { tr.Final = at(600, 700) }))
	if got := base.Reward - oob.Reward; got != 50 {
		t.Errorf("out-of-bounds penalty delta = %v, want 50", got)
	}

	e = NewEvaluator()
	to := e.Evaluate(trace(t, func(tr *Trace) { tr.ElapsedSec = 90 }))
	if got := base.Reward - to.Reward; got != 20 {
		t.Errorf("timeout penalty delta = %v, want 20", got)
	}

	e = NewEvaluator()
	heavy := e.Evaluate(trace(t, func(tr *Trace) {
		for i := 0; i < 3; i++ {
			tr.Actions = append(tr.Actions, sim.Action{Type: sim.ActionPush, ForceX: 400, DurationMS: 200})
		}
	}))
	// Same signature cost aside, heavy handling loses the 10-point penalty.
	if heavy.TotalForce <= 1000 {
		t.Fatalf("test setup wrong: TotalForce = %v", heavy.TotalForce)
	}
	if got := base.Reward - heavy.Reward; got != 10 {
		t.Errorf("excessive force penalty delta = %v, want 10", got)
	}
}

func TestSmoothness(t *testing.T) {
	forward := []sim.State{
		{Box: sim.BoxState{Velocity: sim.Vec{X: 100}}},
		{Box: sim.BoxState{Velocity: sim.Vec{X: 80}}},
		{Box: sim.BoxState{Velocity: sim.Vec{X: 60}}},
	}
	if !smooth(forward) {
		t.Error("monotone decel marked jerky")
	}

	jerky := []sim.State{
		{Box: sim.BoxState{Velocity: sim.Vec{X: 100}}},
		{Box: sim.BoxState{Velocity: sim.Vec{X: -90}}},
	}
	if smooth(jerky) {
		t.Error("hard reversal marked smooth")
	}

	jitter := []sim.State{
		{Box: sim.BoxState{Velocity: sim.Vec{X: 15}}},
		{Box: sim.BoxState{Velocity: sim.Vec{X: -10}}},
	}
	if !smooth(jitter) {
		t.Error("sub-threshold jitter marked jerky")
	}
}

func TestSignatureBuckets(t *testing.T) {
	a := []sim.Action{{Type: sim.ActionPush, ForceX: 50, ForceY: 0, DurationMS: 1000}}
	sameBucket := []sim.Action{{Type: sim.ActionPush, ForceX: 60, ForceY: 0, DurationMS: 1100}}
	otherBucket := []sim.Action{{Type: sim.ActionPush, ForceX: 200, ForceY: 0, DurationMS: 1000}}

	if Signature(a) != Signature(sameBucket) {
		t.Error("nearby parameters should share a signature")
	}
	if Signature(a) == Signature(otherBucket) {
		t.Error("distant parameters should not share a signature")
	}
	if Signature(a) == Signature([]sim.Action{{Type: sim.ActionWait}}) {
		t.Error("different action types should not share a signature")
	}
	if Signature(a) != Signature(a) {
		t.Error("signature not deterministic")
	}
	if Signature(nil) != Signature([]sim.Action{}) {
		t.Error("empty sequences should share a signature")
	}
}
