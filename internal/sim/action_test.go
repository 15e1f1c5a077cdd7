package sim

import (
	"math"
	"strings"
	"testing"
)

func TestNewPush(t *testing.T) {
	tests := []struct {
		name     string
		fx, fy   float64
		duration float64
		wantErr  bool
	}{
		{"valid", 50, 0, 1000, false},
		{"zero duration defaults", 50, 10, 0, false},
		{"negative force ok", -80, 0, 200, false},
		{"force too large", 600, 0, 200, true},
		{"force NaN", math.NaN(), 0, 200, true},
		{"force Inf", math.Inf(1), 0, 200, true},
		{"duration negative", 50, 0, -1, true},
		{"duration too long", 50, 0, 10000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewPush(tt.fx, tt.fy, tt.duration)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPush() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if a.Type != ActionPush {
				t.Errorf("Type = %q, want push", a.Type)
			}
			if tt.duration == 0 && a.DurationMS != 200 {
				t.Errorf("DurationMS = %v, want default 200", a.DurationMS)
			}
		})
	}
}

func TestActionValidate(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{"push ok", Action{Type: ActionPush, ForceX: 50, DurationMS: 200}, false},
		{"push overload", Action{Type: ActionPush, ForceX: 9999, DurationMS: 200}, true},
		{"barrier ok", Action{Type: ActionBarrier, X: 400, Y: 300, AngleDeg: 45}, false},
		{"barrier NaN", Action{Type: ActionBarrier, X: math.NaN()}, true},
		{"wait ok", Action{Type: ActionWait}, false},
		{"observe ok", Action{Type: ActionObserve, Focus: "velocity"}, false},
		{"unknown tag", Action{Type: "teleport"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestActionLabel(t *testing.T) {
	push, _ := NewPush(50, 0, 1000)
	if got := push.Label(); !strings.HasPrefix(got, "push(") {
		t.Errorf("Label() = %q, want push(...)", got)
	}
	if got := NewWait("thinking").Label(); got != "wait" {
		t.Errorf("Label() = %q, want wait", got)
	}
}

func TestForceMagnitude(t *testing.T) {
	push, _ := NewPush(3, 4, 100)
	if got := push.ForceMagnitude(); got != 5 {
		t.Errorf("ForceMagnitude() = %v, want 5", got)
	}
	if got := NewWait("").ForceMagnitude(); got != 0 {
		t.Errorf("wait ForceMagnitude() = %v, want 0", got)
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(Point{X: 600, Y: 300}, Point{X: 625, Y: 300}); d != 25 {
		t.Errorf("Distance = %v, want 25", d)
	}
}
