package level

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltIn(t *testing.T) {
	levels := BuiltIn()
	want := []string{"barrier", "friction", "obstacle", "tutorial"}
	got := Keys(levels)
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	for key, lvl := range levels {
		if err := lvl.Validate(); err != nil {
			t.Errorf("built-in level %q fails validation: %v", key, err)
		}
		if lvl.Key != key {
			t.Errorf("level %q has mismatched Key %q", key, lvl.Key)
		}
	}

	tut := levels["tutorial"]
	if tut.BoxPosition.X != 200 || tut.GoalPosition.X != 600 {
		t.Errorf("tutorial geometry = box %v goal %v", tut.BoxPosition, tut.GoalPosition)
	}
	if tut.MaxSteps != 20 || tut.TimeLimitSec != 60 {
		t.Errorf("tutorial budgets = %d steps / %vs", tut.MaxSteps, tut.TimeLimitSec)
	}
	if levels["friction"].Friction != 0.1 {
		t.Errorf("friction level Friction = %v, want 0.1", levels["friction"].Friction)
	}
	if levels["barrier"].BarrierBudget != 3 {
		t.Errorf("barrier level budget = %d, want 3", levels["barrier"].BarrierBudget)
	}
	if levels["barrier"].Gravity <= 0 {
		t.Errorf("barrier level gravity = %v, want > 0 (the chute needs a falling box)", levels["barrier"].Gravity)
	}
	for _, key := range []string{"tutorial", "friction", "obstacle"} {
		if g := levels[key].Gravity; g != 0 {
			t.Errorf("%s level gravity = %v, want 0 (top-down)", key, g)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing key", func(c *Config) { c.Key = "" }, "key"},
		{"zero goal radius", func(c *Config) { c.GoalRadius = 0 }, "goal_radius"},
		{"zero max steps", func(c *Config) { c.MaxSteps = 0 }, "max_steps"},
		{"negative budget", func(c *Config) { c.BarrierBudget = -1 }, "barrier_budget"},
		{"zero mass", func(c *Config) { c.BoxMass = 0 }, "box_mass"},
		{"negative gravity", func(c *Config) { c.Gravity = -10 }, "gravity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lvl := BuiltIn()["tutorial"]
			tt.mutate(lvl)
			err := lvl.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "levels.yaml")
	doc := `levels:
  - key: custom
    name: Custom
    box_position: {x: 100, y: 100}
    goal_position: {x: 700, y: 100}
    goal_radius: 25
    box_mass: 5
    friction: 0.4
    time_limit_sec: 45
    max_steps: 15
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	levels, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(levels) != 5 {
		t.Fatalf("got %d levels, want built-ins + custom = 5", len(levels))
	}
	custom := levels["custom"]
	if custom == nil {
		t.Fatal("custom level missing after load")
	}
	if custom.GoalPosition.X != 700 || custom.MaxSteps != 15 {
		t.Errorf("custom level parsed wrong: %+v", custom)
	}
}

func TestLoadFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	doc := `levels:
  - key: broken
    goal_radius: 0
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() = nil error for invalid level")
	}
}

func TestGet(t *testing.T) {
	if _, err := Get("tutorial"); err != nil {
		t.Errorf("Get(tutorial) error = %v", err)
	}
	if _, err := Get("nope"); err == nil {
		t.Error("Get(nope) = nil error")
	}
}
