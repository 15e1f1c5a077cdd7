// Package level defines playfield configurations: box and goal placement,
// physics parameters, budgets and bounds. Four levels ship built in; extra
// levels can be loaded from a YAML file.
package level

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tarslab/boxpush/internal/sim"
)

// Playfield bounds shared by all levels. The box is out of bounds once it
// falls below the lower bound or drifts past the horizontal margins.
const (
	LowerBound  = 620.0
	LeftMargin  = -50.0
	RightMargin = 850.0
)

// Config describes one level.
type Config struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	BoxPosition  sim.Point `yaml:"box_position"`
	GoalPosition sim.Point `yaml:"goal_position"`
	GoalRadius   float64   `yaml:"goal_radius"`

	BoxMass     float64 `yaml:"box_mass"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
	AirDrag     float64 `yaml:"air_drag"`

	// Gravity is downward acceleration in px/s². Zero for top-down levels;
	// chute-building levels set it so the box falls toward the lower bound.
	Gravity float64 `yaml:"gravity"`

	TimeLimitSec  float64 `yaml:"time_limit_sec"`
	MaxSteps      int     `yaml:"max_steps"`
	BarrierBudget int     `yaml:"barrier_budget"`

	// ExcessiveForce is the cumulative applied-force magnitude above which
	// the reward takes the heavy-handedness penalty.
	ExcessiveForce float64 `yaml:"excessive_force"`

	Obstacles []sim.Obstacle `yaml:"obstacles"`
}

// Validate checks a level is runnable.
func (c *Config) Validate() error {
	if c.Key == "" {
		return &ValidationError{Field: "key", Message: "level key is required"}
	}
	if c.GoalRadius <= 0 {
		return &ValidationError{Field: "goal_radius", Message: "must be positive"}
	}
	if c.MaxSteps <= 0 {
		return &ValidationError{Field: "max_steps", Message: "must be positive"}
	}
	if c.TimeLimitSec <= 0 {
		return &ValidationError{Field: "time_limit_sec", Message: "must be positive"}
	}
	if c.BarrierBudget < 0 {
		return &ValidationError{Field: "barrier_budget", Message: "cannot be negative"}
	}
	if c.BoxMass <= 0 {
		return &ValidationError{Field: "box_mass", Message: "must be positive"}
	}
	if c.Gravity < 0 {
		return &ValidationError{Field: "gravity", Message: "cannot be negative"}
	}
	return nil
}

// ValidationError reports an invalid level field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "level validation error: " + e.Field + ": " + e.Message
}

// BuiltIn returns the four stock levels keyed by name.
func BuiltIn() map[string]*Config {
	return map[string]*Config{
		"tutorial": {
			Key:            "tutorial",
			Name:           "Basics: straight line",
			Description:    "Push the box right, into the goal.",
			BoxPosition:    sim.Point{X: 200, Y: 300},
			GoalPosition:   sim.Point{X: 600, Y: 300},
			GoalRadius:     30,
			BoxMass:        10,
			Friction:       0.5,
			Restitution:    0.3,
			AirDrag:        0.02,
			TimeLimitSec:   60,
			MaxSteps:       20,
			ExcessiveForce: 1000,
		},
		"friction": {
			Key:            "friction",
			Name:           "Physics: low friction",
			Description:    "Keep a slippery box under control.",
			BoxPosition:    sim.Point{X: 200, Y: 300},
			GoalPosition:   sim.Point{X: 600, Y: 300},
			GoalRadius:     30,
			BoxMass:        10,
			Friction:       0.1,
			Restitution:    0.3,
			AirDrag:        0.02,
			TimeLimitSec:   80,
			MaxSteps:       30,
			ExcessiveForce: 1000,
		},
		"obstacle": {
			Key:            "obstacle",
			Name:           "Obstacle: wall in the way",
			Description:    "Route the box around the wall.",
			BoxPosition:    sim.Point{X: 200, Y: 300},
			GoalPosition:   sim.Point{X: 600, Y: 300},
			GoalRadius:     30,
			BoxMass:        10,
			Friction:       0.5,
			Restitution:    0.3,
			AirDrag:        0.02,
			TimeLimitSec:   100,
			MaxSteps:       40,
			ExcessiveForce: 1500,
			Obstacles: []sim.Obstacle{
				{Kind: sim.ObstacleWall, X: 400, Y: 200, Width: 20, Height: 400},
			},
		},
		"barrier": {
			Key:            "barrier",
			Name:           "Strategy: build a chute",
			Description:    "Place barriers to guide the box down to the goal.",
			BoxPosition:    sim.Point{X: 200, Y: 100},
			GoalPosition:   sim.Point{X: 600, Y: 500},
			GoalRadius:     30,
			BoxMass:        10,
			Friction:       0.3,
			Restitution:    0.3,
			AirDrag:        0.02,
			Gravity:        120,
			TimeLimitSec:   120,
			MaxSteps:       50,
			BarrierBudget:  3,
			ExcessiveForce: 1500,
			Obstacles: []sim.Obstacle{
				{Kind: sim.ObstaclePit, X: 400, Y: 550, Width: 100, Height: 50},
			},
		},
	}
}

// Keys returns the built-in level keys in sorted order.
func Keys(levels map[string]*Config) []string {
	keys := make([]string, 0, len(levels))
	for k := range levels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadFile reads extra levels from a YAML file and merges them over the
// built-ins. File entries with a key that collides with a built-in replace
// it.
func LoadFile(path string) (map[string]*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading levels file: %w", err)
	}

	var doc struct {
		Levels []*Config `yaml:"levels"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing levels file: %w", err)
	}

	levels := BuiltIn()
	for _, lvl := range doc.Levels {
		if err := lvl.Validate(); err != nil {
			return nil, fmt.Errorf("level %q: %w", lvl.Key, err)
		}
		levels[lvl.Key] = lvl
	}
	return levels, nil
}

// Get looks up a level by key from the built-ins.
func Get(key string) (*Config, error) {
	lvl, ok := BuiltIn()[key]
	if !ok {
		return nil, fmt.Errorf("unknown level %q (available: %v)", key, Keys(BuiltIn()))
	}
	return lvl, nil
}
