// Package sim defines the simulation data model shared by the world,
// the evaluator and the decision oracle: positions, velocities, obstacles
// and the per-tick state snapshot.
package sim

import "math"

// Point is a 2D position in playfield coordinates (pixels, y grows down).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec is a 2D vector (velocity or force).
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Magnitude returns the length of the vector.
func (v Vec) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// BoxState describes the pushed box at one tick.
type BoxState struct {
	Position Point   `json:"position"`
	Velocity Vec     `json:"velocity"`
	Mass     float64 `json:"mass"`
	Friction float64 `json:"friction"`
}

// GoalState describes the capture target.
type GoalState struct {
	Position Point   `json:"position"`
	Radius   float64 `json:"radius"`
}

// ObstacleKind distinguishes the two obstacle shapes a level may carry.
type ObstacleKind string

const (
	ObstacleWall ObstacleKind = "wall"
	ObstaclePit  ObstacleKind = "pit"
)

// Obstacle is an axis-aligned rectangle the box collides with (wall) or
// falls into (pit).
type Obstacle struct {
	Kind   ObstacleKind `json:"kind" yaml:"kind"`
	X      float64      `json:"x" yaml:"x"`
	Y      float64      `json:"y" yaml:"y"`
	Width  float64      `json:"width" yaml:"width"`
	Height float64      `json:"height" yaml:"height"`
}

// Barrier is a placed guide segment.
type Barrier struct {
	Position Point   `json:"position"`
	AngleDeg float64 `json:"angle_deg"`
}

// State is the read-only snapshot the world produces every tick.
// Contact flags cover the tick that produced the snapshot, so the
// controller sees all of tick N's contacts before tick N+1 begins.
type State struct {
	Box         BoxState   `json:"box"`
	Goal        GoalState  `json:"goal"`
	Barriers    []Barrier  `json:"barriers,omitempty"`
	Obstacles   []Obstacle `json:"obstacles,omitempty"`
	Gravity     float64    `json:"gravity,omitempty"`
	Step        int        `json:"step"`
	ElapsedSec  float64    `json:"elapsed_sec"`
	WallContact bool       `json:"wall_contact"`
	GoalContact bool       `json:"goal_contact"`
}

// GoalDistance returns the distance from the box to the goal center.
func (s *State) GoalDistance() float64 {
	return Distance(s.Box.Position, s.Goal.Position)
}

// Speed returns the box speed in px/s.
func (s *State) Speed() float64 {
	return s.Box.Velocity.Magnitude()
}
