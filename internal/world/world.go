// Package world abstracts the physics playfield the episode controller
// drives. The production backend can be any engine that satisfies World;
// the kinematic implementation in this package is deterministic and is
// what offline runs and tests use.
package world

import (
	"errors"

	"github.com/tarslab/boxpush/internal/level"
	"github.com/tarslab/boxpush/internal/sim"
)

// Half extent of the square box, in px.
const BoxHalf = 20.0

var (
	// ErrNotReset is returned when the world is driven before Reset.
	ErrNotReset = errors.New("world: not reset")
	// ErrApply is returned when the engine rejects a force or barrier.
	ErrApply = errors.New("world: apply failed")
)

// World is the minimal surface the episode controller needs. All methods
// are single-goroutine; the controller owns the world for the lifetime of
// an episode.
type World interface {
	// Reset loads a level and returns the initial snapshot (step 0,
	// elapsed 0, box at rest).
	Reset(lvl *level.Config) (sim.State, error)

	// ApplyForce schedules a force (in force units) to act on the box for
	// the given duration of simulated time.
	ApplyForce(fx, fy, durationSec float64) error

	// PlaceBarrier adds a guide segment to the playfield.
	PlaceBarrier(b sim.Barrier) error

	// Advance integrates the simulation forward by dt seconds and returns
	// the resulting snapshot. Contact flags on the snapshot cover this
	// advance window only.
	Advance(dtSec float64) (sim.State, error)

	// Snapshot returns the current state without advancing time.
	Snapshot() sim.State
}
