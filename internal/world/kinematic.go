package world

import (
	"fmt"
	"math"

	"github.com/tarslab/boxpush/internal/level"
	"github.com/tarslab/boxpush/internal/sim"
)

// Integration substep. Forces, friction and collisions are resolved at this
// granularity regardless of the dt passed to Advance, so results do not
// depend on how the caller slices time.
const substep = 1.0 / 120.0

// Friction deceleration per unit friction coefficient, px/s².
const frictionAccel = 100.0

// Barrier segments are this long, centered on their placement point.
const barrierLength = 120.0

// Kinematic is a deterministic 2D world: explicit Euler integration,
// Coulomb-style friction, axis-aligned wall collisions with restitution,
// and reflective barrier segments. No randomness anywhere, so an episode
// replayed against the same action sequence lands on identical snapshots.
type Kinematic struct {
	lvl *level.Config

	pos sim.Point
	vel sim.Vec

	// Pending push: active while forceLeft > 0.
	force     sim.Vec
	forceLeft float64

	barriers []sim.Barrier
	elapsed  float64
	fellPit  bool

	// Downward acceleration in px/s², taken from the level on Reset.
	gravity float64
}

// NewKinematic returns an un-reset kinematic world.
func NewKinematic() *Kinematic {
	return &Kinematic{}
}

// Reset implements World.
func (w *Kinematic) Reset(lvl *level.Config) (sim.State, error) {
	if lvl == nil {
		return sim.State{}, fmt.Errorf("%w: nil level", ErrApply)
	}
	if err := lvl.Validate(); err != nil {
		return sim.State{}, fmt.Errorf("resetting world: %w", err)
	}
	w.lvl = lvl
	w.pos = lvl.BoxPosition
	w.vel = sim.Vec{}
	w.force = sim.Vec{}
	w.forceLeft = 0
	w.barriers = nil
	w.elapsed = 0
	w.fellPit = false
	w.gravity = lvl.Gravity
	return w.Snapshot(), nil
}

// ApplyForce implements World.
func (w *Kinematic) ApplyForce(fx, fy, durationSec float64) error {
	if w.lvl == nil {
		return ErrNotReset
	}
	if durationSec <= 0 {
		return fmt.Errorf("%w: non-positive force duration %v", ErrApply, durationSec)
	}
	w.force = sim.Vec{X: fx, Y: fy}
	w.forceLeft = durationSec
	return nil
}

// PlaceBarrier implements World.
func (w *Kinematic) PlaceBarrier(b sim.Barrier) error {
	if w.lvl == nil {
		return ErrNotReset
	}
	w.barriers = append(w.barriers, b)
	return nil
}

// Advance implements World.
func (w *Kinematic) Advance(dtSec float64) (sim.State, error) {
	if w.lvl == nil {
		return sim.State{}, ErrNotReset
	}
	if dtSec <= 0 || math.IsNaN(dtSec) {
		return sim.State{}, fmt.Errorf("%w: bad dt %v", ErrApply, dtSec)
	}

	wallContact := false
	goalContact := false
	consumed := 0.0
	remaining := dtSec
	for remaining > 1e-9 {
		dt := substep
		if remaining < dt {
			dt = remaining
		}
		if w.step(dt) {
			wallContact = true
		}
		consumed += dt
		remaining -= dt
		// A fast box can cross the goal inside one window. Stop there:
		// the episode is over and the final snapshot must show the box
		// inside the capture radius.
		if sim.Distance(w.pos, w.lvl.GoalPosition) < w.lvl.GoalRadius {
			goalContact = true
			break
		}
	}
	if !goalContact {
		consumed = dtSec
	}
	w.elapsed += consumed

	st := w.Snapshot()
	st.WallContact = wallContact
	st.GoalContact = goalContact || st.GoalContact
	return st, nil
}

// step integrates one substep and reports whether the box touched a wall
// or barrier.
func (w *Kinematic) step(dt float64) bool {
	// Applied force.
	if w.forceLeft > 0 {
		w.vel.X += w.force.X / w.lvl.BoxMass * dt * 60
		w.vel.Y += w.force.Y / w.lvl.BoxMass * dt * 60
		w.forceLeft -= dt
		if w.forceLeft <= 0 {
			w.force = sim.Vec{}
		}
	}

	// Gravity pulls down (y grows down).
	w.vel.Y += w.gravity * dt

	// Friction: constant deceleration opposing motion, never reversing it.
	speed := w.vel.Magnitude()
	if speed > 0 {
		decel := w.lvl.Friction * frictionAccel * dt
		if decel >= speed {
			w.vel = sim.Vec{}
		} else {
			scale := (speed - decel) / speed
			w.vel.X *= scale
			w.vel.Y *= scale
		}
	}

	// Air drag.
	drag := 1 - w.lvl.AirDrag*dt
	if drag < 0 {
		drag = 0
	}
	w.vel.X *= drag
	w.vel.Y *= drag

	w.pos.X += w.vel.X * dt
	w.pos.Y += w.vel.Y * dt

	contact := false
	for _, ob := range w.lvl.Obstacles {
		switch ob.Kind {
		case sim.ObstacleWall:
			if w.collideRect(ob) {
				contact = true
			}
		case sim.ObstaclePit:
			if w.insideRect(ob) {
				w.fellPit = true
			}
		}
	}
	for _, b := range w.barriers {
		if w.collideBarrier(b) {
			contact = true
		}
	}
	return contact
}

// collideRect resolves box-vs-wall overlap along the axis of least
// penetration, reflecting that velocity component with restitution.
func (w *Kinematic) collideRect(ob sim.Obstacle) bool {
	halfW := ob.Width/2 + BoxHalf
	halfH := ob.Height/2 + BoxHalf
	dx := w.pos.X - ob.X
	dy := w.pos.Y - ob.Y
	if math.Abs(dx) >= halfW || math.Abs(dy) >= halfH {
		return false
	}
	penX := halfW - math.Abs(dx)
	penY := halfH - math.Abs(dy)
	r := w.lvl.Restitution
	if penX < penY {
		if dx < 0 {
			w.pos.X -= penX
		} else {
			w.pos.X += penX
		}
		w.vel.X = -w.vel.X * r
	} else {
		if dy < 0 {
			w.pos.Y -= penY
		} else {
			w.pos.Y += penY
		}
		w.vel.Y = -w.vel.Y * r
	}
	return true
}

func (w *Kinematic) insideRect(ob sim.Obstacle) bool {
	return math.Abs(w.pos.X-ob.X) < ob.Width/2 &&
		math.Abs(w.pos.Y-ob.Y) < ob.Height/2
}

// collideBarrier reflects the velocity component normal to a barrier
// segment when the box is on top of it and moving into it.
func (w *Kinematic) collideBarrier(b sim.Barrier) bool {
	rad := b.AngleDeg * math.Pi / 180
	dir := sim.Vec{X: math.Cos(rad), Y: math.Sin(rad)}
	normal := sim.Vec{X: -dir.Y, Y: dir.X}

	rel := sim.Vec{X: w.pos.X - b.Position.X, Y: w.pos.Y - b.Position.Y}
	along := rel.X*dir.X + rel.Y*dir.Y
	if math.Abs(along) > barrierLength/2 {
		return false
	}
	across := rel.X*normal.X + rel.Y*normal.Y
	if math.Abs(across) > BoxHalf {
		return false
	}
	vn := w.vel.X*normal.X + w.vel.Y*normal.Y
	// Moving away already.
	if (across > 0 && vn > 0) || (across < 0 && vn < 0) {
		return true
	}
	r := w.lvl.Restitution
	w.vel.X -= (1 + r) * vn * normal.X
	w.vel.Y -= (1 + r) * vn * normal.Y
	// Push out to the surface.
	sign := 1.0
	if across < 0 {
		sign = -1
	}
	shift := sign*BoxHalf - across
	w.pos.X += shift * normal.X
	w.pos.Y += shift * normal.Y
	return true
}

// Snapshot implements World.
func (w *Kinematic) Snapshot() sim.State {
	if w.lvl == nil {
		return sim.State{}
	}
	pos := w.pos
	if w.fellPit {
		// A box in a pit is gone: report it below the playfield.
		pos.Y = level.LowerBound + 1
	}
	st := sim.State{
		Box: sim.BoxState{
			Position: pos,
			Velocity: w.vel,
			Mass:     w.lvl.BoxMass,
			Friction: w.lvl.Friction,
		},
		Goal: sim.GoalState{
			Position: w.lvl.GoalPosition,
			Radius:   w.lvl.GoalRadius,
		},
		Barriers:   append([]sim.Barrier(nil), w.barriers...),
		Obstacles:  append([]sim.Obstacle(nil), w.lvl.Obstacles...),
		Gravity:    w.gravity,
		ElapsedSec: w.elapsed,
	}
	st.GoalContact = st.GoalDistance() < w.lvl.GoalRadius
	return st
}
