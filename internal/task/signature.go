package task

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/tarslab/boxpush/internal/sim"
)

// Bucket widths for the strategy signature. Two action sequences hash the
// same when every action has the same type and all parameters land in the
// same bucket:
//
//	push force      25 force units
//	push duration   250 ms
//	barrier x, y    50 px
//	barrier angle   15 degrees
//
// Coarse on purpose: push(50,0) and push(60,0) are the same idea, while
// push(50,0) and push(200,0) are not.
const (
	forceBucket    = 25.0
	durationBucket = 250.0
	coordBucket    = 50.0
	angleBucket    = 15.0
)

// Signature fingerprints an action sequence for novelty detection. Pure
// function of the sequence: same actions, same signature, across runs.
func Signature(actions []sim.Action) string {
	var b strings.Builder
	for _, a := range actions {
		switch a.Type {
		case sim.ActionPush:
			fmt.Fprintf(&b, "push:%d,%d,%d;",
				bucket(a.ForceX, forceBucket),
				bucket(a.ForceY, forceBucket),
				bucket(a.DurationMS, durationBucket))
		case sim.ActionBarrier:
			fmt.Fprintf(&b, "barrier:%d,%d,%d;",
				bucket(a.X, coordBucket),
				bucket(a.Y, coordBucket),
				bucket(a.AngleDeg, angleBucket))
		default:
			fmt.Fprintf(&b, "%s;", a.Type)
		}
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func bucket(v, width float64) int {
	return int(math.Floor(v / width))
}
