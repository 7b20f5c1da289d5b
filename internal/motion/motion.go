// Package motion computes pointer paths between two points.
package motion

import (
	"math"

	"github.com/frudas24/qaagent/internal/geom"
)

// MinStepPx is the smallest per-step distance on the dominant axis worth emitting.
const MinStepPx = 5.0

// DefaultSteps is the step count used when a caller does not supply one.
const DefaultSteps = 20

// MaxSteps caps the step count of a single move.
const MaxSteps = 1000

// EffectiveSteps returns the step count Interpolate will use for a move.
// When the dominant-axis distance per step would fall below MinStepPx the count
// is reduced to abs(delta)/MinStepPx, which may be zero for very short moves.
// A move that goes nowhere needs no steps, and no move takes more than MaxSteps.
func EffectiveSteps(from, to geom.Point, steps int) int {
	if steps <= 0 {
		return 0
	}
	steps = min(steps, MaxSteps)
	delta := dominantDelta(from, to)
	if delta == 0 || math.IsNaN(delta) {
		return 0
	}
	perStep := delta / float64(steps)
	if perStep > 0 && perStep < MinStepPx {
		return int(math.Round(delta) / MinStepPx)
	}
	return steps
}

// Interpolate returns the points visited moving linearly from `from` to `to`.
// The start point is not included and the last point is always exactly `to`,
// so the result holds between 1 and steps points.
func Interpolate(from, to geom.Point, steps int) []geom.Point {
	n := EffectiveSteps(from, to, steps)
	if n <= 1 {
		return []geom.Point{to}
	}
	out := make([]geom.Point, 0, n)
	for i := 1; i < n; i++ {
		progress := float64(i) / float64(n)
		out = append(out, geom.Point{
			X: from.X + (to.X-from.X)*progress,
			Y: from.Y + (to.Y-from.Y)*progress,
		})
	}
	return append(out, to)
}

// dominantDelta returns the absolute distance along the axis that moves the most.
func dominantDelta(from, to geom.Point) float64 {
	return math.Max(math.Abs(to.X-from.X), math.Abs(to.Y-from.Y))
}
