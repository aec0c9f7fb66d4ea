// internal/motor/path.go
package motor

import (
	"time"

	"github.com/aquilax/go-perlin"
)

// MovePlan is an ordered sequence of waypoints ending at the exact target,
// plus the pacing range applied between steps. Produced once per click
// request and consumed exactly once by the sequencer.
type MovePlan struct {
	Path    []ScreenPoint
	StepMin time.Duration
	StepMax time.Duration
}

// Empty reports whether the plan carries no waypoints at all.
func (m MovePlan) Empty() bool {
	return len(m.Path) == 0
}

// Target returns the final waypoint. Only valid for non-empty plans.
func (m MovePlan) Target() ScreenPoint {
	return m.Path[len(m.Path)-1]
}

// Step count bounds: distance/stepDivisor intermediate points, clamped so
// short hops still arc and long crossings do not flood the event sink.
const (
	stepDivisor = 12.0
	minSteps    = 6
	maxSteps    = 28
)

// PathPlanner synthesizes arched point-to-point trajectories. The spine is
// a quadratic Bezier whose control point is pushed off the segment midpoint
// along the perpendicular, with the arc side re-rolled per call. Each
// intermediate point also picks up uniform jitter and a slow Perlin tremor,
// mimicking the lateral wobble of a hand-guided cursor.
type PathPlanner struct {
	curvature float64
	noisePx   float64
	tremorAmp float64

	rnd       *Rand
	noiseX    *perlin.Perlin
	noiseY    *perlin.Perlin
	noiseTime float64
}

// NewPathPlanner creates a planner. curvature scales the control point
// offset (typical 1.0), noisePx bounds the per-step uniform jitter
// (typical 2), tremorAmp scales the Perlin drift (0 disables it).
func NewPathPlanner(curvature, noisePx, tremorAmp float64, seed int64, rnd *Rand) *PathPlanner {
	// Standard Perlin parameters, offset seed for the Y axis.
	const alpha, beta, n = 2.0, 2.0, 3
	return &PathPlanner{
		curvature: curvature,
		noisePx:   noisePx,
		tremorAmp: tremorAmp,
		rnd:       rnd,
		noiseX:    perlin.NewPerlin(alpha, beta, n, seed),
		noiseY:    perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// StepCount returns the number of intermediate waypoints for a movement of
// the given pixel distance.
func StepCount(distance float64) int {
	steps := int(distance / stepDivisor)
	if steps < minSteps {
		steps = minSteps
	}
	if steps > maxSteps {
		steps = maxSteps
	}
	return steps
}

// Plan builds a MovePlan from one point to another. A nil destination
// yields an empty plan; a nil origin yields a single-point plan landing
// directly on the target (the cursor position is not known yet, so there is
// nothing to interpolate from). The exact target is always the final
// waypoint regardless of accumulated float rounding.
func (pl *PathPlanner) Plan(from, to *ScreenPoint, stepMin, stepMax time.Duration) MovePlan {
	if to == nil {
		return MovePlan{StepMin: stepMin, StepMax: stepMax}
	}
	if from == nil {
		return MovePlan{Path: []ScreenPoint{*to}, StepMin: stepMin, StepMax: stepMax}
	}

	start := from.Vec()
	end := to.Vec()
	delta := end.Sub(start)
	dist := delta.Mag()

	steps := StepCount(dist)
	path := make([]ScreenPoint, 0, steps+1)

	// Control point off the segment midpoint, arc side chosen per call so
	// repeated moves between the same two points do not share a bow.
	side := 1.0
	if pl.rnd.Chance(0.5) {
		side = -1.0
	}
	mid := start.Add(delta.Mul(0.5))
	control := mid.Add(delta.Normalize().Perp().Mul(side * pl.curvature * 0.25 * dist))

	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		p := quadBezier(start, control, end, t)

		p.X += pl.rnd.Float()*2*pl.noisePx - pl.noisePx
		p.Y += pl.rnd.Float()*2*pl.noisePx - pl.noisePx

		if pl.tremorAmp > 0 {
			pl.noiseTime += 0.07
			p.X += pl.noiseX.Noise1D(pl.noiseTime) * pl.tremorAmp
			p.Y += pl.noiseY.Noise1D(pl.noiseTime) * pl.tremorAmp
		}

		path = append(path, p.Point())
	}

	path = append(path, *to)
	return MovePlan{Path: path, StepMin: stepMin, StepMax: stepMax}
}

func quadBezier(p0, p1, p2 Vec, t float64) Vec {
	omt := 1.0 - t
	return p0.Mul(omt * omt).
		Add(p1.Mul(2 * omt * t)).
		Add(p2.Mul(t * t))
}
