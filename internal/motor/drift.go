// internal/motor/drift.go
package motor

import "sync"

// Drift is a first-order autoregressive (AR(1)) process producing a small
// 2D bias that persists across calls. Sampled click points inherit this
// bias, so consecutive clicks wander together instead of jittering
// independently around the centroid every time.
//
// Each Step advances both axes with x' = alpha*x + N(0, sigma) and clamps
// the result to +/- clamp pixels. One instance is shared between the
// submitting caller and the sequencer worker, so state is mutex guarded.
type Drift struct {
	alpha float64
	sigma float64
	clamp float64
	rnd   *Rand

	mu   sync.Mutex
	x, y float64
}

// NewDrift creates a drift model. Typical parameters: alpha 0.86,
// sigma 0.9, clamp 3.
func NewDrift(alpha, sigma, clamp float64, rnd *Rand) *Drift {
	return &Drift{alpha: alpha, sigma: sigma, clamp: clamp, rnd: rnd}
}

// Step advances the process one tick and returns the new bias.
func (d *Drift) Step() Vec {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.x = clampAbs(d.alpha*d.x+d.rnd.Gaussian(0, d.sigma), d.clamp)
	d.y = clampAbs(d.alpha*d.y+d.rnd.Gaussian(0, d.sigma), d.clamp)
	return Vec{X: d.x, Y: d.y}
}

// Bias returns the current bias without advancing the process.
func (d *Drift) Bias() Vec {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Vec{X: d.x, Y: d.y}
}

func clampAbs(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}
