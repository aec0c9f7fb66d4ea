// internal/motor/randvar.go
package motor

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Rand is the statistical substrate for the motor pipeline. It wraps a
// single math/rand source behind a mutex so one instance can be shared by
// the sampler, planner, timing composer and sequencer of a session.
type Rand struct {
	mu  sync.Mutex
	src *rand.Rand
}

// NewRand creates a Rand seeded with the given value.
func NewRand(seed int64) *Rand {
	return &Rand{src: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRand creates a Rand seeded from the wall clock.
func NewTimeSeededRand() *Rand {
	return NewRand(time.Now().UnixNano())
}

// Int63 returns a non-negative random int64, used to derive sub-seeds for
// the noise generators.
func (r *Rand) Int63() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Int63()
}

// Float returns a uniform sample in [0, 1).
func (r *Rand) Float() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

// UniformInt returns a uniform integer in [min, max] inclusive. Inverted
// bounds are swapped rather than rejected, so callers composing sleep
// durations can never produce a negative range.
func (r *Rand) UniformInt(min, max int) int {
	if min > max {
		min, max = max, min
	}
	if min == max {
		return min
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return min + r.src.Intn(max-min+1)
}

// Gaussian returns a sample from N(mean, std) via the Box-Muller transform.
// The first uniform draw is clamped away from zero to keep the log finite.
func (r *Rand) Gaussian(mean, std float64) float64 {
	r.mu.Lock()
	u1 := r.src.Float64()
	u2 := r.src.Float64()
	r.mu.Unlock()

	if u1 < 1e-12 {
		u1 = 1e-12
	}
	z := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
	return mean + std*z
}

// TruncGaussian returns a Gaussian sample clamped into [min, max].
func (r *Rand) TruncGaussian(mean, std, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}
	v := r.Gaussian(mean, std)
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}

// Exponential returns a sample from Exp(1/mean) via the inverse CDF.
func (r *Rand) Exponential(mean float64) float64 {
	u := r.Float()
	if u < 1e-12 {
		u = 1e-12
	}
	return -math.Log(u) * mean
}

// Chance reports true with probability p.
func (r *Rand) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float() < p
}

// FlooredGaussianMs samples N(mean, std) in milliseconds and applies a hard
// minimum floor. Every temporal quantity in the motor pipeline goes through
// this shape: the Gaussian provides spread, the floor enforces the minimum
// the receiving system needs to register the action.
func (r *Rand) FlooredGaussianMs(mean, std, floor float64) time.Duration {
	ms := math.Round(r.Gaussian(mean, std))
	if ms < floor {
		ms = floor
	}
	return time.Duration(ms) * time.Millisecond
}
