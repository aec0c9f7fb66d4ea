// internal/motor/timing.go
package motor

import (
	"sync"
	"time"
)

// Hard minimum floors, in milliseconds. These are non-negotiable: the
// receiving UI needs a minimum hover before a press registers against the
// hovered target, a press shorter than the hold floor reads as synthetic,
// and a modifier key needs lead/lag time to be reliably observed as down
// around the click.
const (
	DwellFloorMs      = 80.0
	ReactionFloorMs   = 90.0
	HoldFloorMs       = 45.0
	KeyLeadLagFloorMs = 25.0
)

// TimingPlan is the temporal plan for one input sequence. Durations already
// carry their floors; the distribution parameters for quantities sampled at
// execution time (dwell target, reaction, hold) travel with the plan so the
// sequencer re-rolls them per use.
type TimingPlan struct {
	// Per-waypoint pacing range.
	StepMin, StepMax time.Duration

	// Dwell: hover time required over the target before the press.
	DwellMean, DwellStd float64 // ms

	// Reaction: latency between motion settling and the press.
	ReactionMean, ReactionStd float64 // ms

	// Hold: press to release.
	HoldMean, HoldStd float64 // ms

	// Modifier key lead/lag around the click.
	KeyLead, KeyLag time.Duration
}

// Dwell samples the hover target for this plan.
func (p TimingPlan) Dwell(rnd *Rand) time.Duration {
	return rnd.FlooredGaussianMs(p.DwellMean, p.DwellStd, DwellFloorMs)
}

// Reaction samples the move-settled-to-press latency.
func (p TimingPlan) Reaction(rnd *Rand) time.Duration {
	return rnd.FlooredGaussianMs(p.ReactionMean, p.ReactionStd, ReactionFloorMs)
}

// Hold samples the press-to-release duration.
func (p TimingPlan) Hold(rnd *Rand) time.Duration {
	return rnd.FlooredGaussianMs(p.HoldMean, p.HoldStd, HoldFloorMs)
}

// TimingConfig holds the distribution parameters a composer draws from.
type TimingConfig struct {
	StepMinMs, StepMaxMs int

	DwellMeanMs, DwellStdMs       float64
	ReactionMeanMs, ReactionStdMs float64
	HoldMeanMs, HoldStdMs         float64
	KeyLeadMeanMs, KeyLeadStdMs   float64
	KeyLagMeanMs, KeyLagStdMs     float64
}

// DefaultTimingConfig returns the stock persona timings.
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		StepMinMs:      6,
		StepMaxMs:      14,
		DwellMeanMs:    140,
		DwellStdMs:     45,
		ReactionMeanMs: 120,
		ReactionStdMs:  40,
		HoldMeanMs:     70,
		HoldStdMs:      18,
		KeyLeadMeanMs:  45,
		KeyLeadStdMs:   12,
		KeyLagMeanMs:   40,
		KeyLagStdMs:    12,
	}
}

// TimingComposer produces a fresh TimingPlan per click request. Means drift
// upward with session fatigue: reactions slow mildly as a play session
// wears on, plateauing at +25% after three hours.
type TimingComposer struct {
	cfg TimingConfig
	rnd *Rand

	mu           sync.Mutex
	sessionStart time.Time
	now          func() time.Time
}

// NewTimingComposer creates a composer over the given configuration.
func NewTimingComposer(cfg TimingConfig, rnd *Rand) *TimingComposer {
	return &TimingComposer{cfg: cfg, rnd: rnd, now: time.Now}
}

// StartSession marks the beginning of a play session for fatigue scaling.
// Safe to call again to reset.
func (tc *TimingComposer) StartSession() {
	tc.mu.Lock()
	tc.sessionStart = tc.now()
	tc.mu.Unlock()
}

// fatigue returns a multiplier in [1.0, 1.25] growing linearly over the
// first three hours of the session, 1.0 when no session was started.
func (tc *TimingComposer) fatigue() float64 {
	tc.mu.Lock()
	start := tc.sessionStart
	now := tc.now()
	tc.mu.Unlock()
	if start.IsZero() {
		return 1.0
	}
	f := now.Sub(start).Hours() / 3.0
	if f > 1.0 {
		f = 1.0
	}
	return 1.0 + 0.25*f
}

// Compose builds the temporal plan for one input sequence. Every field is
// drawn independently; the per-plan jitter on the means keeps consecutive
// sequences from sharing an identical temporal signature.
func (tc *TimingComposer) Compose() TimingPlan {
	fat := tc.fatigue()

	jitter := func(mean float64) float64 {
		// +/-8% lognormal-ish wobble on the mean itself.
		v := mean * (1.0 + tc.rnd.TruncGaussian(0, 0.08, -0.2, 0.2))
		return v * fat
	}

	keyLead := tc.rnd.FlooredGaussianMs(tc.cfg.KeyLeadMeanMs, tc.cfg.KeyLeadStdMs, KeyLeadLagFloorMs)
	keyLag := tc.rnd.FlooredGaussianMs(tc.cfg.KeyLagMeanMs, tc.cfg.KeyLagStdMs, KeyLeadLagFloorMs)

	return TimingPlan{
		StepMin:      time.Duration(tc.cfg.StepMinMs) * time.Millisecond,
		StepMax:      time.Duration(tc.cfg.StepMaxMs) * time.Millisecond,
		DwellMean:    jitter(tc.cfg.DwellMeanMs),
		DwellStd:     tc.cfg.DwellStdMs,
		ReactionMean: jitter(tc.cfg.ReactionMeanMs),
		ReactionStd:  tc.cfg.ReactionStdMs,
		HoldMean:     jitter(tc.cfg.HoldMeanMs),
		HoldStd:      tc.cfg.HoldStdMs,
		KeyLead:      keyLead,
		KeyLag:       keyLag,
	}
}
