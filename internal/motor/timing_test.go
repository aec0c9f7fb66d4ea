// Filename: internal/motor/timing_test.go
package motor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeEnforcesFloors(t *testing.T) {
	rnd := NewRand(testSeed)
	// Tune the persona absurdly fast; the floors must still hold.
	cfg := TimingConfig{
		StepMinMs:      1,
		StepMaxMs:      2,
		DwellMeanMs:    1,
		DwellStdMs:     1,
		ReactionMeanMs: 1,
		ReactionStdMs:  1,
		HoldMeanMs:     1,
		HoldStdMs:      1,
		KeyLeadMeanMs:  1,
		KeyLeadStdMs:   1,
		KeyLagMeanMs:   1,
		KeyLagStdMs:    1,
	}
	tc := NewTimingComposer(cfg, rnd)

	for i := 0; i < 500; i++ {
		plan := tc.Compose()
		require.GreaterOrEqual(t, plan.Dwell(rnd), time.Duration(DwellFloorMs)*time.Millisecond)
		require.GreaterOrEqual(t, plan.Reaction(rnd), time.Duration(ReactionFloorMs)*time.Millisecond)
		require.GreaterOrEqual(t, plan.Hold(rnd), time.Duration(HoldFloorMs)*time.Millisecond)
		require.GreaterOrEqual(t, plan.KeyLead, time.Duration(KeyLeadLagFloorMs)*time.Millisecond)
		require.GreaterOrEqual(t, plan.KeyLag, time.Duration(KeyLeadLagFloorMs)*time.Millisecond)
	}
}

func TestComposeVariesBetweenPlans(t *testing.T) {
	tc := NewTimingComposer(DefaultTimingConfig(), NewRand(testSeed))
	a := tc.Compose()
	b := tc.Compose()
	// Means carry per-plan jitter; two plans sharing every parameter would
	// mean the composer is degenerate.
	assert.NotEqual(t, a, b)
}

func TestFatigueScalesWithSessionAge(t *testing.T) {
	tc := NewTimingComposer(DefaultTimingConfig(), NewRand(testSeed))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	tc.now = func() time.Time { return now }

	assert.InDelta(t, 1.0, tc.fatigue(), 1e-9, "no session started yet")

	tc.StartSession()
	assert.InDelta(t, 1.0, tc.fatigue(), 1e-9)

	now = base.Add(90 * time.Minute)
	assert.InDelta(t, 1.125, tc.fatigue(), 1e-6)

	now = base.Add(10 * time.Hour)
	assert.InDelta(t, 1.25, tc.fatigue(), 1e-9, "fatigue plateaus after 3h")
}

func TestFatigueStretchesMeans(t *testing.T) {
	rnd := NewRand(testSeed)
	tc := NewTimingComposer(DefaultTimingConfig(), rnd)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	tc.now = func() time.Time { return now }
	tc.StartSession()

	fresh := 0.0
	for i := 0; i < 500; i++ {
		fresh += tc.Compose().DwellMean
	}

	now = base.Add(6 * time.Hour)
	tired := 0.0
	for i := 0; i < 500; i++ {
		tired += tc.Compose().DwellMean
	}

	assert.Greater(t, tired/fresh, 1.15,
		"a long session should visibly slow the persona down")
}
