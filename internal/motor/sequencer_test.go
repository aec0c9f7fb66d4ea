// Filename: internal/motor/sequencer_test.go
package motor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// =============================================================================
// Test Infrastructure: virtual clock and recording sink
// =============================================================================

// virtualClock advances only when the sink sleeps, so timing invariants can
// be asserted exactly without real waiting.
type virtualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newVirtualClock() *virtualClock {
	return &virtualClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *virtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *virtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sinkEvent struct {
	kind string // "move", "press", "release", "modDown", "modUp"
	p    ScreenPoint
	b    Button
	mod  bool
	at   time.Time
}

// mockSink implements InputSink, recording every call and advancing the
// virtual clock instead of sleeping.
type mockSink struct {
	mu     sync.Mutex
	clock  *virtualClock
	events []sinkEvent
	sleeps []time.Duration

	// When set, the hold sleep (the one immediately after a press) parks
	// until the worker context is cancelled, simulating a shutdown that
	// lands mid-hold.
	blockHold bool
	pressed   bool
}

func newMockSink() *mockSink {
	return &mockSink{clock: newVirtualClock()}
}

func (m *mockSink) record(kind string, p ScreenPoint, b Button, mod bool) {
	m.mu.Lock()
	m.events = append(m.events, sinkEvent{kind: kind, p: p, b: b, mod: mod, at: m.clock.Now()})
	m.mu.Unlock()
}

func (m *mockSink) Sleep(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.mu.Lock()
	m.sleeps = append(m.sleeps, d)
	holdSleep := m.pressed && m.blockHold
	m.mu.Unlock()

	m.clock.Advance(d)
	if holdSleep {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (m *mockSink) MoveTo(ctx context.Context, p ScreenPoint) error {
	m.record("move", p, "", false)
	return ctx.Err()
}

func (m *mockSink) Press(ctx context.Context, p ScreenPoint, b Button, withModifier bool) error {
	m.mu.Lock()
	m.pressed = true
	m.mu.Unlock()
	m.record("press", p, b, withModifier)
	return ctx.Err()
}

func (m *mockSink) Release(ctx context.Context, p ScreenPoint, b Button) error {
	m.mu.Lock()
	m.pressed = false
	m.mu.Unlock()
	m.record("release", p, b, false)
	return nil
}

func (m *mockSink) ModifierDown(ctx context.Context) error {
	m.record("modDown", ScreenPoint{}, "", false)
	return ctx.Err()
}

func (m *mockSink) ModifierUp(ctx context.Context) error {
	m.record("modUp", ScreenPoint{}, "", false)
	return nil
}

func (m *mockSink) snapshot() []sinkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sinkEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *mockSink) countKind(kind string) int {
	n := 0
	for _, ev := range m.snapshot() {
		if ev.kind == kind {
			n++
		}
	}
	return n
}

// newTestSequencer wires a sequencer over the mock sink with deterministic
// dependencies. Corrective behaviors are disabled unless the test opts in.
func newTestSequencer(sink *mockSink, taps TapSink, mutate func(*SequencerConfig)) *Sequencer {
	cfg := DefaultSequencerConfig()
	cfg.MisclickProb = 0
	cfg.OvershootProb = 0
	if mutate != nil {
		mutate(&cfg)
	}

	rnd := NewRand(testSeed)
	planner := NewPathPlanner(1.0, 2.0, 0, testSeed, rnd)
	timing := NewTimingComposer(DefaultTimingConfig(), rnd)
	drift := NewDrift(0.86, 0.9, 3.0, rnd)

	seq := NewSequencer(cfg, sink, nil, planner, timing, drift, taps, rnd, zap.NewNop())
	seq.now = sink.clock.Now
	return seq
}

func waitForKind(t *testing.T, sink *mockSink, kind string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return sink.countKind(kind) >= n
	}, 5*time.Second, time.Millisecond, "expected %d %q events", n, kind)
}

// =============================================================================
// Tests
// =============================================================================

func TestSequencerDeliversFullClickSequence(t *testing.T) {
	sink := newMockSink()
	seq := newTestSequencer(sink, nil, nil)
	seq.Start()
	defer seq.Close() //nolint:errcheck

	target := Pt(400, 250)
	require.NoError(t, seq.Submit(ClickIntent{Target: target, Tag: "basic"}))
	waitForKind(t, sink, "release", 1)

	events := sink.snapshot()
	var moves, presses, releases []sinkEvent
	for _, ev := range events {
		switch ev.kind {
		case "move":
			moves = append(moves, ev)
		case "press":
			presses = append(presses, ev)
		case "release":
			releases = append(releases, ev)
		}
	}

	require.NotEmpty(t, moves)
	require.Len(t, presses, 1)
	require.Len(t, releases, 1)

	assert.Equal(t, target, moves[len(moves)-1].p, "motion must finish on the target")
	assert.Equal(t, target, presses[0].p)
	assert.Equal(t, ButtonLeft, presses[0].b)
	assert.Equal(t, target, releases[0].p)
	assert.True(t, releases[0].at.After(presses[0].at) || releases[0].at.Equal(presses[0].at))
}

func TestSequencerDwellFloorBeforePress(t *testing.T) {
	sink := newMockSink()
	seq := newTestSequencer(sink, nil, nil)
	seq.Start()
	defer seq.Close() //nolint:errcheck

	require.NoError(t, seq.Submit(ClickIntent{Target: Pt(320, 180)}))
	waitForKind(t, sink, "release", 1)

	events := sink.snapshot()
	var lastMove, press *sinkEvent
	for i := range events {
		switch events[i].kind {
		case "move":
			if press == nil {
				lastMove = &events[i]
			}
		case "press":
			if press == nil {
				press = &events[i]
			}
		}
	}
	require.NotNil(t, lastMove)
	require.NotNil(t, press)

	hover := press.at.Sub(lastMove.at)
	assert.GreaterOrEqual(t, hover, time.Duration(DwellFloorMs)*time.Millisecond,
		"press fired before the dwell floor elapsed")
	assert.GreaterOrEqual(t, hover, time.Duration(ReactionFloorMs)*time.Millisecond,
		"press fired before the reaction floor elapsed")
}

func TestSequencerSingleFlight(t *testing.T) {
	sink := newMockSink()
	seq := newTestSequencer(sink, nil, nil)
	seq.Start()
	defer seq.Close() //nolint:errcheck

	require.NoError(t, seq.Submit(ClickIntent{Target: Pt(100, 100)}))
	require.NoError(t, seq.Submit(ClickIntent{Target: Pt(600, 400)}))
	waitForKind(t, sink, "release", 2)

	// The first sequence's release must precede the second sequence's
	// press: press/release windows never overlap.
	var order []string
	for _, ev := range sink.snapshot() {
		if ev.kind == "press" || ev.kind == "release" {
			order = append(order, ev.kind)
		}
	}
	require.Equal(t, []string{"press", "release", "press", "release"}, order)
}

func TestSequencerChainsLastKnownPosition(t *testing.T) {
	sink := newMockSink()
	seq := newTestSequencer(sink, nil, nil)
	seq.Start()
	defer seq.Close() //nolint:errcheck

	first := Pt(100, 100)
	second := Pt(500, 320)
	require.NoError(t, seq.Submit(ClickIntent{Target: first}))
	require.NoError(t, seq.Submit(ClickIntent{Target: second}))
	waitForKind(t, sink, "release", 2)

	// The first move of the second sequence should start near the first
	// target, not teleport to the second.
	events := sink.snapshot()
	releaseSeen := false
	for _, ev := range events {
		if ev.kind == "release" && ev.p == first {
			releaseSeen = true
			continue
		}
		if releaseSeen && ev.kind == "move" {
			assert.Less(t, ev.p.Dist(first), ev.p.Dist(second),
				"second approach should begin beside the previous target")
			break
		}
	}
	require.True(t, releaseSeen)
}

func TestSequencerModifierWrapsClick(t *testing.T) {
	sink := newMockSink()
	seq := newTestSequencer(sink, nil, nil)
	seq.Start()
	defer seq.Close() //nolint:errcheck

	require.NoError(t, seq.Submit(ClickIntent{Target: Pt(200, 200), HoldModifier: true}))
	waitForKind(t, sink, "modUp", 1)

	idx := map[string]int{}
	for i, ev := range sink.snapshot() {
		if _, seen := idx[ev.kind]; !seen {
			idx[ev.kind] = i
		}
	}
	require.Contains(t, idx, "modDown")
	require.Contains(t, idx, "press")
	require.Contains(t, idx, "release")
	require.Contains(t, idx, "modUp")
	assert.Less(t, idx["modDown"], idx["press"])
	assert.Less(t, idx["press"], idx["release"])
	assert.Less(t, idx["release"], idx["modUp"])

	events := sink.snapshot()
	press := events[idx["press"]]
	assert.True(t, press.mod, "press must carry the modifier flag")
}

func TestSequencerReleasesWhenCancelledMidHold(t *testing.T) {
	sink := newMockSink()
	sink.blockHold = true
	seq := newTestSequencer(sink, nil, nil)
	seq.Start()

	require.NoError(t, seq.Submit(ClickIntent{Target: Pt(150, 150)}))
	waitForKind(t, sink, "press", 1)

	// Shutdown lands while the hold sleep is parked on the context.
	require.NoError(t, seq.Close())

	events := sink.snapshot()
	pressIdx, releaseIdx := -1, -1
	for i, ev := range events {
		switch ev.kind {
		case "press":
			pressIdx = i
		case "release":
			releaseIdx = i
		}
	}
	require.NotEqual(t, -1, pressIdx)
	require.NotEqual(t, -1, releaseIdx, "cancelled hold must still release the button")
	assert.Greater(t, releaseIdx, pressIdx)
}

func TestSequencerModifierUpWhenCancelledMidHold(t *testing.T) {
	sink := newMockSink()
	sink.blockHold = true
	seq := newTestSequencer(sink, nil, nil)
	seq.Start()

	require.NoError(t, seq.Submit(ClickIntent{Target: Pt(150, 150), HoldModifier: true}))
	waitForKind(t, sink, "press", 1)
	require.NoError(t, seq.Close())

	assert.Equal(t, 1, sink.countKind("modUp"),
		"cancelled sequence must not leave the modifier key down")
}

func TestSequencerMisclickCorrects(t *testing.T) {
	sink := newMockSink()
	seq := newTestSequencer(sink, nil, func(cfg *SequencerConfig) {
		cfg.MisclickProb = 1.0
	})
	seq.Start()
	defer seq.Close() //nolint:errcheck

	target := Pt(300, 300)
	require.NoError(t, seq.Submit(ClickIntent{Target: target}))
	waitForKind(t, sink, "release", 2)

	var presses []sinkEvent
	for _, ev := range sink.snapshot() {
		if ev.kind == "press" {
			presses = append(presses, ev)
		}
	}
	require.Len(t, presses, 2, "misclick then corrective click")

	missDist := presses[0].p.Dist(target)
	assert.GreaterOrEqual(t, missDist, 7.0, "stray click should be offset from the target")
	assert.LessOrEqual(t, missDist, 27.0)
	assert.Equal(t, target, presses[1].p, "corrective click lands exactly on target")
}

func TestSequencerOvershootSailsPastTarget(t *testing.T) {
	sink := newMockSink()
	seq := newTestSequencer(sink, nil, func(cfg *SequencerConfig) {
		cfg.OvershootProb = 1.0
	})
	seq.Start()
	defer seq.Close() //nolint:errcheck

	// Establish a known starting position with a plain click first.
	start := Pt(50, 200)
	require.NoError(t, seq.Submit(ClickIntent{Target: start}))
	waitForKind(t, sink, "release", 1)

	target := Pt(400, 200)
	require.NoError(t, seq.Submit(ClickIntent{Target: target}))
	waitForKind(t, sink, "release", 2)

	overshot := false
	for _, ev := range sink.snapshot() {
		if ev.kind == "move" && ev.p.X > target.X {
			overshot = true
			break
		}
	}
	assert.True(t, overshot, "cursor never travelled past the target")

	presses := 0
	for _, ev := range sink.snapshot() {
		if ev.kind == "press" {
			presses++
		}
	}
	assert.Equal(t, 2, presses, "overshoot adds motion, not clicks")
}

func TestSequencerTapFiresOncePerClickBeforePress(t *testing.T) {
	sink := newMockSink()

	var mu sync.Mutex
	var taps []TapEvent
	probe := TapFunc(func(ev TapEvent) {
		mu.Lock()
		taps = append(taps, ev)
		mu.Unlock()
	})

	seq := newTestSequencer(sink, probe, nil)
	seq.Start()
	defer seq.Close() //nolint:errcheck

	target := Pt(250, 250)
	require.NoError(t, seq.Submit(ClickIntent{Target: target, Tag: "probe"}))
	waitForKind(t, sink, "release", 1)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, taps, 1)
	assert.Equal(t, target.X, taps[0].X)
	assert.Equal(t, target.Y, taps[0].Y)
	assert.Equal(t, TapClick, taps[0].Kind)
	assert.Equal(t, "probe", taps[0].Tag)
	assert.Equal(t, seq.SessionID(), taps[0].SessionID)

	var press sinkEvent
	for _, ev := range sink.snapshot() {
		if ev.kind == "press" {
			press = ev
			break
		}
	}
	assert.False(t, taps[0].Time.After(press.at),
		"tap notification must not trail the press")
}

func TestSequencerSubmitAfterClose(t *testing.T) {
	sink := newMockSink()
	seq := newTestSequencer(sink, nil, nil)
	seq.Start()
	require.NoError(t, seq.Close())

	err := seq.Submit(ClickIntent{Target: Pt(1, 1)})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSequencerQueueFull(t *testing.T) {
	sink := newMockSink()
	seq := newTestSequencer(sink, nil, func(cfg *SequencerConfig) {
		cfg.QueueSize = 1
	})
	// Worker intentionally not started, so nothing drains the queue.
	require.NoError(t, seq.Submit(ClickIntent{Target: Pt(1, 1)}))
	err := seq.Submit(ClickIntent{Target: Pt(2, 2)})
	assert.ErrorIs(t, err, ErrQueueFull)
	require.NoError(t, seq.Close())
}

func TestSequencerShutdownLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := newMockSink()
	seq := newTestSequencer(sink, nil, nil)
	seq.Start()
	require.NoError(t, seq.Submit(ClickIntent{Target: Pt(90, 90)}))
	waitForKind(t, sink, "release", 1)
	require.NoError(t, seq.Close())
}
