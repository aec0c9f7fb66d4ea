// File: internal/session/session_test.go
package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sablewood/arbor/internal/config"
	"github.com/sablewood/arbor/internal/motor"
)

// recordSink collects dispatched events without sleeping.
type recordSink struct {
	mu       sync.Mutex
	presses  []motor.ScreenPoint
	releases []motor.ScreenPoint
	modDowns int
	modUps   int
}

func (r *recordSink) Sleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func (r *recordSink) MoveTo(ctx context.Context, p motor.ScreenPoint) error { return ctx.Err() }

func (r *recordSink) Press(ctx context.Context, p motor.ScreenPoint, b motor.Button, withModifier bool) error {
	r.mu.Lock()
	r.presses = append(r.presses, p)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordSink) Release(ctx context.Context, p motor.ScreenPoint, b motor.Button) error {
	r.mu.Lock()
	r.releases = append(r.releases, p)
	r.mu.Unlock()
	return nil
}

func (r *recordSink) ModifierDown(ctx context.Context) error {
	r.mu.Lock()
	r.modDowns++
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordSink) ModifierUp(ctx context.Context) error {
	r.mu.Lock()
	r.modUps++
	r.mu.Unlock()
	return nil
}

func (r *recordSink) pressCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.presses)
}

func testMotorConfig() config.MotorConfig {
	cfg := config.NewDefaultConfig().Motor
	cfg.Seed = 99
	// Corrective behaviors off so each intent yields exactly one click.
	cfg.Sequencer.MisclickProb = 0
	cfg.Sequencer.OvershootProb = 0
	return cfg
}

func TestNewRequiresSink(t *testing.T) {
	_, err := New(testMotorConfig(), nil, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestNewRejectsInvalidPersona(t *testing.T) {
	cfg := testMotorConfig()
	cfg.Drift.Alpha = 1.5
	_, err := New(cfg, &recordSink{}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestClickRegionLandsInsideRegion(t *testing.T) {
	sink := &recordSink{}
	sess, err := New(testMotorConfig(), sink, nil, zap.NewNop())
	require.NoError(t, err)
	sess.Start()
	defer sess.Close() //nolint:errcheck

	region := motor.Rect{X: 200, Y: 150, W: 60, H: 40}
	const clicks = 5
	for i := 0; i < clicks; i++ {
		require.NoError(t, sess.ClickRegion(region, "pickup"))
	}

	require.Eventually(t, func() bool {
		return sink.pressCount() >= clicks
	}, 5*time.Second, time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	// Drift can push a sampled point a few pixels outside the footprint,
	// but the sampler clamps back into the rect, so every press must land
	// inside the region proper.
	for _, p := range sink.presses {
		assert.True(t, region.Contains(p), "press at %v outside %v", p, region)
	}
}

func TestDropClickHoldsModifier(t *testing.T) {
	sink := &recordSink{}
	sess, err := New(testMotorConfig(), sink, nil, zap.NewNop())
	require.NoError(t, err)
	sess.Start()
	defer sess.Close() //nolint:errcheck

	region := motor.Rect{X: 10, Y: 10, W: 30, H: 30}
	require.NoError(t, sess.DropClick(region, "drop"))

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.modUps >= 1
	}, 5*time.Second, time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 1, sink.modDowns)
	assert.Equal(t, 1, sink.modUps)
	require.Len(t, sink.presses, 1)
	assert.True(t, region.Contains(sink.presses[0]))
}

func TestSubscribeReceivesSessionTaps(t *testing.T) {
	sink := &recordSink{}
	sess, err := New(testMotorConfig(), sink, nil, zap.NewNop())
	require.NoError(t, err)

	var mu sync.Mutex
	var taps []motor.TapEvent
	sess.Subscribe(motor.TapFunc(func(ev motor.TapEvent) {
		mu.Lock()
		taps = append(taps, ev)
		mu.Unlock()
	}))

	sess.Start()
	defer sess.Close() //nolint:errcheck

	region := motor.Rect{X: 0, Y: 0, W: 20, H: 20}
	require.NoError(t, sess.ClickRegion(region, "probe"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(taps) >= 1
	}, 5*time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "probe", taps[0].Tag)
	assert.Equal(t, sess.Sequencer().SessionID(), taps[0].SessionID)
}

func TestFixedSeedReproducesTargets(t *testing.T) {
	run := func() []motor.ScreenPoint {
		sink := &recordSink{}
		sess, err := New(testMotorConfig(), sink, nil, zap.NewNop())
		require.NoError(t, err)

		// Sample every target before the worker starts drawing from the
		// shared RNG, so the draw order is identical between runs.
		region := motor.Rect{X: 100, Y: 100, W: 80, H: 50}
		for i := 0; i < 3; i++ {
			require.NoError(t, sess.ClickRegion(region, "replay"))
		}
		sess.Start()
		require.Eventually(t, func() bool {
			return sink.pressCount() >= 3
		}, 5*time.Second, time.Millisecond)
		require.NoError(t, sess.Close())

		sink.mu.Lock()
		defer sink.mu.Unlock()
		out := make([]motor.ScreenPoint, len(sink.presses))
		copy(out, sink.presses)
		return out
	}

	assert.Equal(t, run(), run())
}
