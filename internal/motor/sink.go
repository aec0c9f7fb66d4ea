// internal/motor/sink.go
package motor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// InputSink receives the low-level synthetic events the sequencer produces.
// The motor core only calls these; how events are constructed and delivered
// to a windowing surface is entirely the sink's concern. Sleep lives here
// so test sinks can substitute a virtual clock, mirroring how a real sink
// may prefer its host's scheduling primitives.
type InputSink interface {
	// Sleep pauses execution, respecting context cancellation.
	Sleep(ctx context.Context, d time.Duration) error

	// MoveTo places the pointer at the given canvas coordinate.
	MoveTo(ctx context.Context, p ScreenPoint) error

	// Press pushes the button down at p. withModifier reports whether the
	// sequencer currently holds the modifier key.
	Press(ctx context.Context, p ScreenPoint, b Button, withModifier bool) error

	// Release lifts the button at p.
	Release(ctx context.Context, p ScreenPoint, b Button) error

	// ModifierDown presses the configured modifier key.
	ModifierDown(ctx context.Context) error

	// ModifierUp releases the configured modifier key.
	ModifierUp(ctx context.Context) error
}

// PositionSource reports the real pointer position when the environment
// knows it, seeding path planning so the synthetic cursor does not
// teleport on the first move of a session.
type PositionSource interface {
	// Pointer returns the current pointer position, or false when unknown.
	Pointer() (ScreenPoint, bool)
}

// TapSink consumes committed tap events, fire-and-forget. Implementations
// must not block: the sequencer worker calls them inline immediately
// before each press.
type TapSink interface {
	OnTap(ev TapEvent)
}

// TargetProvider supplies the next click region from the environment (a
// detected game object, a UI widget slot). Outside the motor core's scope
// beyond this contract.
type TargetProvider interface {
	// Target returns the next region to act on, or false when nothing is
	// currently actionable.
	Target() (Region, bool)
}

// LogSink is an InputSink that records every event through zap instead of
// dispatching real input. It is the shipped default for dry runs and the
// simulate command; production embedders provide their own sink.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a LogSink writing under the "sink" logger name.
func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("sink")}
}

func (s *LogSink) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *LogSink) MoveTo(ctx context.Context, p ScreenPoint) error {
	s.log.Debug("move", zap.Int("x", p.X), zap.Int("y", p.Y))
	return ctx.Err()
}

func (s *LogSink) Press(ctx context.Context, p ScreenPoint, b Button, withModifier bool) error {
	s.log.Info("press",
		zap.Int("x", p.X), zap.Int("y", p.Y),
		zap.String("button", string(b)), zap.Bool("modifier", withModifier))
	return ctx.Err()
}

func (s *LogSink) Release(ctx context.Context, p ScreenPoint, b Button) error {
	s.log.Info("release",
		zap.Int("x", p.X), zap.Int("y", p.Y), zap.String("button", string(b)))
	return ctx.Err()
}

func (s *LogSink) ModifierDown(ctx context.Context) error {
	s.log.Debug("modifier down")
	return ctx.Err()
}

func (s *LogSink) ModifierUp(ctx context.Context) error {
	s.log.Debug("modifier up")
	return ctx.Err()
}
