// internal/motor/sequencer.go
package motor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned by Submit after the sequencer has shut down.
	ErrClosed = errors.New("motor: sequencer closed")
	// ErrQueueFull is returned by Submit when the intent queue is at
	// capacity. The caller decides whether to drop or retry later.
	ErrQueueFull = errors.New("motor: intent queue full")
)

// SequencerConfig holds the behavioral knobs of the executor.
type SequencerConfig struct {
	// QueueSize bounds the pending intent queue.
	QueueSize int

	// MisclickProb is the chance a sequence opens with a full click at an
	// offset point before correcting onto the real target.
	MisclickProb float64
	// MisclickRadiusMin/Max bound the offset radius in pixels.
	MisclickRadiusMin int
	MisclickRadiusMax int
	// CorrectionMin/MaxMs bound the pause between the stray click and the
	// corrective approach.
	CorrectionMinMs int
	CorrectionMaxMs int

	// OvershootProb is the chance the cursor sails past the target and
	// settles before the final approach. Mutually exclusive with misclick
	// within one sequence.
	OvershootProb float64
	// OvershootMin/MaxPx bound how far past the target the cursor goes.
	OvershootMinPx int
	OvershootMaxPx int
	// SettleMin/MaxMs bound the pause at the overshoot point.
	SettleMinMs int
	SettleMaxMs int

	// EaseOutTail is the trailing fraction of the approach over which step
	// delays are stretched, modeling deceleration into the target.
	EaseOutTail float64
	// EaseOutMax is the delay multiplier reached at the final step.
	EaseOutMax float64
}

// DefaultSequencerConfig returns the stock executor behavior.
func DefaultSequencerConfig() SequencerConfig {
	return SequencerConfig{
		QueueSize:         16,
		MisclickProb:      0.03,
		MisclickRadiusMin: 8,
		MisclickRadiusMax: 26,
		CorrectionMinMs:   180,
		CorrectionMaxMs:   420,
		OvershootProb:     0.12,
		OvershootMinPx:    4,
		OvershootMaxPx:    14,
		SettleMinMs:       40,
		SettleMaxMs:       110,
		EaseOutTail:       0.25,
		EaseOutMax:        2.2,
	}
}

// Sequencer serializes click intents onto one dedicated worker goroutine.
// At most one synthetic input sequence is ever in flight; the host loop is
// never blocked because every sleep happens inside the worker. The worker
// alone owns the last-known cursor position, so consecutive sequences chain
// their trajectories without external synchronization.
type Sequencer struct {
	log     *zap.Logger
	cfg     SequencerConfig
	sink    InputSink
	pos     PositionSource
	planner *PathPlanner
	timing  *TimingComposer
	drift   *Drift
	taps    TapSink
	rnd     *Rand

	sessionID uuid.UUID
	now       func() time.Time

	mu      sync.Mutex
	started bool
	closed  bool
	queue   chan ClickIntent
	cancel  context.CancelFunc
	done    chan struct{}

	// Worker-owned; nil until the first completed sequence or position
	// source read.
	lastPos *ScreenPoint
}

// NewSequencer wires an executor. pos, drift and taps may be nil.
func NewSequencer(
	cfg SequencerConfig,
	sink InputSink,
	pos PositionSource,
	planner *PathPlanner,
	timing *TimingComposer,
	drift *Drift,
	taps TapSink,
	rnd *Rand,
	log *zap.Logger,
) *Sequencer {
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &Sequencer{
		log:       log.Named("sequencer"),
		cfg:       cfg,
		sink:      sink,
		pos:       pos,
		planner:   planner,
		timing:    timing,
		drift:     drift,
		taps:      taps,
		rnd:       rnd,
		sessionID: uuid.New(),
		now:       time.Now,
		queue:     make(chan ClickIntent, cfg.QueueSize),
		done:      make(chan struct{}),
	}
}

// SessionID returns the id stamped onto every tap this sequencer emits.
func (s *Sequencer) SessionID() uuid.UUID {
	return s.sessionID
}

// Start launches the worker. Calling Start more than once is a no-op.
func (s *Sequencer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
}

// Submit enqueues an intent. Intents execute strictly in submission order.
// Returns ErrQueueFull when the bounded queue is at capacity and ErrClosed
// after shutdown; it never blocks.
func (s *Sequencer) Submit(intent ClickIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- intent:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close aborts any in-flight sequence, discards queued intents and waits
// for the worker to exit. Safe to call more than once.
func (s *Sequencer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if s.started {
			<-s.done
		}
		return nil
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	if !started {
		close(s.done)
		return nil
	}
	s.cancel()
	close(s.queue)
	<-s.done
	return nil
}

func (s *Sequencer) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case intent, ok := <-s.queue:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				// Shutdown raced the queue drain; drop the remainder.
				return
			}
			s.runIntent(ctx, intent)
		}
	}
}

// runIntent executes one sequence, containing every failure. A failed or
// aborted click is silent beyond a log line; callers re-detect and resubmit
// rather than receive errors.
func (s *Sequencer) runIntent(ctx context.Context, intent ClickIntent) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("click sequence panicked",
				zap.Any("panic", r), zap.String("tag", intent.Tag))
		}
	}()

	err := s.execute(ctx, intent)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		s.log.Debug("click sequence aborted", zap.String("tag", intent.Tag))
	default:
		s.log.Warn("click sequence failed",
			zap.Error(err), zap.String("tag", intent.Tag))
	}
}

// execute drives one intent through the full state machine:
// plan -> (misclick | overshoot) -> approach -> dwell ensure ->
// modifier down -> press/hold/release -> modifier up -> done.
func (s *Sequencer) execute(ctx context.Context, intent ClickIntent) error {
	if intent.Button == "" {
		intent.Button = ButtonLeft
	}
	target := intent.Target
	timings := s.timing.Compose()

	cursor := s.lastPos
	if cursor == nil && s.pos != nil {
		if p, ok := s.pos.Pointer(); ok {
			cursor = &p
		}
	}

	switch {
	case s.rnd.Chance(s.cfg.MisclickProb):
		miss, err := s.misclick(ctx, cursor, target, intent.Button, timings, intent.Tag)
		if err != nil {
			return err
		}
		cursor = &miss
	case s.rnd.Chance(s.cfg.OvershootProb):
		over, err := s.overshoot(ctx, cursor, target, timings)
		if err != nil {
			return err
		}
		cursor = &over
	}

	lastMove, err := s.approach(ctx, cursor, target, timings, true)
	if err != nil {
		return err
	}

	// Reaction latency between settling and committing, then top the hover
	// up to the dwell target. Elapsed time is measured from the last move
	// event, so motion spent on overshoot or misclick correction already
	// counts toward the dwell window instead of stacking a fixed delay on
	// top of it.
	if err := s.sink.Sleep(ctx, timings.Reaction(s.rnd)); err != nil {
		return err
	}
	if deficit := timings.Dwell(s.rnd) - s.now().Sub(lastMove); deficit > 0 {
		if err := s.sink.Sleep(ctx, deficit); err != nil {
			return err
		}
	}

	if intent.HoldModifier {
		if err := s.sink.ModifierDown(ctx); err != nil {
			return err
		}
		err = s.modifiedClick(ctx, target, intent, timings)
	} else {
		err = s.click(ctx, target, intent.Button, false, timings, intent.Tag)
	}
	if err != nil {
		return err
	}

	s.lastPos = &target
	return nil
}

// modifiedClick wraps the click in the already-pressed modifier key,
// guaranteeing the key comes back up even when the sequence is cut short.
func (s *Sequencer) modifiedClick(ctx context.Context, target ScreenPoint, intent ClickIntent, timings TimingPlan) (err error) {
	defer func() {
		upCtx := ctx
		if ctx.Err() != nil || err != nil {
			// Never leave the modifier stuck down.
			upCtx = context.WithoutCancel(ctx)
		}
		if upErr := s.sink.ModifierUp(upCtx); upErr != nil && err == nil {
			err = upErr
		}
	}()

	if err = s.sink.Sleep(ctx, timings.KeyLead); err != nil {
		return err
	}
	if err = s.click(ctx, target, intent.Button, true, timings, intent.Tag); err != nil {
		return err
	}
	return s.sink.Sleep(ctx, timings.KeyLag)
}

// click performs press -> hold -> release, notifying the tap sink once,
// immediately before the press becomes committed. If the hold sleep is
// interrupted the release is still dispatched before the error surfaces;
// a button left stuck down is never acceptable.
func (s *Sequencer) click(ctx context.Context, p ScreenPoint, b Button, withModifier bool, timings TimingPlan, tag string) error {
	s.publishTap(p, b, withModifier, tag)

	if err := s.sink.Press(ctx, p, b, withModifier); err != nil {
		return err
	}
	holdErr := s.sink.Sleep(ctx, timings.Hold(s.rnd))

	relCtx := ctx
	if holdErr != nil {
		relCtx = context.WithoutCancel(ctx)
	}
	if err := s.sink.Release(relCtx, p, b); err != nil {
		return fmt.Errorf("release after press: %w", err)
	}
	return holdErr
}

// misclick lands a complete click at a random offset around the target,
// pauses, and leaves the cursor at the miss point for the corrective
// approach that follows.
func (s *Sequencer) misclick(ctx context.Context, cursor *ScreenPoint, target ScreenPoint, b Button, timings TimingPlan, tag string) (ScreenPoint, error) {
	radius := float64(s.rnd.UniformInt(s.cfg.MisclickRadiusMin, s.cfg.MisclickRadiusMax))
	angle := s.rnd.Float() * 2 * math.Pi
	miss := target.Vec().Add(Vec{
		X: math.Cos(angle) * radius,
		Y: math.Sin(angle) * radius,
	}).Point()

	lastMove, err := s.approach(ctx, cursor, miss, timings, false)
	if err != nil {
		return miss, err
	}
	if err := s.sink.Sleep(ctx, timings.Reaction(s.rnd)); err != nil {
		return miss, err
	}
	if deficit := timings.Dwell(s.rnd) - s.now().Sub(lastMove); deficit > 0 {
		if err := s.sink.Sleep(ctx, deficit); err != nil {
			return miss, err
		}
	}
	if err := s.click(ctx, miss, b, false, timings, tag); err != nil {
		return miss, err
	}

	correction := time.Duration(s.rnd.UniformInt(s.cfg.CorrectionMinMs, s.cfg.CorrectionMaxMs)) * time.Millisecond
	return miss, s.sink.Sleep(ctx, correction)
}

// overshoot moves past the target along the approach direction and settles
// briefly, leaving the cursor at the overshoot point.
func (s *Sequencer) overshoot(ctx context.Context, cursor *ScreenPoint, target ScreenPoint, timings TimingPlan) (ScreenPoint, error) {
	dir := Vec{X: 0, Y: 1}
	if cursor != nil {
		if d := target.Vec().Sub(cursor.Vec()); d.Mag() > 1e-9 {
			dir = d.Normalize()
		}
	}
	offset := float64(s.rnd.UniformInt(s.cfg.OvershootMinPx, s.cfg.OvershootMaxPx))
	over := target.Vec().Add(dir.Mul(offset)).Point()

	if _, err := s.approach(ctx, cursor, over, timings, false); err != nil {
		return over, err
	}
	settle := time.Duration(s.rnd.UniformInt(s.cfg.SettleMinMs, s.cfg.SettleMaxMs)) * time.Millisecond
	return over, s.sink.Sleep(ctx, settle)
}

// approach plans and walks a trajectory to the destination, returning the
// timestamp of the final move event. Intermediate waypoints pick up the
// session drift bias; the destination itself is never perturbed.
func (s *Sequencer) approach(ctx context.Context, cursor *ScreenPoint, dest ScreenPoint, timings TimingPlan, easeOut bool) (time.Time, error) {
	plan := s.planner.Plan(cursor, &dest, timings.StepMin, timings.StepMax)

	if s.drift != nil && len(plan.Path) > 1 {
		bias := s.drift.Step()
		dx, dy := int(math.Round(bias.X)), int(math.Round(bias.Y))
		for i := range plan.Path[:len(plan.Path)-1] {
			plan.Path[i].X += dx
			plan.Path[i].Y += dy
		}
	}

	lastMove := s.now()
	n := len(plan.Path)
	for i, p := range plan.Path {
		if err := s.sink.MoveTo(ctx, p); err != nil {
			return lastMove, err
		}
		lastMove = s.now()
		if i == n-1 {
			break
		}

		delay := time.Duration(s.rnd.UniformInt(
			int(plan.StepMin/time.Millisecond),
			int(plan.StepMax/time.Millisecond))) * time.Millisecond
		if easeOut && s.cfg.EaseOutTail > 0 && n > 1 {
			progress := float64(i) / float64(n-1)
			if tail := 1.0 - s.cfg.EaseOutTail; progress > tail {
				k := (progress - tail) / s.cfg.EaseOutTail
				delay = time.Duration(float64(delay) * (1.0 + k*(s.cfg.EaseOutMax-1.0)))
			}
		}
		if err := s.sink.Sleep(ctx, delay); err != nil {
			return lastMove, err
		}
	}
	return lastMove, nil
}

func (s *Sequencer) publishTap(p ScreenPoint, b Button, withModifier bool, tag string) {
	if s.taps == nil {
		return
	}
	s.taps.OnTap(TapEvent{
		Time:      s.now(),
		X:         p.X,
		Y:         p.Y,
		Kind:      TapClick,
		Button:    b,
		Modifier:  withModifier,
		SessionID: s.sessionID,
		Tag:       tag,
	})
}
