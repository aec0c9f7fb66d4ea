// File: internal/session/session.go
//
// Session is the composition root for one humanized input session. It owns
// the shared RNG, the drift state, the sampler/planner/timing trio and the
// sequencer worker, and exposes the small surface callers actually use:
// "click somewhere in this region". Everything the sequencer needs is
// constructor-injected here; there are no package-level singletons.
package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sablewood/arbor/internal/config"
	"github.com/sablewood/arbor/internal/motor"
)

// Session drives clicks against regions supplied by the environment.
type Session struct {
	log     *zap.Logger
	rnd     *motor.Rand
	drift   *motor.Drift
	sampler *motor.Sampler
	timing  *motor.TimingComposer
	seq     *motor.Sequencer
	taps    *motor.TapBus
}

// New builds a session from the persona configuration. sink must dispatch
// the synthetic events; pos may be nil when the environment cannot report
// the real pointer.
func New(cfg config.MotorConfig, sink motor.InputSink, pos motor.PositionSource, log *zap.Logger) (*Session, error) {
	if sink == nil {
		return nil, fmt.Errorf("session: input sink is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var rnd *motor.Rand
	if cfg.Seed != 0 {
		rnd = motor.NewRand(cfg.Seed)
	} else {
		rnd = motor.NewTimeSeededRand()
	}

	drift := motor.NewDrift(cfg.Drift.Alpha, cfg.Drift.Sigma, cfg.Drift.ClampPx, rnd)
	sampler := motor.NewSampler(cfg.Sampler.WidthFrac, cfg.Sampler.HeightFrac, rnd)

	timing := motor.NewTimingComposer(motor.TimingConfig{
		StepMinMs:      cfg.Timing.StepMinMs,
		StepMaxMs:      cfg.Timing.StepMaxMs,
		DwellMeanMs:    cfg.Timing.DwellMeanMs,
		DwellStdMs:     cfg.Timing.DwellStdMs,
		ReactionMeanMs: cfg.Timing.ReactionMeanMs,
		ReactionStdMs:  cfg.Timing.ReactionStdMs,
		HoldMeanMs:     cfg.Timing.HoldMeanMs,
		HoldStdMs:      cfg.Timing.HoldStdMs,
		KeyLeadMeanMs:  cfg.Timing.KeyLeadMeanMs,
		KeyLeadStdMs:   cfg.Timing.KeyLeadStdMs,
		KeyLagMeanMs:   cfg.Timing.KeyLagMeanMs,
		KeyLagStdMs:    cfg.Timing.KeyLagStdMs,
	}, rnd)

	planner := motor.NewPathPlanner(
		cfg.Path.Curvature, cfg.Path.NoisePx, cfg.Path.TremorAmp,
		rnd.Int63(), rnd)

	taps := motor.NewTapBus()

	seq := motor.NewSequencer(motor.SequencerConfig{
		QueueSize:         cfg.Sequencer.QueueSize,
		MisclickProb:      cfg.Sequencer.MisclickProb,
		MisclickRadiusMin: cfg.Sequencer.MisclickRadiusMin,
		MisclickRadiusMax: cfg.Sequencer.MisclickRadiusMax,
		CorrectionMinMs:   cfg.Sequencer.CorrectionMinMs,
		CorrectionMaxMs:   cfg.Sequencer.CorrectionMaxMs,
		OvershootProb:     cfg.Sequencer.OvershootProb,
		OvershootMinPx:    cfg.Sequencer.OvershootMinPx,
		OvershootMaxPx:    cfg.Sequencer.OvershootMaxPx,
		SettleMinMs:       cfg.Sequencer.SettleMinMs,
		SettleMaxMs:       cfg.Sequencer.SettleMaxMs,
		EaseOutTail:       cfg.Sequencer.EaseOutTail,
		EaseOutMax:        cfg.Sequencer.EaseOutMax,
	}, sink, pos, planner, timing, drift, taps, rnd, log)

	s := &Session{
		log:     log.Named("session"),
		rnd:     rnd,
		drift:   drift,
		sampler: sampler,
		timing:  timing,
		seq:     seq,
		taps:    taps,
	}
	return s, nil
}

// Start launches the sequencer worker and marks the session start for
// fatigue scaling.
func (s *Session) Start() {
	s.timing.StartSession()
	s.seq.Start()
}

// Close shuts the sequencer down, aborting any in-flight sequence.
func (s *Session) Close() error {
	return s.seq.Close()
}

// Subscribe attaches a tap consumer (recorder, HUD stream, test probe).
func (s *Session) Subscribe(sink motor.TapSink) {
	s.taps.Subscribe(sink)
}

// Sequencer exposes the underlying executor for callers that build their
// own intents.
func (s *Session) Sequencer() *motor.Sequencer {
	return s.seq
}

// ClickRegion samples a point inside the region, biased by the session
// drift, and submits a left-click intent for it.
func (s *Session) ClickRegion(region motor.Region, tag string) error {
	target := s.sampler.Pick(region, s.drift.Step())
	return s.seq.Submit(motor.ClickIntent{
		Target: target,
		Button: motor.ButtonLeft,
		Tag:    tag,
	})
}

// DropClick is ClickRegion with the modifier key held through the press,
// the shape of an inventory drop action.
func (s *Session) DropClick(region motor.Region, tag string) error {
	target := s.sampler.Pick(region, s.drift.Step())
	return s.seq.Submit(motor.ClickIntent{
		Target:       target,
		Button:       motor.ButtonLeft,
		HoldModifier: true,
		Tag:          tag,
	})
}
