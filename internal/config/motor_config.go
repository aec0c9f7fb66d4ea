// File: internal/config/motor_config.go
// This file defines the MotorConfig struct, which contains all the tunable
// parameters for the humanized input pipeline. These settings control the
// models that generate realistic cursor behavior: spatial sampling inside
// targets, trajectory shape and noise, drift stickiness, timing
// distributions, and the rare corrective behaviors (overshoot, misclick).
//
// The configuration is loaded from YAML via viper, so the "persona" of a
// session can be tuned without touching the motor code.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// MotorConfig is the full persona for one input session.
type MotorConfig struct {
	// Seed fixes the RNG when non-zero; zero seeds from the wall clock.
	Seed int64 `mapstructure:"seed" yaml:"seed"`

	Sampler   SamplerConfig   `mapstructure:"sampler" yaml:"sampler"`
	Drift     DriftConfig     `mapstructure:"drift" yaml:"drift"`
	Path      PathConfig      `mapstructure:"path" yaml:"path"`
	Timing    TimingConfig    `mapstructure:"timing" yaml:"timing"`
	Sequencer SequencerConfig `mapstructure:"sequencer" yaml:"sequencer"`
}

// SamplerConfig shapes the elliptical footprint points are drawn from.
type SamplerConfig struct {
	WidthFrac  float64 `mapstructure:"width_frac" yaml:"width_frac"`
	HeightFrac float64 `mapstructure:"height_frac" yaml:"height_frac"`
}

// DriftConfig parameterizes the AR(1) sticky bias.
type DriftConfig struct {
	Alpha   float64 `mapstructure:"alpha" yaml:"alpha"`
	Sigma   float64 `mapstructure:"sigma" yaml:"sigma"`
	ClampPx float64 `mapstructure:"clamp_px" yaml:"clamp_px"`
}

// PathConfig shapes generated trajectories.
type PathConfig struct {
	Curvature float64 `mapstructure:"curvature" yaml:"curvature"`
	NoisePx   float64 `mapstructure:"noise_px" yaml:"noise_px"`
	TremorAmp float64 `mapstructure:"tremor_amp" yaml:"tremor_amp"`
}

// TimingConfig holds the temporal distribution parameters, all in
// milliseconds. Hard floors live in the motor package and are applied
// underneath these regardless of how low the means are tuned.
type TimingConfig struct {
	StepMinMs int `mapstructure:"step_min_ms" yaml:"step_min_ms"`
	StepMaxMs int `mapstructure:"step_max_ms" yaml:"step_max_ms"`

	DwellMeanMs    float64 `mapstructure:"dwell_mean_ms" yaml:"dwell_mean_ms"`
	DwellStdMs     float64 `mapstructure:"dwell_std_ms" yaml:"dwell_std_ms"`
	ReactionMeanMs float64 `mapstructure:"reaction_mean_ms" yaml:"reaction_mean_ms"`
	ReactionStdMs  float64 `mapstructure:"reaction_std_ms" yaml:"reaction_std_ms"`
	HoldMeanMs     float64 `mapstructure:"hold_mean_ms" yaml:"hold_mean_ms"`
	HoldStdMs      float64 `mapstructure:"hold_std_ms" yaml:"hold_std_ms"`
	KeyLeadMeanMs  float64 `mapstructure:"key_lead_mean_ms" yaml:"key_lead_mean_ms"`
	KeyLeadStdMs   float64 `mapstructure:"key_lead_std_ms" yaml:"key_lead_std_ms"`
	KeyLagMeanMs   float64 `mapstructure:"key_lag_mean_ms" yaml:"key_lag_mean_ms"`
	KeyLagStdMs    float64 `mapstructure:"key_lag_std_ms" yaml:"key_lag_std_ms"`
}

// SequencerConfig holds the executor behavior knobs.
type SequencerConfig struct {
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`

	MisclickProb      float64 `mapstructure:"misclick_prob" yaml:"misclick_prob"`
	MisclickRadiusMin int     `mapstructure:"misclick_radius_min" yaml:"misclick_radius_min"`
	MisclickRadiusMax int     `mapstructure:"misclick_radius_max" yaml:"misclick_radius_max"`
	CorrectionMinMs   int     `mapstructure:"correction_min_ms" yaml:"correction_min_ms"`
	CorrectionMaxMs   int     `mapstructure:"correction_max_ms" yaml:"correction_max_ms"`

	OvershootProb  float64 `mapstructure:"overshoot_prob" yaml:"overshoot_prob"`
	OvershootMinPx int     `mapstructure:"overshoot_min_px" yaml:"overshoot_min_px"`
	OvershootMaxPx int     `mapstructure:"overshoot_max_px" yaml:"overshoot_max_px"`
	SettleMinMs    int     `mapstructure:"settle_min_ms" yaml:"settle_min_ms"`
	SettleMaxMs    int     `mapstructure:"settle_max_ms" yaml:"settle_max_ms"`

	EaseOutTail float64 `mapstructure:"ease_out_tail" yaml:"ease_out_tail"`
	EaseOutMax  float64 `mapstructure:"ease_out_max" yaml:"ease_out_max"`
}

// Validate rejects persona values that would break the motor invariants.
func (m MotorConfig) Validate() error {
	if m.Sampler.WidthFrac <= 0 || m.Sampler.HeightFrac <= 0 {
		return fmt.Errorf("motor.sampler: footprint fractions must be positive")
	}
	if m.Drift.Alpha < 0 || m.Drift.Alpha >= 1 {
		return fmt.Errorf("motor.drift: alpha must be in [0, 1), got %v", m.Drift.Alpha)
	}
	if m.Timing.StepMinMs < 0 || m.Timing.StepMaxMs < m.Timing.StepMinMs {
		return fmt.Errorf("motor.timing: invalid step range [%d, %d]",
			m.Timing.StepMinMs, m.Timing.StepMaxMs)
	}
	if p := m.Sequencer.MisclickProb; p < 0 || p > 1 {
		return fmt.Errorf("motor.sequencer: misclick_prob out of range: %v", p)
	}
	if p := m.Sequencer.OvershootProb; p < 0 || p > 1 {
		return fmt.Errorf("motor.sequencer: overshoot_prob out of range: %v", p)
	}
	return nil
}

// setMotorDefaults registers the stock persona. Values mirror the
// documented typical constants of the pipeline.
func setMotorDefaults(v *viper.Viper) {
	v.SetDefault("motor.seed", 0)

	v.SetDefault("motor.sampler.width_frac", 0.32)
	v.SetDefault("motor.sampler.height_frac", 0.36)

	v.SetDefault("motor.drift.alpha", 0.86)
	v.SetDefault("motor.drift.sigma", 0.9)
	v.SetDefault("motor.drift.clamp_px", 3.0)

	v.SetDefault("motor.path.curvature", 1.0)
	v.SetDefault("motor.path.noise_px", 2.0)
	v.SetDefault("motor.path.tremor_amp", 1.2)

	v.SetDefault("motor.timing.step_min_ms", 6)
	v.SetDefault("motor.timing.step_max_ms", 14)
	v.SetDefault("motor.timing.dwell_mean_ms", 140.0)
	v.SetDefault("motor.timing.dwell_std_ms", 45.0)
	v.SetDefault("motor.timing.reaction_mean_ms", 120.0)
	v.SetDefault("motor.timing.reaction_std_ms", 40.0)
	v.SetDefault("motor.timing.hold_mean_ms", 70.0)
	v.SetDefault("motor.timing.hold_std_ms", 18.0)
	v.SetDefault("motor.timing.key_lead_mean_ms", 45.0)
	v.SetDefault("motor.timing.key_lead_std_ms", 12.0)
	v.SetDefault("motor.timing.key_lag_mean_ms", 40.0)
	v.SetDefault("motor.timing.key_lag_std_ms", 12.0)

	v.SetDefault("motor.sequencer.queue_size", 16)
	v.SetDefault("motor.sequencer.misclick_prob", 0.03)
	v.SetDefault("motor.sequencer.misclick_radius_min", 8)
	v.SetDefault("motor.sequencer.misclick_radius_max", 26)
	v.SetDefault("motor.sequencer.correction_min_ms", 180)
	v.SetDefault("motor.sequencer.correction_max_ms", 420)
	v.SetDefault("motor.sequencer.overshoot_prob", 0.12)
	v.SetDefault("motor.sequencer.overshoot_min_px", 4)
	v.SetDefault("motor.sequencer.overshoot_max_px", 14)
	v.SetDefault("motor.sequencer.settle_min_ms", 40)
	v.SetDefault("motor.sequencer.settle_max_ms", 110)
	v.SetDefault("motor.sequencer.ease_out_tail", 0.25)
	v.SetDefault("motor.sequencer.ease_out_max", 2.2)
}
