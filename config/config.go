// Package config loads engine and daemon settings from environment
// variables, an optional YAML file, and defaults, in that precedence order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mobster570/ticketime/engine"
)

// Settings is the settings map spec.md §6 requires the engine's
// collaborators to supply, plus the per-run tuning options of the same
// section and the daemon's own storage/logging options.
type Settings struct {
	MinRequestIntervalMS   int64  `mapstructure:"min_request_interval_ms"`
	HealthResyncThresholdMS int64 `mapstructure:"health_resync_threshold_ms"`
	ExternalTimeSource     string `mapstructure:"external_time_source"`
	DriftWarningThresholdMS int64 `mapstructure:"drift_warning_threshold_ms"`

	Phase1SampleCount        int   `mapstructure:"phase1_sample_count"`
	Phase3MaxIterations      int   `mapstructure:"phase3_max_iterations"`
	Phase3TerminationWidthMS int64 `mapstructure:"phase3_termination_width_ms"`
	Phase4ProbeCount         int   `mapstructure:"phase4_probe_count"`
	RetryAttemptsPerProbe    int   `mapstructure:"retry_attempts_per_probe"`
	PerProbeDeadlineMS       int64 `mapstructure:"per_probe_deadline_ms"`

	StorePath string `mapstructure:"store_path"`
	LogLevel  string `mapstructure:"log_level"`
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables under the TIMESYNCD_ prefix (e.g.
// TIMESYNCD_MIN_REQUEST_INTERVAL_MS).
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TIMESYNCD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("min_request_interval_ms", 500)
	v.SetDefault("health_resync_threshold_ms", 24*time.Hour.Milliseconds())
	v.SetDefault("external_time_source", "")
	v.SetDefault("drift_warning_threshold_ms", 250)

	v.SetDefault("phase1_sample_count", 10)
	v.SetDefault("phase3_max_iterations", 20)
	v.SetDefault("phase3_termination_width_ms", 1)
	v.SetDefault("phase4_probe_count", 4)
	v.SetDefault("retry_attempts_per_probe", 3)
	v.SetDefault("per_probe_deadline_ms", 5000)

	v.SetDefault("store_path", "timesyncd.db")
	v.SetDefault("log_level", "info")
}

// EngineParams derives an engine.Params from the tuning options, applying
// the phase4_probe_count-must-be-even rule at the boundary (runPhase4 applies
// the same rounding again), so a bad config is corrected before a run starts.
func (s Settings) EngineParams() engine.Params {
	probeCount := s.Phase4ProbeCount
	if probeCount%2 != 0 {
		probeCount++
	}
	return engine.Params{
		MinRequestInterval:  time.Duration(s.MinRequestIntervalMS) * time.Millisecond,
		Phase1SampleCount:   s.Phase1SampleCount,
		Phase3MaxIterations: s.Phase3MaxIterations,
		Phase3TermWidth:     time.Duration(s.Phase3TerminationWidthMS) * time.Millisecond,
		Phase4ProbeCount:    probeCount,
		RetryAttempts:       s.RetryAttemptsPerProbe,
		PerProbeDeadline:    time.Duration(s.PerProbeDeadlineMS) * time.Millisecond,
		ExternalTimeSource:  s.ExternalTimeSource,
	}
}

// HealthResyncThreshold is the age beyond which a cached drift hint is
// considered stale and Phase 2 should seed from 0 instead, per the
// offset_hint staleness decision recorded in DESIGN.md.
func (s Settings) HealthResyncThreshold() time.Duration {
	return time.Duration(s.HealthResyncThresholdMS) * time.Millisecond
}

// DriftWarningThreshold is the |offset| beyond which a completed run's
// drift is worth surfacing to an operator.
func (s Settings) DriftWarningThreshold() time.Duration {
	return time.Duration(s.DriftWarningThresholdMS) * time.Millisecond
}
