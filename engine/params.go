package engine

import "time"

// Params carries the tuning options of spec.md section 6's configuration
// table, scoped to a single run.
type Params struct {
	MinRequestInterval  time.Duration
	Phase1SampleCount   int
	Phase3MaxIterations int
	Phase3TermWidth     time.Duration
	Phase4ProbeCount    int
	RetryAttempts       int
	PerProbeDeadline    time.Duration
	ExternalTimeSource  string
}

// DefaultParams returns the defaults named in spec.md section 6.
func DefaultParams() Params {
	return Params{
		MinRequestInterval:  500 * time.Millisecond,
		Phase1SampleCount:   10,
		Phase3MaxIterations: 20,
		Phase3TermWidth:     time.Millisecond,
		Phase4ProbeCount:    4,
		RetryAttempts:       3,
		PerProbeDeadline:    5 * time.Second,
	}
}
