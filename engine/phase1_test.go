package engine

import (
	"context"
	"testing"
	"time"

	"github.com/mobster570/ticketime/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPhase1_ComputesFiveNumberSummary(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMock(epoch)

	rtts := []time.Duration{
		12 * time.Millisecond, // discarded: first probe on a warm connection
		10 * time.Millisecond,
		14 * time.Millisecond,
		12 * time.Millisecond,
		13 * time.Millisecond,
		11 * time.Millisecond,
		12 * time.Millisecond,
		13 * time.Millisecond,
		11 * time.Millisecond,
		12 * time.Millisecond,
		10 * time.Millisecond,
	}
	prober := newMockProber(clk, rtts)
	params := DefaultParams()
	cancel := NewCancelToken()

	var events []ProgressEvent
	emit := func(ev ProgressEvent) { events = append(events, ev) }

	samples, profile, err := runPhase1(context.Background(), clk, prober, params, cancel, emit)
	require.Nil(t, err)
	require.Len(t, samples, 10)

	assert.Equal(t, 10*time.Millisecond, profile.Min)
	assert.Equal(t, 14*time.Millisecond, profile.Max)
	assert.Equal(t, 12*time.Millisecond, profile.Median)
	assert.Equal(t, 11*time.Millisecond, profile.Q1)
	assert.Equal(t, 13*time.Millisecond, profile.Q3)

	assert.Len(t, events, 10)
	assert.InDelta(t, phase1Base+phase1Weight, events[9].Percent, 0.001)
}

func TestRunPhase1_RejectsSamplesOutsideRunningRange(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMock(epoch)

	// After the first two accepted samples establish [10ms,14ms], the 30ms
	// spike must be rejected and retried within the same slot.
	rtts := []time.Duration{
		10 * time.Millisecond, // discarded warm probe
		10 * time.Millisecond,
		14 * time.Millisecond,
		30 * time.Millisecond, // rejected: outside running [10,14]
		12 * time.Millisecond, // accepted retry for the same slot
		11 * time.Millisecond,
		12 * time.Millisecond,
		13 * time.Millisecond,
		11 * time.Millisecond,
		12 * time.Millisecond,
		10 * time.Millisecond,
	}
	prober := newMockProber(clk, rtts)
	params := DefaultParams()
	cancel := NewCancelToken()

	samples, profile, err := runPhase1(context.Background(), clk, prober, params, cancel, func(ProgressEvent) {})
	require.Nil(t, err)
	require.Len(t, samples, 10)
	assert.NotContains(t, profile.Sorted, 30*time.Millisecond)
}

func TestRunPhase1_NoisyNetworkExhaustsRetries(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMock(epoch)

	rtts := []time.Duration{
		10 * time.Millisecond, // discarded warm probe
		10 * time.Millisecond,
		14 * time.Millisecond,
	}
	// From here every sample alternates wildly, always outside the running
	// [10,14]ms band, for more than RetryAttempts consecutive tries.
	spikes := []time.Duration{1 * time.Millisecond, 900 * time.Millisecond, 1 * time.Millisecond, 900 * time.Millisecond}
	prober := newMockProber(clk, append(rtts, spikes...))
	params := DefaultParams()
	params.RetryAttempts = 3
	cancel := NewCancelToken()

	_, _, err := runPhase1(context.Background(), clk, prober, params, cancel, func(ProgressEvent) {})
	require.NotNil(t, err)
	assert.Equal(t, "NoisyNetwork", err.Kind.String())
}

func TestRunPhase1_CancelledMidRun(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMock(epoch)
	rtts := []time.Duration{10 * time.Millisecond, 11 * time.Millisecond, 12 * time.Millisecond}
	prober := newMockProber(clk, rtts)
	params := DefaultParams()
	cancel := NewCancelToken()
	cancel.Cancel(ReasonUser)

	_, _, err := runPhase1(context.Background(), clk, prober, params, cancel, func(ProgressEvent) {})
	require.NotNil(t, err)
	assert.Equal(t, "Cancelled", err.Kind.String())
}
