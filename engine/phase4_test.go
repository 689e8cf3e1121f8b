package engine

import (
	"context"
	"testing"
	"time"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPhase4_AllPredictionsMatchVerifies(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMock(epoch)
	clk.Skew = 400 * time.Millisecond

	profile := testProfile()
	prober := newMockProber(clk, []time.Duration{profile.Median})
	params := DefaultParams()
	params.Phase4ProbeCount = 4
	cancel := NewCancelToken()
	var lastSend clock.Instant

	totalOffsetSeconds := 0.400
	verified, err := runPhase4(context.Background(), clk, prober, profile, totalOffsetSeconds, params, cancel, &lastSend)
	require.Nil(t, err)
	assert.True(t, verified)
}

func TestRunPhase4_OddProbeCountRoundsUpToEven(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMock(epoch)
	clk.Skew = 400 * time.Millisecond

	profile := testProfile()
	prober := newMockProber(clk, []time.Duration{profile.Median})
	params := DefaultParams()
	params.Phase4ProbeCount = 3
	cancel := NewCancelToken()
	var lastSend clock.Instant

	_, err := runPhase4(context.Background(), clk, prober, profile, 0.400, params, cancel, &lastSend)
	require.Nil(t, err)
}

// staleSecondProber always reports a fixed, far-in-the-past server second,
// regardless of when it is called — a stand-in for a server whose clock
// disagrees with every prediction phase4 could possibly compute.
type staleSecondProber struct {
	clk *clock.Mock
}

func (s *staleSecondProber) Probe(ctx context.Context, deadline time.Duration) (probe.Sample, *enginerr.SyncError) {
	send := s.clk.NowMonotonic()
	s.clk.Advance(12 * time.Millisecond)
	return probe.Sample{
		SendMonotonic: send,
		RecvMonotonic: s.clk.NowMonotonic(),
		RTT:           12 * time.Millisecond,
		ServerInstant: clock.NewWallInstant(time.Unix(1, 0).UTC()),
	}, nil
}

func TestRunPhase4_MismatchYieldsUnverified(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMock(epoch)

	profile := testProfile()
	prober := &staleSecondProber{clk: clk}
	params := DefaultParams()
	params.Phase4ProbeCount = 4
	cancel := NewCancelToken()
	var lastSend clock.Instant

	verified, err := runPhase4(context.Background(), clk, prober, profile, 0.400, params, cancel, &lastSend)
	require.Nil(t, err)
	assert.False(t, verified)
}

func TestRunPhase4_CancelledMidVerification(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMock(epoch)
	profile := testProfile()
	prober := newMockProber(clk, []time.Duration{profile.Median})
	params := DefaultParams()
	cancel := NewCancelToken()
	cancel.Cancel(ReasonUser)
	var lastSend clock.Instant

	_, err := runPhase4(context.Background(), clk, prober, profile, 0.4, params, cancel, &lastSend)
	require.NotNil(t, err)
	assert.Equal(t, "Cancelled", err.Kind.String())
}
