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

// singleShotProber returns one canned sample and records the send instant it
// observed, letting a test assert on scheduling without deriving it from a
// physically simulated skew.
type singleShotProber struct {
	clk           *clock.Mock
	serverSeconds int64
	rtt           time.Duration
}

func (s *singleShotProber) Probe(ctx context.Context, deadline time.Duration) (probe.Sample, *enginerr.SyncError) {
	send := s.clk.NowMonotonic()
	return probe.Sample{
		SendMonotonic: send,
		RTT:           s.rtt,
		ServerInstant: clock.NewWallInstant(time.Unix(s.serverSeconds, 0).UTC()),
	}, nil
}

func phase3Fixture() (params Params, profile LatencyProfile) {
	profile = ComputeLatencyProfile([]time.Duration{11 * time.Millisecond, 12 * time.Millisecond, 13 * time.Millisecond})
	params = DefaultParams()
	return params, profile
}

func TestRunPhase3Iteration_LaterWhenSecondsAgree(t *testing.T) {
	epoch := time.Unix(2000000000, 0).UTC()
	clk := clock.NewMock(epoch)
	params, profile := phase3Fixture()

	st := &phase3State{l: 0, r: 1, previousServerSecond: 2000000000, previousSendWall: clock.NewWallInstant(epoch)}
	prober := &singleShotProber{clk: clk, serverSeconds: 2000000001, rtt: profile.Median}
	var lastSend clock.Instant

	result, err := runPhase3Iteration(context.Background(), clk, prober, profile, WholeOffset(0), profile.Median, st, 0.5, params, &lastSend)
	require.Nil(t, err)
	assert.Equal(t, decisionLater, result.decision)
	assert.Equal(t, int64(2000000001), result.thisServerSecond)
}

func TestRunPhase3Iteration_AtOrBeforeWhenServerJumpsAhead(t *testing.T) {
	epoch := time.Unix(2000000000, 0).UTC()
	clk := clock.NewMock(epoch)
	params, profile := phase3Fixture()

	st := &phase3State{l: 0, r: 1, previousServerSecond: 2000000000, previousSendWall: clock.NewWallInstant(epoch)}
	prober := &singleShotProber{clk: clk, serverSeconds: 2000000002, rtt: profile.Median}
	var lastSend clock.Instant

	result, err := runPhase3Iteration(context.Background(), clk, prober, profile, WholeOffset(0), profile.Median, st, 0.5, params, &lastSend)
	require.Nil(t, err)
	assert.Equal(t, decisionAtOrBefore, result.decision)
}

func TestRunPhase3Iteration_AnomalyWhenServerDoesNotAdvance(t *testing.T) {
	epoch := time.Unix(2000000000, 0).UTC()
	clk := clock.NewMock(epoch)
	params, profile := phase3Fixture()

	st := &phase3State{l: 0, r: 1, previousServerSecond: 2000000000, previousSendWall: clock.NewWallInstant(epoch)}
	prober := &singleShotProber{clk: clk, serverSeconds: 2000000000, rtt: profile.Median}
	var lastSend clock.Instant

	result, err := runPhase3Iteration(context.Background(), clk, prober, profile, WholeOffset(0), profile.Median, st, 0.5, params, &lastSend)
	require.Nil(t, err)
	assert.Equal(t, decisionAnomaly, result.decision)
}

// outOfBandProber always reports an RTT outside the profile's [Q1,Q3] band,
// forcing runPhase3Iteration to exhaust its retries.
type outOfBandProber struct {
	clk *clock.Mock
}

func (o *outOfBandProber) Probe(ctx context.Context, deadline time.Duration) (probe.Sample, *enginerr.SyncError) {
	return probe.Sample{
		SendMonotonic: o.clk.NowMonotonic(),
		RTT:           900 * time.Millisecond,
		ServerInstant: clock.NewWallInstant(time.Unix(2000000001, 0).UTC()),
	}, nil
}

func TestRunPhase3Iteration_ExhaustsRetriesOnPersistentJitter(t *testing.T) {
	epoch := time.Unix(2000000000, 0).UTC()
	clk := clock.NewMock(epoch)
	params, profile := phase3Fixture()
	params.RetryAttempts = 3

	st := &phase3State{l: 0, r: 1, previousServerSecond: 2000000000, previousSendWall: clock.NewWallInstant(epoch)}
	prober := &outOfBandProber{clk: clk}
	var lastSend clock.Instant

	_, err := runPhase3Iteration(context.Background(), clk, prober, profile, WholeOffset(0), profile.Median, st, 0.5, params, &lastSend)
	require.NotNil(t, err)
	assert.Equal(t, "Transport", err.Kind.String())
}

func TestRunPhase3_ConvergesWithinBoundsForSmallSkew(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMock(epoch)
	clk.Skew = 300 * time.Millisecond

	profile := testProfile()
	prober := newMockProber(clk, []time.Duration{profile.Median})
	target := ServerTarget{}
	params := DefaultParams()
	cancel := NewCancelToken()
	var lastSend clock.Instant

	wholeOffset, seed, err := runPhase2(context.Background(), clk, prober, profile, target, params, cancel, &lastSend)
	require.Nil(t, err)

	subOffset, err := runPhase3(context.Background(), clk, prober, profile, wholeOffset, seed, params, cancel, &lastSend, func(ProgressEvent) {})
	require.Nil(t, err)
	assert.GreaterOrEqual(t, float64(subOffset), 0.0)
	assert.Less(t, float64(subOffset), 1.0)
}

func TestRunPhase3_CancelledMidSearch(t *testing.T) {
	epoch := time.Unix(2000000000, 0).UTC()
	clk := clock.NewMock(epoch)
	params, profile := phase3Fixture()

	seed := probeObservation{sample: probe.Sample{
		SendMonotonic: clk.NowMonotonic(),
		ServerInstant: clock.NewWallInstant(epoch),
	}}
	prober := &singleShotProber{clk: clk, serverSeconds: 2000000001, rtt: profile.Median}
	cancel := NewCancelToken()
	cancel.Cancel(ReasonUser)
	var lastSend clock.Instant

	_, err := runPhase3(context.Background(), clk, prober, profile, WholeOffset(0), seed, params, cancel, &lastSend, func(ProgressEvent) {})
	require.NotNil(t, err)
	assert.Equal(t, "Cancelled", err.Kind.String())
}
