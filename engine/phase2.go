package engine

import (
	"context"
	"time"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/log"
)

// boundaryHazardFloor is the minimum distance a predicted arrival must keep
// from a server-second boundary before Phase 2 accepts it, per spec's
// "max(5ms, RTT-jitter)" hazard rule.
const boundaryHazardFloor = 5 * time.Millisecond

// runPhase2 arranges a probe whose arrival lands near the middle of a local
// second, then derives the integer-second offset between the client and
// server clocks from the server's reported second and the client's own
// predicted-arrival second.
func runPhase2(ctx context.Context, clk clock.Clock, p Prober, profile LatencyProfile, target ServerTarget, params Params, cancel *CancelToken, lastSend *clock.Instant) (WholeOffset, probeObservation, *enginerr.SyncError) {
	medianRTT := profile.Median
	jitter := profile.Q3 - profile.Q1
	hazard := boundaryHazardFloor
	if jitter > hazard {
		hazard = jitter
	}

	offsetHint := 0.0
	if target.CachedDriftHint != nil {
		offsetHint = *target.CachedDriftHint
	}

	for attempt := 0; attempt < params.RetryAttempts; attempt++ {
		if cancelled, _ := cancel.Cancelled(); cancelled {
			return 0, probeObservation{}, enginerr.New(enginerr.KindCancelled, enginerr.PhaseWholeSecond)
		}

		waitForGap(clk, *lastSend, params.MinRequestInterval)

		_, wallNow := clk.Now()
		secondStart := wallNow.Second()
		midOfSecond := secondStart.Add(500*time.Millisecond + time.Duration(offsetHint*float64(time.Second)))

		sendMono := clk.NowMonotonic().Add(midOfSecond.Sub(wallNow) - medianRTT/2)

		if isNearBoundary(midOfSecond, hazard) {
			log.Warnln(log.Phase2, "predicted arrival too close to a second boundary, retrying")
			continue
		}

		clk.SleepUntil(sendMono)
		*lastSend = clk.NowMonotonic()

		predictedServerInstant := midOfSecond

		sample, err := p.Probe(ctx, params.PerProbeDeadline)
		if err != nil {
			log.Debugf(log.Phase2, "attempt %d probe failed: %v", attempt, err)
			continue
		}
		if !profile.InBand(sample.RTT) {
			log.Debugf(log.Phase2, "attempt %d rtt %s outside [%s,%s]", attempt, sample.RTT, profile.Q1, profile.Q3)
			continue
		}

		wholeOffset := WholeOffset(sample.ServerInstant.UnixSeconds() - predictedServerInstant.UnixSeconds())
		return wholeOffset, probeObservation{sample: sample}, nil
	}

	return 0, probeObservation{}, enginerr.New(enginerr.KindAmbiguousBoundary, enginerr.PhaseWholeSecond)
}

// isNearBoundary reports whether t lies within margin of a whole-second
// boundary in either direction.
func isNearBoundary(t clock.WallInstant, margin time.Duration) bool {
	sub := t.SubSecond()
	subDur := time.Duration(sub * float64(time.Second))
	return subDur < margin || time.Second-subDur < margin
}

const (
	phase2Base   = phase1Base + phase1Weight
	phase2Weight = 15.0
)
