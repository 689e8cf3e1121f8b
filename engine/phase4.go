package engine

import (
	"context"
	"time"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/log"
)

// runPhase4 sends Phase4ProbeCount probes in pairs timed to arrive ±0.5s
// around a server-second boundary predicted from totalOffset, and verifies
// that the observed Date matches the prediction for each.
func runPhase4(ctx context.Context, clk clock.Clock, p Prober, profile LatencyProfile, totalOffsetSeconds float64, params Params, cancel *CancelToken, lastSend *clock.Instant) (bool, *enginerr.SyncError) {
	if params.Phase4ProbeCount%2 != 0 {
		params.Phase4ProbeCount++
	}
	medianRTT := profile.Median
	pairs := params.Phase4ProbeCount / 2

	allMatched := true
	for pair := 0; pair < pairs; pair++ {
		for _, delta := range []time.Duration{-500 * time.Millisecond, 500 * time.Millisecond} {
			if cancelled, _ := cancel.Cancelled(); cancelled {
				return false, enginerr.New(enginerr.KindCancelled, enginerr.PhaseVerification)
			}

			waitForGap(clk, *lastSend, params.MinRequestInterval)

			// Predict the local wall instant a boundary + delta away, using
			// the fully combined offset so the target lands near a real
			// server-second edge. If min_request_interval or a prior pair's
			// spacing already carried us past this boundary, keep pushing
			// the target one server-second later — invariant to the
			// analysis, since only which boundary we verify changes.
			offset := time.Duration(totalOffsetSeconds * float64(time.Second))
			_, wallNow := clk.Now()
			nextBoundary := wallNow.Add(offset).Second().Add(time.Second)
			var sendWall clock.WallInstant
			for {
				targetServerArrival := nextBoundary.Add(delta)
				targetLocalArrival := targetServerArrival.Add(-offset)
				sendWall = targetLocalArrival.Add(-medianRTT / 2)
				if sendWall.Sub(wallNow) > 0 {
					break
				}
				nextBoundary = nextBoundary.Add(time.Second)
			}

			sendMono := clk.NowMonotonic().Add(sendWall.Sub(wallNow))
			clk.SleepUntil(sendMono)
			*lastSend = clk.NowMonotonic()

			var predictedServerSecond int64
			if delta < 0 {
				predictedServerSecond = nextBoundary.Add(-time.Second).UnixSeconds()
			} else {
				predictedServerSecond = nextBoundary.UnixSeconds()
			}

			sample, err := p.Probe(ctx, params.PerProbeDeadline)
			if err != nil {
				log.Warnf(log.Phase4, "verification probe failed: %v", err)
				allMatched = false
				continue
			}

			observedSecond := sample.ServerInstant.UnixSeconds()
			if observedSecond != predictedServerSecond {
				log.Warnf(log.Phase4, "verification mismatch: predicted %d observed %d", predictedServerSecond, observedSecond)
				allMatched = false
			}
		}
	}

	return allMatched, nil
}

const (
	phase4Base   = phase3Base + phase3Weight
	phase4Weight = 100.0 - phase4Base
)
