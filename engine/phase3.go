package engine

import (
	"context"
	"time"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/log"
)

// phase3State tracks the narrowing search interval and the "pre-tick"
// baseline observation the elapsed-second arithmetic is anchored to.
type phase3State struct {
	l, r                 float64
	previousServerSecond int64
	previousSendWall     clock.WallInstant
}

// runPhase3 iteratively halves [0, 1) seconds, on each iteration scheduling
// a probe to arrive at the candidate fractional-second position and using
// whether the server had already ticked over at arrival to decide which
// half of the interval survives.
func runPhase3(ctx context.Context, clk clock.Clock, p Prober, profile LatencyProfile, wholeOffset WholeOffset, seed probeObservation, params Params, cancel *CancelToken, lastSend *clock.Instant, emit func(ProgressEvent)) (SubOffset, *enginerr.SyncError) {
	st := &phase3State{
		l:                    0,
		r:                    1,
		previousServerSecond: seed.sample.ServerInstant.UnixSeconds(),
		previousSendWall:     wallOf(seed.sample.SendMonotonic, clk),
	}

	termWidth := params.Phase3TermWidth.Seconds()
	medianRTT := profile.Median
	consecutiveAnomalies := 0

	iteration := 0
	for ; iteration < params.Phase3MaxIterations; iteration++ {
		if cancelled, _ := cancel.Cancelled(); cancelled {
			return 0, enginerr.New(enginerr.KindCancelled, enginerr.PhaseBinarySearch)
		}
		if st.r-st.l < termWidth {
			break
		}

		mid := (st.l + st.r) / 2

		result, err := runPhase3Iteration(ctx, clk, p, profile, wholeOffset, medianRTT, st, mid, params, lastSend)
		if err != nil {
			if err.Kind == enginerr.KindTransport || err.Kind == enginerr.KindTimeout || err.Kind == enginerr.KindBadResponse {
				continue // runPhase3Iteration exhausted its retries; bounds unchanged, try the next iteration
			}
			return 0, err
		}

		switch result.decision {
		case decisionAnomaly:
			consecutiveAnomalies++
			if consecutiveAnomalies >= params.RetryAttempts {
				return 0, enginerr.New(enginerr.KindUnstableBoundary, enginerr.PhaseBinarySearch)
			}
			iteration-- // this iteration didn't move the bounds; don't count it
			continue
		case decisionLater:
			consecutiveAnomalies = 0
			st.l = mid
			st.previousServerSecond = result.thisServerSecond
			st.previousSendWall = result.thisSendWall
		case decisionAtOrBefore:
			consecutiveAnomalies = 0
			st.r = mid
			// previous_* retained per spec on the R-move branch.
		}

		emit(ProgressEvent{
			Kind:    EventProgress,
			Phase:   enginerr.PhaseBinarySearch,
			Percent: phase3Percent(iteration+1, params.Phase3MaxIterations),
			Phase3:  &Phase3Payload{L: st.l, R: st.r, Width: st.r - st.l, Iteration: iteration + 1},
		})
	}

	return SubOffset((st.l + st.r) / 2), nil
}

type decision int

const (
	decisionLater decision = iota
	decisionAtOrBefore
	decisionAnomaly
)

type iterationResult struct {
	decision         decision
	thisServerSecond int64
	thisSendWall     clock.WallInstant
}

func runPhase3Iteration(ctx context.Context, clk clock.Clock, p Prober, profile LatencyProfile, wholeOffset WholeOffset, medianRTT time.Duration, st *phase3State, mid float64, params Params, lastSend *clock.Instant) (iterationResult, *enginerr.SyncError) {
	for attempt := 0; attempt < params.RetryAttempts; attempt++ {
		targetServerSecond := st.previousServerSecond + 1
		for {
			targetLocalSecondStart := clock.NewWallInstant(time.Unix(targetServerSecond-int64(wholeOffset), 0).UTC())
			targetArrival := targetLocalSecondStart.Add(time.Duration(mid * float64(time.Second)))
			sendWall := targetArrival.Add(-medianRTT / 2)

			_, wallNow := clk.Now()
			sendMono := clk.NowMonotonic().Add(sendWall.Sub(wallNow))

			if !lastSend.IsZero() && sendMono.Sub(*lastSend) < params.MinRequestInterval {
				// Deviating by one additional local second is invariant to
				// the analysis: it only shifts which server-second we
				// target, not the fractional position within it.
				targetServerSecond++
				continue
			}

			clk.SleepUntil(sendMono)
			*lastSend = clk.NowMonotonic()
			break
		}

		sample, err := p.Probe(ctx, params.PerProbeDeadline)
		if err != nil {
			log.Debugf(log.Phase3, "iteration probe failed: %v", err)
			continue
		}
		if !profile.InBand(sample.RTT) {
			log.Debugf(log.Phase3, "iteration rtt %s outside [%s,%s]", sample.RTT, profile.Q1, profile.Q3)
			continue
		}

		thisSendWall := wallOf(sample.SendMonotonic, clk)
		elapsedWall := int64(roundDuration(thisSendWall.Sub(st.previousSendWall), time.Second) / time.Second)
		elapsedServer := sample.ServerInstant.UnixSeconds() - st.previousServerSecond

		switch {
		case elapsedServer == elapsedWall:
			return iterationResult{decision: decisionLater, thisServerSecond: sample.ServerInstant.UnixSeconds(), thisSendWall: thisSendWall}, nil
		case elapsedServer > elapsedWall:
			return iterationResult{decision: decisionAtOrBefore, thisServerSecond: sample.ServerInstant.UnixSeconds(), thisSendWall: thisSendWall}, nil
		default:
			return iterationResult{decision: decisionAnomaly}, nil
		}
	}
	return iterationResult{}, enginerr.New(enginerr.KindTransport, enginerr.PhaseBinarySearch)
}

// wallOf pairs a monotonic instant with a wall instant by asking the clock
// for the current same-instant pair and translating by the difference —
// exact for the System clock (both advance together) and for Mock (which
// keeps monotonic and wall in lockstep by construction).
func wallOf(mono clock.Instant, clk clock.Clock) clock.WallInstant {
	nowMono, nowWall := clk.Now()
	return nowWall.Add(-nowMono.Sub(mono))
}

func roundDuration(d, unit time.Duration) time.Duration {
	if d < 0 {
		return -roundDuration(-d, unit)
	}
	return ((d + unit/2) / unit) * unit
}

const (
	phase3Base   = phase2Base + phase2Weight
	phase3Weight = 50.0
)

func phase3Percent(iteration, max int) float64 {
	if max == 0 {
		return phase3Base
	}
	frac := float64(iteration) / float64(max)
	if frac > 1 {
		frac = 1
	}
	return phase3Base + phase3Weight*frac
}
