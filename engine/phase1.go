package engine

import (
	"context"
	"time"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/log"
	"github.com/mobster570/ticketime/probe"
)

// Prober is the subset of *probe.Prober the engine depends on, so tests can
// substitute a scripted implementation without a real network.
type Prober interface {
	Probe(ctx context.Context, deadline time.Duration) (probe.Sample, *enginerr.SyncError)
}

// runPhase1 collects Phase1SampleCount RTT samples separated by at least
// MinRequestInterval between sends, computes the five-number summary, and
// rejects any sample outside [min, max] observed-so-far by retrying the
// slot up to RetryAttempts times.
func runPhase1(ctx context.Context, clk clock.Clock, p Prober, params Params, cancel *CancelToken, emit func(ProgressEvent)) ([]probeObservation, LatencyProfile, *enginerr.SyncError) {
	samples := make([]probeObservation, 0, params.Phase1SampleCount)
	rtts := make([]time.Duration, 0, params.Phase1SampleCount)
	var lastSend clock.Instant

	for i := 0; i < params.Phase1SampleCount; i++ {
		if cancelled, _ := cancel.Cancelled(); cancelled {
			return nil, LatencyProfile{}, enginerr.New(enginerr.KindCancelled, enginerr.PhaseLatencyProfile)
		}

		waitForGap(clk, lastSend, params.MinRequestInterval)
		lastSend = clk.NowMonotonic()

		var accepted probeObservation
		ok := false
		for attempt := 0; attempt < params.RetryAttempts; attempt++ {
			sample, err := p.Probe(ctx, params.PerProbeDeadline)
			if err != nil {
				if err.Kind == enginerr.KindMissingTimeSource {
					// Retrying cannot produce a time source; surface it so the
					// orchestrator can swap to the fallback extractor.
					return nil, LatencyProfile{}, enginerr.New(enginerr.KindMissingTimeSource, enginerr.PhaseLatencyProfile)
				}
				log.Debugf(log.Phase1, "sample %d attempt %d rejected: %v", i, attempt, err)
				continue
			}
			if sample.FirstOnWarmConn && i == 0 && len(rtts) == 0 {
				// Handshake-inclusive first probe of the run is discarded
				// from the latency profile per spec; retry the slot with a
				// now-warm connection.
				continue
			}
			// A running profile isn't available on the very first samples;
			// reject against the widening [min,max] seen so far once we
			// have at least 2 points, otherwise accept unconditionally.
			if len(rtts) >= 2 {
				running := ComputeLatencyProfile(rtts)
				if !running.InRange(sample.RTT) {
					log.Debugf(log.Phase1, "sample %d rtt %s outside running range [%s,%s]", i, sample.RTT, running.Min, running.Max)
					continue
				}
			}
			accepted = probeObservation{sample: sample}
			ok = true
			break
		}
		if !ok {
			return nil, LatencyProfile{}, enginerr.New(enginerr.KindNoisyNetwork, enginerr.PhaseLatencyProfile)
		}

		samples = append(samples, accepted)
		rtts = append(rtts, accepted.sample.RTT)

		emit(ProgressEvent{
			Kind:    EventProgress,
			Phase:   enginerr.PhaseLatencyProfile,
			Percent: phase1Percent(i + 1, params.Phase1SampleCount),
			Phase1:  &Phase1Payload{Completed: i + 1, Total: params.Phase1SampleCount},
		})
	}

	profile := ComputeLatencyProfile(rtts)
	if profile.Median >= time.Second {
		// half-RTT would exceed the binary-search resolution budget.
		return nil, LatencyProfile{}, enginerr.New(enginerr.KindNoisyNetwork, enginerr.PhaseLatencyProfile)
	}

	return samples, profile, nil
}

type probeObservation struct {
	sample probe.Sample
}

const (
	phase1Base   = 0.0
	phase1Weight = 25.0
)

func phase1Percent(completed, total int) float64 {
	return phase1Base + phase1Weight*float64(completed)/float64(total)
}

func waitForGap(clk clock.Clock, lastSend clock.Instant, interval time.Duration) {
	if lastSend.IsZero() {
		return
	}
	clk.SleepUntil(lastSend.Add(interval))
}
