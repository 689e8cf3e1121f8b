package engine

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/extract"
	"github.com/mobster570/ticketime/log"
	"github.com/mobster570/ticketime/probe"
)

// ErrAlreadyRunning is returned by StartSync when a run is already active
// for the target.
var ErrAlreadyRunning = enginerr.New(enginerr.KindAlreadyRunning, enginerr.PhaseNone)

// ErrNotRunning is returned by Cancel when no run is active for the id.
var ErrNotRunning = enginerr.New(enginerr.KindCancelled, enginerr.PhaseNone)

// ProberFactory builds the Prober used for a run against target, so the
// orchestrator's HTTP concerns stay swappable in tests.
type ProberFactory func(target ServerTarget, extractor extract.Extractor, params Params) Prober

// Orchestrator runs the four-phase pipeline sequentially per target,
// enforces at most one active run per target, and fans internal phase
// events out onto a single-consumer progress channel per run — the same
// started/shutdown/atomic-guarded shape as gocryptotrader's subsystem
// managers (see ntpManager.Start/Stop), generalized to per-target runs
// rather than a single process-wide subsystem.
type Orchestrator struct {
	clk           clock.Clock
	proberFactory ProberFactory

	mu     sync.Mutex
	active map[uuid.UUID]*CancelToken
}

// NewOrchestrator returns an Orchestrator using clk as its time source and
// proberFactory to construct a Prober for each run.
func NewOrchestrator(clk clock.Clock, proberFactory ProberFactory) *Orchestrator {
	if clk == nil {
		clk = clock.System{}
	}
	return &Orchestrator{
		clk:           clk,
		proberFactory: proberFactory,
		active:        make(map[uuid.UUID]*CancelToken),
	}
}

// DefaultProberFactory builds a real network Prober per target, reusing a
// shared *http.Client across the run's phases for connection reuse.
func DefaultProberFactory(timeout time.Duration) ProberFactory {
	client := probe.NewClient(timeout)
	return func(target ServerTarget, extractor extract.Extractor, params Params) Prober {
		return probe.New(client, clock.System{}, target.URL, extractor).WithRateLimit(params.MinRequestInterval)
	}
}

// StartSync runs the four-phase pipeline for target and streams
// ProgressEvents on the returned channel, ending in exactly one
// EventComplete or EventError. It returns ErrAlreadyRunning immediately,
// without starting a goroutine, if a run is already active for target.ID.
func (o *Orchestrator) StartSync(ctx context.Context, target ServerTarget, params Params) (<-chan ProgressEvent, *CancelToken, *enginerr.SyncError) {
	o.mu.Lock()
	if _, exists := o.active[target.ID]; exists {
		o.mu.Unlock()
		return nil, nil, ErrAlreadyRunning
	}
	cancel := NewCancelToken()
	o.active[target.ID] = cancel
	o.mu.Unlock()

	events := make(chan ProgressEvent, 1)
	go o.run(ctx, target, params, cancel, events)

	return events, cancel, nil
}

// Cancel requests termination of the active run for id, if any. Idempotent.
func (o *Orchestrator) Cancel(id uuid.UUID, reason CancelReason) *enginerr.SyncError {
	o.mu.Lock()
	token, ok := o.active[id]
	o.mu.Unlock()
	if !ok {
		return ErrNotRunning
	}
	token.Cancel(reason)
	return nil
}

func (o *Orchestrator) finish(id uuid.UUID) {
	o.mu.Lock()
	delete(o.active, id)
	o.mu.Unlock()
}

func (o *Orchestrator) run(ctx context.Context, target ServerTarget, params Params, cancel *CancelToken, events chan ProgressEvent) {
	defer close(events)
	defer o.finish(target.ID)

	start := o.clk.NowMonotonic()
	emit := func(ev ProgressEvent) {
		ev.Elapsed = o.clk.NowMonotonic().Sub(start)
		for {
			select {
			case events <- ev:
				return
			default:
			}
			if ev.Kind == EventProgress {
				// Consumer gone or slow; drop a progress event rather than
				// block the run.
				return
			}
			// The terminal event is never dropped: discard the unread
			// progress event occupying the buffer to make room for it.
			select {
			case <-events:
			default:
			}
		}
	}

	extractor := extract.New(target.ExtractorID, extract.Config{ExternalTimeSource: params.ExternalTimeSource})
	prober := o.proberFactory(target, extractor, params)

	result, phaseReached, syncErr := o.runPipeline(ctx, prober, extractor, target, params, cancel, emit)
	if syncErr != nil {
		log.Errorf(log.Engine, "run %s failed at %s: %v", target.ID, phaseReached, syncErr)
		emit(ProgressEvent{Kind: EventError, Phase: phaseReached, Err: syncErr})
		return
	}

	log.Infof(log.Engine, "run %s complete verified=%v total_offset_ms=%.3f", target.ID, result.Verified, result.TotalOffsetMS)
	emit(ProgressEvent{Kind: EventComplete, Phase: enginerr.PhaseComplete, Percent: 100, Result: result})
}

func (o *Orchestrator) runPipeline(ctx context.Context, prober Prober, extractor extract.Extractor, target ServerTarget, params Params, cancel *CancelToken, emit func(ProgressEvent)) (*SyncResult, enginerr.Phase, *enginerr.SyncError) {
	runStart := o.clk.NowMonotonic()

	if cancelled, reason := cancel.Cancelled(); cancelled {
		return nil, enginerr.PhaseNone, cancelledError(reason, enginerr.PhaseNone)
	}

	samples, profile, err := runPhase1(ctx, o.clk, prober, params, cancel, emit)
	if err != nil {
		if err.Kind == enginerr.KindMissingTimeSource && target.ExtractorID != extract.ExternalFallback && params.ExternalTimeSource != "" {
			// One-time extractor swap per spec section 7, then Phase 1 restarts.
			log.Warnln(log.Engine, "date header unavailable, swapping to external fallback and restarting phase 1")
			extractor = extract.New(extract.ExternalFallback, extract.Config{ExternalTimeSource: params.ExternalTimeSource})
			if swappable, ok := prober.(interface {
				SetExtractor(extract.Extractor)
			}); ok {
				swappable.SetExtractor(extractor)
			}
			samples, profile, err = runPhase1(ctx, o.clk, prober, params, cancel, emit)
		}
		if err != nil {
			return nil, enginerr.PhaseLatencyProfile, err
		}
	}

	if cancelled, reason := cancel.Cancelled(); cancelled {
		return nil, enginerr.PhaseLatencyProfile, cancelledError(reason, enginerr.PhaseLatencyProfile)
	}

	lastSend := samples[len(samples)-1].sample.SendMonotonic

	wholeOffset, seed, err := runPhase2(ctx, o.clk, prober, profile, target, params, cancel, &lastSend)
	if err != nil {
		return nil, enginerr.PhaseWholeSecond, err
	}

	if cancelled, reason := cancel.Cancelled(); cancelled {
		return nil, enginerr.PhaseWholeSecond, cancelledError(reason, enginerr.PhaseWholeSecond)
	}

	subOffset, err := runPhase3(ctx, o.clk, prober, profile, wholeOffset, seed, params, cancel, &lastSend, emit)
	if err != nil {
		return nil, enginerr.PhaseBinarySearch, err
	}

	if cancelled, reason := cancel.Cancelled(); cancelled {
		return nil, enginerr.PhaseBinarySearch, cancelledError(reason, enginerr.PhaseBinarySearch)
	}

	totalOffsetSeconds := float64(wholeOffset) + float64(subOffset)
	verified, err := runPhase4(ctx, o.clk, prober, profile, totalOffsetSeconds, params, cancel, &lastSend)
	if err != nil {
		return nil, enginerr.PhaseVerification, err
	}

	_, syncedAt := o.clk.Now()
	result := &SyncResult{
		WholeOffset:   wholeOffset,
		SubOffset:     subOffset,
		TotalOffsetMS: totalOffsetSeconds * 1000,
		Profile:       profile,
		Verified:      verified,
		SyncedAt:      syncedAt,
		Duration:      o.clk.NowMonotonic().Sub(runStart),
		PhaseReached:  enginerr.PhaseVerification,
		ExtractorUsed: extractor.ID(),
	}
	return result, enginerr.PhaseComplete, nil
}

func cancelledError(reason CancelReason, phase enginerr.Phase) *enginerr.SyncError {
	return enginerr.New(enginerr.KindCancelled, phase)
}
