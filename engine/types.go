// Package engine implements the four-phase synchronization pipeline: it
// profiles latency, locates the whole-second offset, refines the sub-second
// offset via time-domain binary search, and verifies the combined offset.
package engine

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/extract"
)

// ServerTarget is the immutable-for-a-run description of the server being
// synchronized against.
type ServerTarget struct {
	ID          uuid.UUID
	URL         string
	ExtractorID extract.ID
	// CachedDriftHint is the last known offset_hint seconds fraction from a
	// prior run's drift profile, or nil if none exists.
	CachedDriftHint *float64
}

// LatencyProfile is the five-number summary of a set of RTT samples plus
// the sorted list they were computed from.
type LatencyProfile struct {
	Min, Q1, Median, Q3, Max time.Duration
	Sorted                   []time.Duration
}

// InBand reports whether rtt lies within the profile's acceptance band
// [Q1, Q3], the retention criterion for Phase 2/3 probes per spec.
func (p LatencyProfile) InBand(rtt time.Duration) bool {
	return rtt >= p.Q1 && rtt <= p.Q3
}

// InRange reports whether rtt lies within [Min, Max], the immediate
// rejection criterion for Phase 1 probes per spec.
func (p LatencyProfile) InRange(rtt time.Duration) bool {
	return rtt >= p.Min && rtt <= p.Max
}

// ComputeLatencyProfile sorts rtts and computes the five-number summary.
// Q1/Q3 are the lower/upper median of the sorted halves, inclusive of the
// overall median when N is odd, per spec's invariant.
func ComputeLatencyProfile(rtts []time.Duration) LatencyProfile {
	sorted := append([]time.Duration(nil), rtts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	if n == 0 {
		return LatencyProfile{}
	}

	median := medianOf(sorted)

	var lower, upper []time.Duration
	if n%2 == 0 {
		lower = sorted[:n/2]
		upper = sorted[n/2:]
	} else {
		lower = sorted[:n/2+1]
		upper = sorted[n/2:]
	}

	return LatencyProfile{
		Min:    sorted[0],
		Q1:     medianOf(lower),
		Median: median,
		Q3:     medianOf(upper),
		Max:    sorted[n-1],
		Sorted: sorted,
	}
}

func medianOf(sorted []time.Duration) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// WholeOffset is the integer-second part of server_wall - client_wall,
// established in Phase 2.
type WholeOffset int64

// SubOffset is the real-valued fractional-second part in [0, 1),
// established in Phase 3.
type SubOffset float64

// SyncResult is the terminal artifact of a completed (or failed-but-
// partial) run.
type SyncResult struct {
	WholeOffset   WholeOffset
	SubOffset     SubOffset
	TotalOffsetMS float64
	Profile       LatencyProfile
	Verified      bool
	SyncedAt      clock.WallInstant
	Duration      time.Duration
	PhaseReached  enginerr.Phase
	ExtractorUsed extract.ID
}

// EventKind tags a ProgressEvent's variant.
type EventKind int

const (
	// EventProgress reports incremental progress within a phase.
	EventProgress EventKind = iota
	// EventComplete is always the final event of a successful run.
	EventComplete
	// EventError is always the final event of a failed run.
	EventError
)

// ProgressEvent is a single item on a run's progress channel.
type ProgressEvent struct {
	Kind    EventKind
	Phase   enginerr.Phase
	Percent float64
	Elapsed time.Duration

	// Payload fields, populated according to Phase/Kind.
	Phase1 *Phase1Payload
	Phase3 *Phase3Payload
	Result *SyncResult
	Err    *enginerr.SyncError
}

// Phase1Payload is the Phase 1 (latency profiler) progress payload.
type Phase1Payload struct {
	Completed int
	Total     int
}

// Phase3Payload is the Phase 3 (binary search refiner) progress payload.
type Phase3Payload struct {
	L, R      float64
	Width     float64
	Iteration int
}

// CancelReason explains why a CancelToken was set.
type CancelReason int

const (
	// ReasonNone means the token has not been cancelled.
	ReasonNone CancelReason = iota
	// ReasonUser means a caller explicitly requested cancellation.
	ReasonUser
	// ReasonTimeout means an external watchdog set the token.
	ReasonTimeout
)

// CancelToken is a shared observable flag, checked at every suspension
// point in the pipeline and settable from outside to request orderly
// termination. It is safe for concurrent use and idempotent to cancel.
type CancelToken struct {
	cancelled atomic.Bool
	reason    atomic.Int32
}

// NewCancelToken returns a fresh, uncancelled token.
func NewCancelToken() *CancelToken { return &CancelToken{} }

// Cancel requests termination for the given reason. Idempotent: only the
// first call's reason is retained.
func (c *CancelToken) Cancel(reason CancelReason) {
	if c.cancelled.CompareAndSwap(false, true) {
		c.reason.Store(int32(reason))
	}
}

// Cancelled reports whether cancellation has been requested, and why.
func (c *CancelToken) Cancelled() (bool, CancelReason) {
	if !c.cancelled.Load() {
		return false, ReasonNone
	}
	return true, CancelReason(c.reason.Load())
}
