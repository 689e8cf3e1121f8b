// Package clock provides the engine's only sources of time: a monotonic
// instant for measuring durations, a wall-clock instant for comparing
// against a server's reported time, and a scheduled-release primitive that
// fires as close as possible to an absolute local instant.
package clock

import (
	"time"
)

// Instant is a monotonic timestamp. Only differences between two Instants
// are meaningful; Instant carries no relation to wall-clock time on its own.
type Instant struct {
	t time.Time
}

// Sub returns the duration between two monotonic instants.
func (i Instant) Sub(o Instant) time.Duration {
	return i.t.Sub(o.t)
}

// Add returns the instant offset by d.
func (i Instant) Add(d time.Duration) Instant {
	return Instant{t: i.t.Add(d)}
}

// Before reports whether i occurs before o.
func (i Instant) Before(o Instant) bool { return i.t.Before(o.t) }

// After reports whether i occurs after o.
func (i Instant) After(o Instant) bool { return i.t.After(o.t) }

// IsZero reports whether i is the zero Instant.
func (i Instant) IsZero() bool { return i.t.IsZero() }

// WallInstant is a wall-clock timestamp, sampled at the same moment as a
// paired Instant so the two can be compared without clock-drift error.
type WallInstant struct {
	t time.Time
}

// NewWallInstant wraps an existing time.Time, e.g. one parsed from a Date
// header, as a WallInstant.
func NewWallInstant(t time.Time) WallInstant {
	return WallInstant{t: t}
}

// Time returns the underlying time.Time in UTC.
func (w WallInstant) Time() time.Time { return w.t.UTC() }

// Sub returns the duration between two wall instants.
func (w WallInstant) Sub(o WallInstant) time.Duration {
	return w.t.Sub(o.t)
}

// Add returns the wall instant offset by d.
func (w WallInstant) Add(d time.Duration) WallInstant {
	return WallInstant{t: w.t.Add(d)}
}

// Second returns the truncated-to-second wall instant.
func (w WallInstant) Second() WallInstant {
	return WallInstant{t: w.t.Truncate(time.Second)}
}

// UnixSeconds returns the whole-second Unix timestamp.
func (w WallInstant) UnixSeconds() int64 { return w.t.Unix() }

// SubSecond returns the fractional part of the second, in [0, 1).
func (w WallInstant) SubSecond() float64 {
	ns := w.t.Nanosecond()
	return float64(ns) / float64(time.Second)
}

// Clock is the source of monotonic and wall-clock time the engine consumes.
// The standard-library implementation is System; tests substitute a Mock so
// that phases 1-4 run deterministically without real network delay.
type Clock interface {
	// NowMonotonic returns the current monotonic instant.
	NowMonotonic() Instant
	// NowWall returns the current wall-clock instant, sampled at the same
	// moment as the returned Instant would be — callers that need both
	// should use Now instead to guarantee same-instant sampling.
	NowWall() WallInstant
	// Now returns a monotonic instant and its paired wall instant, sampled
	// together so no drift can be introduced between the two reads.
	Now() (Instant, WallInstant)
	// SleepUntil blocks the calling goroutine until the monotonic clock
	// reaches target. If target has already passed it returns immediately;
	// the returned ScheduleResult's Slack records how far from target it
	// returned. It never blocks past target by more than the busy-wait bound.
	SleepUntil(target Instant) ScheduleResult
}

// ScheduleResult reports how precisely SleepUntil hit its target.
type ScheduleResult struct {
	// Slack is the signed distance between when SleepUntil returned and the
	// requested target. A positive Slack means SleepUntil returned late
	// (the coarse sleep overshot); it is recorded for quality logging only
	// and never triggers a retry.
	Slack time.Duration
}

// System is the real Clock backed by the Go runtime.
type System struct{}

// coarseSleepMargin is how far ahead of the target the coarse sleep wakes,
// leaving the remainder to a bounded busy-wait for sub-millisecond accuracy.
const coarseSleepMargin = 2 * time.Millisecond

// maxBusyWait bounds the hot-spin phase so a missed wakeup cannot pin a CPU
// indefinitely; if the coarse sleep wakes more than this before the target,
// SleepUntil returns immediately (with a negative Slack) instead of spinning.
const maxBusyWait = 5 * time.Millisecond

// NowMonotonic implements Clock.
func (System) NowMonotonic() Instant { return Instant{t: time.Now()} }

// NowWall implements Clock.
func (System) NowWall() WallInstant { return WallInstant{t: time.Now()} }

// Now implements Clock.
func (System) Now() (Instant, WallInstant) {
	now := time.Now()
	return Instant{t: now}, WallInstant{t: now}
}

// SleepUntil implements Clock using a coarse sleep followed by a bounded
// busy-wait, the only reliable way to hit a scheduled send within ~100us on
// platforms without a high-resolution sleep primitive.
func (s System) SleepUntil(target Instant) ScheduleResult {
	now := s.NowMonotonic()
	remaining := target.Sub(now)
	if remaining <= 0 {
		return ScheduleResult{Slack: -remaining}
	}

	if remaining > coarseSleepMargin {
		time.Sleep(remaining - coarseSleepMargin)
	}

	now = s.NowMonotonic()
	remaining = target.Sub(now)
	if remaining <= 0 {
		return ScheduleResult{Slack: -remaining}
	}
	if remaining > maxBusyWait {
		// Coarse sleep undershot badly; don't spin for longer than the
		// bound, return immediately and let the caller record the slack.
		return ScheduleResult{Slack: -remaining}
	}

	for {
		now = s.NowMonotonic()
		if !now.Before(target) {
			return ScheduleResult{Slack: now.Sub(target)}
		}
	}
}
