// Package drift implements the per-server offset history the source
// application keeps to seed Phase 2's offset_hint and to flag servers
// whose clock has drifted past a warning threshold.
package drift

import (
	"context"
	"time"

	"github.com/gofrs/uuid"

	"github.com/mobster570/ticketime/engine"
	"github.com/mobster570/ticketime/store"
)

// Cache is the collaborator engine.ServerTarget.CachedDriftHint is seeded
// from: the last known offset_hint fraction for a server, if any, and a
// place to record a completed run's result for the next seed.
type Cache interface {
	// Hint returns the seed fraction for serverID's Phase 2 offset_hint and
	// whether one exists and is still fresh enough to use.
	Hint(ctx context.Context, serverID uuid.UUID) (float64, bool)
	// Record stores result as the new basis for future hints.
	Record(ctx context.Context, serverID uuid.UUID, result engine.SyncResult) error
}

// StoreCache backs Cache with the persistent sync-result history already
// kept by store.Store, so a deployment gets drift seeding for free without
// a second database. Only sync_results rows are consulted; no separate
// table is introduced.
type StoreCache struct {
	st      store.Store
	maxAge  time.Duration
	nowFunc func() time.Time
}

// NewStoreCache returns a StoreCache reading history from st. A cached hint
// older than maxAge is treated as stale and ignored, per the offset_hint
// staleness decision in DESIGN.md.
func NewStoreCache(st store.Store, maxAge time.Duration) *StoreCache {
	return &StoreCache{st: st, maxAge: maxAge, nowFunc: time.Now}
}

// Hint implements Cache by reading the most recent sync result; it yields a
// hint only if that result is verified and no older than maxAge.
func (c *StoreCache) Hint(ctx context.Context, serverID uuid.UUID) (float64, bool) {
	history, err := c.st.GetSyncHistory(ctx, serverID, 1)
	if err != nil || len(history) == 0 {
		return 0, false
	}
	latest := history[0].Result
	if c.nowFunc().Sub(latest.SyncedAt.Time()) > c.maxAge {
		return 0, false
	}
	if !latest.Verified {
		return 0, false
	}
	return float64(latest.SubOffset), true
}

// Record implements Cache; StoreCache derives hints from history the caller
// already persists via store.Store.AppendSyncResult, so Record is a no-op
// here to avoid double-writing the same row.
func (c *StoreCache) Record(ctx context.Context, serverID uuid.UUID, result engine.SyncResult) error {
	return nil
}

// DriftWarning reports whether result's total offset exceeds threshold in
// magnitude, the health-score signal the source application surfaces to
// its UI.
func DriftWarning(result engine.SyncResult, threshold time.Duration) bool {
	offsetMS := result.TotalOffsetMS
	if offsetMS < 0 {
		offsetMS = -offsetMS
	}
	return time.Duration(offsetMS*float64(time.Millisecond)) > threshold
}
