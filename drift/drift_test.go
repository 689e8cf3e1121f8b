package drift

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/engine"
	"github.com/mobster570/ticketime/store"
)

func TestStoreCache_HintReturnsFalseWhenNoHistory(t *testing.T) {
	c := NewStoreCache(store.NewMemory(), time.Hour)
	_, ok := c.Hint(context.Background(), uuid.Must(uuid.NewV4()))
	assert.False(t, ok)
}

func TestStoreCache_HintReturnsMostRecentVerifiedSubOffset(t *testing.T) {
	st := store.NewMemory()
	id := uuid.Must(uuid.NewV4())
	require.NoError(t, st.AddServer(context.Background(), engine.ServerTarget{ID: id}))
	require.NoError(t, st.AppendSyncResult(context.Background(), id, engine.SyncResult{
		SubOffset: 0.42,
		Verified:  true,
		SyncedAt:  clock.NewWallInstant(time.Now().UTC()),
	}))

	c := NewStoreCache(st, time.Hour)
	hint, ok := c.Hint(context.Background(), id)
	require.True(t, ok)
	assert.InDelta(t, 0.42, hint, 1e-9)
}

func TestStoreCache_HintIgnoresStaleResult(t *testing.T) {
	st := store.NewMemory()
	id := uuid.Must(uuid.NewV4())
	require.NoError(t, st.AddServer(context.Background(), engine.ServerTarget{ID: id}))
	require.NoError(t, st.AppendSyncResult(context.Background(), id, engine.SyncResult{
		SubOffset: 0.42,
		Verified:  true,
		SyncedAt:  clock.NewWallInstant(time.Now().UTC().Add(-2 * time.Hour)),
	}))

	c := NewStoreCache(st, time.Hour)
	_, ok := c.Hint(context.Background(), id)
	assert.False(t, ok)
}

func TestStoreCache_HintIgnoresUnverifiedResult(t *testing.T) {
	st := store.NewMemory()
	id := uuid.Must(uuid.NewV4())
	require.NoError(t, st.AddServer(context.Background(), engine.ServerTarget{ID: id}))
	require.NoError(t, st.AppendSyncResult(context.Background(), id, engine.SyncResult{
		SubOffset: 0.42,
		Verified:  false,
		SyncedAt:  clock.NewWallInstant(time.Now().UTC()),
	}))

	c := NewStoreCache(st, time.Hour)
	_, ok := c.Hint(context.Background(), id)
	assert.False(t, ok)
}

func TestDriftWarning(t *testing.T) {
	assert.True(t, DriftWarning(engine.SyncResult{TotalOffsetMS: 300}, 250*time.Millisecond))
	assert.True(t, DriftWarning(engine.SyncResult{TotalOffsetMS: -300}, 250*time.Millisecond))
	assert.False(t, DriftWarning(engine.SyncResult{TotalOffsetMS: 100}, 250*time.Millisecond))
}
