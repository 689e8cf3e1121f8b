package store

import (
	"context"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/mobster570/ticketime/engine"
)

// Memory is an in-process Store for tests and callers that don't need
// durability across restarts.
type Memory struct {
	mu      sync.Mutex
	servers map[uuid.UUID]engine.ServerTarget
	history map[uuid.UUID][]SyncRecord
	nextID  int64
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		servers: make(map[uuid.UUID]engine.ServerTarget),
		history: make(map[uuid.UUID][]SyncRecord),
	}
}

func (m *Memory) AddServer(ctx context.Context, target engine.ServerTarget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers[target.ID] = target
	return nil
}

func (m *Memory) DeleteServer(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.servers[id]; !ok {
		return ErrServerNotFound
	}
	delete(m.servers, id)
	delete(m.history, id)
	return nil
}

func (m *Memory) ListServers(ctx context.Context) ([]engine.ServerTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	targets := make([]engine.ServerTarget, 0, len(m.servers))
	for _, t := range m.servers {
		targets = append(targets, t)
	}
	return targets, nil
}

func (m *Memory) GetServer(ctx context.Context, id uuid.UUID) (engine.ServerTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.servers[id]
	if !ok {
		return engine.ServerTarget{}, ErrServerNotFound
	}
	return t, nil
}

func (m *Memory) AppendSyncResult(ctx context.Context, serverID uuid.UUID, result engine.SyncResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.history[serverID] = append(m.history[serverID], SyncRecord{ID: m.nextID, ServerID: serverID, Result: result})
	return nil
}

// GetSyncHistory returns up to limit records for serverID, newest first.
func (m *Memory) GetSyncHistory(ctx context.Context, serverID uuid.UUID, limit int) ([]SyncRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	all := m.history[serverID]
	out := make([]SyncRecord, 0, len(all))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
