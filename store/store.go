// Package store persists ServerTarget records and their SyncResult
// history, the collaborator spec.md §6 requires of the engine's caller:
// CRUD on servers, append/query on sync results, at-least-once semantics.
package store

import (
	"context"
	"time"

	"github.com/gofrs/uuid"

	"github.com/mobster570/ticketime/engine"
	"github.com/mobster570/ticketime/enginerr"
)

// Store is the persistent record interface the api package depends on.
type Store interface {
	AddServer(ctx context.Context, target engine.ServerTarget) error
	DeleteServer(ctx context.Context, id uuid.UUID) error
	ListServers(ctx context.Context) ([]engine.ServerTarget, error)
	GetServer(ctx context.Context, id uuid.UUID) (engine.ServerTarget, error)

	AppendSyncResult(ctx context.Context, serverID uuid.UUID, result engine.SyncResult) error
	GetSyncHistory(ctx context.Context, serverID uuid.UUID, limit int) ([]SyncRecord, error)

	Close() error
}

// SyncRecord is a persisted SyncResult, tagged with the server it was
// produced for and a server-assigned ID.
type SyncRecord struct {
	ID       int64
	ServerID uuid.UUID
	Result   engine.SyncResult
}

// ErrServerNotFound is returned by GetServer/DeleteServer for an unknown id.
var ErrServerNotFound = enginerr.New(enginerr.KindBadResponse, enginerr.PhaseNone)

func nowUTC() time.Time { return time.Now().UTC() }
