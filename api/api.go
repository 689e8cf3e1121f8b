// Package api implements the transport-neutral operation table of
// spec.md §6 over engine.Orchestrator, store.Store, and validate.URL. It
// exposes no HTTP handlers or wire framing; a REST or IPC surface would
// sit on top of Service without altering engine semantics.
package api

import (
	"context"
	"time"

	"github.com/gofrs/uuid"

	"github.com/mobster570/ticketime/drift"
	"github.com/mobster570/ticketime/engine"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/extract"
	"github.com/mobster570/ticketime/store"
	"github.com/mobster570/ticketime/validate"
)

// Service implements spec.md §6's operation table.
type Service struct {
	orch   *engine.Orchestrator
	st     store.Store
	drift  drift.Cache
	params engine.Params
}

// NewService wires an api.Service from its collaborators. params supplies
// the per-run tuning options; it is stored by value, so later changes to
// the caller's Params have no effect on StartSync.
func NewService(orch *engine.Orchestrator, st store.Store, driftCache drift.Cache, params engine.Params) *Service {
	return &Service{orch: orch, st: st, drift: driftCache, params: params}
}

// AddServer validates url and persists a new ServerTarget.
func (s *Service) AddServer(ctx context.Context, url string, extractorID extract.ID) (engine.ServerTarget, error) {
	if err := validate.URL(url); err != nil {
		return engine.ServerTarget{}, err
	}
	target := engine.ServerTarget{ID: uuid.Must(uuid.NewV4()), URL: url, ExtractorID: extractorID}
	if err := s.st.AddServer(ctx, target); err != nil {
		return engine.ServerTarget{}, err
	}
	return target, nil
}

// DeleteServer removes a server and cancels any run active against it.
func (s *Service) DeleteServer(ctx context.Context, id uuid.UUID) error {
	_ = s.orch.Cancel(id, engine.ReasonUser) // best-effort; run may not exist
	return s.st.DeleteServer(ctx, id)
}

// ListServers returns all persisted servers.
func (s *Service) ListServers(ctx context.Context) ([]engine.ServerTarget, error) {
	return s.st.ListServers(ctx)
}

// GetSyncHistory returns up to limit persisted results for id, newest first.
func (s *Service) GetSyncHistory(ctx context.Context, id uuid.UUID, limit int) ([]store.SyncRecord, error) {
	return s.st.GetSyncHistory(ctx, id, limit)
}

// StartSync seeds the target's CachedDriftHint from the drift cache, then
// starts a run and persists its terminal SyncResult before the returned
// channel closes.
func (s *Service) StartSync(ctx context.Context, id uuid.UUID) (<-chan engine.ProgressEvent, *engine.CancelToken, error) {
	target, err := s.st.GetServer(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if hint, ok := s.drift.Hint(ctx, id); ok {
		target.CachedDriftHint = &hint
	}

	events, cancel, syncErr := s.orch.StartSync(ctx, target, s.params)
	if syncErr != nil {
		return nil, nil, syncErr
	}

	out := make(chan engine.ProgressEvent, 1)
	go s.persistOnComplete(context.Background(), id, events, out)
	return out, cancel, nil
}

// persistOnComplete relays events to out and, on a terminal EventComplete,
// records the result to both the store and the drift cache before closing
// out — so a caller observing the channel close is guaranteed the result
// has already been persisted.
func (s *Service) persistOnComplete(ctx context.Context, id uuid.UUID, in <-chan engine.ProgressEvent, out chan<- engine.ProgressEvent) {
	defer close(out)
	for ev := range in {
		if ev.Kind == engine.EventComplete && ev.Result != nil {
			_ = s.st.AppendSyncResult(ctx, id, *ev.Result)
			_ = s.drift.Record(ctx, id, *ev.Result)
		}
		out <- ev
	}
}

// CancelSync requests termination of the active run for id.
func (s *Service) CancelSync(id uuid.UUID) error {
	if err := s.orch.Cancel(id, engine.ReasonUser); err != nil {
		return err
	}
	return nil
}

// ErrTimedOutWaitingForResult is returned by StartSyncAndWait if no
// terminal event arrives within deadline.
var ErrTimedOutWaitingForResult = enginerr.New(enginerr.KindTimeout, enginerr.PhaseNone)

// StartSyncAndWait is a synchronous convenience wrapper around StartSync
// for callers (e.g. a CLI) that want the terminal result rather than a
// progress stream.
func (s *Service) StartSyncAndWait(ctx context.Context, id uuid.UUID, deadline time.Duration) (*engine.SyncResult, error) {
	events, _, err := s.StartSync(ctx, id)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(deadline)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil, ErrTimedOutWaitingForResult
			}
			switch ev.Kind {
			case engine.EventComplete:
				return ev.Result, nil
			case engine.EventError:
				return nil, ev.Err
			}
		case <-timer.C:
			return nil, ErrTimedOutWaitingForResult
		}
	}
}
