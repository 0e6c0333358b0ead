package dlq

import (
	"context"
	"time"

	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/workflow"
)

// Dispatcher re-schedules a workflow handler for an event payload.
// Implemented by the event bus; the interface lives here to avoid a
// dlq → event import cycle.
type Dispatcher interface {
	DispatchTo(ctx context.Context, handler string, eventID id.ID, eventName string, payload []byte) (*workflow.Run, error)
}

// Service provides high-level DLQ operations over a Store.
type Service struct {
	store Store
}

// NewService creates a DLQ service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Push builds a DLQ Entry from a permanently failed run and persists it.
func (s *Service) Push(ctx context.Context, run *workflow.Run, runErr error) error {
	now := time.Now().UTC()
	entry := &Entry{
		ID:        id.NewDLQID(),
		RunID:     run.ID,
		Handler:   run.Handler,
		EventID:   run.EventID,
		EventName: run.EventName,
		Payload:   run.Input,
		Error:     runErr.Error(),
		Attempts:  run.Attempt,
		FailedAt:  now,
		CreatedAt: now,
	}
	return s.store.PushDLQ(ctx, entry)
}

// Replay re-dispatches a DLQ entry's event to its failed handler as a
// fresh run and marks the entry as replayed. The new run starts with an
// empty step ledger: replay happens after an operator fixed the cause,
// so stale memoized failures must not leak in.
func (s *Service) Replay(ctx context.Context, entryID id.ID, d Dispatcher) (*workflow.Run, error) {
	entry, err := s.store.GetDLQ(ctx, entryID)
	if err != nil {
		return nil, err
	}

	run, err := d.DispatchTo(ctx, entry.Handler, entry.EventID, entry.EventName, entry.Payload)
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkReplayed(ctx, entryID); err != nil {
		// The run is already dispatched. Surface the bookkeeping error
		// but hand the run back regardless.
		return run, err
	}

	return run, nil
}

// DLQStore returns the underlying store for direct access to List, Get,
// Purge, and Count operations.
func (s *Service) DLQStore() Store {
	return s.store
}
