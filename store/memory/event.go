package memory

import (
	"context"
	"fmt"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/event"
	"github.com/fluxdesk/fluxdesk/id"
)

func copyEvent(evt *event.Event) *event.Event {
	cp := *evt
	cp.Payload = append([]byte(nil), evt.Payload...)
	return &cp
}

// AppendEvent persists a published event.
func (s *Store) AppendEvent(ctx context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := evt.ID.String()
	if _, ok := s.events[key]; ok {
		return fmt.Errorf("event %s: %w", evt.ID, fluxdesk.ErrAlreadyExists)
	}
	s.events[key] = copyEvent(evt)
	s.eventOrder = append(s.eventOrder, key)
	return nil
}

// GetEvent retrieves an event by ID.
func (s *Store) GetEvent(ctx context.Context, eventID id.ID) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evt, ok := s.events[eventID.String()]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, fluxdesk.ErrEventNotFound)
	}
	return copyEvent(evt), nil
}

// ListEvents returns events newest first, optionally filtered by name.
func (s *Store) ListEvents(ctx context.Context, name string, limit int) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*event.Event, 0, len(s.eventOrder))
	for i := len(s.eventOrder) - 1; i >= 0; i-- {
		evt := s.events[s.eventOrder[i]]
		if name != "" && evt.Name != name {
			continue
		}
		out = append(out, copyEvent(evt))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
