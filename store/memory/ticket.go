package memory

import (
	"context"
	"fmt"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/ticket"
)

func copyTicket(t *ticket.Ticket) *ticket.Ticket {
	cp := *t
	cp.RelatedSkills = append([]string(nil), t.RelatedSkills...)
	if t.AssignedTo != nil {
		assignee := *t.AssignedTo
		cp.AssignedTo = &assignee
	}
	return &cp
}

// CreateTicket persists a new ticket.
func (s *Store) CreateTicket(ctx context.Context, t *ticket.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := t.ID.String()
	if _, ok := s.tickets[key]; ok {
		return fmt.Errorf("ticket %s: %w", t.ID, fluxdesk.ErrAlreadyExists)
	}
	s.tickets[key] = copyTicket(t)
	s.ticketOrder = append(s.ticketOrder, key)
	return nil
}

// GetTicket retrieves a ticket by ID.
func (s *Store) GetTicket(ctx context.Context, ticketID id.ID) (*ticket.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[ticketID.String()]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, fluxdesk.ErrTicketNotFound)
	}
	return copyTicket(t), nil
}

// UpdateTicket applies a partial update and returns the updated ticket.
func (s *Store) UpdateTicket(ctx context.Context, ticketID id.ID, patch ticket.Patch) (*ticket.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[ticketID.String()]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, fluxdesk.ErrTicketNotFound)
	}

	patch.Apply(t)
	t.Touch()
	return copyTicket(t), nil
}

// ListTickets returns tickets matching the options, newest first.
func (s *Store) ListTickets(ctx context.Context, opts ticket.ListOpts) ([]*ticket.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ticket.Ticket, 0, len(s.ticketOrder))
	for i := len(s.ticketOrder) - 1; i >= 0; i-- {
		t := s.tickets[s.ticketOrder[i]]
		if !opts.CreatedBy.IsNil() && !t.CreatedBy.Equal(opts.CreatedBy) {
			continue
		}
		if !opts.AssignedTo.IsNil() && (t.AssignedTo == nil || !t.AssignedTo.Equal(opts.AssignedTo)) {
			continue
		}
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		out = append(out, copyTicket(t))
	}
	return paginate(out, opts.Offset, opts.Limit), nil
}

// CountOpenAssigned returns how many non-DONE tickets are assigned to
// the given user.
func (s *Store) CountOpenAssigned(ctx context.Context, userID id.ID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, t := range s.tickets {
		if t.AssignedTo == nil || !t.AssignedTo.Equal(userID) {
			continue
		}
		if t.Status == ticket.StatusDone {
			continue
		}
		n++
	}
	return n, nil
}
