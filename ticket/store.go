package ticket

import (
	"context"

	"github.com/fluxdesk/fluxdesk/id"
)

// ListOpts controls filtering and pagination for ticket queries.
type ListOpts struct {
	// Limit caps the result. Zero means no limit.
	Limit int
	// Offset skips that many tickets.
	Offset int
	// CreatedBy filters to tickets created by the given user.
	CreatedBy id.ID
	// AssignedTo filters to tickets assigned to the given user.
	AssignedTo id.ID
	// Status filters by lifecycle status. Empty means all.
	Status Status
}

// Store defines the persistence contract for tickets.
type Store interface {
	// CreateTicket persists a new ticket.
	CreateTicket(ctx context.Context, t *Ticket) error

	// GetTicket retrieves a ticket by ID.
	GetTicket(ctx context.Context, ticketID id.ID) (*Ticket, error)

	// UpdateTicket applies a partial update and returns the updated
	// ticket.
	UpdateTicket(ctx context.Context, ticketID id.ID, patch Patch) (*Ticket, error)

	// ListTickets returns tickets matching the options, newest first.
	ListTickets(ctx context.Context, opts ListOpts) ([]*Ticket, error)

	// CountOpenAssigned returns how many non-DONE tickets are assigned
	// to the given user. Used by the assignment resolver's load tie-break.
	CountOpenAssigned(ctx context.Context, userID id.ID) (int64, error)
}
