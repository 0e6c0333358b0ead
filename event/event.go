// Package event implements the in-process event bus. Publishing an event
// persists it and starts one workflow run per subscribed handler, each
// driven asynchronously with at-least-once delivery: failed attempts are
// retried with backoff up to a ceiling, and permanently failed runs are
// pushed to the dead letter queue.
package event

import (
	"context"
	"time"

	"github.com/fluxdesk/fluxdesk/id"
)

// Well-known event names published by the domain services.
const (
	TicketCreated = "ticket.created"
	UserSignup    = "user.signup"
)

// Event is an immutable record of something that happened, with an
// opaque JSON payload for subscribers to decode.
type Event struct {
	ID         id.ID     `json:"id"`
	Name       string    `json:"name"`
	Payload    []byte    `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Store defines the persistence contract for published events.
type Store interface {
	// AppendEvent persists a published event.
	AppendEvent(ctx context.Context, evt *Event) error

	// GetEvent retrieves an event by ID.
	GetEvent(ctx context.Context, eventID id.ID) (*Event, error)

	// ListEvents returns events, newest first. Name filters by event
	// name when non-empty; limit caps the result when positive.
	ListEvents(ctx context.Context, name string, limit int) ([]*Event, error)
}
