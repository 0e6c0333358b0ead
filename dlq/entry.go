package dlq

import (
	"time"

	"github.com/fluxdesk/fluxdesk/id"
)

// Entry represents a workflow run that failed permanently and was moved
// to the dead letter queue for inspection or replay.
type Entry struct {
	ID        id.ID  `json:"id"`
	RunID     id.ID  `json:"run_id"`
	Handler   string `json:"handler"`
	EventID   id.ID  `json:"event_id"`
	EventName string `json:"event_name"`
	Payload   []byte `json:"payload"`
	Error     string `json:"error"`

	// Attempts is how many deliveries the run consumed before failing.
	// 1 with a non-retriable error, retry ceiling + 1 when exhausted.
	Attempts int `json:"attempts"`

	FailedAt   time.Time  `json:"failed_at"`
	ReplayedAt *time.Time `json:"replayed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
