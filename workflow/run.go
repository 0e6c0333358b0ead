package workflow

import (
	"time"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
)

// RunState represents the lifecycle state of a workflow run.
type RunState string

const (
	// RunStateRunning means the run is executing or awaiting a retry.
	RunStateRunning RunState = "running"
	// RunStateCompleted means the run finished successfully.
	RunStateCompleted RunState = "completed"
	// RunStateFailed means the run failed permanently: either a
	// non-retriable error or an exhausted retry budget.
	RunStateFailed RunState = "failed"
)

// Run represents the execution of one workflow handler for one triggering
// event. A run survives across retry attempts; its step ledger is what
// lets a later attempt skip work an earlier attempt already did.
type Run struct {
	fluxdesk.Entity

	ID      id.ID  `json:"id"`
	Handler string `json:"handler"`

	// EventID, EventName, and Input snapshot the triggering event.
	EventID   id.ID  `json:"event_id"`
	EventName string `json:"event_name"`
	Input     []byte `json:"input,omitempty"`

	// Attempt is 1-based and counts deliveries, not retries: a run that
	// exhausted the default budget of 2 retries ends at Attempt 3.
	Attempt int `json:"attempt"`

	State       RunState   `json:"state"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
