package mongo

import (
	"time"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/dlq"
	"github.com/fluxdesk/fluxdesk/event"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/workflow"
)

// Pipeline records get explicit bson models so the document shape is a
// deliberate choice rather than a reflection accident. Ticket and user
// documents are persisted from their domain structs directly, which
// carry bson tags.

type runDoc struct {
	ID          id.ID             `bson:"_id"`
	Handler     string            `bson:"handler"`
	EventID     id.ID             `bson:"event_id"`
	EventName   string            `bson:"event_name"`
	Input       []byte            `bson:"input,omitempty"`
	Attempt     int               `bson:"attempt"`
	State       workflow.RunState `bson:"state"`
	Error       string            `bson:"error,omitempty"`
	StartedAt   time.Time         `bson:"started_at"`
	CompletedAt *time.Time        `bson:"completed_at,omitempty"`
	CreatedAt   time.Time         `bson:"created_at"`
	UpdatedAt   time.Time         `bson:"updated_at"`
}

func toRunDoc(run *workflow.Run) runDoc {
	return runDoc{
		ID:          run.ID,
		Handler:     run.Handler,
		EventID:     run.EventID,
		EventName:   run.EventName,
		Input:       run.Input,
		Attempt:     run.Attempt,
		State:       run.State,
		Error:       run.Error,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		CreatedAt:   run.CreatedAt,
		UpdatedAt:   run.UpdatedAt,
	}
}

func (d runDoc) toDomain() *workflow.Run {
	return &workflow.Run{
		Entity:      fluxdesk.Entity{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		ID:          d.ID,
		Handler:     d.Handler,
		EventID:     d.EventID,
		EventName:   d.EventName,
		Input:       d.Input,
		Attempt:     d.Attempt,
		State:       d.State,
		Error:       d.Error,
		StartedAt:   d.StartedAt,
		CompletedAt: d.CompletedAt,
	}
}

type stepDoc struct {
	ID          id.ID               `bson:"_id"`
	RunID       id.ID               `bson:"run_id"`
	Name        string              `bson:"name"`
	Status      workflow.StepStatus `bson:"status"`
	Result      []byte              `bson:"result,omitempty"`
	Error       string              `bson:"error,omitempty"`
	CompletedAt time.Time           `bson:"completed_at"`
}

func toStepDoc(rec *workflow.StepRecord) stepDoc {
	return stepDoc{
		ID:          rec.ID,
		RunID:       rec.RunID,
		Name:        rec.Name,
		Status:      rec.Status,
		Result:      rec.Result,
		Error:       rec.Error,
		CompletedAt: rec.CompletedAt,
	}
}

func (d stepDoc) toDomain() *workflow.StepRecord {
	return &workflow.StepRecord{
		ID:          d.ID,
		RunID:       d.RunID,
		Name:        d.Name,
		Status:      d.Status,
		Result:      d.Result,
		Error:       d.Error,
		CompletedAt: d.CompletedAt,
	}
}

type eventDoc struct {
	ID         id.ID     `bson:"_id"`
	Name       string    `bson:"name"`
	Payload    []byte    `bson:"payload,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
}

func toEventDoc(evt *event.Event) eventDoc {
	return eventDoc{ID: evt.ID, Name: evt.Name, Payload: evt.Payload, OccurredAt: evt.OccurredAt}
}

func (d eventDoc) toDomain() *event.Event {
	return &event.Event{ID: d.ID, Name: d.Name, Payload: d.Payload, OccurredAt: d.OccurredAt}
}

type dlqDoc struct {
	ID         id.ID      `bson:"_id"`
	RunID      id.ID      `bson:"run_id"`
	Handler    string     `bson:"handler"`
	EventID    id.ID      `bson:"event_id"`
	EventName  string     `bson:"event_name"`
	Payload    []byte     `bson:"payload,omitempty"`
	Error      string     `bson:"error"`
	Attempts   int        `bson:"attempts"`
	FailedAt   time.Time  `bson:"failed_at"`
	ReplayedAt *time.Time `bson:"replayed_at,omitempty"`
	CreatedAt  time.Time  `bson:"created_at"`
}

func toDLQDoc(entry *dlq.Entry) dlqDoc {
	return dlqDoc{
		ID:         entry.ID,
		RunID:      entry.RunID,
		Handler:    entry.Handler,
		EventID:    entry.EventID,
		EventName:  entry.EventName,
		Payload:    entry.Payload,
		Error:      entry.Error,
		Attempts:   entry.Attempts,
		FailedAt:   entry.FailedAt,
		ReplayedAt: entry.ReplayedAt,
		CreatedAt:  entry.CreatedAt,
	}
}

func (d dlqDoc) toDomain() *dlq.Entry {
	return &dlq.Entry{
		ID:         d.ID,
		RunID:      d.RunID,
		Handler:    d.Handler,
		EventID:    d.EventID,
		EventName:  d.EventName,
		Payload:    d.Payload,
		Error:      d.Error,
		Attempts:   d.Attempts,
		FailedAt:   d.FailedAt,
		ReplayedAt: d.ReplayedAt,
		CreatedAt:  d.CreatedAt,
	}
}
