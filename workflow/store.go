package workflow

import (
	"context"
	"time"

	"github.com/fluxdesk/fluxdesk/id"
)

// ListOpts controls filtering and pagination for run list queries.
type ListOpts struct {
	// Limit is the maximum number of runs to return. Zero means no limit.
	Limit int
	// Offset is the number of runs to skip.
	Offset int
	// State filters by run state. Empty means all states.
	State RunState
	// Handler filters by workflow handler name. Empty means all handlers.
	Handler string
}

// Store defines the persistence contract for workflow runs and their
// step ledgers.
type Store interface {
	// CreateRun persists a new workflow run.
	CreateRun(ctx context.Context, run *Run) error

	// GetRun retrieves a workflow run by ID.
	GetRun(ctx context.Context, runID id.ID) (*Run, error)

	// UpdateRun persists changes to an existing workflow run.
	UpdateRun(ctx context.Context, run *Run) error

	// ListRuns returns workflow runs matching the given options.
	ListRuns(ctx context.Context, opts ListOpts) ([]*Run, error)

	// SaveStep persists a step ledger entry. If an entry already exists
	// for the same run and step name, it is replaced.
	SaveStep(ctx context.Context, rec *StepRecord) error

	// GetStep retrieves the ledger entry for a specific step.
	// Returns nil (no error) if the step has not been recorded.
	GetStep(ctx context.Context, runID id.ID, stepName string) (*StepRecord, error)

	// ListSteps returns all ledger entries for a run, oldest first.
	ListSteps(ctx context.Context, runID id.ID) ([]*StepRecord, error)

	// PurgeRuns removes terminal runs (and their ledgers) that completed
	// before the given time. Returns the number of runs removed.
	PurgeRuns(ctx context.Context, before time.Time) (int64, error)
}
