package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fluxdesk/fluxdesk/id"
)

// StepStatus is the recorded outcome of a step execution.
type StepStatus string

const (
	// StepSucceeded means the step body completed and its result is
	// memoized in the ledger.
	StepSucceeded StepStatus = "succeeded"
	// StepFailed means the step body returned an error on the most
	// recent attempt. A failed entry does not block re-execution.
	StepFailed StepStatus = "failed"
)

// StepRecord is one entry in a run's step ledger. Step names are unique
// within a run; saving a record for an existing name replaces it.
type StepRecord struct {
	ID          id.ID      `json:"id"`
	RunID       id.ID      `json:"run_id"`
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	Result      []byte     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CompletedAt time.Time  `json:"completed_at"`
}

// Step executes a named step function exactly once per run. If the ledger
// already holds a succeeded entry for this name, the step is skipped.
// On failure the entry is recorded as failed and the error is returned,
// which fails the whole attempt and triggers the bus's retry policy.
func (w *Workflow) Step(name string, fn func(ctx context.Context) error) error {
	rec, err := w.store.GetStep(w.ctx, w.run.ID, name)
	if err != nil {
		return fmt.Errorf("workflow %s: get step %q: %w", w.run.Handler, name, err)
	}
	if rec != nil && rec.Status == StepSucceeded {
		w.logger.Debug("skipping memoized step",
			slog.String("run_id", w.run.ID.String()),
			slog.String("step", name),
		)
		return nil
	}

	start := time.Now()
	stepErr := fn(w.ctx)
	elapsed := time.Since(start)

	if stepErr != nil {
		w.recordFailure(name, stepErr)
		w.emitter.EmitStepFailed(w.ctx, w.run, name, stepErr)
		return fmt.Errorf("workflow %s step %q: %w", w.run.Handler, name, stepErr)
	}

	if saveErr := w.saveSuccess(name, nil); saveErr != nil {
		return saveErr
	}

	w.emitter.EmitStepCompleted(w.ctx, w.run, name, elapsed)
	return nil
}

// StepWithResult executes a named step that returns a typed value. The
// result is serialized as JSON into the ledger; on a later attempt the
// memoized result is returned without re-executing the step function.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func StepWithResult[T any](w *Workflow, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	rec, err := w.store.GetStep(w.ctx, w.run.ID, name)
	if err != nil {
		return zero, fmt.Errorf("workflow %s: get step %q: %w", w.run.Handler, name, err)
	}
	if rec != nil && rec.Status == StepSucceeded {
		var result T
		if len(rec.Result) > 0 {
			if decErr := json.Unmarshal(rec.Result, &result); decErr != nil {
				return zero, fmt.Errorf("workflow %s: decode step result %q: %w", w.run.Handler, name, decErr)
			}
		}
		w.logger.Debug("returning memoized step result",
			slog.String("run_id", w.run.ID.String()),
			slog.String("step", name),
		)
		return result, nil
	}

	start := time.Now()
	result, stepErr := fn(w.ctx)
	elapsed := time.Since(start)

	if stepErr != nil {
		w.recordFailure(name, stepErr)
		w.emitter.EmitStepFailed(w.ctx, w.run, name, stepErr)
		return zero, fmt.Errorf("workflow %s step %q: %w", w.run.Handler, name, stepErr)
	}

	data, encErr := json.Marshal(result)
	if encErr != nil {
		return zero, fmt.Errorf("workflow %s: encode step result %q: %w", w.run.Handler, name, encErr)
	}

	if saveErr := w.saveSuccess(name, data); saveErr != nil {
		return zero, saveErr
	}

	w.emitter.EmitStepCompleted(w.ctx, w.run, name, elapsed)
	return result, nil
}

// saveSuccess writes a succeeded ledger entry for the step.
func (w *Workflow) saveSuccess(name string, result []byte) error {
	rec := &StepRecord{
		ID:          id.NewStepID(),
		RunID:       w.run.ID,
		Name:        name,
		Status:      StepSucceeded,
		Result:      result,
		CompletedAt: time.Now().UTC(),
	}
	if err := w.store.SaveStep(w.ctx, rec); err != nil {
		return fmt.Errorf("workflow %s: save step %q: %w", w.run.Handler, name, err)
	}
	return nil
}

// recordFailure writes a failed ledger entry. Best effort: the step error
// is what propagates, a ledger write failure only loses bookkeeping.
func (w *Workflow) recordFailure(name string, stepErr error) {
	rec := &StepRecord{
		ID:          id.NewStepID(),
		RunID:       w.run.ID,
		Name:        name,
		Status:      StepFailed,
		Error:       stepErr.Error(),
		CompletedAt: time.Now().UTC(),
	}
	if err := w.store.SaveStep(w.ctx, rec); err != nil {
		w.logger.Warn("failed to record step failure",
			slog.String("run_id", w.run.ID.String()),
			slog.String("step", name),
			slog.String("error", err.Error()),
		)
	}
}
