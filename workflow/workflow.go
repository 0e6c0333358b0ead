// Package workflow defines workflow definitions, runs, the per-run step
// ledger, and the workflow store interface. The step ledger is what makes
// whole-run retries safe: a step that already succeeded in an earlier
// attempt is never re-executed, its memoized result is returned instead.
package workflow

// Definition is a typed workflow definition with a handler function.
// T is the input type (decoded from the triggering event's JSON payload).
type Definition[T any] struct {
	// Name is the unique identifier for this workflow handler.
	Name string

	// Handler is the function that executes the workflow logic.
	// It receives a *Workflow which provides the Step methods.
	Handler func(wf *Workflow, input T) error
}

// NewWorkflow creates a typed workflow definition.
func NewWorkflow[T any](name string, handler func(wf *Workflow, input T) error) *Definition[T] {
	return &Definition[T]{
		Name:    name,
		Handler: handler,
	}
}
