package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/workflow"
)

func copyRun(run *workflow.Run) *workflow.Run {
	cp := *run
	cp.Input = append([]byte(nil), run.Input...)
	if run.CompletedAt != nil {
		t := *run.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func copyStep(rec *workflow.StepRecord) *workflow.StepRecord {
	cp := *rec
	cp.Result = append([]byte(nil), rec.Result...)
	return &cp
}

// CreateRun persists a new workflow run.
func (s *Store) CreateRun(ctx context.Context, run *workflow.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := run.ID.String()
	if _, ok := s.runs[key]; ok {
		return fmt.Errorf("run %s: %w", run.ID, fluxdesk.ErrAlreadyExists)
	}
	s.runs[key] = copyRun(run)
	return nil
}

// GetRun retrieves a workflow run by ID.
func (s *Store) GetRun(ctx context.Context, runID id.ID) (*workflow.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID.String()]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, fluxdesk.ErrRunNotFound)
	}
	return copyRun(run), nil
}

// UpdateRun persists changes to an existing workflow run.
func (s *Store) UpdateRun(ctx context.Context, run *workflow.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := run.ID.String()
	if _, ok := s.runs[key]; !ok {
		return fmt.Errorf("run %s: %w", run.ID, fluxdesk.ErrRunNotFound)
	}
	run.Touch()
	s.runs[key] = copyRun(run)
	return nil
}

// ListRuns returns workflow runs matching the given options, newest first.
func (s *Store) ListRuns(ctx context.Context, opts workflow.ListOpts) ([]*workflow.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*workflow.Run, 0, len(s.runs))
	for _, run := range s.runs {
		if opts.State != "" && run.State != opts.State {
			continue
		}
		if opts.Handler != "" && run.Handler != opts.Handler {
			continue
		}
		runs = append(runs, copyRun(run))
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID.String() < runs[j].ID.String()
	})

	return paginate(runs, opts.Offset, opts.Limit), nil
}

// SaveStep persists a step ledger entry, replacing any existing entry
// for the same run and step name.
func (s *Store) SaveStep(ctx context.Context, rec *workflow.StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.RunID.String()
	ledger, ok := s.steps[key]
	if !ok {
		ledger = make(map[string]*workflow.StepRecord)
		s.steps[key] = ledger
	}
	ledger[rec.Name] = copyStep(rec)
	return nil
}

// GetStep retrieves the ledger entry for a specific step, or nil if the
// step has not been recorded.
func (s *Store) GetStep(ctx context.Context, runID id.ID, stepName string) (*workflow.StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.steps[runID.String()][stepName]
	if !ok {
		return nil, nil
	}
	return copyStep(rec), nil
}

// ListSteps returns all ledger entries for a run, oldest first.
func (s *Store) ListSteps(ctx context.Context, runID id.ID) ([]*workflow.StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger := s.steps[runID.String()]
	recs := make([]*workflow.StepRecord, 0, len(ledger))
	for _, rec := range ledger {
		recs = append(recs, copyStep(rec))
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CompletedAt.Before(recs[j].CompletedAt)
	})
	return recs, nil
}

// PurgeRuns removes terminal runs and their ledgers that completed
// before the given time.
func (s *Store) PurgeRuns(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for key, run := range s.runs {
		if run.State == workflow.RunStateRunning {
			continue
		}
		if run.CompletedAt == nil || !run.CompletedAt.Before(before) {
			continue
		}
		delete(s.runs, key)
		delete(s.steps, key)
		purged++
	}
	return purged, nil
}

// paginate applies offset and limit to an already sorted slice.
func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
