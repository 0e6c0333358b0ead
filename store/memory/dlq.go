package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/dlq"
	"github.com/fluxdesk/fluxdesk/id"
)

func copyDLQ(entry *dlq.Entry) *dlq.Entry {
	cp := *entry
	cp.Payload = append([]byte(nil), entry.Payload...)
	if entry.ReplayedAt != nil {
		t := *entry.ReplayedAt
		cp.ReplayedAt = &t
	}
	return &cp
}

// PushDLQ adds a failed run entry to the dead letter queue.
func (s *Store) PushDLQ(ctx context.Context, entry *dlq.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entry.ID.String()
	if _, ok := s.dlqEntries[key]; ok {
		return fmt.Errorf("dlq entry %s: %w", entry.ID, fluxdesk.ErrAlreadyExists)
	}
	s.dlqEntries[key] = copyDLQ(entry)
	s.dlqOrder = append(s.dlqOrder, key)
	return nil
}

// ListDLQ returns DLQ entries newest first.
func (s *Store) ListDLQ(ctx context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*dlq.Entry, 0, len(s.dlqOrder))
	for i := len(s.dlqOrder) - 1; i >= 0; i-- {
		entry, ok := s.dlqEntries[s.dlqOrder[i]]
		if !ok {
			continue
		}
		if opts.Handler != "" && entry.Handler != opts.Handler {
			continue
		}
		out = append(out, copyDLQ(entry))
	}
	return paginate(out, opts.Offset, opts.Limit), nil
}

// GetDLQ retrieves a DLQ entry by ID.
func (s *Store) GetDLQ(ctx context.Context, entryID id.ID) (*dlq.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.dlqEntries[entryID.String()]
	if !ok {
		return nil, fmt.Errorf("dlq entry %s: %w", entryID, fluxdesk.ErrDLQNotFound)
	}
	return copyDLQ(entry), nil
}

// MarkReplayed stamps a DLQ entry as replayed.
func (s *Store) MarkReplayed(ctx context.Context, entryID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.dlqEntries[entryID.String()]
	if !ok {
		return fmt.Errorf("dlq entry %s: %w", entryID, fluxdesk.ErrDLQNotFound)
	}
	now := time.Now().UTC()
	entry.ReplayedAt = &now
	return nil
}

// PurgeDLQ removes entries that failed before the given time.
func (s *Store) PurgeDLQ(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	kept := s.dlqOrder[:0]
	for _, key := range s.dlqOrder {
		entry := s.dlqEntries[key]
		if entry != nil && entry.FailedAt.Before(before) {
			delete(s.dlqEntries, key)
			purged++
			continue
		}
		kept = append(kept, key)
	}
	s.dlqOrder = kept
	return purged, nil
}

// CountDLQ returns the number of entries in the dead letter queue.
func (s *Store) CountDLQ(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.dlqEntries)), nil
}
