package bugs

import (
	"context"
	"sync"
)

// MemoryStore keeps bug reports in process memory, newest first.
type MemoryStore struct {
	mu      sync.RWMutex
	reports []Report
}

// NewMemoryStore creates an empty in-memory bug store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// List returns all reports, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Report, len(s.reports))
	copy(out, s.reports)
	return out, nil
}

// ListByUser filters by submitter, keeping newest-first order.
func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Report
	for _, rep := range s.reports {
		if rep.SubmittedBy == userID {
			out = append(out, rep)
		}
	}
	return out, nil
}

// Get returns the report or (nil, nil) when the id is unknown.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rep := range s.reports {
		if rep.ID == id {
			r := rep
			return &r, nil
		}
	}
	return nil, nil
}

// Create prepends the report so listings stay newest first.
func (s *MemoryStore) Create(ctx context.Context, rep Report) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append([]Report{rep}, s.reports...)
	return rep, nil
}

// SetStatus updates the status in place.
func (s *MemoryStore) SetStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reports {
		if s.reports[i].ID == id {
			s.reports[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}
