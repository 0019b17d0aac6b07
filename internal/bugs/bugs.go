// Package bugs holds the issue-report store and service. Bug reports carry
// no cross-entity invariants beyond identity; the service exists so the
// HTTP layer talks to one surface for both domains.
package bugs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Report statuses and priorities.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	ErrNotFound        = errors.New("bug report not found")
	ErrInvalidStatus   = errors.New("invalid bug status")
	ErrInvalidPriority = errors.New("invalid bug priority")
	ErrInvalidReport   = errors.New("invalid bug report")
)

// Report is a user-submitted issue report.
type Report struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	SubmittedBy   string    `json:"submitted_by"`
	SubmittedDate time.Time `json:"submitted_date"`
	Status        string    `json:"status"`
	Priority      string    `json:"priority"`
}

// Store is the persistence contract for bug reports. List returns newest
// first. Get returns (nil, nil) for an unknown id.
type Store interface {
	List(ctx context.Context) ([]Report, error)
	ListByUser(ctx context.Context, userID string) ([]Report, error)
	Get(ctx context.Context, id string) (*Report, error)
	Create(ctx context.Context, rep Report) (Report, error)
	SetStatus(ctx context.Context, id, status string) error
}

// Service validates and routes bug-report operations.
type Service struct {
	store Store
}

// NewService creates a service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func validStatus(s string) bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusResolved
}

func validPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// List returns all reports, newest first.
func (s *Service) List(ctx context.Context) ([]Report, error) {
	return s.store.List(ctx)
}

// ListByUser returns the reports a user submitted, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Report, error) {
	return s.store.ListByUser(ctx, userID)
}

// Get returns a single report.
func (s *Service) Get(ctx context.Context, id string) (Report, error) {
	rep, err := s.store.Get(ctx, id)
	if err != nil {
		return Report{}, err
	}
	if rep == nil {
		return Report{}, ErrNotFound
	}
	return *rep, nil
}

// Submit stores a new report. Status defaults to open, priority to medium.
func (s *Service) Submit(ctx context.Context, rep Report) (Report, error) {
	if strings.TrimSpace(rep.Title) == "" {
		return Report{}, fmt.Errorf("%w: title required", ErrInvalidReport)
	}
	if rep.SubmittedBy == "" {
		return Report{}, fmt.Errorf("%w: submitter required", ErrInvalidReport)
	}
	if rep.Status == "" {
		rep.Status = StatusOpen
	}
	if rep.Priority == "" {
		rep.Priority = PriorityMedium
	}
	if !validStatus(rep.Status) {
		return Report{}, ErrInvalidStatus
	}
	if !validPriority(rep.Priority) {
		return Report{}, ErrInvalidPriority
	}
	rep.ID = "BUG-" + strings.ToUpper(uuid.NewString()[:8])
	rep.SubmittedDate = time.Now().UTC()
	return s.store.Create(ctx, rep)
}

// UpdateStatus sets the status and returns the updated report. Any status
// may be set directly — the model does not enforce transition ordering.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (Report, error) {
	if !validStatus(status) {
		return Report{}, ErrInvalidStatus
	}
	if err := s.store.SetStatus(ctx, id, status); err != nil {
		return Report{}, err
	}
	return s.Get(ctx, id)
}
