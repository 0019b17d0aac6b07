package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service enforces the cross-entity invariants: capacity bounds, one
// registration per (event, user) pair, and registration cleanup on event
// deletion. All registration and event mutations must go through it rather
// than touching the stores directly.
type Service struct {
	events EventStore
	regs   RegistrationStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a service over the given stores.
func NewService(events EventStore, regs RegistrationStore) *Service {
	return &Service{
		events: events,
		regs:   regs,
		locks:  make(map[string]*sync.Mutex),
	}
}

// eventLock returns the mutex serializing mutations of one event's counter.
// Operations on different events proceed in parallel.
func (s *Service) eventLock(eventID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[eventID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[eventID] = l
	}
	return l
}

// ListEvents returns the full catalog in insertion order.
func (s *Service) ListEvents(ctx context.Context) ([]Event, error) {
	return s.events.List(ctx)
}

// GetEvent returns a single event.
func (s *Service) GetEvent(ctx context.Context, eventID string) (Event, error) {
	evt, err := s.events.Get(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	if evt == nil {
		return Event{}, ErrEventNotFound
	}
	return *evt, nil
}

// CreateEvent validates and stores a new event. Callers creating fresh
// events supply Registered == 0; a nonzero value is accepted for imports
// as long as it stays within capacity.
func (s *Service) CreateEvent(ctx context.Context, evt Event) (Event, error) {
	if evt.Title == "" {
		return Event{}, fmt.Errorf("%w: title required", ErrInvalidEvent)
	}
	if evt.Capacity <= 0 {
		return Event{}, fmt.Errorf("%w: capacity must be positive", ErrInvalidEvent)
	}
	if evt.Registered < 0 || evt.Registered > evt.Capacity {
		return Event{}, fmt.Errorf("%w: registered count out of range", ErrInvalidEvent)
	}
	if evt.Tags == nil {
		evt.Tags = []string{}
	}
	evt.CreatedAt = time.Now().UTC()
	return s.events.Create(ctx, evt)
}

// UpdateEvent merges the non-nil fields of upd into the stored event.
// Shrinking capacity below the current registration count is rejected so
// the registered <= capacity invariant keeps holding.
func (s *Service) UpdateEvent(ctx context.Context, eventID string, upd EventUpdate) (Event, error) {
	lock := s.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	evt, err := s.events.Get(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	if evt == nil {
		return Event{}, ErrEventNotFound
	}

	if upd.Title != nil {
		evt.Title = *upd.Title
	}
	if upd.Description != nil {
		evt.Description = *upd.Description
	}
	if upd.Date != nil {
		evt.Date = *upd.Date
	}
	if upd.Time != nil {
		evt.Time = *upd.Time
	}
	if upd.Location != nil {
		evt.Location = *upd.Location
	}
	if upd.Organizer != nil {
		evt.Organizer = *upd.Organizer
	}
	if upd.ImageURL != nil {
		evt.ImageURL = *upd.ImageURL
	}
	if upd.Tags != nil {
		evt.Tags = *upd.Tags
	}
	if upd.Capacity != nil {
		if *upd.Capacity <= 0 {
			return Event{}, fmt.Errorf("%w: capacity must be positive", ErrInvalidEvent)
		}
		if *upd.Capacity < evt.Registered {
			return Event{}, ErrCapacityTooSmall
		}
		evt.Capacity = *upd.Capacity
	}

	if err := s.events.Update(ctx, *evt); err != nil {
		return Event{}, err
	}
	return *evt, nil
}

// DeleteEvent removes the event and cascades to every registration
// referencing it, so the registration store never holds a dangling
// reference.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	lock := s.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	evt, err := s.events.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if evt == nil {
		return ErrEventNotFound
	}
	if err := s.regs.DeleteByEvent(ctx, eventID); err != nil {
		return fmt.Errorf("cascade registrations: %w", err)
	}
	return s.events.Delete(ctx, eventID)
}

// Register books userID onto eventID. The capacity check, the record
// creation, and the counter increment run under the per-event lock so two
// concurrent registrations can never jointly exceed capacity.
func (s *Service) Register(ctx context.Context, eventID, userID string) (Registration, error) {
	lock := s.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	evt, err := s.events.Get(ctx, eventID)
	if err != nil {
		return Registration{}, err
	}
	if evt == nil {
		return Registration{}, ErrEventNotFound
	}
	if evt.Registered >= evt.Capacity {
		rejectionsTotal.WithLabelValues("event_full").Inc()
		return Registration{}, ErrEventFull
	}
	existing, err := s.regs.FindByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return Registration{}, err
	}
	if existing != nil {
		rejectionsTotal.WithLabelValues("already_registered").Inc()
		return Registration{}, ErrAlreadyRegistered
	}

	id := uuid.NewString()
	reg := Registration{
		ID:               id,
		EventID:          eventID,
		UserID:           userID,
		RegistrationDate: time.Now().UTC(),
		Attended:         false,
		// Deterministic credential, traceable back to its registration.
		QRCode: fmt.Sprintf("%s-event%s-user%s", id, eventID, userID),
	}
	reg, err = s.regs.Create(ctx, reg)
	if err != nil {
		return Registration{}, fmt.Errorf("create registration: %w", err)
	}
	if err := s.events.IncrementRegistered(ctx, eventID); err != nil {
		// Keep record and counter consistent: no counter, no record.
		_ = s.regs.Delete(ctx, reg.ID)
		return Registration{}, fmt.Errorf("increment registered: %w", err)
	}
	registrationsTotal.Inc()
	return reg, nil
}

// Cancel removes the registration and releases its seat. A dangling event
// reference is tolerated — cancellation must never fail merely because the
// event is already gone.
func (s *Service) Cancel(ctx context.Context, registrationID string) error {
	reg, err := s.regs.Get(ctx, registrationID)
	if err != nil {
		return err
	}
	if reg == nil {
		return ErrRegistrationNotFound
	}

	lock := s.eventLock(reg.EventID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.regs.Delete(ctx, registrationID); err != nil {
		return err
	}
	if err := s.events.DecrementRegistered(ctx, reg.EventID); err != nil && err != ErrEventNotFound {
		return fmt.Errorf("decrement registered: %w", err)
	}
	cancellationsTotal.Inc()
	return nil
}

// ListForUser joins the user's registrations with their events, preserving
// registration order. A missing referenced event surfaces ErrEventNotFound
// rather than silently dropping the row — silent loss would hide an
// integrity fault.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]UserRegistration, error) {
	regs, err := s.regs.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]UserRegistration, 0, len(regs))
	for _, reg := range regs {
		evt, err := s.events.Get(ctx, reg.EventID)
		if err != nil {
			return nil, err
		}
		if evt == nil {
			return nil, fmt.Errorf("event %s: %w", reg.EventID, ErrEventNotFound)
		}
		out = append(out, UserRegistration{Event: *evt, Registration: reg})
	}
	return out, nil
}

// GetRegistration returns a single registration record.
func (s *Service) GetRegistration(ctx context.Context, registrationID string) (Registration, error) {
	reg, err := s.regs.Get(ctx, registrationID)
	if err != nil {
		return Registration{}, err
	}
	if reg == nil {
		return Registration{}, ErrRegistrationNotFound
	}
	return *reg, nil
}

// MarkAttendance sets the attended flag. No state-machine constraint:
// staff may toggle freely to correct mistakes, and repeating a call is a
// no-op.
func (s *Service) MarkAttendance(ctx context.Context, registrationID string, attended bool) error {
	return s.regs.SetAttended(ctx, registrationID, attended)
}

// AttachQRImage records the pre-rendered check-in image URL for a
// registration. Called by the worker.
func (s *Service) AttachQRImage(ctx context.Context, registrationID, imageURL string) error {
	return s.regs.SetQRImage(ctx, registrationID, imageURL)
}
