package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryEventStore keeps events in process memory, insertion order
// preserved. Safe for concurrent use.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryEventStore creates an empty in-memory event store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

// List returns all events in insertion order.
func (s *MemoryEventStore) List(ctx context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

// Get returns the event or (nil, nil) when the id is unknown.
func (s *MemoryEventStore) Get(ctx context.Context, id string) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, evt := range s.events {
		if evt.ID == id {
			e := evt
			return &e, nil
		}
	}
	return nil, nil
}

// Create assigns an id when missing and appends the event.
func (s *MemoryEventStore) Create(ctx context.Context, evt Event) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	s.events = append(s.events, evt)
	return evt, nil
}

// Update replaces the stored event wholesale.
func (s *MemoryEventStore) Update(ctx context.Context, evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == evt.ID {
			s.events[i] = evt
			return nil
		}
	}
	return ErrEventNotFound
}

// Delete removes the event. Registrations are the Service's problem.
func (s *MemoryEventStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return ErrEventNotFound
}

// IncrementRegistered bumps the counter without a capacity guard.
func (s *MemoryEventStore) IncrementRegistered(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Registered++
			return nil
		}
	}
	return ErrEventNotFound
}

// DecrementRegistered lowers the counter, flooring at 0.
func (s *MemoryEventStore) DecrementRegistered(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			if s.events[i].Registered > 0 {
				s.events[i].Registered--
			}
			return nil
		}
	}
	return ErrEventNotFound
}

// MemoryRegistrationStore keeps registration records in process memory.
type MemoryRegistrationStore struct {
	mu   sync.RWMutex
	regs []Registration
}

// NewMemoryRegistrationStore creates an empty in-memory registration store.
func NewMemoryRegistrationStore() *MemoryRegistrationStore {
	return &MemoryRegistrationStore{}
}

// List returns all registrations in insertion order.
func (s *MemoryRegistrationStore) List(ctx context.Context) ([]Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Registration, len(s.regs))
	copy(out, s.regs)
	return out, nil
}

// Get returns the registration or (nil, nil) when the id is unknown.
func (s *MemoryRegistrationStore) Get(ctx context.Context, id string) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, reg := range s.regs {
		if reg.ID == id {
			r := reg
			return &r, nil
		}
	}
	return nil, nil
}

// FindByUser returns the user's registrations in registration order.
func (s *MemoryRegistrationStore) FindByUser(ctx context.Context, userID string) ([]Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Registration
	for _, reg := range s.regs {
		if reg.UserID == userID {
			out = append(out, reg)
		}
	}
	return out, nil
}

// FindByEventAndUser returns the registration for the pair, or (nil, nil).
func (s *MemoryRegistrationStore) FindByEventAndUser(ctx context.Context, eventID, userID string) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, reg := range s.regs {
		if reg.EventID == eventID && reg.UserID == userID {
			r := reg
			return &r, nil
		}
	}
	return nil, nil
}

// Create assigns an id when missing and appends the record.
func (s *MemoryRegistrationStore) Create(ctx context.Context, reg Registration) (Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	s.regs = append(s.regs, reg)
	return reg, nil
}

// Delete removes the record.
func (s *MemoryRegistrationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.regs {
		if s.regs[i].ID == id {
			s.regs = append(s.regs[:i], s.regs[i+1:]...)
			return nil
		}
	}
	return ErrRegistrationNotFound
}

// DeleteByEvent removes every registration referencing the event.
func (s *MemoryRegistrationStore) DeleteByEvent(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.regs[:0]
	for _, reg := range s.regs {
		if reg.EventID != eventID {
			kept = append(kept, reg)
		}
	}
	s.regs = kept
	return nil
}

// SetAttended flips the attendance flag.
func (s *MemoryRegistrationStore) SetAttended(ctx context.Context, id string, attended bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.regs {
		if s.regs[i].ID == id {
			s.regs[i].Attended = attended
			return nil
		}
	}
	return ErrRegistrationNotFound
}

// SetQRImage records the pre-rendered check-in image URL.
func (s *MemoryRegistrationStore) SetQRImage(ctx context.Context, id, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.regs {
		if s.regs[i].ID == id {
			s.regs[i].QRImageURL = imageURL
			return nil
		}
	}
	return ErrRegistrationNotFound
}
