package registry

import "context"

// EventStore is the authoritative list of events and their counters.
// Get returns (nil, nil) for an unknown id — absence is a valid outcome at
// this layer; the Service turns it into ErrEventNotFound.
type EventStore interface {
	List(ctx context.Context) ([]Event, error)
	Get(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, evt Event) (Event, error)
	Update(ctx context.Context, evt Event) error
	Delete(ctx context.Context, id string) error
	// IncrementRegistered has no capacity guard here; the Service checks
	// capacity first, under the per-event lock.
	IncrementRegistered(ctx context.Context, id string) error
	// DecrementRegistered floors the counter at 0.
	DecrementRegistered(ctx context.Context, id string) error
}

// RegistrationStore is the authoritative list of registration records.
type RegistrationStore interface {
	List(ctx context.Context) ([]Registration, error)
	Get(ctx context.Context, id string) (*Registration, error)
	FindByUser(ctx context.Context, userID string) ([]Registration, error)
	FindByEventAndUser(ctx context.Context, eventID, userID string) (*Registration, error)
	Create(ctx context.Context, reg Registration) (Registration, error)
	Delete(ctx context.Context, id string) error
	DeleteByEvent(ctx context.Context, eventID string) error
	SetAttended(ctx context.Context, id string, attended bool) error
	SetQRImage(ctx context.Context, id, imageURL string) error
}
