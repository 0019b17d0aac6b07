package registry

import "errors"

// Domain errors. The HTTP layer maps these with errors.Is; the service
// never retries — failures are terminal per attempt and the caller decides.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventFull            = errors.New("event is fully booked")
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrInvalidEvent         = errors.New("invalid event")
	ErrCapacityTooSmall     = errors.New("capacity cannot drop below current registrations")
)
