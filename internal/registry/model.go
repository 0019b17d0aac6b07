package registry

import "time"

// Event is a schedulable campus activity with finite capacity.
// Registered counts active registrations and is mutated only by the Service.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"` // calendar date, YYYY-MM-DD
	Time        string    `json:"time"` // free-text range, e.g. "6:00 PM - 10:00 PM"
	Location    string    `json:"location"`
	Organizer   string    `json:"organizer"`
	Capacity    int       `json:"capacity"`
	Registered  int       `json:"registered"`
	ImageURL    string    `json:"image_url,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

// Registration binds one user to one event and carries the check-in
// credential. QRImageURL is filled asynchronously by the worker once the
// check-in image has been rendered.
type Registration struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	UserID           string    `json:"user_id"`
	RegistrationDate time.Time `json:"registration_date"`
	Attended         bool      `json:"attended"`
	QRCode           string    `json:"qr_code"`
	QRImageURL       string    `json:"qr_image_url,omitempty"`
}

// UserRegistration pairs a registration with its event for per-user listings.
type UserRegistration struct {
	Event        Event        `json:"event"`
	Registration Registration `json:"registration"`
}

// EventUpdate carries a partial event edit; nil fields are left untouched.
type EventUpdate struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Date        *string   `json:"date"`
	Time        *string   `json:"time"`
	Location    *string   `json:"location"`
	Organizer   *string   `json:"organizer"`
	Capacity    *int      `json:"capacity"`
	ImageURL    *string   `json:"image_url"`
	Tags        *[]string `json:"tags"`
}
