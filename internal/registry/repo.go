package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// EventRepository persists events in Postgres.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates an event repo.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var evt Event
	var tags []byte
	err := row.Scan(&evt.ID, &evt.Title, &evt.Description, &evt.Date, &evt.Time,
		&evt.Location, &evt.Organizer, &evt.Capacity, &evt.Registered,
		&evt.ImageURL, &tags, &evt.CreatedAt)
	if err != nil {
		return Event{}, err
	}
	if err := json.Unmarshal(tags, &evt.Tags); err != nil {
		return Event{}, fmt.Errorf("decode tags: %w", err)
	}
	return evt, nil
}

// List returns all events, oldest first.
func (r *EventRepository) List(ctx context.Context) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, event_date, event_time, location, organizer,
		       capacity, registered, image_url, tags, created_at
		FROM events
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, evt)
	}
	return res, rows.Err()
}

// Get returns a single event, or (nil, nil) when the id is unknown.
func (r *EventRepository) Get(ctx context.Context, id string) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, event_date, event_time, location, organizer,
		       capacity, registered, image_url, tags, created_at
		FROM events WHERE id = $1
	`, id)
	evt, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &evt, nil
}

// Create writes a new event row.
func (r *EventRepository) Create(ctx context.Context, evt Event) (Event, error) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Tags == nil {
		evt.Tags = []string{}
	}
	tags, err := json.Marshal(evt.Tags)
	if err != nil {
		return Event{}, fmt.Errorf("encode tags: %w", err)
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO events (id, title, description, event_date, event_time, location,
		                    organizer, capacity, registered, image_url, tags)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at
	`, evt.ID, evt.Title, evt.Description, evt.Date, evt.Time, evt.Location,
		evt.Organizer, evt.Capacity, evt.Registered, evt.ImageURL, tags)
	if err := row.Scan(&evt.CreatedAt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// Update replaces the stored event wholesale.
func (r *EventRepository) Update(ctx context.Context, evt Event) error {
	tags, err := json.Marshal(evt.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET title = $2, description = $3, event_date = $4, event_time = $5,
		    location = $6, organizer = $7, capacity = $8, registered = $9,
		    image_url = $10, tags = $11
		WHERE id = $1
	`, evt.ID, evt.Title, evt.Description, evt.Date, evt.Time, evt.Location,
		evt.Organizer, evt.Capacity, evt.Registered, evt.ImageURL, tags)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// Delete removes the event row.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// IncrementRegistered bumps the counter in one atomic statement.
func (r *EventRepository) IncrementRegistered(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET registered = registered + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DecrementRegistered lowers the counter, clamped at 0 in the statement
// itself so no read-modify-write window exists.
func (r *EventRepository) DecrementRegistered(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET registered = GREATEST(registered - 1, 0) WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// RegistrationRepository persists registration records in Postgres.
type RegistrationRepository struct {
	db *sql.DB
}

// NewRegistrationRepository creates a registration repo.
func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `id, event_id, user_id, registration_date, attended, qr_code, qr_image_url`

func scanRegistration(row interface{ Scan(...any) error }) (Registration, error) {
	var reg Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegistrationDate,
		&reg.Attended, &reg.QRCode, &reg.QRImageURL)
	return reg, err
}

// List returns all registrations, oldest first.
func (r *RegistrationRepository) List(ctx context.Context) ([]Registration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations ORDER BY registration_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, reg)
	}
	return res, rows.Err()
}

// Get returns a single registration, or (nil, nil) when unknown.
func (r *RegistrationRepository) Get(ctx context.Context, id string) (*Registration, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

// FindByUser returns the user's registrations in registration order.
func (r *RegistrationRepository) FindByUser(ctx context.Context, userID string) ([]Registration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE user_id = $1 ORDER BY registration_date, id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, reg)
	}
	return res, rows.Err()
}

// FindByEventAndUser returns the registration for the pair, or (nil, nil).
func (r *RegistrationRepository) FindByEventAndUser(ctx context.Context, eventID, userID string) (*Registration, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

// Create writes a new registration row.
func (r *RegistrationRepository) Create(ctx context.Context, reg Registration) (Registration, error) {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO registrations (id, event_id, user_id, registration_date, attended, qr_code, qr_image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, reg.ID, reg.EventID, reg.UserID, reg.RegistrationDate, reg.Attended, reg.QRCode, reg.QRImageURL)
	if err != nil {
		return Registration{}, err
	}
	return reg, nil
}

// Delete removes the registration row.
func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

// DeleteByEvent removes every registration referencing the event.
func (r *RegistrationRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = $1`, eventID)
	return err
}

// SetAttended flips the attendance flag.
func (r *RegistrationRepository) SetAttended(ctx context.Context, id string, attended bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET attended = $2 WHERE id = $1`, id, attended)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

// SetQRImage records the pre-rendered check-in image URL.
func (r *RegistrationRepository) SetQRImage(ctx context.Context, id, imageURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET qr_image_url = $2 WHERE id = $1`, id, imageURL)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}
