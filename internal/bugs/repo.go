package bugs

import (
	"context"
	"database/sql"
	"errors"
)

// Repository persists bug reports in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const reportColumns = `id, title, description, submitted_by, submitted_date, status, priority`

func scanReport(row interface{ Scan(...any) error }) (Report, error) {
	var rep Report
	err := row.Scan(&rep.ID, &rep.Title, &rep.Description, &rep.SubmittedBy,
		&rep.SubmittedDate, &rep.Status, &rep.Priority)
	return rep, err
}

// List returns all reports, newest first.
func (r *Repository) List(ctx context.Context) ([]Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM bug_reports ORDER BY submitted_date DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rep)
	}
	return res, rows.Err()
}

// ListByUser returns the reports a user submitted, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM bug_reports WHERE submitted_by = $1 ORDER BY submitted_date DESC, id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rep)
	}
	return res, rows.Err()
}

// Get returns a single report, or (nil, nil) when unknown.
func (r *Repository) Get(ctx context.Context, id string) (*Report, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM bug_reports WHERE id = $1`, id)
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}

// Create writes a new report row.
func (r *Repository) Create(ctx context.Context, rep Report) (Report, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bug_reports (id, title, description, submitted_by, submitted_date, status, priority)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, rep.ID, rep.Title, rep.Description, rep.SubmittedBy, rep.SubmittedDate, rep.Status, rep.Priority)
	if err != nil {
		return Report{}, err
	}
	return rep, nil
}

// SetStatus updates the status.
func (r *Repository) SetStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bug_reports SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
