package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// Migrate creates the schema when missing. The CHECK constraints back up
// the invariants the service enforces: registered never leaves
// [0, capacity], and one registration per (event, user) pair.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			event_date TEXT NOT NULL DEFAULT '',
			event_time TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			organizer TEXT NOT NULL DEFAULT '',
			capacity INT NOT NULL CHECK (capacity > 0),
			registered INT NOT NULL DEFAULT 0 CHECK (registered >= 0 AND registered <= capacity),
			image_url TEXT NOT NULL DEFAULT '',
			tags JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS registrations (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			registration_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			attended BOOLEAN NOT NULL DEFAULT FALSE,
			qr_code TEXT NOT NULL UNIQUE,
			qr_image_url TEXT NOT NULL DEFAULT '',
			UNIQUE (event_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS registrations_user_idx ON registrations (user_id)`,
		`CREATE TABLE IF NOT EXISTS bug_reports (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			submitted_by TEXT NOT NULL,
			submitted_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			status TEXT NOT NULL DEFAULT 'open',
			priority TEXT NOT NULL DEFAULT 'medium'
		)`,
	}
	for _, stmt := range stmts {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
