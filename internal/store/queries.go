// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUsernameTaken is returned by CreateUser when the username is already
// registered. Uniqueness is enforced by the users.username UNIQUE constraint,
// so concurrent signups cannot slip past an application-level pre-check.
var ErrUsernameTaken = errors.New("username already taken")

// Queries executes parameterized SQL statements against the database.
// All user-supplied values are passed as bind parameters, never interpolated.
type Queries struct {
	db *sql.DB
}

// New creates a Queries instance bound to the given database.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// CreateUserParams holds the fields for creating a user.
type CreateUserParams struct {
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// CreateUser inserts a new user and returns the stored row.
// Returns ErrUsernameTaken if the username is already registered.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
		arg.Username, arg.PasswordHash, arg.Role, arg.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return User{}, ErrUsernameTaken
		}
		return User{}, fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("getting user id: %w", err)
	}

	return User{
		ID:           id,
		Username:     arg.Username,
		PasswordHash: arg.PasswordHash,
		Role:         arg.Role,
		CreatedAt:    arg.CreatedAt,
	}, nil
}

// GetUserByUsername returns the user with the given username.
// Returns sql.ErrNoRows if no such user exists.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?`,
		username,
	)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// GetUserByID returns the user with the given ID.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE id = ?`,
		id,
	)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// UpdateUserPasswordHash replaces the stored password hash for a user.
// Used for transparent rehashing when the cost factor changes.
func (q *Queries) UpdateUserPasswordHash(ctx context.Context, id int64, passwordHash string) error {
	if _, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id,
	); err != nil {
		return fmt.Errorf("updating password hash: %w", err)
	}
	return nil
}

// CreateEventParams holds the fields for creating an event.
// UserID is invalid (NULL) for admin-created events.
type CreateEventParams struct {
	Title     string
	Date      time.Time
	Location  string
	UserID    sql.NullInt64
	CreatedAt time.Time
}

// CreateEvent inserts a new event and returns the stored row.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO events (title, date, location, user_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		arg.Title, arg.Date, arg.Location, arg.UserID, arg.CreatedAt,
	)
	if err != nil {
		return Event{}, fmt.Errorf("inserting event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Event{}, fmt.Errorf("getting event id: %w", err)
	}

	return Event{
		ID:        id,
		Title:     arg.Title,
		Date:      arg.Date,
		Location:  arg.Location,
		UserID:    arg.UserID,
		CreatedAt: arg.CreatedAt,
	}, nil
}

// GetEventByID returns the event with the given ID.
func (q *Queries) GetEventByID(ctx context.Context, id int64) (Event, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, title, date, location, user_id, created_at FROM events WHERE id = ?`,
		id,
	)
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.Date, &e.Location, &e.UserID, &e.CreatedAt)
	return e, err
}

// ListEvents returns all events ordered by date ascending.
func (q *Queries) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, title, date, location, user_id, created_at FROM events ORDER BY date ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListEventsByOwner returns the events owned by the given user, ordered by
// date ascending. Owner-less (admin) events are not included.
func (q *Queries) ListEventsByOwner(ctx context.Context, userID int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, title, date, location, user_id, created_at FROM events WHERE user_id = ? ORDER BY date ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events by owner: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// DeleteEvent deletes the event with the given ID.
// Deleting a nonexistent ID is a no-op, not an error.
func (q *Queries) DeleteEvent(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	return nil
}

// CreateBookingParams holds the fields for creating a booking.
type CreateBookingParams struct {
	UserID    int64
	EventID   int64
	Reference string
	CreatedAt time.Time
}

// CreateBooking inserts a new booking and returns the stored row.
func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO bookings (user_id, event_id, reference, created_at) VALUES (?, ?, ?, ?)`,
		arg.UserID, arg.EventID, arg.Reference, arg.CreatedAt,
	)
	if err != nil {
		return Booking{}, fmt.Errorf("inserting booking: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Booking{}, fmt.Errorf("getting booking id: %w", err)
	}

	return Booking{
		ID:        id,
		UserID:    arg.UserID,
		EventID:   arg.EventID,
		Reference: arg.Reference,
		CreatedAt: arg.CreatedAt,
	}, nil
}

// CreateAuditEntryParams holds the fields for creating an audit log entry.
type CreateAuditEntryParams struct {
	Level     string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

// CreateAuditEntry inserts a new audit log entry.
func (q *Queries) CreateAuditEntry(ctx context.Context, arg CreateAuditEntryParams) (AuditEntry, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO audit_log (level, message, user_id, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		arg.Level, arg.Message, arg.UserID, arg.Metadata, arg.CreatedAt,
	)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("inserting audit entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return AuditEntry{}, fmt.Errorf("getting audit entry id: %w", err)
	}

	return AuditEntry{
		ID:        id,
		Level:     arg.Level,
		Message:   arg.Message,
		UserID:    arg.UserID,
		Metadata:  arg.Metadata,
		CreatedAt: arg.CreatedAt,
	}, nil
}

// DeleteAuditEntriesBefore deletes audit log entries created before the cutoff
// and returns the number of rows removed.
func (q *Queries) DeleteAuditEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning audit log: %w", err)
	}
	return res.RowsAffected()
}

// scanEvents collects event rows into a slice.
func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Date, &e.Location, &e.UserID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on the
// given column. Matched by message so the check works with both the modernc
// driver used by the application and the mattn driver used in tests.
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
