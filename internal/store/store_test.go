package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB creates a temporary test database with migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "eventbook-test-*.db")
	require.NoError(t, err, "creating temp file")
	dbPath := f.Name()
	require.NoError(t, f.Close())

	db, err := NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	return db
}

func TestCreateUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	user, err := q.CreateUser(ctx, CreateUserParams{
		Username:     "max",
		PasswordHash: "hashed-password",
		Role:         RoleUser,
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "max", user.Username)
	assert.Equal(t, RoleUser, user.Role)
	assert.False(t, user.IsAdmin())
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	_, err := q.CreateUser(ctx, CreateUserParams{
		Username: "max", PasswordHash: "h1", Role: RoleUser, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	_, err = q.CreateUser(ctx, CreateUserParams{
		Username: "max", PasswordHash: "h2", Role: RoleUser, CreatedAt: time.Now(),
	})
	require.ErrorIs(t, err, ErrUsernameTaken)

	// Exactly one row survives the conflict
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = 'max'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGetUserByUsername(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	created, err := q.CreateUser(ctx, CreateUserParams{
		Username: "max", PasswordHash: "h", Role: RoleAdmin, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	got, err := q.GetUserByUsername(ctx, "max")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)
	assert.True(t, got.IsAdmin())

	_, err = q.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListEventsByOwner_OrderAndVisibility(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	alice, err := q.CreateUser(ctx, CreateUserParams{
		Username: "alice", PasswordHash: "h", Role: RoleUser, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	bob, err := q.CreateUser(ctx, CreateUserParams{
		Username: "bob", PasswordHash: "h", Role: RoleUser, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	base := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	owner := func(id int64) sql.NullInt64 { return sql.NullInt64{Int64: id, Valid: true} }

	// Insert out of date order to verify the ORDER BY
	_, err = q.CreateEvent(ctx, CreateEventParams{
		Title: "Late", Date: base.AddDate(0, 1, 0), Location: "Hall A", UserID: owner(alice.ID), CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	_, err = q.CreateEvent(ctx, CreateEventParams{
		Title: "Early", Date: base, Location: "Hall B", UserID: owner(alice.ID), CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	_, err = q.CreateEvent(ctx, CreateEventParams{
		Title: "Bobs", Date: base, Location: "Hall C", UserID: owner(bob.ID), CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	_, err = q.CreateEvent(ctx, CreateEventParams{
		Title: "Global", Date: base, Location: "Hall D", UserID: sql.NullInt64{}, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	own, err := q.ListEventsByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "Early", own[0].Title)
	assert.Equal(t, "Late", own[1].Title)

	all, err := q.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	// Date ascending; the later event comes last
	assert.Equal(t, "Late", all[3].Title)
}

func TestDeleteEvent_NonexistentIsNoop(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	event, err := q.CreateEvent(ctx, CreateEventParams{
		Title: "Keep", Date: time.Now(), Location: "Hall", CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, q.DeleteEvent(ctx, 99999))

	// The existing event is untouched
	got, err := q.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", got.Title)

	require.NoError(t, q.DeleteEvent(ctx, event.ID))
	_, err = q.GetEventByID(ctx, event.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateBooking(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	user, err := q.CreateUser(ctx, CreateUserParams{
		Username: "max", PasswordHash: "h", Role: RoleUser, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	event, err := q.CreateEvent(ctx, CreateEventParams{
		Title: "Concert", Date: time.Now(), Location: "Hall",
		UserID: sql.NullInt64{Int64: user.ID, Valid: true}, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	booking, err := q.CreateBooking(ctx, CreateBookingParams{
		UserID: user.ID, EventID: event.ID, Reference: "ref-123", CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NotZero(t, booking.ID)

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM bookings WHERE user_id = ? AND event_id = ?`, user.ID, event.ID,
	).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDeleteAuditEntriesBefore(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	old := time.Now().AddDate(0, 0, -120)
	recent := time.Now()

	_, err := q.CreateAuditEntry(ctx, CreateAuditEntryParams{
		Level: AuditLevelWarning, Message: "old entry", Metadata: "{}", CreatedAt: old,
	})
	require.NoError(t, err)
	_, err = q.CreateAuditEntry(ctx, CreateAuditEntryParams{
		Level: AuditLevelError, Message: "recent entry", Metadata: "{}", CreatedAt: recent,
	})
	require.NoError(t, err)

	deleted, err := q.DeleteAuditEntriesBefore(ctx, time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM audit_log`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSeed(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db))

	q := New(db)
	admin, err := q.GetUserByUsername(ctx, DefaultAdminUsername)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	// Seeding twice is a no-op
	require.NoError(t, Seed(ctx, db))
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 1, count)
}
