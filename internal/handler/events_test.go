package handler

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/eventbook/internal/store"
)

func TestHome_AnonymousShowsEmptyList(t *testing.T) {
	app := newTestApp(t)
	app.createEvent(t, "Hidden", time.Now(), "Hall", 0)

	resp := app.get(t, RouteRoot)
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "No events to show.") {
		t.Error("anonymous homepage should show an empty list")
	}
	if strings.Contains(body, "Hidden") {
		t.Error("anonymous homepage should not list any events")
	}
}

func TestHome_UserSeesOwnEventsInDateOrder(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser(t, "alice", "secret-pass", store.RoleUser)
	bob := app.createUser(t, "bob", "secret-pass", store.RoleUser)

	base := time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC)
	app.createEvent(t, "Second", base.AddDate(0, 0, 7), "Hall A", alice.ID)
	app.createEvent(t, "First", base, "Hall B", alice.ID)
	app.createEvent(t, "Bobs Party", base, "Hall C", bob.ID)
	app.createEvent(t, "Global", base, "Hall D", 0)

	app.login(t, "alice", "secret-pass")
	resp := app.get(t, RouteRoot)
	body := readBody(t, resp)

	if strings.Contains(body, "Bobs Party") {
		t.Error("user should not see another user's events")
	}
	if strings.Contains(body, "Global") {
		t.Error("owner-less events are visible only in the admin view")
	}

	first := strings.Index(body, "First")
	second := strings.Index(body, "Second")
	if first == -1 || second == -1 {
		t.Fatal("own events missing from homepage")
	}
	if first > second {
		t.Error("events should be ordered by date ascending")
	}
}

func TestHome_AdminSeesAllEvents(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser(t, "alice", "secret-pass", store.RoleUser)
	app.createUser(t, "root", "admin-pass", store.RoleAdmin)

	app.createEvent(t, "Alices Event", time.Now(), "Hall A", alice.ID)
	app.createEvent(t, "Global", time.Now(), "Hall B", 0)

	app.login(t, "root", "admin-pass")
	resp := app.get(t, RouteRoot)
	body := readBody(t, resp)

	if !strings.Contains(body, "Alices Event") || !strings.Contains(body, "Global") {
		t.Error("admin homepage should list every event")
	}
}

func TestCreateEvent_RequiresLogin(t *testing.T) {
	app := newTestApp(t)

	resp := app.doNoRedirect(t, http.MethodPost, RouteCreateEvent, url.Values{
		"title": {"Party"}, "date": {"2026-10-01T19:00"}, "location": {"Hall"},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want redirect to login", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != RouteLogin {
		t.Errorf("Location = %q, want %q", got, RouteLogin)
	}

	var count int
	if err := app.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		t.Fatalf("counting events: %v", err)
	}
	if count != 0 {
		t.Error("no event should be created without a session")
	}
}

func TestCreateEvent_OwnedByCurrentUser(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "max", "secret-pass", store.RoleUser)
	app.login(t, "max", "secret-pass")

	resp := app.postForm(t, RouteCreateEvent, url.Values{
		"title":    {"Birthday"},
		"date":     {"2026-10-01T19:00"},
		"location": {"Hall A"},
	})
	body := readBody(t, resp)

	// Redirect lands on the homepage where the event is listed
	if !strings.Contains(body, "Birthday") {
		t.Error("created event missing from homepage")
	}

	var ownerID int64
	if err := app.db.QueryRow(`SELECT user_id FROM events WHERE title = 'Birthday'`).Scan(&ownerID); err != nil {
		t.Fatalf("reading event row: %v", err)
	}
	if ownerID != user.ID {
		t.Errorf("event owner = %d, want %d", ownerID, user.ID)
	}
}

func TestCreateEvent_InvalidDate(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "max", "secret-pass", store.RoleUser)
	app.login(t, "max", "secret-pass")

	resp := app.postForm(t, RouteCreateEvent, url.Values{
		"title":    {"Party"},
		"date":     {"not-a-date"},
		"location": {"Hall"},
	})
	body := readBody(t, resp)

	if !strings.Contains(body, "Title, date and location are required") {
		t.Error("expected validation message for a bad date")
	}

	var count int
	if err := app.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		t.Fatalf("counting events: %v", err)
	}
	if count != 0 {
		t.Error("no event should be created from an invalid form")
	}
}

func TestBook_CreatesBookingAndShowsReference(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "max", "secret-pass", store.RoleUser)
	event := app.createEvent(t, "Concert", time.Now().AddDate(0, 1, 0), "Hall", user.ID)
	app.login(t, "max", "secret-pass")

	resp := app.postForm(t, "/book/"+itoa(event.ID), nil)
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "Booking confirmed") {
		t.Error("confirmation page missing")
	}
	if !strings.Contains(body, "Concert") {
		t.Error("confirmation should name the booked event")
	}

	var reference string
	err := app.db.QueryRow(
		`SELECT reference FROM bookings WHERE user_id = ? AND event_id = ?`, user.ID, event.ID,
	).Scan(&reference)
	if err != nil {
		t.Fatalf("reading booking row: %v", err)
	}
	if reference == "" {
		t.Error("booking reference should not be empty")
	}
	if !strings.Contains(body, reference) {
		t.Error("confirmation page should show the booking reference")
	}
}

func TestBook_UnknownEvent(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "max", "secret-pass", store.RoleUser)
	app.login(t, "max", "secret-pass")

	resp := app.postForm(t, "/book/99999", nil)
	body := readBody(t, resp)

	if !strings.Contains(body, "Event not found") {
		t.Error("expected not-found message for an unknown event")
	}

	var count int
	if err := app.db.QueryRow(`SELECT COUNT(*) FROM bookings`).Scan(&count); err != nil {
		t.Fatalf("counting bookings: %v", err)
	}
	if count != 0 {
		t.Error("no booking should be created for an unknown event")
	}
}

func TestBook_RequiresLogin(t *testing.T) {
	app := newTestApp(t)

	resp := app.doNoRedirect(t, http.MethodPost, "/book/1", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want redirect to login", resp.StatusCode)
	}
}
