package handler

import (
	"context"
	"database/sql"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	_ "modernc.org/sqlite"

	"github.com/olegiv/eventbook/internal/auth"
	"github.com/olegiv/eventbook/internal/render"
	"github.com/olegiv/eventbook/internal/store"
	"github.com/olegiv/eventbook/web"
)

// testDB creates an in-memory SQLite database with the required schema for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// A second connection would see a fresh empty :memory: database
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX idx_users_username ON users(username);

		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX idx_sessions_expiry ON sessions(expiry);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			date DATETIME NOT NULL,
			location TEXT NOT NULL,
			user_id INTEGER REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX idx_events_user_id ON events(user_id);
		CREATE INDEX idx_events_date ON events(date);

		CREATE TABLE bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			event_id INTEGER NOT NULL REFERENCES events(id),
			reference TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL DEFAULT 'info',
			message TEXT NOT NULL,
			user_id INTEGER,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// testSessionManager creates a session manager with the default in-memory store.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	return scs.New()
}

// testRenderer creates a renderer over the embedded templates.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("getting templates fs: %v", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
	})
	if err != nil {
		t.Fatalf("creating renderer: %v", err)
	}
	return renderer
}

// testApp assembles the full application router and serves it from a test server.
type testApp struct {
	db     *sql.DB
	server *httptest.Server
	client *http.Client
}

// newTestApp wires the application exactly as main does and returns it with a
// cookie-aware client.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testDB(t)
	sm := testSessionManager(t)
	renderer := testRenderer(t, sm)

	server := httptest.NewServer(Routes(db, sm, renderer))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("creating cookie jar: %v", err)
	}

	return &testApp{
		db:     db,
		server: server,
		client: &http.Client{Jar: jar},
	}
}

// get performs a GET request, following redirects.
func (a *testApp) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// postForm performs a form POST, following redirects.
func (a *testApp) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// doNoRedirect performs a request without following redirects.
func (a *testApp) doNoRedirect(t *testing.T, method, path string, form url.Values) *http.Response {
	t.Helper()

	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequest(method, a.server.URL+path, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	client := &http.Client{
		Jar: a.client.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// createUser inserts a user with a real bcrypt hash directly into the database.
func (a *testApp) createUser(t *testing.T, username, password, role string) store.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	user, err := store.New(a.db).CreateUser(context.Background(), store.CreateUserParams{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return user
}

// createEvent inserts an event directly into the database.
// ownerID 0 creates an owner-less (admin) event.
func (a *testApp) createEvent(t *testing.T, title string, date time.Time, location string, ownerID int64) store.Event {
	t.Helper()

	var owner sql.NullInt64
	if ownerID != 0 {
		owner = sql.NullInt64{Int64: ownerID, Valid: true}
	}

	event, err := store.New(a.db).CreateEvent(context.Background(), store.CreateEventParams{
		Title:     title,
		Date:      date,
		Location:  location,
		UserID:    owner,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("creating event: %v", err)
	}
	return event
}

// itoa formats an ID for use in a route path.
func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// login performs a login through the real login route.
func (a *testApp) login(t *testing.T, username, password string) {
	t.Helper()

	resp := a.postForm(t, RouteLogin, url.Values{
		"username": {username},
		"password": {password},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login of %q failed with status %d", username, resp.StatusCode)
	}
}
