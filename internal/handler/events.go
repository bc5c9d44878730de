// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/olegiv/eventbook/internal/middleware"
	"github.com/olegiv/eventbook/internal/render"
	"github.com/olegiv/eventbook/internal/store"
)

// eventDateLayouts are the accepted formats for the event date form field.
// datetime-local inputs submit the first layout; the second is a fallback
// for plain date values.
var eventDateLayouts = []string{"2006-01-02T15:04", "2006-01-02"}

// EventHandler handles the public event listing, event creation and booking.
type EventHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(db *sql.DB, renderer *render.Renderer) *EventHandler {
	return &EventHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// homeData is the payload for the home view.
type homeData struct {
	User   *store.User
	Events []store.Event
}

// Home renders the event listing. Admins see every event, regular users see
// their own events, anonymous visitors see an empty list.
func (h *EventHandler) Home(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	var events []store.Event
	var err error
	switch {
	case user == nil:
		// No session: nothing to list
	case user.IsAdmin():
		events, err = h.queries.ListEvents(r.Context())
	default:
		events, err = h.queries.ListEventsByOwner(r.Context(), user.ID)
	}
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	data := render.TemplateData{Data: homeData{User: user, Events: events}}
	if err := h.renderer.Render(w, r, "home", data); err != nil {
		logAndInternalError(w, "failed to render home", "error", err)
	}
}

// eventFormData is the payload for the event creation view.
type eventFormData struct {
	User *store.User
}

// CreateEventForm renders the event creation page.
func (h *EventHandler) CreateEventForm(w http.ResponseWriter, r *http.Request) {
	data := render.TemplateData{
		Title: "Create event",
		Data:  eventFormData{User: middleware.GetUser(r)},
	}
	if err := h.renderer.Render(w, r, "event_form", data); err != nil {
		logAndInternalError(w, "failed to render event form", "error", err)
	}
}

// CreateEvent handles the event creation form submission.
// The new event is owned by the current user.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteCreateEvent) {
		return
	}

	params, ok := eventParamsFromForm(r)
	if !ok {
		flashError(w, r, h.renderer, RouteCreateEvent, "Title, date and location are required")
		return
	}

	user := middleware.GetUser(r)
	params.UserID = sql.NullInt64{Int64: user.ID, Valid: true}

	event, err := h.queries.CreateEvent(r.Context(), params)
	if err != nil {
		logAndInternalError(w, "failed to create event", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("event created", "event_id", event.ID, "user_id", user.ID)
	http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
}

// bookConfirmData is the payload for the booking confirmation view.
type bookConfirmData struct {
	User      *store.User
	Event     store.Event
	Reference string
}

// Book records a booking for the current user and the given event,
// then renders the confirmation page with the booking reference.
func (h *EventHandler) Book(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	event, err := h.queries.GetEventByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(w, r, h.renderer, RouteRoot, "Event not found")
			return
		}
		logAndInternalError(w, "failed to load event", "error", err, "event_id", id)
		return
	}

	user := middleware.GetUser(r)
	booking, err := h.queries.CreateBooking(r.Context(), store.CreateBookingParams{
		UserID:    user.ID,
		EventID:   event.ID,
		Reference: uuid.NewString(),
		CreatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create booking", "error", err, "event_id", event.ID, "user_id", user.ID)
		return
	}

	slog.Info("booking created", "booking_id", booking.ID, "event_id", event.ID, "user_id", user.ID)

	data := render.TemplateData{
		Title: "Booking confirmed",
		Data:  bookConfirmData{User: user, Event: event, Reference: booking.Reference},
	}
	if err := h.renderer.Render(w, r, "book_confirm", data); err != nil {
		logAndInternalError(w, "failed to render booking confirmation", "error", err)
	}
}

// eventParamsFromForm builds event creation params from the submitted form.
// Returns false if a required field is missing or the date does not parse.
func eventParamsFromForm(r *http.Request) (store.CreateEventParams, bool) {
	title := r.FormValue("title")
	location := r.FormValue("location")
	dateStr := r.FormValue("date")
	if title == "" || location == "" || dateStr == "" {
		return store.CreateEventParams{}, false
	}

	var date time.Time
	var err error
	for _, layout := range eventDateLayouts {
		if date, err = time.Parse(layout, dateStr); err == nil {
			break
		}
	}
	if err != nil {
		return store.CreateEventParams{}, false
	}

	return store.CreateEventParams{
		Title:     title,
		Date:      date,
		Location:  location,
		CreatedAt: time.Now(),
	}, true
}
