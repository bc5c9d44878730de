// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/eventbook/internal/middleware"
	"github.com/olegiv/eventbook/internal/render"
	"github.com/olegiv/eventbook/internal/store"
)

// AdminHandler handles the admin event management routes.
// Access is gated by the RequireAdmin middleware on the admin subrouter.
type AdminHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer) *AdminHandler {
	return &AdminHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// adminData is the payload for the admin dashboard view.
type adminData struct {
	User   *store.User
	Events []store.Event
}

// Dashboard renders the admin view with every event, regardless of owner.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.ListEvents(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	data := render.TemplateData{
		Title: "Admin",
		Data:  adminData{User: middleware.GetUser(r), Events: events},
	}
	if err := h.renderer.Render(w, r, "admin", data); err != nil {
		logAndInternalError(w, "failed to render admin view", "error", err)
	}
}

// AddEvent inserts an owner-less event. Such events carry no user ID and are
// listed only in the admin view.
func (h *AdminHandler) AddEvent(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteAdmin) {
		return
	}

	params, ok := eventParamsFromForm(r)
	if !ok {
		flashError(w, r, h.renderer, RouteAdmin, "Title, date and location are required")
		return
	}

	event, err := h.queries.CreateEvent(r.Context(), params)
	if err != nil {
		logAndInternalError(w, "failed to create admin event", "error", err)
		return
	}

	slog.Info("admin event created", "event_id", event.ID, "admin_id", middleware.GetUserID(r))
	http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
}

// DeleteEvent deletes the event with the given ID.
// Deleting a nonexistent event is a no-op and still redirects normally.
func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.queries.DeleteEvent(r.Context(), id); err != nil {
		logAndInternalError(w, "failed to delete event", "error", err, "event_id", id)
		return
	}

	slog.Info("event deleted", "event_id", id, "admin_id", middleware.GetUserID(r))
	http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
}
