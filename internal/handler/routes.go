// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/eventbook/internal/middleware"
	"github.com/olegiv/eventbook/internal/render"
)

// Routes builds the application router: public routes, login-gated routes and
// the admin section behind the role guard. Session load/save wraps everything.
func Routes(db *sql.DB, sm *scs.SessionManager, renderer *render.Renderer) chi.Router {
	authHandler := NewAuthHandler(db, renderer, sm)
	eventHandler := NewEventHandler(db, renderer)
	adminHandler := NewAdminHandler(db, renderer)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sm, db))

		r.Get(RouteRoot, eventHandler.Home)
		r.Get(RouteSignup, authHandler.SignupForm)
		r.Post(RouteSignup, authHandler.Signup)
		r.Get(RouteLogin, authHandler.LoginForm)
		r.Post(RouteLogin, authHandler.Login)
		r.Get(RouteLogout, authHandler.Logout)
	})

	// Routes requiring a logged-in user
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sm))
		r.Use(middleware.LoadUser(sm, db))

		r.Get(RouteCreateEvent, eventHandler.CreateEventForm)
		r.Post(RouteCreateEvent, eventHandler.CreateEvent)
		r.Post(RouteBookID, eventHandler.Book)
	})

	// Admin section
	r.Route(RouteAdmin, func(r chi.Router) {
		r.Use(middleware.Auth(sm))
		r.Use(middleware.LoadUser(sm, db))
		r.Use(middleware.RequireAdmin())

		r.Get("/", adminHandler.Dashboard)
		r.Post(RouteAdminAdd, adminHandler.AddEvent)
		r.Post(RouteAdminDeleteID, adminHandler.DeleteEvent)
	})

	return r
}
