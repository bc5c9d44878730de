// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/eventbook/internal/auth"
	"github.com/olegiv/eventbook/internal/middleware"
	"github.com/olegiv/eventbook/internal/render"
	"github.com/olegiv/eventbook/internal/store"
)

// AuthHandler handles signup, login and logout routes.
type AuthHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *AuthHandler {
	return &AuthHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

// SignupForm renders the signup page.
func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "signup", render.TemplateData{Title: "Sign up"}); err != nil {
		logAndInternalError(w, "failed to render signup form", "error", err)
	}
}

// Signup handles the signup form submission. The username UNIQUE constraint
// closes the check-then-insert race; a conflict comes back as a typed error.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteSignup) {
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		flashError(w, r, h.renderer, RouteSignup, "Username and password are required")
		return
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         store.RoleUser,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			flashError(w, r, h.renderer, RouteSignup, "Username already taken")
			return
		}
		logAndInternalError(w, "failed to create user", "error", err, "username", username)
		return
	}

	slog.Info("user signed up", "user_id", user.ID, "username", user.Username)
	flashSuccess(w, r, h.renderer, RouteLogin, "Account created, please log in")
}

// LoginForm renders the login page.
// Already-authenticated users are sent back to the homepage.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID); userID > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "login", render.TemplateData{Title: "Log in"}); err != nil {
		logAndInternalError(w, "failed to render login form", "error", err)
	}
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteLogin) {
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		flashError(w, r, h.renderer, RouteLogin, "Username and password are required")
		return
	}

	user, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("login attempt for non-existent user", "username", username)
			flashError(w, r, h.renderer, RouteLogin, "Invalid credentials")
			return
		}
		logAndInternalError(w, "database error during login", "error", err)
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		logAndInternalError(w, "password check error", "error", err, "user_id", user.ID)
		return
	}
	if !valid {
		slog.Warn("login failed: invalid password", "username", username, "user_id", user.ID)
		flashError(w, r, h.renderer, RouteLogin, "Invalid credentials")
		return
	}

	// Transparent upgrade of hashes created with an older cost factor
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPasswordHash(r.Context(), user.ID, newHash); err != nil {
				slog.Error("failed to upgrade password hash", "error", err, "user_id", user.ID)
			}
		}
	}

	// Renew the session token on privilege change to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "failed to renew session token", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
}

// Logout destroys the session and redirects to the homepage.
// Destroy completes before the redirect so a following request is anonymous.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		logAndInternalError(w, "failed to destroy session", "error", err)
		return
	}

	http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
}
