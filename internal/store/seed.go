// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/eventbook/internal/auth"
)

// Default admin credentials. Signup always assigns the "user" role, so the
// seeded account is the only way an admin can exist on a fresh database.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "changeme"
)

// Seed creates the default admin user if it does not exist yet.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	// Check if admin user already exists
	_, err := queries.GetUserByUsername(ctx, DefaultAdminUsername)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	// Hash the default password
	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	// Create admin user
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     DefaultAdminUsername,
		PasswordHash: passwordHash,
		Role:         RoleAdmin,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"username", user.Username,
		"password", DefaultAdminPassword,
	)

	return nil
}

// SeedDemo creates a few sample events for local development.
// Runs only when enabled and only on an empty events table.
func SeedDemo(ctx context.Context, db *sql.DB, enabled bool) error {
	if !enabled {
		return nil
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return fmt.Errorf("counting events: %w", err)
	}
	if count > 0 {
		slog.Info("events already exist, skipping demo seed")
		return nil
	}

	queries := New(db)
	now := time.Now()
	samples := []CreateEventParams{
		{Title: "Town Hall Meeting", Date: now.AddDate(0, 0, 7), Location: "Main Square", CreatedAt: now},
		{Title: "Open Air Concert", Date: now.AddDate(0, 0, 14), Location: "City Park", CreatedAt: now},
		{Title: "Charity Run", Date: now.AddDate(0, 1, 0), Location: "Riverside", CreatedAt: now},
	}

	for _, params := range samples {
		if _, err := queries.CreateEvent(ctx, params); err != nil {
			return fmt.Errorf("creating demo event %q: %w", params.Title, err)
		}
	}

	slog.Info("created demo events", "count", len(samples))
	return nil
}
