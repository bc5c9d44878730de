// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Event represents a bookable event. UserID is NULL for events created
// through the admin panel; those are listed only in the admin view.
type Event struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Date      time.Time     `json:"date"`
	Location  string        `json:"location"`
	UserID    sql.NullInt64 `json:"user_id"`
	CreatedAt time.Time     `json:"created_at"`
}

// Booking links a user to an event they reserved.
type Booking struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	EventID   int64     `json:"event_id"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

// Audit log levels.
const (
	AuditLevelInfo    = "info"
	AuditLevelWarning = "warning"
	AuditLevelError   = "error"
)

// AuditEntry represents one audit log record.
type AuditEntry struct {
	ID        int64
	Level     string
	Message   string
	UserID    sql.NullInt64
	Metadata  string // JSON string
	CreatedAt time.Time
}
