// Package logging provides a custom slog handler that mirrors WARN and ERROR
// level logs into the database-backed audit log for later review.
package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/eventbook/internal/store"
)

// AuditLogHandler is a slog.Handler that wraps another handler and also writes
// WARN and ERROR level logs to the audit_log table.
type AuditLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level // Minimum level to forward to the audit log (default: WARN)
}

// NewAuditLogHandler creates a new AuditLogHandler that wraps the given handler.
// Logs at WARN level and above are written to both the wrapped handler and the audit log.
func NewAuditLogHandler(inner slog.Handler, db *sql.DB) *AuditLogHandler {
	return &AuditLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// NewAuditLogHandlerWithLevel creates a new AuditLogHandler with a custom minimum level.
func NewAuditLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *AuditLogHandler {
	return &AuditLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *AuditLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *AuditLogHandler) Handle(ctx context.Context, r slog.Record) error {
	// Always forward to the inner handler first
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeToAuditLog(r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *AuditLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AuditLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *AuditLogHandler) WithGroup(name string) slog.Handler {
	return &AuditLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
	}
}

// writeToAuditLog writes a log record to the audit_log table.
// Uses a background context so the entry is persisted even if the
// originating request context is already cancelled.
func (h *AuditLogHandler) writeToAuditLog(r slog.Record) {
	_, err := h.queries.CreateAuditEntry(context.Background(), store.CreateAuditEntryParams{
		Level:     slogLevelToAuditLevel(r.Level),
		Message:   r.Message,
		UserID:    extractUserID(r),
		Metadata:  extractMetadata(r),
		CreatedAt: r.Time,
	})
	if err != nil {
		// The insert must not fail the original log call, but the failure
		// has to be visible somewhere. Report it through the inner handler.
		rec := slog.NewRecord(time.Now(), slog.LevelError, "failed to write audit log entry", 0)
		rec.AddAttrs(slog.Any("error", err), slog.String("audit_message", r.Message))
		_ = h.inner.Handle(context.Background(), rec)
	}
}

// slogLevelToAuditLevel converts a slog.Level to an audit log level.
func slogLevelToAuditLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return store.AuditLevelError
	case level >= slog.LevelWarn:
		return store.AuditLevelWarning
	default:
		return store.AuditLevelInfo
	}
}

// extractUserID pulls a user_id attribute out of the record, if present.
func extractUserID(r slog.Record) sql.NullInt64 {
	var userID sql.NullInt64
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "user_id" {
			if id := a.Value.Int64(); id > 0 {
				userID = sql.NullInt64{Int64: id, Valid: true}
			}
			return false
		}
		return true
	})
	return userID
}

// extractMetadata collects all log attributes into a JSON string.
func extractMetadata(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return "{}"
	}

	var sb strings.Builder
	sb.WriteString("{")
	first := true

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "user_id" {
			return true // Stored in its own column
		}
		if !first {
			sb.WriteString(",")
		}
		first = false
		sb.WriteString(`"`)
		sb.WriteString(escapeJSON(a.Key))
		sb.WriteString(`":"`)
		sb.WriteString(escapeJSON(a.Value.String()))
		sb.WriteString(`"`)
		return true
	})

	sb.WriteString("}")
	return sb.String()
}

// escapeJSON escapes special characters in a string for JSON.
func escapeJSON(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
