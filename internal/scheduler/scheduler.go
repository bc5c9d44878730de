// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/eventbook/internal/store"
)

// Scheduler runs periodic maintenance jobs, currently audit log retention.
type Scheduler struct {
	db            *sql.DB
	cron          *cron.Cron
	logger        *slog.Logger
	retentionDays int
}

// New creates a new scheduler instance.
func New(db *sql.DB, logger *slog.Logger, retentionDays int) *Scheduler {
	return &Scheduler{
		db:            db,
		cron:          cron.New(),
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Start begins the scheduler with a nightly audit log retention job.
func (s *Scheduler) Start() error {
	// Run every night at 03:00
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		if err := s.PruneAuditLog(context.Background()); err != nil {
			s.logger.Error("failed to prune audit log", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// PruneAuditLog deletes audit log entries older than the configured retention.
func (s *Scheduler) PruneAuditLog(ctx context.Context) error {
	queries := store.New(s.db)

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := queries.DeleteAuditEntriesBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		s.logger.Info("pruned audit log",
			"deleted", deleted,
			"retention_days", s.retentionDays,
		)
	}

	return nil
}
