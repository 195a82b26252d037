package application

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// syncLoop runs the calendar reconciliation pass for every course with a
// recurring event, on the configured interval. It is the backstop against
// drift from reschedules and manual calendar edits; each pass is idempotent
// so overlap with API-triggered syncs is harmless.
func (a *API) syncLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SyncInterval)
	defer ticker.Stop()

	a.log.Info("reconciliation loop started", zap.Duration("interval", a.cfg.SyncInterval))
	for {
		select {
		case <-ctx.Done():
			a.log.Info("reconciliation loop stopped")
			return
		case <-ticker.C:
			a.syncAll(ctx)
		}
	}
}

func (a *API) syncAll(ctx context.Context) {
	courseIDs, err := a.academic.CoursesWithCalendarEvents(ctx)
	if err != nil {
		a.log.Error("reconciliation: course list failed", zap.Error(err))
		return
	}
	for _, id := range courseIDs {
		cancelled, err := a.invitations.SyncCalendar(ctx, id)
		if err != nil {
			a.log.Warn("reconciliation failed for course",
				zap.Int("course_id", id), zap.Error(err))
			continue
		}
		if cancelled > 0 {
			a.log.Info("reconciliation cancelled stale occurrences",
				zap.Int("course_id", id), zap.Int("cancelled", cancelled))
		}
	}
}
