package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Nurfog/bbbAPIGL/internal/academic"
	"github.com/Nurfog/bbbAPIGL/internal/calendar"
	"github.com/Nurfog/bbbAPIGL/internal/config"
	"github.com/Nurfog/bbbAPIGL/internal/mail"
	"github.com/Nurfog/bbbAPIGL/internal/service"
)

var syncCmd = &cobra.Command{
	Use:   "sync [courseID]",
	Short: "Run the calendar reconciliation pass once (one course, or all)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	ctx := context.Background()
	store, err := academic.Open(cfg.AcademicDSN())
	if err != nil {
		return fmt.Errorf("academic store: %w", err)
	}
	defer store.Close()

	cal, err := calendar.NewGoogleService(ctx, cfg.Google.CredentialsFile, cfg.Google.Impersonate, cfg.Google.CalendarID)
	if err != nil {
		return fmt.Errorf("calendar: %w", err)
	}
	mailer, err := mail.NewGmailSender(ctx, cfg.Google.CredentialsFile, cfg.Google.Impersonate)
	if err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	svc := service.NewInvitationService(store, cal, mailer, logger)

	var courseIDs []int
	if len(args) == 1 {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("course id must be an integer: %q", args[0])
		}
		courseIDs = []int{id}
	} else {
		if courseIDs, err = store.CoursesWithCalendarEvents(ctx); err != nil {
			return err
		}
	}

	for _, id := range courseIDs {
		cancelled, err := svc.SyncCalendar(ctx, id)
		if err != nil {
			logger.Warn("sync failed for course", zap.Int("course_id", id), zap.Error(err))
			continue
		}
		fmt.Printf("course %d: cancelled %d stale occurrences\n", id, cancelled)
	}
	return nil
}
