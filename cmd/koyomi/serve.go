package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harunnryd/koyomi/internal/config"
	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/maintenance"
	"github.com/harunnryd/koyomi/internal/reminder"
	"github.com/harunnryd/koyomi/internal/server"
	"github.com/harunnryd/koyomi/internal/session"
	"github.com/harunnryd/koyomi/internal/state"
	"github.com/harunnryd/koyomi/internal/tasklist"
	"github.com/harunnryd/koyomi/internal/timeutil"
	"github.com/harunnryd/koyomi/internal/tool"
	"github.com/harunnryd/koyomi/internal/visibility"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the backend HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	googleService, err := google.NewService(cfg.Google)
	if err != nil {
		return fmt.Errorf("init google client: %w", err)
	}
	loc := googleService.Location()

	stateTTL, _ := config.DurationOrDefault(cfg.Session.OAuthStateTTL, config.DefaultSessionOAuthStateTTL)
	sessions := session.NewStore(stateTTL)

	calendarListTTL, _ := config.DurationOrDefault(cfg.Cache.CalendarListTTL, config.DefaultCacheCalendarListTTL)
	selectionTTL, _ := config.DurationOrDefault(cfg.Cache.VisibleSelectionTTL, config.DefaultCacheVisibleSelectionTTL)
	taskListTTL, _ := config.DurationOrDefault(cfg.Cache.TaskListTTL, config.DefaultCacheTaskListTTL)

	visibilityService := visibility.NewService(googleService, calendarListTTL, selectionTTL)
	taskListCache := tasklist.NewCache(googleService, taskListTTL)

	lockTimeout, _ := config.DurationOrDefault(cfg.Reminders.LockTimeout, config.DefaultRemindersLockTimeout)
	lockRetry, _ := config.DurationOrDefault(cfg.Reminders.LockRetry, config.DefaultRemindersLockRetry)
	reminderStore, err := reminder.NewStore(cfg.Reminders.StorePath, reminder.LockConfig{
		LockTimeout:  lockTimeout,
		LockRetry:    lockRetry,
		LockMaxRetry: cfg.Reminders.LockMaxRetry,
	})
	if err != nil {
		return fmt.Errorf("open reminder store: %w", err)
	}
	defer reminderStore.Close()

	reminderService := reminder.NewService(googleService, taskListCache, reminderStore, loc)
	stateService := state.NewService(taskListCache, loc)

	registry := tool.NewRegistry()
	tool.RegisterBuiltins(registry, &tool.Deps{
		Tasks:      googleService,
		Calendars:  googleService,
		Visibility: visibilityService,
		Reminders:  reminderService,
		Window: timeutil.WindowDefaults{
			StartTime: cfg.Google.DefaultEventStart,
			Duration:  time.Duration(cfg.Google.DefaultEventDuration) * time.Minute,
			Location:  loc,
		},
		Location: loc,
	})

	maintenanceRunner, err := maintenance.New(sessions, cfg.Maintenance.PruneSchedule)
	if err != nil {
		return fmt.Errorf("init maintenance jobs: %w", err)
	}

	srv := server.New(server.Deps{
		Config:     *cfg,
		Sessions:   sessions,
		Google:     googleService,
		Visibility: visibilityService,
		State:      stateService,
		Reminders:  reminderService,
		Runner:     tool.NewRunner(registry),
	})

	maintenanceRunner.Start()
	srv.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Shutting down", "reason", "context cancelled")
	}

	maintenanceRunner.Stop()

	shutdownTimeout, _ := config.DurationOrDefault(cfg.Server.ShutdownTimeout, config.DefaultServerShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
