package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"top10weather/internal/config"
	"top10weather/internal/repository"
	"top10weather/internal/service"
	"top10weather/pkg/database"
	"top10weather/pkg/logger"
	"top10weather/pkg/mailer"
)

// One-shot job, run daily from cron. Emails every registered voter who
// has not voted on the current UTC day.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.BrevoAPIKey == "" {
		log.Fatal("BREVO_API_KEY environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// The activity summary is a materialized view, bring it up to date
	// before deciding who still needs a nudge.
	if err := db.RefreshActivitySummary(ctx); err != nil {
		log.WithError(err).Warn("Failed to refresh activity summary, using last refresh")
	}

	activityRepo := repository.NewActivityRepository(db)
	mail := mailer.NewBrevoClient(cfg.BrevoAPIURL, cfg.BrevoAPIKey, mailer.Sender{
		Name:  cfg.SenderName,
		Email: cfg.SenderEmail,
	}, log)

	reminder := service.NewReminderService(activityRepo, mail, log.Logger)

	sent, err := reminder.Run(ctx)
	if err != nil {
		log.WithError(err).Fatal("Reminder run failed")
	}

	log.WithField("sent", sent).Info("Reminder run complete")
}
