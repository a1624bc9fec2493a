package service

import (
	"context"
	"fmt"
	"time"

	"top10weather/internal/repository"
	"top10weather/pkg/mailer"

	"go.uber.org/zap"
)

const (
	reminderSubject = "Reminder: Please vote today!"
	reminderBody    = "<p>Don't forget to log in and vote today!</p>"
)

// ReminderService emails users who have not voted today. Each recipient is
// independent: a failed send is logged and the run continues, with no retry.
type ReminderService struct {
	activityRepo repository.ActivityStore
	mail         *mailer.BrevoClient
	logger       *zap.Logger
	now          func() time.Time
}

func NewReminderService(activityRepo repository.ActivityStore, mail *mailer.BrevoClient, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		activityRepo: activityRepo,
		mail:         mail,
		logger:       logger,
		now:          time.Now,
	}
}

// Run sends one reminder to every user without a vote today (UTC day, since
// the summary view has no per-user location). Returns how many reminders were
// delivered; an error only when the scan itself fails.
func (s *ReminderService) Run(ctx context.Context) (int, error) {
	today := s.now().UTC().Format("2006-01-02")

	emails, err := s.activityRepo.ListUsersWithoutVote(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to list users without votes: %w", err)
	}

	s.logger.Info("Reminder scan complete",
		zap.String("day", today),
		zap.Int("recipients", len(emails)))

	sent := 0
	for _, email := range emails {
		if err := s.mail.Send(ctx, email, reminderSubject, reminderBody); err != nil {
			s.logger.Error("Failed to send reminder",
				zap.String("recipient", email),
				zap.Error(err))
			continue
		}
		sent++
	}

	s.logger.Info("Reminder run finished",
		zap.String("day", today),
		zap.Int("sent", sent),
		zap.Int("failed", len(emails)-sent))

	return sent, nil
}
