package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flowhabit/flow-api/internal/models"
	"github.com/flowhabit/flow-api/internal/repository"
)

type SettingsService struct {
	repo *repository.Repository
}

func NewSettingsService(repo *repository.Repository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the user's notification settings, or defaults if none saved.
func (s *SettingsService) Get(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	return s.repo.GetNotificationSettings(ctx, userID)
}

// Update saves validated reminder preferences.
func (s *SettingsService) Update(ctx context.Context, userID uuid.UUID, in models.NotificationSettings) (*models.NotificationSettings, error) {
	settings := &models.NotificationSettings{
		UserID:           userID,
		RemindersEnabled: in.RemindersEnabled,
		ReminderHour:     in.ReminderHour,
		ReminderMinute:   in.ReminderMinute,
		StreakAlerts:     in.StreakAlerts,
		WeeklySummary:    in.WeeklySummary,
		UpdatedAt:        time.Now().UTC(),
	}

	if err := s.repo.UpsertNotificationSettings(ctx, settings); err != nil {
		return nil, err
	}

	return settings, nil
}
