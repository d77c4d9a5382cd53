package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/postcraft/internal/models"
	"github.com/maheshrc27/postcraft/internal/repository"
	"github.com/maheshrc27/postcraft/internal/timezone"
)

type SettingsService interface {
	GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error)
	UpdatePreferences(ctx context.Context, userID, postingTime, contentTone string) (*models.UserPreferences, error)
	PreferredPostingTime(ctx context.Context, userID string) (string, error)
}

type settingsService struct {
	sr repository.SettingsRepository
}

func NewSettingsService(sr repository.SettingsRepository) SettingsService {
	return &settingsService{
		sr: sr,
	}
}

// GetPreferences returns the stored preferences, or the defaults when the
// user has never saved any.
func (s *settingsService) GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	prefs, isExist, err := s.sr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !isExist {
		return &models.UserPreferences{
			UserID:               userID,
			PreferredPostingTime: models.DefaultPostingTime,
			ContentTone:          models.DefaultContentTone,
		}, nil
	}

	if prefs.PreferredPostingTime == "" {
		prefs.PreferredPostingTime = models.DefaultPostingTime
	}
	if prefs.ContentTone == "" {
		prefs.ContentTone = models.DefaultContentTone
	}

	return prefs, nil
}

func (s *settingsService) UpdatePreferences(ctx context.Context, userID, postingTime, contentTone string) (*models.UserPreferences, error) {
	postingTime = strings.ToLower(strings.TrimSpace(postingTime))
	contentTone = strings.TrimSpace(contentTone)

	if postingTime == "" {
		postingTime = models.DefaultPostingTime
	}
	if !timezone.IsPostingTime(postingTime) {
		err := models.NewValidationError(fmt.Sprintf("posting time must be one of %s", strings.Join(timezone.PostingTimeLabels(), ", ")))
		slog.Info(err.Error())
		return nil, err
	}
	if contentTone == "" {
		contentTone = models.DefaultContentTone
	}

	prefs := &models.UserPreferences{
		UserID:               userID,
		PreferredPostingTime: postingTime,
		ContentTone:          contentTone,
	}
	if err := s.sr.Upsert(ctx, prefs); err != nil {
		return nil, err
	}

	return prefs, nil
}

func (s *settingsService) PreferredPostingTime(ctx context.Context, userID string) (string, error) {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return "", err
	}
	return prefs.PreferredPostingTime, nil
}
