package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/maheshrc27/postcraft/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type SettingsRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, bool, error)
	Upsert(ctx context.Context, prefs *models.UserPreferences) error
}

type settingsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db, now: time.Now}
}

func (r *settingsRepository) GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, bool, error) {
	query := `
		SELECT id, user_id, preferred_posting_time, content_tone, created_at, updated_at
		FROM user_preferences WHERE user_id = $1
	`

	var p models.UserPreferences
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.ID, &p.UserID, &p.PreferredPostingTime, &p.ContentTone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, persistenceError("user_preferences.get_by_user_id", err)
	}

	return &p, true, nil
}

// Upsert writes the user's preferences, creating the row on first save.
// prefs is refreshed from the stored row.
func (r *settingsRepository) Upsert(ctx context.Context, prefs *models.UserPreferences) error {
	id, err := gonanoid.New()
	if err != nil {
		return persistenceError("user_preferences.upsert", err)
	}

	query := `
		INSERT INTO user_preferences (id, user_id, preferred_posting_time, content_tone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET preferred_posting_time = EXCLUDED.preferred_posting_time,
			content_tone = EXCLUDED.content_tone,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, id, prefs.UserID, prefs.PreferredPostingTime, prefs.ContentTone, r.now().UTC()).
		Scan(&prefs.ID, &prefs.CreatedAt, &prefs.UpdatedAt)
	if err != nil {
		return persistenceError("user_preferences.upsert", err)
	}

	return nil
}
