package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/postcraft/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository_GetByUserID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSettingsRepository(db)

	cols := []string{"id", "user_id", "preferred_posting_time", "content_tone", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM user_preferences WHERE user_id = \$1`).WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("pref-1", "user-1", "2pm", "casual", fixedNow, fixedNow))
	mock.ExpectQuery(`FROM user_preferences WHERE user_id = \$1`).WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows(cols))

	prefs, ok, err := repo.GetByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2pm", prefs.PreferredPostingTime)

	prefs, ok, err = repo.GetByUserID(context.Background(), "user-2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, prefs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository_Upsert(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSettingsRepository(db)

	mock.ExpectQuery(`INSERT INTO user_preferences (.+) ON CONFLICT \(user_id\) DO UPDATE`).
		WithArgs(sqlmock.AnyArg(), "user-1", "10am", "witty", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("pref-1", fixedNow, fixedNow))

	prefs := &models.UserPreferences{UserID: "user-1", PreferredPostingTime: "10am", ContentTone: "witty"}
	require.NoError(t, repo.Upsert(context.Background(), prefs))
	assert.Equal(t, "pref-1", prefs.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
