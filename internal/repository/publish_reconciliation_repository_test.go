package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/postcraft/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReconciliationRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPublishReconciliationRepository(db)

	mock.ExpectQuery(`INSERT INTO publish_reconciliations`).
		WithArgs("sched-1", "post-1", "user-1", "set status: timeout").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), fixedNow))

	rec := &models.PublishReconciliation{ScheduleID: "sched-1", PostID: "post-1", UserID: "user-1", ErrorMessage: "set status: timeout"}
	id, err := repo.Create(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, fixedNow, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishReconciliationRepository_ListRecent(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPublishReconciliationRepository(db)

	mock.ExpectQuery(`FROM publish_reconciliations\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$1`).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "schedule_id", "post_id", "user_id", "error_message", "created_at"}).
			AddRow(int64(2), "sched-2", "post-2", "user-1", "boom", fixedNow))
	mock.ExpectQuery(`FROM publish_reconciliations`).WithArgs(5).WillReturnError(errors.New("gone"))

	recs, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "sched-2", recs[0].ScheduleID)

	_, err = repo.ListRecent(context.Background(), 5)
	assert.True(t, models.HasCode(err, models.CodePersistenceFailure))
	assert.NoError(t, mock.ExpectationsWereMet())
}
