package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newTestPostRepository(db *sql.DB) *postRepository {
	return &postRepository{
		db:    db,
		now:   func() time.Time { return fixedNow },
		newID: func() (string, error) { return "post-new", nil },
	}
}

func newTestScheduledPostRepository(db *sql.DB) *scheduledPostRepository {
	return &scheduledPostRepository{
		db:    db,
		pr:    newTestPostRepository(db),
		now:   func() time.Time { return fixedNow },
		newID: func() (string, error) { return "sched-new", nil },
	}
}

var postRowColumns = []string{"id", "user_id", "content", "written_tone", "associated_account", "status", "published_at", "created_at", "updated_at"}

var scheduledPostRowColumns = []string{"id", "post_id", "user_id", "schedule_time", "is_published", "created_at", "updated_at"}
