package repository

import (
	"context"
	"database/sql"

	"github.com/maheshrc27/postcraft/internal/models"
)

type PublishReconciliationRepository interface {
	Create(ctx context.Context, rec *models.PublishReconciliation) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]*models.PublishReconciliation, error)
}

type publishReconciliationRepository struct {
	db *sql.DB
}

func NewPublishReconciliationRepository(db *sql.DB) PublishReconciliationRepository {
	return &publishReconciliationRepository{db: db}
}

func (r *publishReconciliationRepository) Create(ctx context.Context, rec *models.PublishReconciliation) (int64, error) {
	query := `
		INSERT INTO publish_reconciliations (schedule_id, post_id, user_id, error_message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, rec.ScheduleID, rec.PostID, rec.UserID, rec.ErrorMessage).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return 0, persistenceError("publish_reconciliations.create", err)
	}

	return rec.ID, nil
}

func (r *publishReconciliationRepository) ListRecent(ctx context.Context, limit int) ([]*models.PublishReconciliation, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, schedule_id, post_id, user_id, error_message, created_at
		FROM publish_reconciliations
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, persistenceError("publish_reconciliations.list_recent", err)
	}
	defer rows.Close()

	recs := []*models.PublishReconciliation{}
	for rows.Next() {
		var rec models.PublishReconciliation
		if err := rows.Scan(&rec.ID, &rec.ScheduleID, &rec.PostID, &rec.UserID, &rec.ErrorMessage, &rec.CreatedAt); err != nil {
			return nil, persistenceError("publish_reconciliations.list_recent", err)
		}
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("publish_reconciliations.list_recent", err)
	}

	return recs, nil
}
