package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postcraft/internal/models"
)

// ErrCommitOutcomeUnknown marks a failed commit. The writes may or may not
// have been applied.
var ErrCommitOutcomeUnknown = errors.New("commit outcome unknown")

const scheduledPostColumns = `id, post_id, user_id, schedule_time, is_published, created_at, updated_at`

type ScheduledPostRepository interface {
	FindActiveByPost(ctx context.Context, postID string) (*models.ScheduledPost, error)
	Upsert(ctx context.Context, postID, ownerID string, instant time.Time) (*models.ScheduledPost, bool, error)
	MarkPublished(ctx context.Context, tx *sql.Tx, id string) error
	PublishPost(ctx context.Context, postID, ownerID string) error
	PublishDue(ctx context.Context, entry *models.DuePost, asOf time.Time) (bool, error)
	ListDueUnpublished(ctx context.Context, asOf time.Time) ([]*models.DuePost, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.ScheduledPostView, error)
}

type scheduledPostRepository struct {
	db    *sql.DB
	pr    PostRepository
	now   func() time.Time
	newID func() (string, error)
}

func NewScheduledPostRepository(db *sql.DB, pr PostRepository) ScheduledPostRepository {
	return &scheduledPostRepository{db: db, pr: pr, now: time.Now, newID: newNanoID}
}

func scanScheduledPost(s rowScanner) (*models.ScheduledPost, error) {
	var sp models.ScheduledPost
	err := s.Scan(&sp.ID, &sp.PostID, &sp.UserID, &sp.ScheduleTime, &sp.IsPublished, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// FindActiveByPost returns the unpublished schedule for postID, or nil when
// the post has none.
func (r *scheduledPostRepository) FindActiveByPost(ctx context.Context, postID string) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE post_id = $1 AND is_published = false`

	sp, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, postID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistenceError("scheduled_posts.find_active_by_post", err)
	}

	return sp, nil
}

// lockOwnedPost takes a row lock on the post so schedule and status writes
// for the same post are serialized.
func lockOwnedPost(ctx context.Context, tx *sql.Tx, postID, ownerID string) (models.PostStatus, error) {
	var status models.PostStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM posts WHERE id = $1 AND user_id = $2 FOR UPDATE`, postID, ownerID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", models.NewNotFoundError("post", postID)
		}
		return "", persistenceError("posts.lock", err)
	}
	return status, nil
}

// Upsert creates the post's active schedule or moves the existing one to
// instant, then marks the post scheduled, all in one transaction. The bool
// result is true when an active schedule already existed.
func (r *scheduledPostRepository) Upsert(ctx context.Context, postID, ownerID string, instant time.Time) (*models.ScheduledPost, bool, error) {
	newID, err := r.newID()
	if err != nil {
		return nil, false, persistenceError("scheduled_posts.upsert", err)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, false, persistenceError("scheduled_posts.upsert", err)
	}
	defer tx.Rollback()

	status, err := lockOwnedPost(ctx, tx, postID, ownerID)
	if err != nil {
		return nil, false, err
	}
	if status == models.PostStatusPublished {
		err := models.NewInvalidStateError(fmt.Sprintf("post %s is already published", postID))
		slog.Info(err.Error())
		return nil, false, err
	}

	now := r.now().UTC()
	query := `
		INSERT INTO scheduled_posts (id, post_id, user_id, schedule_time, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, false, $5, $5)
		ON CONFLICT (post_id) WHERE is_published = false
		DO UPDATE SET schedule_time = EXCLUDED.schedule_time, updated_at = EXCLUDED.updated_at
		RETURNING ` + scheduledPostColumns

	sp, err := scanScheduledPost(tx.QueryRowContext(ctx, query, newID, postID, ownerID, instant.UTC(), now))
	if err != nil {
		return nil, false, persistenceError("scheduled_posts.upsert", err)
	}

	if err := r.pr.SetStatus(ctx, tx, postID, models.PostStatusScheduled); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, persistenceError("scheduled_posts.upsert", err)
	}

	return sp, sp.ID != newID, nil
}

// MarkPublished flags the schedule as published. Flagging an already
// published schedule is a no-op.
func (r *scheduledPostRepository) MarkPublished(ctx context.Context, tx *sql.Tx, id string) error {
	c := pick(r.db, tx)

	res, err := c.ExecContext(ctx, `
		UPDATE scheduled_posts
		SET is_published = true,
			updated_at = $1
		WHERE id = $2 AND is_published = false
	`, r.now().UTC(), id)
	if err != nil {
		return persistenceError("scheduled_posts.mark_published", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return persistenceError("scheduled_posts.mark_published", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	err = c.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM scheduled_posts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return persistenceError("scheduled_posts.mark_published", err)
	}
	if !exists {
		return models.NewNotFoundError("scheduled post", id)
	}

	return nil
}

// PublishPost publishes an owned post immediately: its active schedule, if
// any, is flagged published and the post moves to published in the same
// transaction.
func (r *scheduledPostRepository) PublishPost(ctx context.Context, postID, ownerID string) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return persistenceError("posts.publish", err)
	}
	defer tx.Rollback()

	if _, err := lockOwnedPost(ctx, tx, postID, ownerID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE scheduled_posts
		SET is_published = true,
			updated_at = $1
		WHERE post_id = $2 AND is_published = false
	`, r.now().UTC(), postID)
	if err != nil {
		return persistenceError("posts.publish", err)
	}

	if err := r.pr.SetStatus(ctx, tx, postID, models.PostStatusPublished); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return persistenceError("posts.publish", err)
	}

	return nil
}

// PublishDue publishes one due schedule and its post in a single transaction,
// under the same post lock Upsert takes. It returns false without writing
// when the schedule is no longer due: already published, moved past asOf by a
// reschedule, or deleted with its post.
func (r *scheduledPostRepository) PublishDue(ctx context.Context, entry *models.DuePost, asOf time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, persistenceError("scheduled_posts.publish_due", err)
	}
	defer tx.Rollback()

	if _, err := lockOwnedPost(ctx, tx, entry.PostID, entry.UserID); err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return false, nil
		}
		return false, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE scheduled_posts
		SET is_published = true,
			updated_at = $1
		WHERE id = $2 AND post_id = $3 AND is_published = false AND schedule_time <= $4
	`, r.now().UTC(), entry.ScheduleID, entry.PostID, asOf.UTC())
	if err != nil {
		return false, persistenceError("scheduled_posts.publish_due", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, persistenceError("scheduled_posts.publish_due", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := r.pr.SetStatus(ctx, tx, entry.PostID, models.PostStatusPublished); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, persistenceError("scheduled_posts.publish_due", fmt.Errorf("%w: %v", ErrCommitOutcomeUnknown, err))
	}

	return true, nil
}

func (r *scheduledPostRepository) ListDueUnpublished(ctx context.Context, asOf time.Time) ([]*models.DuePost, error) {
	query := `
		SELECT s.id, s.post_id, s.user_id, s.schedule_time, p.content
		FROM scheduled_posts s
		JOIN posts p ON p.id = s.post_id
		WHERE s.is_published = false AND s.schedule_time <= $1
		ORDER BY s.schedule_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, asOf.UTC())
	if err != nil {
		return nil, persistenceError("scheduled_posts.list_due_unpublished", err)
	}
	defer rows.Close()

	due := []*models.DuePost{}
	for rows.Next() {
		var d models.DuePost
		if err := rows.Scan(&d.ScheduleID, &d.PostID, &d.UserID, &d.ScheduleTime, &d.Content); err != nil {
			return nil, persistenceError("scheduled_posts.list_due_unpublished", err)
		}
		due = append(due, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("scheduled_posts.list_due_unpublished", err)
	}

	return due, nil
}

func (r *scheduledPostRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.ScheduledPostView, error) {
	query := `
		SELECT s.id, s.post_id, s.schedule_time, s.is_published, s.created_at, p.content, p.status, p.published_at
		FROM scheduled_posts s
		JOIN posts p ON p.id = s.post_id
		WHERE s.user_id = $1
		ORDER BY s.schedule_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, persistenceError("scheduled_posts.list_by_owner", err)
	}
	defer rows.Close()

	views := []*models.ScheduledPostView{}
	for rows.Next() {
		var v models.ScheduledPostView
		err := rows.Scan(&v.ID, &v.PostID, &v.ScheduleTime, &v.IsPublished, &v.CreatedAt, &v.Content, &v.Status, &v.PublishedAt)
		if err != nil {
			return nil, persistenceError("scheduled_posts.list_by_owner", err)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("scheduled_posts.list_by_owner", err)
	}

	return views, nil
}
