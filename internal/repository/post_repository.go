package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/postcraft/internal/models"
)

const postColumns = `id, user_id, content, written_tone, associated_account, status, published_at, created_at, updated_at`

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) error
	GetByID(ctx context.Context, id, ownerID string) (*models.Post, error)
	Update(ctx context.Context, id, ownerID string, patch models.PostPatch) (*models.Post, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id string, status models.PostStatus) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Post, error)
	Remove(ctx context.Context, id, ownerID string) error
}

type postRepository struct {
	db    *sql.DB
	now   func() time.Time
	newID func() (string, error)
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db, now: time.Now, newID: newNanoID}
}

func scanPost(s rowScanner) (*models.Post, error) {
	var post models.Post
	err := s.Scan(&post.ID, &post.UserID, &post.Content, &post.WrittenTone, &post.AssociatedAccount,
		&post.Status, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Create inserts post as a draft. ID and timestamps are filled in on post.
func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	if post.ID == "" {
		id, err := r.newID()
		if err != nil {
			return persistenceError("posts.create", err)
		}
		post.ID = id
	}

	now := r.now().UTC()
	post.Status = models.PostStatusDraft
	post.PublishedAt = nil
	post.CreatedAt = now
	post.UpdatedAt = now

	query := `
		INSERT INTO posts (id, user_id, content, written_tone, associated_account, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := pick(r.db, tx).ExecContext(ctx, query,
		post.ID, post.UserID, post.Content, optionalString(post.WrittenTone), optionalString(post.AssociatedAccount),
		post.Status, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return persistenceError("posts.create", err)
	}

	return nil
}

// GetByID returns the post only when it belongs to ownerID.
func (r *postRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND user_id = $2`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("post", id)
		}
		return nil, persistenceError("posts.get_by_id", err)
	}

	return post, nil
}

func (r *postRepository) Update(ctx context.Context, id, ownerID string, patch models.PostPatch) (*models.Post, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Content != nil {
		set("content", *patch.Content)
	}
	if patch.WrittenTone != nil {
		set("written_tone", nullIfEmpty(*patch.WrittenTone))
	}
	if patch.AssociatedAccount != nil {
		set("associated_account", nullIfEmpty(*patch.AssociatedAccount))
	}
	set("updated_at", r.now().UTC())

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`UPDATE posts SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), postColumns)

	post, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("post", id)
		}
		return nil, persistenceError("posts.update", err)
	}

	return post, nil
}

// SetStatus moves a post to status. Moving to published stamps published_at;
// any other status clears it. A published post never leaves published: setting
// published again is a no-op, anything else is an InvalidState error.
func (r *postRepository) SetStatus(ctx context.Context, tx *sql.Tx, id string, status models.PostStatus) error {
	if !status.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown post status %q", status))
	}

	c := pick(r.db, tx)
	query := `
		UPDATE posts
		SET status = $1,
			published_at = CASE WHEN $1::text = 'published' THEN $2::timestamptz ELSE NULL END,
			updated_at = $2
		WHERE id = $3 AND status <> 'published'
	`
	res, err := c.ExecContext(ctx, query, status, r.now().UTC(), id)
	if err != nil {
		return persistenceError("posts.set_status", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return persistenceError("posts.set_status", err)
	}
	if affected > 0 {
		return nil
	}

	var current models.PostStatus
	err = c.QueryRowContext(ctx, `SELECT status FROM posts WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewNotFoundError("post", id)
		}
		return persistenceError("posts.set_status", err)
	}

	if current == models.PostStatusPublished && status != models.PostStatusPublished {
		err := models.NewInvalidStateError(fmt.Sprintf("post %s is already published", id))
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, persistenceError("posts.list_by_owner", err)
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, persistenceError("posts.list_by_owner", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("posts.list_by_owner", err)
	}

	return posts, nil
}

// Remove deletes an owned post. Its schedules go with it through the foreign key.
func (r *postRepository) Remove(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return persistenceError("posts.remove", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return persistenceError("posts.remove", err)
	}
	if affected == 0 {
		return models.NewNotFoundError("post", id)
	}

	return nil
}
