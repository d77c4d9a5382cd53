package models

import "time"

type ScheduledPost struct {
	ID           string    `db:"id" json:"id"`
	PostID       string    `db:"post_id" json:"post_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	ScheduleTime time.Time `db:"schedule_time" json:"schedule_time"`
	IsPublished  bool      `db:"is_published" json:"is_published"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DuePost is a due, unpublished schedule joined with its post content.
type DuePost struct {
	ScheduleID   string    `db:"id" json:"id"`
	PostID       string    `db:"post_id" json:"post_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	ScheduleTime time.Time `db:"schedule_time" json:"schedule_time"`
	Content      string    `db:"content" json:"content"`
}

// ScheduledPostView is a user's schedule joined with the post it references.
type ScheduledPostView struct {
	ID           string     `db:"id" json:"id"`
	PostID       string     `db:"post_id" json:"post_id"`
	ScheduleTime time.Time  `db:"schedule_time" json:"schedule_time"`
	IsPublished  bool       `db:"is_published" json:"is_published"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	Content      string     `db:"content" json:"content"`
	Status       PostStatus `db:"status" json:"status"`
	PublishedAt  *time.Time `db:"published_at" json:"published_at"`
}
