package models

import "time"

// PublishReconciliation records a schedule that was marked published while
// its post status update failed. Rows are append-only.
type PublishReconciliation struct {
	ID           int64     `db:"id" json:"id"`
	ScheduleID   string    `db:"schedule_id" json:"schedule_id"`
	PostID       string    `db:"post_id" json:"post_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
