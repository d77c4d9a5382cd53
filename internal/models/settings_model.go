package models

import "time"

const (
	DefaultPostingTime = "9am"
	DefaultContentTone = "professional"
)

type UserPreferences struct {
	ID                   string    `db:"id" json:"id"`
	UserID               string    `db:"user_id" json:"user_id"`
	PreferredPostingTime string    `db:"preferred_posting_time" json:"preferred_posting_time"`
	ContentTone          string    `db:"content_tone" json:"content_tone"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}
