package models

import "time"

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
)

func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublished:
		return true
	}
	return false
}

// Post is owned exclusively by UserID. PublishedAt is set iff Status is published.
type Post struct {
	ID                string     `db:"id" json:"id"`
	UserID            string     `db:"user_id" json:"user_id"`
	Content           string     `db:"content" json:"content"`
	WrittenTone       *string    `db:"written_tone" json:"written_tone"`
	AssociatedAccount *string    `db:"associated_account" json:"associated_account"`
	Status            PostStatus `db:"status" json:"status"`
	PublishedAt       *time.Time `db:"published_at" json:"published_at"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// PostPatch carries partial edits. A nil field is left unchanged; an empty
// tone or account clears the column.
type PostPatch struct {
	Content           *string
	WrittenTone       *string
	AssociatedAccount *string
}
