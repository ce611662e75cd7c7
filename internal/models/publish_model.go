package models

import "time"

type PublishResult struct {
	MediaID        string     `json:"media_id"`
	FacebookPostID string     `json:"facebook_post_id,omitempty"`
	FacebookError  string     `json:"facebook_error,omitempty"`
	Deferred       bool       `json:"deferred"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
}

// PublishAttempt is one row of the publish audit log.
type PublishAttempt struct {
	ID           int64     `db:"id" json:"id"`
	PostID       string    `db:"post_id" json:"post_id"`
	ClientID     string    `db:"client_id" json:"client_id"`
	Platform     string    `db:"platform" json:"platform"`
	ExternalID   string    `db:"external_id" json:"external_id,omitempty"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

type PostOutcome struct {
	PostID  string `json:"post_id"`
	Status  string `json:"status"`
	MediaID string `json:"media_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type RefreshFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type RefreshSummary struct {
	Successful []string         `json:"successful"`
	Failed     []RefreshFailure `json:"failed"`
}
