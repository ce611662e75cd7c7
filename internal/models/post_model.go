package models

import "time"

type Post struct {
	ID             string    `db:"id" json:"id"`
	ClientID       string    `db:"client_id" json:"client_id"`
	Caption        string    `db:"caption" json:"caption"`
	ScheduledDate  time.Time `db:"scheduled_date" json:"scheduled_date"`
	MediaURLs      []string  `db:"media_urls" json:"media_urls"`
	PostType       string    `db:"post_type" json:"post_type"`
	Platforms      []string  `db:"platforms" json:"platforms"`
	Status         string    `db:"status" json:"status"`
	ExternalPostID string    `db:"external_post_id" json:"external_post_id,omitempty"`
	FacebookPostID string    `db:"facebook_post_id" json:"facebook_post_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft        = "draft"
	PostStatusPending      = "pending"
	PostStatusApproved     = "approved"
	PostStatusLateApproved = "late_approved"
	PostStatusRejected     = "rejected"
	PostStatusRefactor     = "refactor"
	PostStatusPublished    = "published"
)

const (
	PostTypePhoto    = "photo"
	PostTypeCarousel = "carousel"
	PostTypeReel     = "reel"
	PostTypeStory    = "story"
)

const (
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
)

// PublishableStatuses are the statuses a post may be published from.
var PublishableStatuses = []string{PostStatusApproved, PostStatusLateApproved}

// Targets reports which platforms the post goes to. No platforms means Instagram.
func (p *Post) Targets(platform string) bool {
	if len(p.Platforms) == 0 {
		return platform == PlatformInstagram
	}
	for _, pl := range p.Platforms {
		if pl == platform {
			return true
		}
	}
	return false
}
