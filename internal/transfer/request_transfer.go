package transfer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/contentflow/internal/models"
)

type CustomClaims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	ClientID string `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

// PostData is the post payload accepted by the publish endpoint.
type PostData struct {
	ID            string    `json:"id"`
	Caption       string    `json:"caption"`
	ScheduledDate time.Time `json:"scheduled_date"`
	MediaURLs     []string  `json:"media_urls"`
	PostType      string    `json:"post_type"`
	Platforms     []string  `json:"platforms"`
}

type PublishRequest struct {
	ClientID string    `json:"clientId"`
	PostData *PostData `json:"postData"`
}

type PublishResponse struct {
	Success        bool   `json:"success"`
	MediaID        string `json:"mediaId"`
	FacebookPostID string `json:"facebookPostId,omitempty"`
	Deferred       bool   `json:"deferred"`
	Warning        string `json:"warning,omitempty"`
}

type RefreshTokensResponse struct {
	Message    string                  `json:"message"`
	Successful []string                `json:"successful"`
	Failed     []models.RefreshFailure `json:"failed"`
}

type PublishOverdueResponse struct {
	Message string               `json:"message"`
	Results []models.PostOutcome `json:"results"`
}
