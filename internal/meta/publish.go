package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/maheshrc27/contentflow/internal/transfer"
)

// Publish publishes a finished container. A non-nil scheduledAt asks the
// platform to publish at that time instead of now.
func (c *Client) Publish(ctx context.Context, accountID, token, creationID string, scheduledAt *time.Time) (string, error) {
	params := url.Values{}
	params.Set("creation_id", creationID)
	params.Set("access_token", token)
	setSchedule(params, scheduledAt, false)

	var result transfer.GraphIDResponse
	if err := c.post(ctx, accountID+"/media_publish", params, &result); err != nil {
		return "", err
	}
	return requireID(result.ID, "published media")
}

func (c *Client) PublishPagePhoto(ctx context.Context, pageID, token, photoURL, caption string, scheduledAt *time.Time) (string, error) {
	params := url.Values{}
	params.Set("url", photoURL)
	params.Set("access_token", token)
	if caption != "" {
		params.Set("message", caption)
	}
	setSchedule(params, scheduledAt, true)

	var result transfer.GraphIDResponse
	if err := c.post(ctx, pageID+"/photos", params, &result); err != nil {
		return "", err
	}
	if result.PostID != "" {
		return result.PostID, nil
	}
	return requireID(result.ID, "page photo")
}

// PublishPageCarousel uploads each photo unpublished, then creates one feed post
// that attaches all of them.
func (c *Client) PublishPageCarousel(ctx context.Context, pageID, token string, photoURLs []string, caption string, scheduledAt *time.Time) (string, error) {
	params := url.Values{}
	params.Set("access_token", token)
	if caption != "" {
		params.Set("message", caption)
	}

	for i, photoURL := range photoURLs {
		photo := url.Values{}
		photo.Set("url", photoURL)
		photo.Set("published", "false")
		photo.Set("access_token", token)
		if scheduledAt != nil {
			photo.Set("temporary", "true")
		}

		var uploaded transfer.GraphIDResponse
		if err := c.post(ctx, pageID+"/photos", photo, &uploaded); err != nil {
			return "", fmt.Errorf("page photo %d: %w", i+1, err)
		}
		if _, err := requireID(uploaded.ID, "page photo"); err != nil {
			return "", err
		}

		attached, err := json.Marshal(map[string]string{"media_fbid": uploaded.ID})
		if err != nil {
			return "", fmt.Errorf("error marshalling payload: %w", err)
		}
		params.Set(fmt.Sprintf("attached_media[%d]", i), string(attached))
	}
	setSchedule(params, scheduledAt, true)

	var result transfer.GraphIDResponse
	if err := c.post(ctx, pageID+"/feed", params, &result); err != nil {
		return "", err
	}
	return requireID(result.ID, "page post")
}

func (c *Client) PublishPageVideo(ctx context.Context, pageID, token, videoURL, caption string, scheduledAt *time.Time) (string, error) {
	params := url.Values{}
	params.Set("file_url", videoURL)
	params.Set("access_token", token)
	if caption != "" {
		params.Set("description", caption)
	}
	setSchedule(params, scheduledAt, true)

	var result transfer.GraphIDResponse
	if err := c.post(ctx, pageID+"/videos", params, &result); err != nil {
		return "", err
	}
	return requireID(result.ID, "page video")
}

// setSchedule attaches scheduled_publish_time in epoch seconds. Page endpoints
// also need published=false for deferred posts.
func setSchedule(params url.Values, scheduledAt *time.Time, page bool) {
	if scheduledAt == nil {
		return
	}
	params.Set("scheduled_publish_time", strconv.FormatInt(scheduledAt.Unix(), 10))
	if page {
		params.Set("published", "false")
	}
}
