package meta

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/transfer"
	"go.uber.org/zap"
)

const (
	statusFinished  = "FINISHED"
	statusPublished = "PUBLISHED"
	statusError     = "ERROR"
	statusExpired   = "EXPIRED"

	// ReelThumbOffset is used when a reel has no cover image.
	ReelThumbOffset = time.Second
)

func (c *Client) createContainer(ctx context.Context, accountID string, params url.Values) (string, error) {
	var result transfer.GraphIDResponse
	if err := c.post(ctx, accountID+"/media", params, &result); err != nil {
		return "", err
	}
	return requireID(result.ID, "media container")
}

// CreateSingleMediaContainer creates an image container, or a VIDEO item when
// a carousel child points at a video.
func (c *Client) CreateSingleMediaContainer(ctx context.Context, accountID, token, mediaURL, caption string, isCarouselItem bool) (string, error) {
	params := url.Values{}
	params.Set("access_token", token)
	if IsVideoURL(mediaURL) {
		params.Set("media_type", "VIDEO")
		params.Set("video_url", mediaURL)
	} else {
		params.Set("image_url", mediaURL)
	}
	if isCarouselItem {
		params.Set("is_carousel_item", "true")
	} else if caption != "" {
		params.Set("caption", caption)
	}
	return c.createContainer(ctx, accountID, params)
}

func (c *Client) CreateCarouselContainer(ctx context.Context, accountID, token string, childIDs []string, caption string) (string, error) {
	if len(childIDs) < 2 {
		return "", models.NewValidationError("carousel needs at least 2 items, got %d", len(childIDs))
	}
	params := url.Values{}
	params.Set("access_token", token)
	params.Set("media_type", "CAROUSEL")
	params.Set("children", strings.Join(childIDs, ","))
	if caption != "" {
		params.Set("caption", caption)
	}
	return c.createContainer(ctx, accountID, params)
}

// CreateVideoContainer creates a reel. Without coverURL the platform derives the
// thumbnail at thumbOffset.
func (c *Client) CreateVideoContainer(ctx context.Context, accountID, token, videoURL, caption, coverURL string, thumbOffset time.Duration) (string, error) {
	params := url.Values{}
	params.Set("access_token", token)
	params.Set("media_type", "REELS")
	params.Set("video_url", videoURL)
	if caption != "" {
		params.Set("caption", caption)
	}
	if coverURL != "" {
		params.Set("cover_url", coverURL)
	} else {
		params.Set("thumb_offset", strconv.FormatInt(thumbOffset.Milliseconds(), 10))
	}
	return c.createContainer(ctx, accountID, params)
}

func (c *Client) CreateStoryContainer(ctx context.Context, accountID, token, mediaURL string, isVideo bool) (string, error) {
	params := url.Values{}
	params.Set("access_token", token)
	params.Set("media_type", "STORIES")
	if isVideo {
		params.Set("video_url", mediaURL)
	} else {
		params.Set("image_url", mediaURL)
	}
	return c.createContainer(ctx, accountID, params)
}

func (c *Client) ContainerStatus(ctx context.Context, containerID, token string) (*transfer.ContainerStatusResponse, error) {
	params := url.Values{}
	params.Set("fields", "status_code,status")
	params.Set("access_token", token)

	var status transfer.ContainerStatusResponse
	if err := c.get(ctx, containerID, params, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// AwaitProcessing polls the container until it is FINISHED. It returns a
// *models.ProcessingError when the platform rejects the media and a
// *models.TimeoutError when the attempt ceiling is reached.
func (c *Client) AwaitProcessing(ctx context.Context, containerID, token string) error {
	for attempt := 1; attempt <= c.maxPollAttempts; attempt++ {
		status, err := c.ContainerStatus(ctx, containerID, token)
		if err != nil {
			return err
		}

		switch status.StatusCode {
		case statusFinished, statusPublished:
			return nil
		case statusError, statusExpired:
			detail := status.Status
			if detail == "" {
				detail = status.StatusCode
			}
			return &models.ProcessingError{ContainerID: containerID, Status: detail}
		}

		c.log.Debug("container still processing",
			zap.String("container_id", containerID),
			zap.String("status_code", status.StatusCode),
			zap.Int("attempt", attempt))

		if attempt == c.maxPollAttempts {
			break
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("waiting for container %s: %w", containerID, ctx.Err())
		case <-timer.C:
		}
	}
	return &models.TimeoutError{ContainerID: containerID, Attempts: c.maxPollAttempts}
}
