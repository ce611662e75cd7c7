package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maheshrc27/contentflow/internal/meta"
	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/pkg/logging"
	"go.uber.org/zap"
)

const maxCarouselItems = 10

// GraphClient is the part of the Meta Graph API the publisher needs.
// *meta.Client implements it.
type GraphClient interface {
	CreateSingleMediaContainer(ctx context.Context, accountID, token, mediaURL, caption string, isCarouselItem bool) (string, error)
	CreateCarouselContainer(ctx context.Context, accountID, token string, childIDs []string, caption string) (string, error)
	CreateVideoContainer(ctx context.Context, accountID, token, videoURL, caption, coverURL string, thumbOffset time.Duration) (string, error)
	CreateStoryContainer(ctx context.Context, accountID, token, mediaURL string, isVideo bool) (string, error)
	AwaitProcessing(ctx context.Context, containerID, token string) error
	Publish(ctx context.Context, accountID, token, creationID string, scheduledAt *time.Time) (string, error)
	PublishPagePhoto(ctx context.Context, pageID, token, photoURL, caption string, scheduledAt *time.Time) (string, error)
	PublishPageCarousel(ctx context.Context, pageID, token string, photoURLs []string, caption string, scheduledAt *time.Time) (string, error)
	PublishPageVideo(ctx context.Context, pageID, token, videoURL, caption string, scheduledAt *time.Time) (string, error)
}

// PublisherService resolves one post to a published result or a typed error.
// It never writes to the database; callers persist the outcome.
type PublisherService interface {
	Publish(ctx context.Context, creds *models.Credentials, post *models.Post) (*models.PublishResult, error)
}

type publisherService struct {
	graph GraphClient
	now   func() time.Time
	log   *zap.Logger
}

func NewPublisherService(graph GraphClient) PublisherService {
	return &publisherService{
		graph: graph,
		now:   time.Now,
		log:   logging.WithComponent("publisher"),
	}
}

var errFacebookStory = errors.New("stories are not published to Facebook pages")

func (s *publisherService) Publish(ctx context.Context, creds *models.Credentials, post *models.Post) (*models.PublishResult, error) {
	if err := ValidatePost(post); err != nil {
		return nil, err
	}

	// decided before any container exists so a window violation makes no external call
	timing, err := DecidePublishTime(post.ScheduledDate, s.now(), post.PostType)
	if err != nil {
		return nil, err
	}

	toInstagram := post.Targets(models.PlatformInstagram)
	toFacebook := post.Targets(models.PlatformFacebook)
	if toInstagram && creds.InstagramAccountID == "" {
		return nil, models.ErrClientNotPublishable
	}
	if toFacebook && creds.FacebookPageID == "" {
		if !toInstagram {
			return nil, models.ErrClientNotPublishable
		}
		// no linked page, instagram only
		toFacebook = false
	}

	result := &models.PublishResult{Deferred: !timing.Immediate(), ScheduledAt: timing.ScheduledAt}
	log := s.log.With(zap.String("post_id", post.ID), zap.String("client_id", creds.ClientID), zap.String("post_type", post.PostType))

	if toInstagram {
		mediaID, err := s.publishInstagram(ctx, creds, post, timing)
		if err != nil {
			log.Warn("instagram publish failed", zap.Error(err))
			return nil, err
		}
		result.MediaID = mediaID
		log.Info("published to instagram", zap.String("media_id", mediaID), zap.Bool("deferred", result.Deferred))
	}

	if toFacebook {
		fbID, err := s.publishFacebook(ctx, creds, post, timing)
		switch {
		case err != nil && result.MediaID == "":
			log.Warn("facebook publish failed", zap.Error(err))
			return nil, err
		case err != nil:
			// instagram already went out; report facebook separately
			log.Warn("facebook publish failed after instagram succeeded", zap.Error(err))
			result.FacebookError = FailureMessage(err)
		default:
			result.FacebookPostID = fbID
			if result.MediaID == "" {
				result.MediaID = fbID
			}
			log.Info("published to facebook", zap.String("post_id_fb", fbID))
		}
	}

	return result, nil
}

func (s *publisherService) publishInstagram(ctx context.Context, creds *models.Credentials, post *models.Post, timing PublishTiming) (string, error) {
	account, token := creds.InstagramAccountID, creds.AccessToken
	urls := post.MediaURLs

	var (
		creationID string
		await      bool
		err        error
	)

	switch post.PostType {
	case models.PostTypePhoto:
		creationID, err = s.graph.CreateSingleMediaContainer(ctx, account, token, urls[0], post.Caption, false)

	case models.PostTypeCarousel:
		childIDs := make([]string, 0, len(urls))
		for _, u := range urls {
			childID, err := s.graph.CreateSingleMediaContainer(ctx, account, token, u, "", true)
			if err != nil {
				return "", err
			}
			if meta.IsVideoURL(u) {
				if err := s.graph.AwaitProcessing(ctx, childID, token); err != nil {
					return "", err
				}
				await = true
			}
			childIDs = append(childIDs, childID)
		}
		creationID, err = s.graph.CreateCarouselContainer(ctx, account, token, childIDs, post.Caption)

	case models.PostTypeReel:
		cover := ""
		if len(urls) > 1 {
			cover = urls[1]
		}
		creationID, err = s.graph.CreateVideoContainer(ctx, account, token, urls[0], post.Caption, cover, meta.ReelThumbOffset)
		await = true

	case models.PostTypeStory:
		isVideo := meta.IsVideoURL(urls[0])
		creationID, err = s.graph.CreateStoryContainer(ctx, account, token, urls[0], isVideo)
		await = isVideo

	default:
		return "", &models.UnsupportedPostTypeError{PostType: post.PostType}
	}
	if err != nil {
		return "", err
	}

	if await {
		if err := s.graph.AwaitProcessing(ctx, creationID, token); err != nil {
			return "", err
		}
	}

	return s.graph.Publish(ctx, account, token, creationID, timing.ScheduledAt)
}

func (s *publisherService) publishFacebook(ctx context.Context, creds *models.Credentials, post *models.Post, timing PublishTiming) (string, error) {
	if creds.FacebookPageID == "" {
		return "", models.ErrClientNotPublishable
	}
	page, token := creds.FacebookPageID, creds.AccessToken

	switch post.PostType {
	case models.PostTypePhoto:
		return s.graph.PublishPagePhoto(ctx, page, token, post.MediaURLs[0], post.Caption, timing.ScheduledAt)
	case models.PostTypeCarousel:
		for _, u := range post.MediaURLs {
			if meta.IsVideoURL(u) {
				return "", models.NewValidationError("facebook multi-photo posts cannot contain videos")
			}
		}
		return s.graph.PublishPageCarousel(ctx, page, token, post.MediaURLs, post.Caption, timing.ScheduledAt)
	case models.PostTypeReel:
		return s.graph.PublishPageVideo(ctx, page, token, post.MediaURLs[0], post.Caption, timing.ScheduledAt)
	case models.PostTypeStory:
		return "", errFacebookStory
	}
	return "", &models.UnsupportedPostTypeError{PostType: post.PostType}
}

// ValidatePost checks the media rules of each post type. It makes no network calls.
func ValidatePost(post *models.Post) error {
	switch post.PostType {
	case models.PostTypePhoto, models.PostTypeCarousel, models.PostTypeReel, models.PostTypeStory:
	default:
		return &models.UnsupportedPostTypeError{PostType: post.PostType}
	}

	for _, p := range post.Platforms {
		if p != models.PlatformInstagram && p != models.PlatformFacebook {
			return models.NewValidationError("unsupported platform %q", p)
		}
	}

	urls := post.MediaURLs
	if len(urls) == 0 {
		return models.NewValidationError("%s posts need at least one media URL", post.PostType)
	}
	for i, u := range urls {
		if strings.TrimSpace(u) == "" {
			return models.NewValidationError("media URL %d is empty", i+1)
		}
	}

	switch post.PostType {
	case models.PostTypePhoto:
		if meta.IsVideoURL(urls[0]) {
			return models.NewValidationError("photo posts need an image; publish videos as reels")
		}
	case models.PostTypeCarousel:
		if len(urls) < 2 {
			return models.NewValidationError("carousel needs at least 2 media URLs, got %d", len(urls))
		}
		if len(urls) > maxCarouselItems {
			return models.NewValidationError("carousel allows at most %d media URLs, got %d", maxCarouselItems, len(urls))
		}
	case models.PostTypeReel:
		if !meta.IsVideoURL(urls[0]) {
			return models.NewValidationError("reels need a video as the first media URL")
		}
		if len(urls) > 1 && meta.IsVideoURL(urls[1]) {
			return models.NewValidationError("reel cover must be an image")
		}
	case models.PostTypeStory:
		if !meta.IsVideoURL(urls[0]) && !meta.IsImageURL(urls[0]) {
			return models.NewValidationError("stories need an image or video as the first media URL")
		}
	}
	return nil
}

// FailureMessage is the user-facing text for a publish error. Credential
// problems always produce the renewal instruction.
func FailureMessage(err error) string {
	var credErr *models.CredentialExpiredError
	if errors.As(err, &credErr) {
		return models.CredentialRenewalMessage
	}
	return err.Error()
}
