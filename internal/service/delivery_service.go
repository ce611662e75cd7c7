package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/repository"
	"github.com/maheshrc27/contentflow/pkg/logging"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// DefaultClaimTTL is how long a publish lease blocks other workers.
const DefaultClaimTTL = 10 * time.Minute

// DeliveryService owns the publish lifecycle of stored posts: lease, publish,
// record. Every path into the publisher goes through it so a post is never
// sent to the platform twice.
type DeliveryService interface {
	Deliver(ctx context.Context, post *models.Post) models.PostOutcome
	DeliverByID(ctx context.Context, postID string) (models.PostOutcome, error)
	// PublishNow publishes post for clientID. A post with an ID is loaded from
	// the store, must belong to clientID, and is leased and marked published;
	// a post without one is published ad hoc from the given content.
	PublishNow(ctx context.Context, clientID string, post *models.Post) (*models.PublishResult, error)
}

type deliveryService struct {
	posts     repository.PostRepository
	attempts  repository.PublishAttemptRepository
	creds     CredentialStore
	publisher PublisherService
	claimTTL  time.Duration
	now       func() time.Time
	log       *zap.Logger
}

func NewDeliveryService(
	posts repository.PostRepository,
	attempts repository.PublishAttemptRepository,
	creds CredentialStore,
	publisher PublisherService,
	claimTTL time.Duration,
) DeliveryService {
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	return &deliveryService{
		posts:     posts,
		attempts:  attempts,
		creds:     creds,
		publisher: publisher,
		claimTTL:  claimTTL,
		now:       time.Now,
		log:       logging.WithComponent("delivery"),
	}
}

func (s *deliveryService) DeliverByID(ctx context.Context, postID string) (models.PostOutcome, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return models.PostOutcome{PostID: postID, Status: models.OutcomeFailed, Error: err.Error()}, err
	}
	return s.Deliver(ctx, post), nil
}

func (s *deliveryService) Deliver(ctx context.Context, post *models.Post) models.PostOutcome {
	outcome := models.PostOutcome{PostID: post.ID}

	result, err := s.publishClaimed(ctx, post.ClientID, post)
	switch {
	case errors.Is(err, models.ErrPublishInProgress):
		outcome.Status = models.OutcomeSkipped
	case err != nil:
		outcome.Status = models.OutcomeFailed
		outcome.Error = FailureMessage(err)
	default:
		outcome.Status = models.OutcomePublished
		outcome.MediaID = result.MediaID
	}
	return outcome
}

func (s *deliveryService) PublishNow(ctx context.Context, clientID string, post *models.Post) (*models.PublishResult, error) {
	if post.ID == "" {
		creds, err := s.creds.Get(ctx, clientID)
		if err != nil {
			return nil, err
		}
		return s.publisher.Publish(ctx, creds, post)
	}

	// a stored post is published as stored, and only for its own client
	stored, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if stored.ClientID != clientID {
		s.log.Warn("publish requested for another client's post",
			zap.String("post_id", post.ID),
			zap.String("client_id", clientID),
			zap.String("owner_id", stored.ClientID))
		return nil, models.ErrForbidden
	}
	return s.publishClaimed(ctx, stored.ClientID, stored)
}

func (s *deliveryService) publishClaimed(ctx context.Context, clientID string, post *models.Post) (*models.PublishResult, error) {
	log := s.log.With(zap.String("post_id", post.ID), zap.String("client_id", clientID))

	claim, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("error generating publish claim: %w", err)
	}

	now := s.now()
	ok, err := s.posts.ClaimForPublish(ctx, post.ID, claim, now, now.Add(-s.claimTTL))
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info("post already claimed or no longer publishable")
		return nil, models.ErrPublishInProgress
	}

	// the lease must be settled even if the caller gives up
	settleCtx := context.WithoutCancel(ctx)

	publishCtx, cancel := context.WithCancelCause(ctx)
	stop := s.holdClaim(publishCtx, cancel, post.ID, claim)
	result, err := s.publish(publishCtx, clientID, post)
	stop()
	lost := errors.Is(context.Cause(publishCtx), errClaimLost)
	cancel(nil)

	if err != nil && lost {
		log.Warn("publish lease lost, abandoning publish", zap.Error(err))
		return nil, fmt.Errorf("%w: lease lost during publish", models.ErrPublishInProgress)
	}
	if err != nil {
		if relErr := s.posts.ReleaseClaim(settleCtx, post.ID, claim); relErr != nil {
			log.Error("failed to release publish claim", zap.Error(relErr))
		}
		s.record(settleCtx, post, clientID, primaryPlatform(post), "", FailureMessage(err))
		log.Warn("publish failed", zap.Error(err))
		return nil, err
	}

	marked, err := s.posts.MarkPublished(settleCtx, post.ID, claim, result.MediaID, result.FacebookPostID)
	if err != nil {
		log.Error("published but failed to mark post", zap.String("media_id", result.MediaID), zap.Error(err))
		return nil, err
	}
	if !marked {
		log.Warn("publish claim lost before marking post", zap.String("media_id", result.MediaID))
	}

	s.recordResult(settleCtx, post, clientID, result)
	log.Info("post delivered", zap.String("media_id", result.MediaID), zap.Bool("deferred", result.Deferred))
	return result, nil
}

var errClaimLost = errors.New("publish claim lost")

// holdClaim renews the lease every third of its TTL while a publish runs.
// When the lease is taken over, or cannot be renewed for half its TTL, the
// publish context is cancelled so no media_publish call goes out under a
// lease another worker may already hold. stop waits for the renewer to exit.
func (s *deliveryService) holdClaim(ctx context.Context, cancel context.CancelCauseFunc, postID, claim string) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(max(s.claimTTL/3, time.Millisecond))
		defer ticker.Stop()

		renewed := s.now()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			now := s.now()
			held, err := s.posts.RenewClaim(ctx, postID, claim, now)
			switch {
			case err == nil && held:
				renewed = now
			case err == nil:
				cancel(errClaimLost)
				return
			case now.Sub(renewed) >= s.claimTTL/2:
				cancel(fmt.Errorf("%w: %v", errClaimLost, err))
				return
			default:
				s.log.Warn("failed to renew publish claim", zap.String("post_id", postID), zap.Error(err))
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func (s *deliveryService) publish(ctx context.Context, clientID string, post *models.Post) (*models.PublishResult, error) {
	creds, err := s.creds.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.publisher.Publish(ctx, creds, post)
}

func (s *deliveryService) recordResult(ctx context.Context, post *models.Post, clientID string, result *models.PublishResult) {
	if post.Targets(models.PlatformInstagram) {
		s.record(ctx, post, clientID, models.PlatformInstagram, result.MediaID, "")
	}
	if post.Targets(models.PlatformFacebook) {
		s.record(ctx, post, clientID, models.PlatformFacebook, result.FacebookPostID, result.FacebookError)
	}
}

func (s *deliveryService) record(ctx context.Context, post *models.Post, clientID, platform, externalID, errMsg string) {
	if s.attempts == nil {
		return
	}
	_, err := s.attempts.Create(ctx, &models.PublishAttempt{
		PostID:       post.ID,
		ClientID:     clientID,
		Platform:     platform,
		ExternalID:   externalID,
		ErrorMessage: errMsg,
	})
	if err != nil {
		s.log.Warn("failed to record publish attempt", zap.String("post_id", post.ID), zap.Error(err))
	}
}

func primaryPlatform(post *models.Post) string {
	if post.Targets(models.PlatformInstagram) {
		return models.PlatformInstagram
	}
	return models.PlatformFacebook
}
