package service

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/repository"
	"github.com/maheshrc27/contentflow/pkg/logging"
	"go.uber.org/zap"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Actor is the authenticated caller of a workflow action.
type Actor struct {
	UserID   string
	Role     string
	ClientID string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// PublishEnqueuer hands an approved post to the background publisher.
type PublishEnqueuer interface {
	EnqueuePublish(ctx context.Context, postID string) error
}

type PostService interface {
	Submit(ctx context.Context, actor Actor, postID string) (*models.Post, error)
	Approve(ctx context.Context, actor Actor, postID string) (*models.Post, error)
	RequestChanges(ctx context.Context, actor Actor, postID string) (*models.Post, error)
	Reject(ctx context.Context, actor Actor, postID string) (*models.Post, error)
}

type postService struct {
	pr    repository.PostRepository
	queue PublishEnqueuer
	now   func() time.Time
	log   *zap.Logger
}

func NewPostService(pr repository.PostRepository, queue PublishEnqueuer) PostService {
	return &postService{
		pr:    pr,
		queue: queue,
		now:   time.Now,
		log:   logging.WithComponent("posts"),
	}
}

func (s *postService) Submit(ctx context.Context, actor Actor, postID string) (*models.Post, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	post, err := s.load(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, post, []string{models.PostStatusDraft, models.PostStatusRefactor}, models.PostStatusPending)
}

func (s *postService) Approve(ctx context.Context, actor Actor, postID string) (*models.Post, error) {
	post, err := s.load(ctx, actor, postID)
	if err != nil {
		return nil, err
	}

	to := models.PostStatusApproved
	if IsLateApproval(post.ScheduledDate, s.now()) {
		to = models.PostStatusLateApproved
	}

	post, err = s.transition(ctx, post, []string{models.PostStatusPending}, to)
	if err != nil {
		return nil, err
	}

	if s.queue != nil {
		// the periodic scan still covers approved posts if this fails
		if err := s.queue.EnqueuePublish(ctx, post.ID); err != nil {
			s.log.Warn("failed to enqueue publish", zap.String("post_id", post.ID), zap.Error(err))
		}
	}
	return post, nil
}

func (s *postService) RequestChanges(ctx context.Context, actor Actor, postID string) (*models.Post, error) {
	post, err := s.load(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, post, []string{models.PostStatusPending}, models.PostStatusRefactor)
}

func (s *postService) Reject(ctx context.Context, actor Actor, postID string) (*models.Post, error) {
	post, err := s.load(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, post, []string{models.PostStatusPending}, models.PostStatusRejected)
}

func (s *postService) load(ctx context.Context, actor Actor, postID string) (*models.Post, error) {
	if postID == "" {
		return nil, models.NewValidationError("post id is required")
	}
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (actor.ClientID == "" || actor.ClientID != post.ClientID) {
		return nil, models.ErrForbidden
	}
	return post, nil
}

func (s *postService) transition(ctx context.Context, post *models.Post, from []string, to string) (*models.Post, error) {
	ok, err := s.pr.TransitionStatus(ctx, post.ID, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s -> %s: %w", post.Status, to, models.ErrInvalidTransition)
	}

	s.log.Info("post status changed",
		zap.String("post_id", post.ID),
		zap.String("from", post.Status),
		zap.String("to", to))

	post.Status = to
	return post, nil
}
