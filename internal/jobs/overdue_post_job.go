package job

import (
	"context"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/repository"
	"github.com/maheshrc27/contentflow/internal/service"
	"github.com/maheshrc27/contentflow/pkg/logging"
	"go.uber.org/zap"
)

// OverduePostJob publishes approved posts whose scheduled time has passed.
// Posts older than the lookback are left alone so a long outage does not
// flood the feed.
type OverduePostJob struct {
	posts    repository.PostRepository
	delivery service.DeliveryService
	lookback time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewOverduePostJob(posts repository.PostRepository, delivery service.DeliveryService, lookback time.Duration) *OverduePostJob {
	return &OverduePostJob{
		posts:    posts,
		delivery: delivery,
		lookback: lookback,
		now:      time.Now,
		log:      logging.WithComponent("overdue_posts"),
	}
}

func (j *OverduePostJob) Run(ctx context.Context) ([]models.PostOutcome, error) {
	due, err := j.posts.ListDueApproved(ctx, j.now(), j.lookback)
	if err != nil {
		j.log.Error("unable to list due posts", zap.Error(err))
		return nil, err
	}

	outcomes := make([]models.PostOutcome, 0, len(due))
	for _, post := range due {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, j.delivery.Deliver(ctx, post))
	}

	published, failed := 0, 0
	for _, o := range outcomes {
		switch o.Status {
		case models.OutcomePublished:
			published++
		case models.OutcomeFailed:
			failed++
		}
	}
	j.log.Info("overdue scan finished",
		zap.Int("due", len(due)),
		zap.Int("published", published),
		zap.Int("failed", failed))
	return outcomes, nil
}
