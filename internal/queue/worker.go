package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/contentflow/internal/models"
	"go.uber.org/zap"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.PostID == "" {
		return fmt.Errorf("missing post id: %w", asynq.SkipRetry)
	}

	outcome, err := q.delivery.DeliverByID(ctx, payload.PostID)
	if errors.Is(err, models.ErrPostNotFound) {
		q.log.Warn("publish task for unknown post", zap.String("post_id", payload.PostID))
		return nil
	}
	if err != nil {
		return err
	}

	// failed outcomes are already recorded; asynq must not retry them
	q.log.Info("publish task finished",
		zap.String("post_id", outcome.PostID),
		zap.String("status", outcome.Status),
		zap.String("error", outcome.Error))
	return nil
}

// Register wires the task handlers into mux.
func (q *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypePublishPost, q.HandlePublishPostTask)
}
