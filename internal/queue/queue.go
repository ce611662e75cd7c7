package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/contentflow/pkg/logging"
	"go.uber.org/zap"
)

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer hands approved posts to the worker right away. Tasks are never
// retried; the periodic overdue scan is the only retry path.
type Enqueuer struct {
	client taskEnqueuer
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func TaskID(postID string) string {
	return "publish:" + postID
}

func (e *Enqueuer) EnqueuePublish(ctx context.Context, postID string) error {
	taskPayload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	_, err = e.client.EnqueueContext(ctx, task, asynq.TaskID(TaskID(postID)), asynq.MaxRetry(0))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// already queued for this post
		return nil
	}
	if err != nil {
		return err
	}

	logging.GetLogger().Info("publish task enqueued", zap.String("post_id", postID))
	return nil
}
