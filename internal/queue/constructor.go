package queue

import (
	"github.com/maheshrc27/contentflow/internal/service"
	"github.com/maheshrc27/contentflow/pkg/logging"
	"go.uber.org/zap"
)

type Queue struct {
	delivery service.DeliveryService
	log      *zap.Logger
}

func NewQueue(delivery service.DeliveryService) *Queue {
	return &Queue{
		delivery: delivery,
		log:      logging.WithComponent("queue"),
	}
}

const TaskTypePublishPost = "post:publish"

type PublishPostPayload struct {
	PostID string `json:"post_id"`
}
