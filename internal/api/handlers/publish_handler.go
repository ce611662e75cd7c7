package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/service"
	"github.com/maheshrc27/contentflow/internal/transfer"
	"github.com/maheshrc27/contentflow/pkg/logging"
	"go.uber.org/zap"
)

type PublishHandler struct {
	ds service.DeliveryService
}

func NewPublishHandler(ds service.DeliveryService) *PublishHandler {
	return &PublishHandler{ds: ds}
}

// Publish publishes one post for a client on demand. With postData.id set the
// stored post is published and the rest of postData is ignored.
func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if _, err := uuid.Parse(req.ClientID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "clientId must be a valid UUID",
		})
	}
	if req.PostData == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "postData is required",
		})
	}

	if req.PostData.ID != "" {
		if _, err := uuid.Parse(req.PostData.ID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "postData.id must be a valid UUID",
			})
		}
	}

	post := &models.Post{
		ID:            req.PostData.ID,
		ClientID:      req.ClientID,
		Caption:       req.PostData.Caption,
		ScheduledDate: req.PostData.ScheduledDate,
		MediaURLs:     req.PostData.MediaURLs,
		PostType:      req.PostData.PostType,
		Platforms:     req.PostData.Platforms,
	}

	result, err := h.ds.PublishNow(c.UserContext(), req.ClientID, post)
	if err != nil {
		logging.GetLogger().Info("publish request failed",
			zap.String("client_id", req.ClientID),
			zap.String("post_id", post.ID),
			zap.Error(err))
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.PublishResponse{
		Success:        true,
		MediaID:        result.MediaID,
		FacebookPostID: result.FacebookPostID,
		Deferred:       result.Deferred,
		Warning:        result.FacebookError,
	})
}
