package handlers

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/transfer"
	"github.com/maheshrc27/contentflow/pkg/logging"
	"go.uber.org/zap"
)

type TokenRefresher interface {
	Run(ctx context.Context) (*models.RefreshSummary, error)
}

type OverdueScanner interface {
	Run(ctx context.Context) ([]models.PostOutcome, error)
}

type JobsHandler struct {
	refresh TokenRefresher
	overdue OverdueScanner
}

func NewJobsHandler(refresh TokenRefresher, overdue OverdueScanner) *JobsHandler {
	return &JobsHandler{refresh: refresh, overdue: overdue}
}

func (h *JobsHandler) RefreshTokens(c *fiber.Ctx) error {
	summary, err := h.refresh.Run(c.UserContext())
	if err != nil {
		logging.GetLogger().Error("token refresh failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(transfer.RefreshTokensResponse{
		Message:    fmt.Sprintf("Refreshed %d of %d tokens", len(summary.Successful), len(summary.Successful)+len(summary.Failed)),
		Successful: summary.Successful,
		Failed:     summary.Failed,
	})
}

// PublishOverdue always answers 200 so external schedulers do not retry;
// per-post failures are in the results.
func (h *JobsHandler) PublishOverdue(c *fiber.Ctx) error {
	results, err := h.overdue.Run(c.UserContext())
	if results == nil {
		results = []models.PostOutcome{}
	}

	message := fmt.Sprintf("Processed %d overdue posts", len(results))
	if err != nil {
		logging.GetLogger().Error("overdue scan failed", zap.Error(err))
		message = "Overdue scan failed: " + err.Error()
	}

	return c.Status(fiber.StatusOK).JSON(transfer.PublishOverdueResponse{
		Message: message,
		Results: results,
	})
}
