package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/service"
)

func GetActor(c *fiber.Ctx) service.Actor {
	userID, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)
	clientID, _ := c.Locals("client_id").(string)
	return service.Actor{UserID: userID, Role: role, ClientID: clientID}
}

// statusForError maps the error taxonomy to HTTP status codes.
func statusForError(err error) int {
	var (
		validationErr  *models.ValidationError
		windowErr      *models.SchedulingWindowExceededError
		credentialErr  *models.CredentialExpiredError
		unsupportedErr *models.UnsupportedPostTypeError
	)

	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &windowErr),
		errors.As(err, &credentialErr),
		errors.Is(err, models.ErrClientNotPublishable):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrClientNotFound), errors.Is(err, models.ErrPostNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrPublishInProgress):
		return fiber.StatusConflict
	case errors.As(err, &unsupportedErr):
		return fiber.StatusNotImplemented
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"error": service.FailureMessage(err),
	})
}
