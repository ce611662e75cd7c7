package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/service"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

type postAction func(ctx context.Context, actor service.Actor, postID string) (*models.Post, error)

func (h *PostHandler) handle(c *fiber.Ctx, action postAction) error {
	post, err := action(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":     post.ID,
		"status": post.Status,
	})
}

func (h *PostHandler) Submit(c *fiber.Ctx) error {
	return h.handle(c, h.s.Submit)
}

func (h *PostHandler) Approve(c *fiber.Ctx) error {
	return h.handle(c, h.s.Approve)
}

func (h *PostHandler) RequestChanges(c *fiber.Ctx) error {
	return h.handle(c, h.s.RequestChanges)
}

func (h *PostHandler) Reject(c *fiber.Ctx) error {
	return h.handle(c, h.s.Reject)
}
