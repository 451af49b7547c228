package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/services"
	"github.com/unilak/community/internal/thread"
)

type ThreadHandler struct {
	threadService *services.ThreadService
}

func NewThreadHandler(threadService *services.ThreadService) *ThreadHandler {
	return &ThreadHandler{threadService: threadService}
}

func (h *ThreadHandler) RequestThread(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Request")
	if !ok {
		return nil
	}
	msgs, err := h.threadService.RequestThread(c.UserContext(), identity.GetViewer(c), id)
	if err != nil {
		return serviceError(c, err, "Failed to load messages")
	}
	return c.JSON(msgs)
}

func (h *ThreadHandler) PostToRequest(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Request")
	if !ok {
		return nil
	}
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	msg, err := h.threadService.PostToRequest(c.UserContext(), identity.GetViewer(c), id, req.Content)
	if err != nil {
		return serviceError(c, err, thread.SendFailedText)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// AnnouncementThread requires a signed-in viewer; replies may be posted
// anonymously.
func (h *ThreadHandler) AnnouncementThread(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Announcement")
	if !ok {
		return nil
	}
	viewer := identity.GetViewer(c)
	if viewer.Anonymous() {
		return unauthorized(c)
	}
	msgs, err := h.threadService.AnnouncementThread(c.UserContext(), viewer, id)
	if err != nil {
		return serviceError(c, err, "Failed to load messages")
	}
	return c.JSON(msgs)
}

func (h *ThreadHandler) PostToAnnouncement(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Announcement")
	if !ok {
		return nil
	}
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	msg, err := h.threadService.PostToAnnouncement(c.UserContext(), identity.GetViewer(c), id, req.Content)
	if err != nil {
		return serviceError(c, err, thread.SendFailedText)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *ThreadHandler) DeleteMessage(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Message")
	if !ok {
		return nil
	}
	if err := h.threadService.DeleteMessage(c.UserContext(), identity.GetViewer(c), id); err != nil {
		return serviceError(c, err, "Failed to delete message")
	}
	return c.JSON(dto.MessageResponse{Message: "Message deleted"})
}

func unauthorized(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
}
