package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/paging"
	"github.com/unilak/community/internal/services"
)

type AnnouncementHandler struct {
	announcementService *services.AnnouncementService
}

func NewAnnouncementHandler(announcementService *services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

func (h *AnnouncementHandler) List(c *fiber.Ctx) error {
	offset, limit := window(c, paging.ReviewPageSize)
	views, err := h.announcementService.ListAnnouncements(c.UserContext(), offset, limit)
	if err != nil {
		return serviceError(c, err, "Failed to load announcements")
	}
	return c.JSON(listResponse(views, offset, limit))
}

func (h *AnnouncementHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	r, err := h.announcementService.Submit(c.UserContext(), identity.GetViewer(c), &req)
	if err != nil {
		return serviceError(c, err, "Failed to submit request")
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

func (h *AnnouncementHandler) Mine(c *fiber.Ctx) error {
	views, err := h.announcementService.Mine(c.UserContext(), identity.GetViewer(c))
	if err != nil {
		return serviceError(c, err, "Failed to load your requests")
	}
	return c.JSON(views)
}

func (h *AnnouncementHandler) DeleteRequest(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Request")
	if !ok {
		return nil
	}
	if err := h.announcementService.DeleteRequest(c.UserContext(), identity.GetViewer(c), id); err != nil {
		return serviceError(c, err, "Failed to delete request")
	}
	return c.JSON(dto.MessageResponse{Message: "Request deleted"})
}

// ListRequests is the moderator queue filtered by ?status=.
func (h *AnnouncementHandler) ListRequests(c *fiber.Ctx) error {
	page, offset := paging.Page(c.Query("page"), paging.MaxPageSize)
	reqs, total, err := h.announcementService.ListRequests(c.UserContext(), c.Query("status"), offset, paging.MaxPageSize)
	if err != nil {
		return serviceError(c, err, "Failed to list requests")
	}
	return c.JSON(pageResponse(reqs, page, paging.MaxPageSize, total))
}

func (h *AnnouncementHandler) EditRequest(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Request")
	if !ok {
		return nil
	}
	var req dto.EditRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	r, err := h.announcementService.Edit(c.UserContext(), id, &req)
	if err != nil {
		return serviceError(c, err, "Failed to edit request")
	}
	return c.JSON(r)
}

// Approve accepts an optional body with last-minute edits.
func (h *AnnouncementHandler) Approve(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Request")
	if !ok {
		return nil
	}
	var req dto.EditRequestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}
	ann, err := h.announcementService.Approve(c.UserContext(), id, &req)
	if err != nil {
		return serviceError(c, err, "Failed to approve request")
	}
	return c.Status(fiber.StatusCreated).JSON(ann)
}

func (h *AnnouncementHandler) Reject(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Request")
	if !ok {
		return nil
	}
	if err := h.announcementService.Reject(c.UserContext(), id); err != nil {
		return serviceError(c, err, "Failed to reject request")
	}
	return c.JSON(dto.MessageResponse{Message: "Request rejected"})
}
