package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/paging"
	"github.com/unilak/community/internal/services"
)

type CommunityHandler struct {
	communityService *services.CommunityService
}

func NewCommunityHandler(communityService *services.CommunityService) *CommunityHandler {
	return &CommunityHandler{communityService: communityService}
}

func (h *CommunityHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if _, err := h.communityService.SubmitFeedback(c.UserContext(), &req); err != nil {
		return serviceError(c, err, "Failed to send feedback")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "Thank you for your feedback"})
}

func (h *CommunityHandler) ListFeedback(c *fiber.Ctx) error {
	page, offset := paging.Page(c.Query("page"), paging.MaxPageSize)
	items, total, err := h.communityService.ListFeedback(c.UserContext(), offset, paging.MaxPageSize)
	if err != nil {
		return serviceError(c, err, "Failed to list feedback")
	}
	return c.JSON(pageResponse(items, page, paging.MaxPageSize, total))
}

func (h *CommunityHandler) DeleteFeedback(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Feedback")
	if !ok {
		return nil
	}
	if err := h.communityService.DeleteFeedback(c.UserContext(), id); err != nil {
		return serviceError(c, err, "Failed to delete feedback")
	}
	return c.JSON(dto.MessageResponse{Message: "Feedback deleted"})
}

// Facts is the public "did you know" feed.
func (h *CommunityHandler) Facts(c *fiber.Ctx) error {
	offset, limit := window(c, paging.MaxPageSize)
	items, _, err := h.communityService.Facts(c.UserContext(), offset, limit)
	if err != nil {
		return serviceError(c, err, "Failed to load facts")
	}
	return c.JSON(listResponse(items, offset, limit))
}

// AdminFacts pages facts for the moderator table.
func (h *CommunityHandler) AdminFacts(c *fiber.Ctx) error {
	page, offset := paging.Page(c.Query("page"), paging.FactPageSize)
	items, total, err := h.communityService.Facts(c.UserContext(), offset, paging.FactPageSize)
	if err != nil {
		return serviceError(c, err, "Failed to load facts")
	}
	return c.JSON(pageResponse(items, page, paging.FactPageSize, total))
}

func (h *CommunityHandler) CreateFact(c *fiber.Ctx) error {
	var req dto.FactRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	fact, err := h.communityService.CreateFact(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err, "Failed to create fact")
	}
	return c.Status(fiber.StatusCreated).JSON(fact)
}

func (h *CommunityHandler) UpdateFact(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Fact")
	if !ok {
		return nil
	}
	var req dto.FactRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	fact, err := h.communityService.UpdateFact(c.UserContext(), id, &req)
	if err != nil {
		return serviceError(c, err, "Failed to update fact")
	}
	return c.JSON(fact)
}

func (h *CommunityHandler) DeleteFact(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Fact")
	if !ok {
		return nil
	}
	if err := h.communityService.DeleteFact(c.UserContext(), id); err != nil {
		return serviceError(c, err, "Failed to delete fact")
	}
	return c.JSON(dto.MessageResponse{Message: "Fact deleted"})
}
