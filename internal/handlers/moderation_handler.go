package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/paging"
	"github.com/unilak/community/internal/services"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// ReportReasons lists the reasons a report may carry.
func (h *ModerationHandler) ReportReasons(c *fiber.Ctx) error {
	return c.JSON(models.ReportReasons)
}

func (h *ModerationHandler) CreateReport(c *fiber.Ctx) error {
	reviewID, ok := pathID(c, "id", "Review")
	if !ok {
		return nil
	}
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	report, err := h.moderationService.CreateReport(c.UserContext(), identity.GetViewer(c), reviewID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to submit report")
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	page, offset := paging.Page(c.Query("page"), paging.MaxPageSize)
	reports, total, err := h.moderationService.ListReports(c.UserContext(), offset, paging.MaxPageSize)
	if err != nil {
		return serviceError(c, err, "Failed to list reports")
	}
	return c.JSON(pageResponse(reports, page, paging.MaxPageSize, total))
}

func (h *ModerationHandler) DismissReport(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Report")
	if !ok {
		return nil
	}
	if err := h.moderationService.DismissReport(c.UserContext(), id); err != nil {
		return serviceError(c, err, "Failed to dismiss report")
	}
	return c.JSON(dto.MessageResponse{Message: "Report dismissed"})
}

func (h *ModerationHandler) DeleteReportedReview(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Report")
	if !ok {
		return nil
	}
	if err := h.moderationService.DeleteReportedReview(c.UserContext(), id); err != nil {
		return serviceError(c, err, "Failed to delete review")
	}
	return c.JSON(dto.MessageResponse{Message: "Review deleted"})
}

func (h *ModerationHandler) Dashboard(c *fiber.Ctx) error {
	counts, err := h.moderationService.Dashboard(c.UserContext())
	if err != nil {
		return serviceError(c, err, "Failed to load dashboard")
	}
	return c.JSON(counts)
}
