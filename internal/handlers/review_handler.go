package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/paging"
	"github.com/unilak/community/internal/services"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	offset, limit := window(c, paging.ReviewPageSize)

	var topicID *uuid.UUID
	if raw := c.Query("topic_id"); raw != "" && raw != "all" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid topic")
		}
		topicID = &id
	}

	reviews, err := h.reviewService.List(c.UserContext(), topicID, offset, limit)
	if err != nil {
		return serviceError(c, err, "Failed to load reviews")
	}
	return c.JSON(listResponse(reviews, offset, limit))
}

func (h *ReviewHandler) Mine(c *fiber.Ctx) error {
	offset, limit := window(c, paging.ReviewPageSize)
	reviews, err := h.reviewService.ListByUser(c.UserContext(), identity.GetViewer(c).ID, offset, limit)
	if err != nil {
		return serviceError(c, err, "Failed to load reviews")
	}
	return c.JSON(listResponse(reviews, offset, limit))
}

func (h *ReviewHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.reviewService.Stats(c.UserContext())
	if err != nil {
		return serviceError(c, err, "Failed to load stats")
	}
	return c.JSON(stats)
}

func (h *ReviewHandler) Get(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Review")
	if !ok {
		return nil
	}
	review, err := h.reviewService.Get(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err, "Failed to load review")
	}
	return c.JSON(review)
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	review, err := h.reviewService.Create(c.UserContext(), identity.GetViewer(c), &req)
	if err != nil {
		return serviceError(c, err, "Failed to create review")
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *ReviewHandler) Update(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Review")
	if !ok {
		return nil
	}
	var req dto.UpdateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	review, err := h.reviewService.Update(c.UserContext(), identity.GetViewer(c), id, &req)
	if err != nil {
		return serviceError(c, err, "Failed to update review")
	}
	return c.JSON(review)
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Review")
	if !ok {
		return nil
	}
	if err := h.reviewService.Delete(c.UserContext(), identity.GetViewer(c), id); err != nil {
		return serviceError(c, err, "Failed to delete review")
	}
	return c.JSON(dto.MessageResponse{Message: "Review deleted"})
}

func (h *ReviewHandler) Topics(c *fiber.Ctx) error {
	topics, err := h.reviewService.Topics(c.UserContext())
	if err != nil {
		return serviceError(c, err, "Failed to load topics")
	}
	return c.JSON(topics)
}

func (h *ReviewHandler) Subtopics(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Topic")
	if !ok {
		return nil
	}
	subs, err := h.reviewService.Subtopics(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err, "Failed to load subtopics")
	}
	return c.JSON(subs)
}

type topicRequest struct {
	Name string `json:"name"`
}

func (h *ReviewHandler) CreateTopic(c *fiber.Ctx) error {
	var req topicRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	topic, err := h.reviewService.CreateTopic(c.UserContext(), req.Name)
	if err != nil {
		return serviceError(c, err, "Failed to create topic")
	}
	return c.Status(fiber.StatusCreated).JSON(topic)
}

func (h *ReviewHandler) CreateSubtopic(c *fiber.Ctx) error {
	id, ok := pathID(c, "id", "Topic")
	if !ok {
		return nil
	}
	var req topicRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	sub, err := h.reviewService.CreateSubtopic(c.UserContext(), id, req.Name)
	if err != nil {
		return serviceError(c, err, "Failed to create subtopic")
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}
