package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/paging"
	"github.com/unilak/community/internal/services"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badBody(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
}

// serviceError maps a service failure to its status code. Unknown errors are
// logged and reported as fallback without details.
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrMissingFields):
		return errorJSON(c, fiber.StatusBadRequest, "Missing required fields")
	case errors.Is(err, services.ErrInvalidReviewType):
		return errorJSON(c, fiber.StatusBadRequest, "Invalid review type")
	case errors.Is(err, services.ErrEditWindowClosed):
		return errorJSON(c, fiber.StatusForbidden, "Reviews can only be edited within 24 hours of posting.")
	case errors.Is(err, services.ErrNotOwner):
		return errorJSON(c, fiber.StatusForbidden, "You can only change your own content")
	case errors.Is(err, services.ErrThreadForbidden):
		return errorJSON(c, fiber.StatusForbidden, "You are not part of this conversation")
	case errors.Is(err, services.ErrReviewNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Review not found")
	case errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrAnnouncementNotFound),
		errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrReportNotFound),
		errors.Is(err, services.ErrFeedbackNotFound),
		errors.Is(err, services.ErrFactNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrRequestNotPending),
		errors.Is(err, services.ErrEmailTaken):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return errorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUnknownTopic),
		errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrInvalidReason),
		errors.Is(err, services.ErrInvalidFeedback),
		errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidSignup):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	attrs := []any{"request_id", requestID(c), "method", c.Method(), "path", c.Path(), "error", err}
	if v := identity.GetViewer(c); !v.Anonymous() {
		attrs = append(attrs, "viewer", v.ID.String())
	}
	slog.Error(fallback, attrs...)
	return errorJSON(c, fiber.StatusInternalServerError, fallback)
}

// pathID parses the named route parameter. On failure it has already written
// a 404, since a malformed id names nothing.
func pathID(c *fiber.Ctx, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		_ = errorJSON(c, fiber.StatusNotFound, what+" not found")
		return uuid.Nil, false
	}
	return id, true
}

func window(c *fiber.Ctx, defaultLimit int) (int, int) {
	return paging.Window(c.Query("offset"), c.Query("limit"), defaultLimit)
}

func listResponse[T any](items []T, offset, limit int) dto.ListResponse[T] {
	return dto.ListResponse[T]{
		Items:   items,
		Offset:  offset,
		Limit:   limit,
		HasMore: paging.HasMore(len(items), limit),
	}
}

func pageResponse[T any](items []T, page, size int, total int64) dto.PageResponse[T] {
	return dto.PageResponse[T]{
		Items:      items,
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: paging.PageCount(total, size),
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
	return id
}
