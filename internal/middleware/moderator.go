package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/unilak/community/internal/config"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
)

// ModeratorRequired admits viewers with the moderator role, or whose email
// is listed in MODERATOR_EMAILS. It runs after JWTProtected.
func ModeratorRequired(cfg *config.Config) fiber.Handler {
	moderatorEmails := parseCSV(cfg.ModeratorEmails)

	return func(c *fiber.Ctx) error {
		viewer := identity.GetViewer(c)
		if viewer.Anonymous() {
			return unauthorized(c)
		}

		if viewer.IsModerator() {
			return c.Next()
		}
		// A listed account not yet promoted acts as a moderator for this
		// request, so services see the same role the guard granted.
		if containsFold(moderatorEmails, viewer.Email) {
			viewer.Role = models.RoleModerator
			identity.SetViewer(c, viewer)
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Moderator access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func containsFold(list []string, val string) bool {
	for _, item := range list {
		if strings.EqualFold(item, val) {
			return true
		}
	}
	return false
}
