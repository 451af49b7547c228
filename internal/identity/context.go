// Package identity carries the authenticated caller through a request.
package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/unilak/community/internal/models"
)

const viewerKey = "viewer"

var ErrNoToken = errors.New("invalid token in context")

// Viewer is who is asking. The zero value is an anonymous visitor.
type Viewer struct {
	ID    uuid.UUID
	Email string
	Role  string
}

func (v Viewer) Anonymous() bool { return v.ID == uuid.Nil }

func (v Viewer) IsModerator() bool { return v.Role == models.RoleModerator }

// Owns reports whether the viewer is the given user.
func (v Viewer) Owns(userID uuid.UUID) bool {
	return !v.Anonymous() && v.ID == userID
}

// GetUserID extracts the user UUID from the verified JWT in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return uuid.Nil, ErrNoToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

func SetViewer(c *fiber.Ctx, v Viewer) {
	c.Locals(viewerKey, v)
}

// GetViewer returns the viewer resolved by the auth middleware, or an
// anonymous viewer.
func GetViewer(c *fiber.Ctx) Viewer {
	if v, ok := c.Locals(viewerKey).(Viewer); ok {
		return v
	}
	return Viewer{}
}
