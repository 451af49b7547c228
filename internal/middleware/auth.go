package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/unilak/community/internal/config"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
	"gorm.io/gorm"
)

// Browsers cannot set headers on a websocket upgrade, so the token may also
// travel as a query parameter.
const tokenLookup = "header:Authorization,query:access_token"

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Unauthorized",
	})
}

// JWTProtected rejects requests without a valid access token and resolves
// the caller's current profile into the request context.
func JWTProtected(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		AuthScheme:  "Bearer",
		TokenLookup: tokenLookup,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			if !loadViewer(c, db) {
				return unauthorized(c)
			}
			return c.Next()
		},
	})
}

// OptionalAuth resolves the caller when a valid token is present and lets
// everyone else through as anonymous.
func OptionalAuth(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		AuthScheme:  "Bearer",
		TokenLookup: tokenLookup,
		Filter: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAuthorization) == "" && c.Query("access_token") == ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Next()
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			loadViewer(c, db)
			return c.Next()
		},
	})
}

// loadViewer reads the role from the database rather than the token so a
// demoted moderator loses access before the token expires.
func loadViewer(c *fiber.Ctx, db *gorm.DB) bool {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return false
	}

	var p models.Profile
	if err := db.WithContext(c.UserContext()).Select("id", "email", "role").First(&p, "id = ?", userID).Error; err != nil {
		return false
	}
	identity.SetViewer(c, identity.Viewer{ID: p.ID, Email: p.Email, Role: p.Role})
	return true
}
