package middleware

import (
	"log"
	"strings"

	"maplestore/internal/apperrors"
	"maplestore/internal/models"
	"maplestore/internal/services"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// AuthRequired is a Fiber middleware to check for a valid JWT token. The
// caller's principal is stored in the request locals.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return unauthorized(c, "Authorization header format must be 'Bearer <token>'")
		}

		principal, err := authService.Authenticate(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// Principal returns the caller set by AuthRequired, or Anonymous.
func Principal(c *fiber.Ctx) models.Principal {
	if p, ok := c.Locals(principalKey).(models.Principal); ok {
		return p
	}
	return models.Anonymous
}

func unauthorized(c *fiber.Ctx, message string) error {
	appErr := apperrors.AuthRequired()
	appErr.Message = message
	return c.Status(fiber.StatusUnauthorized).JSON(appErr)
}
