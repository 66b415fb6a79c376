package auth

import (
	"errors"
	"strings"

	"agri-backend/internal/config"
	"agri-backend/internal/models"
	"agri-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxFarmerIDKey   = "farmer_id"
	CtxFarmerRoleKey = "farmer_role"
	CtxFarmerKey     = "farmer"
)

// JWTMiddleware accepts a bearer token only while the farmer exists, is active
// and the token version still matches.
func JWTMiddleware(cfg *config.Config, farmers repository.FarmerRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWT.Secret, strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		farmer, err := farmers.GetByID(c.UserContext(), claims.FarmerID)
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		if err != nil {
			return err
		}
		if !farmer.IsActive || farmer.TokenVersion != claims.TokenVersion {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(CtxFarmerIDKey, farmer.ID)
		c.Locals(CtxFarmerRoleKey, farmer.Role)
		c.Locals(CtxFarmerKey, farmer)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.FarmerRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxFarmerRoleKey).(models.FarmerRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "role unavailable")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "you are not allowed to do this")
	}
}

// CurrentFarmerID returns the authenticated farmer id set by JWTMiddleware.
func CurrentFarmerID(c *fiber.Ctx) (uint, error) {
	id, ok := c.Locals(CtxFarmerIDKey).(uint)
	if !ok || id == 0 {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	return id, nil
}

func CurrentFarmer(c *fiber.Ctx) (*models.Farmer, error) {
	f, ok := c.Locals(CtxFarmerKey).(*models.Farmer)
	if !ok || f == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	return f, nil
}
