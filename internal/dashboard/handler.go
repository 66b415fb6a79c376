package dashboard

import (
	"agri-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard/stats
func StatsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		stats, err := svc.Stats(c.UserContext(), farmerID)
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}

// GET /api/dashboard/charts
func ChartsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		charts, err := svc.Charts(c.UserContext(), farmerID)
		if err != nil {
			return err
		}
		return c.JSON(charts)
	}
}
