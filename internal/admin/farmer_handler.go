package admin

import (
	"fmt"

	"agri-backend/internal/advisory"
	"agri-backend/internal/audit"
	"agri-backend/internal/auth"
	"agri-backend/internal/httpx"
	"agri-backend/internal/logger"
	"agri-backend/internal/models"
	"agri-backend/internal/repository"
	"agri-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UpdateStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ----------------------------------------
// Farmer accounts
// ----------------------------------------

// GET /api/admin/farmers
func ListFarmersHandler(farmers repository.FarmerRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := farmers.List(c.UserContext())
		if err != nil {
			return err
		}

		res := make([]auth.FarmerResponse, 0, len(list))
		for i := range list {
			res = append(res, auth.ToFarmerResponse(&list[i]))
		}
		return c.JSON(res)
	}
}

// PUT /api/admin/farmers/:id/status
// Deactivating an account also revokes its tokens.
func UpdateFarmerStatusHandler(farmers repository.FarmerRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if id == adminID {
			return fiber.NewError(fiber.StatusBadRequest, "cannot change the status of your own account")
		}

		var body UpdateStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		if err := farmers.SetActive(c.UserContext(), id, *body.IsActive); err != nil {
			return httpx.NotFound(err, "farmer")
		}
		if !*body.IsActive {
			if err := farmers.RevokeTokens(c.UserContext(), id); err != nil {
				return err
			}
		}

		farmer, err := farmers.GetByID(c.UserContext(), id)
		if err != nil {
			return httpx.NotFound(err, "farmer")
		}

		logger.FromCtx(c).Info("farmer status changed",
			zap.Uint("admin_id", adminID),
			zap.Uint("farmer_id", id),
			zap.Bool("is_active", farmer.IsActive),
		)
		return c.JSON(auth.ToFarmerResponse(farmer))
	}
}

// ----------------------------------------
// Advisories
// ----------------------------------------

// POST /api/admin/farmers/:id/advisories
func CreateFarmerAdvisoryHandler(farmers repository.FarmerRepository, advisories repository.AdvisoryRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		farmer, err := farmers.GetByID(c.UserContext(), id)
		if err != nil {
			return httpx.NotFound(err, "farmer")
		}

		a, err := advisory.ParseCreate(c, farmer.ID)
		if err != nil {
			return err
		}
		if err := advisories.Create(c.UserContext(), a); err != nil {
			return err
		}

		resp := advisory.ToResponse(a)
		rec.Record(c, audit.LogOptions{
			FarmerID:    farmer.ID,
			EntityType:  "advisory",
			EntityID:    a.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Advisory received: %s", a.Title),
			After:       resp,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}
