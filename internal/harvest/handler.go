package harvest

import (
	"fmt"
	"strings"

	"agri-backend/internal/audit"
	"agri-backend/internal/auth"
	"agri-backend/internal/calc"
	"agri-backend/internal/crop"
	"agri-backend/internal/httpx"
	"agri-backend/internal/models"
	"agri-backend/internal/repository"
	"agri-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateHarvestRequest struct {
	CropID         uint                  `json:"crop_id" validate:"required"`
	HarvestedOn    string                `json:"harvested_on" validate:"required,datetime=2006-01-02"`
	Quantity       decimal.Decimal       `json:"quantity" validate:"gte=0.01"`
	Unit           string                `json:"unit" validate:"omitempty,max=20"`
	UnitPrice      decimal.Decimal       `json:"unit_price" validate:"gte=0"`
	LinkedExpenses decimal.Decimal       `json:"linked_expenses" validate:"gte=0"`
	Quality        models.HarvestQuality `json:"quality" validate:"omitempty,oneof=excellent good average poor"`
	Notes          string                `json:"notes"`
}

type UpdateHarvestRequest struct {
	CropID         *uint                  `json:"crop_id" validate:"omitempty,gt=0"`
	HarvestedOn    *string                `json:"harvested_on" validate:"omitempty,datetime=2006-01-02"`
	Quantity       *decimal.Decimal       `json:"quantity" validate:"omitempty,gte=0.01"`
	Unit           *string                `json:"unit" validate:"omitempty,min=1,max=20"`
	UnitPrice      *decimal.Decimal       `json:"unit_price" validate:"omitempty,gte=0"`
	LinkedExpenses *decimal.Decimal       `json:"linked_expenses" validate:"omitempty,gte=0"`
	Quality        *models.HarvestQuality `json:"quality" validate:"omitempty,oneof=excellent good average poor"`
	Notes          *string                `json:"notes"`
}

type HarvestResponse struct {
	ID             uint   `json:"id"`
	CropID         uint   `json:"crop_id"`
	CropName       string `json:"crop_name"`
	HarvestedOn    string `json:"harvested_on"`
	Quantity       string `json:"quantity"`
	Unit           string `json:"unit"`
	UnitPrice      string `json:"unit_price"`
	LinkedExpenses string `json:"linked_expenses"`
	Revenue        string `json:"revenue"`
	NetProfit      string `json:"net_profit"`
	Quality        string `json:"quality"`
	Notes          string `json:"notes"`
	CreatedAt      string `json:"created_at"`
}

func toResponse(h *models.Harvest) HarvestResponse {
	return HarvestResponse{
		ID:             h.ID,
		CropID:         h.CropID,
		CropName:       h.Crop.Name,
		HarvestedOn:    httpx.FormatDate(h.HarvestedOn),
		Quantity:       calc.Money(h.Quantity),
		Unit:           h.Unit,
		UnitPrice:      calc.Money(h.UnitPrice),
		LinkedExpenses: calc.Money(h.LinkedExpenses),
		Revenue:        calc.Money(calc.HarvestRevenue(*h)),
		NetProfit:      calc.Money(calc.HarvestNetProfit(*h)),
		Quality:        string(h.Quality),
		Notes:          h.Notes,
		CreatedAt:      h.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// -------------------------
// Harvest CRUD
// -------------------------

// GET /api/harvests?crop_id=3&from=2024-01-01&to=2024-12-31
func ListHarvestsHandler(harvests repository.HarvestRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		cropID, err := httpx.QueryID(c, "crop_id")
		if err != nil {
			return err
		}
		dr, err := httpx.QueryDateRange(c)
		if err != nil {
			return err
		}

		list, err := harvests.List(c.UserContext(), farmerID, repository.HarvestFilter{
			CropID:    cropID,
			DateRange: dr,
		})
		if err != nil {
			return err
		}

		res := make([]HarvestResponse, 0, len(list))
		for i := range list {
			res = append(res, toResponse(&list[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/harvests
func CreateHarvestHandler(harvests repository.HarvestRepository, crops repository.CropRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		var body CreateHarvestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validation.Struct(body); err != nil {
			return err
		}
		if err := crop.RequireOwned(c.UserContext(), crops, farmerID, body.CropID); err != nil {
			return err
		}

		harvestedOn, err := httpx.ParseDate("harvested_on", body.HarvestedOn)
		if err != nil {
			return err
		}

		unit := strings.TrimSpace(body.Unit)
		if unit == "" {
			unit = "kg"
		}
		quality := body.Quality
		if quality == "" {
			quality = models.QualityGood
		}

		h := models.Harvest{
			CropID:         body.CropID,
			HarvestedOn:    harvestedOn,
			Quantity:       body.Quantity,
			Unit:           unit,
			UnitPrice:      body.UnitPrice,
			LinkedExpenses: body.LinkedExpenses,
			Quality:        quality,
			Notes:          body.Notes,
		}
		if err := harvests.Create(c.UserContext(), &h); err != nil {
			return err
		}

		created, err := harvests.Get(c.UserContext(), farmerID, h.ID)
		if err != nil {
			return err
		}

		resp := toResponse(created)
		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "harvest",
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Harvest recorded for %s: %s %s", created.Crop.Name, resp.Quantity, created.Unit),
			After:       resp,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/harvests/:id
func GetHarvestHandler(harvests repository.HarvestRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		h, err := harvests.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "harvest")
		}
		return c.JSON(toResponse(h))
	}
}

// PUT|PATCH /api/harvests/:id
func UpdateHarvestHandler(harvests repository.HarvestRepository, crops repository.CropRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		h, err := harvests.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "harvest")
		}
		before := toResponse(h)

		var body UpdateHarvestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		httpx.TrimAll(body.Unit)
		if err := validation.Struct(body); err != nil {
			return err
		}

		if body.CropID != nil && *body.CropID != h.CropID {
			if err := crop.RequireOwned(c.UserContext(), crops, farmerID, *body.CropID); err != nil {
				return err
			}
			h.CropID = *body.CropID
		}
		if body.HarvestedOn != nil {
			if h.HarvestedOn, err = httpx.ParseDate("harvested_on", *body.HarvestedOn); err != nil {
				return err
			}
		}
		if body.Quantity != nil {
			h.Quantity = *body.Quantity
		}
		if body.Unit != nil {
			h.Unit = *body.Unit
		}
		if body.UnitPrice != nil {
			h.UnitPrice = *body.UnitPrice
		}
		if body.LinkedExpenses != nil {
			h.LinkedExpenses = *body.LinkedExpenses
		}
		if body.Quality != nil {
			h.Quality = *body.Quality
		}
		if body.Notes != nil {
			h.Notes = *body.Notes
		}

		if err := harvests.Update(c.UserContext(), h); err != nil {
			return err
		}

		updated, err := harvests.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return err
		}

		resp := toResponse(updated)
		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "harvest",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Harvest updated for %s", updated.Crop.Name),
			Before:      before,
			After:       resp,
		})

		return c.JSON(resp)
	}
}

// DELETE /api/harvests/:id
func DeleteHarvestHandler(harvests repository.HarvestRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		h, err := harvests.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "harvest")
		}

		if err := harvests.Delete(c.UserContext(), farmerID, id); err != nil {
			return httpx.NotFound(err, "harvest")
		}

		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "harvest",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Harvest deleted for %s", h.Crop.Name),
			Before:      toResponse(h),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
