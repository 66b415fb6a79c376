package crop

import (
	"fmt"
	"strings"

	"agri-backend/internal/audit"
	"agri-backend/internal/auth"
	"agri-backend/internal/calc"
	"agri-backend/internal/httpx"
	"agri-backend/internal/models"
	"agri-backend/internal/repository"
	"agri-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateCropRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	PlantedOn    string          `json:"planted_on" validate:"required,datetime=2006-01-02"`
	QuantitySown decimal.Decimal `json:"quantity_sown" validate:"gte=0.01"`
	SowingUnit   string          `json:"sowing_unit" validate:"omitempty,max=20"`
	SeedCost     decimal.Decimal `json:"seed_cost" validate:"gte=0"`
	LaborCost    decimal.Decimal `json:"labor_cost" validate:"gte=0"`
	Area         decimal.Decimal `json:"area" validate:"gte=0.01"`
	Zone         string          `json:"zone" validate:"required,max=100"`
	Notes        string          `json:"notes"`
}

type UpdateCropRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=100"`
	PlantedOn    *string          `json:"planted_on" validate:"omitempty,datetime=2006-01-02"`
	QuantitySown *decimal.Decimal `json:"quantity_sown" validate:"omitempty,gte=0.01"`
	SowingUnit   *string          `json:"sowing_unit" validate:"omitempty,min=1,max=20"`
	SeedCost     *decimal.Decimal `json:"seed_cost" validate:"omitempty,gte=0"`
	LaborCost    *decimal.Decimal `json:"labor_cost" validate:"omitempty,gte=0"`
	Area         *decimal.Decimal `json:"area" validate:"omitempty,gte=0.01"`
	Zone         *string          `json:"zone" validate:"omitempty,min=1,max=100"`
	Notes        *string          `json:"notes"`
}

type CropResponse struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	PlantedOn        string `json:"planted_on"`
	QuantitySown     string `json:"quantity_sown"`
	SowingUnit       string `json:"sowing_unit"`
	SeedCost         string `json:"seed_cost"`
	LaborCost        string `json:"labor_cost"`
	Area             string `json:"area"`
	Zone             string `json:"zone"`
	Notes            string `json:"notes"`
	TotalInitialCost string `json:"total_initial_cost"`
	YieldPerArea     string `json:"yield_per_area"`
	HarvestCount     int    `json:"harvest_count"`
	TotalRevenue     string `json:"total_revenue"`
	CreatedAt        string `json:"created_at"`
}

type HarvestItem struct {
	ID          uint   `json:"id"`
	HarvestedOn string `json:"harvested_on"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
	UnitPrice   string `json:"unit_price"`
	Revenue     string `json:"revenue"`
	NetProfit   string `json:"net_profit"`
	Quality     string `json:"quality"`
}

type ExpenseItem struct {
	ID          uint   `json:"id"`
	SpentOn     string `json:"spent_on"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
}

type CropDetailResponse struct {
	CropResponse
	Harvests []HarvestItem `json:"harvests"`
	Expenses []ExpenseItem `json:"expenses"`
}

type OptionResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	PlantedOn string `json:"planted_on"`
}

// ToResponse renders a crop with the values derived from its harvests.
func ToResponse(c *models.Crop) CropResponse {
	return CropResponse{
		ID:               c.ID,
		Name:             c.Name,
		PlantedOn:        httpx.FormatDate(c.PlantedOn),
		QuantitySown:     calc.Money(c.QuantitySown),
		SowingUnit:       c.SowingUnit,
		SeedCost:         calc.Money(c.SeedCost),
		LaborCost:        calc.Money(c.LaborCost),
		Area:             calc.Money(c.Area),
		Zone:             c.Zone,
		Notes:            c.Notes,
		TotalInitialCost: calc.Money(calc.CropTotalInitialCost(*c)),
		YieldPerArea:     calc.Money(calc.CropYieldPerArea(*c, c.Harvests)),
		HarvestCount:     len(c.Harvests),
		TotalRevenue:     calc.Money(calc.CropRevenue(c.Harvests)),
		CreatedAt:        c.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toDetailResponse(c *models.Crop) CropDetailResponse {
	resp := CropDetailResponse{
		CropResponse: ToResponse(c),
		Harvests:     make([]HarvestItem, 0, len(c.Harvests)),
		Expenses:     make([]ExpenseItem, 0, len(c.Expenses)),
	}
	for _, h := range c.Harvests {
		resp.Harvests = append(resp.Harvests, HarvestItem{
			ID:          h.ID,
			HarvestedOn: httpx.FormatDate(h.HarvestedOn),
			Quantity:    calc.Money(h.Quantity),
			Unit:        h.Unit,
			UnitPrice:   calc.Money(h.UnitPrice),
			Revenue:     calc.Money(calc.HarvestRevenue(h)),
			NetProfit:   calc.Money(calc.HarvestNetProfit(h)),
			Quality:     string(h.Quality),
		})
	}
	for _, e := range c.Expenses {
		resp.Expenses = append(resp.Expenses, ExpenseItem{
			ID:          e.ID,
			SpentOn:     httpx.FormatDate(e.SpentOn),
			Description: e.Description,
			Category:    string(e.Category),
			Amount:      calc.Money(e.Amount),
		})
	}
	return resp
}

// -------------------------
// Crop CRUD
// -------------------------

// GET /api/crops?name=maize&from=2024-01-01&to=2024-12-31
func ListCropsHandler(crops repository.CropRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		dr, err := httpx.QueryDateRange(c)
		if err != nil {
			return err
		}

		list, err := crops.List(c.UserContext(), farmerID, repository.CropFilter{
			Name:      c.Query("name"),
			DateRange: dr,
		})
		if err != nil {
			return err
		}

		res := make([]CropResponse, 0, len(list))
		for i := range list {
			res = append(res, ToResponse(&list[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/crops/options
func CropOptionsHandler(crops repository.CropRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		opts, err := crops.Options(c.UserContext(), farmerID)
		if err != nil {
			return err
		}

		res := make([]OptionResponse, 0, len(opts))
		for _, o := range opts {
			res = append(res, OptionResponse{ID: o.ID, Name: o.Name, PlantedOn: httpx.FormatDate(o.PlantedOn)})
		}
		return c.JSON(res)
	}
}

// POST /api/crops
func CreateCropHandler(crops repository.CropRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		var body CreateCropRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Zone = strings.TrimSpace(body.Zone)
		if err := validation.Struct(body); err != nil {
			return err
		}

		plantedOn, err := httpx.ParseDate("planted_on", body.PlantedOn)
		if err != nil {
			return err
		}

		unit := strings.TrimSpace(body.SowingUnit)
		if unit == "" {
			unit = "kg"
		}

		crop := models.Crop{
			FarmerID:     farmerID,
			Name:         body.Name,
			PlantedOn:    plantedOn,
			QuantitySown: body.QuantitySown,
			SowingUnit:   unit,
			SeedCost:     body.SeedCost,
			LaborCost:    body.LaborCost,
			Area:         body.Area,
			Zone:         body.Zone,
			Notes:        body.Notes,
		}

		if err := crops.Create(c.UserContext(), &crop); err != nil {
			return err
		}

		resp := ToResponse(&crop)
		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "crop",
			EntityID:    crop.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Crop created: %s", crop.Name),
			After:       resp,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/crops/:id
func GetCropHandler(crops repository.CropRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		crop, err := crops.GetDetail(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "crop")
		}

		return c.JSON(toDetailResponse(crop))
	}
}

// PUT|PATCH /api/crops/:id
func UpdateCropHandler(crops repository.CropRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		crop, err := crops.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "crop")
		}
		before := ToResponse(crop)

		var body UpdateCropRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		httpx.TrimAll(body.Name, body.SowingUnit, body.Zone)
		if err := validation.Struct(body); err != nil {
			return err
		}

		if body.Name != nil {
			crop.Name = *body.Name
		}
		if body.PlantedOn != nil {
			if crop.PlantedOn, err = httpx.ParseDate("planted_on", *body.PlantedOn); err != nil {
				return err
			}
		}
		if body.QuantitySown != nil {
			crop.QuantitySown = *body.QuantitySown
		}
		if body.SowingUnit != nil {
			crop.SowingUnit = *body.SowingUnit
		}
		if body.SeedCost != nil {
			crop.SeedCost = *body.SeedCost
		}
		if body.LaborCost != nil {
			crop.LaborCost = *body.LaborCost
		}
		if body.Area != nil {
			crop.Area = *body.Area
		}
		if body.Zone != nil {
			crop.Zone = *body.Zone
		}
		if body.Notes != nil {
			crop.Notes = *body.Notes
		}

		if err := crops.Update(c.UserContext(), crop); err != nil {
			return err
		}

		resp := ToResponse(crop)
		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "crop",
			EntityID:    crop.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Crop updated: %s", crop.Name),
			Before:      before,
			After:       resp,
		})

		return c.JSON(resp)
	}
}

// DELETE /api/crops/:id
// Harvests and expenses tied to the crop go with it.
func DeleteCropHandler(crops repository.CropRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		crop, err := crops.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "crop")
		}
		before := ToResponse(crop)

		if err := crops.Delete(c.UserContext(), farmerID, id); err != nil {
			return httpx.NotFound(err, "crop")
		}

		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "crop",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Crop deleted: %s", crop.Name),
			Before:      before,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
