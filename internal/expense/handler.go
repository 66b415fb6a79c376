package expense

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

type CreateExpenseRequest struct {
	CropID      *uint                  `json:"crop_id" validate:"omitempty,gt=0"`
	Description string                 `json:"description" validate:"required,max=200"`
	Category    models.ExpenseCategory `json:"category" validate:"omitempty,expense_category"`
	Amount      decimal.Decimal        `json:"amount" validate:"gte=0.01"`
	SpentOn     string                 `json:"spent_on" validate:"required,datetime=2006-01-02"`
	Supplier    *string                `json:"supplier" validate:"omitempty,max=100"`
	Notes       string                 `json:"notes"`
}

// UpdateExpenseRequest is partial. A crop_id of 0 unlinks the expense from its crop.
type UpdateExpenseRequest struct {
	CropID      *uint                   `json:"crop_id"`
	Description *string                 `json:"description" validate:"omitempty,min=1,max=200"`
	Category    *models.ExpenseCategory `json:"category" validate:"omitempty,expense_category"`
	Amount      *decimal.Decimal        `json:"amount" validate:"omitempty,gte=0.01"`
	SpentOn     *string                 `json:"spent_on" validate:"omitempty,datetime=2006-01-02"`
	Supplier    *string                 `json:"supplier" validate:"omitempty,max=100"`
	Notes       *string                 `json:"notes"`
}

type ExpenseResponse struct {
	ID          uint    `json:"id"`
	CropID      *uint   `json:"crop_id"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      string  `json:"amount"`
	SpentOn     string  `json:"spent_on"`
	Supplier    *string `json:"supplier"`
	Notes       string  `json:"notes"`
	CreatedAt   string  `json:"created_at"`
}

func toResponse(e *models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		CropID:      e.CropID,
		Description: e.Description,
		Category:    string(e.Category),
		Amount:      calc.Money(e.Amount),
		SpentOn:     httpx.FormatDate(e.SpentOn),
		Supplier:    e.Supplier,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// -------------------------
// Expense CRUD
// -------------------------

// GET /api/expenses?category=fuel&crop_id=3&from=2024-01-01&to=2024-12-31
func ListExpensesHandler(expenses repository.ExpenseRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		category := models.ExpenseCategory(strings.TrimSpace(c.Query("category")))
		if category != "" {
			if !category.Valid() {
				return validation.NewFieldError("category", "unknown expense category")
			}
		}
		cropID, err := httpx.QueryID(c, "crop_id")
		if err != nil {
			return err
		}
		dr, err := httpx.QueryDateRange(c)
		if err != nil {
			return err
		}

		list, err := expenses.List(c.UserContext(), farmerID, repository.ExpenseFilter{
			Category:  category,
			CropID:    cropID,
			DateRange: dr,
		})
		if err != nil {
			return err
		}

		res := make([]ExpenseResponse, 0, len(list))
		for i := range list {
			res = append(res, toResponse(&list[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/expenses
func CreateExpenseHandler(expenses repository.ExpenseRepository, crops repository.CropRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		var body CreateExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Description = strings.TrimSpace(body.Description)
		if err := validation.Struct(body); err != nil {
			return err
		}
		if body.CropID != nil {
			if err := crop.RequireOwned(c.UserContext(), crops, farmerID, *body.CropID); err != nil {
				return err
			}
		}

		spentOn, err := httpx.ParseDate("spent_on", body.SpentOn)
		if err != nil {
			return err
		}

		category := body.Category
		if category == "" {
			category = models.CategoryOther
		}

		e := models.Expense{
			FarmerID:    farmerID,
			CropID:      body.CropID,
			Description: body.Description,
			Category:    category,
			Amount:      body.Amount,
			SpentOn:     spentOn,
			Supplier:    trimOptional(body.Supplier),
			Notes:       body.Notes,
		}
		if err := expenses.Create(c.UserContext(), &e); err != nil {
			return err
		}

		resp := toResponse(&e)
		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "expense",
			EntityID:    e.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Expense recorded: %s (%s)", e.Description, resp.Amount),
			After:       resp,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/expenses/:id
func GetExpenseHandler(expenses repository.ExpenseRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		e, err := expenses.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "expense")
		}
		return c.JSON(toResponse(e))
	}
}

// PUT|PATCH /api/expenses/:id
func UpdateExpenseHandler(expenses repository.ExpenseRepository, crops repository.CropRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		e, err := expenses.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "expense")
		}
		before := toResponse(e)

		var body UpdateExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		httpx.TrimAll(body.Description)
		if err := validation.Struct(body); err != nil {
			return err
		}

		if body.CropID != nil {
			if *body.CropID == 0 {
				e.CropID = nil
			} else {
				if err := crop.RequireOwned(c.UserContext(), crops, farmerID, *body.CropID); err != nil {
					return err
				}
				cropID := *body.CropID
				e.CropID = &cropID
			}
		}
		if body.Description != nil {
			e.Description = *body.Description
		}
		if body.Category != nil {
			e.Category = *body.Category
		}
		if body.Amount != nil {
			e.Amount = *body.Amount
		}
		if body.SpentOn != nil {
			if e.SpentOn, err = httpx.ParseDate("spent_on", *body.SpentOn); err != nil {
				return err
			}
		}
		if body.Supplier != nil {
			e.Supplier = trimOptional(body.Supplier)
		}
		if body.Notes != nil {
			e.Notes = *body.Notes
		}

		if err := expenses.Update(c.UserContext(), e); err != nil {
			return err
		}

		resp := toResponse(e)
		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "expense",
			EntityID:    e.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Expense updated: %s", e.Description),
			Before:      before,
			After:       resp,
		})

		return c.JSON(resp)
	}
}

// DELETE /api/expenses/:id
func DeleteExpenseHandler(expenses repository.ExpenseRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		e, err := expenses.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "expense")
		}

		if err := expenses.Delete(c.UserContext(), farmerID, id); err != nil {
			return httpx.NotFound(err, "expense")
		}

		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "expense",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Expense deleted: %s", e.Description),
			Before:      toResponse(e),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
