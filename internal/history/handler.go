package history

import (
	"fmt"
	"strings"
	"time"

	"agri-backend/internal/auth"
	"agri-backend/internal/calc"
	"agri-backend/internal/httpx"
	"agri-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type ActivityResponse struct {
	Kind        string `json:"kind"`
	ID          uint   `json:"id"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Zone        string `json:"zone"`
}

func parseFilter(c *fiber.Ctx) (Filter, error) {
	var f Filter

	switch k := Kind(strings.TrimSpace(c.Query("kind"))); k {
	case "", KindCrop, KindHarvest, KindExpense:
		f.Kind = k
	default:
		return f, validation.NewFieldError("kind", "must be one of crop harvest expense")
	}

	dr, err := httpx.QueryDateRange(c)
	if err != nil {
		return f, err
	}
	f.DateRange = dr
	f.Query = c.Query("q")
	return f, nil
}

// GET /api/history?kind=harvest&from=2024-01-01&to=2024-12-31&q=maize
func TimelineHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		f, err := parseFilter(c)
		if err != nil {
			return err
		}

		activities, err := svc.Timeline(c.UserContext(), farmerID, f)
		if err != nil {
			return err
		}

		res := make([]ActivityResponse, 0, len(activities))
		for _, a := range activities {
			res = append(res, ActivityResponse{
				Kind:        string(a.Kind),
				ID:          a.ID,
				Date:        httpx.FormatDate(a.Date),
				Title:       a.Title,
				Description: a.Description,
				Amount:      calc.Money(a.Amount),
				Zone:        a.Zone,
			})
		}
		return c.JSON(res)
	}
}

// GET /api/history/export?format=csv|xlsx plus the timeline filters
func ExportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		f, err := parseFilter(c)
		if err != nil {
			return err
		}

		format := strings.ToLower(c.Query("format", "csv"))
		if format != "csv" && format != "xlsx" {
			return validation.NewFieldError("format", "must be csv or xlsx")
		}

		activities, err := svc.Timeline(c.UserContext(), farmerID, f)
		if err != nil {
			return err
		}

		var (
			body        []byte
			contentType string
		)
		if format == "xlsx" {
			body, err = WriteXLSX(activities)
			contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		} else {
			body, err = WriteCSV(activities)
			contentType = "text/csv; charset=utf-8"
		}
		if err != nil {
			return err
		}

		filename := fmt.Sprintf("history_%s.%s", time.Now().Format("2006-01-02"), format)
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		return c.Send(body)
	}
}
