// Package history merges crops, harvests and expenses into one dated timeline.
package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"agri-backend/internal/calc"
	"agri-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindCrop    Kind = "crop"
	KindHarvest Kind = "harvest"
	KindExpense Kind = "expense"
)

// Activity is one timeline entry. Costs carry a negative amount.
type Activity struct {
	Kind        Kind
	ID          uint
	Date        time.Time
	Title       string
	Description string
	Amount      decimal.Decimal
	Zone        string
}

type Filter struct {
	Kind Kind // empty means every kind
	repository.DateRange
	Query string // case-insensitive match on title or description
}

type Service struct {
	crops    repository.CropRepository
	harvests repository.HarvestRepository
	expenses repository.ExpenseRepository
}

func NewService(crops repository.CropRepository, harvests repository.HarvestRepository, expenses repository.ExpenseRepository) *Service {
	return &Service{crops: crops, harvests: harvests, expenses: expenses}
}

// Timeline lists the farmer's activities, newest first.
func (s *Service) Timeline(ctx context.Context, farmerID uint, f Filter) ([]Activity, error) {
	var out []Activity

	if f.Kind == "" || f.Kind == KindCrop {
		crops, err := s.crops.List(ctx, farmerID, repository.CropFilter{DateRange: f.DateRange})
		if err != nil {
			return nil, err
		}
		for _, c := range crops {
			out = append(out, Activity{
				Kind:        KindCrop,
				ID:          c.ID,
				Date:        c.PlantedOn,
				Title:       "Crop: " + c.Name,
				Description: fmt.Sprintf("Planted %s %s on %s ha", calc.Money(c.QuantitySown), c.SowingUnit, calc.Money(c.Area)),
				Amount:      calc.CropTotalInitialCost(c).Neg(),
				Zone:        c.Zone,
			})
		}
	}

	if f.Kind == "" || f.Kind == KindHarvest {
		harvests, err := s.harvests.List(ctx, farmerID, repository.HarvestFilter{DateRange: f.DateRange})
		if err != nil {
			return nil, err
		}
		for _, h := range harvests {
			out = append(out, Activity{
				Kind:        KindHarvest,
				ID:          h.ID,
				Date:        h.HarvestedOn,
				Title:       "Harvest: " + h.Crop.Name,
				Description: fmt.Sprintf("Harvested %s %s", calc.Money(h.Quantity), h.Unit),
				Amount:      calc.HarvestRevenue(h),
				Zone:        h.Crop.Zone,
			})
		}
	}

	if f.Kind == "" || f.Kind == KindExpense {
		expenses, err := s.expenses.List(ctx, farmerID, repository.ExpenseFilter{DateRange: f.DateRange})
		if err != nil {
			return nil, err
		}
		for _, e := range expenses {
			out = append(out, Activity{
				Kind:        KindExpense,
				ID:          e.ID,
				Date:        e.SpentOn,
				Title:       "Expense: " + e.Description,
				Description: "Category: " + string(e.Category),
				Amount:      e.Amount.Neg(),
			})
		}
	}

	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		kept := out[:0]
		for _, a := range out {
			if strings.Contains(strings.ToLower(a.Title), q) || strings.Contains(strings.ToLower(a.Description), q) {
				kept = append(kept, a)
			}
		}
		out = kept
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID > b.ID
	})

	if out == nil {
		out = []Activity{}
	}
	return out, nil
}
