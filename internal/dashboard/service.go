// Package dashboard aggregates a farmer's records into the stats snapshot and
// the chart series. It reads through repository.ReportRepository only.
package dashboard

import (
	"context"
	"time"

	"agri-backend/internal/calc"
	"agri-backend/internal/metrics"
	"agri-backend/internal/repository"

	"github.com/shopspring/decimal"
)

// NoCrop is reported as the most profitable crop when no crop has revenue.
const NoCrop = "none"

const chartMonths = 12

type Stats struct {
	TotalCrops         int64   `json:"total_crops"`
	TotalHarvests      int64   `json:"total_harvests"`
	TotalRevenue       string  `json:"total_revenue"`
	TotalExpenses      string  `json:"total_expenses"`
	NetProfit          string  `json:"net_profit"`
	MostProfitableCrop string  `json:"most_profitable_crop"`
	AverageYield       float64 `json:"average_yield"`
	UnreadAdvisories   int64   `json:"unread_advisories"`
}

type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type MonthlyExpenses struct {
	Month    string  `json:"month"`
	Expenses float64 `json:"expenses"`
}

type CropYield struct {
	Name  string  `json:"name"`
	Yield float64 `json:"yield"`
	Area  float64 `json:"area"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type Charts struct {
	MonthlyRevenue     []MonthlyRevenue  `json:"monthly_revenue"`
	MonthlyExpenses    []MonthlyExpenses `json:"monthly_expenses"`
	CropYields         []CropYield       `json:"crop_yields"`
	ExpensesByCategory []CategoryTotal   `json:"expenses_by_category"`
}

type Service struct {
	reports repository.ReportRepository
	loc     *time.Location
	now     func() time.Time
}

// NewService builds the engine. loc decides where calendar months start.
func NewService(reports repository.ReportRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{reports: reports, loc: loc, now: time.Now}
}

// Stats computes the totals snapshot inside one read transaction.
func (s *Service) Stats(ctx context.Context, farmerID uint) (*Stats, error) {
	defer metrics.TrackReport("stats")()

	var out Stats
	err := s.reports.ReadConsistent(ctx, func(r repository.ReportRepository) error {
		var err error
		if out.TotalCrops, err = r.CountCrops(ctx, farmerID); err != nil {
			return err
		}
		if out.TotalHarvests, err = r.CountHarvests(ctx, farmerID); err != nil {
			return err
		}
		if out.UnreadAdvisories, err = r.CountUnreadAdvisories(ctx, farmerID); err != nil {
			return err
		}

		revenue, err := r.SumRevenue(ctx, farmerID, repository.DateRange{})
		if err != nil {
			return err
		}
		cropCosts, err := r.SumCropCosts(ctx, farmerID)
		if err != nil {
			return err
		}
		linked, err := r.SumLinkedExpenses(ctx, farmerID)
		if err != nil {
			return err
		}
		standalone, err := r.SumExpenses(ctx, farmerID, repository.DateRange{})
		if err != nil {
			return err
		}
		expenses := cropCosts.Add(linked).Add(standalone)

		perf, err := r.CropPerformance(ctx, farmerID)
		if err != nil {
			return err
		}

		out.TotalRevenue = calc.Money(revenue)
		out.TotalExpenses = calc.Money(expenses)
		out.NetProfit = calc.Money(revenue.Sub(expenses))
		out.MostProfitableCrop = mostProfitable(perf)
		out.AverageYield = averageYield(perf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// mostProfitable expects perf ordered by id; on equal profit the first crop wins.
func mostProfitable(perf []repository.CropPerformance) string {
	best := NoCrop
	var bestProfit decimal.Decimal
	found := false
	for _, p := range perf {
		if !p.Revenue.IsPositive() {
			continue
		}
		profit := p.Revenue.Sub(p.SeedCost).Sub(p.LaborCost).Sub(p.CropExpenses)
		if !found || profit.GreaterThan(bestProfit) {
			best, bestProfit, found = p.Name, profit, true
		}
	}
	return best
}

// averageYield is the unweighted mean yield of crops with an area and at least one harvest.
func averageYield(perf []repository.CropPerformance) float64 {
	sum := decimal.Zero
	n := int64(0)
	for _, p := range perf {
		if !p.Area.IsPositive() || p.HarvestCount == 0 {
			continue
		}
		sum = sum.Add(calc.YieldPerArea(p.Harvested, p.Area))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(n)).Round(2).InexactFloat64()
}

// Charts computes the chart series inside one read transaction.
func (s *Service) Charts(ctx context.Context, farmerID uint) (*Charts, error) {
	defer metrics.TrackReport("charts")()

	out := Charts{
		MonthlyRevenue:     make([]MonthlyRevenue, 0, chartMonths),
		MonthlyExpenses:    make([]MonthlyExpenses, 0, chartMonths),
		CropYields:         []CropYield{},
		ExpensesByCategory: []CategoryTotal{},
	}

	err := s.reports.ReadConsistent(ctx, func(r repository.ReportRepository) error {
		for _, m := range s.months() {
			revenue, err := r.SumRevenue(ctx, farmerID, m)
			if err != nil {
				return err
			}
			expenses, err := r.SumExpenses(ctx, farmerID, m)
			if err != nil {
				return err
			}
			label := m.From.Format("2006-01")
			out.MonthlyRevenue = append(out.MonthlyRevenue, MonthlyRevenue{Month: label, Revenue: revenue.InexactFloat64()})
			out.MonthlyExpenses = append(out.MonthlyExpenses, MonthlyExpenses{Month: label, Expenses: expenses.InexactFloat64()})
		}

		perf, err := r.CropPerformance(ctx, farmerID)
		if err != nil {
			return err
		}
		for _, p := range perf {
			if !p.Area.IsPositive() {
				continue
			}
			out.CropYields = append(out.CropYields, CropYield{
				Name:  p.Name,
				Yield: calc.YieldPerArea(p.Harvested, p.Area).Round(2).InexactFloat64(),
				Area:  p.Area.InexactFloat64(),
			})
		}

		totals, err := r.ExpensesByCategory(ctx, farmerID)
		if err != nil {
			return err
		}
		for _, t := range totals {
			out.ExpensesByCategory = append(out.ExpensesByCategory, CategoryTotal{
				Category: string(t.Category),
				Total:    t.Total.InexactFloat64(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// months returns the trailing calendar months, oldest first, current month last.
func (s *Service) months() []repository.DateRange {
	y, m, _ := s.now().In(s.loc).Date()
	current := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)

	out := make([]repository.DateRange, 0, chartMonths)
	for i := chartMonths - 1; i >= 0; i-- {
		from := current.AddDate(0, -i, 0)
		out = append(out, repository.DateRange{From: from, To: from.AddDate(0, 1, 0)})
	}
	return out
}
