// Package calc holds the derived values of crops and harvests. Nothing here is
// stored; every read recomputes from the records.
package calc

import (
	"agri-backend/internal/models"

	"github.com/shopspring/decimal"
)

// CropTotalInitialCost is seed cost plus labor cost.
func CropTotalInitialCost(c models.Crop) decimal.Decimal {
	return c.SeedCost.Add(c.LaborCost)
}

// YieldPerArea divides a harvested quantity by an area in hectares.
// A non-positive area yields zero.
func YieldPerArea(harvested, area decimal.Decimal) decimal.Decimal {
	if !area.IsPositive() {
		return decimal.Zero
	}
	return harvested.Div(area)
}

// CropYieldPerArea is the summed harvest quantity of a crop divided by its area.
func CropYieldPerArea(c models.Crop, harvests []models.Harvest) decimal.Decimal {
	return YieldPerArea(TotalHarvested(harvests), c.Area)
}

func TotalHarvested(harvests []models.Harvest) decimal.Decimal {
	total := decimal.Zero
	for _, h := range harvests {
		total = total.Add(h.Quantity)
	}
	return total
}

// HarvestRevenue is quantity times unit price.
func HarvestRevenue(h models.Harvest) decimal.Decimal {
	return h.Quantity.Mul(h.UnitPrice)
}

// HarvestNetProfit is revenue minus the expenses linked to the harvest. It may be negative.
func HarvestNetProfit(h models.Harvest) decimal.Decimal {
	return HarvestRevenue(h).Sub(h.LinkedExpenses)
}

// CropRevenue sums the revenue of each harvest. Summing quantities and prices
// separately and multiplying the totals is not the same value.
func CropRevenue(harvests []models.Harvest) decimal.Decimal {
	total := decimal.Zero
	for _, h := range harvests {
		total = total.Add(HarvestRevenue(h))
	}
	return total
}

// Money formats an amount with two decimals, the way every amount leaves the API.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
