package snapshot

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockStatus is the health tier of a product's stock
type StockStatus string

const (
	StockStatusHealthy  StockStatus = "healthy"
	StockStatusLow      StockStatus = "low"
	StockStatusCritical StockStatus = "critical"
	StockStatusOut      StockStatus = "out"
)

// Replenishment constants, in days or units
const (
	LeadTimeDays         = 7
	SafetyStockDays      = 3
	CriticalCoverageDays = 3
	CriticalStockUnits   = 5
	LowStockUnits        = 20

	// idleCoverageDays is reported when stock exists but nothing sells
	idleCoverageDays = 90
)

var (
	daysPerYear      = decimal.NewFromInt(365)
	replenishHorizon = decimal.NewFromInt(LeadTimeDays + SafetyStockDays)
)

// AverageDailySales returns units sold per day over the window
func AverageDailySales(unitsSold int64, windowDays int) decimal.Decimal {
	if unitsSold <= 0 || windowDays <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(unitsSold).Div(decimal.NewFromInt(int64(windowDays)))
}

// ClassifyStock tiers available stock by days of coverage, or by absolute
// quantity when there is no sales velocity.
func ClassifyStock(available int64, avgDailySales decimal.Decimal) StockStatus {
	if available <= 0 {
		return StockStatusOut
	}
	if avgDailySales.IsPositive() {
		coverage := decimal.NewFromInt(available).Div(avgDailySales)
		switch {
		case coverage.LessThanOrEqual(decimal.NewFromInt(CriticalCoverageDays)):
			return StockStatusCritical
		case coverage.LessThanOrEqual(replenishHorizon):
			return StockStatusLow
		default:
			return StockStatusHealthy
		}
	}
	switch {
	case available < CriticalStockUnits:
		return StockStatusCritical
	case available < LowStockUnits:
		return StockStatusLow
	default:
		return StockStatusHealthy
	}
}

// ReorderPoint returns the units at which to reorder, or 0 with no velocity
func ReorderPoint(avgDailySales decimal.Decimal) int64 {
	if !avgDailySales.IsPositive() {
		return 0
	}
	return max(avgDailySales.Mul(replenishHorizon).Round(0).IntPart(), 1)
}

// TurnoverRate returns the annualized stock turnover, rounded to 1 decimal
func TurnoverRate(unitsSold, available int64, windowDays int) decimal.Decimal {
	if available <= 0 || windowDays <= 0 || unitsSold <= 0 {
		return decimal.Zero
	}
	annualized := decimal.NewFromInt(unitsSold).Mul(daysPerYear).Div(decimal.NewFromInt(int64(windowDays)))
	return annualized.Div(decimal.NewFromInt(available)).Round(1)
}

// CoverageDays returns whole days of stock at the given velocity. With no
// velocity it is 90 when any stock exists, else 0.
func CoverageDays(available int64, avgDailySales decimal.Decimal) int64 {
	if available <= 0 {
		return 0
	}
	if !avgDailySales.IsPositive() {
		return idleCoverageDays
	}
	return decimal.NewFromInt(available).Div(avgDailySales).Round(0).IntPart()
}

// WeightedCost is one variant's contribution to a weighted average cost
type WeightedCost struct {
	Cost      decimal.Decimal
	Available int64
}

// WeightedAverageCost weights each cost by available stock. Variants without
// stock weigh 1 so an all-out product still has a cost.
func WeightedAverageCost(entries []WeightedCost) decimal.Decimal {
	var sum, weights decimal.Decimal
	for _, e := range entries {
		w := decimal.NewFromInt(max(e.Available, 1))
		sum = sum.Add(nonNegative(e.Cost).Mul(w))
		weights = weights.Add(w)
	}
	if weights.IsZero() {
		return decimal.Zero
	}
	return sum.Div(weights).Round(4)
}

// Margin returns (price - cost) / price as a percentage with 2 decimals
func Margin(price, cost decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(cost).Div(price).Mul(decimal.NewFromInt(100)).Round(2)
}

// DeadStock is the set of in-stock variants with no recent sales
type DeadStock map[uuid.UUID]struct{}

// DetectDeadStock returns the variants holding stock that are absent from the
// trailing sold set.
func DetectDeadStock(available map[uuid.UUID]int64, sold []uuid.UUID) DeadStock {
	soldSet := make(map[uuid.UUID]struct{}, len(sold))
	for _, id := range sold {
		soldSet[id] = struct{}{}
	}
	dead := make(DeadStock)
	for id, qty := range available {
		if qty <= 0 {
			continue
		}
		if _, ok := soldSet[id]; !ok {
			dead[id] = struct{}{}
		}
	}
	return dead
}

// Contains reports whether a variant is dead stock
func (d DeadStock) Contains(id uuid.UUID) bool {
	_, ok := d[id]
	return ok
}
