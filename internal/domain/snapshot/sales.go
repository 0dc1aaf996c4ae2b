package snapshot

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storepulse/backend/internal/domain/commerce"
)

// SalesTotals accumulates sales of a variant or product
type SalesTotals struct {
	Units      int64
	Revenue    decimal.Decimal
	Cost       decimal.Decimal
	LastSoldAt *time.Time
}

func (t SalesTotals) add(units int64, revenue, cost decimal.Decimal, soldAt time.Time) SalesTotals {
	t.Units += units
	t.Revenue = t.Revenue.Add(revenue)
	t.Cost = t.Cost.Add(cost)
	if t.LastSoldAt == nil || soldAt.After(*t.LastSoldAt) {
		at := soldAt
		t.LastSoldAt = &at
	}
	return t
}

func (t SalesTotals) merge(o SalesTotals) SalesTotals {
	t.Units += o.Units
	t.Revenue = t.Revenue.Add(o.Revenue)
	t.Cost = t.Cost.Add(o.Cost)
	if o.LastSoldAt != nil && (t.LastSoldAt == nil || o.LastSoldAt.After(*t.LastSoldAt)) {
		at := *o.LastSoldAt
		t.LastSoldAt = &at
	}
	return t
}

// SalesAggregate holds per-variant and per-product sales for a window
type SalesAggregate struct {
	ByVariant    map[uuid.UUID]SalesTotals
	ByProduct    map[uuid.UUID]SalesTotals
	TotalUnits   int64
	TotalRevenue decimal.Decimal
	OrderCount   int
}

// SalesAggregator attributes order lines to variants and products
type SalesAggregator struct {
	costs    *CostResolver
	variants map[uuid.UUID]commerce.ProductVariant
}

// NewSalesAggregator creates an aggregator over the organization's variants
func NewSalesAggregator(costs *CostResolver, variants []commerce.ProductVariant) *SalesAggregator {
	byID := make(map[uuid.UUID]commerce.ProductVariant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}
	return &SalesAggregator{costs: costs, variants: byID}
}

// Aggregate sums line revenue and cost of non-cancelled orders. Lines without a
// known variant or owning order are skipped.
func (a *SalesAggregator) Aggregate(orders []commerce.Order, items []commerce.OrderItem) SalesAggregate {
	agg := SalesAggregate{
		ByVariant: make(map[uuid.UUID]SalesTotals),
		ByProduct: make(map[uuid.UUID]SalesTotals),
	}

	active := make(map[uuid.UUID]commerce.Order, len(orders))
	for _, o := range orders {
		if o.IsCancelled() {
			continue
		}
		active[o.ID] = o
	}
	agg.OrderCount = len(active)

	for _, item := range items {
		if item.VariantID == nil || item.Quantity <= 0 {
			continue
		}
		order, ok := active[item.OrderID]
		if !ok {
			continue
		}
		variant, ok := a.variants[*item.VariantID]
		if !ok {
			continue
		}

		revenue := item.LineRevenue()
		cost := a.costs.Resolve(variant).Mul(decimal.NewFromInt(item.Quantity))
		agg.ByVariant[variant.ID] = agg.ByVariant[variant.ID].add(item.Quantity, revenue, cost, order.CreatedAt)
		agg.TotalUnits += item.Quantity
		agg.TotalRevenue = agg.TotalRevenue.Add(revenue)
	}

	for variantID, totals := range agg.ByVariant {
		productID := a.variants[variantID].ProductID
		agg.ByProduct[productID] = agg.ByProduct[productID].merge(totals)
	}
	return agg
}
