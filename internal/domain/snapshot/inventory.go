package snapshot

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storepulse/backend/internal/domain/commerce"
)

// VariantRollup is the per-variant detail stored with a product summary
type VariantRollup struct {
	VariantID  uuid.UUID       `json:"variant_id"`
	SKU        string          `json:"sku"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Cost       decimal.Decimal `json:"cost"`
	CostSource CostSource      `json:"cost_source"`
	Available  int64           `json:"available"`
	Reserved   int64           `json:"reserved"`
	Incoming   int64           `json:"incoming"`
	UnitsSold  int64           `json:"units_sold"`
	Revenue    decimal.Decimal `json:"revenue"`
	LastSoldAt *time.Time      `json:"last_sold_at,omitempty"`
	DeadStock  bool            `json:"dead_stock"`
}

// ProductInventorySummary is the materialized inventory health of one product
type ProductInventorySummary struct {
	OrganizationID uuid.UUID       `json:"organization_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Title          string          `json:"title"`
	Handle         string          `json:"handle"`
	ProductType    string          `json:"product_type"`
	Vendor         string          `json:"vendor"`
	ImageURL       string          `json:"image_url,omitempty"`
	VariantCount   int             `json:"variant_count"`
	StockOnHand    int64           `json:"stock_on_hand"`
	Available      int64           `json:"available"`
	Reserved       int64           `json:"reserved"`
	Incoming       int64           `json:"incoming"`
	ReorderPoint   int64           `json:"reorder_point"`
	StockStatus    StockStatus     `json:"stock_status"`
	Price          decimal.Decimal `json:"price"`
	WeightedCost   decimal.Decimal `json:"weighted_cost"`
	Margin         decimal.Decimal `json:"margin"` // Percentage
	TurnoverRate   decimal.Decimal `json:"turnover_rate"`
	AvgDailySales  decimal.Decimal `json:"avg_daily_sales"`
	UnitsSold      int64           `json:"units_sold"`
	Revenue        decimal.Decimal `json:"revenue"`
	COGS           decimal.Decimal `json:"cogs"`
	LastSoldAt     *time.Time      `json:"last_sold_at,omitempty"`
	ABCTier        ABCTier         `json:"abc_tier"`
	Variants       []VariantRollup `json:"variants"`
	WindowDays     int             `json:"window_days"`
	ComputedAt     time.Time       `json:"computed_at"`
}

// InventoryOverviewSummary is the organization-level inventory rollup
type InventoryOverviewSummary struct {
	OrganizationID      uuid.UUID       `json:"organization_id"`
	TotalInventoryValue decimal.Decimal `json:"total_inventory_value"`
	TotalCOGS           decimal.Decimal `json:"total_cogs"`
	TotalUnitsInStock   int64           `json:"total_units_in_stock"`
	TotalUnitsSold      int64           `json:"total_units_sold"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalSKUs           int             `json:"total_skus"`
	TotalProducts       int             `json:"total_products"`
	StockCoverageDays   int64           `json:"stock_coverage_days"`
	DeadStockCount      int             `json:"dead_stock_count"`
	HealthyCount        int             `json:"healthy_count"`
	LowStockCount       int             `json:"low_stock_count"`
	CriticalCount       int             `json:"critical_count"`
	OutOfStockCount     int             `json:"out_of_stock_count"`
	TierACount          int             `json:"tier_a_count"`
	TierBCount          int             `json:"tier_b_count"`
	TierCCount          int             `json:"tier_c_count"`
	WindowStart         time.Time       `json:"window_start"`
	WindowEnd           time.Time       `json:"window_end"`
	WindowDays          int             `json:"window_days"`
	ComputedAt          time.Time       `json:"computed_at"`
}

// InventoryInput is everything an inventory rebuild reads
type InventoryInput struct {
	Products []commerce.Product
	Variants []commerce.ProductVariant
	Levels   []commerce.InventoryLevel
	Costs    *CostResolver
	Orders   []commerce.Order // created inside the window
	Items    []commerce.OrderItem
	// RecentlySold are variants ordered within the dead stock horizon
	RecentlySold []uuid.UUID
}

// InventorySnapshot is the full replacement set for one organization
type InventorySnapshot struct {
	Metadata Metadata
	Products []ProductInventorySummary
	Overview InventoryOverviewSummary
}

// ComputeInventorySnapshot derives every inventory summary in memory.
// It is deterministic for identical inputs and computedAt.
func ComputeInventorySnapshot(orgID uuid.UUID, in InventoryInput, w Window, computedAt time.Time) InventorySnapshot {
	costs := in.Costs
	if costs == nil {
		costs = NewCostResolver(nil)
	}

	levelsByVariant := make(map[uuid.UUID][]commerce.InventoryLevel)
	for _, l := range in.Levels {
		levelsByVariant[l.VariantID] = append(levelsByVariant[l.VariantID], l)
	}

	variants := sortedVariants(in.Variants)
	positions := make(map[uuid.UUID]commerce.StockPosition, len(variants))
	available := make(map[uuid.UUID]int64, len(variants))
	variantsByProduct := make(map[uuid.UUID][]commerce.ProductVariant)
	for _, v := range variants {
		pos := commerce.ResolveStock(v, levelsByVariant[v.ID])
		positions[v.ID] = pos
		available[v.ID] = pos.Available
		variantsByProduct[v.ProductID] = append(variantsByProduct[v.ProductID], v)
	}

	sales := NewSalesAggregator(costs, variants).Aggregate(in.Orders, in.Items)
	dead := DetectDeadStock(available, in.RecentlySold)

	overview := InventoryOverviewSummary{
		OrganizationID: orgID,
		TotalSKUs:      len(variants),
		DeadStockCount: len(dead),
		WindowStart:    w.Start,
		WindowEnd:      w.End,
		WindowDays:     w.Days,
		ComputedAt:     computedAt,
	}
	for _, v := range variants {
		pos := positions[v.ID]
		units := decimal.NewFromInt(pos.Available)
		overview.TotalInventoryValue = overview.TotalInventoryValue.Add(units.Mul(nonNegative(v.Price)))
		overview.TotalCOGS = overview.TotalCOGS.Add(units.Mul(costs.Resolve(v)))
		overview.TotalUnitsInStock += pos.Available
	}
	overview.TotalUnitsSold = sales.TotalUnits
	overview.TotalRevenue = sales.TotalRevenue
	overview.StockCoverageDays = CoverageDays(overview.TotalUnitsInStock, AverageDailySales(sales.TotalUnits, w.Days))

	products := sortedProducts(in.Products)
	summaries := make([]ProductInventorySummary, 0, len(products))
	abcItems := make([]ABCItem, 0, len(products))
	for _, p := range products {
		s := summarizeProduct(orgID, p, variantsByProduct[p.ID], positions, sales, dead, costs, w)
		s.ComputedAt = computedAt
		summaries = append(summaries, s)
		abcItems = append(abcItems, ABCItem{ID: p.ID, Revenue: s.Revenue, Units: s.UnitsSold})
	}

	tiers := ClassifyABC(abcItems)
	for i := range summaries {
		summaries[i].ABCTier = tiers[summaries[i].ProductID]
		overview.countProduct(summaries[i])
	}
	overview.TotalProducts = len(summaries)

	return InventorySnapshot{
		Metadata: Metadata{
			OrganizationID:     orgID,
			Kind:               KindInventory,
			ComputedAt:         computedAt,
			AnalysisWindowDays: w.Days,
			WindowStart:        w.Start,
			WindowEnd:          w.End,
			RowCount:           len(summaries),
		},
		Products: summaries,
		Overview: overview,
	}
}

func summarizeProduct(
	orgID uuid.UUID,
	p commerce.Product,
	variants []commerce.ProductVariant,
	positions map[uuid.UUID]commerce.StockPosition,
	sales SalesAggregate,
	dead DeadStock,
	costs *CostResolver,
	w Window,
) ProductInventorySummary {
	s := ProductInventorySummary{
		OrganizationID: orgID,
		ProductID:      p.ID,
		Title:          p.Title,
		Handle:         p.Handle,
		ProductType:    p.ProductType,
		Vendor:         p.Vendor,
		ImageURL:       p.ImageURL,
		VariantCount:   len(variants),
		WindowDays:     w.Days,
		Variants:       make([]VariantRollup, 0, len(variants)),
	}

	weighted := make([]WeightedCost, 0, len(variants))
	for i, v := range variants {
		pos := positions[v.ID]
		cost, source := costs.ResolveWithSource(v)
		sold := sales.ByVariant[v.ID]

		price := nonNegative(v.Price)
		if i == 0 || price.LessThan(s.Price) {
			s.Price = price
		}
		s.Available += pos.Available
		s.Reserved += pos.Committed
		s.Incoming += pos.Incoming
		weighted = append(weighted, WeightedCost{Cost: cost, Available: pos.Available})

		s.Variants = append(s.Variants, VariantRollup{
			VariantID:  v.ID,
			SKU:        v.SKU,
			Title:      v.Title,
			Price:      price,
			Cost:       cost,
			CostSource: source,
			Available:  pos.Available,
			Reserved:   pos.Committed,
			Incoming:   pos.Incoming,
			UnitsSold:  sold.Units,
			Revenue:    sold.Revenue,
			LastSoldAt: sold.LastSoldAt,
			DeadStock:  dead.Contains(v.ID),
		})
	}
	s.StockOnHand = s.Available + s.Reserved

	totals := sales.ByProduct[p.ID]
	s.UnitsSold = totals.Units
	s.Revenue = totals.Revenue
	s.COGS = totals.Cost
	s.LastSoldAt = totals.LastSoldAt

	s.WeightedCost = WeightedAverageCost(weighted)
	s.Margin = Margin(s.Price, s.WeightedCost)
	s.AvgDailySales = AverageDailySales(s.UnitsSold, w.Days)
	s.StockStatus = ClassifyStock(s.Available, s.AvgDailySales)
	s.ReorderPoint = ReorderPoint(s.AvgDailySales)
	s.TurnoverRate = TurnoverRate(s.UnitsSold, s.Available, w.Days)
	s.AvgDailySales = s.AvgDailySales.Round(4)
	return s
}

func (o *InventoryOverviewSummary) countProduct(s ProductInventorySummary) {
	switch s.StockStatus {
	case StockStatusHealthy:
		o.HealthyCount++
	case StockStatusLow:
		o.LowStockCount++
	case StockStatusCritical:
		o.CriticalCount++
	case StockStatusOut:
		o.OutOfStockCount++
	}
	switch s.ABCTier {
	case ABCTierA:
		o.TierACount++
	case ABCTierB:
		o.TierBCount++
	case ABCTierC:
		o.TierCCount++
	}
}

func sortedProducts(products []commerce.Product) []commerce.Product {
	out := make([]commerce.Product, len(products))
	copy(out, products)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func sortedVariants(variants []commerce.ProductVariant) []commerce.ProductVariant {
	out := make([]commerce.ProductVariant, len(variants))
	copy(out, variants)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
