package commerce

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a synced catalog product
type Product struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Title          string
	Handle         string
	ProductType    string
	Vendor         string
	ImageURL       string
}

// ProductVariant is a sellable variant of a product
type ProductVariant struct {
	ID                uuid.UUID
	OrganizationID    uuid.UUID
	ProductID         uuid.UUID
	SKU               string
	Title             string
	Price             decimal.Decimal
	CompareAtPrice    *decimal.Decimal
	Cost              *decimal.Decimal // per-unit override set by the merchant
	InventoryQuantity int64            // legacy quantity, used when no inventory level is synced
}

// InventoryLevel is a per-location stock record for a variant
type InventoryLevel struct {
	ID         uuid.UUID
	VariantID  uuid.UUID
	LocationID string
	Available  int64
	Committed  int64
	Incoming   int64
}

// CostComponent carries merchant supplied unit economics for a variant
type CostComponent struct {
	VariantID       uuid.UUID
	COGSPerUnit     *decimal.Decimal
	HandlingPerUnit decimal.Decimal
	TaxPercent      decimal.Decimal
}

// StockPosition is the effective stock of a variant across all locations
type StockPosition struct {
	Available int64
	Committed int64
	Incoming  int64
}

// OnHand returns available plus committed units
func (p StockPosition) OnHand() int64 {
	return p.Available + p.Committed
}

// ResolveStock merges the inventory levels of a variant with its legacy quantity.
// Levels are authoritative unless their available sum is smaller than the legacy
// quantity. Negative stock is floored at zero.
func ResolveStock(variant ProductVariant, levels []InventoryLevel) StockPosition {
	legacy := max(variant.InventoryQuantity, 0)
	if len(levels) == 0 {
		return StockPosition{Available: legacy}
	}

	var pos StockPosition
	for _, l := range levels {
		pos.Available += l.Available
		pos.Committed += l.Committed
		pos.Incoming += l.Incoming
	}
	pos.Available = max(pos.Available, legacy, 0)
	pos.Committed = max(pos.Committed, 0)
	pos.Incoming = max(pos.Incoming, 0)
	return pos
}
