package commerce

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Financial statuses that remove an order from revenue and order counts
const (
	FinancialStatusCancelled = "cancelled"
	FinancialStatusVoided    = "voided"
)

// Order is a synced storefront order
type Order struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	CustomerID      *uuid.UUID
	TotalPrice      decimal.Decimal
	FinancialStatus string
	CreatedAt       time.Time
}

// IsCancelled reports whether the order is excluded from revenue aggregation
func (o Order) IsCancelled() bool {
	switch strings.ToLower(strings.TrimSpace(o.FinancialStatus)) {
	case FinancialStatusCancelled, FinancialStatusVoided:
		return true
	}
	return false
}

// OrderItem is a single line of an order
type OrderItem struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	VariantID     *uuid.UUID
	Quantity      int64
	Price         decimal.Decimal // unit price
	TotalDiscount decimal.Decimal
}

// LineRevenue returns max(0, price*quantity - discount)
func (i OrderItem) LineRevenue() decimal.Decimal {
	gross := i.Price.Mul(decimal.NewFromInt(i.Quantity)).Sub(i.TotalDiscount)
	if gross.IsNegative() {
		return decimal.Zero
	}
	return gross
}
