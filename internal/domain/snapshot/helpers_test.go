package snapshot

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storepulse/backend/internal/domain/commerce"
)

var (
	testOrgID = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	testNow   = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func testWindow() Window {
	w, err := NewWindow(testNow, 30, nil, nil)
	if err != nil {
		panic(err)
	}
	return w
}

func variant(productID uuid.UUID, price string, qty int64) commerce.ProductVariant {
	return commerce.ProductVariant{
		ID:                uuid.New(),
		OrganizationID:    testOrgID,
		ProductID:         productID,
		SKU:               "SKU-" + price,
		Price:             dec(price),
		InventoryQuantity: qty,
	}
}

func paidOrder(at time.Time, total string) commerce.Order {
	return commerce.Order{
		ID:              uuid.New(),
		OrganizationID:  testOrgID,
		TotalPrice:      dec(total),
		FinancialStatus: "paid",
		CreatedAt:       at,
	}
}

func line(order commerce.Order, v commerce.ProductVariant, qty int64, price string) commerce.OrderItem {
	return commerce.OrderItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		VariantID: idPtr(v.ID),
		Quantity:  qty,
		Price:     dec(price),
	}
}
