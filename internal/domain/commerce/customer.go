package commerce

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a synced storefront customer
type Customer struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	OrdersCount    int64
	TotalSpent     decimal.Decimal
	City           string
	Country        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName joins the non-empty name parts
func (c Customer) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// AdInsight is one day of ad platform delivery totals
type AdInsight struct {
	OrganizationID uuid.UUID
	Date           time.Time
	Impressions    int64
	Clicks         int64
	Conversions    int64
	Spend          decimal.Decimal
}

// AdTotals sums ad insights over a window
type AdTotals struct {
	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	Conversions int64           `json:"conversions"`
	Spend       decimal.Decimal `json:"spend"`
}

// Organization is a merchant account whose data is snapshotted
type Organization struct {
	ID     uuid.UUID
	Name   string
	Active bool
}
