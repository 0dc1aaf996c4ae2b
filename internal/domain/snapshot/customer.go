package snapshot

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storepulse/backend/internal/domain/commerce"
)

// CustomerMetricsSummary is the materialized lifetime and period view of one customer
type CustomerMetricsSummary struct {
	OrganizationID     uuid.UUID       `json:"organization_id"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	FullName           string          `json:"full_name"`
	Email              string          `json:"email"`
	City               string          `json:"city,omitempty"`
	Country            string          `json:"country,omitempty"`
	LifetimeOrders     int64           `json:"lifetime_orders"`
	LifetimeValue      decimal.Decimal `json:"lifetime_value"`
	AverageOrderValue  decimal.Decimal `json:"average_order_value"`
	PeriodOrders       int64           `json:"period_orders"`
	PeriodRevenue      decimal.Decimal `json:"period_revenue"`
	FirstOrderAt       *time.Time      `json:"first_order_at,omitempty"`
	LastOrderAt        *time.Time      `json:"last_order_at,omitempty"`
	DaysSinceLastOrder *int64          `json:"days_since_last_order,omitempty"`
	Segment            CustomerSegment `json:"segment"`
	Status             CustomerStatus  `json:"status"`
	IsReturning        bool            `json:"is_returning"`
	WindowDays         int             `json:"window_days"`
	ComputedAt         time.Time       `json:"computed_at"`
}

// CustomerOverviewSummary is the organization-level customer rollup
type CustomerOverviewSummary struct {
	OrganizationID         uuid.UUID       `json:"organization_id"`
	TotalCustomers         int64           `json:"total_customers"`
	ConvertedCustomers     int64           `json:"converted_customers"`
	AbandonedCartCustomers int64           `json:"abandoned_cart_customers"`
	ReturningCustomers     int64           `json:"returning_customers"`
	NewCustomers           int64           `json:"new_customers"`
	ActiveCustomers        int64           `json:"active_customers"`
	PeriodOrders           int64           `json:"period_orders"`
	PeriodRevenue          decimal.Decimal `json:"period_revenue"`
	AverageOrderValue      decimal.Decimal `json:"average_order_value"`
	ProspectCount          int64           `json:"prospect_count"`
	NewSegmentCount        int64           `json:"new_segment_count"`
	RegularCount           int64           `json:"regular_count"`
	VIPCount               int64           `json:"vip_count"`
	ChampionCount          int64           `json:"champion_count"`
	WindowStart            time.Time       `json:"window_start"`
	WindowEnd              time.Time       `json:"window_end"`
	WindowDays             int             `json:"window_days"`
	ComputedAt             time.Time       `json:"computed_at"`
}

// CustomerInput is everything a customer rebuild reads
type CustomerInput struct {
	Customers []commerce.Customer
	// Orders holds every order of the organization, any status and any date
	Orders []commerce.Order
}

// CustomerSnapshot is the full replacement set for one organization
type CustomerSnapshot struct {
	Metadata  Metadata
	Customers []CustomerMetricsSummary
	Overview  CustomerOverviewSummary
}

// ComputeCustomerSnapshot derives every customer summary in memory.
// Orders whose customer is not in the lookup only count toward period totals.
func ComputeCustomerSnapshot(orgID uuid.UUID, in CustomerInput, w Window, computedAt time.Time) CustomerSnapshot {
	customers := make([]commerce.Customer, len(in.Customers))
	copy(customers, in.Customers)
	sort.SliceStable(customers, func(i, j int) bool {
		return customers[i].ID.String() < customers[j].ID.String()
	})

	known := make(map[uuid.UUID]struct{}, len(customers))
	for _, c := range customers {
		known[c.ID] = struct{}{}
	}

	overview := CustomerOverviewSummary{
		OrganizationID: orgID,
		TotalCustomers: int64(len(customers)),
		WindowStart:    w.Start,
		WindowEnd:      w.End,
		WindowDays:     w.Days,
		ComputedAt:     computedAt,
	}

	ordersByCustomer := make(map[uuid.UUID][]commerce.Order)
	for _, o := range in.Orders {
		if !o.IsCancelled() && w.Contains(o.CreatedAt) {
			overview.PeriodOrders++
			overview.PeriodRevenue = overview.PeriodRevenue.Add(nonNegative(o.TotalPrice))
		}
		if o.CustomerID == nil {
			continue
		}
		if _, ok := known[*o.CustomerID]; !ok {
			continue
		}
		ordersByCustomer[*o.CustomerID] = append(ordersByCustomer[*o.CustomerID], o)
	}
	overview.AverageOrderValue = averageOrderValue(overview.PeriodRevenue, overview.PeriodOrders)

	summaries := make([]CustomerMetricsSummary, 0, len(customers))
	for _, c := range customers {
		s := summarizeCustomer(orgID, c, ordersByCustomer[c.ID], w)
		s.ComputedAt = computedAt
		summaries = append(summaries, s)
		overview.countCustomer(c, s, w)
	}

	return CustomerSnapshot{
		Metadata: Metadata{
			OrganizationID:     orgID,
			Kind:               KindCustomer,
			ComputedAt:         computedAt,
			AnalysisWindowDays: w.Days,
			WindowStart:        w.Start,
			WindowEnd:          w.End,
			RowCount:           len(summaries),
		},
		Customers: summaries,
		Overview:  overview,
	}
}

func summarizeCustomer(orgID uuid.UUID, c commerce.Customer, orders []commerce.Order, w Window) CustomerMetricsSummary {
	s := CustomerMetricsSummary{
		OrganizationID: orgID,
		CustomerID:     c.ID,
		FullName:       c.FullName(),
		Email:          c.Email,
		City:           c.City,
		Country:        c.Country,
		WindowDays:     w.Days,
	}

	var observedOrders int64
	var observedValue decimal.Decimal
	for _, o := range orders {
		at := o.CreatedAt
		if s.FirstOrderAt == nil || at.Before(*s.FirstOrderAt) {
			first := at
			s.FirstOrderAt = &first
		}
		if s.LastOrderAt == nil || at.After(*s.LastOrderAt) {
			last := at
			s.LastOrderAt = &last
		}
		if o.IsCancelled() {
			continue
		}
		observedOrders++
		observedValue = observedValue.Add(nonNegative(o.TotalPrice))
		if w.Contains(at) {
			s.PeriodOrders++
			s.PeriodRevenue = s.PeriodRevenue.Add(nonNegative(o.TotalPrice))
		}
	}

	s.LifetimeOrders = max(c.OrdersCount, observedOrders, 0)
	s.LifetimeValue = nonNegative(decimal.Max(c.TotalSpent, observedValue))
	s.AverageOrderValue = averageOrderValue(s.LifetimeValue, s.LifetimeOrders)
	if s.LastOrderAt != nil && !s.LastOrderAt.After(w.End) {
		days := int64(w.End.Sub(*s.LastOrderAt).Hours() / 24)
		s.DaysSinceLastOrder = &days
	}

	s.Segment = SegmentCustomer(s.LifetimeOrders, s.LifetimeValue)
	s.Status = CustomerStatusFor(s.PeriodOrders)
	s.IsReturning = IsReturning(s.LifetimeOrders)
	return s
}

func (o *CustomerOverviewSummary) countCustomer(c commerce.Customer, s CustomerMetricsSummary, w Window) {
	if s.Status == CustomerStatusConverted {
		o.ConvertedCustomers++
	} else {
		o.AbandonedCartCustomers++
	}
	if s.IsReturning {
		o.ReturningCustomers++
	}
	if w.Contains(c.CreatedAt) {
		o.NewCustomers++
	}
	if s.LastOrderAt != nil && w.Contains(*s.LastOrderAt) {
		o.ActiveCustomers++
	}
	switch s.Segment {
	case SegmentProspect:
		o.ProspectCount++
	case SegmentNew:
		o.NewSegmentCount++
	case SegmentRegular:
		o.RegularCount++
	case SegmentVIP:
		o.VIPCount++
	case SegmentChampion:
		o.ChampionCount++
	}
}

func averageOrderValue(revenue decimal.Decimal, orders int64) decimal.Decimal {
	if orders <= 0 {
		return decimal.Zero
	}
	return revenue.Div(decimal.NewFromInt(orders)).Round(2)
}
