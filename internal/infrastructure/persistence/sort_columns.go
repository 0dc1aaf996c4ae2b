package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// sortColumns whitelists the columns a summary listing may be ordered by.
// Anything else falls back to the default column so user input never
// reaches the ORDER BY clause.
type sortColumns struct {
	allowed  map[string]struct{}
	fallback string
}

func newSortColumns(fallback string, columns ...string) sortColumns {
	allowed := make(map[string]struct{}, len(columns)+1)
	allowed[fallback] = struct{}{}
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return sortColumns{allowed: allowed, fallback: fallback}
}

// column returns the requested column if whitelisted, otherwise the fallback
func (s sortColumns) column(requested string) string {
	requested = strings.TrimSpace(requested)
	if _, ok := s.allowed[requested]; ok {
		return requested
	}
	return s.fallback
}

// has reports whether name is sortable
func (s sortColumns) has(name string) bool {
	_, ok := s.allowed[name]
	return ok
}

// orderBy builds a quoted ORDER BY column on table. Only an explicit "asc"
// sorts ascending; summaries default to largest first.
func (s sortColumns) orderBy(table, requested, direction string) clause.OrderByColumn {
	return clause.OrderByColumn{
		Column: clause.Column{Table: table, Name: s.column(requested)},
		Desc:   !strings.EqualFold(strings.TrimSpace(direction), "asc"),
	}
}

var (
	productSortColumns = newSortColumns("revenue",
		"units_sold", "available", "stock_on_hand", "title", "margin",
		"turnover_rate", "weighted_cost", "avg_daily_sales", "last_sold_at",
	)
	customerSortColumns = newSortColumns("lifetime_value",
		"lifetime_orders", "period_revenue", "period_orders",
		"last_order_at", "first_order_at", "full_name", "email",
	)
)
