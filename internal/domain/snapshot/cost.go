package snapshot

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storepulse/backend/internal/domain/commerce"
)

// CostSource identifies which tier produced a resolved unit cost
type CostSource string

const (
	CostSourceExplicit  CostSource = "explicit"
	CostSourceCompareAt CostSource = "compare_at"
	CostSourceHeuristic CostSource = "heuristic"
)

// HeuristicCostRatio is the share of price assumed as cost when nothing better is known
var HeuristicCostRatio = decimal.NewFromFloat(0.6)

// CostResolver resolves per-unit variant costs. It is primed once per rebuild
// from the organization's cost components and must not be shared across rebuilds.
type CostResolver struct {
	components map[uuid.UUID]decimal.Decimal
}

// NewCostResolver primes the resolver with every cost component of an organization
func NewCostResolver(components []commerce.CostComponent) *CostResolver {
	r := &CostResolver{components: make(map[uuid.UUID]decimal.Decimal, len(components))}
	for _, c := range components {
		if c.COGSPerUnit == nil || c.COGSPerUnit.IsNegative() {
			continue
		}
		r.components[c.VariantID] = *c.COGSPerUnit
	}
	return r
}

// Resolve returns the per-unit cost of a variant. It never fails.
func (r *CostResolver) Resolve(v commerce.ProductVariant) decimal.Decimal {
	cost, _ := r.ResolveWithSource(v)
	return cost
}

// ResolveWithSource returns the per-unit cost and the tier that produced it:
// explicit cost (cost component, then variant override), compare-at price when
// it is below price, then HeuristicCostRatio of price.
func (r *CostResolver) ResolveWithSource(v commerce.ProductVariant) (decimal.Decimal, CostSource) {
	if cost, ok := r.components[v.ID]; ok {
		return cost, CostSourceExplicit
	}
	if v.Cost != nil && !v.Cost.IsNegative() {
		return *v.Cost, CostSourceExplicit
	}
	price := nonNegative(v.Price)
	if v.CompareAtPrice != nil && v.CompareAtPrice.IsPositive() && v.CompareAtPrice.LessThan(price) {
		return *v.CompareAtPrice, CostSourceCompareAt
	}
	return price.Mul(HeuristicCostRatio), CostSourceHeuristic
}

// Len returns the number of primed cost components
func (r *CostResolver) Len() int {
	return len(r.components)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
