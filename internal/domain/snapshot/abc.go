package snapshot

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ABCTier is a Pareto tier of a product's sales contribution
type ABCTier string

const (
	ABCTierA ABCTier = "A"
	ABCTierB ABCTier = "B"
	ABCTierC ABCTier = "C"
)

var (
	abcTierAShare = decimal.NewFromInt(80)
	abcTierBShare = decimal.NewFromInt(95)
)

// Rank-based tiering cut-offs, as percent of position
const (
	abcRankTierA = 20
	abcRankTierB = 50
)

// ABCItem is the sales contribution of one product
type ABCItem struct {
	ID      uuid.UUID
	Revenue decimal.Decimal
	Units   int64
}

// ClassifyABC assigns every item exactly one tier. Items are ranked by revenue,
// falling back to units when revenue is all zero, and to position by id when
// units are zero too. Ties keep input order. An item is A only while the
// cumulative share up to and including it stays within 80%.
func ClassifyABC(items []ABCItem) map[uuid.UUID]ABCTier {
	tiers := make(map[uuid.UUID]ABCTier, len(items))
	if len(items) == 0 {
		return tiers
	}

	var totalRevenue decimal.Decimal
	var totalUnits int64
	for _, it := range items {
		totalRevenue = totalRevenue.Add(nonNegative(it.Revenue))
		totalUnits += max(it.Units, 0)
	}

	switch {
	case totalRevenue.IsPositive():
		classifyByShare(items, tiers, totalRevenue, func(it ABCItem) decimal.Decimal {
			return nonNegative(it.Revenue)
		})
	case totalUnits > 0:
		classifyByShare(items, tiers, decimal.NewFromInt(totalUnits), func(it ABCItem) decimal.Decimal {
			return decimal.NewFromInt(max(it.Units, 0))
		})
	default:
		classifyByRank(items, tiers)
	}
	return tiers
}

func classifyByShare(items []ABCItem, tiers map[uuid.UUID]ABCTier, total decimal.Decimal, value func(ABCItem) decimal.Decimal) {
	ranked := make([]ABCItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return value(ranked[i]).GreaterThan(value(ranked[j]))
	})

	hundred := decimal.NewFromInt(100)
	cumulative := decimal.Zero
	for _, it := range ranked {
		cumulative = cumulative.Add(value(it))
		share := cumulative.Div(total).Mul(hundred)
		switch {
		case share.LessThanOrEqual(abcTierAShare):
			tiers[it.ID] = ABCTierA
		case share.LessThanOrEqual(abcTierBShare):
			tiers[it.ID] = ABCTierB
		default:
			tiers[it.ID] = ABCTierC
		}
	}
}

func classifyByRank(items []ABCItem, tiers map[uuid.UUID]ABCTier) {
	ranked := make([]ABCItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ID.String() < ranked[j].ID.String()
	})

	n := len(ranked)
	for i, it := range ranked {
		switch {
		case i*100 < abcRankTierA*n:
			tiers[it.ID] = ABCTierA
		case i*100 < abcRankTierB*n:
			tiers[it.ID] = ABCTierB
		default:
			tiers[it.ID] = ABCTierC
		}
	}
}
