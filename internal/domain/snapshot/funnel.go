package snapshot

import (
	"github.com/shopspring/decimal"

	"github.com/storepulse/backend/internal/domain/commerce"
)

// Funnel stage names
const (
	StageAwareness     = "awareness"
	StageInterest      = "interest"
	StageConsideration = "consideration"
	StagePurchase      = "purchase"
	StageRetention     = "retention"
)

// FunnelStage is one step of the customer journey
type FunnelStage struct {
	Name       string          `json:"name"`
	Count      int64           `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

// JourneyFunnel is the five-stage journey estimate for an organization
type JourneyFunnel struct {
	Stages                []FunnelStage   `json:"stages"`
	AttributedConversions int64           `json:"attributed_conversions"`
	AdSpend               decimal.Decimal `json:"ad_spend"`
	WindowDays            int             `json:"window_days"`
}

// EstimateJourneyFunnel combines ad delivery totals with the customer overview.
// Each stage percentage is relative to the previous stage, clamped to [0,100].
func EstimateJourneyFunnel(ads commerce.AdTotals, overview CustomerOverviewSummary) JourneyFunnel {
	counts := []struct {
		name  string
		count int64
	}{
		{StageAwareness, ads.Impressions},
		{StageInterest, ads.Clicks},
		{StageConsideration, overview.AbandonedCartCustomers + overview.ConvertedCustomers},
		{StagePurchase, overview.ConvertedCustomers},
		{StageRetention, overview.ReturningCustomers},
	}

	stages := make([]FunnelStage, 0, len(counts))
	for i, c := range counts {
		count := max(c.count, 0)
		var pct decimal.Decimal
		if i == 0 {
			if count > 0 {
				pct = decimal.NewFromInt(100)
			}
		} else {
			pct = stagePercentage(count, stages[i-1].Count)
		}
		stages = append(stages, FunnelStage{Name: c.name, Count: count, Percentage: pct})
	}

	return JourneyFunnel{
		Stages:                stages,
		AttributedConversions: max(ads.Conversions, 0),
		AdSpend:               nonNegative(ads.Spend),
		WindowDays:            overview.WindowDays,
	}
}

func stagePercentage(count, previous int64) decimal.Decimal {
	if previous <= 0 {
		return decimal.Zero
	}
	pct := decimal.NewFromInt(count).Div(decimal.NewFromInt(previous)).Mul(decimal.NewFromInt(100))
	hundred := decimal.NewFromInt(100)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	return pct.Round(2)
}
