package snapshot

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		name      string
		available int64
		avgDaily  string
		expected  StockStatus
	}{
		{"zero stock", 0, "5", StockStatusOut},
		{"negative stock", -3, "0", StockStatusOut},
		{"three days cover", 30, "10", StockStatusCritical},
		{"just over three days", 31, "10", StockStatusLow},
		{"ten days cover", 100, "10", StockStatusLow},
		{"over ten days", 101, "10", StockStatusHealthy},
		{"no velocity tiny", 4, "0", StockStatusCritical},
		{"no velocity five", 5, "0", StockStatusLow},
		{"no velocity nineteen", 19, "0", StockStatusLow},
		{"no velocity twenty", 20, "0", StockStatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyStock(tt.available, dec(tt.avgDaily)))
		})
	}
}

func TestClassifyStock_Exhaustive(t *testing.T) {
	valid := []StockStatus{StockStatusHealthy, StockStatusLow, StockStatusCritical, StockStatusOut}
	for available := int64(-2); available < 60; available++ {
		for _, v := range []string{"0", "0.5", "1", "3.3", "12"} {
			status := ClassifyStock(available, dec(v))
			assert.Contains(t, valid, status)
			if available <= 0 {
				assert.Equal(t, StockStatusOut, status)
			}
		}
	}
}

func TestAverageDailySales(t *testing.T) {
	assert.True(t, dec("2").Equal(AverageDailySales(60, 30)))
	assert.True(t, AverageDailySales(60, 0).IsZero())
	assert.True(t, AverageDailySales(0, 30).IsZero())
}

func TestReorderPoint(t *testing.T) {
	assert.Equal(t, int64(0), ReorderPoint(decimal.Zero))
	assert.Equal(t, int64(1), ReorderPoint(dec("0.01")))
	assert.Equal(t, int64(20), ReorderPoint(dec("2")))
	assert.Equal(t, int64(15), ReorderPoint(dec("1.45")))
}

func TestTurnoverRate(t *testing.T) {
	assert.True(t, dec("12.2").Equal(TurnoverRate(30, 30, 30)), "got %s", TurnoverRate(30, 30, 30))
	assert.True(t, TurnoverRate(30, 0, 30).IsZero())
	assert.True(t, TurnoverRate(30, 10, 0).IsZero())
	assert.True(t, TurnoverRate(0, 10, 30).IsZero())
}

func TestCoverageDays(t *testing.T) {
	assert.Equal(t, int64(0), CoverageDays(0, dec("1")))
	assert.Equal(t, int64(90), CoverageDays(10, decimal.Zero))
	assert.Equal(t, int64(5), CoverageDays(10, dec("2")))
	assert.Equal(t, int64(3), CoverageDays(10, dec("3")))
}

func TestWeightedAverageCost(t *testing.T) {
	t.Run("stock weighted", func(t *testing.T) {
		cost := WeightedAverageCost([]WeightedCost{
			{Cost: dec("10"), Available: 3},
			{Cost: dec("20"), Available: 1},
		})
		assert.True(t, dec("12.5").Equal(cost), "got %s", cost)
	})

	t.Run("all out of stock weighs one each", func(t *testing.T) {
		cost := WeightedAverageCost([]WeightedCost{
			{Cost: dec("10"), Available: 0},
			{Cost: dec("20"), Available: 0},
		})
		assert.True(t, dec("15").Equal(cost))
	})

	t.Run("no variants", func(t *testing.T) {
		assert.True(t, WeightedAverageCost(nil).IsZero())
	})
}

func TestMargin(t *testing.T) {
	assert.True(t, dec("40").Equal(Margin(dec("100"), dec("60"))))
	assert.True(t, dec("33.33").Equal(Margin(dec("30"), dec("20"))))
	assert.True(t, Margin(decimal.Zero, dec("5")).IsZero())
}

func TestDetectDeadStock(t *testing.T) {
	sold := uuid.New()
	idle := uuid.New()
	empty := uuid.New()

	dead := DetectDeadStock(map[uuid.UUID]int64{sold: 5, idle: 10, empty: 0}, []uuid.UUID{sold})
	assert.Len(t, dead, 1)
	assert.True(t, dead.Contains(idle))
	assert.False(t, dead.Contains(sold))
	assert.False(t, dead.Contains(empty))
}
