package commerce

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_IsCancelled(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{"paid", false},
		{"refunded", false},
		{"cancelled", true},
		{"VOIDED", true},
		{" voided ", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.expected, Order{FinancialStatus: tt.status}.IsCancelled())
		})
	}
}

func TestOrderItem_LineRevenue(t *testing.T) {
	item := OrderItem{Quantity: 3, Price: decimal.NewFromInt(10), TotalDiscount: decimal.NewFromInt(5)}
	assert.True(t, decimal.NewFromInt(25).Equal(item.LineRevenue()))

	item.TotalDiscount = decimal.NewFromInt(50)
	assert.True(t, item.LineRevenue().IsZero())
}

func TestResolveStock(t *testing.T) {
	variant := ProductVariant{ID: uuid.New(), InventoryQuantity: 8}

	t.Run("legacy only", func(t *testing.T) {
		pos := ResolveStock(variant, nil)
		assert.Equal(t, int64(8), pos.Available)
		assert.Equal(t, int64(8), pos.OnHand())
	})

	t.Run("levels authoritative when larger", func(t *testing.T) {
		pos := ResolveStock(variant, []InventoryLevel{
			{Available: 6, Committed: 1, Incoming: 4},
			{Available: 5, Committed: 2},
		})
		assert.Equal(t, int64(11), pos.Available)
		assert.Equal(t, int64(3), pos.Committed)
		assert.Equal(t, int64(4), pos.Incoming)
		assert.Equal(t, int64(14), pos.OnHand())
	})

	t.Run("legacy floor when levels smaller", func(t *testing.T) {
		pos := ResolveStock(variant, []InventoryLevel{{Available: 2}})
		assert.Equal(t, int64(8), pos.Available)
	})

	t.Run("negative floored at zero", func(t *testing.T) {
		pos := ResolveStock(ProductVariant{InventoryQuantity: -3}, []InventoryLevel{{Available: -4, Committed: -1}})
		assert.Equal(t, int64(0), pos.Available)
		assert.Equal(t, int64(0), pos.Committed)
	})
}

func TestCustomer_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", Customer{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", Customer{FirstName: " Ada "}.FullName())
	assert.Equal(t, "", Customer{}.FullName())
}

func TestReadAll(t *testing.T) {
	data := []int{1, 2, 3, 4, 5}
	var calls int
	fetch := func(_ context.Context, p PageRequest) ([]int, error) {
		calls++
		if p.Offset >= len(data) {
			return nil, nil
		}
		end := min(p.Offset+p.Limit, len(data))
		return data[p.Offset:end], nil
	}

	all, err := ReadAll(context.Background(), 2, fetch)
	require.NoError(t, err)
	assert.Equal(t, data, all)
	assert.Equal(t, 3, calls)

	t.Run("propagates errors", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := ReadAll(context.Background(), 2, func(context.Context, PageRequest) ([]int, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ReadAll(ctx, 2, fetch)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestChunk(t *testing.T) {
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
	}
	batches := Chunk(ids, 2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[2], 1)
	assert.Empty(t, Chunk(nil, 2))
}
