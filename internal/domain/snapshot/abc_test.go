package snapshot

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func abcItems(revenues ...string) []ABCItem {
	items := make([]ABCItem, len(revenues))
	for i, r := range revenues {
		items[i] = ABCItem{ID: uuid.New(), Revenue: dec(r)}
	}
	return items
}

func TestClassifyABC_Revenue(t *testing.T) {
	items := abcItems("5", "80", "15")
	tiers := ClassifyABC(items)

	require.Len(t, tiers, 3)
	assert.Equal(t, ABCTierA, tiers[items[1].ID])
	assert.Equal(t, ABCTierB, tiers[items[2].ID])
	assert.Equal(t, ABCTierC, tiers[items[0].ID])
}

func TestClassifyABC_CumulativeBoundaries(t *testing.T) {
	items := abcItems("50", "30", "10", "5", "3", "2")
	tiers := ClassifyABC(items)

	expected := []ABCTier{ABCTierA, ABCTierA, ABCTierB, ABCTierB, ABCTierC, ABCTierC}
	for i, it := range items {
		assert.Equal(t, expected[i], tiers[it.ID], "item %d", i)
	}
}

func TestClassifyABC_DominantProductCrossesAThreshold(t *testing.T) {
	items := abcItems("90", "10")
	tiers := ClassifyABC(items)

	assert.Equal(t, ABCTierB, tiers[items[0].ID])
	assert.Equal(t, ABCTierC, tiers[items[1].ID])

	items = abcItems("0", "97", "3")
	tiers = ClassifyABC(items)

	assert.Equal(t, ABCTierC, tiers[items[1].ID])
	assert.Equal(t, ABCTierC, tiers[items[2].ID])
	assert.Equal(t, ABCTierC, tiers[items[0].ID])
}

func TestClassifyABC_TiesKeepInputOrder(t *testing.T) {
	items := abcItems("40", "40", "20")
	tiers := ClassifyABC(items)

	assert.Equal(t, ABCTierA, tiers[items[0].ID])
	assert.Equal(t, ABCTierA, tiers[items[1].ID])
	assert.Equal(t, ABCTierC, tiers[items[2].ID])
}

func TestClassifyABC_UnitFallback(t *testing.T) {
	items := make([]ABCItem, 10)
	for i := range items {
		items[i] = ABCItem{ID: uuid.New(), Units: 5}
	}
	tiers := ClassifyABC(items)

	counts := map[ABCTier]int{}
	for _, it := range items {
		counts[tiers[it.ID]]++
	}
	assert.Equal(t, 8, counts[ABCTierA])
	assert.Equal(t, 1, counts[ABCTierB])
	assert.Equal(t, 1, counts[ABCTierC])
}

func TestClassifyABC_RankFallback(t *testing.T) {
	items := make([]ABCItem, 10)
	for i := range items {
		items[i] = ABCItem{ID: uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", 10-i))}
	}
	tiers := ClassifyABC(items)

	// ids sort ascending, so the last inputs rank first
	expected := []ABCTier{ABCTierC, ABCTierC, ABCTierC, ABCTierC, ABCTierC, ABCTierB, ABCTierB, ABCTierB, ABCTierA, ABCTierA}
	for i, it := range items {
		assert.Equal(t, expected[i], tiers[it.ID], "item %d", i)
	}
}

func TestClassifyABC_PartitionCompleteness(t *testing.T) {
	for n := 0; n < 25; n++ {
		items := make([]ABCItem, n)
		for i := range items {
			items[i] = ABCItem{ID: uuid.New(), Revenue: dec(fmt.Sprintf("%d", (i*7)%5))}
		}
		tiers := ClassifyABC(items)
		require.Len(t, tiers, n)
		for _, it := range items {
			assert.Contains(t, []ABCTier{ABCTierA, ABCTierB, ABCTierC}, tiers[it.ID])
		}
	}
}

func TestClassifyABC_SingleProduct(t *testing.T) {
	items := abcItems("250")
	assert.Equal(t, ABCTierC, ClassifyABC(items)[items[0].ID])

	items = []ABCItem{{ID: uuid.New(), Units: 4}}
	assert.Equal(t, ABCTierC, ClassifyABC(items)[items[0].ID])

	// no sales history at all falls through to positional tiering
	items = []ABCItem{{ID: uuid.New()}}
	assert.Equal(t, ABCTierA, ClassifyABC(items)[items[0].ID])

	assert.Empty(t, ClassifyABC(nil))
}
