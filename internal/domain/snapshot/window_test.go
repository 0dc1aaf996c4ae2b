package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindow(t *testing.T) {
	t.Run("default trailing window", func(t *testing.T) {
		w, err := NewWindow(testNow, 0, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultAnalysisWindowDays, w.Days)
		assert.Equal(t, testNow, w.End)
		assert.Equal(t, testNow.AddDate(0, 0, -30), w.Start)
	})

	t.Run("custom days", func(t *testing.T) {
		w, err := NewWindow(testNow, 7, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 7, w.Days)
		assert.Equal(t, testNow.AddDate(0, 0, -7), w.Start)
	})

	t.Run("explicit bounds", func(t *testing.T) {
		start := testNow.AddDate(0, 0, -14)
		end := testNow
		w, err := NewWindow(testNow, 30, &start, &end)
		require.NoError(t, err)
		assert.Equal(t, 14, w.Days)
		assert.Equal(t, start, w.Start)
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		start := testNow.Add(-36 * time.Hour)
		w, err := NewWindow(testNow, 30, &start, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, w.Days)
	})

	t.Run("end before start rejected", func(t *testing.T) {
		start := testNow
		end := testNow.Add(-time.Hour)
		_, err := NewWindow(testNow, 30, &start, &end)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("end equal to start rejected", func(t *testing.T) {
		start := testNow
		_, err := NewWindow(testNow, 30, &start, &start)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
}

func TestWindow_Contains(t *testing.T) {
	w := testWindow()
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
	assert.True(t, w.Contains(testNow.AddDate(0, 0, -10)))
	assert.False(t, w.Contains(w.Start.Add(-time.Second)))
	assert.False(t, w.Contains(w.End.Add(time.Second)))
}

func TestWindow_DeadStockSince(t *testing.T) {
	w := testWindow()
	assert.Equal(t, testNow.AddDate(0, 0, -90), w.DeadStockSince())
}
