package calculator

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestSMA(t *testing.T) {
	tbl := []struct {
		prices []float64
		window int
		want   float64
	}{
		{prices: []float64{1, 2, 3, 4}, window: 2, want: 3.5},
		{prices: []float64{1, 2, 3, 4}, window: 4, want: 2.5},
		{prices: []float64{10, 10, 10}, window: 3, want: 10},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.InDelta(t, c.want, SMA(c.prices, c.window), 1e-9)
		})
	}
}

func TestSMA_undefinedUntilWindowFilled(t *testing.T) {
	assert.True(t, math.IsNaN(SMA(ramp(19, 1, 1), 20)))
	assert.False(t, math.IsNaN(SMA(ramp(20, 1, 1), 20)))
	assert.True(t, math.IsNaN(SMA(ramp(49, 1, 1), 50)))
	assert.False(t, math.IsNaN(SMA(ramp(50, 1, 1), 50)))
	assert.True(t, math.IsNaN(SMA(ramp(5, 1, 1), 0)))
}

func TestRSI(t *testing.T) {
	tbl := []struct {
		prices []float64
		period int
		want   float64
	}{
		{prices: []float64{1, 2, 1}, period: 2, want: 50},
		{prices: []float64{1, 2, 1, 3}, period: 2, want: 100 - 100.0/6},
		{prices: ramp(15, 100, 1), period: 14, want: 100},
		{prices: ramp(15, 100, -1), period: 14, want: 0},
		{prices: []float64{5, 5, 5, 5}, period: 3, want: 50},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			got := RSI(c.prices, c.period)
			require.False(t, math.IsNaN(got))
			assert.InDelta(t, c.want, got, 1e-9)
		})
	}
}

func TestRSI_undefinedUntilPeriodPlusOne(t *testing.T) {
	assert.True(t, math.IsNaN(RSI(ramp(14, 1, 1), 14)))
	assert.False(t, math.IsNaN(RSI(ramp(15, 1, 1), 14)))
	assert.True(t, math.IsNaN(RSI(ramp(15, 1, 1), 0)))
}

func TestRSI_staysInBounds(t *testing.T) {
	prices := make([]float64, 120)
	for i := range prices {
		prices[i] = 100 + 10*math.Sin(float64(i)/3)
	}
	for n := 15; n <= len(prices); n++ {
		v := RSI(prices[:n], 14)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestEngine_Compute_perIndicatorGating(t *testing.T) {
	e := NewEngine()

	ind := e.Compute(ramp(14, 1, 1))
	assert.True(t, math.IsNaN(ind.RSI))
	assert.True(t, math.IsNaN(ind.SMA20))
	assert.True(t, math.IsNaN(ind.SMA50))

	ind = e.Compute(ramp(15, 1, 1))
	assert.False(t, math.IsNaN(ind.RSI))
	assert.True(t, math.IsNaN(ind.SMA20))

	ind = e.Compute(ramp(20, 1, 1))
	assert.False(t, math.IsNaN(ind.SMA20))
	assert.True(t, math.IsNaN(ind.SMA50))
	assert.False(t, ind.Complete())

	ind = e.Compute(ramp(50, 1, 1))
	assert.True(t, ind.Complete())
	assert.InDelta(t, 25.5, ind.SMA50, 1e-9)
	assert.InDelta(t, 40.5, ind.SMA20, 1e-9)
}

func TestWindowRange(t *testing.T) {
	h, l, err := WindowRange([]float64{3, 9, 1, 4})
	require.NoError(t, err)
	assert.Equal(t, 9.0, h)
	assert.Equal(t, 1.0, l)

	_, _, err = WindowRange(nil)
	assert.Error(t, err)
}

func TestWindowPosition(t *testing.T) {
	pos, err := WindowPosition(5, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, pos)

	pos, err = WindowPosition(12, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pos)

	pos, err = WindowPosition(3, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.5, pos)

	_, err = WindowPosition(1, 0, 10)
	assert.Error(t, err)
}
