package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicatorsJSONUsesNullForUndefined(t *testing.T) {
	data, err := json.Marshal(Indicators{RSI: 42.5, SMA20: math.NaN(), SMA50: math.NaN()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rsi":42.5,"sma20":null,"sma50":null}`, string(data))

	var back Indicators
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 42.5, back.RSI)
	assert.True(t, math.IsNaN(back.SMA20))
	assert.False(t, back.Complete())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "strong-positive", SeverityStrongPositive.String())
	assert.Equal(t, "weak-negative", SeverityWeakNegative.String())
	assert.Equal(t, "neutral", Severity(7).String())
}
