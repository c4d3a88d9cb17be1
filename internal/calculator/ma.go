package calculator

import "math"

// SMA computes the simple moving average of the trailing window closes.
// Returns NaN until at least window samples exist.
func SMA(prices []float64, window int) float64 {
	if window <= 0 || len(prices) < window {
		return math.NaN()
	}
	sum := 0.0
	for i := len(prices) - window; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(window)
}
