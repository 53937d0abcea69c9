package indicator

import "math"

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	// Calculate first SMA
	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// TrailingMean returns the mean of the last period values. The result is NaN
// when fewer than period values exist or any value in the window is NaN.
func TrailingMean(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return math.NaN()
	}
	window := values[len(values)-period:]
	for _, v := range window {
		if math.IsNaN(v) {
			return math.NaN()
		}
	}
	return SMA(window, period)[0]
}

// Ratio returns cur/base - 1, NaN when either side is missing or base is zero.
func Ratio(cur, base float64) float64 {
	if math.IsNaN(cur) || math.IsNaN(base) || base == 0 {
		return math.NaN()
	}
	return cur/base - 1
}

// PctChange returns period-over-period returns. Element 0 is always NaN and
// any step touching a missing value is NaN.
func PctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = Ratio(values[i], values[i-1])
	}
	return out
}
