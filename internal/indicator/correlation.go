package indicator

import "math"

// Pearson computes the correlation of x and y over the positions where both
// are defined. It returns NaN with fewer than two overlapping observations or
// when either side has zero variance on the overlap.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}

	var count int
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		count++
		sumX += x[i]
		sumY += y[i]
	}
	if count < 2 {
		return math.NaN()
	}

	meanX := sumX / float64(count)
	meanY := sumY / float64(count)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}

	r := cov / math.Sqrt(varX*varY)
	// Clamp rounding drift so perfectly collinear series compare >= 1.
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}
