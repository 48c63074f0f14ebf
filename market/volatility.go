package market

import "math"

// VolatilityWindow calculates the trailing sample standard deviation of returns
// over the last windowSize points, fed one return at a time.
type VolatilityWindow struct {
	windowSize int
	returns    []float64
}

// NewVolatilityWindow creates a new rolling volatility window
func NewVolatilityWindow(windowSize int) *VolatilityWindow {
	if windowSize <= 0 {
		windowSize = 1
	}
	return &VolatilityWindow{
		windowSize: windowSize,
		returns:    make([]float64, 0, windowSize),
	}
}

// MinPoints is the number of buffered returns required before a window reports
// a volatility: max(10, windowSize/3).
func MinPoints(windowSize int) int {
	return max(10, windowSize/3)
}

// Add pushes a return and reports the trailing standard deviation. ready is false
// while fewer than MinPoints returns are buffered.
func (v *VolatilityWindow) Add(r float64) (vol float64, ready bool) {
	v.returns = append(v.returns, r)
	if len(v.returns) > v.windowSize {
		v.returns = v.returns[1:]
	}
	if len(v.returns) < MinPoints(v.windowSize) {
		return 0, false
	}
	return sampleStd(v.returns), true
}

// RollingStd returns the trailing volatility for every point of xs; points in
// the ramp-up period are reported as 0.
func RollingStd(xs []float64, windowSize int) []float64 {
	out := make([]float64, len(xs))
	w := NewVolatilityWindow(windowSize)
	for i, x := range xs {
		if vol, ok := w.Add(x); ok {
			out[i] = vol
		}
	}
	return out
}

// SimpleReturns computes x[i]/x[i-1]-1, skipping steps whose prior value is <= 0.
func SimpleReturns(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		if xs[i-1] > 0 {
			out = append(out, xs[i]/xs[i-1]-1)
		}
	}
	return out
}

func sampleStd(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	sumSquaredDiff := 0.0
	for _, x := range xs {
		diff := x - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(max(1, len(xs)-1)))
}
