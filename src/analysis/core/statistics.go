package core

import (
	"math"
	"sort"
)

// Ddof is the delta degrees of freedom used for the standard deviation.
type Ddof int

const (
	Population Ddof = 0
	Sample     Ddof = 1
)

// Summary holds the reductions of one value set. Std is nil when it is
// undefined, which is always the case for fewer than two values.
type Summary struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
	Std   *float64
}

// -----------------------------------------------------------------------------

// Summarize reduces data. The input is copied and sorted first so the result
// does not depend on input order. ok is false for an empty set.
func Summarize(data []float64, ddof Ddof) (Summary, bool) {
	if len(data) == 0 {
		return Summary{}, false
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mean := CalculateMean(sorted)
	s := Summary{
		Count: len(sorted),
		Mean:  mean,
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}

	if len(sorted) >= 2 {
		std := calculateStd(sorted, mean, ddof)
		s.Std = &std
	}
	return s, true
}

// -----------------------------------------------------------------------------

// CalculateMean computes the arithmetic mean with left-to-right summation.
func CalculateMean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// -----------------------------------------------------------------------------

func calculateStd(data []float64, mean float64, ddof Ddof) float64 {
	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	return math.Sqrt(varianceSum / float64(len(data)-int(ddof)))
}
