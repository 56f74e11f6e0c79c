// Package rating recomputes the derived rating fields of a recipe.
package rating

import "math"

// Bounds of a single rating value.
const (
	MinValue = 1
	MaxValue = 5
)

// Summary is the derived state of a recipe's ratings.
type Summary struct {
	Avg   float64 `json:"ratingAvg"`
	Count int     `json:"ratingCount"`
}

// Valid reports whether v is an acceptable rating value.
func Valid(v int) bool {
	return v >= MinValue && v <= MaxValue
}

// Summarize derives the average (rounded to two decimals) and count from the
// full set of rating values. An empty set yields the zero Summary.
func Summarize(values []int) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return Summary{
		Avg:   Round2(float64(sum) / float64(len(values))),
		Count: len(values),
	}
}

// Round2 rounds f half away from zero to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
