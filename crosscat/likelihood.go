package crosscat

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// ScoresToLikelihoods converts a row of log scores into non-negative
// likelihoods in place: subtract the row max, exponentiate. The row keeps a
// positive total because its max entry maps to exactly 1.
func ScoresToLikelihoods(row []float64) error {
	if len(row) == 0 {
		return fmt.Errorf("%w: empty score row", ErrEmptyDomain)
	}
	for i, score := range row {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return fmt.Errorf("%w: score[%v] (%v) is not finite", ErrNumeric, i, score)
		}
	}
	max := floats.Max(row)
	for i := range row {
		row[i] = math.Exp(row[i] - max)
	}
	return nil
}

// SampleFromLikelihoods draws an index proportionally to the unnormalized
// weights, with total their precomputed sum. Ties between equal prefixes are
// broken by the rng draw alone.
func SampleFromLikelihoods(rng *rand.Rand, weights []float64, total float64) int {
	r := rng.Float64() * total
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		r -= w
		if r <= 0 {
			return i
		}
	}
	// Rounding can leave a sliver of r; land on the last positive weight.
	return last
}
