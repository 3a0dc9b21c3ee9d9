package apss

import "math"

// PairFilter accepts scored pairs. Bounds are inclusive; NaN scores are
// always rejected.
type PairFilter struct {
	MinSimilarity float64
	MaxSimilarity float64
	IdentityPairs bool
}

// DefaultFilter accepts every pair except an entry with itself.
func DefaultFilter() PairFilter {
	return PairFilter{MinSimilarity: math.Inf(-1), MaxSimilarity: math.Inf(1)}
}

func (f PairFilter) Accept(a, b int32, score float64) bool {
	if a == b && !f.IdentityPairs {
		return false
	}
	return f.acceptsScore(score)
}

func (f PairFilter) acceptsScore(score float64) bool {
	return score >= f.MinSimilarity && score <= f.MaxSimilarity
}
