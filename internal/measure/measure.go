// Package measure implements proximity measures between sparse vectors.
//
// Most measures are decomposable: the score of a pair is
// Combine(Shared(a, b), Left(a), Right(b)), where Left and Right depend on
// one vector only and can be computed once per vector, and Shared is a
// merge-join over the two sorted key arrays. Scores are proximities: higher
// means more similar.
package measure

import "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"

// NoFilter disables the filtered-feature sentinel.
const NoFilter int32 = -1

// Measure scores ordered pairs of vectors. left and right passed to Score
// must come from Left(a) and Right(b) of the same measure.
type Measure interface {
	Left(a *vector.Sparse) float64
	Right(b *vector.Sparse) float64
	Score(a, b *vector.Sparse, left, right float64) float64
	// Symmetric reports whether Score(a, b) equals Score(b, a).
	Symmetric() bool
	// DisjointZero reports whether two vectors without a common
	// non-filtered feature always score exactly 0.
	DisjointZero() bool
}

// Decomposable is a Measure whose pair term is exposed separately.
type Decomposable interface {
	Measure
	Shared(a, b *vector.Sparse) float64
	Combine(shared, left, right float64) float64
}

// Similarity scores a against b without precomputed one-sided terms.
func Similarity(m Measure, a, b *vector.Sparse) float64 {
	return m.Score(a, b, m.Left(a), m.Right(b))
}

// forShared calls fn with the indexes of every key present in both vectors,
// skipping the filtered key.
func forShared(a, b *vector.Sparse, filtered int32, fn func(i, j int)) {
	i, j := 0, 0
	for i < len(a.Keys) && j < len(b.Keys) {
		switch ka, kb := a.Keys[i], b.Keys[j]; {
		case ka < kb:
			i++
		case ka > kb:
			j++
		default:
			if ka != filtered {
				fn(i, j)
			}
			i++
			j++
		}
	}
}

// mass returns the vector sum without the filtered feature.
func mass(v *vector.Sparse, filtered int32) float64 {
	if filtered == NoFilter {
		return v.Sum
	}
	return v.Sum - v.Get(filtered)
}

// sumOf adds f(weight) over every non-filtered feature.
func sumOf(v *vector.Sparse, filtered int32, f func(w float64) float64) float64 {
	var s float64
	for i, k := range v.Keys {
		if k != filtered {
			s += f(v.Values[i])
		}
	}
	return s
}

func identity(w float64) float64 { return w }

func positive(w float64) float64 {
	if w > 0 {
		return w
	}
	return 0
}

// inverse turns a distance into a proximity; non-positive distances, which
// only arise from rounding on identical vectors, saturate.
func inverse(d float64) float64 {
	if d <= 0 {
		return posInf
	}
	return 1 / d
}
