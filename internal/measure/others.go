package measure

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
)

// Jaccard is the weighted Jaccard coefficient Σmin / (Σa + Σb − Σmin).
type Jaccard struct {
	Filtered int32
}

func (m *Jaccard) Left(a *vector.Sparse) float64  { return mass(a, m.Filtered) }
func (m *Jaccard) Right(b *vector.Sparse) float64 { return mass(b, m.Filtered) }

func (m *Jaccard) Shared(a, b *vector.Sparse) float64 {
	var s float64
	forShared(a, b, m.Filtered, func(i, j int) {
		s += math.Min(a.Values[i], b.Values[j])
	})
	return s
}

func (m *Jaccard) Combine(shared, left, right float64) float64 {
	if shared == 0 {
		return 0
	}
	return shared / (left + right - shared)
}

func (m *Jaccard) Score(a, b *vector.Sparse, left, right float64) float64 {
	return m.Combine(m.Shared(a, b), left, right)
}

func (m *Jaccard) Symmetric() bool    { return true }
func (m *Jaccard) DisjointZero() bool { return true }

// Lin is Lin's information-theoretic similarity over positively weighted
// features.
type Lin struct {
	Filtered int32
}

func (m *Lin) Left(a *vector.Sparse) float64  { return sumOf(a, m.Filtered, positive) }
func (m *Lin) Right(b *vector.Sparse) float64 { return sumOf(b, m.Filtered, positive) }

func (m *Lin) Shared(a, b *vector.Sparse) float64 {
	var s float64
	forShared(a, b, m.Filtered, func(i, j int) {
		if a.Values[i] > 0 && b.Values[j] > 0 {
			s += a.Values[i] + b.Values[j]
		}
	})
	return s
}

func (m *Lin) Combine(shared, left, right float64) float64 {
	if shared == 0 || left+right == 0 {
		return 0
	}
	return shared / (left + right)
}

func (m *Lin) Score(a, b *vector.Sparse, left, right float64) float64 {
	return m.Combine(m.Shared(a, b), left, right)
}

func (m *Lin) Symmetric() bool    { return true }
func (m *Lin) DisjointZero() bool { return true }

// Cosine is the cosine of the angle between the raw weight vectors.
type Cosine struct {
	Filtered int32
}

func (m *Cosine) Left(a *vector.Sparse) float64 {
	return sumOf(a, m.Filtered, func(w float64) float64 { return w * w })
}

func (m *Cosine) Right(b *vector.Sparse) float64 { return m.Left(b) }

func (m *Cosine) Shared(a, b *vector.Sparse) float64 {
	var dot float64
	forShared(a, b, m.Filtered, func(i, j int) {
		dot += a.Values[i] * b.Values[j]
	})
	return dot
}

func (m *Cosine) Combine(shared, left, right float64) float64 {
	if shared == 0 || left == 0 || right == 0 {
		return 0
	}
	return shared / math.Sqrt(left*right)
}

func (m *Cosine) Score(a, b *vector.Sparse, left, right float64) float64 {
	return m.Combine(m.Shared(a, b), left, right)
}

func (m *Cosine) Symmetric() bool    { return true }
func (m *Cosine) DisjointZero() bool { return true }

// Dice is the weighted Dice coefficient 2·Σmin / (Σa + Σb).
type Dice struct {
	Filtered int32
}

func (m *Dice) Left(a *vector.Sparse) float64  { return mass(a, m.Filtered) }
func (m *Dice) Right(b *vector.Sparse) float64 { return mass(b, m.Filtered) }

func (m *Dice) Shared(a, b *vector.Sparse) float64 {
	var s float64
	forShared(a, b, m.Filtered, func(i, j int) {
		s += math.Min(a.Values[i], b.Values[j])
	})
	return s
}

func (m *Dice) Combine(shared, left, right float64) float64 {
	if shared == 0 {
		return 0
	}
	return 2 * shared / (left + right)
}

func (m *Dice) Score(a, b *vector.Sparse, left, right float64) float64 {
	return m.Combine(m.Shared(a, b), left, right)
}

func (m *Dice) Symmetric() bool    { return true }
func (m *Dice) DisjointZero() bool { return true }
