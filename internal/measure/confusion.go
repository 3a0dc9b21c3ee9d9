package measure

import (
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// Confusion is the confusion probability of b given a: the chance that b is
// substituted for a in a context both occur in,
//
//	Σ P(f|a) P(f|b) P(a) / P(f)
//
// over shared features f, where P(a) and P(f) come from the corpus totals.
// It is not symmetric.
type Confusion struct {
	Marginals *vector.Marginals
	Filtered  int32
}

// NewConfusion returns the confusion probability over the corpus feature
// frequencies in marginals.
func NewConfusion(marginals *vector.Marginals, filtered int32) (*Confusion, error) {
	if marginals == nil {
		return nil, apperrors.InvalidInputf("confusion: needs feature frequencies")
	}
	return &Confusion{Marginals: marginals, Filtered: filtered}, nil
}

func (m *Confusion) Left(a *vector.Sparse) float64  { return mass(a, m.Filtered) }
func (m *Confusion) Right(b *vector.Sparse) float64 { return mass(b, m.Filtered) }

func (m *Confusion) Score(a, b *vector.Sparse, left, right float64) float64 {
	total := m.Marginals.Total()
	if left == 0 || right == 0 || total == 0 {
		return 0
	}
	entryPrior := left / total
	var s float64
	forShared(a, b, m.Filtered, func(i, j int) {
		prior := m.Marginals.Prior(a.Keys[i])
		if prior == 0 {
			return
		}
		s += (a.Values[i] / left) * (b.Values[j] / right) * entryPrior / prior
	})
	return s
}

func (m *Confusion) Symmetric() bool    { return false }
func (m *Confusion) DisjointZero() bool { return true }
