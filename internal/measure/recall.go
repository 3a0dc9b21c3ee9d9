package measure

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// Recall is the share of a's weight that falls on features b also has.
type Recall struct {
	Filtered int32
}

func (m *Recall) Left(a *vector.Sparse) float64  { return mass(a, m.Filtered) }
func (m *Recall) Right(b *vector.Sparse) float64 { return mass(b, m.Filtered) }

func (m *Recall) Shared(a, b *vector.Sparse) float64 {
	var s float64
	forShared(a, b, m.Filtered, func(i, _ int) { s += a.Values[i] })
	return s
}

func (m *Recall) Combine(shared, left, _ float64) float64 {
	if shared == 0 || left == 0 {
		return 0
	}
	return shared / left
}

func (m *Recall) Score(a, b *vector.Sparse, left, right float64) float64 {
	return m.Combine(m.Shared(a, b), left, right)
}

func (m *Recall) Symmetric() bool    { return false }
func (m *Recall) DisjointZero() bool { return true }

// Precision is the share of b's weight that falls on features a also has,
// so Precision(a, b) is Recall(b, a).
type Precision struct {
	Filtered int32
}

func (m *Precision) Left(a *vector.Sparse) float64  { return mass(a, m.Filtered) }
func (m *Precision) Right(b *vector.Sparse) float64 { return mass(b, m.Filtered) }

func (m *Precision) Shared(a, b *vector.Sparse) float64 {
	var s float64
	forShared(a, b, m.Filtered, func(_, j int) { s += b.Values[j] })
	return s
}

func (m *Precision) Combine(shared, _, right float64) float64 {
	if shared == 0 || right == 0 {
		return 0
	}
	return shared / right
}

func (m *Precision) Score(a, b *vector.Sparse, left, right float64) float64 {
	return m.Combine(m.Shared(a, b), left, right)
}

func (m *Precision) Symmetric() bool    { return false }
func (m *Precision) DisjointZero() bool { return true }

// information scores features by their positive pointwise mutual
// information with an entry, log(P(f|e) / P(f)), computed from raw counts
// and the corpus feature frequencies.
type information struct {
	marginals *vector.Marginals
	filtered  int32
}

// at is the information of the feature at index i of v, whose non-filtered
// mass is sum; features less likely with v than overall score 0.
func (in information) at(v *vector.Sparse, i int, sum float64) float64 {
	prior := in.marginals.Prior(v.Keys[i])
	if sum == 0 || prior == 0 {
		return 0
	}
	if ratio := v.Values[i] / sum / prior; ratio > 1 {
		return math.Log(ratio)
	}
	return 0
}

func (in information) total(v *vector.Sparse) float64 {
	sum := mass(v, in.filtered)
	var s float64
	for i, k := range v.Keys {
		if k != in.filtered {
			s += in.at(v, i, sum)
		}
	}
	return s
}

// shared sums the information a and b carry on the features both find
// informative.
func (in information) shared(a, b *vector.Sparse) (sa, sb float64) {
	ma, mb := mass(a, in.filtered), mass(b, in.filtered)
	forShared(a, b, in.filtered, func(i, j int) {
		ia, ib := in.at(a, i, ma), in.at(b, j, mb)
		if ia > 0 && ib > 0 {
			sa += ia
			sb += ib
		}
	})
	return sa, sb
}

func newInformation(name string, marginals *vector.Marginals, filtered int32) (information, error) {
	if marginals == nil {
		return information{}, apperrors.InvalidInputf("%s: needs feature frequencies", name)
	}
	return information{marginals: marginals, filtered: filtered}, nil
}

// RecallMi is the share of a's mutual information that lies on features
// which are also informative for b.
type RecallMi struct {
	info information
}

// NewRecallMi returns mutual-information recall over the corpus feature
// frequencies in marginals.
func NewRecallMi(marginals *vector.Marginals, filtered int32) (*RecallMi, error) {
	info, err := newInformation("recallmi", marginals, filtered)
	if err != nil {
		return nil, err
	}
	return &RecallMi{info: info}, nil
}

func (m *RecallMi) Left(a *vector.Sparse) float64  { return m.info.total(a) }
func (m *RecallMi) Right(b *vector.Sparse) float64 { return m.info.total(b) }

func (m *RecallMi) Score(a, b *vector.Sparse, left, _ float64) float64 {
	if left == 0 {
		return 0
	}
	sa, _ := m.info.shared(a, b)
	return sa / left
}

func (m *RecallMi) Symmetric() bool    { return false }
func (m *RecallMi) DisjointZero() bool { return true }

// CrMi blends mutual-information precision and recall the way Weeds blends
// their weighted counterparts: Beta weights precision in the arithmetic
// mean and Gamma weights the harmonic mean against it.
type CrMi struct {
	Beta  float64
	Gamma float64
	info  information
}

// NewCrMi returns the mutual-information co-occurrence retrieval measure for
// beta and gamma in [0,1].
func NewCrMi(beta, gamma float64, marginals *vector.Marginals, filtered int32) (*CrMi, error) {
	if !(beta >= 0 && beta <= 1) {
		return nil, apperrors.InvalidInputf("crmi: beta must be in [0,1], got %g", beta)
	}
	if !(gamma >= 0 && gamma <= 1) {
		return nil, apperrors.InvalidInputf("crmi: gamma must be in [0,1], got %g", gamma)
	}
	info, err := newInformation("crmi", marginals, filtered)
	if err != nil {
		return nil, err
	}
	return &CrMi{Beta: beta, Gamma: gamma, info: info}, nil
}

func (m *CrMi) Left(a *vector.Sparse) float64  { return m.info.total(a) }
func (m *CrMi) Right(b *vector.Sparse) float64 { return m.info.total(b) }

func (m *CrMi) Score(a, b *vector.Sparse, left, right float64) float64 {
	sa, sb := m.info.shared(a, b)
	var precision, recall float64
	if left > 0 {
		recall = sa / left
	}
	if right > 0 {
		precision = sb / right
	}
	am := m.Beta*precision + (1-m.Beta)*recall
	var hm float64
	if precision+recall != 0 {
		hm = 2 * precision * recall / (precision + recall)
	}
	return m.Gamma*hm + (1-m.Gamma)*am
}

func (m *CrMi) Symmetric() bool {
	return math.Abs(m.Gamma-1) < epsilon || math.Abs(m.Beta-0.5) < epsilon
}

func (m *CrMi) DisjointZero() bool { return true }
