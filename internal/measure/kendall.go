package measure

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// DefaultMinCardinality is the smallest feature space Kendall's tau assumes.
const DefaultMinCardinality = 1

// KendallsTau is Kendall's tau-b rank correlation of the two vectors taken as
// dense vectors over N features, where N is the larger of MinCardinality and
// the highest key seen plus one. Features neither vector carries are tied
// zeros in both and are accounted for without being visited, but the cost
// is still quadratic in the size of the union.
type KendallsTau struct {
	MinCardinality int
	Filtered       int32
}

// NewKendallsTau returns Kendall's tau-b for minCardinality > 0.
func NewKendallsTau(minCardinality int, filtered int32) (*KendallsTau, error) {
	if minCardinality <= 0 {
		return nil, apperrors.InvalidInputf("tau: minCardinality must be positive, got %d", minCardinality)
	}
	return &KendallsTau{MinCardinality: minCardinality, Filtered: filtered}, nil
}

func (m *KendallsTau) Left(a *vector.Sparse) float64  { return 0 }
func (m *KendallsTau) Right(b *vector.Sparse) float64 { return 0 }

func (m *KendallsTau) Score(a, b *vector.Sparse, _, _ float64) float64 {
	xs, ys, maxKey := m.union(a, b)
	n := float64(m.MinCardinality)
	if k := float64(maxKey) + 1; k > n {
		n = k
	}
	u := float64(len(xs))
	outside := n - u

	var cordance, tiesA, tiesB float64
	var zerosA, zerosB float64
	for i := range xs {
		if xs[i] == 0 {
			zerosA++
		}
		if ys[i] == 0 {
			zerosB++
		}
		// pairs with every feature outside the union, which is 0 in both
		cordance += outside * sign(xs[i]) * sign(ys[i])
		for j := i + 1; j < len(xs); j++ {
			da, db := xs[i]-xs[j], ys[i]-ys[j]
			if da == 0 {
				tiesA++
			}
			if db == 0 {
				tiesB++
			}
			cordance += sign(da) * sign(db)
		}
	}
	outsidePairs := outside * (outside - 1) / 2
	tiesA += outsidePairs + zerosA*outside
	tiesB += outsidePairs + zerosB*outside

	if cordance == 0 {
		return 0
	}
	n0 := n * (n - 1) / 2
	return cordance / math.Sqrt((n0-tiesA)*(n0-tiesB))
}

// union aligns the non-filtered features of a and b, with 0 where a vector
// lacks one, and returns the largest key of either vector.
func (m *KendallsTau) union(a, b *vector.Sparse) (xs, ys []float64, maxKey int32) {
	xs = make([]float64, 0, len(a.Keys)+len(b.Keys))
	ys = make([]float64, 0, len(a.Keys)+len(b.Keys))
	maxKey = -1
	if n := len(a.Keys); n > 0 {
		maxKey = a.Keys[n-1]
	}
	if n := len(b.Keys); n > 0 && b.Keys[n-1] > maxKey {
		maxKey = b.Keys[n-1]
	}
	i, j := 0, 0
	for i < len(a.Keys) || j < len(b.Keys) {
		var key int32
		var x, y float64
		switch {
		case j == len(b.Keys) || (i < len(a.Keys) && a.Keys[i] < b.Keys[j]):
			key, x = a.Keys[i], a.Values[i]
			i++
		case i == len(a.Keys) || b.Keys[j] < a.Keys[i]:
			key, y = b.Keys[j], b.Values[j]
			j++
		default:
			key, x, y = a.Keys[i], a.Values[i], b.Values[j]
			i++
			j++
		}
		if key != m.Filtered {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys, maxKey
}

func (m *KendallsTau) Symmetric() bool    { return true }
func (m *KendallsTau) DisjointZero() bool { return false }
