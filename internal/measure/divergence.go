package measure

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// JensenShannon is the inverse Jensen-Shannon divergence between the
// normalised vectors. Each side contributes ln2/2 for its whole mass; the
// shared term corrects that for features both vectors carry.
type JensenShannon struct {
	Filtered int32
}

func (m *JensenShannon) Left(a *vector.Sparse) float64 {
	if mass(a, m.Filtered) == 0 {
		return 0
	}
	return math.Ln2 / 2
}

func (m *JensenShannon) Right(b *vector.Sparse) float64 { return m.Left(b) }

func (m *JensenShannon) Shared(a, b *vector.Sparse) float64 {
	sa, sb := mass(a, m.Filtered), mass(b, m.Filtered)
	if sa == 0 || sb == 0 {
		return 0
	}
	var s float64
	forShared(a, b, m.Filtered, func(i, j int) {
		q, r := a.Values[i]/sa, b.Values[j]/sb
		if q <= 0 || r <= 0 {
			return
		}
		avg := q + r
		s += q*math.Log(q/avg) + r*math.Log(r/avg)
	})
	return s / 2
}

func (m *JensenShannon) Combine(shared, left, right float64) float64 {
	return inverse(shared + left + right)
}

func (m *JensenShannon) Score(a, b *vector.Sparse, left, right float64) float64 {
	return m.Combine(m.Shared(a, b), left, right)
}

func (m *JensenShannon) Symmetric() bool    { return true }
func (m *JensenShannon) DisjointZero() bool { return false }

// DefaultLeeAlpha is the skew used when none is configured.
const DefaultLeeAlpha = 0.99

// Lee is the inverse of Lee's alpha-skew divergence D(a || αb + (1−α)a). It
// is not symmetric.
type Lee struct {
	Alpha    float64
	Filtered int32
}

// NewLee returns Lee's skew divergence for 0 < alpha < 1.
func NewLee(alpha float64, filtered int32) (*Lee, error) {
	if !(alpha > 0 && alpha < 1) {
		return nil, apperrors.InvalidInputf("lee: alpha must be in (0,1), got %g", alpha)
	}
	return &Lee{Alpha: alpha, Filtered: filtered}, nil
}

// Left is the divergence a would have from a vector sharing none of its
// features.
func (m *Lee) Left(a *vector.Sparse) float64 {
	if mass(a, m.Filtered) == 0 {
		return 0
	}
	return -math.Log(1 - m.Alpha)
}

func (m *Lee) Right(b *vector.Sparse) float64 { return 0 }

func (m *Lee) Shared(a, b *vector.Sparse) float64 {
	sa, sb := mass(a, m.Filtered), mass(b, m.Filtered)
	if sa == 0 || sb == 0 {
		return 0
	}
	lnSkew := math.Log(1 - m.Alpha)
	var s float64
	forShared(a, b, m.Filtered, func(i, j int) {
		q, r := a.Values[i]/sa, b.Values[j]/sb
		if q <= 0 {
			return
		}
		s += q * (math.Log(q) - math.Log(m.Alpha*r+(1-m.Alpha)*q) + lnSkew)
	})
	return s
}

func (m *Lee) Combine(shared, left, right float64) float64 {
	return inverse(shared + left + right)
}

func (m *Lee) Score(a, b *vector.Sparse, left, right float64) float64 {
	return m.Combine(m.Shared(a, b), left, right)
}

func (m *Lee) Symmetric() bool    { return false }
func (m *Lee) DisjointZero() bool { return false }
