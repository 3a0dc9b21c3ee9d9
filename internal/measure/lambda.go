package measure

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// DefaultLambda weights both vectors equally, which makes Lambda symmetric
// and equal to the Jensen-Shannon divergence in bits.
const DefaultLambda = 0.5

// divergence within this distance of 0 or 1 is snapped to it.
const lambdaSnap = 1e-15

// Lambda is the inverse of the lambda divergence
//
//	λ D(a || λa + (1−λ)b) + (1−λ) D(b || λa + (1−λ)b)
//
// between the normalised vectors, measured in bits so that it lies in
// [0,1]. A feature carried by one vector only contributes -λ log2 λ (or
// the same for 1−λ) per unit of its weight, so those terms are one-sided and
// the shared term corrects them for features both vectors carry.
type Lambda struct {
	Lambda   float64
	Filtered int32
}

// NewLambda returns the lambda divergence for 0 < lambda < 1.
func NewLambda(lambda float64, filtered int32) (*Lambda, error) {
	if !(lambda > 0 && lambda < 1) {
		return nil, apperrors.InvalidInputf("lambda: lambda must be in (0,1), got %g", lambda)
	}
	return &Lambda{Lambda: lambda, Filtered: filtered}, nil
}

func (m *Lambda) Left(a *vector.Sparse) float64 {
	if mass(a, m.Filtered) == 0 {
		return 0
	}
	return -m.Lambda * math.Log2(m.Lambda)
}

func (m *Lambda) Right(b *vector.Sparse) float64 {
	if mass(b, m.Filtered) == 0 {
		return 0
	}
	mu := 1 - m.Lambda
	return -mu * math.Log2(mu)
}

func (m *Lambda) Shared(a, b *vector.Sparse) float64 {
	sa, sb := mass(a, m.Filtered), mass(b, m.Filtered)
	if sa == 0 || sb == 0 {
		return 0
	}
	l, mu := m.Lambda, 1-m.Lambda
	left, right := -l*math.Log2(l), -mu*math.Log2(mu)
	var s float64
	forShared(a, b, m.Filtered, func(i, j int) {
		q, r := a.Values[i]/sa, b.Values[j]/sb
		if q <= 0 || r <= 0 {
			return
		}
		logAvg := math.Log2(l*q + mu*r)
		term := l*q*(math.Log2(q)-logAvg) + mu*r*(math.Log2(r)-logAvg)
		s += term - left*q - right*r
	})
	return s
}

func (m *Lambda) Combine(shared, left, right float64) float64 {
	d := shared + left + right
	switch {
	case math.Abs(d) < lambdaSnap:
		d = 0
	case math.Abs(d-1) < lambdaSnap:
		d = 1
	}
	return inverse(d)
}

func (m *Lambda) Score(a, b *vector.Sparse, left, right float64) float64 {
	return m.Combine(m.Shared(a, b), left, right)
}

func (m *Lambda) Symmetric() bool    { return math.Abs(m.Lambda-0.5) < epsilon }
func (m *Lambda) DisjointZero() bool { return false }
