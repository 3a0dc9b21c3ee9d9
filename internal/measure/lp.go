package measure

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

var posInf = math.Inf(1)

type lpKind int

const (
	lpZero lpKind = iota
	lpOne
	lpTwo
	lpInf
	lpGeneral
)

// Lp is the inverse Minkowski distance between the normalised vectors.
// p = 0, 1, 2 and +Inf have closed forms.
type Lp struct {
	P        float64
	Filtered int32
	kind     lpKind
}

// NewLp returns the Lp measure for p >= 0.
func NewLp(p float64, filtered int32) (*Lp, error) {
	if math.IsNaN(p) || p < 0 {
		return nil, apperrors.InvalidInputf("lp: p must be non-negative, got %g", p)
	}
	m := &Lp{P: p, Filtered: filtered}
	switch {
	case p == 0:
		m.kind = lpZero
	case p == 1:
		m.kind = lpOne
	case p == 2:
		m.kind = lpTwo
	case math.IsInf(p, 1):
		m.kind = lpInf
	default:
		m.kind = lpGeneral
	}
	return m, nil
}

func (m *Lp) Left(a *vector.Sparse) float64 {
	s := mass(a, m.Filtered)
	if s == 0 {
		return 0
	}
	switch m.kind {
	case lpZero:
		return sumOf(a, m.Filtered, func(w float64) float64 { return sign(w) })
	case lpOne:
		return 1
	case lpTwo:
		return sumOf(a, m.Filtered, func(w float64) float64 { q := w / s; return q * q })
	case lpInf:
		return 0
	default:
		return sumOf(a, m.Filtered, func(w float64) float64 { return math.Pow(math.Abs(w/s), m.P) })
	}
}

func (m *Lp) Right(b *vector.Sparse) float64 {
	return m.Left(b)
}

func (m *Lp) Shared(a, b *vector.Sparse) float64 {
	if m.kind == lpInf {
		return m.sharedInf(a, b)
	}
	sa, sb := mass(a, m.Filtered), mass(b, m.Filtered)
	if sa == 0 || sb == 0 {
		return 0
	}
	var shared float64
	forShared(a, b, m.Filtered, func(i, j int) {
		pa, pb := a.Values[i]/sa, b.Values[j]/sb
		switch m.kind {
		case lpZero:
			shared += sign(math.Abs(pa-pb)) - sign(pb) - sign(pa)
		case lpOne:
			shared += math.Abs(pa-pb) - pb - pa
		case lpTwo:
			d := pa - pb
			shared += d*d - pb*pb - pa*pa
		default:
			shared += math.Pow(math.Abs(pa-pb), m.P) - (math.Pow(math.Abs(pb), m.P) + math.Pow(math.Abs(pa), m.P))
		}
	})
	return shared
}

// sharedInf is the largest absolute difference over the union of both key
// sets, one-sided keys and tails included.
func (m *Lp) sharedInf(a, b *vector.Sparse) float64 {
	sa, sb := mass(a, m.Filtered), mass(b, m.Filtered)
	if sa == 0 || sb == 0 {
		return 1
	}
	var peak float64
	take := func(d float64) {
		if d = math.Abs(d); d > peak {
			peak = d
		}
	}
	i, j := 0, 0
	for i < len(a.Keys) && j < len(b.Keys) {
		switch ka, kb := a.Keys[i], b.Keys[j]; {
		case ka < kb:
			if ka != m.Filtered {
				take(a.Values[i] / sa)
			}
			i++
		case ka > kb:
			if kb != m.Filtered {
				take(b.Values[j] / sb)
			}
			j++
		default:
			if ka != m.Filtered {
				take(a.Values[i]/sa - b.Values[j]/sb)
			}
			i++
			j++
		}
	}
	for ; i < len(a.Keys); i++ {
		if a.Keys[i] != m.Filtered {
			take(a.Values[i] / sa)
		}
	}
	for ; j < len(b.Keys); j++ {
		if b.Keys[j] != m.Filtered {
			take(b.Values[j] / sb)
		}
	}
	return peak
}

func (m *Lp) Combine(shared, left, right float64) float64 {
	switch m.kind {
	case lpZero, lpOne:
		return inverse(shared + left + right)
	case lpTwo:
		d := shared + left + right
		if d <= 0 {
			return posInf
		}
		return 1 / math.Sqrt(d)
	case lpInf:
		return inverse(shared)
	default:
		d := shared + left + right
		if d <= 0 {
			return posInf
		}
		return 1 / math.Pow(d, 1/m.P)
	}
}

func (m *Lp) Score(a, b *vector.Sparse, left, right float64) float64 {
	return m.Combine(m.Shared(a, b), left, right)
}

func (m *Lp) Symmetric() bool    { return true }
func (m *Lp) DisjointZero() bool { return false }

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
