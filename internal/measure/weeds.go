package measure

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// Defaults for Weeds.
const (
	DefaultWeedsBeta  = 0.5
	DefaultWeedsGamma = 0.5
)

const epsilon = 1e-9

// Weeds blends precision (the share of a's positive weight on features b
// also has) with recall (the same for b). Beta weights precision in the
// arithmetic mean and Gamma weights the harmonic mean against it. Weeds needs
// two shared sums, so it is a Measure but not Decomposable.
type Weeds struct {
	Beta     float64
	Gamma    float64
	Filtered int32
}

// NewWeeds returns the Weeds measure for beta and gamma in [0,1].
func NewWeeds(beta, gamma float64, filtered int32) (*Weeds, error) {
	if !(beta >= 0 && beta <= 1) {
		return nil, apperrors.InvalidInputf("weeds: beta must be in [0,1], got %g", beta)
	}
	if !(gamma >= 0 && gamma <= 1) {
		return nil, apperrors.InvalidInputf("weeds: gamma must be in [0,1], got %g", gamma)
	}
	return &Weeds{Beta: beta, Gamma: gamma, Filtered: filtered}, nil
}

func (m *Weeds) Left(a *vector.Sparse) float64  { return sumOf(a, m.Filtered, positive) }
func (m *Weeds) Right(b *vector.Sparse) float64 { return sumOf(b, m.Filtered, positive) }

func (m *Weeds) Score(a, b *vector.Sparse, left, right float64) float64 {
	var sharedA, sharedB float64
	forShared(a, b, m.Filtered, func(i, j int) {
		if a.Values[i] > 0 && b.Values[j] > 0 {
			sharedA += a.Values[i]
			sharedB += b.Values[j]
		}
	})
	var precision, recall float64
	if left > 0 {
		precision = sharedA / left
	}
	if right > 0 {
		recall = sharedB / right
	}
	am := m.Beta*precision + (1-m.Beta)*recall
	var hm float64
	if precision+recall != 0 {
		hm = 2 * precision * recall / (precision + recall)
	}
	return m.Gamma*hm + (1-m.Gamma)*am
}

func (m *Weeds) Symmetric() bool {
	return math.Abs(m.Gamma-1) < epsilon || math.Abs(m.Beta-0.5) < epsilon
}

func (m *Weeds) DisjointZero() bool { return true }

// Reversed scores (a, b) as the wrapped measure scores (b, a).
type Reversed struct {
	Inner Measure
}

func (m *Reversed) Left(a *vector.Sparse) float64  { return m.Inner.Right(a) }
func (m *Reversed) Right(b *vector.Sparse) float64 { return m.Inner.Left(b) }

func (m *Reversed) Score(a, b *vector.Sparse, left, right float64) float64 {
	return m.Inner.Score(b, a, right, left)
}

func (m *Reversed) Symmetric() bool    { return m.Inner.Symmetric() }
func (m *Reversed) DisjointZero() bool { return m.Inner.DisjointZero() }
