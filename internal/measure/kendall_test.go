package measure

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// denseTau is tau-b computed over every pair of n dense features.
func denseTau(a, b *vector.Sparse, n int) float64 {
	x, y := make([]float64, n), make([]float64, n)
	for i, k := range a.Keys {
		x[k] = a.Values[i]
	}
	for i, k := range b.Keys {
		y[k] = b.Values[i]
	}
	var cordance, tiesX, tiesY float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := x[i]-x[j], y[i]-y[j]
			if dx == 0 {
				tiesX++
			}
			if dy == 0 {
				tiesY++
			}
			cordance += sign(dx) * sign(dy)
		}
	}
	if cordance == 0 {
		return 0
	}
	n0 := float64(n) * float64(n-1) / 2
	return cordance / math.Sqrt((n0-tiesX)*(n0-tiesY))
}

func mustTau(t *testing.T, minCardinality int) *KendallsTau {
	t.Helper()
	m, err := NewKendallsTau(minCardinality, NoFilter)
	require.NoError(t, err)
	return m
}

func TestKendallsTauMatchesDense(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, card := range []int{1, 13, 20, 50} {
		m := mustTau(t, card)
		for n := 0; n < 30; n++ {
			a, b := randomVector(rng, 0, 12), randomVector(rng, 1, 12)
			maxKey := max(a.Keys[len(a.Keys)-1], b.Keys[len(b.Keys)-1])
			want := denseTau(a, b, max(card, int(maxKey)+1))
			assert.InDelta(t, want, Similarity(m, a, b), 1e-12, "cardinality %d", card)
		}
	}
}

func TestKendallsTauSignedWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	m := mustTau(t, 16)
	for n := 0; n < 30; n++ {
		a, b := randomVector(rng, 0, 12), randomVector(rng, 1, 12)
		for i := range a.Values {
			if rng.Intn(3) == 0 {
				a.Values[i] = -a.Values[i]
			}
		}
		// repeated weights exercise the tie counts
		for i := range b.Values {
			b.Values[i] = math.Round(b.Values[i])
			if b.Values[i] == 0 {
				b.Values[i] = 1
			}
		}
		assert.InDelta(t, denseTau(a, b, 16), Similarity(m, a, b), 1e-12)
	}
}

func TestKendallsTauBoundaries(t *testing.T) {
	one := vector.MustNew(0, []int32{0}, []float64{1})
	other := vector.MustNew(1, []int32{0}, []float64{2})
	assert.Equal(t, 0.0, Similarity(mustTau(t, 1), one, other))

	m := mustTau(t, 10)
	assert.InDelta(t, 1, Similarity(m, vecA, vecA), tolerance)
	assert.InDelta(t, 1, Similarity(m, vecA, vector.MustNew(2, []int32{1, 2}, []float64{4, 6})), tolerance)
	assert.Less(t, Similarity(m, vecA, vector.MustNew(3, []int32{7, 9}, []float64{1, 1})), 0.0)
	assert.True(t, m.Symmetric())
	assert.False(t, m.DisjointZero())

	_, err := NewKendallsTau(0, NoFilter)
	assert.Error(t, err)
}
