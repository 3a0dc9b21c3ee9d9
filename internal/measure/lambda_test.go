package measure

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lambdaDivergence computes the divergence feature by feature over the
// union of a and b.
func lambdaDivergence(a, b *vector.Sparse, lambda float64) float64 {
	q, r := map[int32]float64{}, map[int32]float64{}
	keys := map[int32]bool{}
	for i, k := range a.Keys {
		q[k] = a.Values[i] / a.Sum
		keys[k] = true
	}
	for i, k := range b.Keys {
		r[k] = b.Values[i] / b.Sum
		keys[k] = true
	}
	mu := 1 - lambda
	var d float64
	for k := range keys {
		switch {
		case r[k] == 0:
			d += lambda * q[k] * (math.Log2(q[k]) - math.Log2(lambda*q[k]))
		case q[k] == 0:
			d += mu * r[k] * (math.Log2(r[k]) - math.Log2(mu*r[k]))
		default:
			avg := math.Log2(lambda*q[k] + mu*r[k])
			d += lambda*q[k]*(math.Log2(q[k])-avg) + mu*r[k]*(math.Log2(r[k])-avg)
		}
	}
	return d
}

func TestLambdaMatchesDirectDivergence(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	for _, lambda := range []float64{0.1, 0.5, 0.75, 0.99} {
		m, err := NewLambda(lambda, NoFilter)
		require.NoError(t, err)
		for n := 0; n < 30; n++ {
			a, b := randomVector(rng, 0, 12), randomVector(rng, 1, 12)
			d := lambdaDivergence(a, b, lambda)
			assert.InDelta(t, 1/d, Similarity(m, a, b), 1e-8*(1/d), "lambda=%g", lambda)
		}
	}
}

func TestLambdaBoundaries(t *testing.T) {
	m, err := NewLambda(DefaultLambda, NoFilter)
	require.NoError(t, err)

	same := vector.MustNew(5, []int32{1, 2}, []float64{4, 6})
	assert.True(t, math.IsInf(Similarity(m, vecA, same), 1))

	// disjoint distributions are a full bit apart
	disjoint := vector.MustNew(6, []int32{7, 9}, []float64{1, 1})
	assert.Equal(t, 1.0, Similarity(m, vecA, disjoint))

	// at one half lambda is Jensen-Shannon measured in bits
	js := &JensenShannon{Filtered: NoFilter}
	assert.InDelta(t, Similarity(js, vecA, vecB)*math.Ln2, Similarity(m, vecA, vecB), 1e-9)
	assert.True(t, m.Symmetric())

	skewed, err := NewLambda(0.2, NoFilter)
	require.NoError(t, err)
	assert.False(t, skewed.Symmetric())
	assert.NotEqual(t, Similarity(skewed, vecA, vecB), Similarity(skewed, vecB, vecA))

	for _, bad := range []float64{0, 1, -0.5, math.NaN()} {
		_, err := NewLambda(bad, NoFilter)
		assert.Error(t, err, "lambda=%g", bad)
	}
}
