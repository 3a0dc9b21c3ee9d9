package weighting

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-12

// features 1 to 4 occur 4, 1, 2 and 1 times in a corpus of 8 events
var corpus = vector.NewMarginals([]float64{0, 4, 1, 2, 1})

func mustNew(t *testing.T, name string, p Params) Weighting {
	t.Helper()
	w, err := New(name, p)
	require.NoError(t, err)
	return w
}

func withCorpus() Params {
	p := DefaultParams()
	p.Marginals = corpus
	return p
}

func TestContextualSchemes(t *testing.T) {
	cat := vector.MustNew(0, []int32{1, 2}, []float64{2, 1})
	tests := []struct {
		name string
		want []float64
	}{
		{"pmi", []float64{math.Log2(4.0 / 3), math.Log2(8.0 / 3)}},
		{"positive-pmi", []float64{math.Log2(4.0 / 3), math.Log2(8.0 / 3)}},
		{"squared-pmi", []float64{math.Log2(1.0 / 3), math.Log2(1.0 / 3)}},
		{"llr", []float64{2 * math.Log2(5.0/3), math.Inf(1)}},
		{"chi-squared", []float64{128.0 / 240, 8 * 25.0 / (3 * 1 * 7 * 5)}},
		{"ttest", []float64{0.0625 / math.Sqrt(0.1875), (0.125 - 3.0/64) / math.Sqrt(3.0/64)}},
		{"dice", []float64{4.0 / 7, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustNew(t, tt.name, withCorpus()).Apply(cat)
			require.NotNil(t, got)
			var keys []int32
			for i, want := range tt.want {
				if math.IsInf(want, 0) {
					continue
				}
				keys = append(keys, cat.Keys[i])
				assert.InDelta(t, want, got.Get(cat.Keys[i]), tolerance, "feature %d", cat.Keys[i])
			}
			// non-finite weights are dropped and the sum follows the rest
			assert.Equal(t, keys, got.Keys)
			var sum float64
			for _, v := range got.Values {
				sum += v
			}
			assert.InDelta(t, sum, got.Sum, tolerance)
		})
	}
}

func TestPositivePMIDropsUninformativeFeatures(t *testing.T) {
	dog := vector.MustNew(1, []int32{1, 3}, []float64{1, 1})
	got := mustNew(t, "positive-pmi", withCorpus()).Apply(dog)
	require.NotNil(t, got)
	assert.Equal(t, []int32{3}, got.Keys)
	assert.Equal(t, []float64{1}, got.Values)
	assert.Equal(t, 1.0, got.Sum)

	// an entry distributed exactly like the corpus has no informative features
	flat := vector.MustNew(2, []int32{1, 2, 3, 4}, []float64{4, 1, 2, 1})
	assert.Nil(t, mustNew(t, "positive-pmi", withCorpus()).Apply(flat))
}

func TestSimpleSchemes(t *testing.T) {
	v := vector.MustNew(3, []int32{1, 2}, []float64{-1, 3})

	p := DefaultParams()
	p.Factor = 2
	got := mustNew(t, "constant", p).Apply(v)
	assert.Equal(t, []float64{-2, 6}, got.Values)
	assert.Equal(t, 4.0, got.Sum)

	got = mustNew(t, "positive", DefaultParams()).Apply(v)
	assert.Equal(t, []int32{2}, got.Keys)
	assert.Equal(t, 3.0, got.Sum)

	got = mustNew(t, "l2", DefaultParams()).Apply(vector.MustNew(3, []int32{1, 2}, []float64{3, 4}))
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, got.Values, tolerance)
	assert.InDelta(t, 1.4, got.Sum, tolerance)

	assert.Same(t, v, mustNew(t, "none", DefaultParams()).Apply(v))
	assert.Equal(t, []float64{-1, 3}, v.Values)
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		_, err := New(name, withCorpus())
		assert.NoError(t, err, name)
	}

	_, err := New("tfidf", withCorpus())
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	for _, name := range []string{"pmi", "LLR", "dice"} {
		assert.True(t, NeedsMarginals(name))
		_, err := New(name, DefaultParams())
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), name)
	}
	assert.False(t, NeedsMarginals("l2"))

	_, err = New("constant", Params{Factor: 0})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestNewChain(t *testing.T) {
	w, err := NewChain([]string{"none", ""}, DefaultParams())
	require.NoError(t, err)
	assert.True(t, IsNull(w))

	w, err = NewChain([]string{"positive-pmi", "none", "positive-pmi"}, withCorpus())
	require.NoError(t, err)
	assert.Equal(t, "positive-pmi", w.Name())

	w, err = NewChain([]string{"pmi", "positive"}, withCorpus())
	require.NoError(t, err)
	assert.Equal(t, "pmi+positive", w.Name())
	lo, hi := w.Bounds()
	assert.Equal(t, 0.0, lo)
	assert.True(t, math.IsInf(hi, 1))

	// pmi then positive is positive pmi
	cat := vector.MustNew(0, []int32{1, 2, 3}, []float64{2, 1, 1})
	assert.Equal(t, mustNew(t, "positive-pmi", withCorpus()).Apply(cat), w.Apply(cat))

	_, err = NewChain([]string{"positive", "pmi"}, DefaultParams())
	assert.Error(t, err)
}

// Every scheme, applied to counts drawn from the corpus it is given,
// produces finite non-zero weights within its bounds.
func TestSchemesStayWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const features = 15
	var vectors []*vector.Sparse
	freqs := make([]float64, features)
	for id := int32(0); id < 40; id++ {
		var keys []int32
		var values []float64
		for k := int32(0); k < features; k++ {
			if rng.Intn(3) == 0 {
				c := float64(1 + rng.Intn(9))
				keys = append(keys, k)
				values = append(values, c)
				freqs[k] += c
			}
		}
		if len(keys) > 0 {
			vectors = append(vectors, vector.MustNew(id, keys, values))
		}
	}
	p := DefaultParams()
	p.Marginals = vector.NewMarginals(freqs)

	for _, name := range Names() {
		w := mustNew(t, name, p)
		lo, hi := w.Bounds()
		for _, v := range vectors {
			got := w.Apply(v)
			if got == nil {
				continue
			}
			for i, x := range got.Values {
				assert.NotZero(t, x, "%s entry %d feature %d", name, v.ID, got.Keys[i])
				assert.False(t, math.IsNaN(x), "%s entry %d", name, v.ID)
				assert.GreaterOrEqual(t, x, lo-tolerance, "%s entry %d", name, v.ID)
				assert.LessOrEqual(t, x, hi+tolerance, "%s entry %d", name, v.ID)
			}
		}
	}
}

func TestReweight(t *testing.T) {
	ev := func(entry, feature int32, w float64) record.Weighted[record.TokenPair] {
		return record.NewWeighted(record.NewPair(entry, feature), w)
	}
	events := stream.FromSlice([]record.Weighted[record.TokenPair]{
		ev(0, 1, 2), ev(0, 2, 1),
		ev(1, 1, 1), ev(1, 3, 1),
		ev(2, 1, 4), ev(2, 2, 1), ev(2, 3, 2), ev(2, 4, 1),
		ev(3, 4, 1),
	})
	out := &stream.SliceSink[record.Weighted[record.TokenPair]]{}

	res, err := Reweight(context.Background(), mustNew(t, "positive-pmi", withCorpus()), vector.NewReader(events), out)
	require.NoError(t, err)
	assert.Equal(t, Result{Vectors: 4, Dropped: 1, Events: 4}, res)

	var pairs []record.TokenPair
	for _, e := range out.Items {
		pairs = append(pairs, e.Record)
		assert.Greater(t, e.Weight, 0.0)
	}
	assert.Equal(t, []record.TokenPair{
		record.NewPair(0, 1), record.NewPair(0, 2),
		record.NewPair(1, 3),
		record.NewPair(3, 4),
	}, pairs)
	assert.Equal(t, 3.0, out.Items[3].Weight)
}

func TestReweightStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	events := stream.FromSlice([]record.Weighted[record.TokenPair]{
		record.NewWeighted(record.NewPair(0, 1), 1),
	})
	_, err := Reweight(ctx, Null{}, vector.NewReader(events), &stream.SliceSink[record.Weighted[record.TokenPair]]{})
	assert.ErrorIs(t, err, context.Canceled)
}
