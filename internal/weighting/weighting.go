// Package weighting turns the raw event counts of entry vectors into feature
// weights before they are compared. Simple schemes look at one weight at a
// time; contextual schemes also compare it with the entry's total and the
// corpus frequency of the feature.
package weighting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// None leaves vectors untouched.
const None = "none"

// Weighting reweights one vector.
type Weighting interface {
	Name() string
	// Apply returns the reweighted vector, or nil when no feature keeps a
	// finite non-zero weight. v is not modified.
	Apply(v *vector.Sparse) *vector.Sparse
	// Bounds are the smallest and largest weights Apply produces.
	Bounds() (lo, hi float64)
}

// Params configure the schemes that need more than the vector itself.
type Params struct {
	// Marginals are the corpus feature frequencies read by the contextual
	// schemes.
	Marginals *vector.Marginals
	// Factor scales every weight under the constant scheme.
	Factor float64
}

// DefaultParams returns a factor of 1 and no marginals.
func DefaultParams() Params {
	return Params{Factor: 1}
}

// cell is what an elementwise scheme sees of one feature.
type cell struct {
	value float64 // weight of the feature for the entry
	sum   float64 // entry total
	freq  float64 // feature total over the corpus
	total float64 // grand total
}

func (c cell) featurePrior() float64 { return c.freq / c.total }
func (c cell) entryPrior() float64   { return c.sum / c.total }

type scheme struct {
	lo, hi     float64
	contextual bool
	fn         func(c cell, p Params) float64
}

var schemes = map[string]scheme{
	"constant": {math.Inf(-1), math.Inf(1), false, func(c cell, p Params) float64 {
		return p.Factor * c.value
	}},
	"positive": {0, math.Inf(1), false, func(c cell, _ Params) float64 {
		return math.Max(c.value, 0)
	}},
	"pmi": {math.Inf(-1), math.Inf(1), true, func(c cell, _ Params) float64 {
		return pmi(c)
	}},
	"positive-pmi": {0, math.Inf(1), true, func(c cell, _ Params) float64 {
		return math.Max(pmi(c), 0)
	}},
	"squared-pmi": {math.Inf(-1), 0, true, func(c cell, _ Params) float64 {
		return 2*math.Log2(c.value/c.total) - (math.Log2(c.entryPrior()) + math.Log2(c.featurePrior()))
	}},
	"llr": {math.Inf(-1), math.Inf(1), true, func(c cell, _ Params) float64 {
		alternative := math.Log2(c.value / c.sum)
		null := math.Log2((c.freq - c.value) / (c.total - c.sum))
		return 2 * (alternative - null)
	}},
	"chi-squared": {0, math.Inf(1), true, chiSquared},
	"ttest": {math.Inf(-1), math.Inf(1), true, func(c cell, _ Params) float64 {
		joint := c.value / c.total
		product := c.entryPrior() * c.featurePrior()
		return (joint - product) / math.Sqrt(product)
	}},
	"dice": {0, 1, true, func(c cell, _ Params) float64 {
		joint := c.value / c.total
		return 2 * joint / (c.entryPrior() + c.featurePrior())
	}},
}

// pmi is log2 P(f|e) / P(f).
func pmi(c cell) float64 {
	return math.Log2(c.value/c.sum) - math.Log2(c.featurePrior())
}

// chiSquared is Pearson's statistic over the 2x2 contingency table of the
// entry against the feature.
func chiSquared(c cell, _ Params) float64 {
	o11 := c.value
	o12 := c.sum - c.value
	o21 := c.freq - c.value
	o22 := c.total - o11 - o12 - o21
	den := (o11 + o12) * (o11 + o21) * (o12 + o22) * (o21 + o22)
	if den == 0 {
		return 0
	}
	d := o11*o22 - o12*o21
	return c.total * d * d / den
}

// Names lists the accepted scheme names.
func Names() []string {
	names := []string{None, "l2"}
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NeedsMarginals reports whether the scheme called name reads corpus
// feature frequencies.
func NeedsMarginals(name string) bool {
	return schemes[strings.ToLower(name)].contextual
}

// New builds the scheme called name, case-insensitively.
func New(name string, p Params) (Weighting, error) {
	name = strings.ToLower(name)
	switch name {
	case None, "":
		return Null{}, nil
	case "l2":
		return L2{}, nil
	}
	s, ok := schemes[name]
	if !ok {
		return nil, apperrors.InvalidInputf("unknown weighting %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	if s.contextual && p.Marginals == nil {
		return nil, apperrors.InvalidInputf("%s weighting needs feature frequencies", name)
	}
	if name == "constant" && (p.Factor == 0 || math.IsNaN(p.Factor) || math.IsInf(p.Factor, 0)) {
		return nil, apperrors.InvalidInputf("constant weighting: factor must be finite and non-zero, got %g", p.Factor)
	}
	return &Elementwise{name: name, scheme: s, params: p}, nil
}

// NewChain builds the named schemes applied in order. Repeated and "none"
// entries are skipped; with nothing left the chain is Null.
func NewChain(names []string, p Params) (Weighting, error) {
	var chain Chain
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.ToLower(name)
		if name == "" || name == None || seen[name] {
			continue
		}
		seen[name] = true
		w, err := New(name, p)
		if err != nil {
			return nil, err
		}
		chain = append(chain, w)
	}
	switch len(chain) {
	case 0:
		return Null{}, nil
	case 1:
		return chain[0], nil
	}
	return chain, nil
}

// IsNull reports whether w leaves vectors untouched.
func IsNull(w Weighting) bool {
	_, ok := w.(Null)
	return ok
}

// Null returns vectors as they are.
type Null struct{}

func (Null) Name() string                          { return None }
func (Null) Apply(v *vector.Sparse) *vector.Sparse { return v }
func (Null) Bounds() (float64, float64)            { return math.Inf(-1), math.Inf(1) }

// Elementwise computes each weight from the feature's own statistics.
type Elementwise struct {
	name   string
	scheme scheme
	params Params
}

func (w *Elementwise) Name() string { return w.name }

func (w *Elementwise) Bounds() (float64, float64) { return w.scheme.lo, w.scheme.hi }

func (w *Elementwise) Apply(v *vector.Sparse) *vector.Sparse {
	keys := make([]int32, 0, len(v.Keys))
	values := make([]float64, 0, len(v.Keys))
	c := cell{sum: v.Sum}
	if m := w.params.Marginals; m != nil {
		c.total = m.Total()
	}
	for i, k := range v.Keys {
		c.value = v.Values[i]
		if w.params.Marginals != nil {
			c.freq = w.params.Marginals.Frequency(k)
		}
		if x := w.scheme.fn(c, w.params); keep(x) {
			keys = append(keys, k)
			values = append(values, x)
		}
	}
	return compact(v.ID, keys, values)
}

// L2 scales a vector to unit Euclidean length.
type L2 struct{}

func (L2) Name() string               { return "l2" }
func (L2) Bounds() (float64, float64) { return -1, 1 }

func (L2) Apply(v *vector.Sparse) *vector.Sparse {
	var sq float64
	for _, x := range v.Values {
		sq += x * x
	}
	length := math.Sqrt(sq)
	keys := make([]int32, 0, len(v.Keys))
	values := make([]float64, 0, len(v.Keys))
	for i, k := range v.Keys {
		if x := v.Values[i] / length; keep(x) {
			keys = append(keys, k)
			values = append(values, x)
		}
	}
	return compact(v.ID, keys, values)
}

// Chain applies several schemes in order.
type Chain []Weighting

func (ch Chain) Name() string {
	names := make([]string, len(ch))
	for i, w := range ch {
		names[i] = w.Name()
	}
	return strings.Join(names, "+")
}

func (ch Chain) Bounds() (float64, float64) {
	if len(ch) == 0 {
		return Null{}.Bounds()
	}
	return ch[len(ch)-1].Bounds()
}

func (ch Chain) Apply(v *vector.Sparse) *vector.Sparse {
	for _, w := range ch {
		if v = w.Apply(v); v == nil {
			return nil
		}
	}
	return v
}

// keep drops zeros and the infinities and NaNs of degenerate statistics.
func keep(x float64) bool {
	return x != 0 && !math.IsNaN(x) && !math.IsInf(x, 0)
}

func compact(id int32, keys []int32, values []float64) *vector.Sparse {
	if len(keys) == 0 {
		return nil
	}
	return vector.MustNew(id, keys, values)
}

// Result counts what Reweight read and wrote.
type Result struct {
	Vectors int64
	Dropped int64
	Events  int64
}

// VectorSource yields entry vectors.
type VectorSource interface {
	Read() (*vector.Sparse, error)
}

// Reweight applies w to every vector of src and writes the surviving
// features to dst as events, in the order read. Entries left without
// features are dropped. dst is flushed.
func Reweight(ctx context.Context, w Weighting, src VectorSource, dst stream.Sink[record.Weighted[record.TokenPair]]) (Result, error) {
	var res Result
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		v, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("reading vector %d: %w", res.Vectors, err)
		}
		res.Vectors++
		out := w.Apply(v)
		if out == nil {
			res.Dropped++
			continue
		}
		for i, k := range out.Keys {
			if err := dst.Write(record.NewWeighted(record.NewPair(out.ID, k), out.Values[i])); err != nil {
				return res, fmt.Errorf("writing weighted event: %w", err)
			}
			res.Events++
		}
	}
	return res, dst.Flush()
}
