// Package vector holds the sparse feature vectors compared by the similarity
// search and reads them from sorted event streams.
package vector

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// Sparse is an immutable feature vector for one entry. Keys are strictly
// ascending and Values runs parallel to them. Sum is the total of Values;
// normalised weights are Values[i] / Sum.
type Sparse struct {
	ID     int32
	Keys   []int32
	Values []float64
	Sum    float64
}

// New builds a vector, checking key order. keys and values are retained.
func New(id int32, keys []int32, values []float64) (*Sparse, error) {
	if len(keys) != len(values) {
		return nil, apperrors.DataFormatf("entry %d: %d keys but %d values", id, len(keys), len(values))
	}
	if len(keys) == 0 {
		return nil, apperrors.DataFormatf("entry %d has no features", id)
	}
	var sum float64
	for i, k := range keys {
		if i > 0 && k <= keys[i-1] {
			return nil, apperrors.DataFormatf("entry %d: feature %d follows %d", id, k, keys[i-1])
		}
		sum += values[i]
	}
	return &Sparse{ID: id, Keys: keys, Values: values, Sum: sum}, nil
}

// MustNew is New for literals known to be valid.
func MustNew(id int32, keys []int32, values []float64) *Sparse {
	v, err := New(id, keys, values)
	if err != nil {
		panic(err)
	}
	return v
}

// Size returns the number of populated features.
func (v *Sparse) Size() int {
	return len(v.Keys)
}

// Normalized returns the weight at index i divided by the vector sum.
func (v *Sparse) Normalized(i int) float64 {
	return v.Values[i] / v.Sum
}

// Get returns the weight stored for key, or 0.
func (v *Sparse) Get(key int32) float64 {
	lo, hi := 0, len(v.Keys)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch {
		case v.Keys[mid] < key:
			lo = mid + 1
		case v.Keys[mid] > key:
			hi = mid
		default:
			return v.Values[mid]
		}
	}
	return 0
}
