// Package record defines the records that flow between build stages and the
// comparators and reducers used to order and combine them.
package record

import "fmt"

// Token is a single enumerated string: an entry or a feature.
type Token struct {
	_msgpack struct{} `msgpack:",as_array"`
	ID       int32
}

// TokenPair is an (entry, feature) or (entry, neighbour) id pair.
type TokenPair struct {
	_msgpack struct{} `msgpack:",as_array"`
	ID1      int32
	ID2      int32
}

// NewToken returns a Token for id.
func NewToken(id int32) Token {
	return Token{ID: id}
}

// NewPair returns a TokenPair of id1 and id2.
func NewPair(id1, id2 int32) TokenPair {
	return TokenPair{ID1: id1, ID2: id2}
}

// Swap returns the pair with its ids exchanged.
func (p TokenPair) Swap() TokenPair {
	return TokenPair{ID1: p.ID2, ID2: p.ID1}
}

// Identity reports whether both ids are the same.
func (p TokenPair) Identity() bool {
	return p.ID1 == p.ID2
}

func (p TokenPair) String() string {
	return fmt.Sprintf("(%d,%d)", p.ID1, p.ID2)
}

// Weighted attaches a weight to a record. Ordering for merges is usually on
// Record alone.
type Weighted[T any] struct {
	_msgpack struct{} `msgpack:",as_array"`
	Record   T
	Weight   float64
}

// NewWeighted returns rec with weight w.
func NewWeighted[T any](rec T, w float64) Weighted[T] {
	return Weighted[T]{Record: rec, Weight: w}
}

// Reducer combines two records that compare equal into one.
type Reducer[T any] func(a, b T) T

// SumWeights keeps a's record and adds the weights.
func SumWeights[T any](a, b Weighted[T]) Weighted[T] {
	return Weighted[T]{Record: a.Record, Weight: a.Weight + b.Weight}
}
