package record

import (
	"cmp"
	"strings"
)

// Comparator orders two records: negative when a sorts first, zero when they
// are equal, positive otherwise.
type Comparator[T any] func(a, b T) int

// Reverse inverts c.
func Reverse[T any](c Comparator[T]) Comparator[T] {
	return func(a, b T) int { return c(b, a) }
}

// Then falls back to next when c considers two records equal.
func (c Comparator[T]) Then(next Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		if r := c(a, b); r != 0 {
			return r
		}
		return next(a, b)
	}
}

// TokenOrder orders tokens by id.
func TokenOrder(a, b Token) int {
	return cmp.Compare(a.ID, b.ID)
}

// PairOrder orders pairs by ID1 then ID2.
func PairOrder(a, b TokenPair) int {
	if r := cmp.Compare(a.ID1, b.ID1); r != 0 {
		return r
	}
	return cmp.Compare(a.ID2, b.ID2)
}

// FirstIDOrder orders pairs by ID1 only.
func FirstIDOrder(a, b TokenPair) int {
	return cmp.Compare(a.ID1, b.ID1)
}

// SecondIDOrder orders pairs by ID2 only.
func SecondIDOrder(a, b TokenPair) int {
	return cmp.Compare(a.ID2, b.ID2)
}

// ByRecord lifts a record comparator to weighted records, ignoring weights.
func ByRecord[T any](c Comparator[T]) Comparator[Weighted[T]] {
	return func(a, b Weighted[T]) int { return c(a.Record, b.Record) }
}

// ByWeight orders weighted records by ascending weight.
func ByWeight[T any](a, b Weighted[T]) int {
	return cmp.Compare(a.Weight, b.Weight)
}

// Resolver maps an id back to its string.
type Resolver interface {
	ValueOf(id int32) (string, error)
}

// PairStringOrder orders pairs by the strings their ids stand for. Ids that
// cannot be resolved compare numerically.
func PairStringOrder(first, second Resolver) Comparator[TokenPair] {
	byString := func(r Resolver, x, y int32) int {
		if x == y {
			return 0
		}
		sx, errX := r.ValueOf(x)
		sy, errY := r.ValueOf(y)
		if errX != nil || errY != nil {
			return cmp.Compare(x, y)
		}
		if c := strings.Compare(sx, sy); c != 0 {
			return c
		}
		return cmp.Compare(x, y)
	}
	return func(a, b TokenPair) int {
		if r := byString(first, a.ID1, b.ID1); r != 0 {
			return r
		}
		return byString(second, a.ID2, b.ID2)
	}
}

// NeighbourOrder groups similarity pairs by entry and puts the nearest
// neighbour first, breaking weight ties by neighbour id.
func NeighbourOrder() Comparator[Weighted[TokenPair]] {
	return ByRecord(FirstIDOrder).
		Then(Reverse(ByWeight[TokenPair])).
		Then(ByRecord(SecondIDOrder))
}
