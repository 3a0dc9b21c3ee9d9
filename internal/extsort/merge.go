package extsort

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
)

const ctxCheckInterval = 4096

// reducingSink writes records to a sink, combining consecutive records that
// compare equal when a reducer is set.
type reducingSink[T any] struct {
	dst    stream.Sink[T]
	cmp    record.Comparator[T]
	reduce record.Reducer[T]
	held   T
	has    bool
	count  int64
}

func (s *reducingSink[T]) Write(rec T) error {
	if s.reduce == nil {
		s.count++
		return s.dst.Write(rec)
	}
	if s.has && s.cmp(s.held, rec) == 0 {
		s.held = s.reduce(s.held, rec)
		return nil
	}
	if err := s.release(); err != nil {
		return err
	}
	s.held, s.has = rec, true
	return nil
}

func (s *reducingSink[T]) release() error {
	if !s.has {
		return nil
	}
	s.has = false
	s.count++
	return s.dst.Write(s.held)
}

// Merge writes the ordered union of two sorted sources to dst and returns the
// number of records written. Ties take a's record first. With a reducer,
// records that compare equal are combined into one.
func Merge[T any](ctx context.Context, dst stream.Sink[T], a, b stream.Source[T], cmp record.Comparator[T], reduce record.Reducer[T]) (int64, error) {
	out := &reducingSink[T]{dst: dst, cmp: cmp, reduce: reduce}
	next := func(src stream.Source[T], name string) (T, bool, error) {
		rec, err := src.Read()
		if errors.Is(err, io.EOF) {
			return rec, false, nil
		}
		if err != nil {
			return rec, false, fmt.Errorf("reading merge input %s: %w", name, err)
		}
		return rec, true, nil
	}

	x, okA, err := next(a, "a")
	if err != nil {
		return 0, err
	}
	y, okB, err := next(b, "b")
	if err != nil {
		return 0, err
	}
	for n := 0; okA || okB; n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return out.count, err
			}
		}
		if okA && (!okB || cmp(x, y) <= 0) {
			if err := out.Write(x); err != nil {
				return out.count, err
			}
			if x, okA, err = next(a, "a"); err != nil {
				return out.count, err
			}
		} else {
			if err := out.Write(y); err != nil {
				return out.count, err
			}
			if y, okB, err = next(b, "b"); err != nil {
				return out.count, err
			}
		}
	}
	if err := out.release(); err != nil {
		return out.count, err
	}
	return out.count, nil
}
