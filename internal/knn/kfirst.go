// Package knn keeps the k nearest neighbours of every entry from a similarity
// stream already sorted by entry and then by descending similarity.
package knn

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/extsort"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tempfile"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
)

// KFirst forwards the first k records of each class to the wrapped sink and
// drops the rest. Records of a class must arrive together, ranked.
type KFirst[T any] struct {
	sink    stream.Sink[T]
	k       int
	class   record.Comparator[T]
	current T
	started bool
	count   int
	kept    int64
	dropped int64
	metrics *metrics.Metrics
}

// NewKFirst wraps sink. k must be at least 1.
func NewKFirst[T any](sink stream.Sink[T], k int, class record.Comparator[T], m *metrics.Metrics) (*KFirst[T], error) {
	if k < 1 {
		return nil, apperrors.InvalidInputf("k must be at least 1, got %d", k)
	}
	if class == nil {
		panic("knn: nil class comparator")
	}
	return &KFirst[T]{sink: sink, k: k, class: class, metrics: m}, nil
}

func (f *KFirst[T]) Write(rec T) error {
	if !f.started || f.class(f.current, rec) != 0 {
		f.current, f.started, f.count = rec, true, 0
	}
	if f.count >= f.k {
		f.dropped++
		return nil
	}
	f.count++
	f.kept++
	return f.sink.Write(rec)
}

// Kept returns the number of records forwarded so far.
func (f *KFirst[T]) Kept() int64 {
	return f.kept
}

func (f *KFirst[T]) Flush() error {
	f.metrics.AddKnnDropped(f.dropped)
	f.dropped = 0
	return f.sink.Flush()
}

// Nearest sorts similarities by entry and descending score and writes the k
// best of each entry to sink. It returns the number of records kept.
func Nearest(ctx context.Context, src stream.Source[record.Weighted[record.TokenPair]], sink stream.Sink[record.Weighted[record.TokenPair]], k int, cfg extsort.Config, files *tempfile.Factory, m *metrics.Metrics) (int64, error) {
	kf, err := NewKFirst(sink, k, record.ByRecord[record.TokenPair](record.FirstIDOrder), m)
	if err != nil {
		return 0, err
	}
	s := extsort.New("knn", cfg, record.NeighbourOrder(), files,
		extsort.WithMetrics[record.Weighted[record.TokenPair]](m))
	if _, err := s.Sort(ctx, src, kf); err != nil {
		return kf.Kept(), err
	}
	return kf.Kept(), nil
}
