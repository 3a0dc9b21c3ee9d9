// Package apss computes proximities between all admissible pairs of sparse
// vectors drawn from two sources.
//
// Naive scores every pair. Inverted indexes the first source by feature and
// only scores pairs sharing a feature, which is exact for measures whose
// disjoint pairs score 0; for other measures pairs without a common feature
// are still scored in full unless Approximate is set, in which case they are
// silently dropped. Threaded splits both sources into chunks and runs Naive
// or Inverted over every chunk pair in parallel.
//
// Emitted pairs are (a, b) for a from the first source and b from the
// second, in no particular order.
package apss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/chunk"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/measure"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

type pair = record.Weighted[record.TokenPair]

// Engine writes the accepted pairs of a and b to sink and flushes it.
type Engine interface {
	Run(ctx context.Context, a stream.Source[*vector.Sparse], b stream.SeekableSource[*vector.Sparse], sink stream.Sink[pair]) error
	Stats() *Stats
}

// Options configure every engine.
type Options struct {
	Measure measure.Measure
	Filter  PairFilter
	// SameSource marks a and b as the same vectors. Symmetric measures
	// then score each unordered pair once and emit both orientations.
	SameSource bool
	// FilteredID is left out of the inverted index.
	FilteredID int32
	// Approximate lets the inverted engine drop pairs without a common
	// feature even when the measure could score them above 0.
	Approximate bool
}

func (o *Options) mirrored() bool {
	return o.SameSource && o.Measure.Symmetric()
}

// produce filters one scored pair and emits it, mirrored if needed.
func (o *Options) produce(a, b *vector.Sparse, score float64, c *counts, emit func(pair) error) error {
	if !o.Filter.Accept(a.ID, b.ID, score) {
		return nil
	}
	if err := emit(record.NewWeighted(record.NewPair(a.ID, b.ID), score)); err != nil {
		return err
	}
	c.productions++
	if o.mirrored() && a.ID != b.ID {
		if err := emit(record.NewWeighted(record.NewPair(b.ID, a.ID), score)); err != nil {
			return err
		}
		c.productions++
	}
	return nil
}

// block is an in-memory run of vectors with their one-sided measure terms.
type block struct {
	vecs []*vector.Sparse
	side []float64

	once     sync.Once
	postings map[int32][]int32
}

func leftBlock(m measure.Measure, vecs []*vector.Sparse) *block {
	b := &block{vecs: vecs, side: make([]float64, len(vecs))}
	for i, v := range vecs {
		b.side[i] = m.Left(v)
	}
	return b
}

func rightBlock(m measure.Measure, vecs []*vector.Sparse) *block {
	b := &block{vecs: vecs, side: make([]float64, len(vecs))}
	for i, v := range vecs {
		b.side[i] = m.Right(v)
	}
	return b
}

// index returns the feature postings of the block, built on first use.
func (b *block) index(filtered int32) map[int32][]int32 {
	b.once.Do(func() {
		b.postings = make(map[int32][]int32)
		for i, v := range b.vecs {
			for _, k := range v.Keys {
				if k != filtered {
					b.postings[k] = append(b.postings[k], int32(i))
				}
			}
		}
	})
	return b.postings
}

// kernel scores every admissible pair of two in-memory blocks.
type kernel interface {
	compare(ctx context.Context, as, bs *block, emit func(pair) error) error
	options() *Options
	Stats() *Stats
}

func readAll(src stream.Source[*vector.Sparse], stats *Stats) ([]*vector.Sparse, error) {
	var vecs []*vector.Sparse
	for {
		v, err := src.Read()
		if errors.Is(err, io.EOF) {
			return vecs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading vector: %w", err)
		}
		stats.Reads.Add(1)
		vecs = append(vecs, v)
	}
}

// streamBatch is the number of vectors of b scored per pass over a.
const streamBatch = 256

// runStreaming materialises a and streams b past it in small batches.
func runStreaming(ctx context.Context, k kernel, a stream.Source[*vector.Sparse], b stream.Source[*vector.Sparse], sink stream.Sink[pair], logger *slog.Logger) error {
	opts, stats := k.options(), k.Stats()
	vecs, err := readAll(a, stats)
	if err != nil {
		return err
	}
	as := leftBlock(opts.Measure, vecs)
	batches := chunk.New[*vector.Sparse](b, streamBatch)
	for {
		ch, err := batches.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading vector: %w", err)
		}
		stats.Reads.Add(int64(ch.Len()))
		if err := k.compare(ctx, as, rightBlock(opts.Measure, ch.Items), sink.Write); err != nil {
			return err
		}
	}
	if err := sink.Flush(); err != nil {
		return fmt.Errorf("flushing pairs: %w", err)
	}
	logStats(logger, stats)
	return nil
}

func logStats(logger *slog.Logger, stats *Stats) {
	logger.Info("all pairs complete",
		"reads", stats.Reads.Load(),
		"candidates", stats.Candidates.Load(),
		"comparisons", stats.Comparisons.Load(),
		"productions", stats.Productions.Load(),
	)
}

// Algorithms lists the engine names accepted by New.
var Algorithms = []string{"naive", "inverted", "threaded"}

// New builds the engine called algorithm. inner selects the per-chunk
// algorithm of the threaded engine and is ignored otherwise.
func New(algorithm, inner string, opts Options, tc ThreadConfig) (Engine, error) {
	if opts.Measure == nil {
		return nil, apperrors.InvalidInputf("all pairs engine needs a measure")
	}
	switch strings.ToLower(algorithm) {
	case "naive":
		return NewNaive(opts), nil
	case "inverted":
		return NewInverted(opts), nil
	case "threaded":
		var k kernel
		switch strings.ToLower(inner) {
		case "naive":
			k = NewNaive(opts)
		case "", "inverted":
			k = NewInverted(opts)
		default:
			return nil, apperrors.InvalidInputf("unknown inner algorithm %q", inner)
		}
		return newThreaded(k, tc), nil
	default:
		return nil, apperrors.InvalidInputf("unknown all pairs algorithm %q (known: %s)", algorithm, strings.Join(Algorithms, ", "))
	}
}
