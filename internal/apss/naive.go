package apss

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
)

// Naive scores every admissible pair.
type Naive struct {
	opts   Options
	stats  *Stats
	logger *slog.Logger
}

func NewNaive(opts Options) *Naive {
	return &Naive{
		opts:   opts,
		stats:  &Stats{},
		logger: slog.Default().With("component", "apss", "algorithm", "naive"),
	}
}

func (n *Naive) Run(ctx context.Context, a stream.Source[*vector.Sparse], b stream.SeekableSource[*vector.Sparse], sink stream.Sink[pair]) error {
	return runStreaming(ctx, n, a, b, sink, n.logger)
}

func (n *Naive) Stats() *Stats     { return n.stats }
func (n *Naive) options() *Options { return &n.opts }

func (n *Naive) compare(ctx context.Context, as, bs *block, emit func(pair) error) error {
	var c counts
	defer func() { n.stats.add(c) }()
	m, mirrored := n.opts.Measure, n.opts.mirrored()
	for j, b := range bs.vecs {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i, a := range as.vecs {
			if mirrored && b.ID < a.ID {
				continue
			}
			c.candidates++
			c.comparisons++
			score := m.Score(a, b, as.side[i], bs.side[j])
			if err := n.opts.produce(a, b, score, &c, emit); err != nil {
				return err
			}
		}
	}
	return nil
}
