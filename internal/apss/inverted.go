package apss

import (
	"context"
	"log/slog"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
)

// Inverted scores only pairs that share a non-filtered feature, found through
// posting lists over the first source. How the remaining pairs are treated
// depends on the measure; see the package documentation.
type Inverted struct {
	opts   Options
	stats  *Stats
	logger *slog.Logger
}

func NewInverted(opts Options) *Inverted {
	return &Inverted{
		opts:   opts,
		stats:  &Stats{},
		logger: slog.Default().With("component", "apss", "algorithm", "inverted"),
	}
}

func (n *Inverted) Run(ctx context.Context, a stream.Source[*vector.Sparse], b stream.SeekableSource[*vector.Sparse], sink stream.Sink[pair]) error {
	if !n.opts.Measure.DisjointZero() && n.opts.Approximate {
		n.logger.Warn("pairs without a common feature will be dropped although the measure may score them above zero")
	}
	return runStreaming(ctx, n, a, b, sink, n.logger)
}

func (n *Inverted) Stats() *Stats     { return n.stats }
func (n *Inverted) options() *Options { return &n.opts }

func (n *Inverted) compare(ctx context.Context, as, bs *block, emit func(pair) error) error {
	var c counts
	defer func() { n.stats.add(c) }()
	m, mirrored := n.opts.Measure, n.opts.mirrored()
	postings := as.index(n.opts.FilteredID)

	// Non-candidates need visiting when they may still be accepted: with
	// a score of exactly 0, or with a full score for other measures.
	var visitAll, zeroRest bool
	switch {
	case m.DisjointZero():
		zeroRest = n.opts.Filter.acceptsScore(0)
		visitAll = zeroRest
	case !n.opts.Approximate:
		visitAll = true
	}

	mark := make([]int, len(as.vecs))
	var candidates []int32
	for j, b := range bs.vecs {
		if err := ctx.Err(); err != nil {
			return err
		}
		stamp := j + 1
		candidates = candidates[:0]
		for _, k := range b.Keys {
			for _, i := range postings[k] {
				if mark[i] != stamp {
					mark[i] = stamp
					candidates = append(candidates, i)
				}
			}
		}

		if !visitAll {
			slices.Sort(candidates)
			for _, i := range candidates {
				a := as.vecs[i]
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
			continue
		}

		for i, a := range as.vecs {
			if mirrored && b.ID < a.ID {
				continue
			}
			var score float64
			switch {
			case mark[i] == stamp:
				c.candidates++
				c.comparisons++
				score = m.Score(a, b, as.side[i], bs.side[j])
			case zeroRest:
				score = 0
			default:
				c.comparisons++
				score = m.Score(a, b, as.side[i], bs.side[j])
			}
			if err := n.opts.produce(a, b, score, &c, emit); err != nil {
				return err
			}
		}
	}
	return nil
}
