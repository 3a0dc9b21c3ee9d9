// Package filter removes rare entries and features from counted events.
// Events of rare features are folded into a single sentinel feature so that
// vector sums are preserved; events of rare entries are dropped.
package filter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/extsort"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/measure"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tempfile"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
)

type (
	tokenFreq = record.Weighted[record.Token]
	eventFreq = record.Weighted[record.TokenPair]
)

// Options sets the frequency thresholds. Tokens whose frequency is below a
// threshold are filtered. FilteredID is the sentinel feature that replaces
// filtered features; measure.NoFilter drops their events instead.
type Options struct {
	MinEntryFreq   float64
	MinFeatureFreq float64
	FilteredID     int32
}

// Sources are the count outputs, each sorted by id.
type Sources struct {
	Entries  stream.Source[tokenFreq]
	Features stream.Source[tokenFreq]
	Events   stream.Source[eventFreq]
}

// Sinks receive the filtered frequencies, each sorted by id.
type Sinks struct {
	Entries  stream.Sink[tokenFreq]
	Features stream.Sink[tokenFreq]
	Events   stream.Sink[eventFreq]
}

// Result counts what was kept and filtered.
type Result struct {
	Entries          int64
	Features         int64
	Events           int64
	FilteredEntries  int64
	FilteredFeatures int64
}

type Filter struct {
	opts    Options
	sort    extsort.Config
	files   *tempfile.Factory
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(opts Options, sort extsort.Config, files *tempfile.Factory, m *metrics.Metrics) *Filter {
	return &Filter{
		opts:    opts,
		sort:    sort,
		files:   files,
		metrics: m,
		logger:  slog.Default().With("component", "filter"),
	}
}

// Run filters src into out and flushes every sink. Entry and feature
// frequencies are held in memory as id sets.
func (f *Filter) Run(ctx context.Context, src Sources, out Sinks) (Result, error) {
	var res Result

	keptEntries := make(map[int32]struct{})
	err := each(src.Entries, func(e tokenFreq) error {
		if e.Weight < f.opts.MinEntryFreq {
			res.FilteredEntries++
			return nil
		}
		keptEntries[e.Record.ID] = struct{}{}
		res.Entries++
		return out.Entries.Write(e)
	})
	if err != nil {
		return res, fmt.Errorf("filtering entries: %w", err)
	}
	if err := out.Entries.Flush(); err != nil {
		return res, err
	}

	rare := make(map[int32]struct{})
	features := &mapSource[tokenFreq]{src: src.Features, fn: func(ft tokenFreq) (tokenFreq, bool) {
		if ft.Weight >= f.opts.MinFeatureFreq {
			return ft, true
		}
		rare[ft.Record.ID] = struct{}{}
		res.FilteredFeatures++
		if f.opts.FilteredID == measure.NoFilter {
			return ft, false
		}
		ft.Record.ID = f.opts.FilteredID
		return ft, true
	}}
	fsorter := extsort.New("filter-features", f.sort, record.ByRecord[record.Token](record.TokenOrder), f.files,
		extsort.WithReducer[tokenFreq](record.SumWeights[record.Token]),
		extsort.WithMetrics[tokenFreq](f.metrics))
	if res.Features, err = fsorter.Sort(ctx, features, out.Features); err != nil {
		return res, fmt.Errorf("filtering features: %w", err)
	}

	events := &mapSource[eventFreq]{src: src.Events, fn: func(ev eventFreq) (eventFreq, bool) {
		if _, ok := keptEntries[ev.Record.ID1]; !ok {
			return ev, false
		}
		if _, ok := rare[ev.Record.ID2]; ok {
			if f.opts.FilteredID == measure.NoFilter {
				return ev, false
			}
			ev.Record.ID2 = f.opts.FilteredID
		}
		return ev, true
	}}
	esorter := extsort.New("filter-events", f.sort, record.ByRecord[record.TokenPair](record.PairOrder), f.files,
		extsort.WithReducer[eventFreq](record.SumWeights[record.TokenPair]),
		extsort.WithMetrics[eventFreq](f.metrics))
	if res.Events, err = esorter.Sort(ctx, events, out.Events); err != nil {
		return res, fmt.Errorf("filtering events: %w", err)
	}

	f.logger.Info("filter complete",
		"entries", res.Entries,
		"features", res.Features,
		"events", res.Events,
		"filtered_entries", res.FilteredEntries,
		"filtered_features", res.FilteredFeatures,
	)
	return res, nil
}

func each[T any](src stream.Source[T], fn func(T) error) error {
	for {
		rec, err := src.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// mapSource transforms records of src, skipping those fn rejects.
type mapSource[T any] struct {
	src stream.Source[T]
	fn  func(T) (T, bool)
}

func (m *mapSource[T]) Read() (T, error) {
	for {
		rec, err := m.src.Read()
		if err != nil {
			return rec, err
		}
		if out, ok := m.fn(rec); ok {
			return out, nil
		}
	}
}
