// Package pipeline runs the stages of a thesaurus build over files: count,
// filter, feature weighting, all-pairs similarity and k-nearest-neighbours. Each stage is traced,
// timed into metrics and announced through a Notifier.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/apss"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/count"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/enumerator"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/extsort"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/filter"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/knn"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/measure"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tempfile"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tsv"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/weighting"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/tracing"
)

type (
	tokenFreq = record.Weighted[record.Token]
	eventFreq = record.Weighted[record.TokenPair]
)

// Options configure a Pipeline.
type Options struct {
	Config  *config.Config
	Metrics *metrics.Metrics
	// Notifier defaults to NewNotifier(Config.Kafka).
	Notifier Notifier
	// Tracker, if set, follows stage progress.
	Tracker *health.Tracker
}

// Pipeline holds what the stages of one run share: the enumerators, the
// temporary file factory, the feature marginals once loaded and the run id.
type Pipeline struct {
	cfg       *config.Config
	runID     string
	files     *tempfile.Factory
	entries   enumerator.Enumerator
	features  enumerator.Enumerator
	marginals *vector.Marginals
	notifier  Notifier
	tracker   *health.Tracker
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New opens the enumerators unless the configuration says the files are
// already enumerated. Close must be called to persist them.
func New(ctx context.Context, opts Options) (*Pipeline, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// parameters are checked against empty marginals; the real ones are
	// only known once a features file is read
	empty := vector.NewMarginals(nil)
	if _, err := newMeasure(cfg.AllPairs.Measure, measure.NoFilter, empty); err != nil {
		return nil, err
	}
	if _, err := newWeighting(cfg, empty); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	files, err := tempfile.NewFactory(cfg.Sort.TempDir, "byblo-"+runID[:8])
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:      cfg,
		runID:    runID,
		files:    files,
		notifier: opts.Notifier,
		tracker:  opts.Tracker,
		metrics:  opts.Metrics,
		logger:   slog.Default().With("component", "pipeline", "run_id", runID),
	}
	if p.notifier == nil {
		p.notifier = NewNotifier(cfg.Kafka)
	}
	p.tracker.SetRunID(runID)

	if !cfg.Enumerator.Enumerated {
		g, gctx := errgroup.WithContext(ctx)
		open := func(role string, dst *enumerator.Enumerator) func() error {
			return func() error {
				e, err := enumerator.Open(gctx, enumerator.Options{
					Config:   cfg.Enumerator,
					Role:     role,
					Postgres: cfg.Postgres,
					Redis:    cfg.Redis,
					Metrics:  opts.Metrics,
				})
				if err != nil {
					return fmt.Errorf("opening %s enumerator: %w", role, err)
				}
				*dst = e
				return nil
			}
		}
		g.Go(open(enumerator.RoleEntries, &p.entries))
		g.Go(open(enumerator.RoleFeatures, &p.features))
		if err := g.Wait(); err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}

// RunID identifies this run in logs, spans and stage events.
func (p *Pipeline) RunID() string { return p.runID }

// Close saves and closes the enumerators, closes the notifier and removes the
// temporary files unless they are kept.
func (p *Pipeline) Close() error {
	var result *multierror.Error
	for _, e := range []enumerator.Enumerator{p.entries, p.features} {
		if e == nil {
			continue
		}
		if err := e.Save(); err != nil {
			result = multierror.Append(result, fmt.Errorf("saving enumerator: %w", err))
		}
		if err := e.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing enumerator: %w", err))
		}
	}
	if err := p.notifier.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("closing notifier: %w", err))
	}
	if !p.cfg.Sort.KeepTempFiles {
		if err := p.files.Cleanup(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (p *Pipeline) entryIndexer() tsv.Indexer {
	if p.entries == nil {
		return nil
	}
	return p.entries
}

func (p *Pipeline) featureIndexer() tsv.Indexer {
	if p.features == nil {
		return nil
	}
	return p.features
}

func (p *Pipeline) sortConfig() extsort.Config {
	return extsort.FromConfig(p.cfg.Sort)
}

func (p *Pipeline) filtering() bool {
	return p.cfg.Filter.MinEntryFreq > 0 || p.cfg.Filter.MinFeatureFreq > 0
}

// filteredID is the sentinel feature id, or measure.NoFilter when nothing
// is filtered or tokens are not enumerated here.
func (p *Pipeline) filteredID() (int32, error) {
	if !p.filtering() || p.features == nil {
		return measure.NoFilter, nil
	}
	id, err := p.features.IDOf(p.cfg.Filter.FilteredFeature)
	if err != nil {
		return 0, fmt.Errorf("enumerating filtered feature: %w", err)
	}
	return id, nil
}

// stage runs fn as one traced, timed and announced stage. fn returns the
// number of records it wrote.
func (p *Pipeline) stage(ctx context.Context, name, output string, fn func(ctx context.Context) (int64, error)) error {
	ctx = logger.WithRunID(ctx, p.runID)
	ctx, span := tracing.StartChildSpan(ctx, name)
	log := logger.FromContext(ctx).With("stage", name)
	log.Info("stage started", "output", output)
	p.tracker.Begin(name)

	n, err := fn(ctx)
	p.tracker.End(name, n, err)
	span.SetAttr("records", n)
	d := span.End(err)
	p.metrics.ObserveStage(name, d)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	p.metrics.AddRecords(name, int(n))
	log.Info("stage complete",
		"records", n,
		"duration_ms", d.Milliseconds(),
	)
	notify(ctx, p.notifier, StageEvent{
		RunID:      p.runID,
		Stage:      name,
		Output:     output,
		Records:    n,
		DurationMs: d.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}, log)
	return nil
}

// closeInto closes c and keeps its error if *err is still nil.
func closeInto(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}

// Count counts the instances file into the three frequency files of out.
func (p *Pipeline) Count(ctx context.Context, instances string, out Paths) (count.Result, error) {
	var res count.Result
	err := p.stage(ctx, StageCount, out.Events, func(ctx context.Context) (n int64, err error) {
		src, err := tsv.Open(instances, tsv.Instances(p.entryIndexer(), p.featureIndexer()))
		if err != nil {
			return 0, err
		}
		defer src.Close()
		w, err := p.createFrequencies(out)
		if err != nil {
			return 0, err
		}
		defer closeInto(&err, w)

		res, err = count.New(p.sortConfig(), p.files, p.metrics).Count(ctx, src, count.Sinks{
			Entries:  w.entries,
			Features: w.features,
			Events:   w.events,
		})
		return res.Events, err
	})
	return res, err
}

// Filter drops rare entries and folds rare features of the frequency files
// in into the sentinel feature, writing the result to out.
func (p *Pipeline) Filter(ctx context.Context, in, out Paths) (filter.Result, error) {
	var res filter.Result
	err := p.stage(ctx, StageFilter, out.Events, func(ctx context.Context) (n int64, err error) {
		filtered, err := p.filteredID()
		if err != nil {
			return 0, err
		}
		r, err := p.openFrequencies(in)
		if err != nil {
			return 0, err
		}
		defer r.Close()
		w, err := p.createFrequencies(out)
		if err != nil {
			return 0, err
		}
		defer closeInto(&err, w)

		f := filter.New(filter.Options{
			MinEntryFreq:   p.cfg.Filter.MinEntryFreq,
			MinFeatureFreq: p.cfg.Filter.MinFeatureFreq,
			FilteredID:     filtered,
		}, p.sortConfig(), p.files, p.metrics)
		res, err = f.Run(ctx,
			filter.Sources{Entries: r.entries, Features: r.features, Events: r.events},
			filter.Sinks{Entries: w.entries, Features: w.features, Events: w.events})
		return res.Events, err
	})
	return res, err
}

// Engine builds the configured measure and all-pairs engine.
func (p *Pipeline) Engine() (apss.Engine, error) {
	filtered, err := p.filteredID()
	if err != nil {
		return nil, err
	}
	m, err := newMeasure(p.cfg.AllPairs.Measure, filtered, p.marginals)
	if err != nil {
		return nil, err
	}
	ac := p.cfg.AllPairs
	return apss.New(ac.Algorithm, ac.Inner, apss.Options{
		Measure: m,
		Filter: apss.PairFilter{
			MinSimilarity: ac.MinSimilarity,
			MaxSimilarity: ac.MaxSimilarity,
			IdentityPairs: ac.IdentityPairs,
		},
		SameSource:  true,
		FilteredID:  filtered,
		Approximate: ac.Approximate,
	}, apss.ThreadConfig{
		Threads:   ac.Threads,
		ChunkSize: ac.ChunkSize,
		Metrics:   p.metrics,
	})
}

// newMeasure builds the configured measure. marginals may be nil when the
// measure does not read them; Kendall's tau spans at least their feature
// space.
func newMeasure(mc config.MeasureConfig, filtered int32, marginals *vector.Marginals) (measure.Measure, error) {
	minCardinality := mc.MinCardinality
	if marginals != nil && marginals.Cardinality() > minCardinality {
		minCardinality = marginals.Cardinality()
	}
	m, err := measure.New(mc.Name, measure.Params{
		P:              mc.P,
		Alpha:          mc.Alpha,
		Beta:           mc.Beta,
		Gamma:          mc.Gamma,
		Lambda:         mc.Lambda,
		MinCardinality: minCardinality,
		FilteredID:     filtered,
		Reversed:       mc.Reversed,
		Marginals:      marginals,
	})
	if err != nil {
		return nil, fmt.Errorf("building measure: %w", err)
	}
	return m, nil
}

// newWeighting builds the configured scheme followed, when weighting.auto
// is set, by the one the measure expects.
func newWeighting(cfg *config.Config, marginals *vector.Marginals) (weighting.Weighting, error) {
	names := []string{cfg.Weighting.Scheme}
	if cfg.Weighting.Auto {
		names = append(names, measure.ExpectedWeighting(cfg.AllPairs.Measure.Name))
	}
	w, err := weighting.NewChain(names, weighting.Params{
		Marginals: marginals,
		Factor:    cfg.Weighting.Factor,
	})
	if err != nil {
		return nil, fmt.Errorf("building weighting: %w", err)
	}
	return w, nil
}

// reweighting reports whether Build runs the weight stage.
func (p *Pipeline) reweighting() bool {
	w, err := newWeighting(p.cfg, vector.NewMarginals(nil))
	return err == nil && !weighting.IsNull(w)
}

// UseFeatures loads the feature frequencies of a features file for the
// contextual weightings and measures of later stages.
func (p *Pipeline) UseFeatures(path string) error {
	r, err := tsv.Open(path, tsv.Tokens(p.featureIndexer()))
	if err != nil {
		return err
	}
	defer r.Close()
	m, err := vector.ReadMarginals(r)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	p.marginals = m
	p.logger.Debug("feature frequencies loaded",
		"path", path,
		"features", m.NonZero(),
		"total", m.Total(),
	)
	return nil
}

// Weight reweights the entry vectors of the events file with the configured
// scheme and writes them to out. Contextual schemes need UseFeatures first.
func (p *Pipeline) Weight(ctx context.Context, events, out string) (weighting.Result, error) {
	var res weighting.Result
	err := p.stage(ctx, StageWeight, out, func(ctx context.Context) (n int64, err error) {
		w, err := newWeighting(p.cfg, p.marginals)
		if err != nil {
			return 0, err
		}
		codec := tsv.Pairs(p.entryIndexer(), p.featureIndexer())
		r, err := tsv.Open(events, codec)
		if err != nil {
			return 0, err
		}
		defer r.Close()
		dst, err := tsv.Create(out, codec)
		if err != nil {
			return 0, err
		}
		defer closeInto(&err, dst)

		res, err = weighting.Reweight(ctx, w, vector.NewReader(r), dst)
		if res.Dropped > 0 {
			logger.FromContext(ctx).Info("entries left without weighted features",
				"scheme", w.Name(),
				"dropped", res.Dropped,
			)
		}
		return res.Events, err
	})
	return res, err
}

// AllPairs scores every pair of entry vectors of the events file and writes
// the accepted similarities to out.
func (p *Pipeline) AllPairs(ctx context.Context, events, out string) (*apss.Stats, error) {
	var stats *apss.Stats
	err := p.stage(ctx, StageAllPairs, out, func(ctx context.Context) (n int64, err error) {
		engine, err := p.Engine()
		if err != nil {
			return 0, err
		}
		codec := tsv.Pairs(p.entryIndexer(), p.featureIndexer())
		ra, err := tsv.Open(events, codec)
		if err != nil {
			return 0, err
		}
		defer ra.Close()
		rb, err := tsv.Open(events, codec)
		if err != nil {
			return 0, err
		}
		defer rb.Close()
		w, err := tsv.Create(out, tsv.Pairs(p.entryIndexer(), p.entryIndexer()))
		if err != nil {
			return 0, err
		}
		defer closeInto(&err, w)

		err = engine.Run(ctx, vector.NewReader(ra), vector.NewReader(rb), w)
		stats = engine.Stats()
		p.metrics.AddAPSS(stats.Candidates.Load(), stats.Comparisons.Load(), stats.Productions.Load())
		return stats.Productions.Load(), err
	})
	return stats, err
}

// Knn keeps the K most similar neighbours of every entry of the sims file,
// writing them to out grouped by entry, most similar first.
func (p *Pipeline) Knn(ctx context.Context, sims, out string) (int64, error) {
	var kept int64
	err := p.stage(ctx, StageKnn, out, func(ctx context.Context) (n int64, err error) {
		codec := tsv.Pairs(p.entryIndexer(), p.entryIndexer())
		r, err := tsv.Open(sims, codec)
		if err != nil {
			return 0, err
		}
		defer r.Close()
		w, err := tsv.Create(out, codec)
		if err != nil {
			return 0, err
		}
		defer closeInto(&err, w)

		kept, err = knn.Nearest(ctx, r, w, p.cfg.Knn.K, p.sortConfig(), p.files, p.metrics)
		return kept, err
	})
	return kept, err
}

// SortOptions select what SortPairs sorts.
type SortOptions struct {
	// Sims marks a similarity file, whose second column holds entries.
	// Otherwise the file holds events and duplicate pairs are summed.
	Sims bool
	// ByString orders by token strings instead of ids.
	ByString bool
}

const pairSize = int64(unsafe.Sizeof(eventFreq{}))

// SortPairs sorts a file of weighted pairs by pair, descending when
// sort.reverse is set.
func (p *Pipeline) SortPairs(ctx context.Context, in, out string, opts SortOptions) (int64, error) {
	var written int64
	err := p.stage(ctx, StageSort, out, func(ctx context.Context) (n int64, err error) {
		second := p.featureIndexer()
		if opts.Sims {
			second = p.entryIndexer()
		}
		order := record.Comparator[record.TokenPair](record.PairOrder)
		if opts.ByString {
			if p.entries == nil {
				return 0, apperrors.InvalidInputf("string order needs an enumerator, but tokens are enumerated")
			}
			var resolver record.Resolver = p.features
			if opts.Sims {
				resolver = p.entries
			}
			order = record.PairStringOrder(p.entries, resolver)
		}
		cmp := record.ByRecord[record.TokenPair](order)
		if p.cfg.Sort.Reverse {
			cmp = record.Reverse(cmp)
		}
		sorterOpts := []extsort.Option[eventFreq]{
			extsort.WithMetrics[eventFreq](p.metrics),
			extsort.WithSizer[eventFreq](func(eventFreq) int64 { return pairSize }),
		}
		if !opts.Sims {
			sorterOpts = append(sorterOpts, extsort.WithReducer[eventFreq](record.SumWeights[record.TokenPair]))
		}

		codec := tsv.Pairs(p.entryIndexer(), second)
		r, err := tsv.Open(in, codec)
		if err != nil {
			return 0, err
		}
		defer r.Close()
		w, err := tsv.Create(out, codec)
		if err != nil {
			return 0, err
		}
		defer closeInto(&err, w)

		written, err = extsort.New("pairs", p.sortConfig(), cmp, p.files, sorterOpts...).Sort(ctx, r, w)
		return written, err
	})
	return written, err
}

// Result summarises a build.
type Result struct {
	RunID      string
	Count      count.Result
	Filter     *filter.Result
	Weight     *weighting.Result
	Stats      *apss.Stats
	Neighbours int64
	Duration   time.Duration
}

// Build runs every stage from an instances file. Outputs are named after
// prefix: frequency files from count (plus ".filtered" copies when filtering
// is configured), the reweighted events with a ".weighted" suffix when a
// weighting is configured, then prefix.sims and prefix.neighbours.
func (p *Pipeline) Build(ctx context.Context, instances, prefix string) (res *Result, err error) {
	ctx = logger.WithRunID(ctx, p.runID)
	ctx, span := tracing.StartSpan(ctx, "build", p.runID)
	defer func() {
		res.Duration = span.End(err)
		span.Log(p.logger)
	}()
	res = &Result{RunID: p.runID}
	p.logger.Info("build started",
		"instances", instances,
		"output", prefix,
		"measure", p.cfg.AllPairs.Measure.Name,
		"weighting", p.cfg.Weighting.Scheme,
		"algorithm", p.cfg.AllPairs.Algorithm,
	)

	freqs := FrequencyPaths(prefix)
	if res.Count, err = p.Count(ctx, instances, freqs); err != nil {
		return res, err
	}
	events, features := freqs.Events, freqs.Features
	if p.filtering() {
		filtered := freqs.Filtered()
		fr, err := p.Filter(ctx, freqs, filtered)
		if err != nil {
			return res, err
		}
		res.Filter = &fr
		events, features = filtered.Events, filtered.Features
	}
	if err = p.UseFeatures(features); err != nil {
		return res, err
	}
	if p.reweighting() {
		weighted := events + ".weighted"
		wr, err := p.Weight(ctx, events, weighted)
		if err != nil {
			return res, err
		}
		res.Weight = &wr
		events = weighted
	}
	sims := prefix + ".sims"
	if res.Stats, err = p.AllPairs(ctx, events, sims); err != nil {
		return res, err
	}
	if res.Neighbours, err = p.Knn(ctx, sims, prefix+".neighbours"); err != nil {
		return res, err
	}
	p.logger.Info("build complete", "neighbours", res.Neighbours)
	return res, nil
}
