// Package count turns raw (entry, feature) instances into entry, feature and
// event frequencies. Each chunk of instances is tallied in memory and written
// as three sorted runs, which are merged by three merge trees sharing one
// scheduler.
package count

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/chunk"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/extsort"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/runfile"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/task"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tempfile"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
)

type (
	tokenFreq = record.Weighted[record.Token]
	eventFreq = record.Weighted[record.TokenPair]
)

// Sinks receive the three frequency streams, each sorted by id.
type Sinks struct {
	Entries  stream.Sink[tokenFreq]
	Features stream.Sink[tokenFreq]
	Events   stream.Sink[eventFreq]
}

// Result holds record counts of a run.
type Result struct {
	Instances int64
	Entries   int64
	Features  int64
	Events    int64
}

// Counter counts instances with bounded memory.
type Counter struct {
	cfg     extsort.Config
	files   *tempfile.Factory
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(cfg extsort.Config, files *tempfile.Factory, m *metrics.Metrics) *Counter {
	return &Counter{
		cfg:     cfg.WithDefaults(),
		files:   files,
		metrics: m,
		logger:  slog.Default().With("component", "count"),
	}
}

type trees struct {
	entries  *extsort.MergeTree[tokenFreq]
	features *extsort.MergeTree[tokenFreq]
	events   *extsort.MergeTree[eventFreq]
}

func (t *trees) handle(done task.Task) ([]task.Task, error) {
	switch d := done.(type) {
	case *CountTask:
		var next []task.Task
		for _, push := range []func() ([]task.Task, error){
			func() ([]task.Task, error) { return t.entries.Push(d.EntriesDst) },
			func() ([]task.Task, error) { return t.features.Push(d.FeaturesDst) },
			func() ([]task.Task, error) { return t.events.Push(d.EventsDst) },
		} {
			merges, err := push()
			if err != nil {
				return nil, err
			}
			next = append(next, merges...)
		}
		return next, nil
	case *extsort.MergeTask[tokenFreq]:
		return d.Tree.Merged(d)
	case *extsort.MergeTask[eventFreq]:
		return d.Tree.Merged(d)
	case *task.DeleteTask:
		return nil, nil
	default:
		panic(fmt.Sprintf("count: unexpected task %T", done))
	}
}

// Count reads instances to the end and writes the frequencies to out,
// flushing every sink.
func (c *Counter) Count(ctx context.Context, src stream.Source[record.TokenPair], out Sinks) (Result, error) {
	start := time.Now()
	tokens := record.ByRecord[record.Token](record.TokenOrder)
	sum := record.SumWeights[record.Token]
	t := &trees{
		entries:  extsort.NewMergeTree[tokenFreq]("entries", c.cfg, tokens, sum, c.files, c.metrics),
		features: extsort.NewMergeTree[tokenFreq]("features", c.cfg, tokens, sum, c.files, c.metrics),
		events: extsort.NewMergeTree[eventFreq]("events", c.cfg,
			record.ByRecord[record.TokenPair](record.PairOrder),
			record.SumWeights[record.TokenPair], c.files, c.metrics),
	}
	sched := task.NewScheduler(ctx, c.cfg.Threads, c.cfg.MaxInFlight, t.handle, c.metrics)
	defer sched.Close()

	var res Result
	chunker := chunk.New[record.TokenPair](src, c.cfg.ChunkSize)
	chunks := 0
	for {
		ch, err := chunker.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("reading instances: %w", err)
		}
		ct := &CountTask{Chunk: ch, opts: runfile.Options{Compress: c.cfg.Compress}}
		for _, dst := range []*string{&ct.EntriesDst, &ct.FeaturesDst, &ct.EventsDst} {
			if *dst, err = c.files.Create(); err != nil {
				return res, err
			}
		}
		chunks++
		res.Instances += int64(ch.Len())
		if err := sched.Submit(ct); err != nil {
			return res, err
		}
		if err := sched.Poll(); err != nil {
			return res, err
		}
	}
	if err := sched.Drain(); err != nil {
		return res, err
	}
	c.metrics.AddRecords("count", int(res.Instances))

	if chunks == 0 {
		return res, errors.Join(out.Entries.Flush(), out.Features.Flush(), out.Events.Flush())
	}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res.Entries, err = t.entries.Finish(out.Entries)
		return err
	})
	g.Go(func() (err error) {
		res.Features, err = t.features.Finish(out.Features)
		return err
	})
	g.Go(func() (err error) {
		res.Events, err = t.events.Finish(out.Events)
		return err
	})
	if err := g.Wait(); err != nil {
		return res, err
	}
	c.logger.Info("count complete",
		"instances", res.Instances,
		"entries", res.Entries,
		"features", res.Features,
		"events", res.Events,
		"chunks", chunks,
		"elapsed", time.Since(start),
	)
	return res, nil
}
