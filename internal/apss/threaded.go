package apss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/chunk"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/task"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
)

// DefaultChunkSize is the number of vectors per chunk of the threaded engine.
const DefaultChunkSize = 1000

// ThreadConfig sizes the threaded engine.
type ThreadConfig struct {
	Threads     int
	MaxInFlight int
	ChunkSize   int
	Metrics     *metrics.Metrics
}

// Threaded runs an inner engine over every pair of chunks of a and b on a
// task scheduler. b is re-read from its start for every chunk of a.
type Threaded struct {
	inner  kernel
	cfg    ThreadConfig
	logger *slog.Logger
}

func newThreaded(inner kernel, cfg ThreadConfig) *Threaded {
	if cfg.Threads < 1 {
		cfg.Threads = runtime.NumCPU() + 1
	}
	if cfg.MaxInFlight < 1 {
		cfg.MaxInFlight = cfg.Threads * 2
	}
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Threaded{
		inner:  inner,
		cfg:    cfg,
		logger: slog.Default().With("component", "apss", "algorithm", "threaded"),
	}
}

func (t *Threaded) Stats() *Stats { return t.inner.Stats() }

// pairTask scores one chunk pair, buffering its output so the shared sink is
// locked once per task.
type pairTask struct {
	A, B   *block
	inner  kernel
	sink   *stream.SyncSink[pair]
	Output int
}

func (p *pairTask) Kind() string { return "apss" }

func (p *pairTask) Run(ctx context.Context) error {
	var out []pair
	err := p.inner.compare(ctx, p.A, p.B, func(r pair) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return err
	}
	p.Output = len(out)
	return p.sink.WriteAll(out)
}

func (t *Threaded) Run(ctx context.Context, a stream.Source[*vector.Sparse], b stream.SeekableSource[*vector.Sparse], dst stream.Sink[pair]) error {
	opts, stats := t.inner.options(), t.inner.Stats()
	sink := stream.Synchronized(dst)
	sched := task.NewScheduler(ctx, t.cfg.Threads, t.cfg.MaxInFlight, func(done task.Task) ([]task.Task, error) {
		if _, ok := done.(*pairTask); !ok {
			panic(fmt.Sprintf("apss: unexpected task %T", done))
		}
		return nil, nil
	}, t.cfg.Metrics)
	defer sched.Close()

	chunksA := chunk.New[*vector.Sparse](a, t.cfg.ChunkSize)
	chunksB := chunk.NewSeekable[*vector.Sparse](b, t.cfg.ChunkSize)
	restart, err := chunksB.Position()
	if err != nil {
		return fmt.Errorf("reading vector position: %w", err)
	}
	for {
		chA, err := chunksA.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading chunk of a: %w", err)
		}
		stats.Reads.Add(int64(chA.Len()))
		as := leftBlock(opts.Measure, chA.Items)
		for {
			chB, err := chunksB.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("reading chunk of b: %w", err)
			}
			stats.Reads.Add(int64(chB.Len()))
			t.logger.Debug("scheduling chunk pair", "chunk_a", chA.Seq, "chunk_b", chB.Seq)
			p := &pairTask{A: as, B: rightBlock(opts.Measure, chB.Items), inner: t.inner, sink: sink}
			if err := sched.Submit(p); err != nil {
				return err
			}
			if err := sched.Poll(); err != nil {
				return err
			}
		}
		if err := chunksB.Seek(restart); err != nil {
			return fmt.Errorf("rewinding b: %w", err)
		}
	}
	if err := sched.Drain(); err != nil {
		return err
	}
	if err := sink.Flush(); err != nil {
		return fmt.Errorf("flushing pairs: %w", err)
	}
	logStats(t.logger, stats)
	return nil
}
