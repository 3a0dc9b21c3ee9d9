// Package extsort sorts record streams larger than memory. Input is split
// into chunks that are sorted in parallel and written as runs; runs are
// merged pairwise as soon as two are available until one remains.
package extsort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/chunk"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/runfile"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/task"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tempfile"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
)

// Config controls chunking, parallelism and run files.
type Config struct {
	ChunkSize   int
	ChunkBytes  int64
	Threads     int
	MaxInFlight int
	KeepTemp    bool
	Compress    bool
}

// FromConfig maps the sort section of the build configuration.
func FromConfig(c config.SortConfig) Config {
	return Config{
		ChunkSize:   c.ChunkSize,
		ChunkBytes:  c.ChunkBytes,
		Threads:     c.Threads,
		MaxInFlight: c.MaxInFlight,
		KeepTemp:    c.KeepTempFiles,
		Compress:    c.Compress,
	}
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.ChunkSize < 1 {
		c.ChunkSize = chunk.DefaultMaxItems
	}
	if c.Threads < 1 {
		c.Threads = runtime.NumCPU() + 1
	}
	if c.MaxInFlight < 1 {
		c.MaxInFlight = c.Threads * 2
	}
	return c
}

// Sorter sorts streams of T.
type Sorter[T any] struct {
	name    string
	cfg     Config
	cmp     record.Comparator[T]
	reduce  record.Reducer[T]
	sizeOf  func(T) int64
	files   *tempfile.Factory
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Sorter.
type Option[T any] func(*Sorter[T])

// WithReducer combines records that compare equal.
func WithReducer[T any](r record.Reducer[T]) Option[T] {
	return func(s *Sorter[T]) { s.reduce = r }
}

// WithMetrics records task and queue metrics.
func WithMetrics[T any](m *metrics.Metrics) Option[T] {
	return func(s *Sorter[T]) { s.metrics = m }
}

// WithSizer estimates record sizes for the ChunkBytes budget.
func WithSizer[T any](sizeOf func(T) int64) Option[T] {
	return func(s *Sorter[T]) { s.sizeOf = sizeOf }
}

// New returns a Sorter ordering by cmp, which must not be nil.
func New[T any](name string, cfg Config, cmp record.Comparator[T], files *tempfile.Factory, opts ...Option[T]) *Sorter[T] {
	if cmp == nil {
		panic(fmt.Sprintf("sorter %s: nil comparator", name))
	}
	s := &Sorter[T]{
		name:   name,
		cfg:    cfg.WithDefaults(),
		cmp:    cmp,
		files:  files,
		logger: slog.Default().With("component", "extsort", "sorter", name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sort reads src to the end and writes its records to dst in comparator
// order, flushing dst. It returns the number of records written.
func (s *Sorter[T]) Sort(ctx context.Context, src stream.Source[T], dst stream.Sink[T]) (int64, error) {
	start := time.Now()
	tree := NewMergeTree[T](s.name, s.cfg, s.cmp, s.reduce, s.files, s.metrics)
	sched := task.NewScheduler(ctx, s.cfg.Threads, s.cfg.MaxInFlight, tree.Handle, s.metrics)
	defer sched.Close()

	var chunkOpts []chunk.Option[T]
	if s.cfg.ChunkBytes > 0 && s.sizeOf != nil {
		chunkOpts = append(chunkOpts, chunk.WithByteBudget(s.cfg.ChunkBytes, s.sizeOf))
	}
	chunker := chunk.New[T](src, s.cfg.ChunkSize, chunkOpts...)
	chunks, read := 0, 0
	for {
		ch, err := chunker.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading chunk %d: %w", chunks, err)
		}
		path, err := s.files.Create()
		if err != nil {
			return 0, err
		}
		chunks++
		read += ch.Len()
		s.logger.Debug("chunk read", "chunk", ch.Seq, "records", ch.Len(), "run_file", path)
		if err := sched.Submit(s.sortTask(ch, path)); err != nil {
			return 0, err
		}
		if err := sched.Poll(); err != nil {
			return 0, err
		}
	}
	s.metrics.AddRecords(s.name, read)
	if err := sched.Drain(); err != nil {
		return 0, err
	}
	if chunks == 0 {
		return 0, dst.Flush()
	}
	n, err := tree.Finish(dst)
	if err != nil {
		return n, err
	}
	s.logger.Info("sort complete",
		"records_in", read,
		"records_out", n,
		"chunks", chunks,
		"elapsed", time.Since(start),
	)
	return n, nil
}

func (s *Sorter[T]) sortTask(ch *chunk.Chunk[T], dst string) *SortTask[T] {
	return &SortTask[T]{
		Chunk:  ch,
		Dst:    dst,
		cmp:    s.cmp,
		reduce: s.reduce,
		opts:   runfile.Options{Compress: s.cfg.Compress},
	}
}

// SortSlice sorts items with a Sorter and returns the result, for inputs
// that are already in memory.
func SortSlice[T any](ctx context.Context, s *Sorter[T], items []T) ([]T, error) {
	sink := &stream.SliceSink[T]{}
	if _, err := s.Sort(ctx, stream.FromSlice(items), sink); err != nil {
		return nil, err
	}
	return sink.Items, nil
}
