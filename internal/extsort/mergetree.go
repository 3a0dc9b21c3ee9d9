package extsort

import (
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/runfile"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/task"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tempfile"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
)

// MergeTree pairs up sorted runs as they become available. Whenever two runs
// are queued the two oldest are merged into a new run, which rejoins the
// queue once its merge completes. It is driven from a single goroutine.
type MergeTree[T any] struct {
	name     string
	cmp      record.Comparator[T]
	reduce   record.Reducer[T]
	files    *tempfile.Factory
	opts     runfile.Options
	keepTemp bool
	queue    []string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewMergeTree returns an empty tree. cmp must not be nil.
func NewMergeTree[T any](name string, cfg Config, cmp record.Comparator[T], reduce record.Reducer[T], files *tempfile.Factory, m *metrics.Metrics) *MergeTree[T] {
	if cmp == nil {
		panic(fmt.Sprintf("merge tree %s: nil comparator", name))
	}
	return &MergeTree[T]{
		name:     name,
		cmp:      cmp,
		reduce:   reduce,
		files:    files,
		opts:     runfile.Options{Compress: cfg.Compress},
		keepTemp: cfg.KeepTemp,
		metrics:  m,
		logger:   slog.Default().With("component", "merge-tree", "tree", name),
	}
}

// Push queues a sorted run and returns a merge task if a pair is ready.
func (t *MergeTree[T]) Push(run string) ([]task.Task, error) {
	t.queue = append(t.queue, run)
	defer func() { t.metrics.SetQueueDepth(t.name, len(t.queue)) }()
	if len(t.queue) < 2 {
		return nil, nil
	}
	srcA, srcB := t.queue[0], t.queue[1]
	t.queue = t.queue[2:]
	dst, err := t.files.Create()
	if err != nil {
		return nil, fmt.Errorf("creating merge output: %w", err)
	}
	t.logger.Debug("merging runs", "src_a", srcA, "src_b", srcB, "dst", dst)
	return []task.Task{&MergeTask[T]{SrcA: srcA, SrcB: srcB, Dst: dst, Tree: t}}, nil
}

// Merged queues the output of a completed merge and schedules deletion of
// its inputs unless temp files are kept.
func (t *MergeTree[T]) Merged(m *MergeTask[T]) ([]task.Task, error) {
	if m.Tree != t {
		panic(fmt.Sprintf("merge tree %s: merge task belongs to tree %s", t.name, m.Tree.name))
	}
	next, err := t.Push(m.Dst)
	if err != nil {
		return nil, err
	}
	if !t.keepTemp {
		next = append(next,
			&task.DeleteTask{Path: m.SrcA, Files: t.files},
			&task.DeleteTask{Path: m.SrcB, Files: t.files},
		)
	}
	return next, nil
}

// Handle is a scheduler handler for a tree fed only by its own sort tasks.
func (t *MergeTree[T]) Handle(done task.Task) ([]task.Task, error) {
	switch d := done.(type) {
	case *SortTask[T]:
		return t.Push(d.Dst)
	case *MergeTask[T]:
		return t.Merged(d)
	case *task.DeleteTask:
		return nil, nil
	default:
		panic(fmt.Sprintf("merge tree %s: unexpected task %T", t.name, done))
	}
}

// Len returns the number of runs waiting for a partner.
func (t *MergeTree[T]) Len() int {
	return len(t.queue)
}

// Finish copies the single remaining run to dst, flushes dst and deletes the
// run. Any other queue length means runs were lost and panics.
func (t *MergeTree[T]) Finish(dst stream.Sink[T]) (int64, error) {
	if len(t.queue) != 1 {
		panic(fmt.Sprintf("merge tree %s: %d runs left after draining, want 1", t.name, len(t.queue)))
	}
	final := t.queue[0]
	t.queue = nil
	r, err := runfile.Open[T](final, t.opts)
	if err != nil {
		return 0, err
	}
	n, err := stream.Copy[T](dst, r)
	r.Close()
	if err != nil {
		return n, fmt.Errorf("copying sorted output: %w", err)
	}
	if err := dst.Flush(); err != nil {
		return n, fmt.Errorf("flushing sorted output: %w", err)
	}
	if err := t.files.Delete(final); err != nil {
		return n, err
	}
	t.metrics.SetQueueDepth(t.name, 0)
	return n, nil
}
