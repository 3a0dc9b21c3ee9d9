package extsort

import (
	"context"
	"fmt"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/chunk"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/runfile"
)

// SortTask sorts one chunk in memory and writes it to Dst as a run.
type SortTask[T any] struct {
	Chunk   *chunk.Chunk[T]
	Dst     string
	Records int64

	cmp    record.Comparator[T]
	reduce record.Reducer[T]
	opts   runfile.Options
}

func (t *SortTask[T]) Kind() string { return "sort" }

func (t *SortTask[T]) Run(ctx context.Context) error {
	slices.SortStableFunc(t.Chunk.Items, t.cmp)
	w, err := runfile.Create[T](t.Dst, t.opts)
	if err != nil {
		return err
	}
	out := &reducingSink[T]{dst: w, cmp: t.cmp, reduce: t.reduce}
	for _, rec := range t.Chunk.Items {
		if err := out.Write(rec); err != nil {
			w.Close()
			return fmt.Errorf("writing chunk %d: %w", t.Chunk.Seq, err)
		}
	}
	if err := out.release(); err != nil {
		w.Close()
		return fmt.Errorf("writing chunk %d: %w", t.Chunk.Seq, err)
	}
	t.Records = out.count
	// the chunk is no longer needed once written
	t.Chunk.Items = nil
	return w.Close()
}

// MergeTask merges the runs SrcA and SrcB into Dst. Tree is the merge tree
// the output belongs to.
type MergeTask[T any] struct {
	SrcA    string
	SrcB    string
	Dst     string
	Tree    *MergeTree[T]
	Records int64
}

func (t *MergeTask[T]) Kind() string { return "merge" }

func (t *MergeTask[T]) Run(ctx context.Context) error {
	opts := t.Tree.opts
	a, err := runfile.Open[T](t.SrcA, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	b, err := runfile.Open[T](t.SrcB, opts)
	if err != nil {
		return err
	}
	defer b.Close()
	w, err := runfile.Create[T](t.Dst, opts)
	if err != nil {
		return err
	}
	n, err := Merge[T](ctx, w, a, b, t.Tree.cmp, t.Tree.reduce)
	if err != nil {
		w.Close()
		return fmt.Errorf("merging %s and %s: %w", t.SrcA, t.SrcB, err)
	}
	t.Records = n
	return w.Close()
}
