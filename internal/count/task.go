package count

import (
	"context"
	"maps"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/chunk"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/runfile"
)

// CountTask tallies one chunk of instances and writes entry, feature and
// event frequencies, each sorted by id, to its three destination runs.
type CountTask struct {
	Chunk       *chunk.Chunk[record.TokenPair]
	EntriesDst  string
	FeaturesDst string
	EventsDst   string

	opts runfile.Options
}

func (t *CountTask) Kind() string { return "count" }

func (t *CountTask) Run(ctx context.Context) error {
	entries := make(map[int32]float64)
	features := make(map[int32]float64)
	events := make(map[record.TokenPair]float64)
	for _, inst := range t.Chunk.Items {
		entries[inst.ID1]++
		features[inst.ID2]++
		events[inst]++
	}
	t.Chunk.Items = nil

	if err := runfile.WriteAll(t.EntriesDst, t.opts, tokenRun(entries)); err != nil {
		return err
	}
	if err := runfile.WriteAll(t.FeaturesDst, t.opts, tokenRun(features)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	keys := slices.SortedFunc(maps.Keys(events), record.PairOrder)
	run := make([]eventFreq, len(keys))
	for i, k := range keys {
		run[i] = record.NewWeighted(k, events[k])
	}
	return runfile.WriteAll(t.EventsDst, t.opts, run)
}

func tokenRun(freq map[int32]float64) []tokenFreq {
	ids := slices.Sorted(maps.Keys(freq))
	run := make([]tokenFreq, len(ids))
	for i, id := range ids {
		run[i] = record.NewWeighted(record.NewToken(id), freq[id])
	}
	return run
}
