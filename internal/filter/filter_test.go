package filter

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/extsort"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/measure"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tempfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tf(id int32, w float64) tokenFreq {
	return record.NewWeighted(record.NewToken(id), w)
}

func ef(e, f int32, w float64) eventFreq {
	return record.NewWeighted(record.NewPair(e, f), w)
}

func counted() Sources {
	return Sources{
		Entries:  stream.FromSlice([]tokenFreq{tf(1, 5), tf(2, 1), tf(3, 4)}),
		Features: stream.FromSlice([]tokenFreq{tf(10, 6), tf(11, 1), tf(12, 1), tf(13, 2)}),
		Events: stream.FromSlice([]eventFreq{
			ef(1, 10, 3), ef(1, 11, 1), ef(1, 12, 1),
			ef(2, 10, 1),
			ef(3, 10, 2), ef(3, 13, 2),
		}),
	}
}

type outputs struct {
	entries, features stream.SliceSink[tokenFreq]
	events            stream.SliceSink[eventFreq]
}

func (o *outputs) sinks() Sinks {
	return Sinks{Entries: &o.entries, Features: &o.features, Events: &o.events}
}

func newFilter(t *testing.T, opts Options) *Filter {
	t.Helper()
	files, err := tempfile.NewFactory(t.TempDir(), "filter")
	require.NoError(t, err)
	return New(opts, extsort.Config{ChunkSize: 2, Threads: 2}, files, nil)
}

func TestFilterFoldsRareFeaturesIntoSentinel(t *testing.T) {
	var out outputs
	f := newFilter(t, Options{MinEntryFreq: 2, MinFeatureFreq: 2, FilteredID: 0})
	res, err := f.Run(context.Background(), counted(), out.sinks())
	require.NoError(t, err)

	assert.Equal(t, []tokenFreq{tf(1, 5), tf(3, 4)}, out.entries.Items)
	assert.Equal(t, []tokenFreq{tf(0, 2), tf(10, 6), tf(13, 2)}, out.features.Items)
	assert.Equal(t, []eventFreq{ef(1, 0, 2), ef(1, 10, 3), ef(3, 10, 2), ef(3, 13, 2)}, out.events.Items)
	assert.Equal(t, Result{Entries: 2, Features: 3, Events: 4, FilteredEntries: 1, FilteredFeatures: 2}, res)
}

func TestFilterWithoutSentinelDropsRareFeatures(t *testing.T) {
	var out outputs
	f := newFilter(t, Options{MinFeatureFreq: 2, FilteredID: measure.NoFilter})
	_, err := f.Run(context.Background(), counted(), out.sinks())
	require.NoError(t, err)

	assert.Equal(t, []tokenFreq{tf(10, 6), tf(13, 2)}, out.features.Items)
	assert.Equal(t, []eventFreq{ef(1, 10, 3), ef(2, 10, 1), ef(3, 10, 2), ef(3, 13, 2)}, out.events.Items)
	assert.Len(t, out.entries.Items, 3)
}

func TestFilterZeroThresholdsKeepEverything(t *testing.T) {
	var out outputs
	res, err := newFilter(t, Options{FilteredID: measure.NoFilter}).Run(context.Background(), counted(), out.sinks())
	require.NoError(t, err)
	assert.Equal(t, Result{Entries: 3, Features: 4, Events: 6}, res)
}
