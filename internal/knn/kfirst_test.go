package knn

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/extsort"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tempfile"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sim = record.Weighted[record.TokenPair]

var byEntry = record.ByRecord[record.TokenPair](record.FirstIDOrder)

// grouped builds ranked similarities for entries 0..len(sizes)-1.
func grouped(sizes ...int) []sim {
	var out []sim
	for entry, n := range sizes {
		for i := 0; i < n; i++ {
			out = append(out, record.NewWeighted(record.NewPair(int32(entry), int32(100+i)), 1/float64(i+1)))
		}
	}
	return out
}

func groupSizes(recs []sim) []int {
	var sizes []int
	for i, r := range recs {
		if i == 0 || recs[i-1].Record.ID1 != r.Record.ID1 {
			sizes = append(sizes, 0)
		}
		sizes[len(sizes)-1]++
	}
	return sizes
}

func TestKFirstTruncatesGroups(t *testing.T) {
	tests := []struct {
		name string
		k    int
		want []int
	}{
		{"k below every group", 3, []int{3, 3, 3}},
		{"k of one", 1, []int{1, 1, 1}},
		{"k at the largest group", 7, []int{5, 3, 7}},
		{"k above every group", 50, []int{5, 3, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &stream.SliceSink[sim]{}
			kf, err := NewKFirst[sim](out, tt.k, byEntry, nil)
			require.NoError(t, err)
			_, err = stream.Copy[sim](kf, stream.FromSlice(grouped(5, 3, 7)))
			require.NoError(t, err)
			require.NoError(t, kf.Flush())
			assert.Equal(t, tt.want, groupSizes(out.Items))
		})
	}
}

func TestKFirstKeepsTheFirstRecords(t *testing.T) {
	out := &stream.SliceSink[sim]{}
	kf, err := NewKFirst[sim](out, 2, byEntry, nil)
	require.NoError(t, err)
	for _, r := range grouped(4) {
		require.NoError(t, kf.Write(r))
	}
	assert.Equal(t, grouped(2), out.Items)
}

func TestKFirstUnchangedWhenKCoversInput(t *testing.T) {
	in := grouped(5, 3, 7)
	out := &stream.SliceSink[sim]{}
	kf, err := NewKFirst[sim](out, 7, byEntry, nil)
	require.NoError(t, err)
	_, err = stream.Copy[sim](kf, stream.FromSlice(in))
	require.NoError(t, err)
	assert.Equal(t, in, out.Items)
}

func TestKFirstRejectsNonPositiveK(t *testing.T) {
	for _, k := range []int{0, -3} {
		_, err := NewKFirst[sim](&stream.SliceSink[sim]{}, k, byEntry, nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

func TestNearestSortsThenTruncates(t *testing.T) {
	in := []sim{
		record.NewWeighted(record.NewPair(2, 0), 0.1),
		record.NewWeighted(record.NewPair(1, 3), 0.2),
		record.NewWeighted(record.NewPair(2, 1), 0.9),
		record.NewWeighted(record.NewPair(1, 2), 0.8),
		record.NewWeighted(record.NewPair(2, 3), 0.5),
		record.NewWeighted(record.NewPair(1, 0), 0.5),
	}
	files, err := tempfile.NewFactory(t.TempDir(), "knn")
	require.NoError(t, err)
	out := &stream.SliceSink[sim]{}
	n, err := Nearest(context.Background(), stream.FromSlice(in), out, 2, extsort.Config{ChunkSize: 2}, files, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, []sim{
		record.NewWeighted(record.NewPair(1, 2), 0.8),
		record.NewWeighted(record.NewPair(1, 0), 0.5),
		record.NewWeighted(record.NewPair(2, 1), 0.9),
		record.NewWeighted(record.NewPair(2, 3), 0.5),
	}, out.Items)
}
