package vector

import (
	"errors"
	"io"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	v, err := New(7, []int32{1, 2}, []float64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 5.0, v.Sum)
	assert.Equal(t, 2, v.Size())
	assert.InDelta(t, 0.4, v.Normalized(0), 1e-12)
	assert.Equal(t, 3.0, v.Get(2))
	assert.Equal(t, 0.0, v.Get(5))

	tests := []struct {
		name   string
		keys   []int32
		values []float64
	}{
		{"empty", nil, nil},
		{"unsorted", []int32{3, 1}, []float64{1, 1}},
		{"duplicate", []int32{1, 1}, []float64{1, 1}},
		{"length mismatch", []int32{1}, []float64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(1, tt.keys, tt.values)
			assert.True(t, errors.Is(err, apperrors.ErrDataFormat))
		})
	}
}

func ev(entry, feature int32, w float64) record.Weighted[record.TokenPair] {
	return record.NewWeighted(record.NewPair(entry, feature), w)
}

func TestReaderGroupsEntries(t *testing.T) {
	events := stream.FromSlice([]record.Weighted[record.TokenPair]{
		ev(0, 1, 2), ev(0, 2, 3),
		ev(1, 1, 1), ev(1, 3, 4),
		ev(4, 0, 1),
	})
	r := NewReader(events)

	a, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, int32(0), a.ID)
	assert.Equal(t, []int32{1, 2}, a.Keys)

	pos, err := r.Position()
	require.NoError(t, err)
	assert.EqualValues(t, 2, pos)

	b, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4}, b.Values)

	c, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, int32(4), c.ID)

	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, r.Seek(pos))
	again, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, b, again)
}

func TestReaderRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		events []record.Weighted[record.TokenPair]
	}{
		{"features out of order", []record.Weighted[record.TokenPair]{ev(0, 2, 1), ev(0, 1, 1)}},
		{"entry split", []record.Weighted[record.TokenPair]{ev(0, 1, 1), ev(1, 1, 1), ev(0, 2, 1)}},
		{"entry repeated later", []record.Weighted[record.TokenPair]{ev(2, 1, 1), ev(5, 1, 1), ev(7, 1, 1), ev(5, 2, 1)}},
		{"entries descending", []record.Weighted[record.TokenPair]{ev(3, 1, 1), ev(1, 1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(stream.FromSlice(tt.events))
			var err error
			for err == nil {
				_, err = r.Read()
			}
			assert.True(t, errors.Is(err, apperrors.ErrDataFormat), "got %v", err)
		})
	}
}

func TestReaderSeekBackwards(t *testing.T) {
	events := stream.FromSlice([]record.Weighted[record.TokenPair]{
		ev(1, 1, 1), ev(2, 1, 1), ev(3, 1, 1),
	})
	r := NewReader(events)
	start, err := r.Position()
	require.NoError(t, err)

	for range 3 {
		_, err := r.Read()
		require.NoError(t, err)
	}
	require.NoError(t, r.Seek(start))

	// a seek forgets earlier entries, so re-reading them is not a split
	v, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.ID)
}
