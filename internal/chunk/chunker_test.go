package chunk

import (
	"errors"
	"io"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll[T any](t *testing.T, c interface{ Read() (*Chunk[T], error) }) [][]T {
	t.Helper()
	var out [][]T
	for {
		ch, err := c.Read()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, ch.Items)
	}
}

func TestChunkerSplits(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		max   int
		want  [][]int
	}{
		{"exact", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"remainder", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"single", []int{1, 2, 3}, 10, [][]int{{1, 2, 3}}},
		{"empty", nil, 3, nil},
		{"ones", []int{1, 2}, 1, [][]int{{1}, {2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAll[int](t, New[int](stream.FromSlice(tt.items), tt.max))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChunkerByteBudget(t *testing.T) {
	words := []string{"aaaa", "bb", "cccccc", "d", "ee"}
	c := New[string](stream.FromSlice(words), 100,
		WithByteBudget(6, func(s string) int64 { return int64(len(s)) }))
	got := readAll[string](t, c)
	assert.Equal(t, [][]string{{"aaaa", "bb"}, {"cccccc"}, {"d", "ee"}}, got)
}

func TestChunkSequence(t *testing.T) {
	c := New[int](stream.FromSlice([]int{1, 2, 3}), 1)
	for want := 0; want < 3; want++ {
		ch, err := c.Read()
		require.NoError(t, err)
		assert.Equal(t, want, ch.Seq)
	}
}

func TestSeekableChunkerRewinds(t *testing.T) {
	c := NewSeekable[int](stream.FromSlice([]int{1, 2, 3, 4, 5}), 2)
	start, err := c.Position()
	require.NoError(t, err)

	first := readAll[int](t, c)
	require.NoError(t, c.Seek(start))
	second := readAll[int](t, c)
	assert.Equal(t, first, second)
	assert.Len(t, second, 3)

	ch, err := c.Chunker.Read()
	assert.Nil(t, ch)
	assert.ErrorIs(t, err, io.EOF)
}
