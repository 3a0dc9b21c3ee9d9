package tsv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapIndexer interns strings in first-seen order.
type mapIndexer struct {
	ids    map[string]int32
	values []string
}

func newMapIndexer() *mapIndexer { return &mapIndexer{ids: map[string]int32{}} }

func (m *mapIndexer) IDOf(s string) (int32, error) {
	if id, ok := m.ids[s]; ok {
		return id, nil
	}
	id := int32(len(m.values))
	m.ids[s] = id
	m.values = append(m.values, s)
	return id, nil
}

func (m *mapIndexer) ValueOf(id int32) (string, error) {
	if int(id) >= len(m.values) {
		return "", fmt.Errorf("unknown id %d", id)
	}
	return m.values[id], nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInstancesThroughIndexers(t *testing.T) {
	entries, features := newMapIndexer(), newMapIndexer()
	path := writeFile(t, "dog\tamod:big\ncat\tamod:big\r\n\ndog\tdobj:walk\n")

	r, err := Open(path, Instances(entries, features))
	require.NoError(t, err)
	defer r.Close()

	var got []record.TokenPair
	for {
		p, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, p)
	}
	assert.Equal(t, []record.TokenPair{record.NewPair(0, 0), record.NewPair(1, 0), record.NewPair(0, 1)}, got)
	assert.Equal(t, []string{"dog", "cat"}, entries.values)
}

func TestPairsSeek(t *testing.T) {
	path := writeFile(t, "0\t1\t0.5\n0\t2\t1.5\n3\t1\t2\n")
	r, err := Open(path, Pairs(nil, nil))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Read()
	require.NoError(t, err)
	pos, err := r.Position()
	require.NoError(t, err)
	assert.EqualValues(t, len("0\t1\t0.5\n"), pos)

	second, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, record.NewWeighted(record.NewPair(0, 2), 1.5), second)

	require.NoError(t, r.Seek(pos))
	again, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, second, again)
}

func TestMalformedLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing field", "0\t1\n"},
		{"bad weight", "0\t1\theavy\n"},
		{"negative id", "-4\t1\t1\n"},
		{"extra field", "0\t1\t1\t1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Open(writeFile(t, tt.content), Pairs(nil, nil))
			require.NoError(t, err)
			defer r.Close()
			_, err = r.Read()
			assert.True(t, errors.Is(err, apperrors.ErrDataFormat), "got %v", err)
			assert.Contains(t, err.Error(), ":1:")
		})
	}
}

func TestWriterUsesIndexers(t *testing.T) {
	idx := newMapIndexer()
	_, _ = idx.IDOf("dog")
	_, _ = idx.IDOf("cat")

	var buf bytes.Buffer
	w := NewWriter(&buf, Pairs(idx, idx))
	require.NoError(t, w.Write(record.NewWeighted(record.NewPair(0, 1), 0.25)))
	require.NoError(t, w.Write(record.NewWeighted(record.NewPair(1, 0), 1e-7)))
	require.NoError(t, w.Close())
	assert.Equal(t, "dog\tcat\t0.25\ncat\tdog\t1e-07\n", buf.String())

	tw := NewWriter(&buf, Tokens(idx))
	assert.Error(t, tw.Write(record.NewWeighted(record.NewToken(9), 1)))
}

func TestCreateWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tsv")
	w, err := Create(path, Tokens(nil))
	require.NoError(t, err)
	require.NoError(t, w.Write(record.NewWeighted(record.NewToken(4), 3)))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "4\t3\n", string(data))
}
