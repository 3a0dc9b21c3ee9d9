package vector

import (
	"errors"
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// Reader groups consecutive events of the same entry into vectors. Events
// must be sorted by entry then feature, so entry ids strictly ascend from
// one vector to the next. Positions are those of the underlying source at
// the first event of the next vector.
type Reader struct {
	src     stream.SeekableSource[record.Weighted[record.TokenPair]]
	next    *record.Weighted[record.TokenPair]
	nextPos int64
	last    int32
	hasLast bool
}

// NewReader reads vectors from events.
func NewReader(events stream.SeekableSource[record.Weighted[record.TokenPair]]) *Reader {
	return &Reader{src: events}
}

// Read returns the next vector or io.EOF.
func (r *Reader) Read() (*Sparse, error) {
	if r.next == nil {
		if err := r.advance(); err != nil {
			return nil, err
		}
	}
	entry := r.next.Record.ID1
	if r.hasLast && entry <= r.last {
		return nil, apperrors.DataFormatf("events for entry %d are not contiguous (follows entry %d)", entry, r.last)
	}
	var (
		keys   []int32
		values []float64
	)
	for r.next != nil && r.next.Record.ID1 == entry {
		keys = append(keys, r.next.Record.ID2)
		values = append(values, r.next.Weight)
		if err := r.advance(); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}
	v, err := New(entry, keys, values)
	if err != nil {
		return nil, err
	}
	r.last, r.hasLast = entry, true
	return v, nil
}

// advance loads the lookahead event, leaving next nil at the end of input.
func (r *Reader) advance() error {
	pos, err := r.src.Position()
	if err != nil {
		return fmt.Errorf("reading event position: %w", err)
	}
	ev, err := r.src.Read()
	if err != nil {
		r.next = nil
		return err
	}
	r.next, r.nextPos = &ev, pos
	return nil
}

// Position returns the position of the next vector.
func (r *Reader) Position() (int64, error) {
	if r.next != nil {
		return r.nextPos, nil
	}
	return r.src.Position()
}

// Seek moves to a position previously returned by Position.
func (r *Reader) Seek(pos int64) error {
	if err := r.src.Seek(pos); err != nil {
		return err
	}
	r.next = nil
	r.hasLast = false
	return nil
}
