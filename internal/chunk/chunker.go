// Package chunk splits a record stream into bounded in-memory chunks.
package chunk

import (
	"errors"
	"io"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
)

// DefaultMaxItems is the chunk size used when none is configured.
const DefaultMaxItems = 1000

// Chunk is one bounded slice of a stream, numbered from 0 in read order.
type Chunk[T any] struct {
	Seq   int
	Items []T
	Bytes int64
}

// Source returns a seekable source over the chunk's items.
func (c *Chunk[T]) Source() *stream.SliceSource[T] {
	return stream.FromSlice(c.Items)
}

// Len returns the number of items in the chunk.
func (c *Chunk[T]) Len() int {
	return len(c.Items)
}

// Chunker reads chunks of at most MaxItems items, and, when a byte budget is
// set, stops a chunk once its estimated size reaches MaxBytes. Every chunk
// holds at least one item.
type Chunker[T any] struct {
	src      stream.Source[T]
	maxItems int
	maxBytes int64
	sizeOf   func(T) int64
	seq      int
	done     bool
}

// Option configures a Chunker.
type Option[T any] func(*Chunker[T])

// WithByteBudget bounds chunks by an estimated byte size as well as by count.
func WithByteBudget[T any](maxBytes int64, sizeOf func(T) int64) Option[T] {
	return func(c *Chunker[T]) {
		c.maxBytes = maxBytes
		c.sizeOf = sizeOf
	}
}

// New returns a Chunker over src. maxItems < 1 uses DefaultMaxItems.
func New[T any](src stream.Source[T], maxItems int, opts ...Option[T]) *Chunker[T] {
	if maxItems < 1 {
		maxItems = DefaultMaxItems
	}
	c := &Chunker[T]{src: src, maxItems: maxItems}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the next chunk, or io.EOF once the source is exhausted.
func (c *Chunker[T]) Read() (*Chunk[T], error) {
	if c.done {
		return nil, io.EOF
	}
	chunk := &Chunk[T]{Seq: c.seq}
	for len(chunk.Items) < c.maxItems {
		if c.sizeOf != nil && c.maxBytes > 0 && chunk.Bytes >= c.maxBytes {
			break
		}
		rec, err := c.src.Read()
		if errors.Is(err, io.EOF) {
			c.done = true
			break
		}
		if err != nil {
			return nil, err
		}
		chunk.Items = append(chunk.Items, rec)
		if c.sizeOf != nil {
			chunk.Bytes += c.sizeOf(rec)
		}
	}
	if len(chunk.Items) == 0 {
		return nil, io.EOF
	}
	c.seq++
	return chunk, nil
}

// SeekableChunker is a Chunker whose position in the underlying source can be
// saved and restored between chunks.
type SeekableChunker[T any] struct {
	*Chunker[T]
	src stream.SeekableSource[T]
}

// NewSeekable returns a SeekableChunker over src.
func NewSeekable[T any](src stream.SeekableSource[T], maxItems int, opts ...Option[T]) *SeekableChunker[T] {
	return &SeekableChunker[T]{Chunker: New[T](src, maxItems, opts...), src: src}
}

// Position returns the source position of the next chunk.
func (c *SeekableChunker[T]) Position() (int64, error) {
	return c.src.Position()
}

// Seek moves to pos and resumes chunking from there.
func (c *SeekableChunker[T]) Seek(pos int64) error {
	if err := c.src.Seek(pos); err != nil {
		return err
	}
	c.done = false
	return nil
}
