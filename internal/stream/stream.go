// Package stream defines the record source and sink contracts shared by every
// stage, with in-memory implementations.
package stream

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Source yields records in some order. Read returns io.EOF once exhausted and
// a data-format error for malformed input.
type Source[T any] interface {
	Read() (T, error)
}

// SeekableSource is a Source whose read position can be saved and restored.
type SeekableSource[T any] interface {
	Source[T]
	Position() (int64, error)
	Seek(pos int64) error
}

// Sink accepts records.
type Sink[T any] interface {
	Write(rec T) error
	Flush() error
}

// SinkFunc adapts a function to a Sink with a no-op Flush.
type SinkFunc[T any] func(rec T) error

func (f SinkFunc[T]) Write(rec T) error { return f(rec) }
func (f SinkFunc[T]) Flush() error      { return nil }

// Copy writes every record of src to dst and returns how many were copied.
// dst is not flushed.
func Copy[T any](dst Sink[T], src Source[T]) (int64, error) {
	var n int64
	for {
		rec, err := src.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("reading record %d: %w", n, err)
		}
		if err := dst.Write(rec); err != nil {
			return n, fmt.Errorf("writing record %d: %w", n, err)
		}
		n++
	}
}

// ReadAll drains src into a slice.
func ReadAll[T any](src Source[T]) ([]T, error) {
	sink := &SliceSink[T]{}
	if _, err := Copy[T](sink, src); err != nil {
		return nil, err
	}
	return sink.Items, nil
}

// SliceSource reads from an in-memory slice. Positions are indexes.
type SliceSource[T any] struct {
	items []T
	pos   int
}

// FromSlice returns a SliceSource over items. The slice is not copied.
func FromSlice[T any](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items}
}

func (s *SliceSource[T]) Read() (T, error) {
	if s.pos >= len(s.items) {
		var zero T
		return zero, io.EOF
	}
	rec := s.items[s.pos]
	s.pos++
	return rec, nil
}

func (s *SliceSource[T]) Position() (int64, error) {
	return int64(s.pos), nil
}

func (s *SliceSource[T]) Seek(pos int64) error {
	if pos < 0 || pos > int64(len(s.items)) {
		return fmt.Errorf("seek position %d out of range [0,%d]", pos, len(s.items))
	}
	s.pos = int(pos)
	return nil
}

// SliceSink appends written records to Items.
type SliceSink[T any] struct {
	Items []T
}

func (s *SliceSink[T]) Write(rec T) error {
	s.Items = append(s.Items, rec)
	return nil
}

func (s *SliceSink[T]) Flush() error { return nil }

// SyncSink serialises access to a sink shared by several goroutines.
type SyncSink[T any] struct {
	mu   sync.Mutex
	sink Sink[T]
}

// Synchronized wraps sink for concurrent use.
func Synchronized[T any](sink Sink[T]) *SyncSink[T] {
	return &SyncSink[T]{sink: sink}
}

func (s *SyncSink[T]) Write(rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Write(rec)
}

// WriteAll writes a batch of records without interleaving other writers.
func (s *SyncSink[T]) WriteAll(recs []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		if err := s.sink.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncSink[T]) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Flush()
}
