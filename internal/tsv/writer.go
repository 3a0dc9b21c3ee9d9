package tsv

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Writer encodes records one per line.
type Writer[T any] struct {
	w     *bufio.Writer
	c     io.Closer
	codec Codec[T]
	buf   []byte
}

// NewWriter writes to w, which is not closed by Close.
func NewWriter[T any](w io.Writer, codec Codec[T]) *Writer[T] {
	return &Writer[T]{w: bufio.NewWriterSize(w, 64*1024), codec: codec}
}

// Create truncates path and writes to it.
func Create[T any](path string, codec Codec[T]) (*Writer[T], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	w := NewWriter(f, codec)
	w.c = f
	return w, nil
}

func (w *Writer[T]) Write(rec T) error {
	buf, err := w.codec.Encode(w.buf[:0], rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	buf = append(buf, '\n')
	w.buf = buf
	if _, err := w.w.Write(buf); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

func (w *Writer[T]) Flush() error {
	return w.w.Flush()
}

// Close flushes and closes the underlying file, if Create opened it.
func (w *Writer[T]) Close() error {
	err := w.Flush()
	if w.c != nil {
		if cerr := w.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
