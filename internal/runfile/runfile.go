// Package runfile stores sorted runs of records as msgpack streams, optionally
// snappy-compressed. Run files are temporary and private to one build.
package runfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"
)

// Options control how runs are encoded. Readers must use the same options as
// the writer of a run.
type Options struct {
	Compress bool
}

// Writer appends records to a run file.
type Writer[T any] struct {
	f      *os.File
	buf    *bufio.Writer
	snappy *snappy.Writer
	enc    *msgpack.Encoder
	count  int64
}

// Create truncates path and opens it for writing.
func Create[T any](path string, opts Options) (*Writer[T], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating run file: %w", err)
	}
	w := &Writer[T]{f: f}
	var out io.Writer = f
	if opts.Compress {
		w.snappy = snappy.NewBufferedWriter(f)
		out = w.snappy
	}
	w.buf = bufio.NewWriterSize(out, 64*1024)
	w.enc = msgpack.NewEncoder(w.buf)
	return w, nil
}

func (w *Writer[T]) Write(rec T) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding record %d: %w", w.count, err)
	}
	w.count++
	return nil
}

// Flush pushes buffered records to the file.
func (w *Writer[T]) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flushing run file: %w", err)
	}
	if w.snappy != nil {
		if err := w.snappy.Flush(); err != nil {
			return fmt.Errorf("flushing compressed run: %w", err)
		}
	}
	return nil
}

// Count returns the number of records written.
func (w *Writer[T]) Count() int64 {
	return w.count
}

// Close flushes and closes the file.
func (w *Writer[T]) Close() error {
	flushErr := w.Flush()
	if w.snappy != nil {
		if err := w.snappy.Close(); err != nil && flushErr == nil {
			flushErr = fmt.Errorf("closing compressed run: %w", err)
		}
	}
	if err := w.f.Close(); err != nil && flushErr == nil {
		flushErr = fmt.Errorf("closing run file: %w", err)
	}
	return flushErr
}

// Reader reads records back from a run file.
type Reader[T any] struct {
	f     *os.File
	dec   *msgpack.Decoder
	count int64
}

// Open opens a run file for reading.
func Open[T any](path string, opts Options) (*Reader[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening run file: %w", err)
	}
	var in io.Reader = f
	if opts.Compress {
		in = snappy.NewReader(f)
	}
	return &Reader[T]{
		f:   f,
		dec: msgpack.NewDecoder(bufio.NewReaderSize(in, 64*1024)),
	}, nil
}

// Read returns the next record or io.EOF.
func (r *Reader[T]) Read() (T, error) {
	var rec T
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return rec, io.EOF
		}
		return rec, fmt.Errorf("decoding record %d of %s: %w", r.count, r.f.Name(), err)
	}
	r.count++
	return rec, nil
}

func (r *Reader[T]) Close() error {
	return r.f.Close()
}

// WriteAll writes recs to a new run file at path.
func WriteAll[T any](path string, opts Options, recs []T) error {
	w, err := Create[T](path, opts)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// ReadAll reads every record of the run file at path.
func ReadAll[T any](path string, opts Options) ([]T, error) {
	r, err := Open[T](path, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var out []T
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}
