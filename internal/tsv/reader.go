package tsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// Reader decodes records line by line from a file. Positions are byte
// offsets of the next line.
type Reader[T any] struct {
	f      *os.File
	br     *bufio.Reader
	codec  Codec[T]
	offset int64
	line   int
}

// Open opens path for reading with codec.
func Open[T any](path string, codec Codec[T]) (*Reader[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &Reader[T]{f: f, br: bufio.NewReaderSize(f, 64*1024), codec: codec}, nil
}

// Read returns the next record, skipping blank lines.
func (r *Reader[T]) Read() (T, error) {
	var zero T
	for {
		text, err := r.br.ReadString('\n')
		if len(text) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return zero, io.EOF
			}
			return zero, fmt.Errorf("reading %s: %w", r.f.Name(), err)
		}
		r.offset += int64(len(text))
		r.line++
		text = strings.TrimRight(text, "\r\n")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != r.codec.Fields {
			return zero, apperrors.DataFormatf("%s:%d: expected %d fields, found %d",
				r.f.Name(), r.line, r.codec.Fields, len(fields))
		}
		rec, err := r.codec.Decode(fields)
		if err != nil {
			return zero, fmt.Errorf("%s:%d: %w", r.f.Name(), r.line, err)
		}
		return rec, nil
	}
}

func (r *Reader[T]) Position() (int64, error) {
	return r.offset, nil
}

// Seek moves to a byte offset returned by Position. Line numbers in later
// errors are relative to the last seek.
func (r *Reader[T]) Seek(pos int64) error {
	if _, err := r.f.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("seeking %s: %w", r.f.Name(), err)
	}
	r.br.Reset(r.f)
	r.offset = pos
	r.line = 0
	return nil
}

func (r *Reader[T]) Close() error {
	return r.f.Close()
}
