// Package tsv reads and writes the tab-separated files exchanged with users:
// instances (entry, feature), frequencies (token, weight) and weighted pairs
// (entry, feature or neighbour, weight). Tokens are strings mapped through an
// Indexer, or plain ids when the Indexer is nil.
package tsv

import (
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// Indexer maps token strings to ids and back.
type Indexer interface {
	IDOf(s string) (int32, error)
	ValueOf(id int32) (string, error)
}

// Codec converts one record to and from the fields of a line.
type Codec[T any] struct {
	Fields int
	Decode func(fields []string) (T, error)
	Encode func(buf []byte, rec T) ([]byte, error)
}

func decodeToken(idx Indexer, s string) (int32, error) {
	if idx != nil {
		return idx.IDOf(s)
	}
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil || id < 0 {
		return 0, apperrors.DataFormatf("bad token id %q", s)
	}
	return int32(id), nil
}

func encodeToken(buf []byte, idx Indexer, id int32) ([]byte, error) {
	if idx == nil {
		return strconv.AppendInt(buf, int64(id), 10), nil
	}
	s, err := idx.ValueOf(id)
	if err != nil {
		return buf, err
	}
	return append(buf, s...), nil
}

func decodeWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperrors.DataFormatf("bad weight %q", s)
	}
	return w, nil
}

func encodeWeight(buf []byte, w float64) []byte {
	return strconv.AppendFloat(buf, w, 'g', -1, 64)
}

// Instances encodes raw (entry, feature) occurrences.
func Instances(entries, features Indexer) Codec[record.TokenPair] {
	return Codec[record.TokenPair]{
		Fields: 2,
		Decode: func(f []string) (record.TokenPair, error) {
			e, err := decodeToken(entries, f[0])
			if err != nil {
				return record.TokenPair{}, err
			}
			ft, err := decodeToken(features, f[1])
			if err != nil {
				return record.TokenPair{}, err
			}
			return record.NewPair(e, ft), nil
		},
		Encode: func(buf []byte, p record.TokenPair) ([]byte, error) {
			buf, err := encodeToken(buf, entries, p.ID1)
			if err != nil {
				return buf, err
			}
			buf = append(buf, '\t')
			return encodeToken(buf, features, p.ID2)
		},
	}
}

// Tokens encodes token frequencies.
func Tokens(idx Indexer) Codec[record.Weighted[record.Token]] {
	return Codec[record.Weighted[record.Token]]{
		Fields: 2,
		Decode: func(f []string) (record.Weighted[record.Token], error) {
			id, err := decodeToken(idx, f[0])
			if err != nil {
				return record.Weighted[record.Token]{}, err
			}
			w, err := decodeWeight(f[1])
			if err != nil {
				return record.Weighted[record.Token]{}, err
			}
			return record.NewWeighted(record.NewToken(id), w), nil
		},
		Encode: func(buf []byte, t record.Weighted[record.Token]) ([]byte, error) {
			buf, err := encodeToken(buf, idx, t.Record.ID)
			if err != nil {
				return buf, err
			}
			buf = append(buf, '\t')
			return encodeWeight(buf, t.Weight), nil
		},
	}
}

// Pairs encodes weighted events and similarities.
func Pairs(first, second Indexer) Codec[record.Weighted[record.TokenPair]] {
	return Codec[record.Weighted[record.TokenPair]]{
		Fields: 3,
		Decode: func(f []string) (record.Weighted[record.TokenPair], error) {
			a, err := decodeToken(first, f[0])
			if err != nil {
				return record.Weighted[record.TokenPair]{}, err
			}
			b, err := decodeToken(second, f[1])
			if err != nil {
				return record.Weighted[record.TokenPair]{}, err
			}
			w, err := decodeWeight(f[2])
			if err != nil {
				return record.Weighted[record.TokenPair]{}, err
			}
			return record.NewWeighted(record.NewPair(a, b), w), nil
		},
		Encode: func(buf []byte, p record.Weighted[record.TokenPair]) ([]byte, error) {
			buf, err := encodeToken(buf, first, p.Record.ID1)
			if err != nil {
				return buf, err
			}
			buf = append(buf, '\t')
			if buf, err = encodeToken(buf, second, p.Record.ID2); err != nil {
				return buf, err
			}
			buf = append(buf, '\t')
			return encodeWeight(buf, p.Weight), nil
		},
	}
}
