package vector

import (
	"errors"
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/stream"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// Marginals are the corpus-wide feature frequencies, indexed by feature id.
// Contextual weightings and some measures compare a vector's weights with
// them.
type Marginals struct {
	freqs   []float64
	total   float64
	nonZero int
}

// NewMarginals indexes freqs by feature id. freqs is retained.
func NewMarginals(freqs []float64) *Marginals {
	m := &Marginals{freqs: freqs}
	for _, f := range freqs {
		m.total += f
		if f != 0 {
			m.nonZero++
		}
	}
	return m
}

// ReadMarginals loads a features frequency file. Ids may arrive in any order
// and repeated ids are summed.
func ReadMarginals(src stream.Source[record.Weighted[record.Token]]) (*Marginals, error) {
	var freqs []float64
	for {
		rec, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading feature frequencies: %w", err)
		}
		id := rec.Record.ID
		if id < 0 {
			return nil, apperrors.DataFormatf("negative feature id %d", id)
		}
		if int(id) >= len(freqs) {
			freqs = append(freqs, make([]float64, int(id)+1-len(freqs))...)
		}
		freqs[id] += rec.Weight
	}
	return NewMarginals(freqs), nil
}

// Frequency returns the total weight of feature key, 0 when it was never
// seen.
func (m *Marginals) Frequency(key int32) float64 {
	if key < 0 || int(key) >= len(m.freqs) {
		return 0
	}
	return m.freqs[key]
}

// Prior is the probability of feature key, Frequency(key) / Total().
func (m *Marginals) Prior(key int32) float64 {
	if m.total == 0 {
		return 0
	}
	return m.Frequency(key) / m.total
}

// Total is the grand total of all feature frequencies.
func (m *Marginals) Total() float64 { return m.total }

// Cardinality is the size of the feature id space.
func (m *Marginals) Cardinality() int { return len(m.freqs) }

// NonZero counts the features that occur at all.
func (m *Marginals) NonZero() int { return m.nonZero }
