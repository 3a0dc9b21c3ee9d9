package pipeline

import (
	"errors"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tsv"
)

// Paths name the three frequency files written by count and filter.
type Paths struct {
	Entries  string
	Features string
	Events   string
}

// FrequencyPaths returns prefix.entries, prefix.features and prefix.events.
func FrequencyPaths(prefix string) Paths {
	return Paths{
		Entries:  prefix + ".entries",
		Features: prefix + ".features",
		Events:   prefix + ".events",
	}
}

// Filtered names the filtered copies of ps.
func (ps Paths) Filtered() Paths {
	return Paths{
		Entries:  ps.Entries + ".filtered",
		Features: ps.Features + ".filtered",
		Events:   ps.Events + ".filtered",
	}
}

type frequencyWriters struct {
	entries  *tsv.Writer[tokenFreq]
	features *tsv.Writer[tokenFreq]
	events   *tsv.Writer[eventFreq]
}

func (p *Pipeline) createFrequencies(ps Paths) (*frequencyWriters, error) {
	w := &frequencyWriters{}
	var err error
	if w.entries, err = tsv.Create(ps.Entries, tsv.Tokens(p.entryIndexer())); err != nil {
		return nil, err
	}
	if w.features, err = tsv.Create(ps.Features, tsv.Tokens(p.featureIndexer())); err != nil {
		w.Close()
		return nil, err
	}
	if w.events, err = tsv.Create(ps.Events, tsv.Pairs(p.entryIndexer(), p.featureIndexer())); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *frequencyWriters) Close() error {
	var errs []error
	if w.entries != nil {
		errs = append(errs, w.entries.Close())
	}
	if w.features != nil {
		errs = append(errs, w.features.Close())
	}
	if w.events != nil {
		errs = append(errs, w.events.Close())
	}
	return errors.Join(errs...)
}

type frequencyReaders struct {
	entries  *tsv.Reader[tokenFreq]
	features *tsv.Reader[tokenFreq]
	events   *tsv.Reader[eventFreq]
}

func (p *Pipeline) openFrequencies(ps Paths) (*frequencyReaders, error) {
	r := &frequencyReaders{}
	var err error
	if r.entries, err = tsv.Open(ps.Entries, tsv.Tokens(p.entryIndexer())); err != nil {
		return nil, err
	}
	if r.features, err = tsv.Open(ps.Features, tsv.Tokens(p.featureIndexer())); err != nil {
		r.Close()
		return nil, err
	}
	if r.events, err = tsv.Open(ps.Events, tsv.Pairs(p.entryIndexer(), p.featureIndexer())); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *frequencyReaders) Close() error {
	var errs []error
	if r.entries != nil {
		errs = append(errs, r.entries.Close())
	}
	if r.features != nil {
		errs = append(errs, r.features.Close())
	}
	if r.events != nil {
		errs = append(errs, r.events.Close())
	}
	return errors.Join(errs...)
}
