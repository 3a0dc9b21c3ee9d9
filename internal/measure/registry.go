package measure

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

// Params are the construction parameters shared by all measures. Each
// measure reads only its own.
type Params struct {
	P              float64
	Alpha          float64
	Beta           float64
	Gamma          float64
	Lambda         float64
	MinCardinality int
	FilteredID     int32
	Reversed       bool
	// Marginals are the corpus feature frequencies. Measures listed by
	// NeedsMarginals fail to build without them.
	Marginals *vector.Marginals
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		P:              1,
		Alpha:          DefaultLeeAlpha,
		Beta:           DefaultWeedsBeta,
		Gamma:          DefaultWeedsGamma,
		Lambda:         DefaultLambda,
		MinCardinality: DefaultMinCardinality,
		FilteredID:     NoFilter,
	}
}

var constructors = map[string]func(Params) (Measure, error){
	"lp": func(p Params) (Measure, error) { return NewLp(p.P, p.FilteredID) },
	"lin": func(p Params) (Measure, error) {
		return &Lin{Filtered: p.FilteredID}, nil
	},
	"jaccard": func(p Params) (Measure, error) {
		return &Jaccard{Filtered: p.FilteredID}, nil
	},
	"cosine": func(p Params) (Measure, error) {
		return &Cosine{Filtered: p.FilteredID}, nil
	},
	"dice": func(p Params) (Measure, error) {
		return &Dice{Filtered: p.FilteredID}, nil
	},
	"jensen": func(p Params) (Measure, error) {
		return &JensenShannon{Filtered: p.FilteredID}, nil
	},
	"lee":   func(p Params) (Measure, error) { return NewLee(p.Alpha, p.FilteredID) },
	"weeds": func(p Params) (Measure, error) { return NewWeeds(p.Beta, p.Gamma, p.FilteredID) },
	"tau":   func(p Params) (Measure, error) { return NewKendallsTau(p.MinCardinality, p.FilteredID) },
	"lambda": func(p Params) (Measure, error) {
		return NewLambda(p.Lambda, p.FilteredID)
	},
	"recall": func(p Params) (Measure, error) {
		return &Recall{Filtered: p.FilteredID}, nil
	},
	"precision": func(p Params) (Measure, error) {
		return &Precision{Filtered: p.FilteredID}, nil
	},
	"confusion": func(p Params) (Measure, error) { return NewConfusion(p.Marginals, p.FilteredID) },
	"recallmi":  func(p Params) (Measure, error) { return NewRecallMi(p.Marginals, p.FilteredID) },
	"crmi": func(p Params) (Measure, error) {
		return NewCrMi(p.Beta, p.Gamma, p.Marginals, p.FilteredID)
	},
}

var contextual = map[string]bool{
	"confusion": true,
	"recallmi":  true,
	"crmi":      true,
}

// NeedsMarginals reports whether the measure called name reads corpus
// feature frequencies.
func NeedsMarginals(name string) bool {
	return contextual[strings.ToLower(name)]
}

// expectedWeighting names the feature weighting each measure was designed
// for. Measures not listed read weights as they are.
var expectedWeighting = map[string]string{
	"lin":       "positive-pmi",
	"weeds":     "positive-pmi",
	"jaccard":   "positive",
	"lee":       "positive",
	"jensen":    "positive",
	"confusion": "positive",
	"lambda":    "positive",
}

// ExpectedWeighting returns the weighting scheme the measure called name
// expects its input to carry, or "none".
func ExpectedWeighting(name string) string {
	if w, ok := expectedWeighting[strings.ToLower(name)]; ok {
		return w
	}
	return "none"
}

// Names lists the registered measure names.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the measure called name, case-insensitively.
func New(name string, p Params) (Measure, error) {
	ctor, ok := constructors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", apperrors.ErrUnknownMeasure, name, strings.Join(Names(), ", "))
	}
	m, err := ctor(p)
	if err != nil {
		return nil, err
	}
	if p.Reversed {
		m = &Reversed{Inner: m}
	}
	return m, nil
}
