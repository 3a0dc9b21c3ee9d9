package apss

import "sync/atomic"

// Stats counts the work done by an engine. Candidates are pairs that survive
// pruning, comparisons are full score computations and productions are
// pairs written to the sink.
type Stats struct {
	Reads       atomic.Int64
	Candidates  atomic.Int64
	Comparisons atomic.Int64
	Productions atomic.Int64
}

// counts accumulates one block's work before it is added to Stats.
type counts struct {
	candidates, comparisons, productions int64
}

func (s *Stats) add(c counts) {
	s.Candidates.Add(c.candidates)
	s.Comparisons.Add(c.comparisons)
	s.Productions.Add(c.productions)
}
