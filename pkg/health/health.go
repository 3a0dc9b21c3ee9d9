// Package health tracks the progress of a running build and serves it as
// JSON next to the metrics endpoint, so long builds can be watched and
// polled.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status is the state of one stage or of the whole build.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// StageHealth describes one stage.
type StageHealth struct {
	Status   Status `json:"status"`
	Records  int64  `json:"records,omitempty"`
	Duration string `json:"duration,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Report is a snapshot of every stage seen so far, in start order.
type Report struct {
	RunID     string                 `json:"run_id,omitempty"`
	Status    Status                 `json:"status"`
	Order     []string               `json:"order"`
	Stages    map[string]StageHealth `json:"stages"`
	Timestamp string                 `json:"timestamp"`
}

// Tracker records stage transitions. A nil *Tracker ignores them.
type Tracker struct {
	mu      sync.RWMutex
	runID   string
	order   []string
	stages  map[string]StageHealth
	started map[string]time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		stages:  make(map[string]StageHealth),
		started: make(map[string]time.Time),
	}
}

// SetRunID labels later reports.
func (t *Tracker) SetRunID(id string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.runID = id
	t.mu.Unlock()
}

// Begin marks stage as running. A stage run twice keeps its first position.
func (t *Tracker) Begin(stage string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.stages[stage]; !ok {
		t.order = append(t.order, stage)
	}
	t.stages[stage] = StageHealth{Status: StatusRunning}
	t.started[stage] = time.Now()
}

// End marks stage as done, or failed if err is not nil.
func (t *Tracker) End(stage string, records int64, err error) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := StageHealth{Status: StatusDone, Records: records}
	if start, ok := t.started[stage]; ok {
		s.Duration = time.Since(start).Round(time.Millisecond).String()
	}
	if err != nil {
		s.Status = StatusFailed
		s.Error = err.Error()
	}
	if _, ok := t.stages[stage]; !ok {
		t.order = append(t.order, stage)
	}
	t.stages[stage] = s
}

// Report returns the current state. The build is failed if any stage
// failed, running if any stage runs, done once every stage finished and
// pending before the first one starts.
func (t *Tracker) Report() Report {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r := Report{
		RunID:     t.runID,
		Status:    StatusPending,
		Order:     append([]string(nil), t.order...),
		Stages:    make(map[string]StageHealth, len(t.stages)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	for name, s := range t.stages {
		r.Stages[name] = s
	}
	if len(r.Order) > 0 {
		r.Status = StatusDone
	}
	for _, s := range r.Stages {
		switch s.Status {
		case StatusFailed:
			r.Status = StatusFailed
			return r
		case StatusRunning:
			r.Status = StatusRunning
		}
	}
	return r
}

// Handler serves the report. It answers 503 once a stage has failed.
func (t *Tracker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := t.Report()
		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusFailed {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(report)
	}
}

// LiveHandler answers liveness checks while the process runs.
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}
