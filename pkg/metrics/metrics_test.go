package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTask("sort", nil, time.Second)
		m.SetQueueDepth("events", 3)
		m.AddRecords("count", 10)
		m.AddAPSS(1, 2, 3)
		m.AddKnnDropped(4)
		m.SetEnumeratorSize("entries", 5)
		m.ObserveStage("knn", time.Second)
	})
}

func TestRecording(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTask("merge", nil, 10*time.Millisecond)
	m.ObserveTask("merge", errors.New("disk full"), time.Millisecond)
	m.AddAPSS(10, 7, 3)
	m.SetQueueDepth("events", 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues("merge", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues("merge", "error")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.APSSCandidatesTotal))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.APSSComparisonsTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.APSSProductionsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MergeQueueDepth.WithLabelValues("events")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.AddKnnDropped(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "byblo_knn_dropped_total 2")
}
