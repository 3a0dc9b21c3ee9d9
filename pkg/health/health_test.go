package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerReport(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, StatusPending, tr.Report().Status)

	tr.SetRunID("run-1")
	tr.Begin("count")
	assert.Equal(t, StatusRunning, tr.Report().Status)

	tr.End("count", 12, nil)
	tr.Begin("allpairs")
	tr.End("allpairs", 4, nil)
	r := tr.Report()
	assert.Equal(t, StatusDone, r.Status)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, []string{"count", "allpairs"}, r.Order)
	assert.Equal(t, int64(12), r.Stages["count"].Records)

	tr.Begin("knn")
	tr.End("knn", 0, errors.New("disk full"))
	r = tr.Report()
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "disk full", r.Stages["knn"].Error)
}

func TestNilTrackerIgnoresUpdates(t *testing.T) {
	var tr *Tracker
	assert.NotPanics(t, func() {
		tr.SetRunID("x")
		tr.Begin("count")
		tr.End("count", 1, nil)
	})
}

func TestHandler(t *testing.T) {
	tr := NewTracker()
	tr.Begin("count")

	rec := httptest.NewRecorder()
	tr.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var r Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.Equal(t, StatusRunning, r.Stages["count"].Status)

	tr.End("count", 0, errors.New("boom"))
	rec = httptest.NewRecorder()
	tr.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LiveHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
