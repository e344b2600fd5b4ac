package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordScoringCountsByModeAndOutcome(t *testing.T) {
	before := testutil.ToFloat64(scoringCalls.WithLabelValues("scratch", "error"))
	RecordScoring("scratch", 3, time.Millisecond, errors.New("boom"))
	after := testutil.ToFloat64(scoringCalls.WithLabelValues("scratch", "error"))
	if after-before != 1 {
		t.Fatalf("expected one failed scratch call, got delta %v", after-before)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues("miss"))
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)
	if d := testutil.ToFloat64(cacheLookups.WithLabelValues("hit")) - hits; d != 1 {
		t.Fatalf("hit delta %v", d)
	}
	if d := testutil.ToFloat64(cacheLookups.WithLabelValues("miss")) - misses; d != 2 {
		t.Fatalf("miss delta %v", d)
	}
}

func TestInstrumentUsesKnownPathsOnly(t *testing.T) {
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), "/beam")

	before := testutil.ToFloat64(httpRequests.WithLabelValues("other", http.MethodGet, "418"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/does/not/exist", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status not passed through: %d", rec.Code)
	}
	if d := testutil.ToFloat64(httpRequests.WithLabelValues("other", http.MethodGet, "418")) - before; d != 1 {
		t.Fatalf("expected unknown path to be labelled other, delta %v", d)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordSearch("beam", time.Millisecond, nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "lmexplorer_search_requests_total") {
		t.Fatalf("metrics output missing search counter")
	}
}
