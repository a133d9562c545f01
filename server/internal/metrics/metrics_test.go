package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

func scrape(t *testing.T, r *Registry) map[string]*dto.MetricFamily {
	t.Helper()
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type: got %q, want text/plain", ct)
	}
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(rr.Body)
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}
	return mfs
}

func counter(mf *dto.MetricFamily, op, outcome string) float64 {
	for _, m := range mf.GetMetric() {
		var gotOp, gotOutcome string
		for _, l := range m.GetLabel() {
			switch l.GetName() {
			case "op":
				gotOp = l.GetValue()
			case "outcome":
				gotOutcome = l.GetValue()
			}
		}
		if gotOp == op && gotOutcome == outcome {
			return m.GetCounter().GetValue()
		}
	}
	return -1
}

func TestRegistry_CountsOutcomes(t *testing.T) {
	r := New(func() int { return 2 })
	r.Observe("create", "ok")
	r.Observe("create", "ok")
	r.Observe("create", "conflict")
	r.Observe("get", "not_found")

	mfs := scrape(t, r)
	ops := mfs[opsName]
	if ops == nil {
		t.Fatalf("%s missing from exposition", opsName)
	}
	if ops.GetType() != dto.MetricType_COUNTER {
		t.Errorf("type: got %v, want COUNTER", ops.GetType())
	}
	if v := counter(ops, "create", "ok"); v != 2 {
		t.Errorf("create/ok: got %v, want 2", v)
	}
	if v := counter(ops, "create", "conflict"); v != 1 {
		t.Errorf("create/conflict: got %v, want 1", v)
	}
	if v := counter(ops, "get", "not_found"); v != 1 {
		t.Errorf("get/not_found: got %v, want 1", v)
	}

	items := mfs[itemsName]
	if items == nil || items.GetMetric()[0].GetGauge().GetValue() != 2 {
		t.Errorf("%s: got %v, want 2", itemsName, items)
	}
}

func TestRegistry_Empty(t *testing.T) {
	mfs := scrape(t, New(nil))
	if len(mfs) != 0 {
		t.Errorf("families: got %d, want 0", len(mfs))
	}
}

func TestRegistry_NilObserve(t *testing.T) {
	var r *Registry
	r.Observe("create", "ok") // must not panic
}

func TestRegistry_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	New(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}
