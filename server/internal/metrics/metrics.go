package metrics

import (
	"bytes"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

const (
	opsName   = "todos_operations_total"
	itemsName = "todos_items"
)

type opKey struct{ op, outcome string }

// Registry holds operation counters. The zero value is not usable; call New.
type Registry struct {
	mu    sync.Mutex
	ops   map[opKey]float64
	items func() int
}

// New creates a Registry. items is sampled on every scrape for the
// todos_items gauge; it may be nil.
func New(items func() int) *Registry {
	return &Registry{
		ops:   make(map[opKey]float64),
		items: items,
	}
}

// Observe increments the counter for one operation outcome. A nil Registry
// ignores the call so callers may leave metrics unwired.
func (r *Registry) Observe(op, outcome string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.ops[opKey{op, outcome}]++
	r.mu.Unlock()
}

// Families builds the current metric families, sorted by label values so
// the output is stable across scrapes.
func (r *Registry) Families() []*dto.MetricFamily {
	r.mu.Lock()
	keys := make([]opKey, 0, len(r.ops))
	for k := range r.ops {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].op != keys[j].op {
			return keys[i].op < keys[j].op
		}
		return keys[i].outcome < keys[j].outcome
	})
	ops := &dto.MetricFamily{
		Name: proto.String(opsName),
		Help: proto.String("Todo store operations by operation and outcome."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, k := range keys {
		ops.Metric = append(ops.Metric, &dto.Metric{
			Label: []*dto.LabelPair{
				{Name: proto.String("op"), Value: proto.String(k.op)},
				{Name: proto.String("outcome"), Value: proto.String(k.outcome)},
			},
			Counter: &dto.Counter{Value: proto.Float64(r.ops[k])},
		})
	}
	r.mu.Unlock()

	out := make([]*dto.MetricFamily, 0, 2)
	if len(ops.Metric) > 0 {
		out = append(out, ops)
	}
	if r.items != nil {
		out = append(out, &dto.MetricFamily{
			Name: proto.String(itemsName),
			Help: proto.String("Number of todos currently held in memory."),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: proto.Float64(float64(r.items()))},
			}},
		})
	}
	return out
}

// ServeHTTP writes the text exposition for GET /metrics.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	for _, mf := range r.Families() {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			slog.Error("metrics: encode failed", "family", mf.GetName(), "err", err)
			http.Error(w, "encode metrics", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}
