package metrics

import (
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{100, 1000})
	h.Observe(50)
	h.Observe(500)
	h.Observe(5000)

	var buf strings.Builder
	snap := h.Snapshot()
	var cumulative uint64
	for i := range snap.buckets {
		cumulative += snap.counts[i]
		buf.WriteString(formatFloat(snap.buckets[i]))
		buf.WriteString("=")
		buf.WriteString(formatFloat(float64(cumulative)))
		buf.WriteString(" ")
	}
	if got := buf.String(); got != "100=1 1000=2 " {
		t.Fatalf("unexpected buckets %q", got)
	}
	if snap.count != 3 || snap.sum != 5550 {
		t.Fatalf("unexpected count/sum %d/%v", snap.count, snap.sum)
	}
}

func TestRenderIncludesEvaluationSeries(t *testing.T) {
	IncEvaluationStarted()
	IncEvaluationCompleted()
	IncEvaluationFailed("model_unavailable")
	IncEvaluationFailed("")
	ObserveEvaluationDurationMs(42)

	out := Render()
	for _, want := range []string{
		"# TYPE evaluation_started_total counter",
		"evaluation_completed_total ",
		`evaluation_failed_total{kind="model_unavailable"}`,
		`evaluation_failed_total{kind="internal"}`,
		`evaluation_duration_ms_bucket{le="100"}`,
		`evaluation_duration_ms_bucket{le="+Inf"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}
