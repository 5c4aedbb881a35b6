package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumWhere returns the value of the int64 sum data point carrying key=value.
func sumWhere(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not an int64 sum", name)
	}
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value
		}
	}
	t.Fatalf("metric %q has no data point with %s=%s", name, key, value)
	return 0
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	t.Parallel()

	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"fretscribe.enhance.duration", m.EnhanceDuration},
		{"fretscribe.classifier.duration", m.ClassifierDuration},
		{"fretscribe.http.request.duration", m.HTTPRequestDuration},
	}
	for _, tc := range histograms {
		tc.h.Record(ctx, 0.012)
		tc.h.Record(ctx, 0.456)
	}

	rm := collect(t, reader)
	for _, tc := range histograms {
		met := findMetric(rm, tc.name)
		if met == nil {
			t.Fatalf("metric %q not found", tc.name)
		}
		hist, ok := met.Data.(metricdata.Histogram[float64])
		if !ok {
			t.Fatalf("metric %q is not a histogram", tc.name)
		}
		if len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 2 {
			t.Errorf("metric %q: want one data point with 2 samples, got %+v", tc.name, hist.DataPoints)
		}
	}
}

func TestRecordBoostAndPattern(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordBoost(ctx, "musical_counting_pattern")
	m.RecordBoost(ctx, "musical_counting_pattern")
	m.RecordBoost(ctx, "guitar_terminology_library")
	m.RecordPattern(ctx, "four_count")

	rm := collect(t, reader)
	if got := sumWhere(t, rm, "fretscribe.boosts", "reason", "musical_counting_pattern"); got != 2 {
		t.Errorf("counting boosts = %d, want 2", got)
	}
	if got := sumWhere(t, rm, "fretscribe.boosts", "reason", "guitar_terminology_library"); got != 1 {
		t.Errorf("library boosts = %d, want 1", got)
	}
	if got := sumWhere(t, rm, "fretscribe.patterns", "type", "four_count"); got != 1 {
		t.Errorf("four_count patterns = %d, want 1", got)
	}
}

func TestRecordClassifierRequest(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordClassifierRequest(ctx, "gpt-4o-mini", "ok", 120*time.Millisecond)
	m.RecordClassifierRequest(ctx, "gpt-4o-mini", "timed_out", 5*time.Second)
	m.RecordClassifierRequest(ctx, "gpt-4o-mini", "ok", 80*time.Millisecond)

	rm := collect(t, reader)
	if got := sumWhere(t, rm, "fretscribe.classifier.requests", "status", "ok"); got != 2 {
		t.Errorf("ok requests = %d, want 2", got)
	}
	if got := sumWhere(t, rm, "fretscribe.classifier.requests", "status", "timed_out"); got != 1 {
		t.Errorf("timed out requests = %d, want 1", got)
	}
	if findMetric(rm, "fretscribe.classifier.duration") == nil {
		t.Error("classifier duration not recorded")
	}
}

func TestRecordCircuitTransition(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	m.RecordCircuitTransition(context.Background(), "openai", "closed", "open")

	rm := collect(t, reader)
	if got := sumWhere(t, rm, "fretscribe.circuit.transitions", "to", "open"); got != 1 {
		t.Errorf("transitions to open = %d, want 1", got)
	}
}

func TestActiveRuns(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.ActiveRuns.Add(ctx, 1)
	m.ActiveRuns.Add(ctx, 1)
	m.ActiveRuns.Add(ctx, -1)

	rm := collect(t, reader)
	met := findMetric(rm, "fretscribe.enhance.active")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) == 0 {
		t.Fatal("metric is not a populated sum")
	}
	if got := sum.DataPoints[0].Value; got != 1 {
		t.Errorf("active runs = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
