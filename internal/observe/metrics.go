// Package observe provides observability primitives for fretscribe:
// OpenTelemetry metrics, tracing, trace-aware structured logging, and HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// bridges them to a Prometheus exporter so they can be scraped from /metrics.
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all fretscribe metrics.
const meterName = "github.com/MrWong99/fretscribe"

// Metrics holds all OpenTelemetry metric instruments for the application.
// The underlying OTel types handle their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// EnhanceDuration tracks the wall time of one document enhancement run.
	EnhanceDuration metric.Float64Histogram

	// ClassifierDuration tracks external classifier round trips. Use with
	// attributes: attribute.String("model", ...), attribute.String("status", ...)
	ClassifierDuration metric.Float64Histogram

	// --- Counters ---

	// WordsEvaluated counts tokens below the confidence threshold that were
	// considered for a boost.
	WordsEvaluated metric.Int64Counter

	// Boosts counts boosted tokens. Use with attribute:
	//   attribute.String("reason", ...)
	Boosts metric.Int64Counter

	// Patterns counts detected multi-token patterns. Use with attribute:
	//   attribute.String("type", ...)
	Patterns metric.Int64Counter

	// DictionaryFiltered counts tokens rejected as common words.
	DictionaryFiltered metric.Int64Counter

	// ClassifierRequests counts external classifier attempts. Use with
	// attributes: attribute.String("model", ...), attribute.String("status", ...)
	ClassifierRequests metric.Int64Counter

	// CircuitTransitions counts circuit breaker state changes. Use with
	// attributes: attribute.String("breaker", ...), attribute.String("from", ...),
	// attribute.String("to", ...)
	CircuitTransitions metric.Int64Counter

	// --- Gauges ---

	// ActiveRuns tracks enhancement runs currently in flight.
	ActiveRuns metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) spanning
// in-memory document runs up to the classifier timeout.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.EnhanceDuration, err = m.Float64Histogram("fretscribe.enhance.duration",
		metric.WithDescription("Latency of one document enhancement run."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ClassifierDuration, err = m.Float64Histogram("fretscribe.classifier.duration",
		metric.WithDescription("Latency of external terminology classifier requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.WordsEvaluated, err = m.Int64Counter("fretscribe.words.evaluated",
		metric.WithDescription("Total low-confidence words evaluated."),
	); err != nil {
		return nil, err
	}
	if met.Boosts, err = m.Int64Counter("fretscribe.boosts",
		metric.WithDescription("Total boosted words by boost reason."),
	); err != nil {
		return nil, err
	}
	if met.Patterns, err = m.Int64Counter("fretscribe.patterns",
		metric.WithDescription("Total detected musical patterns by pattern type."),
	); err != nil {
		return nil, err
	}
	if met.DictionaryFiltered, err = m.Int64Counter("fretscribe.dictionary.filtered",
		metric.WithDescription("Total words rejected as common vocabulary."),
	); err != nil {
		return nil, err
	}
	if met.ClassifierRequests, err = m.Int64Counter("fretscribe.classifier.requests",
		metric.WithDescription("Total external classifier requests by model and status."),
	); err != nil {
		return nil, err
	}
	if met.CircuitTransitions, err = m.Int64Counter("fretscribe.circuit.transitions",
		metric.WithDescription("Total circuit breaker state transitions."),
	); err != nil {
		return nil, err
	}

	if met.ActiveRuns, err = m.Int64UpDownCounter("fretscribe.enhance.active",
		metric.WithDescription("Number of enhancement runs in flight."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("fretscribe.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails, which does not happen with the global provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordBoost records one boosted word.
func (m *Metrics) RecordBoost(ctx context.Context, reason string) {
	m.Boosts.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordPattern records one detected pattern.
func (m *Metrics) RecordPattern(ctx context.Context, patternType string) {
	m.Patterns.Add(ctx, 1, metric.WithAttributes(attribute.String("type", patternType)))
}

// RecordClassifierRequest records an external classifier attempt and its
// latency with the standard attribute set.
func (m *Metrics) RecordClassifierRequest(ctx context.Context, model, status string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("status", status),
	)
	m.ClassifierRequests.Add(ctx, 1, attrs)
	m.ClassifierDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordCircuitTransition records a circuit breaker state change.
func (m *Metrics) RecordCircuitTransition(ctx context.Context, breaker, from, to string) {
	m.CircuitTransitions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("breaker", breaker),
			attribute.String("from", from),
			attribute.String("to", to),
		),
	)
}
