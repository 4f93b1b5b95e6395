// Package observe provides observability primitives for readscript:
// OpenTelemetry metrics, tracing helpers, trace-aware logging, and the
// optional Prometheus scrape endpoint.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// installs a Prometheus exporter bridge and [Serve] exposes it on /metrics.
// Tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all readscript metrics.
const meterName = "github.com/MrWong99/readscript"

// Provider kinds used as the "kind" attribute on provider counters.
const (
	KindLLM = "llm"
	KindSTT = "stt"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms ---

	// STTDuration tracks transcription latency per audio sample.
	STTDuration metric.Float64Histogram

	// LLMDuration tracks text generation latency per chunk.
	LLMDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// WordsGenerated counts words of script text written to disk. Use with
	// attribute.String("style", ...).
	WordsGenerated metric.Int64Counter

	// ChunksGenerated counts chunk files written. Use with
	// attribute.String("style", ...).
	ChunksGenerated metric.Int64Counter

	// --- HTTP ---

	// HTTPRequestDuration tracks scrape endpoint latency, labelled with
	// "path" and "status" by [Middleware].
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Long-form
// generation and transcription routinely take tens of seconds.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.STTDuration, err = m.Float64Histogram("readscript.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("readscript.llm.duration",
		metric.WithDescription("Latency of LLM script generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("readscript.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("readscript.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.WordsGenerated, err = m.Int64Counter("readscript.words.generated",
		metric.WithDescription("Total words of generated script text by style."),
	); err != nil {
		return nil, err
	}
	if met.ChunksGenerated, err = m.Int64Counter("readscript.chunks.generated",
		metric.WithDescription("Total script chunks written by style."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("readscript.http.request.duration",
		metric.WithDescription("Scrape endpoint latency by path and status."),
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
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Call it after [InitProvider] so the instruments bind to the
// Prometheus bridge.
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

// RecordProviderRequest records a provider request counter increment with the
// standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordChunk records one written chunk and its word count.
func (m *Metrics) RecordChunk(ctx context.Context, style string, words int) {
	attrs := metric.WithAttributes(attribute.String("style", style))
	m.ChunksGenerated.Add(ctx, 1, attrs)
	m.WordsGenerated.Add(ctx, int64(words), attrs)
}
