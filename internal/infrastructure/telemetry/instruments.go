package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by snapshot and HTTP instruments.
var (
	AttrOrganizationID = attribute.Key("organization_id")
	AttrSnapshotKind   = attribute.Key("snapshot_kind")
	AttrRebuildResult  = attribute.Key("result")

	AttrHTTPMethod     = attribute.Key("method")
	AttrHTTPRoute      = attribute.Key("route")
	AttrHTTPStatusCode = attribute.Key("status_code")
)

// HTTPDurationBuckets are request latency boundaries in seconds.
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

func instrumentErr(name string, err error) error {
	return fmt.Errorf("instrument %s: %w", name, err)
}

// Counter is a monotonic int64 sum.
type Counter struct {
	inner metric.Int64Counter
}

func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, instrumentErr(name, err)
	}
	return &Counter{inner: c}, nil
}

func (c *Counter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	c.inner.Add(ctx, n, metric.WithAttributes(attrs...))
}

func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// HistogramOpts describes a float64 histogram. Without Boundaries the SDK
// default buckets apply.
type HistogramOpts struct {
	Name        string
	Description string
	Unit        string
	Boundaries  []float64
}

// Histogram is a float64 distribution.
type Histogram struct {
	inner metric.Float64Histogram
}

func NewHistogram(meter metric.Meter, opts HistogramOpts) (*Histogram, error) {
	options := []metric.Float64HistogramOption{metric.WithDescription(opts.Description), metric.WithUnit(opts.Unit)}
	if len(opts.Boundaries) > 0 {
		options = append(options, metric.WithExplicitBucketBoundaries(opts.Boundaries...))
	}
	h, err := meter.Float64Histogram(opts.Name, options...)
	if err != nil {
		return nil, instrumentErr(opts.Name, err)
	}
	return &Histogram{inner: h}, nil
}

func (h *Histogram) Record(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	h.inner.Record(ctx, v, metric.WithAttributes(attrs...))
}

// RecordDuration records d in seconds
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.Record(ctx, d.Seconds(), attrs...)
}

// Gauge reports the last recorded value, such as the row count of the
// published generation or the stock value of an organization.
type Gauge[N int64 | float64] struct {
	record func(context.Context, N, ...metric.RecordOption)
}

func (g *Gauge[N]) Record(ctx context.Context, v N, attrs ...attribute.KeyValue) {
	g.record(ctx, v, metric.WithAttributes(attrs...))
}

func NewGauge(meter metric.Meter, name, description, unit string) (*Gauge[int64], error) {
	g, err := meter.Int64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, instrumentErr(name, err)
	}
	return &Gauge[int64]{record: g.Record}, nil
}

func NewFloatGauge(meter metric.Meter, name, description, unit string) (*Gauge[float64], error) {
	g, err := meter.Float64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, instrumentErr(name, err)
	}
	return &Gauge[float64]{record: g.Record}, nil
}
