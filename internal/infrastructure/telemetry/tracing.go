package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of snapshot spans
const TracerName = "storepulse-backend"

// Span attribute keys
const (
	SpanAttrOrganizationID = attribute.Key("organization_id")
	SpanAttrGenerationID   = attribute.Key("generation_id")
	SpanAttrSnapshotKind   = attribute.Key("snapshot_kind")
	SpanAttrWindowDays     = attribute.Key("window_days")
	SpanAttrRowCount       = attribute.Key("row_count")
)

// SpanOption configures StartSpan
type SpanOption func(*spanConfig)

type spanConfig struct {
	attrs []attribute.KeyValue
	kind  trace.SpanKind
}

// WithAttributes adds attributes at span start
func WithAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(c *spanConfig) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// WithSpanKind overrides the default internal span kind
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// StartSpan starts a span on the global tracer provider. The caller must End it.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, trace.Span) {
	cfg := spanConfig{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}
	startOpts := []trace.SpanStartOption{trace.WithSpanKind(cfg.kind)}
	if len(cfg.attrs) > 0 {
		startOpts = append(startOpts, trace.WithAttributes(cfg.attrs...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name, startOpts...)
}

// StartRebuildSpan starts the span covering one snapshot rebuild,
// named "snapshot.rebuild.<kind>".
func StartRebuildSpan(ctx context.Context, orgID uuid.UUID, kind string, windowDays int) (context.Context, trace.Span) {
	return StartSpan(ctx, "snapshot.rebuild."+kind, WithAttributes(
		SpanAttrOrganizationID.String(orgID.String()),
		SpanAttrSnapshotKind.String(kind),
		SpanAttrWindowDays.Int(windowDays),
	))
}

// StartQuerySpan starts a span for a read that does more than a single
// snapshot lookup, named "snapshot.query.<op>".
func StartQuerySpan(ctx context.Context, op string, orgID uuid.UUID) (context.Context, trace.Span) {
	return StartSpan(ctx, "snapshot.query."+op, WithAttributes(SpanAttrOrganizationID.String(orgID.String())))
}

// MarkPublished tags a rebuild span with the generation it published
func MarkPublished(span trace.Span, generationID uuid.UUID, rowCount int) {
	if span == nil {
		return
	}
	span.SetAttributes(
		SpanAttrGenerationID.String(generationID.String()),
		SpanAttrRowCount.Int(rowCount),
	)
	span.SetStatus(codes.Ok, "")
}

// RecordError records err on the span and marks the span failed
func RecordError(span trace.Span, err error, opts ...trace.EventOption) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks the span successful
func SetOK(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}
