package logger

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	organizationIDKey
	generationIDKey
)

// WithContext stores logger in ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// with stores value under key and returns a logger carrying field, also
// stored in the returned context.
func with(ctx context.Context, logger *zap.Logger, key ctxKey, value any, field zap.Field) (context.Context, *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	enriched := logger.With(field)
	ctx = context.WithValue(ctx, key, value)
	return WithContext(ctx, enriched), enriched
}

// WithRequestID tags ctx and logger with the HTTP request ID
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return with(ctx, logger, requestIDKey, requestID, zap.String("request_id", requestID))
}

// WithOrganizationID tags ctx and logger with the organization being served
// or rebuilt.
func WithOrganizationID(ctx context.Context, logger *zap.Logger, orgID uuid.UUID) (context.Context, *zap.Logger) {
	return with(ctx, logger, organizationIDKey, orgID, zap.Stringer("organization_id", orgID))
}

// WithGenerationID tags ctx and logger with the snapshot generation being staged
func WithGenerationID(ctx context.Context, logger *zap.Logger, generationID uuid.UUID) (context.Context, *zap.Logger) {
	return with(ctx, logger, generationIDKey, generationID, zap.Stringer("generation_id", generationID))
}

// GetRequestID returns the request ID in ctx, or ""
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// GetOrganizationID returns the organization in ctx, or uuid.Nil
func GetOrganizationID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(organizationIDKey).(uuid.UUID)
	return id
}

// GetGenerationID returns the generation in ctx, or uuid.Nil
func GetGenerationID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(generationIDKey).(uuid.UUID)
	return id
}

// TraceFields returns trace_id and span_id for the span in ctx, nil without one.
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// Fields collects every identifier carried by ctx: request, organization,
// generation and trace. Used where a logger cannot travel with the context,
// such as GORM callbacks.
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetOrganizationID(ctx); id != uuid.Nil {
		fields = append(fields, zap.Stringer("organization_id", id))
	}
	if id := GetGenerationID(ctx); id != uuid.Nil {
		fields = append(fields, zap.Stringer("generation_id", id))
	}
	return append(fields, TraceFields(ctx)...)
}
