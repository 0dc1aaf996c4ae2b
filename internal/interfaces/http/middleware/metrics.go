package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/storepulse/backend/internal/infrastructure/telemetry"
)

const unmatchedRoute = "unknown"

var responseSizeBuckets = []float64{100, 500, 1e3, 5e3, 1e4, 5e4, 1e5, 5e5, 1e6, 5e6}

// HTTPMetricsConfig configures HTTPMetrics.
type HTTPMetricsConfig struct {
	Telemetry *telemetry.Providers
	Logger    *zap.Logger
}

type httpMetrics struct {
	requests *telemetry.Counter
	latency  *telemetry.Histogram
	size     *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	m := &httpMetrics{}
	var errs []error
	var err error

	m.requests, err = telemetry.NewCounter(meter,
		"http_server_request_total", "HTTP requests served", "{request}")
	errs = append(errs, err)

	m.latency, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	errs = append(errs, err)

	m.size, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size",
		Unit:        "By",
		Boundaries:  responseSizeBuckets,
	})
	errs = append(errs, err)

	m.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// observe records a finished request. Labels use the route pattern so the
// series count stays bounded; only the request counter carries the
// organization, and only when org_id is a UUID.
func (m *httpMetrics) observe(ctx context.Context, c *gin.Context, elapsed time.Duration) {
	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}
	attrs := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(route),
	}

	m.latency.RecordDuration(ctx, elapsed, attrs...)
	if n := c.Writer.Size(); n > 0 {
		m.size.Record(ctx, float64(n), attrs...)
	}

	attrs = append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
	if orgID, err := uuid.Parse(c.Param("org_id")); err == nil {
		attrs = append(attrs, telemetry.AttrOrganizationID.String(orgID.String()))
	}
	m.requests.Inc(ctx, attrs...)
}

// HTTPMetrics records request count, latency, response size and in-flight
// requests. It is a no-op unless telemetry is exported.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if cfg.Telemetry == nil || !cfg.Telemetry.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return HTTPMetricsWithMeter(cfg.Telemetry.Meter("http.server"), cfg.Logger)
}

// HTTPMetricsWithMeter is HTTPMetrics on an explicit meter
func HTTPMetricsWithMeter(meter metric.Meter, logger *zap.Logger) gin.HandlerFunc {
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if logger != nil {
			logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.inFlight.Add(ctx, 1)
		defer m.inFlight.Add(ctx, -1)

		c.Next()
		m.observe(ctx, c, time.Since(start))
	}
}
