package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/storepulse/backend/internal/infrastructure/telemetry"
)

// TracingConfig configures request tracing.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths are served without a span, e.g. the health probe.
	SkipPaths []string
}

// Tracing opens a server span per request named "METHOD route" and
// annotates it. Register it after RequestID so the span carries the ID.
func Tracing(cfg TracingConfig) gin.HandlersChain {
	if !cfg.Enabled {
		return gin.HandlersChain{func(c *gin.Context) { c.Next() }}
	}
	opts := []otelgin.Option{}
	if len(cfg.SkipPaths) > 0 {
		skip := slices.Clone(cfg.SkipPaths)
		opts = append(opts, otelgin.WithFilter(func(r *http.Request) bool {
			return !slices.Contains(skip, r.URL.Path)
		}))
	}
	return gin.HandlersChain{otelgin.Middleware(cfg.ServiceName, opts...), annotateSpan}
}

// annotateSpan tags the request span with request_id and a well formed
// organization_id, then with the response status once it is 4xx or 5xx.
// Only 5xx marks the span failed.
func annotateSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		c.Next()
		return
	}

	if id := GetRequestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if orgID, err := uuid.Parse(c.Param("org_id")); err == nil {
		span.SetAttributes(telemetry.SpanAttrOrganizationID.String(orgID.String()))
	}

	c.Next()

	switch status := c.Writer.Status(); {
	case status >= http.StatusInternalServerError:
		span.SetAttributes(attribute.Int("http.status_code", status))
		span.SetStatus(codes.Error, http.StatusText(status))
	case status >= http.StatusBadRequest:
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
