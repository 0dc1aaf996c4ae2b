package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	return sr
}

func tracedRouter(status int) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(Tracing(TracingConfig{Enabled: true, ServiceName: "test-service", SkipPaths: []string{"/health"}})...)
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/organizations/:org_id/test", func(c *gin.Context) {
		c.JSON(status, gin.H{"ok": status < http.StatusBadRequest})
	})
	return router
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.FailNow(t, "span not found", name)
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

const spanRoute = "GET /organizations/:org_id/test"

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false})...)
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_Attributes(t *testing.T) {
	sr := setupTestTracer(t)
	router := tracedRouter(http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/organizations/12345678-1234-1234-1234-123456789abc/test", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	span := findSpan(t, sr, spanRoute)
	v, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-123", v.AsString())

	v, ok = spanAttr(span, "organization_id")
	require.True(t, ok)
	assert.Equal(t, "12345678-1234-1234-1234-123456789abc", v.AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestTracing_SkipsMalformedOrganization(t *testing.T) {
	sr := setupTestTracer(t)
	router := tracedRouter(http.StatusOK)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/organizations/not-a-uuid/test", nil))

	_, ok := spanAttr(findSpan(t, sr, spanRoute), "organization_id")
	assert.False(t, ok)
}

func TestTracing_ResponseStatus(t *testing.T) {
	t.Run("client error keeps span status", func(t *testing.T) {
		sr := setupTestTracer(t)
		router := tracedRouter(http.StatusNotFound)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/organizations/x/test", nil))

		span := findSpan(t, sr, spanRoute)
		v, ok := spanAttr(span, "http.status_code")
		require.True(t, ok)
		assert.Equal(t, int64(http.StatusNotFound), v.AsInt64())
		assert.NotEqual(t, codes.Error, span.Status().Code)
	})

	t.Run("server error marks span failed", func(t *testing.T) {
		sr := setupTestTracer(t)
		router := tracedRouter(http.StatusInternalServerError)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/organizations/x/test", nil))

		assert.Equal(t, codes.Error, findSpan(t, sr, spanRoute).Status().Code)
	})
}

func TestTracing_SkipPaths(t *testing.T) {
	sr := setupTestTracer(t)
	router := tracedRouter(http.StatusOK)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}
