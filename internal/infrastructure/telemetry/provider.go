// Package telemetry provides OpenTelemetry tracing and metrics for the
// snapshot engine.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultCollectorEndpoint = "localhost:4317"
	defaultExportInterval    = time.Minute
	shutdownTimeout          = 10 * time.Second
)

// Config selects where spans and metrics go. Both signals share one OTLP
// gRPC collector.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	Insecure          bool
	ServiceName       string
	ServiceVersion    string
	// SamplingRatio applies to root spans: 0 disables, >= 1 samples all.
	SamplingRatio  float64
	ExportInterval time.Duration
	// ExportLogs adds an OTLP log pipeline fed through Bridge.
	ExportLogs bool
}

func (c Config) endpoint() string {
	if c.CollectorEndpoint == "" {
		return defaultCollectorEndpoint
	}
	return c.CollectorEndpoint
}

func (c Config) interval() time.Duration {
	if c.ExportInterval <= 0 {
		return defaultExportInterval
	}
	return c.ExportInterval
}

// Providers holds the SDK tracer and meter providers. With telemetry
// disabled both are nil and lookups fall through to the global no-ops.
type Providers struct {
	traces  *sdktrace.TracerProvider
	metrics *sdkmetric.MeterProvider
	logs    *sdklog.LoggerProvider // nil unless ExportLogs
	logger  *zap.Logger
}

// Setup builds both providers and installs them globally along with the
// W3C trace context and baggage propagators.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Providers{logger: logger}
	if !cfg.Enabled {
		logger.Info("Telemetry disabled, tracers and meters are no-ops")
		return p, nil
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.endpoint())}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.endpoint())}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}

	spanExporter, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create metric exporter: %w", err), spanExporter.Shutdown(ctx))
	}

	p.traces = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
	)
	p.metrics = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(cfg.interval()))),
	)
	otel.SetTracerProvider(p.traces)
	otel.SetMeterProvider(p.metrics)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if cfg.ExportLogs {
		logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.endpoint())}
		if cfg.Insecure {
			logOpts = append(logOpts, otlploggrpc.WithInsecure())
		}
		logExporter, err := otlploggrpc.New(ctx, logOpts...)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("create log exporter: %w", err), p.Shutdown(ctx))
		}
		p.logs = sdklog.NewLoggerProvider(sdklog.WithResource(res), sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)))
		global.SetLoggerProvider(p.logs)
	}

	logger.Info("Telemetry exporting",
		zap.String("collector_endpoint", cfg.endpoint()),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
		zap.Duration("export_interval", cfg.interval()),
		zap.Bool("export_logs", p.logs != nil),
		zap.String("service_name", cfg.ServiceName),
	)
	return p, nil
}

// Bridge returns log writing to its own core and, when logs are exported,
// to the collector as well at the same minimum level. Entries logged with a
// context field carry its trace and span ids.
func (p *Providers) Bridge(log *zap.Logger, name string) *zap.Logger {
	if p.logs == nil {
		return log
	}
	var otelCore zapcore.Core = otelzap.NewCore(name, otelzap.WithLoggerProvider(p.logs))
	if filtered, err := zapcore.NewIncreaseLevelCore(otelCore, log.Level()); err == nil {
		otelCore = filtered
	}
	return log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, otelCore)
	}))
}

func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio <= 0:
		return sdktrace.NeverSample()
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func newResource(serviceName, version string) (*resource.Resource, error) {
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}
	return res, nil
}

// Enabled reports whether spans and metrics leave the process
func (p *Providers) Enabled() bool {
	return p.traces != nil
}

// Tracer returns a named tracer
func (p *Providers) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.traces == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return p.traces.Tracer(name, opts...)
}

// Meter returns a named meter
func (p *Providers) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p.metrics == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return p.metrics.Meter(name, opts...)
}

// ForceFlush exports everything recorded so far
func (p *Providers) ForceFlush(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	err := errors.Join(p.traces.ForceFlush(ctx), p.metrics.ForceFlush(ctx))
	if p.logs != nil {
		err = errors.Join(err, p.logs.ForceFlush(ctx))
	}
	return err
}

// Shutdown flushes and stops both exporters, giving up after ten seconds
func (p *Providers) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	err := errors.Join(p.traces.Shutdown(ctx), p.metrics.Shutdown(ctx))
	if p.logs != nil {
		err = errors.Join(err, p.logs.Shutdown(ctx))
	}
	if err != nil {
		return fmt.Errorf("shutdown telemetry: %w", err)
	}
	p.logger.Info("Telemetry shutdown complete")
	return nil
}
