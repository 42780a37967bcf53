// Package telemetry installs the OpenTelemetry trace and meter providers.
//
// Until Init is called the global providers are no-ops, so the components
// can always create spans and metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Config struct {
	Enabled bool

	ServiceName    string
	ServiceVersion string

	// TraceEndpoint is the OTLP gRPC endpoint, MetricEndpoint the OTLP HTTP one.
	// Empty values use the exporter defaults and the OTEL_* environment variables.
	TraceEndpoint  string
	MetricEndpoint string

	SampleRatio    float64
	MetricInterval time.Duration
}

func NewDefaultConfig() *Config {
	return &Config{
		Enabled: false,

		ServiceName:    "bmsmon",
		ServiceVersion: "0.1.0",

		SampleRatio:    0.05,
		MetricInterval: time.Second,
	}
}

// Providers holds the installed providers.
type Providers struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// Init creates the exporters and installs the global providers.
func Init(ctx context.Context, cfg *Config) (*Providers, error) {
	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry resource: %w", err)
	}

	traceExporter, err := newTraceExporter(ctx, cfg.TraceEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	meterExporter, err := newMeterExporter(ctx, cfg.MetricEndpoint)
	if err != nil {
		return nil, errors.Join(
			fmt.Errorf("failed to create metric exporter: %w", err),
			traceExporter.Shutdown(ctx),
		)
	}

	p := &Providers{
		tracerProvider: newTraceProvider(res, traceExporter, cfg.SampleRatio),
		meterProvider:  newMeterProvider(res, meterExporter, cfg.MetricInterval),
	}

	otel.SetTracerProvider(p.tracerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	otel.SetMeterProvider(p.meterProvider)

	return p, nil
}

// Shutdown flushes and stops the providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.tracerProvider.Shutdown(ctx),
		p.meterProvider.Shutdown(ctx),
	)
}

func newResource(cfg *Config) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
}

func newTraceExporter(ctx context.Context, endpoint string) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
	if endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))
	}
	return otlptracegrpc.New(ctx, opts...)
}

func newTraceProvider(res *resource.Resource, exporter sdktrace.SpanExporter, ratio float64) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(ratio)),
	)
}

func newMeterExporter(ctx context.Context, endpoint string) (*otlpmetrichttp.Exporter, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
	if endpoint != "" {
		opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
	}
	return otlpmetrichttp.New(ctx, opts...)
}

func newMeterProvider(res *resource.Resource, exporter sdkmetric.Exporter, interval time.Duration) *sdkmetric.MeterProvider {
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)),
		),
	)
}
