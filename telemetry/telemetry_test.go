package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func Test_NewResource(t *testing.T) {
	assert := assert.New(t)

	cfg := NewDefaultConfig()
	cfg.ServiceName = "bmsmon-test"

	res, err := newResource(cfg)
	require.NoError(t, err)

	value, ok := res.Set().Value(semconv.ServiceNameKey)
	assert.True(ok)
	assert.Equal("bmsmon-test", value.AsString())
}

func Test_TraceProvider(t *testing.T) {
	assert := assert.New(t)

	res, err := newResource(NewDefaultConfig())
	require.NoError(t, err)

	exporter := tracetest.NewInMemoryExporter()
	tp := newTraceProvider(res, exporter, 1)

	_, span := tp.Tracer("test").Start(context.Background(), "decode")
	span.End()

	require.NoError(t, tp.ForceFlush(context.Background()))
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal("decode", spans[0].Name)

	assert.NoError(tp.Shutdown(context.Background()))
}

func Test_MeterProvider(t *testing.T) {
	res, err := newResource(NewDefaultConfig())
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))

	counter, err := mp.Meter("test").Int64Counter("frames")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, "frames", rm.ScopeMetrics[0].Metrics[0].Name)

	// the periodic reader wraps any exporter
	periodic := newMeterProvider(res, noopExporter{}, time.Hour)
	assert.NoError(t, periodic.Shutdown(context.Background()))
}

type noopExporter struct{}

func (noopExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (noopExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (noopExporter) Export(context.Context, *metricdata.ResourceMetrics) error { return nil }

func (noopExporter) ForceFlush(context.Context) error { return nil }

func (noopExporter) Shutdown(context.Context) error { return nil }
