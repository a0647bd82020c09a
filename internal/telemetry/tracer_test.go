// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, p.tp)
	assert.NoError(t, p.Shutdown(context.Background()))

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestNewProviderInvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ServiceName: "ssyoutube", ExporterType: "carrier-pigeon"})
	require.Error(t, err)
	assert.Equal(t, `telemetry: unknown exporter "carrier-pigeon" (want grpc or http)`, err.Error())
}

func TestNewProviderEnabledKeepsContextLocal(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "ssyoutube",
		ExporterType: "http",
		Endpoint:     "127.0.0.1:1",
		SamplingRate: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	_, span := otel.Tracer("test").Start(context.Background(), "refresh.run")
	assert.True(t, span.IsRecording())
	span.End()
	assert.Empty(t, otel.GetTextMapPropagator().Fields(), "trace headers must not leave the process")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestSampler(t *testing.T) {
	ratio := func(r float64) string { return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(r)).Description() }
	assert.Equal(t, ratio(1), sampler(1).Description())
	assert.Equal(t, ratio(1), sampler(3).Description())
	assert.Equal(t, ratio(0), sampler(-1).Description())
	assert.Equal(t, ratio(0.5), sampler(0.5).Description())
}

func TestEndRecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "live.resolve")
	span.SetAttributes(ChannelAttributes("News", "@Example")...)
	End(span, errors.New("no live broadcast"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), ChannelAttributes("News", "@Example")[1])
}
