package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// resetProvider clears the install-once state so a test can install its own
// provider.
func resetProvider(t *testing.T) {
	t.Helper()
	reset := func() {
		providerOnce = sync.Once{}
		providerErr = nil
		provider = nil
		output = nil
	}
	reset()
	t.Cleanup(reset)
}

func TestSpans_RecordedByExporter(t *testing.T) {
	resetProvider(t)
	exporter := tracetest.NewInMemoryExporter()
	require.NoError(t, InitWithExporter("ossim-test", "test", exporter))

	ctx, run := StartSpan(context.Background(), "simulation.run")
	_, tick := StartSpan(ctx, "simulation.tick")
	tick.SetInt("sim.time", 3).SetString("sim.action", "beginRun")
	EndSpan(tick, nil)
	EndSpan(run, errors.New("boom"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "simulation.tick", spans[0].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, "boom", spans[1].Status.Description)

	var sawTime bool
	for _, kv := range spans[0].Attributes {
		if string(kv.Key) == "sim.time" {
			sawTime = kv.Value.AsInt64() == 3
		}
	}
	assert.True(t, sawTime)

	// first initialisation wins
	assert.NoError(t, InitWithExporter("other", "x", sdktrace.SpanExporter(tracetest.NewInMemoryExporter())))
	assert.NoError(t, Shutdown(context.Background()))
}

func TestEndSpan_Nil(t *testing.T) {
	var s *Span
	assert.NotPanics(t, func() {
		s.SetInt("k", 1)
		EndSpan(s, nil)
	})
}

func TestInit_SpanFileClosedOnShutdown(t *testing.T) {
	resetProvider(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "spans.json")
	other := filepath.Join(dir, "other.json")

	require.NoError(t, Init("ossim-test", "test", path))
	require.NotNil(t, output)

	// later calls keep the first file and open nothing
	require.NoError(t, Init("ossim-test", "test", other))
	assert.NoFileExists(t, other)

	_, span := StartSpan(context.Background(), "simulation.run")
	EndSpan(span, nil)

	require.NoError(t, Shutdown(context.Background()))
	assert.Nil(t, output)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "simulation.run")
}

func TestInit_UnwritablePath(t *testing.T) {
	resetProvider(t)
	err := Init("ossim-test", "test", filepath.Join(t.TempDir(), "missing", "spans.json"))
	require.Error(t, err)
	assert.Nil(t, output)
	assert.Nil(t, provider)
}
