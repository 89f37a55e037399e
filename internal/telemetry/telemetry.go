// Package telemetry wraps OpenTelemetry tracing for simulation runs. Until
// Init is called the global no-op tracer provider is used, so spans cost
// nothing.
package telemetry

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/me/ossim"

var (
	providerOnce sync.Once
	providerErr  error
	provider     *sdktrace.TracerProvider
	output       io.Closer // span file opened by Init, closed by Shutdown
)

// Init installs a stdout span exporter writing to outputFile ("-" for
// stdout). The first call wins; later calls open nothing and return its
// error.
func Init(serviceName, serviceVersion, outputFile string) error {
	providerOnce.Do(func() {
		var w io.Writer = os.Stdout
		var f *os.File
		if outputFile != "" && outputFile != "-" {
			var err error
			if f, err = os.Create(outputFile); err != nil {
				providerErr = err
				return
			}
			w = f
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err == nil {
			err = install(serviceName, serviceVersion, exporter)
		}
		if err != nil {
			providerErr = err
			if f != nil {
				f.Close()
			}
			return
		}
		if f != nil {
			output = f
		}
	})
	return providerErr
}

// InitWithExporter installs the supplied exporter as the global provider.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}
	providerOnce.Do(func() {
		providerErr = install(serviceName, serviceVersion, exporter)
	})
	return providerErr
}

func install(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return err
	}
	provider = sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return nil
}

// Shutdown flushes and stops the installed provider, if any, then closes the
// span file opened by Init.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	if output != nil {
		if cerr := output.Close(); err == nil {
			err = cerr
		}
		output = nil
	}
	return err
}

// Span wraps an OpenTelemetry span.
type Span struct {
	span trace.Span
}

// StartSpan starts an internal span named name.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	return ctx, &Span{span: span}
}

// SetInt attaches an integer attribute.
func (s *Span) SetInt(key string, v int) *Span {
	if s != nil {
		s.span.SetAttributes(attribute.Int(key, v))
	}
	return s
}

// SetString attaches a string attribute.
func (s *Span) SetString(key, v string) *Span {
	if s != nil {
		s.span.SetAttributes(attribute.String(key, v))
	}
	return s
}

// EndSpan records err (or OK) on the span and ends it.
func EndSpan(s *Span, err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
