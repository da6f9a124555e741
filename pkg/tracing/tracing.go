// Package tracing sets up OpenTelemetry for the conformance harness's
// packet state machine. It follows the teacher's observability.Initialize
// idiom (resource + sampler + batch span processor, global tracer behind
// a sync.Once), trimmed to the stdout exporter the harness actually uses
// instead of the teacher's jaeger/zipkin/otlp switch.
package tracing

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer   trace.Tracer
	initOnce sync.Once
)

// Config configures the harness tracer provider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	PrettyPrint    bool
	SamplingRate   float64
}

// DefaultConfig returns the harness's default tracing configuration: a
// pretty-printed stdout exporter, always sampling, matching the
// teacher's development-mode defaults.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "frankenpandas-harness",
		ServiceVersion: "0.1.0",
		PrettyPrint:    true,
		SamplingRate:   1.0,
	}
}

// Init sets up the global tracer provider. Safe to call more than once;
// only the first call takes effect.
func Init(cfg Config) error {
	var err error
	initOnce.Do(func() {
		err = initTracing(cfg)
	})
	return err
}

func initTracing(cfg Config) error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return fmt.Errorf("building tracing resource: %w", err)
	}

	opts := []stdouttrace.Option{}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return fmt.Errorf("building stdout span exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(cfg.ServiceName)
	return nil
}

// Tracer returns the global harness tracer, initializing it from
// DefaultConfig (pretty-printed stdout exporter) on first use if Init
// was never called.
func Tracer() trace.Tracer {
	if tracer == nil {
		_ = Init(DefaultConfig())
	}
	return tracer
}

// PacketSpan wraps one state of the harness's
// execute -> classify -> gate -> emit -> append-drift state machine
// (the gate is evaluated before artifacts are emitted).
type PacketSpan struct {
	span trace.Span
}

// StartPacketSpan starts a span for one packet state, tagged with the
// packet ID and state name.
func StartPacketSpan(ctx context.Context, packetID, state string) (context.Context, *PacketSpan) {
	ctx, span := Tracer().Start(ctx, fmt.Sprintf("packet.%s", state))
	span.SetAttributes(
		attribute.String("packet.id", packetID),
		attribute.String("packet.state", state),
	)
	return ctx, &PacketSpan{span: span}
}

// SetAttribute adds a single attribute, covering the scalar kinds the
// harness records (row counts, mismatch counts, durations-as-seconds).
func (p *PacketSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		p.span.SetAttributes(attribute.String(key, v))
	case int:
		p.span.SetAttributes(attribute.Int(key, v))
	case int64:
		p.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		p.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		p.span.SetAttributes(attribute.Bool(key, v))
	default:
		p.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Fail marks the span as failed with the given error.
func (p *PacketSpan) Fail(err error) {
	p.span.SetStatus(codes.Error, err.Error())
	p.span.RecordError(err)
}

// End ends the span. It sets no Ok status; only Fail sets a status.
func (p *PacketSpan) End() {
	p.span.End()
}

// Shutdown flushes and stops the global tracer provider.
func Shutdown(ctx context.Context) error {
	if tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
		return tp.Shutdown(ctx)
	}
	return nil
}
