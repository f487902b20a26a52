package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/openfroyo/brepcore/pkg/engine"
)

// Span attribute keys.
var (
	attrRegionID      = attribute.Key("brep.region.id")
	attrResourceID    = attribute.Key("brep.resource.id")
	attrOperation     = attribute.Key("brep.operation")
	attrChangedStates = attribute.Key("brep.constraint.changed_states")
	attrErrorClass    = attribute.Key("brep.error.class")
	attrErrorCode     = attribute.Key("brep.error.code")
)

// Tracer starts spans for kernel operations. With tracing off it hands out
// spans from a provider that samples nothing and exports nowhere.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracer builds the tracer and, when tracing is on, installs it as the
// global otel provider.
func NewTracer(cfg TracingConfig, serviceName, serviceVersion string) (*Tracer, error) {
	if !cfg.Enabled || cfg.Exporter == "none" {
		provider := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample()))
		return &Tracer{provider: provider, tracer: provider.Tracer(serviceName)}, nil
	}

	exporter, err := newSpanExporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s trace exporter: %w", cfg.Exporter, err)
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	var batch []sdktrace.BatchSpanProcessorOption
	if cfg.BatchSize > 0 {
		batch = append(batch, sdktrace.WithMaxExportBatchSize(cfg.BatchSize))
	}
	if cfg.ExportTimeout > 0 {
		batch = append(batch, sdktrace.WithExportTimeout(cfg.ExportTimeout))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
		sdktrace.WithBatcher(exporter, batch...),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{provider: provider, tracer: provider.Tracer(serviceName)}, nil
}

// newSpanExporter writes spans to stderr (stdout carries command output) or
// to an OTLP collector over gRPC.
func newSpanExporter(cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	case "otlp":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithDialOption(grpc.WithUserAgent("brepcore")),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		return otlptracegrpc.New(context.Background(), opts...)
	}
	return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
}

// Start begins a span named after a kernel operation.
func (t *Tracer) Start(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attrOperation.String(operation))
	return t.tracer.Start(ctx, operation, trace.WithAttributes(attrs...))
}

// StartPropagationSpan begins a span for one propagation pass. An empty
// changed list means a full run.
func (t *Tracer) StartPropagationSpan(ctx context.Context, changed []string) (context.Context, trace.Span) {
	return t.Start(ctx, "constraint.propagate", attrChangedStates.StringSlice(changed))
}

// StartRegionSpan begins a span for an operation on one region.
func (t *Tracer) StartRegionSpan(ctx context.Context, regionID, operation string) (context.Context, trace.Span) {
	return t.Start(ctx, "region."+operation, attrRegionID.String(regionID))
}

// Shutdown flushes pending spans and stops the exporter.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// RecordError marks span failed and tags it with the kernel error class
// and code.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if class := engine.ClassOf(err); class != "" {
		span.SetAttributes(attrErrorClass.String(string(class)))
	}
	if code := errorCode(err); code != "" {
		span.SetAttributes(attrErrorCode.String(code))
	}
}

// RecordSuccess marks span successful.
func RecordSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddRegionEvent records a step of a region operation on span.
func AddRegionEvent(span trace.Span, regionID, event, detail string) {
	span.AddEvent(event, trace.WithAttributes(
		attrRegionID.String(regionID),
		attribute.String("detail", detail),
	))
}
