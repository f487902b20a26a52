package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openfroyo/brepcore/pkg/engine"
)

// Telemetry bundles the kernel logger, tracer, metrics and event publisher.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Events  *EventPublisher
	Config  *Config
}

type telemetryContextKey struct{}

// NewTelemetry validates cfg and builds every component.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}
	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	events, err := NewEventPublisher(cfg.Events)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
		Events:  events,
		Config:  cfg,
	}, nil
}

// WithContext stores t and its logger in ctx.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	return t.Logger.WithContext(ctx)
}

// FromTelemetryContext returns the telemetry stored in ctx, or nil.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey{}).(*Telemetry); ok {
		return t
	}
	return nil
}

// Shutdown drains pending events, then flushes and stops the tracer.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.Events.Shutdown(ctx); err != nil {
		return err
	}
	return t.Tracer.Shutdown(ctx)
}

// StartMetricsServer serves the metrics endpoint when metrics are enabled.
func (t *Telemetry) StartMetricsServer() error {
	return t.Metrics.StartMetricsServer()
}

// InstrumentedContext is a traced, timed kernel operation.
type InstrumentedContext struct {
	Ctx    context.Context
	Span   trace.Span
	Logger *Logger
	Timer  *Timer
}

// StartOperation opens a span for operation and a logger carrying its trace
// IDs. Without telemetry in ctx only the logger and timer are set.
func StartOperation(ctx context.Context, operation string, attrs ...attribute.KeyValue) *InstrumentedContext {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return &InstrumentedContext{
			Ctx:    ctx,
			Logger: FromContext(ctx).WithOperation(operation),
			Timer:  NewTimer(),
		}
	}

	spanCtx, span := tel.Tracer.Start(ctx, operation, attrs...)
	return &InstrumentedContext{
		Ctx:    spanCtx,
		Span:   span,
		Logger: FromContext(ctx).WithOperation(operation).withSpan(span),
		Timer:  NewTimer(),
	}
}

// End closes the span with the outcome of the operation.
func (ic *InstrumentedContext) End(err error) {
	if ic.Span == nil {
		return
	}
	if err != nil {
		RecordError(ic.Span, err)
	} else {
		RecordSuccess(ic.Span)
	}
	ic.Span.End()
}

// ComputeObserver returns a callback for engine.WithComputeObserver that
// records a metric sample, a log entry and a constraint.computed event per
// evaluation. It is safe for concurrent use.
func (t *Telemetry) ComputeObserver() engine.ComputeObserver {
	return func(nodeID string, duration time.Duration, err error) {
		t.Metrics.RecordConstraintCompute(duration, err)
		logger := t.Logger.WithConstraintID(nodeID).Zerolog()
		if err != nil {
			t.RecordError(err)
			logger.Warn().Err(err).Dur("duration", duration).Msg("Constraint compute failed")
		} else {
			logger.Trace().Dur("duration", duration).Msg("Constraint computed")
		}
		_ = t.Events.PublishConstraintComputed(nodeID, duration, err)
	}
}

// RecordError counts err by its kernel class and code. Unclassified errors
// are counted as "internal".
func (t *Telemetry) RecordError(err error) {
	if err == nil {
		return
	}
	class := string(engine.ClassOf(err))
	if class == "" {
		class = "internal"
	}
	code := errorCode(err)
	if code == "" {
		code = engine.ErrCodeInternal
	}
	t.Metrics.RecordError(class, code)
}

func errorCode(err error) string {
	var ke *engine.KernelError
	if errors.As(err, &ke) {
		return ke.Code
	}
	return ""
}

// TrackOperation runs fn inside an instrumented operation on resourceID.
// Failures are recorded on the span and in the error metrics.
func TrackOperation(ctx context.Context, operation, resourceID string, fn func(ctx context.Context) error) error {
	op := StartOperation(ctx, operation, attrResourceID.String(resourceID))
	err := fn(op.Ctx)
	logger := op.Logger.Zerolog()
	if err != nil {
		if tel := FromTelemetryContext(ctx); tel != nil {
			tel.RecordError(err)
		}
		logger.Warn().Err(err).Str("resource", resourceID).Msg("Operation failed")
	} else {
		logger.Debug().Str("resource", resourceID).Dur("duration", op.Timer.Duration()).Msg("Operation finished")
	}
	op.End(err)
	return err
}
