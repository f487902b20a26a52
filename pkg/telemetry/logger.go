package telemetry

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the kernel logger. Each With method returns a child scoped to
// one kernel object; kernel packages take the result as a zerolog.Logger
// option via Zerolog.
type Logger struct {
	zlog zerolog.Logger
}

type loggerContextKey struct{}

// NewLogger builds a logger writing to cfg.Output.
func NewLogger(cfg LoggingConfig) (*Logger, error) {
	out, err := logOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Caller {
		zctx = zctx.Caller()
	}
	return &Logger{zlog: zctx.Logger()}, nil
}

func logOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	return os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// WithContext stores l in ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext returns the logger stored in ctx, or a stderr logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zlog: zerolog.New(os.Stderr).With().Timestamp().Logger()}
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(key, value).Logger()}
}

// Component scopes l to a kernel package such as "region" or "policy".
func (l *Logger) Component(name string) *Logger {
	return l.with("component", name)
}

// WithScenario scopes l to a scenario document.
func (l *Logger) WithScenario(name string) *Logger {
	return l.with("scenario", name)
}

// WithRegionID scopes l to one wall region.
func (l *Logger) WithRegionID(regionID string) *Logger {
	return l.with("region_id", regionID)
}

// WithConstraintID scopes l to one position constraint.
func (l *Logger) WithConstraintID(constraintID string) *Logger {
	return l.with("constraint_id", constraintID)
}

// WithOperation scopes l to a traced kernel operation.
func (l *Logger) WithOperation(operation string) *Logger {
	return l.with("operation", operation)
}

// withSpan adds the trace and span IDs of a recording span.
func (l *Logger) withSpan(span trace.Span) *Logger {
	sc := span.SpanContext()
	if !sc.IsValid() {
		return l
	}
	return &Logger{zlog: l.zlog.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()}
}

// Zerolog returns the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}
