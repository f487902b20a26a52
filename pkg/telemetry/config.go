package telemetry

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config selects how the kernel reports what it does. Struct tags are
// checked by Validate.
type Config struct {
	ServiceName    string `validate:"required"`
	ServiceVersion string `validate:"required"`

	Logging LoggingConfig
	Tracing TracingConfig
	Metrics MetricsConfig
	Events  EventsConfig
}

// LoggingConfig configures the kernel logger.
type LoggingConfig struct {
	// Level is the minimum level written.
	Level string `validate:"oneof=trace debug info warn error"`

	// Format is "console" for humans or "json" for collectors.
	Format string `validate:"oneof=console json"`

	// Output is stdout, stderr or a file path appended to.
	Output string

	// Caller adds file:line to every entry.
	Caller bool
}

// TracingConfig configures span export for kernel operations.
type TracingConfig struct {
	Enabled bool

	// Exporter is otlp (gRPC), stdout or none.
	Exporter string `validate:"oneof=otlp stdout none"`

	// Endpoint is the OTLP collector address, e.g. "localhost:4317".
	Endpoint string `validate:"required_if=Exporter otlp"`

	SamplingRate float64 `validate:"gte=0,lte=1"`

	// BatchSize and ExportTimeout bound each export round trip.
	BatchSize     int           `validate:"gte=0"`
	ExportTimeout time.Duration `validate:"gte=0"`

	// Insecure dials the collector without TLS.
	Insecure bool
}

// MetricsConfig configures the Prometheus collectors and their endpoint.
type MetricsConfig struct {
	Enabled bool

	// ListenAddress serves Path when set.
	ListenAddress string `validate:"required_if=Enabled true"`
	Path          string

	Namespace string

	// DefaultHistogramBuckets are the latency buckets in seconds.
	DefaultHistogramBuckets []float64
}

// EventsConfig configures kernel event delivery.
type EventsConfig struct {
	Enabled bool

	// BufferSize is the async queue length.
	BufferSize int `validate:"required_if=Enabled true,gte=0"`

	FlushInterval time.Duration
	MaxBatchSize  int

	// EnableAsync delivers events from a background goroutine in batches.
	// Synchronous delivery is the default so that subscribers such as the
	// store see every event before the publishing call returns.
	EnableAsync bool
}

// DefaultConfig logs to stderr at info level, keeps metrics and events on
// and leaves tracing off.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "brepcore",
		ServiceVersion: "dev",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Tracing: TracingConfig{
			Exporter:      "none",
			SamplingRate:  1.0,
			BatchSize:     512,
			ExportTimeout: 30 * time.Second,
			Insecure:      true,
		},
		Metrics: MetricsConfig{
			Enabled:       true,
			ListenAddress: ":9090",
			Path:          "/metrics",
			Namespace:     "brepcore",
			DefaultHistogramBuckets: []float64{
				0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0,
			},
		},
		Events: EventsConfig{
			Enabled:       true,
			BufferSize:    1000,
			FlushInterval: time.Second,
			MaxBatchSize:  100,
		},
	}
}

var configValidator = validator.New()

// Validate checks the struct tags of c and its sections.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}
	return nil
}
