package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/openfroyo/brepcore/pkg/engine"
)

func testTelemetry(t *testing.T) *Telemetry {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Logging.Output = filepath.Join(t.TempDir(), "kernel.log")
	tel, err := NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("Expected telemetry, got error: %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })
	return tel
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"bad exporter", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Exporter = "zipkin" }, true},
		{"bad sampling", func(c *Config) { c.Tracing.SamplingRate = 2 }, true},
		{"no service", func(c *Config) { c.ServiceName = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestComputeObserver(t *testing.T) {
	tel := testTelemetry(t)

	var events []Event
	tel.Events.Subscribe(func(e Event) { events = append(events, e) }, nil)

	observe := tel.ComputeObserver()
	observe("c1", time.Millisecond, nil)
	observe("c2", time.Millisecond, engine.NotFound("state", "s9"))

	if got := testutil.ToFloat64(tel.Metrics.constraintComputes.WithLabelValues("ok")); got != 1 {
		t.Errorf("Expected 1 ok compute, got %v", got)
	}
	if got := testutil.ToFloat64(tel.Metrics.constraintComputes.WithLabelValues("error")); got != 1 {
		t.Errorf("Expected 1 failed compute, got %v", got)
	}
	if got := testutil.ToFloat64(tel.Metrics.errorsByCode.WithLabelValues(engine.ErrCodeNotFound)); got != 1 {
		t.Errorf("Expected 1 NOT_FOUND error, got %v", got)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[1].Level != EventLevelError || events[1].ResourceID != "c2" {
		t.Errorf("Expected error event for c2, got %+v", events[1])
	}
}

func TestRecordErrorUnclassified(t *testing.T) {
	tel := testTelemetry(t)
	tel.RecordError(errors.New("boom"))
	tel.RecordError(nil)

	if got := testutil.ToFloat64(tel.Metrics.errorsByClass.WithLabelValues("internal")); got != 1 {
		t.Errorf("Expected 1 internal error, got %v", got)
	}
}

func TestKernelMetrics(t *testing.T) {
	tel := testTelemetry(t)
	m := tel.Metrics

	m.RecordWiresStitched(3)
	m.RecordRegionExtruded("fixed")
	m.RecordSplitFix(true)
	m.RecordSplitFix(false)
	m.RecordFaceSplit(false, nil)
	m.RecordPolicyViolation("target_wall_present")
	m.SetRegionsStored(4)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"wires", testutil.ToFloat64(m.wiresStitched), 3},
		{"extruded", testutil.ToFloat64(m.regionsExtruded.WithLabelValues("fixed")), 1},
		{"fixed", testutil.ToFloat64(m.splitFixes.WithLabelValues("fixed")), 1},
		{"fallback", testutil.ToFloat64(m.splitFixes.WithLabelValues("fallback")), 1},
		{"missed split", testutil.ToFloat64(m.faceSplits.WithLabelValues("missed")), 1},
		{"violations", testutil.ToFloat64(m.policyViolations.WithLabelValues("target_wall_present")), 1},
		{"stored", testutil.ToFloat64(m.regionsStored), 4},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestDisabledMetricsAreNoOps(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	m.RecordWiresStitched(1)
	m.RecordConstraintCompute(time.Second, nil)
	m.RecordError("malformed", "")
	if m.Registry() != nil {
		t.Error("Expected no registry for disabled metrics")
	}
}

func TestEventFilters(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{Enabled: true, BufferSize: 8})
	if err != nil {
		t.Fatalf("Expected publisher, got error: %v", err)
	}
	defer ep.Shutdown(context.Background())

	var warnings, room []string
	ep.Subscribe(func(e Event) { warnings = append(warnings, e.Type) }, FilterByLevel(EventLevelWarning))
	ep.Subscribe(func(e Event) { room = append(room, e.Type) }, FilterByResourceID("room"))

	_ = ep.PublishRegionExtruded("room", "plain", 6)
	_ = ep.PublishRegionExtruded("hall", "failed", 0)
	_ = ep.PublishPolicyViolation("room", "min_segment_length", "too short")

	if len(warnings) != 2 {
		t.Errorf("Expected 2 warning+ events, got %v", warnings)
	}
	if len(room) != 2 {
		t.Errorf("Expected 2 room events, got %v", room)
	}
}

func TestAsyncPublisherFlushesOnShutdown(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{
		Enabled:       true,
		BufferSize:    16,
		MaxBatchSize:  100,
		FlushInterval: time.Hour,
		EnableAsync:   true,
	})
	if err != nil {
		t.Fatalf("Expected publisher, got error: %v", err)
	}

	got := make(chan string, 16)
	ep.Subscribe(func(e Event) { got <- e.ResourceID }, nil)
	for _, id := range []string{"a", "b", "c"} {
		if err := ep.PublishRegionCreated(id, nil); err != nil {
			t.Fatalf("Expected publish to succeed, got %v", err)
		}
	}
	if err := ep.Shutdown(context.Background()); err != nil {
		t.Fatalf("Expected clean shutdown, got %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Expected 3 delivered events, got %d", len(got))
	}
}

func TestTrackOperationWithoutTelemetry(t *testing.T) {
	called := false
	err := TrackOperation(context.Background(), "noop", "r", func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("Expected fn to run without error, got called=%v err=%v", called, err)
	}
}

func readLogLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Expected JSON log line, got %q: %v", line, err)
		}
		lines = append(lines, entry)
	}
	return lines
}

func TestLoggerScopes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.log")
	l, err := NewLogger(LoggingConfig{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("Expected logger, got error: %v", err)
	}

	scoped := l.WithScenario("studio").Component("region").WithRegionID("room")
	z := scoped.Zerolog()
	z.Info().Msg("Region extruded")
	z = l.WithConstraintID("c1").WithOperation("compute").Zerolog()
	z.Debug().Msg("Constraint computed")
	z.Trace().Msg("dropped below debug")

	lines := readLogLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}
	want := map[string]string{"scenario": "studio", "component": "region", "region_id": "room"}
	for k, v := range want {
		if lines[0][k] != v {
			t.Errorf("Expected %s=%s, got %v", k, v, lines[0][k])
		}
	}
	if lines[1]["constraint_id"] != "c1" || lines[1]["operation"] != "compute" {
		t.Errorf("Expected constraint scope, got %v", lines[1])
	}
	if _, ok := lines[1]["region_id"]; ok {
		t.Error("Expected scopes not to leak between children")
	}
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.log")
	l, err := NewLogger(LoggingConfig{Level: "loud", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("Expected logger, got error: %v", err)
	}
	z := l.Zerolog()
	z.Debug().Msg("hidden")
	z.Info().Msg("shown")
	if lines := readLogLines(t, path); len(lines) != 1 || lines[0]["message"] != "shown" {
		t.Errorf("Expected only the info line, got %v", lines)
	}
}

func TestComputeObserverLogsConstraintID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = false
	cfg.Logging.Format = "json"
	cfg.Logging.Output = filepath.Join(t.TempDir(), "kernel.log")
	tel, err := NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("Expected telemetry, got error: %v", err)
	}
	defer tel.Shutdown(context.Background())

	tel.ComputeObserver()("width", time.Millisecond, engine.NotFound("state", "depth"))

	lines := readLogLines(t, cfg.Logging.Output)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 warning line, got %d", len(lines))
	}
	if lines[0]["constraint_id"] != "width" || lines[0]["level"] != "warn" {
		t.Errorf("Expected warning scoped to constraint width, got %v", lines[0])
	}
}

func TestConfigValidateOTLPEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "otlp"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for otlp exporter without endpoint")
	}
	cfg.Tracing.Endpoint = "localhost:4317"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestNewTracerDisabled(t *testing.T) {
	tr, err := NewTracer(TracingConfig{Exporter: "none"}, "brepcore", "test")
	if err != nil {
		t.Fatalf("Expected tracer, got error: %v", err)
	}
	_, span := tr.StartRegionSpan(context.Background(), "room", "extrude")
	if span.IsRecording() {
		t.Error("Expected non-recording span with tracing off")
	}
	RecordError(span, engine.NewDegenerateError("empty", nil))
	span.End()
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
}
