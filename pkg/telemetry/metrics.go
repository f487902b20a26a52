package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics provides Prometheus metrics for the kernel.
type Metrics struct {
	config MetricsConfig

	// Constraint metrics
	constraintComputes  *prometheus.CounterVec
	computeDuration     *prometheus.HistogramVec
	propagationDuration prometheus.Histogram

	// Topology metrics
	wiresStitched    prometheus.Counter
	regionsExtruded  *prometheus.CounterVec
	splitFixes       *prometheus.CounterVec
	faceSplits       *prometheus.CounterVec
	policyViolations *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec
	errorsByCode  *prometheus.CounterVec

	// Store metrics
	regionsStored prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		constraintComputes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "constraint_computes_total",
				Help:      "Total number of constraint evaluations",
			},
			[]string{"status"},
		),
		computeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "constraint_compute_duration_seconds",
				Help:      "Duration of single constraint evaluations in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),
		propagationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "propagation_duration_seconds",
				Help:      "Duration of a full propagation pass in seconds",
				Buckets:   buckets,
			},
		),

		wiresStitched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wires_stitched_total",
				Help:      "Total number of wires produced by boundary stitching",
			},
		),
		regionsExtruded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "regions_extruded_total",
				Help:      "Total number of region extrusions by result status",
			},
			[]string{"status"},
		),
		splitFixes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "split_fixes_total",
				Help:      "Total number of split face classifications by outcome",
			},
			[]string{"outcome"},
		),
		faceSplits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "face_splits_total",
				Help:      "Total number of face split requests by outcome",
			},
			[]string{"outcome"},
		),
		policyViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_violations_total",
				Help:      "Total number of policy violations by rule",
			},
			[]string{"rule"},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),

		regionsStored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "regions_stored",
				Help:      "Current number of region reports in the store",
			},
		),
	}

	registry.MustRegister(
		m.constraintComputes,
		m.computeDuration,
		m.propagationDuration,
		m.wiresStitched,
		m.regionsExtruded,
		m.splitFixes,
		m.faceSplits,
		m.policyViolations,
		m.errorsByClass,
		m.errorsByCode,
		m.regionsStored,
	)

	return m, nil
}

// Constraint Metrics

// RecordConstraintCompute records one constraint evaluation.
func (m *Metrics) RecordConstraintCompute(duration time.Duration, err error) {
	if m.constraintComputes == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.constraintComputes.WithLabelValues(status).Inc()
	m.computeDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordPropagation records the duration of a propagation pass.
func (m *Metrics) RecordPropagation(duration time.Duration) {
	if m.propagationDuration == nil {
		return
	}
	m.propagationDuration.Observe(duration.Seconds())
}

// Topology Metrics

// RecordWiresStitched adds n stitched wires.
func (m *Metrics) RecordWiresStitched(n int) {
	if m.wiresStitched == nil {
		return
	}
	m.wiresStitched.Add(float64(n))
}

// RecordRegionExtruded records an extrusion with its result status.
func (m *Metrics) RecordRegionExtruded(status string) {
	if m.regionsExtruded == nil {
		return
	}
	m.regionsExtruded.WithLabelValues(status).Inc()
}

// RecordSplitFix records whether a split classification was applied.
func (m *Metrics) RecordSplitFix(applied bool) {
	if m.splitFixes == nil {
		return
	}
	outcome := "fallback"
	if applied {
		outcome = "fixed"
	}
	m.splitFixes.WithLabelValues(outcome).Inc()
}

// RecordFaceSplit records a face split request.
func (m *Metrics) RecordFaceSplit(split bool, err error) {
	if m.faceSplits == nil {
		return
	}
	outcome := "missed"
	switch {
	case err != nil:
		outcome = "error"
	case split:
		outcome = "split"
	}
	m.faceSplits.WithLabelValues(outcome).Inc()
}

// RecordPolicyViolation records a violated rule.
func (m *Metrics) RecordPolicyViolation(rule string) {
	if m.policyViolations == nil {
		return
	}
	m.policyViolations.WithLabelValues(rule).Inc()
}

// Error Metrics

// RecordError records an error by class and optionally by code.
func (m *Metrics) RecordError(errorClass, errorCode string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
	if errorCode != "" && m.errorsByCode != nil {
		m.errorsByCode.WithLabelValues(errorCode).Inc()
	}
}

// SetRegionsStored sets the number of stored region reports.
func (m *Metrics) SetRegionsStored(count float64) {
	if m.regionsStored == nil {
		return
	}
	m.regionsStored.Set(count)
}

// Registry returns the registry the metrics are registered with, or nil
// when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("addr", m.config.ListenAddress).Msg("Metrics server stopped")
		}
	}()

	return nil
}
