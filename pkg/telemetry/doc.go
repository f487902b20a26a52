// Package telemetry provides observability instrumentation for the kernel.
//
// The package combines structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus) and event publishing behind a single
// Telemetry value.
//
// # Usage
//
// Initialize telemetry at startup and put it in the context:
//
//	tel, err := telemetry.NewTelemetry(telemetry.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// Kernel packages take a zerolog.Logger option. Scope the configured logger
// to the object first so every entry carries its ID:
//
//	r, err := region.Create(plan, path, wallIDs, region.WithRegionLogger(func(id string) zerolog.Logger {
//	    return tel.Logger.WithRegionID(id).Component("region").Zerolog()
//	}))
//
// ComputeObserver logs through WithConstraintID in the same way.
//
// # Constraint Propagation
//
// ComputeObserver plugs into the propagator and records one metric sample
// and one constraint.computed event per evaluation:
//
//	p, err := engine.NewPropagator(nodes, engine.WithComputeObserver(tel.ComputeObserver()))
//
// # Metrics
//
//	tel.Metrics.RecordRegionExtruded(string(result.Status))
//	tel.Metrics.RecordWiresStitched(len(wires))
//	tel.Metrics.RecordPolicyViolation("target_wall_present")
//
// Metrics are exposed via HTTP at /metrics (default: :9090/metrics).
//
// # Events
//
//	tel.Events.Subscribe(func(event telemetry.Event) {
//	    fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
//	}, telemetry.FilterByLevel(telemetry.EventLevelWarning))
//
// Event filters: FilterByLevel, FilterByType, FilterByResourceID
//
// # Operations
//
// TrackOperation wraps a kernel call in a span, a timer and error
// accounting:
//
//	err := telemetry.TrackOperation(ctx, "region.extrude", r.ID, func(ctx context.Context) error {
//	    _, err := r.ExtrudeBody(0, 2.8, region.ExtrudeOptions{})
//	    return err
//	})
package telemetry
