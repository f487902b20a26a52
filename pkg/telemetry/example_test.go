package telemetry_test

import (
	"context"
	"fmt"

	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/telemetry"
)

// Example_eventPublishing demonstrates synchronous event delivery.
func Example_eventPublishing() {
	cfg := telemetry.DefaultConfig()
	cfg.Metrics.Enabled = false

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("%s %s\n", event.Type, event.ResourceID)
	}, telemetry.FilterByType(telemetry.EventTypeRegionExtruded))

	_ = tel.Events.PublishRegionCreated("room", []string{"w1"})
	_ = tel.Events.PublishRegionExtruded("room", "plain", 6)

	// Output:
	// region.extruded room
}

// Example_trackOperation demonstrates error accounting around a kernel call.
func Example_trackOperation() {
	cfg := telemetry.DefaultConfig()
	cfg.Metrics.Enabled = false
	cfg.Logging.Level = "error"

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())
	ctx := tel.WithContext(context.Background())

	err = telemetry.TrackOperation(ctx, "region.extrude", "room", func(context.Context) error {
		return engine.NewDegenerateError("height range is empty", nil)
	})
	fmt.Println(engine.IsDegenerate(err))

	// Output:
	// true
}
