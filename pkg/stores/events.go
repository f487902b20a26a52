package stores

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/openfroyo/brepcore/pkg/telemetry"
)

// EventFromTelemetry converts a published kernel event to its stored form.
func EventFromTelemetry(scenarioID string, ev telemetry.Event) (*Event, error) {
	stored := &Event{
		EventID:   ev.ID,
		Type:      ev.Type,
		Source:    ev.Source,
		Level:     ev.Level,
		Message:   ev.Message,
		Timestamp: ev.Timestamp,
	}
	if scenarioID != "" {
		stored.ScenarioID = &scenarioID
	}
	if ev.ResourceID != "" {
		rid := ev.ResourceID
		stored.ResourceID = &rid
	}
	if len(ev.Data) > 0 {
		data, err := json.Marshal(ev.Data)
		if err != nil {
			return nil, err
		}
		s := string(data)
		stored.Data = &s
	}
	return stored, nil
}

// Subscriber returns an event subscriber that appends every event it
// receives to the store under scenarioID. Write failures are logged, the
// publisher never sees them.
func (s *SQLiteStore) Subscriber(ctx context.Context, scenarioID string, logger zerolog.Logger) telemetry.EventSubscriber {
	logger = logger.With().Str("component", "event-store").Str("scenario", scenarioID).Logger()

	return func(ev telemetry.Event) {
		stored, err := EventFromTelemetry(scenarioID, ev)
		if err != nil {
			logger.Error().Err(err).Str("event", ev.ID).Msg("Failed to encode event")
			return
		}
		if err := s.AppendEvent(ctx, stored); err != nil {
			logger.Error().Err(err).Str("event", ev.ID).Str("type", ev.Type).Msg("Failed to persist event")
		}
	}
}
