package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openfroyo/brepcore/pkg/config"
	"github.com/openfroyo/brepcore/pkg/stores"
	"github.com/openfroyo/brepcore/pkg/telemetry"
)

const defaultStorePath = "brepcore.db"

// session is what every scenario command starts from.
type session struct {
	path     string
	scenario *config.Scenario
	loader   *config.Loader
	tel      *telemetry.Telemetry
	klog     *telemetry.Logger
	logger   zerolog.Logger
}

// loadScenario loads and validates the scenario at path.
func loadScenario(ctx context.Context, path string) (*session, error) {
	tel := telemetry.FromTelemetryContext(ctx)
	if tel == nil {
		return nil, fmt.Errorf("telemetry not initialized")
	}

	loader := config.NewLoader()
	sc, err := loader.Load(ctx, path)
	if err != nil {
		tel.RecordError(err)
		return nil, fmt.Errorf("failed to load scenario %s: %w", path, err)
	}

	if lvl := sc.Settings.LogLevel; lvl != "" && !verbose {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			zerolog.SetGlobalLevel(parsed)
		}
	}

	klog := tel.Logger.WithScenario(sc.Name)
	logger := klog.Zerolog()
	logger.Debug().Str("path", path).Msg("Scenario loaded")

	return &session{
		path:     path,
		scenario: sc,
		loader:   loader,
		tel:      tel,
		klog:     klog,
		logger:   logger,
	}, nil
}

// resolveStorePath picks the --store flag, then the scenario setting, then
// the default.
func resolveStorePath(sc *config.Scenario) string {
	if storePath != "" {
		return storePath
	}
	if sc != nil && sc.Settings.StorePath != "" {
		return sc.Settings.StorePath
	}
	return defaultStorePath
}

// openStore opens and migrates the SQLite store.
func openStore(ctx context.Context, path string) (*stores.SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	st, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Msg("Store opened")
	return st, nil
}

// persistScenario opens the store, records the scenario document and
// subscribes the store to kernel events. The caller closes the store.
func (s *session) persistScenario(ctx context.Context) (*stores.SQLiteStore, string, error) {
	st, err := openStore(ctx, resolveStorePath(s.scenario))
	if err != nil {
		return nil, "", err
	}

	doc, err := config.NewCUEParser().ExportJSON(s.scenario)
	if err != nil {
		_ = st.Close()
		return nil, "", fmt.Errorf("failed to export scenario: %w", err)
	}

	rec := &stores.Scenario{Name: s.scenario.Name, Source: s.path, Document: string(doc)}
	if err := st.UpsertScenario(ctx, rec); err != nil {
		_ = st.Close()
		return nil, "", err
	}

	s.tel.Events.Subscribe(st.Subscriber(ctx, rec.ID, s.klog.Component("store").Zerolog()), nil)
	return st, rec.ID, nil
}

// regionLogger scopes kernel logging to one region of the scenario.
func (s *session) regionLogger(regionID string) zerolog.Logger {
	return s.klog.WithRegionID(regionID).Component("region").Zerolog()
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
