package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openfroyo/brepcore/pkg/constraint"
	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/region"
	"github.com/openfroyo/brepcore/pkg/telemetry"
)

// setupTestStore creates a migrated SQLite store in a temporary directory
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: filepath.Join(t.TempDir(), "brepcore.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}

// createScenario stores a scenario named name and returns its ID
func createScenario(t *testing.T, store *SQLiteStore, name string) string {
	t.Helper()

	sc := &Scenario{Name: name, Source: name + ".cue", Document: `{"name":"` + name + `"}`}
	if err := store.UpsertScenario(context.Background(), sc); err != nil {
		t.Fatalf("failed to upsert scenario: %v", err)
	}
	return sc.ID
}

func TestNewSQLiteStore(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Error("expected error for empty path")
	}

	store, err := NewSQLiteStore(Config{Path: ":memory:", MaxOpenConns: 10})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if store.cfg.MaxOpenConns != 1 {
		t.Errorf("expected in-memory store to use 1 connection, got %d", store.cfg.MaxOpenConns)
	}
}

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.HealthCheck(ctx); err == nil {
		t.Error("expected health check to fail before Init")
	}
	if err := store.Migrate(ctx); err == nil {
		t.Error("expected migrate to fail before Init")
	}

	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

// TestStoreMigrations tests database migrations
func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tables := []string{"scenarios", "states", "constraints", "region_reports", "runs", "events"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
		if err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}

	// Running migrations again is a no-op.
	if err := store.Migrate(ctx); err != nil {
		t.Errorf("second migrate failed: %v", err)
	}
}

func TestScenarioCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	sc := &Scenario{Name: "studio", Source: "studio.cue", Document: `{"name":"studio"}`}
	if err := store.UpsertScenario(ctx, sc); err != nil {
		t.Fatalf("failed to upsert scenario: %v", err)
	}
	if sc.ID == "" {
		t.Fatal("expected generated ID")
	}
	firstID := sc.ID

	retrieved, err := store.GetScenario(ctx, firstID)
	if err != nil {
		t.Fatalf("failed to get scenario: %v", err)
	}
	if retrieved.Name != "studio" || retrieved.Document != sc.Document {
		t.Errorf("unexpected scenario %+v", retrieved)
	}

	// Same name keeps the ID and replaces the document.
	again := &Scenario{Name: "studio", Source: "studio.yaml", Document: `{"name":"studio","v":2}`}
	if err := store.UpsertScenario(ctx, again); err != nil {
		t.Fatalf("failed to re-upsert scenario: %v", err)
	}
	if again.ID != firstID {
		t.Errorf("expected ID %s to be kept, got %s", firstID, again.ID)
	}
	byName, err := store.GetScenarioByName(ctx, "studio")
	if err != nil {
		t.Fatalf("failed to get scenario by name: %v", err)
	}
	if byName.Source != "studio.yaml" || byName.Document != again.Document {
		t.Errorf("expected updated document, got %+v", byName)
	}

	createScenario(t, store, "loft")
	list, err := store.ListScenarios(ctx, 10, 0)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 scenarios, got %d", len(list))
	}
	page, err := store.ListScenarios(ctx, 1, 1)
	if err != nil || len(page) != 1 {
		t.Errorf("expected page of 1, got %d (%v)", len(page), err)
	}

	if err := store.DeleteScenario(ctx, firstID); err != nil {
		t.Fatalf("failed to delete scenario: %v", err)
	}
	if _, err := store.GetScenario(ctx, firstID); !engine.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := store.DeleteScenario(ctx, firstID); !engine.IsNotFound(err) {
		t.Errorf("expected not found deleting twice, got %v", err)
	}
}

func TestStates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := createScenario(t, store, "studio")

	if err := store.SaveStates(ctx, id, map[string]float64{"width": 4, "x": 2}); err != nil {
		t.Fatalf("failed to save states: %v", err)
	}
	if err := store.SaveStates(ctx, id, map[string]float64{"x": 4}); err != nil {
		t.Fatalf("failed to update states: %v", err)
	}

	values, err := store.GetStates(ctx, id)
	if err != nil {
		t.Fatalf("failed to get states: %v", err)
	}
	if len(values) != 2 || values["width"] != 4 || values["x"] != 4 {
		t.Errorf("unexpected states %v", values)
	}

	// Unknown scenario violates the foreign key and nothing is written.
	if err := store.SaveStates(ctx, "missing", map[string]float64{"a": 1}); err == nil {
		t.Error("expected foreign key error")
	}
	values, _ = store.GetStates(ctx, "missing")
	if len(values) != 0 {
		t.Errorf("expected no states for missing scenario, got %v", values)
	}
}

func TestConstraints(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := createScenario(t, store, "studio")

	data := constraint.Data{
		ID:      "c1",
		Class:   constraint.ClassPositionConstraint,
		Inputs:  []string{"half"},
		Outputs: []string{"x"},
		ComputeChain: []constraint.ChainData{
			{Method: constraint.MethodAdd, States: []string{"half"}},
			{Method: constraint.MethodMul, States: []string{"half"}},
		},
	}
	rec := &ConstraintRecord{ScenarioID: id, Status: engine.ConstraintStatusStale, Data: data}
	if err := store.SaveConstraint(ctx, rec); err != nil {
		t.Fatalf("failed to save constraint: %v", err)
	}
	if rec.ID != "c1" || rec.Class != constraint.ClassPositionConstraint {
		t.Errorf("expected ID and class from data, got %s %s", rec.ID, rec.Class)
	}

	rec.Status = engine.ConstraintStatusComputed
	if err := store.SaveConstraint(ctx, rec); err != nil {
		t.Fatalf("failed to update constraint: %v", err)
	}

	list, err := store.ListConstraints(ctx, id)
	if err != nil {
		t.Fatalf("failed to list constraints: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(list))
	}
	got := list[0]
	if got.Status != engine.ConstraintStatusComputed {
		t.Errorf("expected status computed, got %s", got.Status)
	}
	if len(got.Data.ComputeChain) != 2 || got.Data.ComputeChain[1].Method != constraint.MethodMul {
		t.Errorf("unexpected compute chain %+v", got.Data.ComputeChain)
	}
}

func TestRegionReports(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := createScenario(t, store, "studio")

	rep := region.Report{
		ID:                "room",
		TargetWallID:      "w1",
		TargetWallPresent: true,
		LinkWallIDs:       []string{"w1", "w2"},
		CoEdgeCount:       4,
		Valid:             true,
		Area:              12,
		Status:            engine.ExtrusionStatusFixed,
		MaxHeight:         2.8,
		Faces:             7,
		OutlineWires:      1,
		OutlineClosed:     true,
	}
	if err := store.SaveRegionReport(ctx, &RegionRecord{ScenarioID: id, Allowed: true, Report: rep}); err != nil {
		t.Fatalf("failed to save region report: %v", err)
	}

	got, err := store.GetRegionReport(ctx, id, "room")
	if err != nil {
		t.Fatalf("failed to get region report: %v", err)
	}
	if got.Status != engine.ExtrusionStatusFixed || !got.Allowed {
		t.Errorf("unexpected record %+v", got)
	}
	if got.Report.Area != 12 || len(got.Report.LinkWallIDs) != 2 || !got.Report.OutlineClosed {
		t.Errorf("report did not round trip: %+v", got.Report)
	}

	rep.TargetWallPresent = false
	if err := store.SaveRegionReport(ctx, &RegionRecord{ScenarioID: id, Allowed: false, Violations: 1, Report: rep}); err != nil {
		t.Fatalf("failed to update region report: %v", err)
	}
	list, err := store.ListRegionReports(ctx, id)
	if err != nil {
		t.Fatalf("failed to list region reports: %v", err)
	}
	if len(list) != 1 || list[0].Allowed || list[0].Violations != 1 {
		t.Errorf("expected one blocked region, got %+v", list)
	}

	if _, err := store.GetRegionReport(ctx, id, "missing"); !engine.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := createScenario(t, store, "studio")

	start := time.Now().Add(-time.Minute)
	first := &Run{ScenarioID: id, Changed: []string{"width"}, Evaluated: []string{"c1"}, Duration: 1500 * time.Millisecond, StartedAt: start}
	if err := store.CreateRun(ctx, first); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	errMsg := "division chain failed"
	second := &Run{ScenarioID: id, Error: &errMsg}
	if err := store.CreateRun(ctx, second); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	runs, err := store.ListRuns(ctx, id, 10, 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID || runs[0].Error == nil || *runs[0].Error != errMsg {
		t.Errorf("expected newest failed run first, got %+v", runs[0])
	}
	if len(runs[0].Changed) != 0 || runs[0].Changed == nil {
		t.Errorf("expected empty changed list, got %v", runs[0].Changed)
	}
	if runs[1].Duration != 1500*time.Millisecond || runs[1].Evaluated[0] != "c1" {
		t.Errorf("unexpected first run %+v", runs[1])
	}
}

func TestEvents(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := createScenario(t, store, "studio")

	old := time.Now().Add(-48 * time.Hour)
	events := []*Event{
		{EventID: "e1", ScenarioID: &id, Type: telemetry.EventTypeRegionCreated, Source: "region", Level: telemetry.EventLevelInfo, Message: "created", Timestamp: old},
		{EventID: "e2", ScenarioID: &id, Type: telemetry.EventTypeRegionExtruded, Source: "region", Level: telemetry.EventLevelError, Message: "failed"},
		{EventID: "e3", Type: telemetry.EventTypeError, Source: "cli", Level: telemetry.EventLevelError, Message: "no scenario"},
	}
	for _, e := range events {
		if err := store.AppendEvent(ctx, e); err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
		if e.ID == 0 {
			t.Error("expected generated event ID")
		}
	}

	all, err := store.GetEvents(ctx, EventQuery{})
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 events, got %d", len(all))
	}

	scoped, _ := store.GetEvents(ctx, EventQuery{ScenarioID: &id})
	if len(scoped) != 2 {
		t.Errorf("expected 2 scenario events, got %d", len(scoped))
	}

	level := telemetry.EventLevelError
	errorsOnly, _ := store.GetEvents(ctx, EventQuery{ScenarioID: &id, Level: &level})
	if len(errorsOnly) != 1 || errorsOnly[0].EventID != "e2" {
		t.Errorf("expected only e2, got %+v", errorsOnly)
	}

	typ := telemetry.EventTypeRegionCreated
	byType, _ := store.GetEvents(ctx, EventQuery{Type: &typ, Limit: 1})
	if len(byType) != 1 || byType[0].EventID != "e1" {
		t.Errorf("expected only e1, got %+v", byType)
	}

	pruned, err := store.DeleteEventsBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("failed to prune events: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected 1 pruned event, got %d", pruned)
	}
}

func TestDeleteScenarioCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := createScenario(t, store, "studio")

	if err := store.SaveStates(ctx, id, map[string]float64{"x": 1}); err != nil {
		t.Fatalf("failed to save states: %v", err)
	}
	if err := store.CreateRun(ctx, &Run{ScenarioID: id}); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if err := store.DeleteScenario(ctx, id); err != nil {
		t.Fatalf("failed to delete scenario: %v", err)
	}

	values, _ := store.GetStates(ctx, id)
	runs, _ := store.ListRuns(ctx, id, 10, 0)
	if len(values) != 0 || len(runs) != 0 {
		t.Errorf("expected cascade delete, got %d states and %d runs", len(values), len(runs))
	}
}

func TestSubscriber(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := createScenario(t, store, "studio")

	pub, err := telemetry.NewEventPublisher(telemetry.EventsConfig{Enabled: true})
	if err != nil {
		t.Fatalf("failed to create publisher: %v", err)
	}
	pub.Subscribe(store.Subscriber(ctx, id, zerolog.Nop()), nil)

	if err := pub.PublishRegionExtruded("room", string(engine.ExtrusionStatusFixed), 7); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}
	if err := pub.PublishPolicyViolation("room", "target_wall_present", "wall w1 was removed"); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	events, err := store.GetEvents(ctx, EventQuery{ScenarioID: &id})
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 persisted events, got %d", len(events))
	}
	for _, e := range events {
		if e.ResourceID == nil || *e.ResourceID != "room" {
			t.Errorf("expected resource room, got %v", e.ResourceID)
		}
		if e.Data == nil || e.EventID == "" {
			t.Errorf("expected data and event ID on %+v", e)
		}
	}
}

func TestEventFromTelemetry(t *testing.T) {
	stored, err := EventFromTelemetry("", telemetry.Event{ID: "x", Type: telemetry.EventTypeError, Level: telemetry.EventLevelError})
	if err != nil {
		t.Fatalf("failed to convert event: %v", err)
	}
	if stored.ScenarioID != nil || stored.ResourceID != nil || stored.Data != nil {
		t.Errorf("expected empty optional fields, got %+v", stored)
	}
}
