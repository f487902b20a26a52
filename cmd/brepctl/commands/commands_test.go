package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/openfroyo/brepcore/pkg/stores"
)

const testScenario = `
name: studio
states:
  - id: a
    value: 1
  - id: b
    value: 2
  - id: out
constraints:
  - id: c1
    inputs:
      - method: add
        states: [a, b]
    output: [out]
walls:
  - id: w1
    from: [0, 0]
    to: [4, 0]
regions:
  - id: room
    points: [[0, 0], [4, 0], [4, 3], [0, 3]]
    walls: [w1, "", "", ""]
face_groups:
  - id: floor
    faces:
      - [[0, 0, 0], [1, 0, 0], [1, 1, 0], [0, 1, 0]]
      - [[1, 0, 0], [2, 0, 0], [2, 1, 0], [1, 1, 0]]
`

// run executes brepctl with args against a fresh store.
func run(t *testing.T, args ...string) error {
	t.Helper()
	storePath, verbose, jsonOutput = "", false, false
	traceExporter, otlpEndpoint, metricsAddr = "none", "", ""

	root := newRootCommand("test", "none", "today")
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func writeScenario(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "studio.yaml")
	if err := os.WriteFile(path, []byte(testScenario), 0o644); err != nil {
		t.Fatalf("Failed to write scenario: %v", err)
	}
	return path, filepath.Join(dir, "store", "brepcore.db")
}

func TestParseAssignments(t *testing.T) {
	values, order, err := parseAssignments([]string{"a=1.5", " b = -2 ", "a=3"})
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if values["a"] != 3 || values["b"] != -2 {
		t.Errorf("Unexpected values %v", values)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("Expected first-seen order [a b], got %v", order)
	}

	for _, bad := range []string{"a", "=1", "a=x"} {
		if _, _, err := parseAssignments([]string{bad}); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestResolveStorePath(t *testing.T) {
	storePath = ""
	if got := resolveStorePath(nil); got != defaultStorePath {
		t.Errorf("Expected default store path, got %s", got)
	}
	storePath = "flag.db"
	defer func() { storePath = "" }()
	if got := resolveStorePath(nil); got != "flag.db" {
		t.Errorf("Expected flag store path, got %s", got)
	}
}

func TestValidateCommand(t *testing.T) {
	path, _ := writeScenario(t)
	if err := run(t, "validate", path); err != nil {
		t.Fatalf("Expected valid scenario, got %v", err)
	}
	if err := run(t, "validate", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing scenario")
	}
}

func TestComputePersist(t *testing.T) {
	path, db := writeScenario(t)

	if err := run(t, "compute", path, "--persist", "--store", db, "--set", "a=5", "--parallel", "2"); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if err := run(t, "compute", path, "--set", "missing=1"); err == nil {
		t.Error("Expected error overriding an unknown state")
	}

	ctx := context.Background()
	st, err := stores.NewSQLiteStore(stores.Config{Path: db})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := st.Init(ctx); err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	sc, err := st.GetScenarioByName(ctx, "studio")
	if err != nil {
		t.Fatalf("Expected stored scenario, got %v", err)
	}
	values, err := st.GetStates(ctx, sc.ID)
	if err != nil {
		t.Fatalf("Failed to get states: %v", err)
	}
	if values["out"] != 7 {
		t.Errorf("Expected out=7 after propagating a=5, got %v", values)
	}
	runs, err := st.ListRuns(ctx, sc.ID, 10, 0)
	if err != nil || len(runs) != 1 || len(runs[0].Changed) != 1 {
		t.Errorf("Expected one run changing a, got %+v (%v)", runs, err)
	}
	events, err := st.GetEvents(ctx, stores.EventQuery{ScenarioID: &sc.ID})
	if err != nil || len(events) == 0 {
		t.Errorf("Expected persisted compute events, got %d (%v)", len(events), err)
	}
}

func TestRegionAndStoreCommands(t *testing.T) {
	path, db := writeScenario(t)

	if err := run(t, "region", path, "--persist", "--store", db); err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	if err := run(t, "region", path, "--only", "nope"); err == nil {
		t.Error("Expected error for unknown region")
	}
	if err := run(t, "store", "regions", "studio", "--store", db); err != nil {
		t.Errorf("store regions failed: %v", err)
	}
	if err := run(t, "store", "events", "--scenario", "studio", "--store", db, "--json"); err != nil {
		t.Errorf("store events failed: %v", err)
	}
	if err := run(t, "store", "delete", "studio", "--store", db); err != nil {
		t.Errorf("store delete failed: %v", err)
	}
	if err := run(t, "store", "states", "studio", "--store", db); err == nil {
		t.Error("Expected error for deleted scenario")
	}
}

func TestStitchCommand(t *testing.T) {
	path, _ := writeScenario(t)
	if err := run(t, "stitch", path, "--json"); err != nil {
		t.Fatalf("Stitch failed: %v", err)
	}
}
