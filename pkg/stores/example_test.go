package stores_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/openfroyo/brepcore/pkg/stores"
)

// ExampleNewSQLiteStore demonstrates creating and initializing a new SQLite store.
func ExampleNewSQLiteStore() {
	dir, err := os.MkdirTemp("", "brepcore")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, err := stores.NewSQLiteStore(stores.Config{
		Path: filepath.Join(dir, "brepcore.db"),
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Store initialized successfully")
	// Output: Store initialized successfully
}

// ExampleSQLiteStore_SaveStates demonstrates recording state values for a scenario.
func ExampleSQLiteStore_SaveStates() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	sc := &stores.Scenario{Name: "studio", Document: `{"name":"studio"}`}
	if err := store.UpsertScenario(ctx, sc); err != nil {
		log.Fatal(err)
	}

	if err := store.SaveStates(ctx, sc.ID, map[string]float64{"width": 4, "x": 4}); err != nil {
		log.Fatal(err)
	}

	values, _ := store.GetStates(ctx, sc.ID)
	fmt.Printf("width=%.1f x=%.1f\n", values["width"], values["x"])
	// Output: width=4.0 x=4.0
}
