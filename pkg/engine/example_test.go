package engine_test

import (
	"context"
	"fmt"
	"log"

	"github.com/openfroyo/brepcore/pkg/engine"
)

// doubler writes twice its input state to its output state.
type doubler struct {
	id     string
	in     string
	out    string
	states map[string]float64
	status engine.ConstraintStatus
}

func (d *doubler) NodeID() string                  { return d.id }
func (d *doubler) InputIDs() []string              { return []string{d.in} }
func (d *doubler) OutputIDs() []string             { return []string{d.out} }
func (d *doubler) MarkStale()                      { d.status = engine.ConstraintStatusStale }
func (d *doubler) Status() engine.ConstraintStatus { return d.status }

func (d *doubler) Compute() error {
	d.states[d.out] = 2 * d.states[d.in]
	d.status = engine.ConstraintStatusComputed
	return nil
}

// Example_dagExecution builds the dependency graph of a small chain.
func Example_dagExecution() {
	nodes := []engine.Node{
		&doubler{id: "depth", in: "width", out: "depth"},
		&doubler{id: "height", in: "depth", out: "height"},
		&doubler{id: "offset", in: "width", out: "offset"},
	}

	builder := engine.NewDAGBuilder()
	graph, err := builder.BuildGraph(nodes)
	if err != nil {
		log.Fatalf("Failed to build DAG: %v", err)
	}

	fmt.Printf("Execution graph depth: %d levels\n", graph.Depth)
	fmt.Printf("Root nodes: %v\n", graph.Roots)
	for level, ids := range builder.GetLevels() {
		fmt.Printf("Level %d: %v\n", level, ids)
	}

	// Output:
	// Execution graph depth: 2 levels
	// Root nodes: [depth offset]
	// Level 0: [depth offset]
	// Level 1: [height]
}

// Example_propagation recomputes only what depends on a changed state.
func Example_propagation() {
	states := map[string]float64{"width": 1}
	p, err := engine.NewPropagator([]engine.Computable{
		&doubler{id: "depth", in: "width", out: "depth", states: states},
		&doubler{id: "height", in: "depth", out: "height", states: states},
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if _, err := p.Run(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("height=%.0f\n", states["height"])

	states["depth"] = 5
	evaluated, _ := p.Propagate(ctx, "depth")
	fmt.Printf("evaluated=%v height=%.0f\n", evaluated, states["height"])

	// Output:
	// height=4
	// evaluated=[height] height=10
}

// Example_errorHandling demonstrates error classification.
func Example_errorHandling() {
	missing := engine.NotFound("state", "width").WithOperation("resolve")
	degenerate := engine.NewDegenerateError("zero-length segment", nil).
		WithResource("wall-1").
		WithDetail("length", 0.0)

	fmt.Println(engine.IsNotFound(missing), engine.ClassOf(missing))
	fmt.Println(engine.IsDegenerate(degenerate), degenerate.Code)

	// Output:
	// true malformed
	// true DEGENERATE_GEOMETRY
}
