package engine

import (
	"errors"
	"strings"
	"testing"
)

type testNode struct {
	id      string
	inputs  []string
	outputs []string
}

func (n *testNode) NodeID() string      { return n.id }
func (n *testNode) InputIDs() []string  { return n.inputs }
func (n *testNode) OutputIDs() []string { return n.outputs }

func node(id string, inputs, outputs []string) Node {
	return &testNode{id: id, inputs: inputs, outputs: outputs}
}

func TestDAGBuilder_BuildGraph_Empty(t *testing.T) {
	graph, err := NewDAGBuilder().BuildGraph(nil)
	if err != nil {
		t.Fatalf("Expected no error for empty nodes, got: %v", err)
	}

	if len(graph.Nodes) != 0 {
		t.Errorf("Expected 0 nodes, got %d", len(graph.Nodes))
	}

	if graph.Depth != 0 {
		t.Errorf("Expected depth 0, got %d", graph.Depth)
	}
}

func TestDAGBuilder_BuildGraph_Chain(t *testing.T) {
	nodes := []Node{
		node("total", []string{"length", "offset"}, []string{"total"}),
		node("length", []string{"a", "b"}, []string{"length"}),
		node("clamp", []string{"total"}, []string{"clamped"}),
	}

	builder := NewDAGBuilder()
	graph, err := builder.BuildGraph(nodes)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if graph.Depth != 3 {
		t.Errorf("Expected depth 3, got %d", graph.Depth)
	}

	want := []string{"length", "total", "clamp"}
	for level, id := range want {
		if got := graph.Nodes[id].Level; got != level {
			t.Errorf("Expected %s at level %d, got %d", id, level, got)
		}
	}

	if len(graph.Roots) != 1 || graph.Roots[0] != "length" {
		t.Errorf("Expected root [length], got %v", graph.Roots)
	}

	if len(graph.Edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(graph.Edges))
	}
	if graph.Edges[0].State != "length" {
		t.Errorf("Expected first edge via state length, got %s", graph.Edges[0].State)
	}

	if err := builder.ValidateGraph(graph); err != nil {
		t.Errorf("Expected valid graph, got: %v", err)
	}
}

func TestDAGBuilder_BuildGraph_LevelsAreSorted(t *testing.T) {
	nodes := []Node{
		node("zeta", []string{"x"}, []string{"z"}),
		node("alpha", []string{"x"}, []string{"a"}),
		node("mid", []string{"y"}, []string{"m"}),
	}

	graph, err := NewDAGBuilder().BuildGraph(nodes)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got := strings.Join(graph.Levels[0], ",")
	if got != "alpha,mid,zeta" {
		t.Errorf("Expected sorted level, got %s", got)
	}
}

func TestDAGBuilder_BuildGraph_Cycle(t *testing.T) {
	nodes := []Node{
		node("a", []string{"sb"}, []string{"sa"}),
		node("b", []string{"sa"}, []string{"sb"}),
	}

	_, err := NewDAGBuilder().BuildGraph(nodes)
	if err == nil {
		t.Fatal("Expected cycle error")
	}

	if !errors.Is(err, &KernelError{Class: ErrorClassMalformed, Code: ErrCodeCycle}) {
		t.Errorf("Expected cycle error, got: %v", err)
	}

	if !strings.Contains(err.Error(), "->") {
		t.Errorf("Expected cycle path in message, got: %v", err)
	}
}

func TestDAGBuilder_BuildGraph_SelfLoop(t *testing.T) {
	_, err := NewDAGBuilder().BuildGraph([]Node{node("a", []string{"s"}, []string{"s"})})
	if !IsMalformed(err) {
		t.Fatalf("Expected malformed error, got: %v", err)
	}
}

func TestDAGBuilder_BuildGraph_Validation(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
	}{
		{
			name:  "empty id",
			nodes: []Node{node("", nil, []string{"x"})},
		},
		{
			name: "duplicate id",
			nodes: []Node{
				node("a", nil, []string{"x"}),
				node("a", nil, []string{"y"}),
			},
		},
		{
			name: "two writers",
			nodes: []Node{
				node("a", nil, []string{"x"}),
				node("b", nil, []string{"x"}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDAGBuilder().BuildGraph(tt.nodes)
			if err == nil {
				t.Fatal("Expected error")
			}

			var ke *KernelError
			if !errors.As(err, &ke) || ke.Code != ErrCodeValidation {
				t.Errorf("Expected validation error, got: %v", err)
			}
		})
	}
}

func TestDAGBuilder_ToDOT(t *testing.T) {
	builder := NewDAGBuilder()
	_, err := builder.BuildGraph([]Node{
		node("length", []string{"a"}, []string{"length"}),
		node("total", []string{"length"}, []string{"total"}),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	dot := builder.ToDOT()
	for _, want := range []string{"digraph ConstraintGraph", "cluster_level_1", `"length" -> "total"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("Expected DOT output to contain %q", want)
		}
	}
}
