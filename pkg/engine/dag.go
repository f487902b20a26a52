package engine

import (
	"fmt"
	"slices"
	"strings"
)

// DAGBuilder builds a directed acyclic graph (DAG) from constraint nodes.
// A node depends on the node that writes each of its input states. It
// performs topological sorting and assigns evaluation levels.
type DAGBuilder struct {
	// nodes maps node IDs to their nodes
	nodes map[string]Node

	// order keeps node IDs in input order
	order []string

	// writers maps state IDs to the node writing them
	writers map[string]string

	// adjacencyList maps node IDs to their dependents
	adjacencyList map[string][]string

	// reverseAdjacencyList maps node IDs to their dependencies
	reverseAdjacencyList map[string][]string

	// edges lists every dependency with the state linking it
	edges []GraphEdge

	// inDegree tracks the number of incoming edges for each node
	inDegree map[string]int

	// levels maps evaluation level to node IDs at that level
	levels [][]string
}

// NewDAGBuilder creates a new DAG builder.
func NewDAGBuilder() *DAGBuilder {
	return &DAGBuilder{
		nodes:                make(map[string]Node),
		writers:              make(map[string]string),
		adjacencyList:        make(map[string][]string),
		reverseAdjacencyList: make(map[string][]string),
		inDegree:             make(map[string]int),
		levels:               make([][]string, 0),
	}
}

// BuildGraph constructs an execution graph from nodes.
// It validates state ownership, detects cycles, and computes levels.
func (b *DAGBuilder) BuildGraph(nodes []Node) (*ExecutionGraph, error) {
	if len(nodes) == 0 {
		return &ExecutionGraph{
			Nodes:  make(map[string]*GraphNode),
			Edges:  make([]GraphEdge, 0),
			Roots:  make([]string, 0),
			Levels: make([][]string, 0),
			Depth:  0,
		}, nil
	}

	// Initialize the builder with nodes
	if err := b.initialize(nodes); err != nil {
		return nil, err
	}

	// Detect circular dependencies
	if err := b.detectCycles(); err != nil {
		return nil, err
	}

	// Compute topological levels
	if err := b.computeLevels(); err != nil {
		return nil, err
	}

	return b.buildExecutionGraph(), nil
}

// initialize sets up the internal data structures from nodes.
func (b *DAGBuilder) initialize(nodes []Node) error {
	// First pass: index all nodes and the states they write
	for _, node := range nodes {
		id := node.NodeID()
		if id == "" {
			return NewMalformedError("constraint has empty ID", nil).
				WithCode(ErrCodeValidation)
		}

		if _, exists := b.nodes[id]; exists {
			return NewMalformedError(fmt.Sprintf("duplicate constraint ID: %s", id), nil).
				WithCode(ErrCodeValidation)
		}

		b.nodes[id] = node
		b.order = append(b.order, id)
		b.adjacencyList[id] = make([]string, 0)
		b.reverseAdjacencyList[id] = make([]string, 0)
		b.inDegree[id] = 0

		for _, stateID := range node.OutputIDs() {
			if owner, taken := b.writers[stateID]; taken && owner != id {
				return NewMalformedError(
					fmt.Sprintf("state %s is written by both %s and %s", stateID, owner, id),
					nil,
				).WithCode(ErrCodeValidation).WithResource(id)
			}
			b.writers[stateID] = id
		}
	}

	// Second pass: link readers to writers
	for _, id := range b.order {
		seen := make(map[string]bool)
		for _, stateID := range b.nodes[id].InputIDs() {
			writer, ok := b.writers[stateID]
			if !ok {
				// Free input: set by the document, not by a constraint.
				continue
			}
			b.edges = append(b.edges, GraphEdge{From: writer, To: id, State: stateID})
			if seen[writer] {
				continue
			}
			seen[writer] = true

			// Add edge from writer to reader
			// (writer must be evaluated before the reader)
			b.adjacencyList[writer] = append(b.adjacencyList[writer], id)
			b.reverseAdjacencyList[id] = append(b.reverseAdjacencyList[id], writer)
			b.inDegree[id]++
		}
	}

	return nil
}

// detectCycles uses depth-first search to detect circular dependencies.
func (b *DAGBuilder) detectCycles() error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make([]string, 0)

	for _, id := range b.order {
		if !visited[id] {
			if cycle, err := b.detectCyclesUtil(id, visited, recStack, path); err != nil {
				return NewMalformedError(
					fmt.Sprintf("circular dependency detected: %s", formatCycle(cycle)),
					err,
				).WithCode(ErrCodeCycle)
			}
		}
	}

	return nil
}

// detectCyclesUtil performs DFS to detect cycles in the dependency graph.
func (b *DAGBuilder) detectCyclesUtil(
	nodeID string,
	visited map[string]bool,
	recStack map[string]bool,
	path []string,
) ([]string, error) {
	visited[nodeID] = true
	recStack[nodeID] = true
	path = append(path, nodeID)

	for _, dependent := range b.adjacencyList[nodeID] {
		if !visited[dependent] {
			if cycle, err := b.detectCyclesUtil(dependent, visited, recStack, path); err != nil {
				return cycle, err
			}
		} else if recStack[dependent] {
			// Found a cycle - construct the cycle path
			cycleStart := slices.Index(path, dependent)
			if cycleStart >= 0 {
				return append(path[cycleStart:], dependent), fmt.Errorf("cycle detected")
			}
		}
	}

	recStack[nodeID] = false
	return nil, nil
}

// computeLevels assigns evaluation levels to each node using Kahn's
// algorithm. IDs within a level are sorted so evaluation order is stable.
func (b *DAGBuilder) computeLevels() error {
	inDegreeCopy := make(map[string]int, len(b.inDegree))
	for id, degree := range b.inDegree {
		inDegreeCopy[id] = degree
	}

	// Find all root nodes (nodes with no dependencies)
	currentLevel := make([]string, 0)
	for _, id := range b.order {
		if inDegreeCopy[id] == 0 {
			currentLevel = append(currentLevel, id)
		}
	}

	if len(currentLevel) == 0 {
		return NewMalformedError("no root nodes found - all constraints have dependencies", nil).
			WithCode(ErrCodeCycle)
	}

	processedCount := 0
	for len(currentLevel) > 0 {
		slices.Sort(currentLevel)
		b.levels = append(b.levels, currentLevel)
		processedCount += len(currentLevel)

		nextLevel := make([]string, 0)
		for _, nodeID := range currentLevel {
			for _, dependent := range b.adjacencyList[nodeID] {
				inDegreeCopy[dependent]--
				if inDegreeCopy[dependent] == 0 {
					nextLevel = append(nextLevel, dependent)
				}
			}
		}

		currentLevel = nextLevel
	}

	if processedCount != len(b.nodes) {
		return NewMalformedError("failed to process all constraints - possible cycle", nil).
			WithCode(ErrCodeInternal)
	}

	return nil
}

// buildExecutionGraph creates the final ExecutionGraph structure.
func (b *DAGBuilder) buildExecutionGraph() *ExecutionGraph {
	graph := &ExecutionGraph{
		Nodes:  make(map[string]*GraphNode),
		Edges:  append(make([]GraphEdge, 0, len(b.edges)), b.edges...),
		Roots:  make([]string, 0),
		Levels: b.levels,
		Depth:  len(b.levels),
	}

	for level, ids := range b.levels {
		for _, id := range ids {
			graph.Nodes[id] = &GraphNode{
				ID:           id,
				Level:        level,
				Dependencies: b.reverseAdjacencyList[id],
				Dependents:   b.adjacencyList[id],
			}
			if level == 0 {
				graph.Roots = append(graph.Roots, id)
			}
		}
	}

	return graph
}

// GetLevels returns the computed evaluation levels.
func (b *DAGBuilder) GetLevels() [][]string {
	return b.levels
}

// ToDOT generates a DOT format representation of the DAG for visualization.
// The output can be rendered with Graphviz tools.
func (b *DAGBuilder) ToDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph ConstraintGraph {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=rounded];\n\n")

	for level, ids := range b.levels {
		sb.WriteString(fmt.Sprintf("  subgraph cluster_level_%d {\n", level))
		sb.WriteString(fmt.Sprintf("    label=\"Level %d\";\n", level))
		sb.WriteString("    style=dashed;\n")

		for _, id := range ids {
			node := b.nodes[id]
			label := fmt.Sprintf("%s\\n%s -> %s", id,
				strings.Join(node.InputIDs(), ","), strings.Join(node.OutputIDs(), ","))
			sb.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\", fillcolor=\"%s\", style=\"filled,rounded\"];\n",
				id, label, levelColor(level)))
		}

		sb.WriteString("  }\n\n")
	}

	for _, edge := range b.edges {
		sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\"];\n",
			edge.From, edge.To, edge.State))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// formatCycle formats a cycle path for error messages.
func formatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(cycle, " -> ")
}

// levelColor returns a fill color for a graph level.
func levelColor(level int) string {
	switch level {
	case 0:
		return "lightgreen"
	case 1:
		return "lightblue"
	default:
		return "lightgray"
	}
}

// ValidateGraph performs additional validation on the built graph.
func (b *DAGBuilder) ValidateGraph(graph *ExecutionGraph) error {
	if len(graph.Nodes) != len(b.nodes) {
		return NewMalformedError("graph node count mismatch", nil).
			WithCode(ErrCodeInternal)
	}

	for _, edge := range graph.Edges {
		if _, exists := graph.Nodes[edge.From]; !exists {
			return NewMalformedError(fmt.Sprintf("edge references non-existent node: %s", edge.From), nil).
				WithCode(ErrCodeInternal)
		}
		if _, exists := graph.Nodes[edge.To]; !exists {
			return NewMalformedError(fmt.Sprintf("edge references non-existent node: %s", edge.To), nil).
				WithCode(ErrCodeInternal)
		}
	}

	for _, rootID := range graph.Roots {
		if len(graph.Nodes[rootID].Dependencies) > 0 {
			return NewMalformedError(fmt.Sprintf("root node %s has dependencies", rootID), nil).
				WithCode(ErrCodeInternal)
		}
	}

	return nil
}
