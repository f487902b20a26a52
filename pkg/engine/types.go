package engine

// Node is a vertex of the propagation graph. A node depends on every node
// that writes one of its input states.
type Node interface {
	// NodeID returns the unique ID of the node.
	NodeID() string

	// InputIDs returns the IDs of the states the node reads.
	InputIDs() []string

	// OutputIDs returns the IDs of the states the node writes.
	OutputIDs() []string
}

// Computable is a node the propagator can evaluate.
type Computable interface {
	Node

	// Compute re-evaluates the node and writes its outputs.
	Compute() error

	// MarkStale flags the node as needing a recompute.
	MarkStale()

	// Status returns the current evaluation status.
	Status() ConstraintStatus
}

// ExecutionGraph represents the DAG of constraints.
type ExecutionGraph struct {
	// Nodes maps node IDs to their graph nodes.
	Nodes map[string]*GraphNode `json:"nodes"`

	// Edges lists all dependency edges in the graph.
	Edges []GraphEdge `json:"edges"`

	// Roots are the node IDs with no dependencies.
	Roots []string `json:"roots"`

	// Levels groups node IDs by topological level, sorted within a level.
	Levels [][]string `json:"levels"`

	// Depth is the maximum depth of the graph.
	Depth int `json:"depth"`
}

// GraphNode represents a node in the execution graph.
type GraphNode struct {
	// ID is the node ID.
	ID string `json:"id"`

	// Level is the topological level (depth from roots).
	Level int `json:"level"`

	// Dependencies are the incoming edges (nodes this depends on).
	Dependencies []string `json:"dependencies"`

	// Dependents are the outgoing edges (nodes that depend on this).
	Dependents []string `json:"dependents"`
}

// GraphEdge represents an edge in the execution graph.
type GraphEdge struct {
	// From is the node writing the state.
	From string `json:"from"`

	// To is the node reading the state.
	To string `json:"to"`

	// State is the state ID that links the two nodes.
	State string `json:"state"`
}
