package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ComputeObserver is notified after each node evaluation.
type ComputeObserver func(nodeID string, duration time.Duration, err error)

// PropagatorOption configures a Propagator.
type PropagatorOption func(*Propagator)

// WithPropagatorLogger sets the propagator logger.
func WithPropagatorLogger(logger zerolog.Logger) PropagatorOption {
	return func(p *Propagator) {
		p.logger = logger
	}
}

// WithComputeObserver registers a callback run after every evaluation.
func WithComputeObserver(fn ComputeObserver) PropagatorOption {
	return func(p *Propagator) {
		p.observer = fn
	}
}

// WithParallelism evaluates up to n independent constraints of a level at
// once. The observer must then be safe for concurrent use.
func WithParallelism(n int) PropagatorOption {
	return func(p *Propagator) {
		p.parallelism = n
	}
}

// Propagator re-evaluates constraints in dependency order when states
// change. It is not safe for concurrent use; callers serialize updates.
type Propagator struct {
	nodes       map[string]Computable
	graph       *ExecutionGraph
	readers     map[string][]string
	builder     *DAGBuilder
	scheduler   *ParallelScheduler
	logger      zerolog.Logger
	observer    ComputeObserver
	parallelism int
}

// NewPropagator builds the dependency graph over nodes.
func NewPropagator(nodes []Computable, opts ...PropagatorOption) (*Propagator, error) {
	p := &Propagator{
		nodes:   make(map[string]Computable, len(nodes)),
		readers: make(map[string][]string),
		builder: NewDAGBuilder(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.scheduler = NewParallelScheduler(p.parallelism, p.observer)

	asNodes := make([]Node, len(nodes))
	for i, n := range nodes {
		asNodes[i] = n
		p.nodes[n.NodeID()] = n
	}

	graph, err := p.builder.BuildGraph(asNodes)
	if err != nil {
		return nil, err
	}
	if err := p.builder.ValidateGraph(graph); err != nil {
		return nil, err
	}
	p.graph = graph

	for _, n := range nodes {
		for _, stateID := range n.InputIDs() {
			p.readers[stateID] = append(p.readers[stateID], n.NodeID())
		}
	}
	return p, nil
}

// Graph returns the dependency graph.
func (p *Propagator) Graph() *ExecutionGraph {
	return p.graph
}

// DOT renders the dependency graph in Graphviz format.
func (p *Propagator) DOT() string {
	return p.builder.ToDOT()
}

// Run evaluates every node level by level and returns the evaluated IDs in
// order.
func (p *Propagator) Run(ctx context.Context) ([]string, error) {
	for _, n := range p.nodes {
		n.MarkStale()
	}
	return p.evaluateStale(ctx)
}

// Propagate marks the readers of the changed states, and everything
// downstream of them, stale and re-evaluates them.
func (p *Propagator) Propagate(ctx context.Context, changedStates ...string) ([]string, error) {
	queue := make([]string, 0)
	for _, stateID := range changedStates {
		queue = append(queue, p.readers[stateID]...)
	}
	marked := make(map[string]bool)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if marked[id] {
			continue
		}
		marked[id] = true
		p.nodes[id].MarkStale()
		queue = append(queue, p.graph.Nodes[id].Dependents...)
	}
	return p.evaluateStale(ctx)
}

func (p *Propagator) evaluateStale(ctx context.Context) ([]string, error) {
	evaluated := make([]string, 0)
	for level, ids := range p.graph.Levels {
		if err := ctx.Err(); err != nil {
			return evaluated, err
		}
		computed, err := p.scheduler.RunLevel(ctx, p.nodes, ids)
		for _, id := range computed {
			p.logger.Debug().
				Str("constraint_id", id).
				Int("level", level).
				Msg("Constraint computed")
		}
		evaluated = append(evaluated, computed...)
		if err != nil {
			return evaluated, err
		}
	}
	return evaluated, nil
}
