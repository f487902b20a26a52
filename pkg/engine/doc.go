// Package engine provides the shared kernel plumbing: classified errors,
// evaluation status values and the constraint propagation graph.
//
// # Errors
//
// Every kernel failure that stems from an invariant violation is returned as
// a *KernelError:
//
//   - ErrorClassMalformed: an ID that does not resolve, a wall-ID list that
//     does not match its co-edge path, an unknown compute method
//   - ErrorClassDegenerate: geometry that cannot produce a body, such as a
//     region with a zero-length segment or an empty height range
//
// Absence of applicable data is not an error: empty slices and nil results
// are returned instead. Use errors.Is with a template error, or the
// IsMalformed/IsDegenerate/IsNotFound helpers:
//
//	if engine.IsNotFound(err) {
//	    // unknown state or co-edge
//	}
//
// # Propagation
//
// Constraints read and write named states. DAGBuilder links each constraint
// to the constraints writing its inputs, rejects cycles and states with two
// writers, and groups constraints into levels with Kahn's algorithm:
//
//	p, err := engine.NewPropagator(nodes)
//	if err != nil {
//	    return err
//	}
//	computed, err := p.Propagate(ctx, "wall-1.height")
//
// Propagate only re-evaluates constraints downstream of the changed states.
// Constraints of one level never share a state, so WithParallelism lets a
// ParallelScheduler evaluate them on a bounded worker pool. The graph
// renders to Graphviz with DOT.
package engine
