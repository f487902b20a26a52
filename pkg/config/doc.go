// Package config loads kernel scenarios: the states and constraints to
// compute, the walls of a floor plan, the regions to extrude and split, and
// face groups to stitch.
//
// # Formats
//
// Scenarios are written in CUE, YAML or JSON. CUE sources (a file or a
// package directory) are unified with the built-in #Scenario definition, so
// field names and types are checked before decoding. YAML and JSON are
// decoded strictly and then checked against the same CUE schema. Either way
// Loader.Validate runs go-playground/validator struct checks and cross
// references (unique IDs, wall links per region point, known states in
// constraint chains).
//
//	loader := config.NewLoader()
//	s, err := loader.Load(ctx, "house.cue")
//	if err != nil {
//	    return err
//	}
//	states, err := s.BuildStates(ctx, loader.Evaluator())
//	constraints, err := s.BuildConstraints(states)
//	plan, err := s.BuildPlan()
//	regions, err := s.BuildRegions(plan)
//
// # A scenario in CUE
//
//	name: "studio"
//	states: [
//	    {id: "width", value: 4},
//	    {id: "half", script: "value = width / 2"},
//	    {id: "x"},
//	]
//	constraints: [{
//	    id: "c1"
//	    inputs: [{method: "add", states: ["half"]}, {method: "mul", states: ["half"]}]
//	    output: "x"
//	}]
//	walls: [{id: "w1", from: [0, 0], to: [4, 0]}]
//	regions: [{
//	    id:     "room"
//	    points: [[0, 0], [4, 0], [4, 3], [0, 3]]
//	    walls:  ["w1", "", "", ""]
//	}]
//
// # State scripts
//
// A state with a script takes the value its Starlark program assigns to
// "value". Earlier states are visible in a "states" dict and as globals.
// Scripts run without filesystem or network access, with print suppressed
// and a timeout (5 seconds by default). The math module, struct and a clamp
// builtin are predeclared.
//
// # Errors
//
// CUE problems are reported as ValidationError values with file and line.
// Everything else is an *engine.KernelError of class malformed, so callers
// can use engine.IsMalformed and engine.IsNotFound.
package config
