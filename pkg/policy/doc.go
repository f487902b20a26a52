// Package policy checks kernel results against Open Policy Agent (OPA)
// policies written in Rego.
//
// # Architecture
//
// The policy system consists of three parts:
//
//  1. Engine - Compiles Rego modules once and evaluates their "deny" set
//  2. Loader - Loads .rego files, JSON policies and bundles, and watches them
//  3. Built-in Policies - Checks for regions and constraints
//
// # Usage
//
//	eng, err := policy.NewEngine(logger)
//	if err != nil {
//	    return err
//	}
//
//	result, err := eng.EvaluateRegion(ctx, r.Report(), &policy.PolicyContext{Operation: "extrude"})
//	if err != nil {
//	    return err
//	}
//	if !result.Allowed {
//	    for _, v := range result.Violations {
//	        fmt.Printf("%s: %s\n", v.Rule, v.Message)
//	    }
//	}
//
// The Rego input is a PolicyInput document: "region" holds a region.Report
// (snake_case fields such as target_wall_present and outline_closed) and
// "constraint" holds a persisted constraint.Data.
//
// # Built-in Policies
//
//  1. region-link - The target wall must still be in the plan
//  2. region-geometry - No zero-length or very short boundary segments, non-zero area
//  3. region-extrusion - Closed outline, no failed or unclassified extrusions
//  4. constraint-chain - No constraint writes its own input
//
// # Custom Policies
//
// A custom policy is any module defining a deny set. Entries are either a
// message string or an object:
//
//	package custom.height
//
//	import rego.v1
//
//	deny contains violation if {
//	    input.region.max_height > 4
//	    violation := {
//	        "rule": "max_height",
//	        "message": "regions must not be taller than 4m",
//	        "severity": "error",
//	    }
//	}
//
// Object entries may carry "rule", "severity" and "resource" to override the
// defaults (policy name, policy severity, input ID). Other keys end up in
// PolicyViolation.Details.
//
// # Severity Levels
//
// Errors and criticals block: PolicyResult.Allowed is false and they are
// listed in Violations. Info and warning findings go to Warnings.
//
// # Hot Reload
//
// Engine.Watch loads a set of paths and recompiles them when files change.
package policy
