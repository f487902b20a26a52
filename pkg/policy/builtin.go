package policy

import (
	"time"
)

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		regionLinkPolicy(),
		regionGeometryPolicy(),
		regionExtrusionPolicy(),
		constraintChainPolicy(),
	}
}

// regionLinkPolicy checks the wall links of a region.
func regionLinkPolicy() Policy {
	return Policy{
		Name:        "region-link",
		Description: "Regions must be linked to a wall that is still in the plan",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"region", "walls"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package brepcore.policies.region_link

import rego.v1

deny contains violation if {
	r := input.region
	count(r.link_wall_ids) > 0
	not r.target_wall_present
	violation := {
		"rule": "target_wall_present",
		"message": sprintf("Region %s targets wall %s which is not in the plan", [r.id, r.target_wall_id]),
		"severity": "error",
		"wall": r.target_wall_id,
	}
}

deny contains violation if {
	r := input.region
	count(r.link_wall_ids) == 0
	violation := {
		"rule": "unlinked",
		"message": sprintf("Region %s is not linked to any wall", [r.id]),
		"severity": "warning",
	}
}`,
	}
}

// regionGeometryPolicy checks the region boundary.
func regionGeometryPolicy() Policy {
	return Policy{
		Name:        "region-geometry",
		Description: "Region boundaries must be non-degenerate",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"region", "geometry"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package brepcore.policies.region_geometry

import rego.v1

min_segment_length := 0.01

deny contains violation if {
	r := input.region
	r.zero_length_segments > 0
	violation := {
		"rule": "zero_length_segment",
		"message": sprintf("Region %s has %d zero-length boundary segments", [r.id, r.zero_length_segments]),
		"severity": "error",
	}
}

deny contains violation if {
	r := input.region
	r.zero_length_segments == 0
	r.min_segment_length < min_segment_length
	violation := {
		"rule": "min_segment_length",
		"message": sprintf("Region %s has a boundary segment of length %v", [r.id, r.min_segment_length]),
		"severity": "warning",
	}
}

deny contains violation if {
	r := input.region
	r.area == 0
	violation := {
		"rule": "zero_area",
		"message": sprintf("Region %s encloses no area", [r.id]),
		"severity": "error",
	}
}`,
	}
}

// regionExtrusionPolicy checks the extruded body.
func regionExtrusionPolicy() Policy {
	return Policy{
		Name:        "region-extrusion",
		Description: "Extruded regions must have a closed outline and a classified top",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"region", "extrusion"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package brepcore.policies.region_extrusion

import rego.v1

deny contains violation if {
	r := input.region
	r.status == "failed"
	violation := {
		"rule": "extrusion_failed",
		"message": sprintf("Region %s failed to extrude", [r.id]),
		"severity": "error",
	}
}

deny contains violation if {
	r := input.region
	r.status == "fallback"
	violation := {
		"rule": "split_fallback",
		"message": sprintf("Region %s top faces could not be classified; all pieces are visible", [r.id]),
		"severity": "warning",
	}
}

deny contains violation if {
	r := input.region
	r.faces > 0
	not r.outline_closed
	violation := {
		"rule": "outline_closed",
		"message": sprintf("Region %s outline has %d open or missing wires", [r.id, r.outline_wires]),
		"severity": "error",
	}
}

deny contains violation if {
	r := input.region
	r.status == "plain"
	r.aux_faces > 0
	violation := {
		"rule": "aux_without_imprint",
		"message": sprintf("Region %s has %d aux faces without an imprint", [r.id, r.aux_faces]),
		"severity": "error",
	}
}`,
	}
}

// constraintChainPolicy checks persisted compute chains.
func constraintChainPolicy() Policy {
	return Policy{
		Name:        "constraint-chain",
		Description: "Constraints must not write their own inputs and chains should start from a value",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"constraint"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package brepcore.policies.constraint_chain

import rego.v1

deny contains violation if {
	c := input.constraint
	some out in c.outputs
	out in c.inputs
	violation := {
		"rule": "self_write",
		"message": sprintf("Constraint %s writes its own input %s", [c.id, out]),
		"severity": "error",
		"state": out,
	}
}

deny contains violation if {
	c := input.constraint
	first := c.computeChain[0]
	startswith(first.method, "result_")
	violation := {
		"rule": "result_first",
		"message": sprintf("Constraint %s starts its chain with %s, which folds into zero", [c.id, first.method]),
		"severity": "warning",
	}
}`,
	}
}
