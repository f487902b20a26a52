package policy

import (
	"time"

	"github.com/openfroyo/brepcore/pkg/constraint"
	"github.com/openfroyo/brepcore/pkg/region"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for findings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for findings that reject the checked object.
	SeverityError Severity = "error"

	// SeverityCritical is for findings that must be addressed immediately.
	SeverityCritical Severity = "critical"
)

// Blocking reports whether violations of this severity reject the input.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// Policy represents a policy rule with its Rego code. The module must define
// a "deny" set in its package.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Metadata contains additional policy metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PolicyViolation represents a single policy violation.
type PolicyViolation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Rule is the short rule name the policy reported, or the policy name.
	Rule string `json:"rule"`

	// Resource is the region or constraint ID that violated the policy.
	Resource string `json:"resource,omitempty"`

	Message  string   `json:"message"`
	Severity Severity `json:"severity"`

	// Details carries any extra fields of the deny entry.
	Details map[string]interface{} `json:"details,omitempty"`

	DetectedAt time.Time `json:"detected_at"`
}

// PolicyResult represents the result of policy evaluation.
type PolicyResult struct {
	// Allowed is false when any blocking violation was found.
	Allowed bool `json:"allowed"`

	// Violations lists blocking violations.
	Violations []PolicyViolation `json:"violations,omitempty"`

	// Warnings lists non-blocking violations.
	Warnings []PolicyViolation `json:"warnings,omitempty"`

	// Errors lists policies that failed to evaluate.
	Errors []string `json:"errors,omitempty"`

	EvaluatedAt       time.Time     `json:"evaluated_at"`
	EvaluatedPolicies []string      `json:"evaluated_policies"`
	Duration          time.Duration `json:"duration"`
}

// All returns violations followed by warnings.
func (r *PolicyResult) All() []PolicyViolation {
	out := make([]PolicyViolation, 0, len(r.Violations)+len(r.Warnings))
	out = append(out, r.Violations...)
	return append(out, r.Warnings...)
}

// PolicyInput is the document bound to "input" in Rego. Exactly one of
// Region and Constraint is set.
type PolicyInput struct {
	Region     *region.Report   `json:"region,omitempty"`
	Constraint *constraint.Data `json:"constraint,omitempty"`
	Context    *PolicyContext   `json:"context"`
}

// resourceID returns the ID of the checked object.
func (in *PolicyInput) resourceID() string {
	switch {
	case in.Region != nil:
		return in.Region.ID
	case in.Constraint != nil:
		return in.Constraint.ID
	}
	return ""
}

// PolicyContext provides context information for policy evaluation.
type PolicyContext struct {
	// Scenario is the name of the scenario being checked.
	Scenario string `json:"scenario,omitempty"`

	// Operation is what produced the input (e.g. "extrude", "split").
	Operation string `json:"operation,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// PolicyBundle represents a collection of related policies.
type PolicyBundle struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	Policies    []Policy  `json:"policies"`
	CreatedAt   time.Time `json:"created_at"`
}

// PolicySummary provides aggregate statistics over several results.
type PolicySummary struct {
	TotalChecks          int              `json:"total_checks"`
	TotalViolations      int              `json:"total_violations"`
	TotalWarnings        int              `json:"total_warnings"`
	ViolationsBySeverity map[Severity]int `json:"violations_by_severity"`
	ViolationsByRule     map[string]int   `json:"violations_by_rule"`
	Allowed              int              `json:"allowed"`
	Blocked              int              `json:"blocked"`
	EvaluationDuration   time.Duration    `json:"evaluation_duration"`
}

// Summarize aggregates results.
func Summarize(results []*PolicyResult) *PolicySummary {
	s := &PolicySummary{
		ViolationsBySeverity: make(map[Severity]int),
		ViolationsByRule:     make(map[string]int),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		s.TotalChecks++
		s.TotalViolations += len(r.Violations)
		s.TotalWarnings += len(r.Warnings)
		s.EvaluationDuration += r.Duration
		if r.Allowed {
			s.Allowed++
		} else {
			s.Blocked++
		}
		for _, v := range r.All() {
			s.ViolationsBySeverity[v.Severity]++
			s.ViolationsByRule[v.Rule]++
		}
	}
	return s
}
