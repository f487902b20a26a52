package engine

import (
	"encoding/json"
	"fmt"
)

// ConstraintStatus is the evaluation phase of a constraint.
type ConstraintStatus string

const (
	// ConstraintStatusStale indicates an input changed since the last compute.
	ConstraintStatusStale ConstraintStatus = "stale"

	// ConstraintStatusComputed indicates the outputs reflect the inputs.
	ConstraintStatusComputed ConstraintStatus = "computed"
)

// NeedsCompute returns true if the constraint must be re-evaluated.
func (s ConstraintStatus) NeedsCompute() bool {
	return s != ConstraintStatusComputed
}

// Validate checks if the constraint status is valid.
func (s ConstraintStatus) Validate() error {
	switch s {
	case ConstraintStatusStale, ConstraintStatusComputed:
		return nil
	default:
		return fmt.Errorf("invalid constraint status: %s", s)
	}
}

// MarshalJSON implements json.Marshaler with validation.
func (s ConstraintStatus) MarshalJSON() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler with validation.
func (s *ConstraintStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	status := ConstraintStatus(str)
	if err := status.Validate(); err != nil {
		return err
	}
	*s = status
	return nil
}

// ExtrusionStatus reports how a region body was produced.
type ExtrusionStatus string

const (
	// ExtrusionStatusNone indicates the region has not been extruded.
	ExtrusionStatusNone ExtrusionStatus = "none"

	// ExtrusionStatusPlain indicates a prism without imprinted edges.
	ExtrusionStatusPlain ExtrusionStatus = "plain"

	// ExtrusionStatusFixed indicates imprinted caps were classified into
	// visible and auxiliary faces.
	ExtrusionStatusFixed ExtrusionStatus = "fixed"

	// ExtrusionStatusFallback indicates imprinted caps could not be
	// classified and were all kept visible.
	ExtrusionStatusFallback ExtrusionStatus = "fallback"

	// ExtrusionStatusFailed indicates the extrusion was rejected.
	ExtrusionStatusFailed ExtrusionStatus = "failed"
)

// Validate checks if the extrusion status is valid.
func (s ExtrusionStatus) Validate() error {
	switch s {
	case ExtrusionStatusNone, ExtrusionStatusPlain, ExtrusionStatusFixed,
		ExtrusionStatusFallback, ExtrusionStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid extrusion status: %s", s)
	}
}
