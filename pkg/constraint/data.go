package constraint

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// IDList is a list of state IDs that also accepts a single string when
// decoded from JSON or YAML.
type IDList []string

// UnmarshalJSON accepts "id" as well as ["id", ...].
func (l *IDList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = IDList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("state IDs must be a string or a list of strings: %w", err)
	}
	*l = many
	return nil
}

// UnmarshalYAML accepts a scalar as well as a sequence.
func (l *IDList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = IDList{value.Value}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*l = many
		return nil
	default:
		return fmt.Errorf("line %d: state IDs must be a string or a list of strings", value.Line)
	}
}

// InputDescriptor is one compute-chain step before its states are resolved.
type InputDescriptor struct {
	Method Method   `json:"method" yaml:"method" validate:"required"`
	States []string `json:"states" yaml:"states" validate:"required,min=1,dive,required"`
}

// InitData describes a new constraint.
type InitData struct {
	ID      string            `json:"id" yaml:"id" validate:"required"`
	LocalID string            `json:"localId,omitempty" yaml:"localId,omitempty"`
	Class   string            `json:"Class,omitempty" yaml:"Class,omitempty"`
	Inputs  []InputDescriptor `json:"inputs" yaml:"inputs" validate:"required,min=1,dive"`
	Output  IDList            `json:"output" yaml:"output" validate:"required,min=1,dive,required"`
}

// ChainData is the persisted form of one compute-chain step.
type ChainData struct {
	Method Method   `json:"method" yaml:"method"`
	States []string `json:"states" yaml:"states"`
}

// Data is the persisted form of a constraint.
type Data struct {
	ID           string      `json:"id" yaml:"id"`
	LocalID      string      `json:"localId,omitempty" yaml:"localId,omitempty"`
	Class        string      `json:"Class" yaml:"Class"`
	Inputs       []string    `json:"inputs" yaml:"inputs"`
	Outputs      []string    `json:"outputs" yaml:"outputs"`
	ComputeChain []ChainData `json:"computeChain" yaml:"computeChain"`
}

// LoadOptions carries what Load needs besides the persisted data.
type LoadOptions struct {
	// States resolves the state IDs referenced by the data.
	States StateMap
}
