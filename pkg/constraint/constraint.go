// Package constraint implements numeric constraints over shared states.
//
// A constraint reads input states, computes a value and writes it to its
// output states. PositionConstraint evaluates an ordered compute chain of
// arithmetic steps. Constraints satisfy engine.Computable so a
// engine.Propagator can re-evaluate them when states change.
//
// Constraint classes self-register by name so persisted documents can be
// rebuilt with New and Load.
package constraint

import (
	"slices"

	"github.com/openfroyo/brepcore/pkg/engine"
)

// Interface is implemented by every constraint class.
type Interface interface {
	engine.Computable

	// ClassName returns the registry name of the class.
	ClassName() string

	// Init builds the constraint from a description.
	Init(data InitData, states StateMap) error

	// Dump returns the persisted form.
	Dump() (*Data, error)

	// Load rebuilds the constraint from its persisted form.
	Load(data *Data, opts LoadOptions) error

	// Verify checks the constraint invariants.
	Verify() error
}

// Constraint holds what every constraint class shares: identity and the
// input and output states.
type Constraint struct {
	ID      string
	LocalID string
	Inputs  map[string]*State
	Outputs map[string]*State

	outputOrder []string
	status      engine.ConstraintStatus
}

func newConstraint(id string) Constraint {
	return Constraint{
		ID:      id,
		Inputs:  make(map[string]*State),
		Outputs: make(map[string]*State),
		status:  engine.ConstraintStatusStale,
	}
}

// NodeID returns the constraint ID.
func (c *Constraint) NodeID() string {
	return c.ID
}

// InputIDs returns the input state IDs in sorted order.
func (c *Constraint) InputIDs() []string {
	ids := make([]string, 0, len(c.Inputs))
	for id := range c.Inputs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// OutputIDs returns the output state IDs in declaration order.
func (c *Constraint) OutputIDs() []string {
	return slices.Clone(c.outputOrder)
}

// MarkStale flags the constraint for recomputation.
func (c *Constraint) MarkStale() {
	c.status = engine.ConstraintStatusStale
}

// Status returns the evaluation status.
func (c *Constraint) Status() engine.ConstraintStatus {
	return c.status
}

// Verify checks the base invariants: a non-empty ID and at least one
// output state.
func (c *Constraint) Verify() error {
	if c.ID == "" {
		return engine.NewMalformedError("constraint has empty ID", nil).
			WithCode(engine.ErrCodeValidation)
	}
	if len(c.Outputs) == 0 {
		return engine.NewMalformedError("constraint has no output state", nil).
			WithCode(engine.ErrCodeValidation).
			WithResource(c.ID)
	}
	return nil
}

func (c *Constraint) addInputs(states []*State) {
	for _, s := range states {
		c.Inputs[s.ID] = s
	}
}

func (c *Constraint) setOutputs(states []*State) {
	c.Outputs = make(map[string]*State, len(states))
	c.outputOrder = c.outputOrder[:0]
	for _, s := range states {
		if _, dup := c.Outputs[s.ID]; dup {
			continue
		}
		c.Outputs[s.ID] = s
		c.outputOrder = append(c.outputOrder, s.ID)
	}
}

// broadcast writes value to every output state.
func (c *Constraint) broadcast(value float64) {
	for _, id := range c.outputOrder {
		c.Outputs[id].Value = value
	}
	c.status = engine.ConstraintStatusComputed
}

func (c *Constraint) dumpBase(class string) *Data {
	return &Data{
		ID:      c.ID,
		LocalID: c.LocalID,
		Class:   class,
		Inputs:  c.InputIDs(),
		Outputs: c.OutputIDs(),
	}
}
