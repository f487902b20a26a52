package constraint

import (
	"errors"
	"fmt"

	"github.com/openfroyo/brepcore/pkg/engine"
)

// Registry names of PositionConstraint. Both are accepted when loading.
const (
	ClassPositionConstraint       = "HSCore.Constraint.PositionConstraint"
	LegacyClassPositionConstraint = "hsw.core.constraint.PositionConstraint"
)

// ChainEntry is one resolved compute-chain step.
type ChainEntry struct {
	Method Method
	States []*State
}

// PositionConstraint derives a value from an ordered chain of arithmetic
// steps and writes it to every output state.
type PositionConstraint struct {
	Constraint

	// ComputeChain is nil until Init or Load succeeds.
	ComputeChain []ChainEntry

	result float64
}

// NewPositionConstraint creates an uninitialized constraint.
func NewPositionConstraint(id string) *PositionConstraint {
	return &PositionConstraint{Constraint: newConstraint(id)}
}

// ClassName returns the registry name.
func (c *PositionConstraint) ClassName() string {
	return ClassPositionConstraint
}

// Init resolves every input descriptor and the output IDs against states.
// Any unknown ID, unknown method or empty state list leaves the constraint
// unchanged and returns a malformed error.
func (c *PositionConstraint) Init(data InitData, states StateMap) error {
	id := c.ID
	if data.ID != "" {
		id = data.ID
	}
	chain := make([]ChainData, len(data.Inputs))
	for i, in := range data.Inputs {
		chain[i] = ChainData{Method: in.Method, States: in.States}
	}
	resolved, err := resolveChain(chain, states)
	if err != nil {
		return wrapResource(err, id, "init")
	}
	outputs, err := states.Resolve(data.Output)
	if err != nil {
		return wrapResource(err, id, "init")
	}

	c.ID = id
	c.LocalID = data.LocalID
	c.Inputs = make(map[string]*State)
	c.ComputeChain = make([]ChainEntry, 0, len(resolved))
	for _, entry := range resolved {
		c.addInputs(entry.States)
		c.ComputeChain = append(c.ComputeChain, entry)
	}
	c.setOutputs(outputs)
	c.MarkStale()
	return nil
}

// Compute runs the chain from zero and broadcasts the result to every
// output. Running it twice with unchanged inputs yields identical outputs.
func (c *PositionConstraint) Compute() error {
	result := 0.0
	for _, entry := range c.ComputeChain {
		values := make([]float64, len(entry.States))
		for i, s := range entry.States {
			values[i] = s.Value
		}
		result = entry.Method.apply(result, values)
	}
	c.result = result
	c.broadcast(result)
	return nil
}

// Result returns the value written by the last Compute.
func (c *PositionConstraint) Result() float64 {
	return c.result
}

// Verify requires a compute chain on top of the base checks.
func (c *PositionConstraint) Verify() error {
	if err := c.Constraint.Verify(); err != nil {
		return err
	}
	if c.ComputeChain == nil {
		return engine.NewMalformedError("position constraint has no compute chain", nil).
			WithCode(engine.ErrCodeValidation).
			WithResource(c.ID)
	}
	return nil
}

// VerifyBeforeDump runs the checks required before persisting.
func (c *PositionConstraint) VerifyBeforeDump() error {
	return c.Verify()
}

// Dump returns the persisted form; states are referenced by ID.
func (c *PositionConstraint) Dump() (*Data, error) {
	if err := c.VerifyBeforeDump(); err != nil {
		return nil, err
	}
	data := c.dumpBase(c.ClassName())
	data.ComputeChain = make([]ChainData, len(c.ComputeChain))
	for i, entry := range c.ComputeChain {
		ids := make([]string, len(entry.States))
		for j, s := range entry.States {
			ids[j] = s.ID
		}
		data.ComputeChain[i] = ChainData{Method: entry.Method, States: ids}
	}
	return data, nil
}

// Load rebuilds the constraint from data, re-linking state IDs through
// opts.States.
func (c *PositionConstraint) Load(data *Data, opts LoadOptions) error {
	if data == nil {
		return engine.NewMalformedError("no constraint data", nil).WithCode(engine.ErrCodeValidation)
	}
	if data.ComputeChain == nil {
		return engine.NewMalformedError("position constraint has no compute chain", nil).
			WithCode(engine.ErrCodeValidation).
			WithResource(data.ID)
	}
	chain, err := resolveChain(data.ComputeChain, opts.States)
	if err != nil {
		return wrapResource(err, data.ID, "load")
	}
	inputs, err := opts.States.Resolve(data.Inputs)
	if err != nil {
		return wrapResource(err, data.ID, "load")
	}
	outputs, err := opts.States.Resolve(data.Outputs)
	if err != nil {
		return wrapResource(err, data.ID, "load")
	}

	c.ID = data.ID
	c.LocalID = data.LocalID
	c.Inputs = make(map[string]*State)
	c.addInputs(inputs)
	c.ComputeChain = make([]ChainEntry, 0, len(chain))
	for _, entry := range chain {
		c.addInputs(entry.States)
		c.ComputeChain = append(c.ComputeChain, entry)
	}
	c.setOutputs(outputs)
	c.MarkStale()
	return c.Verify()
}

func resolveChain(chain []ChainData, states StateMap) ([]ChainEntry, error) {
	out := make([]ChainEntry, 0, len(chain))
	for i, step := range chain {
		if err := step.Method.Validate(); err != nil {
			return nil, err
		}
		if len(step.States) == 0 {
			return nil, engine.NewMalformedError(
				fmt.Sprintf("compute step %d (%s) has no states", i, step.Method), nil,
			).WithCode(engine.ErrCodeValidation)
		}
		resolved, err := states.Resolve(step.States)
		if err != nil {
			return nil, err
		}
		out = append(out, ChainEntry{Method: step.Method, States: resolved})
	}
	return out, nil
}

func wrapResource(err error, id, op string) error {
	var ke *engine.KernelError
	if errors.As(err, &ke) {
		return ke.WithResource(id).WithOperation(op)
	}
	return err
}
