package constraint

import (
	"slices"

	"github.com/openfroyo/brepcore/pkg/engine"
)

// State is a named numeric value shared between constraints and entities.
// Constraints hold pointers to states and never copy them.
type State struct {
	ID    string  `json:"id" yaml:"id"`
	Value float64 `json:"value" yaml:"value"`
}

// NewState creates a state.
func NewState(id string, value float64) *State {
	return &State{ID: id, Value: value}
}

// StateMap resolves state IDs.
type StateMap map[string]*State

// NewStateMap indexes states by ID.
func NewStateMap(states ...*State) StateMap {
	m := make(StateMap, len(states))
	for _, s := range states {
		m[s.ID] = s
	}
	return m
}

// Resolve looks up every ID, failing on the first missing one.
func (m StateMap) Resolve(ids []string) ([]*State, error) {
	out := make([]*State, 0, len(ids))
	for _, id := range ids {
		s, ok := m[id]
		if !ok || s == nil {
			return nil, engine.NotFound("state", id)
		}
		out = append(out, s)
	}
	return out, nil
}

// IDs returns the state IDs in sorted order.
func (m StateMap) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Values returns a snapshot of every value.
func (m StateMap) Values() map[string]float64 {
	out := make(map[string]float64, len(m))
	for id, s := range m {
		out[id] = s.Value
	}
	return out
}
