package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// sumNode writes the sum of its inputs to every output.
type sumNode struct {
	testNode
	states map[string]float64
	status ConstraintStatus
	fail   bool
	calls  int
}

func (n *sumNode) Compute() error {
	n.calls++
	if n.fail {
		return errors.New("boom")
	}
	var total float64
	for _, id := range n.inputs {
		total += n.states[id]
	}
	for _, id := range n.outputs {
		n.states[id] = total
	}
	n.status = ConstraintStatusComputed
	return nil
}

func (n *sumNode) MarkStale()               { n.status = ConstraintStatusStale }
func (n *sumNode) Status() ConstraintStatus { return n.status }

func newSum(states map[string]float64, id string, inputs []string, output string) *sumNode {
	return &sumNode{
		testNode: testNode{id: id, inputs: inputs, outputs: []string{output}},
		states:   states,
		status:   ConstraintStatusStale,
	}
}

func TestPropagator_Run(t *testing.T) {
	states := map[string]float64{"a": 1, "b": 2, "c": 10}
	ab := newSum(states, "ab", []string{"a", "b"}, "ab")
	abc := newSum(states, "abc", []string{"ab", "c"}, "abc")

	var observed []string
	p, err := NewPropagator([]Computable{abc, ab}, WithComputeObserver(func(id string, _ time.Duration, _ error) {
		observed = append(observed, id)
	}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !reflect.DeepEqual(got, []string{"ab", "abc"}) {
		t.Errorf("Expected evaluation order [ab abc], got %v", got)
	}
	if !reflect.DeepEqual(observed, got) {
		t.Errorf("Expected observer to see %v, got %v", got, observed)
	}
	if states["abc"] != 13 {
		t.Errorf("Expected abc=13, got %v", states["abc"])
	}
}

func TestPropagator_PropagateOnlyDownstream(t *testing.T) {
	states := map[string]float64{"a": 1, "b": 2, "c": 10, "d": 5}
	ab := newSum(states, "ab", []string{"a", "b"}, "ab")
	abc := newSum(states, "abc", []string{"ab", "c"}, "abc")
	dd := newSum(states, "dd", []string{"d", "d"}, "dd")

	p, err := NewPropagator([]Computable{ab, abc, dd})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	states["c"] = 20
	got, err := p.Propagate(context.Background(), "c")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !reflect.DeepEqual(got, []string{"abc"}) {
		t.Errorf("Expected only abc to recompute, got %v", got)
	}
	if states["abc"] != 23 {
		t.Errorf("Expected abc=23, got %v", states["abc"])
	}
	if ab.calls != 1 || dd.calls != 1 {
		t.Errorf("Expected upstream and unrelated nodes to stay computed")
	}

	states["a"] = 5
	got, _ = p.Propagate(context.Background(), "a")
	if !reflect.DeepEqual(got, []string{"ab", "abc"}) {
		t.Errorf("Expected [ab abc], got %v", got)
	}
}

func TestPropagator_ComputeError(t *testing.T) {
	states := map[string]float64{}
	bad := newSum(states, "bad", []string{"a"}, "x")
	bad.fail = true

	p, err := NewPropagator([]Computable{bad})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("Expected compute error")
	}
}

func TestPropagator_Cancelled(t *testing.T) {
	states := map[string]float64{}
	p, err := NewPropagator([]Computable{newSum(states, "n", []string{"a"}, "x")})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}
