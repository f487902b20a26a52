package constraint

import (
	"fmt"
	"math"

	"github.com/openfroyo/brepcore/pkg/engine"
)

// Method is a compute-chain operator.
type Method string

const (
	MethodAdd         Method = "add"
	MethodSub         Method = "sub"
	MethodMul         Method = "mul"
	MethodDiv         Method = "div"
	MethodResultAdd   Method = "result_add"
	MethodResultSub   Method = "result_sub"
	MethodResultMul   Method = "result_mul"
	MethodResultDiv   Method = "result_div"
	MethodNonnegative Method = "nonnegative"
)

// Methods lists every supported operator.
var Methods = []Method{
	MethodAdd, MethodSub, MethodMul, MethodDiv,
	MethodResultAdd, MethodResultSub, MethodResultMul, MethodResultDiv,
	MethodNonnegative,
}

// Validate checks if the method is supported.
func (m Method) Validate() error {
	switch m {
	case MethodAdd, MethodSub, MethodMul, MethodDiv,
		MethodResultAdd, MethodResultSub, MethodResultMul, MethodResultDiv,
		MethodNonnegative:
		return nil
	default:
		return engine.NewMalformedError(fmt.Sprintf("unknown compute method %q", m), nil).
			WithCode(engine.ErrCodeValidation)
	}
}

// apply folds values into result.
func (m Method) apply(result float64, values []float64) float64 {
	switch m {
	case MethodAdd:
		return result + sum(values)
	case MethodSub:
		return result - sum(values)
	case MethodMul:
		return result + product(values)
	case MethodDiv:
		return result + quotient(values)
	case MethodResultAdd:
		return result + values[0]
	case MethodResultSub:
		return result - values[0]
	case MethodResultMul:
		return result * values[0]
	case MethodResultDiv:
		return result / values[0]
	case MethodNonnegative:
		return math.Max(values[0], 0)
	}
	return result
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

func product(values []float64) float64 {
	p := 1.0
	for _, v := range values {
		p *= v
	}
	return p
}

// quotient divides values[0] by each following value in turn.
func quotient(values []float64) float64 {
	q := values[0]
	for _, v := range values[1:] {
		q /= v
	}
	return q
}
