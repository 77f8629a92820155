package typedexpr

import (
	"shotcompile/internal/compileerr"
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/instruction"
	"shotcompile/internal/units"
)

// node is a compiled, type-checked expression tree node. Unlike
// internal/ast's parse tree, every node already knows its static Kind
// and Dim; evaluation never fails on a type mismatch, only on runtime
// conditions (division by zero, log of a non-positive value).
type node interface {
	Kind() Kind
	Dim() units.Dimension
	ContainsTime() bool
	evalScalar(p Parameters) (ScalarValue, error)
	evalSeries(p Parameters, t1, t2 decimaltime.Decimal, step decimaltime.TimeStep) (EvaluationResult, error)
}

// constNode is a literal or a fully constant-folded subexpression: its
// value does not depend on Parameters or time.
type constNode struct {
	value ScalarValue
}

func (n *constNode) Kind() Kind            { return n.value.Kind }
func (n *constNode) Dim() units.Dimension  { return n.value.Dim() }
func (n *constNode) ContainsTime() bool    { return false }
func (n *constNode) evalScalar(Parameters) (ScalarValue, error) { return n.value, nil }

func (n *constNode) evalSeries(_ Parameters, t1, t2 decimaltime.Decimal, step decimaltime.TimeStep) (EvaluationResult, error) {
	length := decimaltime.NumberTicks(t1, t2, step)
	return broadcastResult(n.value, length), nil
}

func broadcastResult(v ScalarValue, length int64) EvaluationResult {
	if v.Kind == KindBoolean {
		var inst instruction.Instruction = &instruction.Pattern{}
		if length > 0 {
			inst = instruction.Repeat(length, instruction.NewPattern(instruction.Value(v.Bool)))
		}
		return EvaluationResult{Values: inst, Unit: units.Dimension{}, Initial: v, Final: v}
	}
	f := v.Num.Magnitude.Float64()
	return EvaluationResult{Values: instruction.Broadcast(f, length), Unit: v.Num.Dim, Initial: v, Final: v}
}

// paramNode reads a schema variable at evaluation time.
type paramNode struct {
	name string
	typ  ParamType
}

func (n *paramNode) Kind() Kind           { return n.typ.Kind }
func (n *paramNode) Dim() units.Dimension { return n.typ.Dim }
func (n *paramNode) ContainsTime() bool   { return false }

func (n *paramNode) evalScalar(p Parameters) (ScalarValue, error) {
	v, ok := p[n.name]
	if !ok {
		return ScalarValue{}, compileerr.Evaluation("no binding supplied for parameter %q", n.name)
	}
	return v, nil
}

func (n *paramNode) evalSeries(p Parameters, t1, t2 decimaltime.Decimal, step decimaltime.TimeStep) (EvaluationResult, error) {
	v, err := n.evalScalar(p)
	if err != nil {
		return EvaluationResult{}, err
	}
	length := decimaltime.NumberTicks(t1, t2, step)
	return broadcastResult(v, length), nil
}

// timeNode is the reserved identifier "t": shot-local time, in seconds.
type timeNode struct{}

func (n *timeNode) Kind() Kind           { return KindQuantity }
func (n *timeNode) Dim() units.Dimension { return units.Dimension{Time: 1} }
func (n *timeNode) ContainsTime() bool   { return true }

func (n *timeNode) evalScalar(Parameters) (ScalarValue, error) {
	panic("typedexpr: time identifier evaluated outside a time-series context")
}

func (n *timeNode) evalSeries(_ Parameters, t1, t2 decimaltime.Decimal, step decimaltime.TimeStep) (EvaluationResult, error) {
	tickStart := decimaltime.StartTick(t1, step)
	tickStop := decimaltime.StopTick(t2, step)
	length := tickStop - tickStart
	dt := step.Seconds()
	startVal := decimaltime.FromInt64(tickStart).Mul(dt).Sub(t1)
	stopVal := decimaltime.FromInt64(tickStop).Mul(dt).Sub(t1)
	q := func(d decimaltime.Decimal) ScalarValue {
		return QuantityValue(units.Quantity{Magnitude: d, Dim: units.Dimension{Time: 1}})
	}
	return EvaluationResult{
		Values:  &instruction.Ramp{Start: startVal.Float64(), Stop: stopVal.Float64(), Length: length},
		Unit:    units.Dimension{Time: 1},
		Initial: q(startVal),
		Final:   q(stopVal),
	}, nil
}
