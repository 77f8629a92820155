package typedexpr

import (
	"math"

	"shotcompile/internal/compileerr"
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/instruction"
	"shotcompile/internal/units"
)

// mathFunc is one entry of the closed function table (spec.md §4.2): a
// single-argument real function that accepts either a dimensionless
// operand or, for the trigonometric functions, an Angle-dimensioned one
// (whose base unit is radians, so the raw magnitude is fed to math
// directly either way).
type mathFunc struct {
	name       string
	apply      func(float64) float64
	acceptsAngle bool
}

var functionTable = map[string]mathFunc{
	"sqrt":  {name: "sqrt", apply: math.Sqrt},
	"exp":   {name: "exp", apply: math.Exp},
	"log":   {name: "log", apply: math.Log},
	"log2":  {name: "log2", apply: math.Log2},
	"log10": {name: "log10", apply: math.Log10},
	"abs":   {name: "abs", apply: math.Abs},
	"cos":   {name: "cos", apply: math.Cos, acceptsAngle: true},
	"sin":   {name: "sin", apply: math.Sin, acceptsAngle: true},
	"tan":   {name: "tan", apply: math.Tan, acceptsAngle: true},
	"acos":  {name: "acos", apply: math.Acos, acceptsAngle: true},
	"asin":  {name: "asin", apply: math.Asin, acceptsAngle: true},
	"atan":  {name: "atan", apply: math.Atan, acceptsAngle: true},
}

// lookupFunction resolves a call-expression callee against the closed
// table. ok is false for any name outside the table, which the compiler
// turns into a KindUndefinedFunction error with a NearestMatch
// suggestion.
func lookupFunction(name string) (mathFunc, bool) {
	f, ok := functionTable[name]
	return f, ok
}

func functionNames() []string {
	names := make([]string, 0, len(functionTable))
	for name := range functionTable {
		names = append(names, name)
	}
	return names
}

// callNode applies a closed-table function to one argument.
type callNode struct {
	fn  mathFunc
	arg node
}

func (n *callNode) Kind() Kind           { return KindFloat }
func (n *callNode) Dim() units.Dimension { return units.Dimension{} }
func (n *callNode) ContainsTime() bool   { return n.arg.ContainsTime() }

func (n *callNode) evalScalar(p Parameters) (ScalarValue, error) {
	v, err := n.arg.evalScalar(p)
	if err != nil {
		return ScalarValue{}, err
	}
	return n.fn.applyScalar(v)
}

func (f mathFunc) applyScalar(v ScalarValue) (ScalarValue, error) {
	x, err := f.operandMagnitude(v)
	if err != nil {
		return ScalarValue{}, err
	}
	y := f.apply(x)
	if math.IsNaN(y) {
		return ScalarValue{}, compileerr.Evaluation("%s(%v) is not a real number", f.name, x)
	}
	return FloatValue(decimaltime.FromFloat64(y)), nil
}

// operandMagnitude extracts the raw float64 the function should be
// applied to, accepting a dimensionless quantity always and an
// Angle-dimensioned one (base unit radians) for the trig family.
func (f mathFunc) operandMagnitude(v ScalarValue) (float64, error) {
	dim := v.Dim()
	if dim.IsDimensionless() {
		return v.Num.Magnitude.Float64(), nil
	}
	if f.acceptsAngle && dim.Equal(units.Dimension{Angle: 1}) {
		return v.Num.Magnitude.Float64(), nil
	}
	return 0, compileerr.Evaluation("%s does not accept an operand of dimension %s", f.name, dim.Symbol())
}

func (n *callNode) evalSeries(p Parameters, t1, t2 decimaltime.Decimal, step decimaltime.TimeStep) (EvaluationResult, error) {
	argSeries, err := n.arg.evalSeries(p, t1, t2, step)
	if err != nil {
		return EvaluationResult{}, err
	}
	if !argSeries.Unit.IsDimensionless() && !(n.fn.acceptsAngle && argSeries.Unit.Equal(units.Dimension{Angle: 1})) {
		return EvaluationResult{}, compileerr.Evaluation("%s does not accept an operand of dimension %s", n.fn.name, argSeries.Unit.Symbol())
	}
	values := instruction.Map(argSeries.Values, powFnWrap(n.fn.apply), nil)
	initial, err := n.fn.applyScalar(argSeries.Initial)
	if err != nil {
		return EvaluationResult{}, err
	}
	final, err := n.fn.applyScalar(argSeries.Final)
	if err != nil {
		return EvaluationResult{}, err
	}
	return EvaluationResult{Values: values, Unit: units.Dimension{}, Initial: initial, Final: final}, nil
}

func powFn(exp float64) instruction.MapFn {
	return func(v instruction.Value) instruction.Value {
		return math.Pow(v.(float64), exp)
	}
}

func powFnWrap(f func(float64) float64) instruction.MapFn {
	return func(v instruction.Value) instruction.Value {
		return f(v.(float64))
	}
}
