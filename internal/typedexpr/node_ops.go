package typedexpr

import (
	"shotcompile/internal/compileerr"
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/instruction"
	"shotcompile/internal/units"
)

// unaryNode is +x or -x. Compile-time checking has already rejected a
// Boolean operand.
type unaryNode struct {
	negate  bool
	operand node
	kind    Kind
}

func (n *unaryNode) Kind() Kind           { return n.kind }
func (n *unaryNode) Dim() units.Dimension { return n.operand.Dim() }
func (n *unaryNode) ContainsTime() bool   { return n.operand.ContainsTime() }

func (n *unaryNode) evalScalar(p Parameters) (ScalarValue, error) {
	v, err := n.operand.evalScalar(p)
	if err != nil {
		return ScalarValue{}, err
	}
	if !n.negate {
		return v, nil
	}
	return ScalarValue{Kind: n.kind, Num: v.Num.Neg()}, nil
}

func (n *unaryNode) evalSeries(p Parameters, t1, t2 decimaltime.Decimal, step decimaltime.TimeStep) (EvaluationResult, error) {
	r, err := n.operand.evalSeries(p, t1, t2, step)
	if err != nil {
		return EvaluationResult{}, err
	}
	if !n.negate {
		return r, nil
	}
	values := instruction.Map(r.Values, func(v instruction.Value) instruction.Value { return -v.(float64) }, &instruction.AffineFloat{A: -1, B: 0})
	return EvaluationResult{
		Values:  values,
		Unit:    r.Unit,
		Initial: negateScalar(r.Initial),
		Final:   negateScalar(r.Final),
	}, nil
}

func negateScalar(v ScalarValue) ScalarValue {
	return ScalarValue{Kind: v.Kind, Num: v.Num.Neg()}
}

// binaryNode is a+b, a-b, a*b, a/b, or a**b.
type binaryNode struct {
	operator    string
	left, right node
	kind        Kind
	dim         units.Dimension
}

func (n *binaryNode) Kind() Kind           { return n.kind }
func (n *binaryNode) Dim() units.Dimension { return n.dim }
func (n *binaryNode) ContainsTime() bool   { return n.left.ContainsTime() || n.right.ContainsTime() }

func (n *binaryNode) evalScalar(p Parameters) (ScalarValue, error) {
	lv, err := n.left.evalScalar(p)
	if err != nil {
		return ScalarValue{}, err
	}
	rv, err := n.right.evalScalar(p)
	if err != nil {
		return ScalarValue{}, err
	}
	return evalBinaryScalar(n.operator, n.kind, lv, rv)
}

func evalBinaryScalar(operator string, kind Kind, lv, rv ScalarValue) (ScalarValue, error) {
	switch operator {
	case "+":
		q, err := lv.Num.Add(rv.Num)
		return ScalarValue{Kind: kind, Num: q}, wrapArith(err)
	case "-":
		q, err := lv.Num.Sub(rv.Num)
		return ScalarValue{Kind: kind, Num: q}, wrapArith(err)
	case "*":
		return ScalarValue{Kind: kind, Num: lv.Num.Mul(rv.Num)}, nil
	case "/":
		q, err := lv.Num.Div(rv.Num)
		if err != nil {
			return ScalarValue{}, compileerr.Evaluation("division by zero")
		}
		return ScalarValue{Kind: kind, Num: q}, nil
	case "**":
		return evalPowerScalar(kind, lv, rv)
	}
	panic("typedexpr: unknown binary operator " + operator)
}

func wrapArith(err error) error {
	if err == nil {
		return nil
	}
	return compileerr.Evaluation("%v", err)
}

func evalPowerScalar(kind Kind, base, exp ScalarValue) (ScalarValue, error) {
	if exp.Num.Magnitude.Rat().IsInt() {
		n64 := exp.Num.Magnitude.Rat().Num().Int64()
		q, err := base.Num.Pow(int(n64))
		if err != nil {
			return ScalarValue{}, wrapArith(err)
		}
		return ScalarValue{Kind: kind, Num: q}, nil
	}
	q, err := base.Num.PowFloat(exp.Num.Magnitude.Float64())
	if err != nil {
		return ScalarValue{}, wrapArith(err)
	}
	return ScalarValue{Kind: kind, Num: q}, nil
}

func (n *binaryNode) evalSeries(p Parameters, t1, t2 decimaltime.Decimal, step decimaltime.TimeStep) (EvaluationResult, error) {
	if n.operator == "**" {
		return n.evalPowerSeries(p, t1, t2, step)
	}
	lr, err := n.left.evalSeries(p, t1, t2, step)
	if err != nil {
		return EvaluationResult{}, err
	}
	rr, err := n.right.evalSeries(p, t1, t2, step)
	if err != nil {
		return EvaluationResult{}, err
	}
	values := instruction.Combine(lr.Values, rr.Values, n.operator)
	initial, err := evalBinaryScalar(n.operator, n.kind, lr.Initial, rr.Initial)
	if err != nil {
		return EvaluationResult{}, err
	}
	final, err := evalBinaryScalar(n.operator, n.kind, lr.Final, rr.Final)
	if err != nil {
		return EvaluationResult{}, err
	}
	return EvaluationResult{Values: values, Unit: n.dim, Initial: initial, Final: final}, nil
}

// evalPowerSeries handles a**b where, per spec.md §4.2, the exponent is
// always a non-time-dependent real scalar (enforced at compile time):
// only the base can vary over the time grid.
func (n *binaryNode) evalPowerSeries(p Parameters, t1, t2 decimaltime.Decimal, step decimaltime.TimeStep) (EvaluationResult, error) {
	baseSeries, err := n.left.evalSeries(p, t1, t2, step)
	if err != nil {
		return EvaluationResult{}, err
	}
	exp, err := n.right.evalScalar(p)
	if err != nil {
		return EvaluationResult{}, err
	}
	expFloat := exp.Num.Magnitude.Float64()
	var affine *instruction.AffineFloat
	if expFloat == 1 {
		affine = &instruction.AffineFloat{A: 1, B: 0}
	}
	values := instruction.Map(baseSeries.Values, powFn(expFloat), affine)
	initial, err := evalPowerScalar(n.kind, baseSeries.Initial, exp)
	if err != nil {
		return EvaluationResult{}, err
	}
	final, err := evalPowerScalar(n.kind, baseSeries.Final, exp)
	if err != nil {
		return EvaluationResult{}, err
	}
	return EvaluationResult{Values: values, Unit: n.dim, Initial: initial, Final: final}, nil
}
