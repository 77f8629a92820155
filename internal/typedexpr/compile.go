package typedexpr

import (
	"strings"

	"shotcompile/internal/ast"
	"shotcompile/internal/compileerr"
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/exprparser"
	"shotcompile/internal/units"
)

// CompiledExpression is the typed, constant-folded result of Compile: an
// internal node tree plus the static type it was checked against.
type CompiledExpression struct {
	root          node
	timeDependent bool
}

func (c *CompiledExpression) Kind() Kind           { return c.root.Kind() }
func (c *CompiledExpression) Dim() units.Dimension { return c.root.Dim() }
func (c *CompiledExpression) ContainsTime() bool   { return c.root.ContainsTime() }

// Compile parses source against schema and type-checks it into a
// CompiledExpression (spec.md §4.2). timeDependent must be true for any
// expression that references the reserved identifier "t"; an expression
// that does not reference "t" compiles under either setting.
func Compile(source string, schema *Schema, timeDependent bool) (result *CompiledExpression, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*compileerr.Error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	parsed, err := exprparser.Parse(source)
	if err != nil {
		return nil, err
	}
	c := &compilerState{source: source, schema: schema, timeDependent: timeDependent}
	root := c.compile(parsed)
	if root.ContainsTime() && !timeDependent {
		panic(compileerr.New(compileerr.KindInvalidOperation, parsed.Span(),
			"expression references the time variable \"t\" but was not compiled as time-dependent"))
	}
	return &CompiledExpression{root: root, timeDependent: timeDependent}, nil
}

// AsInteger projects the expression to an int64-returning evaluator.
func (c *CompiledExpression) AsInteger() (func(Parameters) (int64, error), error) {
	if c.Kind() != KindInteger {
		return nil, compileerr.Evaluation("expression is %s, not Integer", c.Kind())
	}
	return func(p Parameters) (int64, error) {
		v, err := c.root.evalScalar(p)
		if err != nil {
			return 0, err
		}
		if !v.Num.Magnitude.Rat().IsInt() {
			return 0, compileerr.Evaluation("integer expression evaluated to a non-integer value")
		}
		return v.Num.Magnitude.Rat().Num().Int64(), nil
	}, nil
}

// AsFloat projects any numeric (Integer or Float) expression to a
// float64-returning evaluator.
func (c *CompiledExpression) AsFloat() (func(Parameters) (float64, error), error) {
	if c.Kind() != KindInteger && c.Kind() != KindFloat {
		return nil, compileerr.Evaluation("expression is %s, not a plain number", c.Kind())
	}
	return func(p Parameters) (float64, error) {
		v, err := c.root.evalScalar(p)
		if err != nil {
			return 0, err
		}
		return v.Num.Magnitude.Float64(), nil
	}, nil
}

// AsQuantityExact is AsQuantity's exact-arithmetic counterpart: it
// returns the expression's magnitude in requiredUnit as a
// decimaltime.Decimal instead of a float64, so a caller that feeds the
// result back into decimaltime's tick arithmetic (step boundaries,
// Advance/Delay amounts) never routes an integer-valued duration
// through a lossy float64 round trip (spec.md §9).
func (c *CompiledExpression) AsQuantityExact(requiredUnit string) (func(Parameters) (decimaltime.Decimal, error), error) {
	if c.Kind() != KindQuantity {
		return nil, compileerr.Evaluation("expression is %s, not Quantity", c.Kind())
	}
	if requiredUnit == "" {
		// No single named unit covers this dimension (dimensionless or a
		// composite like m/s): hand back the quantity's own base-unit
		// magnitude rather than converting through the registry.
		return func(p Parameters) (decimaltime.Decimal, error) {
			v, err := c.root.evalScalar(p)
			if err != nil {
				return decimaltime.Decimal{}, err
			}
			return v.Num.Magnitude, nil
		}, nil
	}
	u, ok := units.Lookup(requiredUnit)
	if !ok {
		return nil, compileerr.Evaluation("unknown unit %q", requiredUnit)
	}
	if !u.Dim.Equal(c.Dim()) {
		return nil, compileerr.Evaluation("expression has dimension %s, incompatible with unit %q", c.Dim().Symbol(), requiredUnit)
	}
	return func(p Parameters) (decimaltime.Decimal, error) {
		v, err := c.root.evalScalar(p)
		if err != nil {
			return decimaltime.Decimal{}, err
		}
		out, _ := v.Num.InExact(requiredUnit)
		return out, nil
	}, nil
}

// AsQuantity projects a Quantity expression to a float64-returning
// evaluator expressed in requiredUnit, failing if the expression's
// dimension is incompatible with that unit.
func (c *CompiledExpression) AsQuantity(requiredUnit string) (func(Parameters) (float64, error), error) {
	exact, err := c.AsQuantityExact(requiredUnit)
	if err != nil {
		return nil, err
	}
	return func(p Parameters) (float64, error) {
		v, err := exact(p)
		if err != nil {
			return 0, err
		}
		return v.Float64(), nil
	}, nil
}

// AsBoolean projects a Boolean expression to a bool-returning evaluator.
func (c *CompiledExpression) AsBoolean() (func(Parameters) (bool, error), error) {
	if c.Kind() != KindBoolean {
		return nil, compileerr.Evaluation("expression is %s, not Boolean", c.Kind())
	}
	return func(p Parameters) (bool, error) {
		v, err := c.root.evalScalar(p)
		if err != nil {
			return false, err
		}
		return v.Bool, nil
	}, nil
}

// EvaluateSeries samples the expression across the tick grid of [t1, t2)
// at the given step, for use by the lane and channel compilers (spec.md
// §4.4).
func (c *CompiledExpression) EvaluateSeries(p Parameters, t1, t2 decimaltime.Decimal, step decimaltime.TimeStep) (result EvaluationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*compileerr.Error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	return c.root.evalSeries(p, t1, t2, step)
}

// compilerState is the visitor that walks an ast.Expr into a node tree,
// resolving identifiers against schema, checking types, and folding
// constant subexpressions as it goes. Errors are raised by panicking
// with a *compileerr.Error, mirroring exprparser's own recover-at-the-
// entry-point idiom.
type compilerState struct {
	source        string
	schema        *Schema
	timeDependent bool
}

func (c *compilerState) compile(e ast.Expr) node {
	return e.Accept(c).(node)
}

func (c *compilerState) span(e ast.Expr) compileerr.Span {
	s := e.Span()
	s.Source = c.source
	return s
}

func (c *compilerState) VisitNumberExpr(e *ast.NumberExpr) interface{} {
	magnitude, err := decimaltime.FromString(e.Literal)
	if err != nil {
		panic(compileerr.New(compileerr.KindInvalidValue, c.span(e), "%v", err))
	}
	if e.Unit == "" {
		if strings.ContainsAny(e.Literal, ".eE") {
			return node(&constNode{value: FloatValue(magnitude)})
		}
		return node(&constNode{value: IntValue(magnitude)})
	}
	q, ok := units.FromLiteral(magnitude, e.Unit)
	if !ok {
		panic(compileerr.New(compileerr.KindUndefinedUnit, c.span(e), "unknown unit %q", e.Unit).
			WithSuggestion(compileerr.NearestMatch(e.Unit, units.Names())))
	}
	return node(&constNode{value: QuantityValue(q)})
}

func (c *compilerState) VisitIdentExpr(e *ast.IdentExpr) interface{} {
	if _, ok := units.Lookup(e.Name); ok {
		panic(compileerr.New(compileerr.KindInvalidOperation, c.span(e),
			"%q is a unit name and cannot be used as a bare identifier", e.Name))
	}
	if v, ok := c.schema.Constants[e.Name]; ok {
		return node(&constNode{value: v})
	}
	if t, ok := c.schema.Variables[e.Name]; ok {
		return node(&paramNode{name: e.Name, typ: t})
	}
	if e.Name == "true" || e.Name == "false" {
		return node(&constNode{value: BoolValue(e.Name == "true")})
	}
	if e.Name == "t" {
		return node(&timeNode{})
	}
	panic(compileerr.New(compileerr.KindUndefinedParameter, c.span(e), "undefined identifier %q", e.Name).
		WithSuggestion(compileerr.NearestMatch(e.Name, c.identifierCandidates())))
}

func (c *compilerState) identifierCandidates() []string {
	names := make([]string, 0, len(c.schema.Constants)+len(c.schema.Variables)+1)
	for name := range c.schema.Constants {
		names = append(names, name)
	}
	for name := range c.schema.Variables {
		names = append(names, name)
	}
	names = append(names, "t")
	return names
}

func (c *compilerState) VisitUnaryExpr(e *ast.UnaryExpr) interface{} {
	operand := c.compile(e.Operand)
	if operand.Kind() == KindBoolean {
		panic(compileerr.New(compileerr.KindInvalidType, c.span(e), "unary %s requires a numeric operand", e.Operator))
	}
	n := &unaryNode{negate: e.Operator == "-", operand: operand, kind: operand.Kind()}
	return node(foldUnary(n))
}

func foldUnary(n *unaryNode) node {
	if _, ok := n.operand.(*constNode); !ok {
		return n
	}
	v, err := n.evalScalar(nil)
	if err != nil {
		panic(toCompileErr(err))
	}
	return &constNode{value: v}
}

func (c *compilerState) VisitBinaryExpr(e *ast.BinaryExpr) interface{} {
	left := c.compile(e.Left)
	right := c.compile(e.Right)
	if left.Kind() == KindBoolean || right.Kind() == KindBoolean {
		panic(compileerr.New(compileerr.KindInvalidType, c.span(e), "operator %s requires numeric operands", e.Operator))
	}

	var dim units.Dimension
	switch e.Operator {
	case "+", "-":
		if !left.Dim().Equal(right.Dim()) {
			panic(compileerr.New(compileerr.KindInvalidDimensionality, c.span(e),
				"cannot %s a value of dimension %s to a value of dimension %s",
				map[string]string{"+": "add", "-": "subtract"}[e.Operator], right.Dim().Symbol(), left.Dim().Symbol()))
		}
		dim = left.Dim()
	case "*":
		dim = left.Dim().Add(right.Dim())
	case "/":
		dim = left.Dim().Sub(right.Dim())
	case "**":
		if right.ContainsTime() {
			panic(compileerr.New(compileerr.KindInvalidOperation, c.span(e), "the exponent of ** cannot depend on time"))
		}
		if left.Dim().IsDimensionless() {
			dim = units.Dimension{}
		} else {
			rc, ok := right.(*constNode)
			if !ok {
				panic(compileerr.New(compileerr.KindInvalidDimensionality, c.span(e),
					"raising a dimensioned value to a power requires a compile-time constant integer exponent"))
			}
			if !rc.value.Num.Magnitude.Rat().IsInt() {
				panic(compileerr.New(compileerr.KindInvalidDimensionality, c.span(e),
					"raising a dimensioned value to a power requires an integer exponent"))
			}
			dim = left.Dim().Scale(int(rc.value.Num.Magnitude.Rat().Num().Int64()))
		}
	default:
		panic("typedexpr: unknown binary operator " + e.Operator)
	}

	n := &binaryNode{operator: e.Operator, left: left, right: right, kind: resultKind(left.Kind(), right.Kind(), dim), dim: dim}
	return node(foldBinary(n))
}

func resultKind(left, right Kind, dim units.Dimension) Kind {
	if !dim.IsDimensionless() {
		return KindQuantity
	}
	if left == KindQuantity || right == KindQuantity {
		return KindFloat
	}
	if left == KindFloat || right == KindFloat {
		return KindFloat
	}
	return KindInteger
}

func foldBinary(n *binaryNode) node {
	_, leftConst := n.left.(*constNode)
	_, rightConst := n.right.(*constNode)
	if !leftConst || !rightConst {
		return n
	}
	v, err := n.evalScalar(nil)
	if err != nil {
		panic(toCompileErr(err))
	}
	return &constNode{value: v}
}

func (c *compilerState) VisitCallExpr(e *ast.CallExpr) interface{} {
	fn, ok := lookupFunction(e.Callee)
	if !ok {
		panic(compileerr.New(compileerr.KindUndefinedFunction, c.span(e), "undefined function %q", e.Callee).
			WithSuggestion(compileerr.NearestMatch(e.Callee, functionNames())))
	}
	if len(e.Args) != 1 {
		panic(compileerr.New(compileerr.KindInvalidOperation, c.span(e), "%s takes exactly one argument", e.Callee))
	}
	arg := c.compile(e.Args[0])
	if arg.Kind() == KindBoolean {
		panic(compileerr.New(compileerr.KindInvalidType, c.span(e), "%s requires a numeric operand", e.Callee))
	}
	if !arg.Dim().IsDimensionless() && !(fn.acceptsAngle && arg.Dim().Equal(units.Dimension{Angle: 1})) {
		panic(compileerr.New(compileerr.KindInvalidDimensionality, c.span(e), "%s does not accept an operand of dimension %s", e.Callee, arg.Dim().Symbol()))
	}
	n := &callNode{fn: fn, arg: arg}
	if _, ok := arg.(*constNode); ok {
		v, err := n.evalScalar(nil)
		if err != nil {
			panic(toCompileErr(err))
		}
		return node(&constNode{value: v})
	}
	return node(n)
}

func toCompileErr(err error) *compileerr.Error {
	if e, ok := err.(*compileerr.Error); ok {
		return e
	}
	return compileerr.Evaluation("%v", err)
}
