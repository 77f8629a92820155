// Package typedexpr implements the expression compiler of spec.md §4.2:
// it parses a source string against a parameter schema into a
// CompiledExpression typed as one of {Integer, Float, Boolean,
// Quantity(base-unit)}, performing identifier resolution, dimensional
// type-checking, constant folding, and — for expressions that reference
// the reserved time identifier "t" — time-series evaluation into the
// compressed instruction trees of internal/instruction.
package typedexpr

import (
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/instruction"
	"shotcompile/internal/units"
)

// Kind is the discriminant of a CompiledExpression's static type.
type Kind int

const (
	KindBoolean Kind = iota
	KindInteger
	KindFloat
	KindQuantity
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindQuantity:
		return "Quantity"
	}
	return "Unknown"
}

// ParamType is a parameter schema entry's declared type. Dim is only
// meaningful when Kind is KindQuantity.
type ParamType struct {
	Kind Kind
	Dim  units.Dimension
}

func Boolean() ParamType                     { return ParamType{Kind: KindBoolean} }
func Integer() ParamType                     { return ParamType{Kind: KindInteger} }
func Float() ParamType                       { return ParamType{Kind: KindFloat} }
func Quantity(dim units.Dimension) ParamType { return ParamType{Kind: KindQuantity, Dim: dim} }

// ScalarValue is a runtime value of any of the four kinds. Integer,
// Float, and Quantity all share a single units.Quantity representation
// (Integer and Float simply carry a dimensionless one); this lets
// dimensional bookkeeping — including the rule that a bare number
// cannot be added to a dimensioned quantity — fall straight out of
// units.Quantity's existing Add/Sub dimension check rather than being
// reimplemented as a parallel set of type-class rules.
type ScalarValue struct {
	Kind Kind
	Bool bool
	Num  units.Quantity
}

func BoolValue(b bool) ScalarValue { return ScalarValue{Kind: KindBoolean, Bool: b} }

func IntValue(n decimaltime.Decimal) ScalarValue {
	return ScalarValue{Kind: KindInteger, Num: units.Dimensionless(n)}
}

func FloatValue(f decimaltime.Decimal) ScalarValue {
	return ScalarValue{Kind: KindFloat, Num: units.Dimensionless(f)}
}

func QuantityValue(q units.Quantity) ScalarValue {
	return ScalarValue{Kind: KindQuantity, Num: q}
}

func (v ScalarValue) Dim() units.Dimension {
	if v.Kind == KindBoolean {
		return units.Dimension{}
	}
	return v.Num.Dim
}

// Parameters is a caller-supplied binding of schema names to values,
// read-only for the duration of one compile's evaluation (spec.md §5).
type Parameters map[string]ScalarValue

// Schema is a parameter schema (spec.md §3): a mapping from dotted
// names to declared types, split between compile-time constants (whose
// value is known and folded in at Compile time) and variables (whose
// value is supplied per call through Parameters).
type Schema struct {
	Constants map[string]ScalarValue
	Variables map[string]ParamType
}

func NewSchema() *Schema {
	return &Schema{Constants: map[string]ScalarValue{}, Variables: map[string]ParamType{}}
}

// EvaluationResult is the output of time-dependent evaluation (spec.md
// §4.2): a sampled instruction plus its unit and the values it starts
// and ends on.
type EvaluationResult struct {
	Values  instruction.Instruction
	Unit    units.Dimension
	Initial ScalarValue
	Final   ScalarValue
}
