package units

import (
	"fmt"

	"shotcompile/internal/decimaltime"
)

// Quantity is a scalar magnitude paired with a dimension, always held in
// the canonical base unit of that dimension (spec.md §4.1: "a Quantity's
// magnitude is normalized to the base unit of its dimension at
// construction time"). Dimensionless quantities, including plain
// integers and floats, carry a zero Dimension.
type Quantity struct {
	Magnitude decimaltime.Decimal
	Dim       Dimension
}

func Dimensionless(m decimaltime.Decimal) Quantity {
	return Quantity{Magnitude: m, Dim: Dimension{}}
}

// FromLiteral builds a Quantity from a numeric magnitude and a unit name,
// converting into the unit's base dimension. ok is false if unit is not
// in the closed vocabulary.
func FromLiteral(magnitude decimaltime.Decimal, unitName string) (Quantity, bool) {
	u, ok := Lookup(unitName)
	if !ok {
		return Quantity{}, false
	}
	return Quantity{Magnitude: u.ToBaseExact(magnitude), Dim: u.Dim}, true
}

// InExact converts q into the given unit's display magnitude using
// exact rational arithmetic wherever the unit's conversion factor
// allows it, so a Time quantity built from an integer literal (e.g.
// "1 ns") comes back out as an exact fraction of a second rather than
// the nearest double to one. ok is false if unitName is unknown or its
// dimension does not match q's.
func (q Quantity) InExact(unitName string) (decimaltime.Decimal, bool) {
	u, ok := Lookup(unitName)
	if !ok || !u.Dim.Equal(q.Dim) {
		return decimaltime.Decimal{}, false
	}
	return u.FromBaseExact(q.Magnitude), true
}

// In converts q into the given unit's display magnitude. ok is false if
// unitName is unknown or its dimension does not match q's.
func (q Quantity) In(unitName string) (float64, bool) {
	d, ok := q.InExact(unitName)
	if !ok {
		return 0, false
	}
	return d.Float64(), true
}

func (q Quantity) IsCompatible(o Quantity) bool { return q.Dim.Equal(o.Dim) }

// ErrIncompatibleDimension reports a dimension mismatch in +, -, or a
// comparison. Callers (internal/typedexpr) attach a source span.
type ErrIncompatibleDimension struct {
	A, B Dimension
}

func (e ErrIncompatibleDimension) Error() string {
	return fmt.Sprintf("incompatible dimensions: %s and %s", e.A.Symbol(), e.B.Symbol())
}

func (q Quantity) Add(o Quantity) (Quantity, error) {
	if !q.Dim.Equal(o.Dim) {
		return Quantity{}, ErrIncompatibleDimension{q.Dim, o.Dim}
	}
	return Quantity{Magnitude: q.Magnitude.Add(o.Magnitude), Dim: q.Dim}, nil
}

func (q Quantity) Sub(o Quantity) (Quantity, error) {
	if !q.Dim.Equal(o.Dim) {
		return Quantity{}, ErrIncompatibleDimension{q.Dim, o.Dim}
	}
	return Quantity{Magnitude: q.Magnitude.Sub(o.Magnitude), Dim: q.Dim}, nil
}

func (q Quantity) Neg() Quantity {
	return Quantity{Magnitude: q.Magnitude.Neg(), Dim: q.Dim}
}

// Mul and Div combine dimensions rather than requiring them to match.
func (q Quantity) Mul(o Quantity) Quantity {
	return Quantity{Magnitude: q.Magnitude.Mul(o.Magnitude), Dim: q.Dim.Add(o.Dim)}
}

func (q Quantity) Div(o Quantity) (Quantity, error) {
	if o.Magnitude.IsZero() {
		return Quantity{}, fmt.Errorf("division by zero")
	}
	m, err := q.Magnitude.Quo(o.Magnitude)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: m, Dim: q.Dim.Sub(o.Dim)}, nil
}

// ErrNonIntegerPower reports raising a dimensioned quantity to a
// non-integer power, which the closed arithmetic does not support
// (fractional dimensions have no unit to express them in).
type ErrNonIntegerPower struct{ Dim Dimension }

func (e ErrNonIntegerPower) Error() string {
	return fmt.Sprintf("cannot raise a quantity of dimension %s to a non-integer power", e.Dim.Symbol())
}

// Pow raises q to an integer power n, scaling its dimension by n. A
// dimensioned base requires an integer exponent; a dimensionless base
// accepts any real exponent via PowFloat.
func (q Quantity) Pow(n int) (Quantity, error) {
	m, err := q.Magnitude.PowInt(n)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: m, Dim: q.Dim.Scale(n)}, nil
}

func (q Quantity) PowFloat(exp float64) (Quantity, error) {
	if !q.Dim.IsDimensionless() {
		return Quantity{}, ErrNonIntegerPower{q.Dim}
	}
	return Quantity{Magnitude: q.Magnitude.PowFloat(exp), Dim: Dimension{}}, nil
}

func (q Quantity) Cmp(o Quantity) (int, error) {
	if !q.Dim.Equal(o.Dim) {
		return 0, ErrIncompatibleDimension{q.Dim, o.Dim}
	}
	return q.Magnitude.Cmp(o.Magnitude), nil
}
