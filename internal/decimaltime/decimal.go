// Package decimaltime provides exact rational arithmetic for the scalar
// values that flow through the expression compiler, and the tick
// arithmetic built on top of it (spec.md §9, "Exact time arithmetic").
//
// Using math/big.Rat end to end (rather than float64) means a literal
// like "4 ns" divided by a 1 ns time step lands on exactly 4, not
// 3.9999999999999996 — which matters because tick counts gate slice
// boundaries and adjacent blocks must never gain or lose a sample
// (spec.md §8, "Tick exactness"). Floats only appear once a value is
// written into a Pattern or Ramp sample (spec.md "Design Notes").
//
// No third-party decimal or rational library appears anywhere in the
// retrieved corpus; math/big is the standard library's own answer to
// exact arithmetic and is used here for that reason alone.
package decimaltime

import (
	"fmt"
	"math"
	"math/big"
)

// Decimal is an exact rational number.
type Decimal struct {
	r *big.Rat
}

func wrap(r *big.Rat) Decimal { return Decimal{r: r} }

func Zero() Decimal { return wrap(new(big.Rat)) }

func FromInt64(n int64) Decimal { return wrap(new(big.Rat).SetInt64(n)) }

// FromString parses a decimal literal exactly, e.g. "1", "0.1", "1e-9".
func FromString(s string) (Decimal, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Decimal{}, fmt.Errorf("decimaltime: %q is not a valid decimal literal", s)
	}
	return wrap(r), nil
}

// FromFloat64 builds the exact binary value of f as a rational. Used only
// to admit externally supplied float64 parameter bindings into exact
// arithmetic; literal expressions should go through FromString instead so
// that "0.1" means one tenth, not the nearest double to one tenth.
func FromFloat64(f float64) Decimal {
	r := new(big.Rat)
	r.SetFloat64(f)
	if r.Sign() == 0 && f != 0 {
		// SetFloat64 returns nil for NaN/Inf; fall back to zero rather
		// than panicking on a nil Rat deref downstream.
		return Zero()
	}
	return wrap(r)
}

func (d Decimal) Rat() *big.Rat {
	if d.r == nil {
		return new(big.Rat)
	}
	return d.r
}

func (d Decimal) Float64() float64 {
	f, _ := d.Rat().Float64()
	return f
}

func (d Decimal) String() string {
	return d.Rat().RatString()
}

func (d Decimal) IsZero() bool { return d.Rat().Sign() == 0 }
func (d Decimal) Sign() int    { return d.Rat().Sign() }

func (d Decimal) Add(o Decimal) Decimal {
	return wrap(new(big.Rat).Add(d.Rat(), o.Rat()))
}

func (d Decimal) Sub(o Decimal) Decimal {
	return wrap(new(big.Rat).Sub(d.Rat(), o.Rat()))
}

func (d Decimal) Mul(o Decimal) Decimal {
	return wrap(new(big.Rat).Mul(d.Rat(), o.Rat()))
}

func (d Decimal) Quo(o Decimal) (Decimal, error) {
	if o.IsZero() {
		return Decimal{}, fmt.Errorf("decimaltime: division by zero")
	}
	return wrap(new(big.Rat).Quo(d.Rat(), o.Rat())), nil
}

func (d Decimal) Neg() Decimal {
	return wrap(new(big.Rat).Neg(d.Rat()))
}

// PowInt raises d to an integer power exactly, including negative
// exponents (d must be non-zero in that case).
func (d Decimal) PowInt(n int) (Decimal, error) {
	if n == 0 {
		return FromInt64(1), nil
	}
	neg := n < 0
	if neg {
		n = -n
		if d.IsZero() {
			return Decimal{}, fmt.Errorf("decimaltime: zero raised to a negative power")
		}
	}
	result := FromInt64(1)
	base := d
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}
	if neg {
		return FromInt64(1).Quo(result)
	}
	return result, nil
}

// PowFloat raises d to a real power. The result can only be approximate
// (an irrational power of a rational is, in general, irrational), so it
// is rebuilt from the nearest float64 rather than claimed exact.
func (d Decimal) PowFloat(exp float64) Decimal {
	return FromFloat64(math.Pow(d.Float64(), exp))
}

func (d Decimal) Cmp(o Decimal) int {
	return d.Rat().Cmp(o.Rat())
}

func (d Decimal) LessThan(o Decimal) bool    { return d.Cmp(o) < 0 }
func (d Decimal) GreaterThan(o Decimal) bool { return d.Cmp(o) > 0 }
func (d Decimal) Equal(o Decimal) bool       { return d.Cmp(o) == 0 }
