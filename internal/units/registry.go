package units

import (
	"math"

	"shotcompile/internal/decimaltime"
)

// Unit is one entry of the static unit table: a name, the dimension it
// carries, and the pair of conversions to and from the canonical base
// unit of that dimension. Most conversions are a fixed scale factor,
// which exactFactor carries as an exact decimaltime.Decimal so that an
// integer-valued magnitude in, say, nanoseconds lands on an exact
// fraction of a second rather than the nearest double to it (spec.md
// §9, "Exact time arithmetic"). dB, dBm, deg and ° have no exact
// rational factor (logarithmic, or an irrational π/180) and
// leave exactFactor nil, falling back to the float64 pair.
type Unit struct {
	Symbol      string
	Dim         Dimension
	toBase      func(float64) float64
	fromBase    func(float64) float64
	exactFactor *decimaltime.Decimal
}

func (u Unit) ToBase(magnitude float64) float64   { return u.toBase(magnitude) }
func (u Unit) FromBase(baseValue float64) float64 { return u.fromBase(baseValue) }

// ToBaseExact is ToBase's exact-arithmetic counterpart: it stays inside
// decimaltime's rational arithmetic for every linear unit, only
// dropping to a float64 round trip for the handful of conversions
// (dB, dBm, deg, °) that have no exact rational factor.
func (u Unit) ToBaseExact(magnitude decimaltime.Decimal) decimaltime.Decimal {
	if u.exactFactor != nil {
		return magnitude.Mul(*u.exactFactor)
	}
	return decimaltime.FromFloat64(u.toBase(magnitude.Float64()))
}

// FromBaseExact is FromBase's exact-arithmetic counterpart, mirroring
// ToBaseExact.
func (u Unit) FromBaseExact(baseValue decimaltime.Decimal) decimaltime.Decimal {
	if u.exactFactor != nil {
		q, err := baseValue.Quo(*u.exactFactor)
		if err == nil {
			return q
		}
	}
	return decimaltime.FromFloat64(u.fromBase(baseValue.Float64()))
}

func linear(factor float64) (func(float64) float64, func(float64) float64) {
	return func(x float64) float64 { return x * factor },
		func(x float64) float64 { return x / factor }
}

// exactLinear builds the float64 conversion pair used for display and
// the exact Decimal factor used for ToBaseExact/FromBaseExact, parsed
// from a decimal literal rather than a Go float64 constant so that a
// factor like "1e-9" is the exact rational 1/1,000,000,000, not the
// nearest double to it.
func exactLinear(factorLiteral string) (func(float64) float64, func(float64) float64, decimaltime.Decimal) {
	factor, err := decimaltime.FromString(factorLiteral)
	if err != nil {
		panic("units: invalid exact factor literal " + factorLiteral)
	}
	to, from := linear(factor.Float64())
	return to, from, factor
}

// registry is the closed unit vocabulary of spec.md §6. Every unit that
// can appear in a shot expression is listed here; there is no mechanism
// to register additional units at runtime.
var registry = buildRegistry()

func buildRegistry() map[string]Unit {
	reg := map[string]Unit{}
	add := func(symbol string, dim Dimension, factorLiteral string) {
		to, from, exact := exactLinear(factorLiteral)
		reg[symbol] = Unit{Symbol: symbol, Dim: dim, toBase: to, fromBase: from, exactFactor: &exact}
	}
	addApprox := func(symbol string, dim Dimension, factor float64) {
		to, from := linear(factor)
		reg[symbol] = Unit{Symbol: symbol, Dim: dim, toBase: to, fromBase: from}
	}

	time := Dimension{Time: 1}
	add("s", time, "1")
	add("ms", time, "1e-3")
	add("us", time, "1e-6")
	add("ns", time, "1e-9")

	freq := Dimension{Time: -1}
	add("Hz", freq, "1")
	add("kHz", freq, "1e3")
	add("MHz", freq, "1e6")
	add("GHz", freq, "1e9")
	add("THz", freq, "1e12")

	power := Dimension{Power: 1}
	add("W", power, "1")
	add("mW", power, "1e-3")

	current := Dimension{Current: 1}
	add("A", current, "1")
	add("mA", current, "1e-3")

	voltage := Dimension{Voltage: 1}
	add("V", voltage, "1")
	add("mV", voltage, "1e-3")

	length := Dimension{Length: 1}
	add("m", length, "1")
	add("mm", length, "1e-3")
	add("um", length, "1e-6")
	add("nm", length, "1e-9")

	angle := Dimension{Angle: 1}
	add("rad", angle, "1")
	// deg's factor, π/180, is irrational: no exact rational represents
	// it, so it keeps the float64-only conversion pair.
	addApprox("deg", angle, math.Pi/180)
	addApprox("°", angle, math.Pi/180)

	// dBm: decibels relative to one milliwatt, base unit W. Logarithmic,
	// so it has no linear factor at all, exact or otherwise.
	reg["dBm"] = Unit{
		Symbol: "dBm",
		Dim:    power,
		toBase: func(x float64) float64 { return 1e-3 * math.Pow(10, x/10) },
		fromBase: func(w float64) float64 {
			return 10 * math.Log10(w/1e-3)
		},
	}
	// dB: a dimensionless power ratio expressed logarithmically.
	reg["dB"] = Unit{
		Symbol: "dB",
		Dim:    Dimension{},
		toBase: func(x float64) float64 { return math.Pow(10, x/10) },
		fromBase: func(ratio float64) float64 {
			return 10 * math.Log10(ratio)
		},
	}

	return reg
}

// Lookup resolves a unit name against the registry. The second return
// value is false for any name outside the closed vocabulary, letting the
// caller raise an UndefinedUnitError with its own source span.
func Lookup(name string) (Unit, bool) {
	u, ok := registry[name]
	return u, ok
}

// Names returns every known unit symbol, for nearest-match suggestions.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
