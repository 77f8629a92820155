// Package units implements the fixed unit registry and dimensional
// quantity arithmetic of spec.md §4.1: a static mapping from unit names
// to dimensional factors and a canonical base unit per dimension.
package units

import "fmt"

// Dimension is an exponent vector over the small set of base physical
// dimensions the closed unit vocabulary of spec.md §6 touches. The zero
// value is dimensionless.
type Dimension struct {
	Time     int
	Length   int
	Current  int
	Voltage  int
	Power    int
	Angle    int
}

func (d Dimension) IsDimensionless() bool {
	return d == Dimension{}
}

func (d Dimension) Add(o Dimension) Dimension {
	return Dimension{
		Time:    d.Time + o.Time,
		Length:  d.Length + o.Length,
		Current: d.Current + o.Current,
		Voltage: d.Voltage + o.Voltage,
		Power:   d.Power + o.Power,
		Angle:   d.Angle + o.Angle,
	}
}

func (d Dimension) Sub(o Dimension) Dimension {
	return Dimension{
		Time:    d.Time - o.Time,
		Length:  d.Length - o.Length,
		Current: d.Current - o.Current,
		Voltage: d.Voltage - o.Voltage,
		Power:   d.Power - o.Power,
		Angle:   d.Angle - o.Angle,
	}
}

func (d Dimension) Scale(n int) Dimension {
	return Dimension{
		Time:    d.Time * n,
		Length:  d.Length * n,
		Current: d.Current * n,
		Voltage: d.Voltage * n,
		Power:   d.Power * n,
		Angle:   d.Angle * n,
	}
}

func (d Dimension) Equal(o Dimension) bool { return d == o }

// BaseUnitName returns the registry unit name that is the canonical base
// unit of d, for the single-axis dimensions the closed vocabulary names
// (Time->"s", -Time->"Hz", Power->"W", Current->"A", Voltage->"V",
// Length->"m", Angle->"rad"). It returns "" for dimensionless and for any
// composite dimension with no single named base unit (e.g. m/s): callers
// treat "" as "the quantity's own base-unit magnitude, no named unit to
// convert through."
func (d Dimension) BaseUnitName() string {
	switch d {
	case (Dimension{Time: 1}):
		return "s"
	case (Dimension{Time: -1}):
		return "Hz"
	case (Dimension{Power: 1}):
		return "W"
	case (Dimension{Current: 1}):
		return "A"
	case (Dimension{Voltage: 1}):
		return "V"
	case (Dimension{Length: 1}):
		return "m"
	case (Dimension{Angle: 1}):
		return "rad"
	default:
		return ""
	}
}

// Symbol renders a human-readable base-unit name for the dimension, used
// in error messages. It recognizes the single-axis dimensions that occur
// in the closed unit vocabulary and falls back to an exponent listing.
func (d Dimension) Symbol() string {
	switch d {
	case Dimension{}:
		return "dimensionless"
	case (Dimension{Time: 1}):
		return "s"
	case (Dimension{Time: -1}):
		return "Hz"
	case (Dimension{Power: 1}):
		return "W"
	case (Dimension{Current: 1}):
		return "A"
	case (Dimension{Voltage: 1}):
		return "V"
	case (Dimension{Length: 1}):
		return "m"
	case (Dimension{Angle: 1}):
		return "rad"
	}
	axes := []struct {
		name string
		exp  int
	}{
		{"Time", d.Time}, {"Length", d.Length}, {"Current", d.Current},
		{"Voltage", d.Voltage}, {"Power", d.Power}, {"Angle", d.Angle},
	}
	s := ""
	for _, a := range axes {
		if a.exp != 0 {
			s += fmt.Sprintf("%s^%d ", a.name, a.exp)
		}
	}
	if s == "" {
		return "dimensionless"
	}
	return s[:len(s)-1]
}
