// Package instruction implements the compressed timed-instruction tree of
// spec.md §4.5: a tree of Pattern, Concatenated, Repeated, and Ramp nodes
// representing a fixed-length sample sequence without materializing it.
package instruction

import "fmt"

// Value is the sample dtype: bool for digital channels, float64 for
// analog ones, or a camera label string ("" meaning no picture taken)
// for camera lanes.
type Value interface{}

// Instruction is any node of the compressed tree.
type Instruction interface {
	Len() int64
	// at returns the single sample at index i, used by map/slice to
	// rebuild boundary values without expanding the whole tree.
	at(i int64) Value
	// slice returns the sub-instruction covering [a, b).
	slice(a, b int64) Instruction
}

// Pattern is a literal, small array of samples repeated implicitly to
// fill its declared span is NOT assumed here: Pattern's Len is exactly
// len(Values). Broadcasting a single value across N ticks is expressed
// as Repeated(n, Pattern([v])).
type Pattern struct {
	Values []Value
}

func NewPattern(values ...Value) *Pattern { return &Pattern{Values: values} }

func (p *Pattern) Len() int64         { return int64(len(p.Values)) }
func (p *Pattern) at(i int64) Value   { return p.Values[i] }
func (p *Pattern) slice(a, b int64) Instruction {
	return &Pattern{Values: append([]Value{}, p.Values[a:b]...)}
}

// Concatenated joins a sequence of instructions end to end.
type Concatenated struct {
	Children []Instruction
	length   int64
}

func (c *Concatenated) Len() int64 { return c.length }

func (c *Concatenated) at(i int64) Value {
	for _, child := range c.Children {
		if i < child.Len() {
			return child.at(i)
		}
		i -= child.Len()
	}
	panic(fmt.Sprintf("instruction: index %d out of range", i))
}

func (c *Concatenated) slice(a, b int64) Instruction {
	var offset int64
	var parts []Instruction
	for _, child := range c.Children {
		childStart := offset
		childEnd := offset + child.Len()
		offset = childEnd
		lo := max64(a, childStart)
		hi := min64(b, childEnd)
		if lo >= hi {
			continue
		}
		parts = append(parts, child.slice(lo-childStart, hi-childStart))
	}
	return Concat(parts...)
}

// Repeated repeats a single child instruction n times.
type Repeated struct {
	N     int64
	Child Instruction
}

func (r *Repeated) Len() int64 { return r.N * r.Child.Len() }

func (r *Repeated) at(i int64) Value {
	return r.Child.at(i % r.Child.Len())
}

func (r *Repeated) slice(a, b int64) Instruction {
	period := r.Child.Len()
	if a%period == 0 && (b-a)%period == 0 {
		return Repeat((b-a)/period, r.Child)
	}
	// Falls outside whole-period alignment: descend via an equivalent
	// Concatenated view rather than materializing the full expansion.
	startRep := a / period
	endRep := (b-1)/period + 1
	parts := make([]Instruction, 0, endRep-startRep)
	for rep := startRep; rep < endRep; rep++ {
		lo := max64(a, rep*period) - rep*period
		hi := min64(b, (rep+1)*period) - rep*period
		parts = append(parts, r.Child.slice(lo, hi))
	}
	return Concat(parts...)
}

// Ramp is a first-class linear interpolation segment from Start to Stop
// (inclusive of Start, exclusive of the value Stop would take at index
// Length — the stored endpoints bracket Length samples) over Length
// ticks. Sample k is Start + (Stop-Start)*k/Length (spec.md §8 invariant
// 4, "Ramp fidelity").
type Ramp struct {
	Start, Stop float64
	Length      int64
}

func (r *Ramp) Len() int64 { return r.Length }

func (r *Ramp) at(i int64) Value {
	if r.Length <= 1 {
		return r.Start
	}
	return r.Start + (r.Stop-r.Start)*float64(i)/float64(r.Length)
}

func (r *Ramp) slice(a, b int64) Instruction {
	n := r.Length
	valueAt := func(i int64) float64 {
		if n <= 1 {
			return r.Start
		}
		return r.Start + (r.Stop-r.Start)*float64(i)/float64(n)
	}
	return &Ramp{Start: valueAt(a), Stop: valueAt(b), Length: b - a}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
