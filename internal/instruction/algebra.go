package instruction

import "reflect"

// Concat joins instructions end to end, merging adjacent Patterns and
// collapsing runs of identical consecutive instructions into a Repeated
// (spec.md §4.5).
func Concat(parts ...Instruction) Instruction {
	var merged []Instruction
	for _, p := range parts {
		if p == nil || p.Len() == 0 {
			continue
		}
		if c, ok := p.(*Concatenated); ok {
			merged = append(merged, c.Children...)
			continue
		}
		merged = append(merged, p)
	}
	merged = mergeAdjacentPatterns(merged)
	merged = collapseRepeats(merged)

	switch len(merged) {
	case 0:
		return &Pattern{}
	case 1:
		return merged[0]
	default:
		var total int64
		for _, c := range merged {
			total += c.Len()
		}
		return &Concatenated{Children: merged, length: total}
	}
}

func mergeAdjacentPatterns(parts []Instruction) []Instruction {
	var out []Instruction
	for _, p := range parts {
		if len(out) > 0 {
			prev, ok1 := out[len(out)-1].(*Pattern)
			cur, ok2 := p.(*Pattern)
			if ok1 && ok2 {
				out[len(out)-1] = &Pattern{Values: append(append([]Value{}, prev.Values...), cur.Values...)}
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// collapseRepeats folds any maximal run of structurally identical
// instructions into a single Repeated node.
func collapseRepeats(parts []Instruction) []Instruction {
	var out []Instruction
	i := 0
	for i < len(parts) {
		j := i + 1
		for j < len(parts) && Equal(parts[i], parts[j]) {
			j++
		}
		run := j - i
		if run == 1 {
			out = append(out, parts[i])
		} else {
			out = append(out, Repeat(int64(run), parts[i]))
		}
		i = j
	}
	return out
}

// Repeat repeats instruction i n times. n=1 is the identity; if i is
// itself Repeated(m, child), the result is Repeated(n*m, child) rather
// than a nested Repeated.
func Repeat(n int64, i Instruction) Instruction {
	if n <= 0 {
		panic("instruction: repeat count must be >= 1")
	}
	if n == 1 {
		return i
	}
	if r, ok := i.(*Repeated); ok {
		return &Repeated{N: n * r.N, Child: r.Child}
	}
	return &Repeated{N: n, Child: i}
}

// Slice returns the sub-instruction covering [a, b).
func Slice(i Instruction, a, b int64) Instruction {
	if a < 0 || b > i.Len() || a > b {
		panic("instruction: slice bounds out of range")
	}
	if a == b {
		return &Pattern{}
	}
	return i.slice(a, b)
}

// Equal reports structural equality of a and b as given; it does not
// normalize them first, so normalize(normalize(I)) == normalize(I)
// (spec.md §8 invariant 6) is checked by comparing Normalize(a) to
// Normalize(b).
func Equal(a, b Instruction) bool {
	if a.Len() != b.Len() {
		return false
	}
	switch av := a.(type) {
	case *Pattern:
		bv, ok := b.(*Pattern)
		return ok && reflect.DeepEqual(av.Values, bv.Values)
	case *Ramp:
		bv, ok := b.(*Ramp)
		return ok && av.Start == bv.Start && av.Stop == bv.Stop && av.Length == bv.Length
	case *Repeated:
		bv, ok := b.(*Repeated)
		return ok && av.N == bv.N && Equal(av.Child, bv.Child)
	case *Concatenated:
		bv, ok := b.(*Concatenated)
		if !ok || len(av.Children) != len(bv.Children) {
			return false
		}
		for k := range av.Children {
			if !Equal(av.Children[k], bv.Children[k]) {
				return false
			}
		}
		return true
	}
	return false
}

// Normalize rebuilds an instruction through Concat/Repeat so that
// adjacent Patterns are merged and trivial Repeated(1, _) are flattened.
func Normalize(i Instruction) Instruction {
	switch v := i.(type) {
	case *Concatenated:
		parts := make([]Instruction, len(v.Children))
		for k, c := range v.Children {
			parts[k] = Normalize(c)
		}
		return Concat(parts...)
	case *Repeated:
		return Repeat(v.N, Normalize(v.Child))
	default:
		return i
	}
}

// MapFn is a pure, pointwise transform over samples.
type MapFn func(Value) Value

// AffineFloat describes a pointwise transform of the form f(x) = a*x + b,
// used by Map to decide whether a Ramp survives as a Ramp.
type AffineFloat struct {
	A, B float64
}

func (f AffineFloat) Apply(x float64) float64 { return f.A*x + f.B }

// Map applies f pointwise. When affine is non-nil and i is a Ramp, the
// Ramp survives by transforming its endpoints instead of materializing
// samples (spec.md §4.5: "Ramp survives only when f is affine").
func Map(i Instruction, f MapFn, affine *AffineFloat) Instruction {
	switch v := i.(type) {
	case *Ramp:
		if affine != nil {
			return &Ramp{Start: affine.Apply(v.Start), Stop: affine.Apply(v.Stop), Length: v.Length}
		}
		return materializeMap(v, f)
	case *Pattern:
		out := make([]Value, len(v.Values))
		for k, val := range v.Values {
			out[k] = f(val)
		}
		return &Pattern{Values: out}
	case *Repeated:
		return Repeat(v.N, Map(v.Child, f, affine))
	case *Concatenated:
		parts := make([]Instruction, len(v.Children))
		for k, c := range v.Children {
			parts[k] = Map(c, f, affine)
		}
		return Concat(parts...)
	}
	panic("instruction: unknown instruction kind")
}

func materializeMap(r *Ramp, f MapFn) Instruction {
	values := make([]Value, r.Length)
	for k := int64(0); k < r.Length; k++ {
		values[k] = f(r.at(k))
	}
	return &Pattern{Values: values}
}

// Stacked is a multi-field instruction: the per-channel instructions a
// device compiler uploads together, all sharing a length.
type Stacked struct {
	Fields map[string]Instruction
	length int64
}

func (s *Stacked) Len() int64 { return s.length }

// Stack combines same-length instructions into one multi-field value.
// Mismatched lengths are a programmer error at this layer (the device
// compiler is responsible for padding every channel to the shot length
// before stacking) and panic rather than returning an error.
func Stack(fields map[string]Instruction) *Stacked {
	var length int64 = -1
	for name, f := range fields {
		if length == -1 {
			length = f.Len()
		} else if f.Len() != length {
			panic("instruction: stack requires all fields to share a length, field " + name + " does not")
		}
	}
	return &Stacked{Fields: fields, length: length}
}

// Expand flattens an instruction into a dense slice. This is the
// explicit, opt-in conversion spec.md §4.5 reserves for the device
// boundary. Inside the compiler it is called by Combine for operands it
// cannot keep compressed, by channel's BroadenLeft and edge padding, and
// by device's change-mask computation.
func Expand(i Instruction) []Value {
	out := make([]Value, i.Len())
	var fill func(Instruction, int64)
	fill = func(node Instruction, offset int64) {
		switch v := node.(type) {
		case *Pattern:
			copy(out[offset:offset+v.Len()], v.Values)
		case *Ramp:
			for k := int64(0); k < v.Length; k++ {
				out[offset+k] = v.at(k)
			}
		case *Repeated:
			childLen := v.Child.Len()
			for r := int64(0); r < v.N; r++ {
				fill(v.Child, offset+r*childLen)
			}
		case *Concatenated:
			o := offset
			for _, c := range v.Children {
				fill(c, o)
				o += c.Len()
			}
		}
	}
	fill(i, 0)
	return out
}
