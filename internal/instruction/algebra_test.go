package instruction

import "testing"

func TestConcatMergesAdjacentPatterns(t *testing.T) {
	i := Concat(NewPattern(true, true), NewPattern(false))
	p, ok := i.(*Pattern)
	if !ok || len(p.Values) != 3 {
		t.Fatalf("expected a single merged Pattern of length 3, got %#v", i)
	}
}

func TestConcatCollapsesIdenticalRuns(t *testing.T) {
	// Two Patterns would merge by concatenation anyway; use non-mergeable
	// Ramps to exercise the Repeated-collapse path specifically.
	r1 := &Ramp{Start: 0, Stop: 1, Length: 4}
	r2 := &Ramp{Start: 0, Stop: 1, Length: 4}
	c := NewPattern(false)
	out := Concat(r1, r2, c)
	rep, ok := out.(*Concatenated)
	if !ok {
		t.Fatalf("expected a Concatenated of [Repeated, Pattern], got %#v", out)
	}
	if _, ok := rep.Children[0].(*Repeated); !ok {
		t.Fatalf("expected the two identical ramps to collapse into a Repeated, got %#v", rep.Children[0])
	}
}

func TestRepeatFlattensNesting(t *testing.T) {
	inner := Repeat(3, NewPattern(true))
	outer := Repeat(4, inner)
	r, ok := outer.(*Repeated)
	if !ok || r.N != 12 {
		t.Fatalf("expected Repeated(12, _), got %#v", outer)
	}
}

func TestSliceOfRepeatedAlignedToPeriod(t *testing.T) {
	i := Repeat(10, NewPattern(true, false))
	s := Slice(i, 4, 8)
	r, ok := s.(*Repeated)
	if !ok || r.N != 2 {
		t.Fatalf("expected Repeated(2, _) for an aligned slice, got %#v", s)
	}
}

func TestSliceOfRamp(t *testing.T) {
	r := &Ramp{Start: 0, Stop: 100, Length: 100}
	s := Slice(r, 10, 20).(*Ramp)
	if s.Length != 10 {
		t.Fatalf("expected length 10, got %d", s.Length)
	}
	if s.Start != 10 || s.Stop != 20 {
		t.Fatalf("expected start=10 stop=20, got start=%v stop=%v", s.Start, s.Stop)
	}
}

func TestMapPreservesRampUnderAffine(t *testing.T) {
	r := &Ramp{Start: 0, Stop: 10, Length: 5}
	out := Map(r, func(v Value) Value { return v.(float64)*2 + 1 }, &AffineFloat{A: 2, B: 1})
	rr, ok := out.(*Ramp)
	if !ok {
		t.Fatalf("expected Ramp to survive an affine map, got %#v", out)
	}
	if rr.Start != 1 || rr.Stop != 21 {
		t.Fatalf("expected start=1 stop=21, got start=%v stop=%v", rr.Start, rr.Stop)
	}
}

func TestMapMaterializesRampUnderNonAffine(t *testing.T) {
	r := &Ramp{Start: 1, Stop: 2, Length: 4}
	out := Map(r, func(v Value) Value { return v.(float64) * v.(float64) }, nil)
	if _, ok := out.(*Pattern); !ok {
		t.Fatalf("expected a materialized Pattern, got %#v", out)
	}
}

func TestExpandFlattensTree(t *testing.T) {
	i := Concat(Repeat(2, NewPattern(true, false)), NewPattern(true))
	got := Expand(i)
	want := []Value{true, false, true, false, true}
	if len(got) != len(want) {
		t.Fatalf("expected length %d, got %d", len(want), len(got))
	}
	for k := range want {
		if got[k] != want[k] {
			t.Fatalf("index %d: expected %v, got %v", k, want[k], got[k])
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	i := Concat(NewPattern(true), NewPattern(true), NewPattern(false))
	n1 := Normalize(i)
	n2 := Normalize(n1)
	if !Equal(n1, n2) {
		t.Fatalf("normalize is not idempotent: %#v vs %#v", n1, n2)
	}
}

func TestStackRejectsMismatchedLengths(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on mismatched stack field lengths")
		}
	}()
	Stack(map[string]Instruction{
		"a": NewPattern(true, true),
		"b": NewPattern(true),
	})
}
