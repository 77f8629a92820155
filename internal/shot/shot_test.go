package shot

import (
	"testing"

	"shotcompile/internal/decimaltime"
	"shotcompile/internal/lane"
	"shotcompile/internal/typedexpr"
)

func mustCompile(t *testing.T, source string, timeDependent bool) *typedexpr.CompiledExpression {
	t.Helper()
	c, err := typedexpr.Compile(source, typedexpr.NewSchema(), timeDependent)
	if err != nil {
		t.Fatalf("compiling %q: %v", source, err)
	}
	return c
}

func digitalLane(spans ...int64) *lane.Lane {
	blocks := make([]lane.Block, len(spans))
	for i, span := range spans {
		blocks[i] = lane.Block{Value: lane.DigitalConstant(false), Span: span}
	}
	return &lane.Lane{Kind: lane.KindDigital, Blocks: blocks}
}

func TestTimeLanesValidateRejectsDurationCountMismatch(t *testing.T) {
	l := TimeLanes{
		StepNames:     []string{"a", "b"},
		StepDurations: []*typedexpr.CompiledExpression{mustCompile(t, "1 ms", false)},
	}
	if err := l.validate(); err == nil {
		t.Fatal("expected an error for a step name/duration count mismatch")
	}
}

func TestTimeLanesValidateRejectsLaneSpanMismatch(t *testing.T) {
	l := TimeLanes{
		StepNames:     []string{"a", "b"},
		StepDurations: []*typedexpr.CompiledExpression{mustCompile(t, "1 ms", false), mustCompile(t, "1 ms", false)},
		Lanes:         map[string]*lane.Lane{"ttl": digitalLane(1)},
	}
	if err := l.validate(); err == nil {
		t.Fatal("expected an error for a lane whose total span doesn't match the step count")
	}
}

func TestTimeLanesValidateAcceptsMatchingSpans(t *testing.T) {
	l := TimeLanes{
		StepNames:     []string{"a", "b"},
		StepDurations: []*typedexpr.CompiledExpression{mustCompile(t, "1 ms", false), mustCompile(t, "1 ms", false)},
		Lanes:         map[string]*lane.Lane{"ttl": digitalLane(1, 1)},
	}
	if err := l.validate(); err != nil {
		t.Fatal(err)
	}
}

func TestStepBoundsAccumulatesDurations(t *testing.T) {
	s := &Shot{
		Lanes: TimeLanes{
			StepNames:     []string{"a", "b"},
			StepDurations: []*typedexpr.CompiledExpression{mustCompile(t, "1 ms", false), mustCompile(t, "2 ms", false)},
		},
	}
	bounds, err := stepBounds(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(bounds) != 3 {
		t.Fatalf("len(bounds) = %d, want 3", len(bounds))
	}
	// Exact equality, not a tolerance window: stepBounds must never
	// round-trip a duration through float64, so a millisecond literal
	// lands on exactly 1/1000 and 3/1000, not their nearest doubles.
	if !bounds[0].Equal(decimaltime.Zero()) {
		t.Fatalf("bounds[0] = %s, want 0", bounds[0])
	}
	oneMs, err := decimaltime.FromString("0.001")
	if err != nil {
		t.Fatal(err)
	}
	threeMs, err := decimaltime.FromString("0.003")
	if err != nil {
		t.Fatal(err)
	}
	if !bounds[1].Equal(oneMs) {
		t.Fatalf("bounds[1] = %s, want exactly %s", bounds[1], oneMs)
	}
	if !bounds[2].Equal(threeMs) {
		t.Fatalf("bounds[2] = %s, want exactly %s", bounds[2], threeMs)
	}
}
