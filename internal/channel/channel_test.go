package channel

import (
	"testing"

	"shotcompile/internal/decimaltime"
	"shotcompile/internal/instruction"
	"shotcompile/internal/lane"
	"shotcompile/internal/typedexpr"
	"shotcompile/internal/units"
)

// testContext is a minimal channel.Context for exercising one channel
// tree in isolation, the way lane_test.go exercises lane compilation
// with bare bounds slices rather than a full shot.
type testContext struct {
	params   typedexpr.Parameters
	step     decimaltime.TimeStep
	length   int64
	lanes    map[string]*lane.Lane
	bounds   []decimaltime.Decimal
	triggers map[string]instruction.Instruction
}

func (c *testContext) Parameters() typedexpr.Parameters { return c.params }
func (c *testContext) TimeStep() decimaltime.TimeStep    { return c.step }
func (c *testContext) BaseLength() int64                 { return c.length }

func (c *testContext) Lane(name string) (*lane.Lane, []decimaltime.Decimal, bool) {
	l, ok := c.lanes[name]
	if !ok {
		return nil, nil, false
	}
	return l, c.bounds, true
}

func (c *testContext) DeviceTrigger(deviceName string, length int64) (instruction.Instruction, bool, error) {
	inst, ok := c.triggers[deviceName]
	return inst, ok, nil
}

var _ Context = (*testContext)(nil)

func mustCompile(t *testing.T, source string, timeDependent bool) *typedexpr.CompiledExpression {
	t.Helper()
	c, err := typedexpr.Compile(source, typedexpr.NewSchema(), timeDependent)
	if err != nil {
		t.Fatalf("compiling %q: %v", source, err)
	}
	return c
}

func nsStep(ns int64) decimaltime.TimeStep {
	return decimaltime.NewTimeStep(decimaltime.FromInt64(ns))
}

func boolPattern(n int64, v bool) instruction.Instruction {
	return instruction.Repeat(n, instruction.NewPattern(instruction.Value(v)))
}

func TestConstantBroadcastsBoolean(t *testing.T) {
	ctx := &testContext{step: nsStep(1), length: 5}
	c := Constant{Expr: mustCompile(t, "true", false)}
	series, err := c.Evaluate(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if series.Values.Len() != 5 {
		t.Fatalf("Len = %d, want 5", series.Values.Len())
	}
}

func TestAdvanceStealsFromPrepend(t *testing.T) {
	ctx := &testContext{step: nsStep(1), length: 3}
	a := Advance{Amount: mustCompile(t, "2 ns", false), Input: Constant{Expr: mustCompile(t, "1", false)}}
	prepend, appnd, err := a.MaxAdvanceAndDelay(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if prepend != 2 || appnd != 0 {
		t.Fatalf("prepend=%d appnd=%d, want 2,0", prepend, appnd)
	}
	series, err := a.Evaluate(ctx, prepend, appnd)
	if err != nil {
		t.Fatal(err)
	}
	if series.Values.Len() != 5 {
		t.Fatalf("Len = %d, want 5 (base 3 + prepend 2)", series.Values.Len())
	}
}

func TestAdvanceRejectsNegativeAmount(t *testing.T) {
	ctx := &testContext{step: nsStep(1), length: 3}
	a := Advance{Amount: mustCompile(t, "-1 ns", false), Input: Constant{Expr: mustCompile(t, "1", false)}}
	if _, _, err := a.MaxAdvanceAndDelay(ctx); err == nil {
		t.Fatal("expected an error for a negative advance")
	}
}

func TestDelayStealsFromAppend(t *testing.T) {
	ctx := &testContext{step: nsStep(1), length: 3}
	d := Delay{Amount: mustCompile(t, "2 ns", false), Input: Constant{Expr: mustCompile(t, "1", false)}}
	prepend, appnd, err := d.MaxAdvanceAndDelay(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if prepend != 0 || appnd != 2 {
		t.Fatalf("prepend=%d appnd=%d, want 0,2", prepend, appnd)
	}
}

func TestNotGateInvertsBooleans(t *testing.T) {
	ctx := &testContext{step: nsStep(1), length: 2}
	g := NotGate{Input: Constant{Expr: mustCompile(t, "true", false)}}
	series, err := g.Evaluate(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range instruction.Expand(series.Values) {
		if v != false {
			t.Fatalf("expected every sample inverted to false, got %v", v)
		}
	}
}

func TestNotGateRejectsNonBoolean(t *testing.T) {
	ctx := &testContext{step: nsStep(1), length: 2}
	g := NotGate{Input: Constant{Expr: mustCompile(t, "1 V", false)}}
	if _, err := g.Evaluate(ctx, 0, 0); err == nil {
		t.Fatal("expected an error for a non-boolean input")
	}
}

func TestBroadenLeftHoldsHighAheadOfRisingEdge(t *testing.T) {
	ctx := &testContext{step: nsStep(1), length: 4}
	in := Constant{Expr: mustCompile(t, "true", false)} // placeholder; real input below
	_ = in
	// Build a [false,false,true,false] input directly rather than through
	// an expression, since BroadenLeft needs a non-constant waveform to
	// show its windowing behavior.
	b := BroadenLeft{Width: mustCompile(t, "1 ns", false), Input: literalBoolInput{
		instruction.NewPattern(instruction.Value(false), instruction.Value(false), instruction.Value(true), instruction.Value(false)),
	}}
	series, err := b.Evaluate(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	got := instruction.Expand(series.Values)
	want := []instruction.Value{false, true, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

// literalBoolInput is a test-only Output that evaluates to a fixed
// instruction, used where a test needs a non-constant waveform without
// going through the expression compiler.
type literalBoolInput struct{ inst instruction.Instruction }

func (l literalBoolInput) MaxAdvanceAndDelay(ctx Context) (int64, int64, error) { return 0, 0, nil }
func (l literalBoolInput) Evaluate(ctx Context, prepend, appnd int64) (lane.DimensionedSeries, error) {
	return lane.DimensionedSeries{Values: l.inst}, nil
}

func TestCalibratedAnalogMappingInterpolatesAndClamps(t *testing.T) {
	ctx := &testContext{step: nsStep(1), length: 1}
	m := NewCalibratedAnalogMapping(
		Constant{Expr: mustCompile(t, "5 V", false)},
		units.Dimension{Voltage: 1}, units.Dimension{Power: 1}, true,
		[]CalibrationPoint{{Input: 0, Output: 0}, {Input: 10, Output: 100}},
	)
	series, err := m.Evaluate(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	got := instruction.Expand(series.Values)[0].(float64)
	if got != 50 {
		t.Fatalf("interpolated = %v, want 50", got)
	}

	above := NewCalibratedAnalogMapping(
		Constant{Expr: mustCompile(t, "50 V", false)},
		units.Dimension{Voltage: 1}, units.Dimension{Power: 1}, true,
		[]CalibrationPoint{{Input: 0, Output: 0}, {Input: 10, Output: 100}},
	)
	series, err = above.Evaluate(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if instruction.Expand(series.Values)[0].(float64) != 100 {
		t.Fatal("expected clamping to the last point's output above the calibration range")
	}
}

func TestCalibrateRampClampsOutOfRangeHeadAndTail(t *testing.T) {
	points := []CalibrationPoint{{Input: 0, Output: 0}, {Input: 10, Output: 100}}
	ramp := &instruction.Ramp{Start: -5, Stop: 15, Length: 20}
	out := calibrateRamp(ramp, points)
	if out.Len() != 20 {
		t.Fatalf("Len = %d, want 20 (ramp length must be preserved even when it exceeds the calibration range)", out.Len())
	}
	samples := instruction.Expand(out)
	if samples[0].(float64) != 0 {
		t.Fatalf("sample 0 = %v, want 0 (clamped to the first point's output)", samples[0])
	}
	if samples[19].(float64) != 100 {
		t.Fatalf("sample 19 = %v, want 100 (clamped to the last point's output)", samples[19])
	}
}

func TestCalibrateRampClampsDecreasingRamp(t *testing.T) {
	points := []CalibrationPoint{{Input: 0, Output: 0}, {Input: 10, Output: 100}}
	ramp := &instruction.Ramp{Start: 15, Stop: -5, Length: 20}
	out := calibrateRamp(ramp, points)
	if out.Len() != 20 {
		t.Fatalf("Len = %d, want 20", out.Len())
	}
	samples := instruction.Expand(out)
	if samples[0].(float64) != 100 {
		t.Fatalf("sample 0 = %v, want 100 (ramp starts above the calibration range)", samples[0])
	}
	if samples[19].(float64) != 0 {
		t.Fatalf("sample 19 = %v, want 0 (ramp ends below the calibration range)", samples[19])
	}
}

func TestPadEdgesToleratesRampEdgeSample(t *testing.T) {
	series := lane.DimensionedSeries{Values: &instruction.Ramp{Start: 0, Stop: 10, Length: 5}}
	padded := padEdges(series, 2, 3)
	if padded.Values.Len() != 10 {
		t.Fatalf("Len = %d, want 10 (5 + prepend 2 + append 3)", padded.Values.Len())
	}
	samples := instruction.Expand(padded.Values)
	if samples[0].(float64) != samples[1].(float64) || samples[1].(float64) != 0 {
		t.Fatalf("prepended samples = %v, want the first ramp sample (0) held twice", samples[:2])
	}
	last := samples[9].(float64)
	if samples[7].(float64) != last || samples[8].(float64) != last {
		t.Fatalf("appended samples = %v, want the last ramp sample held three times", samples[7:])
	}
}

func TestCalibratedAnalogMappingRejectsDimensionMismatch(t *testing.T) {
	ctx := &testContext{step: nsStep(1), length: 1}
	m := NewCalibratedAnalogMapping(
		Constant{Expr: mustCompile(t, "5 Hz", false)},
		units.Dimension{Voltage: 1}, units.Dimension{Power: 1}, true,
		[]CalibrationPoint{{Input: 0, Output: 0}, {Input: 10, Output: 100}},
	)
	if _, err := m.Evaluate(ctx, 0, 0); err == nil {
		t.Fatal("expected an error for an input dimension mismatch")
	}
}

func TestLaneValuesFallsBackToDefault(t *testing.T) {
	ctx := &testContext{step: nsStep(1), length: 2, lanes: map[string]*lane.Lane{}}
	lv := LaneValues{LaneName: "missing", Default: Constant{Expr: mustCompile(t, "true", false)}}
	series, err := lv.Evaluate(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if series.Values.Len() != 2 {
		t.Fatalf("Len = %d, want 2", series.Values.Len())
	}
}

func TestDeviceTriggerFallsBackToDefault(t *testing.T) {
	ctx := &testContext{step: nsStep(1), length: 2, triggers: map[string]instruction.Instruction{}}
	dt := DeviceTrigger{DeviceName: "missing", Default: Constant{Expr: mustCompile(t, "false", false)}}
	series, err := dt.Evaluate(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if series.Values.Len() != 2 {
		t.Fatalf("Len = %d, want 2", series.Values.Len())
	}
}

func TestDeviceTriggerReadsNamedDeviceWaveform(t *testing.T) {
	wave := boolPattern(2, true)
	ctx := &testContext{step: nsStep(1), length: 2, triggers: map[string]instruction.Instruction{"clk": wave}}
	dt := DeviceTrigger{DeviceName: "clk", Default: Constant{Expr: mustCompile(t, "false", false)}}
	series, err := dt.Evaluate(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if series.Values != wave {
		t.Fatal("expected the named device's waveform to be returned verbatim")
	}
}
