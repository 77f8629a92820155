package device

import (
	"testing"

	"shotcompile/internal/channel"
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/instruction"
	"shotcompile/internal/lane"
	"shotcompile/internal/typedexpr"
)

type fakeContext struct {
	step   decimaltime.TimeStep
	length int64
}

func (c *fakeContext) Parameters() typedexpr.Parameters { return nil }
func (c *fakeContext) TimeStep() decimaltime.TimeStep    { return c.step }
func (c *fakeContext) BaseLength() int64                 { return c.length }
func (c *fakeContext) Lane(name string) (*lane.Lane, []decimaltime.Decimal, bool) {
	return nil, nil, false
}
func (c *fakeContext) DeviceTrigger(deviceName string, length int64) (instruction.Instruction, bool, error) {
	return nil, false, nil
}

var _ channel.Context = (*fakeContext)(nil)

func nsStep(ns int64) decimaltime.TimeStep {
	return decimaltime.NewTimeStep(decimaltime.FromInt64(ns))
}

func constExpr(t *testing.T, source string) channel.Constant {
	t.Helper()
	c, err := typedexpr.Compile(source, typedexpr.NewSchema(), false)
	if err != nil {
		t.Fatalf("compiling %q: %v", source, err)
	}
	return channel.Constant{Expr: c}
}

func TestCompileStacksDigitalAndAnalogChannels(t *testing.T) {
	ctx := &fakeContext{step: nsStep(1), length: 4}
	cfg := Configuration{
		TimeStep: ctx.step,
		Trigger:  SoftwareTrigger{},
		Channels: []ChannelConfig{
			{Kind: ChannelDigital, Output: constExpr(t, "true")},
			{Kind: ChannelAnalog, OutputUnit: "V", Output: constExpr(t, "3 V")},
		},
	}
	c, err := Compile("dev", cfg, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(c.Fields))
	}
	if c.Sequence.Len() != 4 {
		t.Fatalf("Sequence.Len() = %d, want 4", c.Sequence.Len())
	}
}

func TestCompileRejectsAnalogDimensionMismatch(t *testing.T) {
	ctx := &fakeContext{step: nsStep(1), length: 2}
	cfg := Configuration{
		TimeStep: ctx.step,
		Trigger:  SoftwareTrigger{},
		Channels: []ChannelConfig{
			{Kind: ChannelAnalog, OutputUnit: "V", Output: constExpr(t, "3 Hz")},
		},
	}
	_, err := Compile("dev", cfg, ctx)
	if err == nil {
		t.Fatal("expected a dimension mismatch error")
	}
	scErr, ok := err.(*SequencerCompilationError)
	if !ok {
		t.Fatalf("got %T, want *SequencerCompilationError", err)
	}
	if len(scErr.Errors) != 1 || scErr.Errors[0].Index != 0 {
		t.Fatalf("unexpected error set: %v", scErr.Errors)
	}
}

func TestCompileRejectsDigitalWithUnits(t *testing.T) {
	ctx := &fakeContext{step: nsStep(1), length: 2}
	cfg := Configuration{
		TimeStep: ctx.step,
		Trigger:  SoftwareTrigger{},
		Channels: []ChannelConfig{
			{Kind: ChannelDigital, Output: constExpr(t, "3 V")},
		},
	}
	if _, err := Compile("dev", cfg, ctx); err == nil {
		t.Fatal("expected an error for a digital channel with units")
	}
}

func TestCompileAggregatesMultipleChannelFailures(t *testing.T) {
	ctx := &fakeContext{step: nsStep(1), length: 2}
	cfg := Configuration{
		TimeStep: ctx.step,
		Trigger:  SoftwareTrigger{},
		Channels: []ChannelConfig{
			{Kind: ChannelDigital, Output: constExpr(t, "3 V")},
			{Kind: ChannelAnalog, OutputUnit: "V", Output: constExpr(t, "3 Hz")},
		},
	}
	_, err := Compile("dev", cfg, ctx)
	scErr, ok := err.(*SequencerCompilationError)
	if !ok {
		t.Fatalf("got %T, want *SequencerCompilationError", err)
	}
	if len(scErr.Errors) != 2 {
		t.Fatalf("len(Errors) = %d, want 2", len(scErr.Errors))
	}
}

func TestMaxAdvanceAndDelayTakesWidestChannel(t *testing.T) {
	ctx := &fakeContext{step: nsStep(1), length: 3}
	cfg := Configuration{
		Channels: []ChannelConfig{
			{Kind: ChannelDigital, Output: channel.Advance{Amount: constExprQty(t, "1 ns"), Input: constExpr(t, "true")}},
			{Kind: ChannelDigital, Output: channel.Delay{Amount: constExprQty(t, "2 ns"), Input: constExpr(t, "true")}},
		},
	}
	advance, delay, err := maxAdvanceAndDelay(cfg, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if advance != 1 || delay != 2 {
		t.Fatalf("advance=%d delay=%d, want 1,2", advance, delay)
	}
}

func constExprQty(t *testing.T, source string) *typedexpr.CompiledExpression {
	t.Helper()
	c, err := typedexpr.Compile(source, typedexpr.NewSchema(), false)
	if err != nil {
		t.Fatalf("compiling %q: %v", source, err)
	}
	return c
}
