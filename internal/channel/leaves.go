package channel

import (
	"shotcompile/internal/instruction"
	"shotcompile/internal/lane"
	"shotcompile/internal/typedexpr"
)

// Constant broadcasts a single time-independent scalar across the
// channel's full tick extent.
type Constant struct {
	Expr *typedexpr.CompiledExpression
}

func (c Constant) MaxAdvanceAndDelay(ctx Context) (int64, int64, error) { return 0, 0, nil }

func (c Constant) Evaluate(ctx Context, prepend, appnd int64) (lane.DimensionedSeries, error) {
	n := baseLength(ctx, prepend, appnd)
	switch c.Expr.Kind() {
	case typedexpr.KindBoolean:
		asBool, err := c.Expr.AsBoolean()
		if err != nil {
			return lane.DimensionedSeries{}, err
		}
		v, err := asBool(ctx.Parameters())
		if err != nil {
			return lane.DimensionedSeries{}, err
		}
		return lane.DimensionedSeries{Values: broadcast(n, v)}, nil
	case typedexpr.KindQuantity:
		u := c.Expr.Dim().BaseUnitName()
		asQty, err := c.Expr.AsQuantity(u)
		if err != nil {
			return lane.DimensionedSeries{}, err
		}
		v, err := asQty(ctx.Parameters())
		if err != nil {
			return lane.DimensionedSeries{}, err
		}
		return lane.DimensionedSeries{Values: broadcast(n, v), Dim: c.Expr.Dim(), HasUnit: true}, nil
	default:
		asFloat, err := c.Expr.AsFloat()
		if err != nil {
			return lane.DimensionedSeries{}, err
		}
		v, err := asFloat(ctx.Parameters())
		if err != nil {
			return lane.DimensionedSeries{}, err
		}
		return lane.DimensionedSeries{Values: broadcast(n, v)}, nil
	}
}

func broadcast(n int64, v instruction.Value) instruction.Instruction {
	return instruction.Repeat(n, instruction.NewPattern(v))
}

// LaneValues reads a named time lane, falling back to Default when no
// lane of that name exists in the current shot (spec.md §4.3).
type LaneValues struct {
	LaneName string
	Default  Output
}

func (lv LaneValues) MaxAdvanceAndDelay(ctx Context) (int64, int64, error) {
	if _, _, ok := ctx.Lane(lv.LaneName); ok {
		return 0, 0, nil
	}
	return lv.Default.MaxAdvanceAndDelay(ctx)
}

func (lv LaneValues) Evaluate(ctx Context, prepend, appnd int64) (lane.DimensionedSeries, error) {
	l, stepBounds, ok := ctx.Lane(lv.LaneName)
	if !ok {
		return lv.Default.Evaluate(ctx, prepend, appnd)
	}
	var series lane.DimensionedSeries
	switch l.Kind {
	case lane.KindDigital:
		inst, err := lane.CompileDigitalLane(l, stepBounds, ctx.TimeStep(), ctx.Parameters())
		if err != nil {
			return lane.DimensionedSeries{}, err
		}
		series = lane.DimensionedSeries{Values: inst}
	case lane.KindAnalog:
		s, err := lane.CompileAnalogLane(l, stepBounds, ctx.TimeStep(), ctx.Parameters())
		if err != nil {
			return lane.DimensionedSeries{}, err
		}
		series = s
	default:
		inst, err := lane.CompileCameraLane(l, stepBounds, ctx.TimeStep())
		if err != nil {
			return lane.DimensionedSeries{}, err
		}
		series = lane.DimensionedSeries{Values: inst}
	}
	return padEdges(series, prepend, appnd), nil
}

// padEdges extends a lane's own series, which only covers the shot's
// base tick extent, to the requested prepend/append budget by holding
// its first and last sample (no lane data exists beyond the shot's own
// bounds to sample instead).
func padEdges(series lane.DimensionedSeries, prepend, appnd int64) lane.DimensionedSeries {
	if prepend == 0 && appnd == 0 {
		return series
	}
	parts := make([]instruction.Instruction, 0, 3)
	if prepend > 0 {
		first := instruction.Expand(instruction.Slice(series.Values, 0, 1))[0]
		parts = append(parts, instruction.Repeat(prepend, instruction.NewPattern(first)))
	}
	parts = append(parts, series.Values)
	if appnd > 0 {
		last := series.Values.Len() - 1
		lastSample := instruction.Expand(instruction.Slice(series.Values, last, last+1))[0]
		parts = append(parts, instruction.Repeat(appnd, instruction.NewPattern(lastSample)))
	}
	series.Values = instruction.Concat(parts...)
	return series
}

// DeviceTrigger reads another device's synthesized trigger waveform,
// falling back to Default when the named device is absent from the
// sequence (spec.md §4.6).
type DeviceTrigger struct {
	DeviceName string
	Default    Output
}

func (dt DeviceTrigger) MaxAdvanceAndDelay(ctx Context) (int64, int64, error) {
	return dt.Default.MaxAdvanceAndDelay(ctx)
}

func (dt DeviceTrigger) Evaluate(ctx Context, prepend, appnd int64) (lane.DimensionedSeries, error) {
	n := baseLength(ctx, prepend, appnd)
	inst, ok, err := ctx.DeviceTrigger(dt.DeviceName, n)
	if err != nil {
		return lane.DimensionedSeries{}, err
	}
	if !ok {
		return dt.Default.Evaluate(ctx, prepend, appnd)
	}
	return lane.DimensionedSeries{Values: inst}, nil
}
