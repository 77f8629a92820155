package channel

import (
	"shotcompile/internal/instruction"
	"shotcompile/internal/lane"
)

// NotGate inverts a boolean input sample by sample (spec.md §4.3,
// grounded on channel_output.py's logical operators — the original
// models this the same way, as a TimeIndependentMapping over a single
// boolean input).
type NotGate struct {
	Input Output
}

func (g NotGate) MaxAdvanceAndDelay(ctx Context) (int64, int64, error) {
	return g.Input.MaxAdvanceAndDelay(ctx)
}

func (g NotGate) Evaluate(ctx Context, prepend, appnd int64) (lane.DimensionedSeries, error) {
	in, err := g.Input.Evaluate(ctx, prepend, appnd)
	if err != nil {
		return lane.DimensionedSeries{}, err
	}
	if in.HasUnit {
		return lane.DimensionedSeries{}, invalidDimensionality("not gate requires a boolean input, got a quantity of dimension %s", in.Dim.Symbol())
	}
	var mismatch bool
	negated := instruction.Map(in.Values, func(v instruction.Value) instruction.Value {
		b, ok := v.(bool)
		if !ok {
			mismatch = true
			return v
		}
		return !b
	}, nil)
	if mismatch {
		return lane.DimensionedSeries{}, invalidValue("not gate requires a boolean input")
	}
	return lane.DimensionedSeries{Values: negated}, nil
}
