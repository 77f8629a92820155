package channel

import (
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/instruction"
	"shotcompile/internal/lane"
	"shotcompile/internal/typedexpr"
	"shotcompile/internal/units"
)

// timeTicks evaluates a Time-dimensioned expression and rounds it to the
// nearest tick count at the device's time step (round to even on a tie),
// matching the original compiler's use of Python's round() rather than
// the ceiling division TimeLanes boundaries use (spec.md §4.3).
func timeTicks(expr *typedexpr.CompiledExpression, ctx Context) (int64, error) {
	if expr.Kind() != typedexpr.KindQuantity || !expr.Dim().Equal(units.Dimension{Time: 1}) {
		return 0, invalidDimensionality("expected a Time quantity, got %s", expr.Kind())
	}
	asSeconds, err := expr.AsQuantityExact("s")
	if err != nil {
		return 0, err
	}
	seconds, err := asSeconds(ctx.Parameters())
	if err != nil {
		return 0, err
	}
	return decimaltime.RoundTicks(seconds, ctx.TimeStep()), nil
}

// Advance shifts its input earlier by Amount, stealing ticks from the
// prepend budget and handing them to the append budget of its input
// (spec.md §4.3, ported from _timing.py's Advance, which does not slice
// its own output: it redistributes the prepend/append split it was
// handed and lets the recursive evaluation do the shifting).
type Advance struct {
	Amount *typedexpr.CompiledExpression
	Input  Output
}

func (a Advance) MaxAdvanceAndDelay(ctx Context) (int64, int64, error) {
	n, err := timeTicks(a.Amount, ctx)
	if err != nil {
		return 0, 0, err
	}
	if n < 0 {
		return 0, 0, invalidValue("advance must be a positive number of time steps")
	}
	prepend, appnd, err := a.Input.MaxAdvanceAndDelay(ctx)
	if err != nil {
		return 0, 0, err
	}
	return n + prepend, appnd, nil
}

func (a Advance) Evaluate(ctx Context, prepend, appnd int64) (lane.DimensionedSeries, error) {
	n, err := timeTicks(a.Amount, ctx)
	if err != nil {
		return lane.DimensionedSeries{}, err
	}
	if n < 0 {
		return lane.DimensionedSeries{}, invalidValue("cannot advance by a negative number of time steps (%d)", n)
	}
	if n > prepend {
		return lane.DimensionedSeries{}, invalidValue("cannot advance by %d time steps when only %d are available", n, prepend)
	}
	return a.Input.Evaluate(ctx, prepend-n, appnd+n)
}

// Delay shifts its input later by Amount, the mirror of Advance: it
// steals from the append budget and hands the ticks to prepend. Like the
// original, it validates only that the delay itself is non-negative; the
// corresponding append budget is guaranteed sufficient by the device
// compiler's aggregate max-advance/max-delay pass over the whole tree,
// not rechecked locally here (spec.md §4.6).
type Delay struct {
	Amount *typedexpr.CompiledExpression
	Input  Output
}

func (d Delay) MaxAdvanceAndDelay(ctx Context) (int64, int64, error) {
	n, err := timeTicks(d.Amount, ctx)
	if err != nil {
		return 0, 0, err
	}
	if n < 0 {
		return 0, 0, invalidValue("delay must be a positive number of time steps")
	}
	prepend, appnd, err := d.Input.MaxAdvanceAndDelay(ctx)
	if err != nil {
		return 0, 0, err
	}
	return prepend, n + appnd, nil
}

func (d Delay) Evaluate(ctx Context, prepend, appnd int64) (lane.DimensionedSeries, error) {
	n, err := timeTicks(d.Amount, ctx)
	if err != nil {
		return lane.DimensionedSeries{}, err
	}
	if n < 0 {
		return lane.DimensionedSeries{}, invalidValue("cannot delay by a negative number of time steps (%d)", n)
	}
	return d.Input.Evaluate(ctx, prepend+n, appnd-n)
}

// BroadenLeft holds its boolean input high ahead of every rising edge, to
// compensate for hardware with a finite response time: the output at
// tick t is high whenever the input is high anywhere in [t, t+width]
// (spec.md §4.3; the docstring of the original _timing.py's BroadenLeft,
// whose own evaluate was never implemented, gives this as the intended
// definition almost verbatim). The window only ever looks forward, so it
// can run past the lane's last tick (clipped there by shrinking the
// window) but never needs a sample before tick zero.
//
// BroadenLeft does not itself ask for extra prepend/append ticks: it
// only rearranges samples already present in its input's own window,
// the same contribution-free pattern the original gives
// TimeIndependentMapping for calibration (_evaluate_max_advance_and_delay
// never defines a case for BroadenLeft at all).
type BroadenLeft struct {
	Width *typedexpr.CompiledExpression
	Input Output
}

func (b BroadenLeft) MaxAdvanceAndDelay(ctx Context) (int64, int64, error) {
	return b.Input.MaxAdvanceAndDelay(ctx)
}

func (b BroadenLeft) Evaluate(ctx Context, prepend, appnd int64) (lane.DimensionedSeries, error) {
	in, err := b.Input.Evaluate(ctx, prepend, appnd)
	if err != nil {
		return lane.DimensionedSeries{}, err
	}
	width, err := timeTicks(b.Width, ctx)
	if err != nil {
		return lane.DimensionedSeries{}, err
	}
	if width < 0 {
		return lane.DimensionedSeries{}, invalidValue("broaden-left width must not be negative")
	}
	samples := instruction.Expand(in.Values)
	bools := make([]bool, len(samples))
	for i, v := range samples {
		bv, ok := v.(bool)
		if !ok {
			return lane.DimensionedSeries{}, invalidValue("broaden-left requires a boolean input")
		}
		bools[i] = bv
	}
	out := make([]instruction.Value, len(bools))
	n := int64(len(bools))
	for t := int64(0); t < n; t++ {
		stop := t + width
		if stop > n-1 {
			stop = n - 1
		}
		high := false
		for s := t; s <= stop; s++ {
			if bools[s] {
				high = true
				break
			}
		}
		out[t] = high
	}
	return lane.DimensionedSeries{Values: instruction.NewPattern(out...)}, nil
}
