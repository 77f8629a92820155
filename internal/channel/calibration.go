package channel

import (
	"math"
	"sort"

	"shotcompile/internal/instruction"
	"shotcompile/internal/lane"
	"shotcompile/internal/units"
)

// CalibrationPoint is one (input, output) pair of a piecewise-linear
// calibration curve, both magnitudes expressed in their respective base
// unit (_calibrated_analog_mapping.py's measured_data_points).
type CalibrationPoint struct {
	Input, Output float64
}

// CalibratedAnalogMapping maps its input through a piecewise-linear
// interpolation of measured (input, output) points (spec.md §4.3). It is
// a TimeIndependentMapping in the original's terms: it asks for no
// prepend/append ticks of its own, only passing through its input's
// requirement.
type CalibratedAnalogMapping struct {
	Input      Output
	InputDim   units.Dimension
	OutputDim  units.Dimension
	HasOutput  bool // false iff OutputDim is a bare (unitless) number
	Points     []CalibrationPoint
}

// NewCalibratedAnalogMapping sorts points by input value, as the original
// converter for measured_data_points does, so interpolation below can
// assume ascending order.
func NewCalibratedAnalogMapping(input Output, inputDim, outputDim units.Dimension, hasOutput bool, points []CalibrationPoint) CalibratedAnalogMapping {
	sorted := append([]CalibrationPoint{}, points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Input < sorted[j].Input })
	return CalibratedAnalogMapping{Input: input, InputDim: inputDim, OutputDim: outputDim, HasOutput: hasOutput, Points: sorted}
}

func (m CalibratedAnalogMapping) MaxAdvanceAndDelay(ctx Context) (int64, int64, error) {
	return m.Input.MaxAdvanceAndDelay(ctx)
}

func (m CalibratedAnalogMapping) Evaluate(ctx Context, prepend, appnd int64) (lane.DimensionedSeries, error) {
	if len(m.Points) < 2 {
		return lane.DimensionedSeries{}, invalidValue("a calibration must have at least 2 data points")
	}
	in, err := m.Input.Evaluate(ctx, prepend, appnd)
	if err != nil {
		return lane.DimensionedSeries{}, err
	}
	if !in.Dim.Equal(m.InputDim) {
		return lane.DimensionedSeries{}, invalidDimensionality(
			"can't apply a calibration expecting dimension %s to an input of dimension %s",
			m.InputDim.Symbol(), in.Dim.Symbol())
	}
	out := applyCalibration(in.Values, m.Points)
	return lane.DimensionedSeries{Values: out, Dim: m.OutputDim, HasUnit: m.HasOutput}, nil
}

// interp linearly interpolates x against points, clamping to the
// endpoint outputs outside [points[0].Input, points[len-1].Input] (the
// original's np.interp default boundary behavior, spec.md's component
// table: "values outside [x_min, x_max] clamp to the endpoint outputs").
func interp(x float64, points []CalibrationPoint) float64 {
	if x <= points[0].Input {
		return points[0].Output
	}
	last := len(points) - 1
	if x >= points[last].Input {
		return points[last].Output
	}
	for i := 0; i < last; i++ {
		x0, x1 := points[i].Input, points[i+1].Input
		if x >= x0 && x <= x1 {
			if x1 == x0 {
				return points[i].Output
			}
			t := (x - x0) / (x1 - x0)
			return points[i].Output + t*(points[i+1].Output-points[i].Output)
		}
	}
	return points[last].Output
}

// applyCalibration walks the tree applying interp pointwise, except for a
// Ramp: there it reproduces _apply_calibration_ramp's segment splitting,
// so a ramp that never crosses a calibration breakpoint survives as a
// single Ramp, and one that crosses several emits a Concatenated of
// per-segment Ramps rather than materializing the whole thing into a
// Pattern (the Decided Open Question in DESIGN.md: ramps stay first-class
// as long as possible).
func applyCalibration(i instruction.Instruction, points []CalibrationPoint) instruction.Instruction {
	switch v := i.(type) {
	case *instruction.Ramp:
		return calibrateRamp(v, points)
	case *instruction.Repeated:
		return instruction.Repeat(v.N, applyCalibration(v.Child, points))
	case *instruction.Concatenated:
		parts := make([]instruction.Instruction, len(v.Children))
		for k, c := range v.Children {
			parts[k] = applyCalibration(c, points)
		}
		return instruction.Concat(parts...)
	default:
		return instruction.Map(i, func(val instruction.Value) instruction.Value {
			return interp(val.(float64), points)
		}, nil)
	}
}

func calibrateRamp(r *instruction.Ramp, points []CalibrationPoint) instruction.Instruction {
	l := r.Length
	if l <= 0 {
		return &instruction.Pattern{}
	}
	a, b := r.Start, r.Stop
	if a == b {
		return instruction.Repeat(l, instruction.NewPattern(instruction.Value(interp(a, points))))
	}
	rampValueAt := func(k int64) float64 { return a + (b-a)*float64(k)/float64(l) }

	type bound struct{ lo, hi float64 }
	segs := make([]bound, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		x0, x1 := points[i].Input, points[i+1].Input
		var lo, hi float64
		if b > a {
			lo, hi = float64(l)*(x0-a)/(b-a), float64(l)*(x1-a)/(b-a)
		} else {
			lo, hi = float64(l)*(x1-a)/(b-a), float64(l)*(x0-a)/(b-a)
		}
		segs = append(segs, bound{lo, hi})
	}
	if b < a {
		for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
			segs[i], segs[j] = segs[j], segs[i]
		}
	}

	var parts []instruction.Instruction

	// Ticks before the first breakpoint interval never cross into the
	// calibration's measured range at all; interp clamps them to a
	// constant points[0].Output for the whole region, so a single
	// leading Pattern covers it rather than letting the per-segment
	// loop below silently drop them (spec.md component table: "values
	// outside [x_min, x_max] clamp to the endpoint outputs").
	headTicks := int64(math.Ceil(clampF(segs[0].lo, 0, float64(l))))
	if headTicks > 0 {
		parts = append(parts, instruction.Repeat(headTicks, instruction.NewPattern(instruction.Value(interp(a, points)))))
	}

	for _, s := range segs {
		lo, hi := clampF(s.lo, 0, float64(l)), clampF(s.hi, 0, float64(l))
		iMin, iMax := int64(math.Ceil(lo)), int64(math.Ceil(hi))
		if iMax == iMin {
			continue
		}
		y0 := interp(rampValueAt(iMin), points)
		if iMax == iMin+1 {
			parts = append(parts, instruction.NewPattern(instruction.Value(y0)))
			continue
		}
		y1 := interp(rampValueAt(iMax-1), points)
		length := iMax - iMin
		stop := y0 + float64(length)*(y1-y0)/float64(length-1)
		parts = append(parts, &instruction.Ramp{Start: y0, Stop: stop, Length: length})
	}

	// Symmetric tail clamp for ticks past the last breakpoint interval.
	tailStart := int64(math.Ceil(clampF(segs[len(segs)-1].hi, 0, float64(l))))
	if tailTicks := l - tailStart; tailTicks > 0 {
		parts = append(parts, instruction.Repeat(tailTicks, instruction.NewPattern(instruction.Value(interp(b, points)))))
	}

	return instruction.Concat(parts...)
}

func clampF(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
