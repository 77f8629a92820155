package lane

import (
	"shotcompile/internal/compileerr"
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/instruction"
	"shotcompile/internal/typedexpr"
	"shotcompile/internal/units"
)

// DimensionedSeries is a timed instruction paired with the base unit it
// is expressed in, per spec.md §4.3/§6. HasUnit is true for an analog
// lane's result (including a dimensionless one) and false for a digital
// lane's result and for an empty analog lane.
type DimensionedSeries struct {
	Values  instruction.Instruction
	Dim     units.Dimension
	HasUnit bool
}

// blockTicks computes the [start,stop) tick range of a block that starts
// at step stepIndex and covers span steps, within a lane whose steps have
// cumulative boundary times stepBounds (length numSteps+1, seconds).
func blockTicks(stepBounds []decimaltime.Decimal, stepIndex int, span int64, step decimaltime.TimeStep) (start, stop int64) {
	startTime := stepBounds[stepIndex]
	stopTime := stepBounds[int64(stepIndex)+span]
	return decimaltime.StartTick(startTime, step), decimaltime.StopTick(stopTime, step)
}

// CompileDigitalLane emits a boolean timed instruction covering the
// lane's full tick extent (spec.md §4.4, "Digital lane").
func CompileDigitalLane(l *Lane, stepBounds []decimaltime.Decimal, step decimaltime.TimeStep, params typedexpr.Parameters) (instruction.Instruction, error) {
	var parts []instruction.Instruction
	stepIndex := 0
	for _, b := range l.Blocks {
		tickStart, tickStop := blockTicks(stepBounds, stepIndex, b.Span, step)
		length := tickStop - tickStart
		stepIndex += int(b.Span)
		if length <= 0 {
			continue
		}
		v, err := evalDigitalBlock(b.Value, params)
		if err != nil {
			return nil, err
		}
		parts = append(parts, instruction.Repeat(length, instruction.NewPattern(instruction.Value(v))))
	}
	return instruction.Concat(parts...), nil
}

func evalDigitalBlock(value interface{}, params typedexpr.Parameters) (bool, error) {
	switch v := value.(type) {
	case DigitalConstant:
		return bool(v), nil
	case DigitalExpr:
		asBool, err := v.Expr.AsBoolean()
		if err != nil {
			return false, err
		}
		return asBool(params)
	default:
		panic("lane: unrecognized digital block value")
	}
}

// CompileAnalogLane runs the two-pass algorithm of spec.md §4.4:
// non-ramp blocks are evaluated directly, then each Ramp block is
// resolved from its resolved neighbors' boundary values.
func CompileAnalogLane(l *Lane, stepBounds []decimaltime.Decimal, step decimaltime.TimeStep, params typedexpr.Parameters) (DimensionedSeries, error) {
	n := len(l.Blocks)
	if n == 0 {
		return DimensionedSeries{Values: &instruction.Pattern{}}, nil
	}

	tickStarts := make([]int64, n)
	tickStops := make([]int64, n)
	timeStarts := make([]decimaltime.Decimal, n)
	timeStops := make([]decimaltime.Decimal, n)
	stepIndex := 0
	for i, b := range l.Blocks {
		timeStarts[i], timeStops[i] = stepBounds[stepIndex], stepBounds[stepIndex+int(b.Span)]
		tickStarts[i], tickStops[i] = blockTicks(stepBounds, stepIndex, b.Span, step)
		stepIndex += int(b.Span)
	}

	results := make([]*typedexpr.EvaluationResult, n)
	isRamp := make([]bool, n)
	var commonDim units.Dimension
	dimSet := false

	for i, b := range l.Blocks {
		expr, ok := b.Value.(AnalogExpr)
		if !ok {
			isRamp[i] = true
			continue
		}
		r, err := expr.Expr.EvaluateSeries(params, timeStarts[i], timeStops[i], step)
		if err != nil {
			return DimensionedSeries{}, err
		}
		if !dimSet {
			commonDim = r.Unit
			dimSet = true
		} else if !commonDim.Equal(r.Unit) {
			return DimensionedSeries{}, compileerr.New(compileerr.KindInvalidDimensionality, compileerr.Span{},
				"analog lane mixes incompatible units %s and %s", commonDim.Symbol(), r.Unit.Symbol())
		}
		results[i] = &r
	}

	for i := range l.Blocks {
		if !isRamp[i] {
			continue
		}
		if i == 0 || i == n-1 {
			return DimensionedSeries{}, compileerr.New(compileerr.KindInvalidValue, compileerr.Span{},
				"a ramp block cannot be the first or last block of a lane")
		}
		if isRamp[i-1] || isRamp[i+1] {
			return DimensionedSeries{}, compileerr.New(compileerr.KindInvalidValue, compileerr.Span{},
				"two consecutive ramp blocks are not allowed")
		}
		start := results[i-1].Final
		stop := results[i+1].Initial
		length := tickStops[i] - tickStarts[i]
		results[i] = &typedexpr.EvaluationResult{
			Values: &instruction.Ramp{Start: start.Num.Magnitude.Float64(), Stop: stop.Num.Magnitude.Float64(), Length: length},
			Unit:   commonDim,
		}
	}

	var parts []instruction.Instruction
	for i := range l.Blocks {
		length := tickStops[i] - tickStarts[i]
		if length <= 0 {
			continue
		}
		parts = append(parts, results[i].Values)
	}
	return DimensionedSeries{Values: instruction.Concat(parts...), Dim: commonDim, HasUnit: dimSet}, nil
}

// CompileCameraLane reflects the original compiler's camera timelane
// handling (supplemented feature, not named in spec.md's own compile
// operations): a Pattern of optional TakePicture markers, one sample per
// tick, laid out the same way a digital lane's blocks are.
func CompileCameraLane(l *Lane, stepBounds []decimaltime.Decimal, step decimaltime.TimeStep) (instruction.Instruction, error) {
	var parts []instruction.Instruction
	stepIndex := 0
	for _, b := range l.Blocks {
		tickStart, tickStop := blockTicks(stepBounds, stepIndex, b.Span, step)
		length := tickStop - tickStart
		stepIndex += int(b.Span)
		if length <= 0 {
			continue
		}
		var v instruction.Value
		switch cv := b.Value.(type) {
		case CameraNone:
			v = ""
		case TakePicture:
			v = cv.Label
		default:
			panic("lane: unrecognized camera block value")
		}
		parts = append(parts, instruction.Repeat(length, instruction.NewPattern(v)))
	}
	return instruction.Concat(parts...), nil
}
