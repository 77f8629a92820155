// Package channel implements the channel-output tree and evaluator of
// spec.md §4.3: a declarative sum type of operators composed over lane
// values, device triggers, and calibrated mappings, each evaluating to
// a DimensionedSeries over a device's tick grid.
package channel

import (
	"shotcompile/internal/compileerr"
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/instruction"
	"shotcompile/internal/lane"
	"shotcompile/internal/typedexpr"
)

// Context is the evaluation environment a channel tree is walked
// against: the parameter bindings, the current device's time step and
// base tick length, lookup of named lanes (with their step boundary
// times), and the other devices in the same sequence for DeviceTrigger.
// internal/shot implements this interface; internal/channel never
// constructs one itself, only consumes it (spec.md §4.6, "a ShotContext
// exposing parameters, time lanes, and the set of other device
// compilers in the same sequence").
type Context interface {
	Parameters() typedexpr.Parameters
	TimeStep() decimaltime.TimeStep
	BaseLength() int64
	Lane(name string) (l *lane.Lane, stepBounds []decimaltime.Decimal, ok bool)
	DeviceTrigger(deviceName string, length int64) (instruction.Instruction, bool, error)
}

// Output is any node of the channel-output tree.
type Output interface {
	// MaxAdvanceAndDelay returns the additional prepend/append tick
	// count this subtree asks the device compiler to reserve, the
	// maximum over its inputs plus its own contribution (spec.md §4.3).
	MaxAdvanceAndDelay(ctx Context) (prepend, appnd int64, err error)
	// Evaluate returns a DimensionedSeries of length
	// ctx.BaseLength()+prepend+appnd.
	Evaluate(ctx Context, prepend, appnd int64) (lane.DimensionedSeries, error)
}

func baseLength(ctx Context, prepend, appnd int64) int64 { return ctx.BaseLength() + prepend + appnd }

func invalidValue(format string, args ...interface{}) error {
	return compileerr.New(compileerr.KindInvalidValue, compileerr.Span{}, format, args...)
}

func invalidDimensionality(format string, args ...interface{}) error {
	return compileerr.New(compileerr.KindInvalidDimensionality, compileerr.Span{}, format, args...)
}
