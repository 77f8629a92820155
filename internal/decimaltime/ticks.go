package decimaltime

import "math/big"

// TimeStep is a device's sample period, expressed in nanoseconds.
type TimeStep struct {
	Nanoseconds Decimal
}

func NewTimeStep(ns Decimal) TimeStep { return TimeStep{Nanoseconds: ns} }

// Seconds converts the step's nanosecond period into exact seconds.
func (t TimeStep) Seconds() Decimal {
	return t.Nanoseconds.Mul(nsToSeconds)
}

var nsToSeconds = mustFromString("1e-9")

func mustFromString(s string) Decimal {
	d, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// StartTick returns the included first tick index of the step starting
// at startTime (seconds), per spec.md §9: ceiling division.
func StartTick(startTime Decimal, step TimeStep) int64 {
	return ceilDiv(startTime, step.Seconds())
}

// StopTick returns the excluded tick index one past the step ending at
// stopTime (seconds): ceiling division on the exclusive upper bound.
func StopTick(stopTime Decimal, step TimeStep) int64 {
	return ceilDiv(stopTime, step.Seconds())
}

// NumberTicks returns the number of ticks covering [a, b).
func NumberTicks(a, b Decimal, step TimeStep) int64 {
	return StopTick(b, step) - StartTick(a, step)
}

// RoundTicks rounds a duration (seconds, signed) to the nearest whole
// tick count at the given step, ties to even. Advance and Delay use this
// rather than StartTick/StopTick's ceiling division: they convert a
// standalone shift amount to a tick count, not a half-open range boundary
// (spec.md §4.3).
func RoundTicks(d Decimal, step TimeStep) int64 {
	ratio := new(big.Rat).Quo(d.Rat(), step.Seconds().Rat())
	num := ratio.Num()
	den := ratio.Denom()
	q := new(big.Int)
	r := new(big.Int)
	q.DivMod(num, den, r)
	twice := new(big.Int).Lsh(r, 1)
	switch twice.Cmp(den) {
	case 1:
		q.Add(q, big.NewInt(1))
	case 0:
		if q.Bit(0) == 1 {
			q.Add(q, big.NewInt(1))
		}
	}
	return q.Int64()
}

// ceilDiv computes ceil(a/b) exactly for b > 0.
func ceilDiv(a, b Decimal) int64 {
	ratio := new(big.Rat).Quo(a.Rat(), b.Rat())
	num := ratio.Num()
	den := ratio.Denom()
	q := new(big.Int)
	m := new(big.Int)
	q.DivMod(num, den, m)
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q.Int64()
}
