package device

import (
	"math/big"
	"sort"

	"shotcompile/internal/decimaltime"
	"shotcompile/internal/instruction"
)

// TriggerEdge is the polarity a trigger or clock line is read on. The
// compiler itself never inverts a waveform for this (no device in the
// pack needs it to), but it is carried through so a backend driver can
// configure its input accordingly (spec.md §3, "trigger: one of...").
type TriggerEdge int

const (
	EdgeRising TriggerEdge = iota
	EdgeFalling
)

func (e TriggerEdge) String() string {
	if e == EdgeFalling {
		return "falling"
	}
	return "rising"
}

// Trigger is the closed sum type of ways a device can be started or
// clocked by another device (spec.md §4.6).
type Trigger interface{ isTrigger() }

// SoftwareTrigger means the device starts on its own; it has no
// waveform another device's DeviceTrigger could read.
type SoftwareTrigger struct{}

func (SoftwareTrigger) isTrigger() {}

// ExternalTriggerStart means the device starts on a single pulse from
// another device and then free-runs; SynthesizeTrigger reproduces this
// as one fixed-width pulse at tick 0 (compute_shot_parameters.py's
// compile_clock_instruction hard-codes this pulse at 10 ticks of the
// triggering device).
type ExternalTriggerStart struct{ Edge TriggerEdge }

func (ExternalTriggerStart) isTrigger() {}

// ExternalClock means the device is clocked continuously at its own
// time step by a square wave from another device (spec.md §4.6, "Clock
// discipline").
type ExternalClock struct{ Edge TriggerEdge }

func (ExternalClock) isTrigger() {}

// ExternalClockOnChange is ExternalClock with ticks suppressed during
// any run where the device's own compiled output does not change value,
// to avoid clocking through a long constant stretch (spec.md §4.6).
type ExternalClockOnChange struct{ Edge TriggerEdge }

func (ExternalClockOnChange) isTrigger() {}

// triggerStartPulseWidth is the fixed width, in ticks of the triggering
// device, of the single pulse ExternalTriggerStart emits
// (compute_shot_parameters.py's compile_clock_instruction: Pattern([True]) * 10).
const triggerStartPulseWidth = 10

// SynthesizeTrigger builds the waveform a triggering device emits to
// drive target, expressed at currentStep resolution over n ticks
// (spec.md §4.6 step 4). targetFields is target's own already-compiled,
// unstacked per-channel instructions at target's own tick resolution;
// it is only consulted for ExternalClockOnChange, to find where target's
// output is locally constant.
func SynthesizeTrigger(target Configuration, targetFields map[string]instruction.Instruction, currentStep decimaltime.TimeStep, n int64) (instruction.Instruction, error) {
	switch t := target.Trigger.(type) {
	case SoftwareTrigger:
		return nil, invalidValue("target device has a software trigger and emits no waveform another device can read")
	case ExternalTriggerStart:
		_ = t
		return triggerStartWaveform(n), nil
	case ExternalClock:
		_ = t
		high, low, _, err := clockTicks(target.TimeStep, currentStep)
		if err != nil {
			return nil, err
		}
		return clockWaveform(high, low, n), nil
	case ExternalClockOnChange:
		_ = t
		high, low, _, err := clockTicks(target.TimeStep, currentStep)
		if err != nil {
			return nil, err
		}
		pulse := clockSinglePulse(high, low)
		changed := changeMask(targetFields)
		return adaptiveClock(changed, pulse, n), nil
	default:
		panic("device: unrecognized trigger kind")
	}
}

// clockTicks implements the Clock discipline invariant (spec.md §8
// invariant 5): target's time step must be an integer multiple of at
// least 2 of current's, ported from compute_shot_parameters.py's
// high_low_clicks. It returns the high/low tick counts of one clock
// period and the multiplier itself.
func clockTicks(target, current decimaltime.TimeStep) (high, low, multiplier int64, err error) {
	ratio := new(big.Rat).Quo(target.Nanoseconds.Rat(), current.Nanoseconds.Rat())
	if !ratio.IsInt() {
		return 0, 0, 0, invalidValue("target device's time step must be an exact integer multiple of the clocking device's time step")
	}
	m := ratio.Num().Int64()
	if m < 2 {
		return 0, 0, 0, invalidValue("target device's time step must be at least twice the clocking device's time step, got a multiple of %d", m)
	}
	if m%2 == 0 {
		return m / 2, m / 2, m, nil
	}
	return m/2 + 1, m / 2, m, nil
}

func triggerStartWaveform(n int64) instruction.Instruction {
	width := int64(triggerStartPulseWidth)
	if width > n {
		width = n
	}
	var parts []instruction.Instruction
	if width > 0 {
		parts = append(parts, instruction.Repeat(width, instruction.NewPattern(instruction.Value(true))))
	}
	if n-width > 0 {
		parts = append(parts, instruction.Repeat(n-width, instruction.NewPattern(instruction.Value(false))))
	}
	return instruction.Concat(parts...)
}

func clockSinglePulse(high, low int64) instruction.Instruction {
	var parts []instruction.Instruction
	if high > 0 {
		parts = append(parts, instruction.Repeat(high, instruction.NewPattern(instruction.Value(true))))
	}
	if low > 0 {
		parts = append(parts, instruction.Repeat(low, instruction.NewPattern(instruction.Value(false))))
	}
	return instruction.Concat(parts...)
}

func clockWaveform(high, low, n int64) instruction.Instruction {
	pulse := clockSinglePulse(high, low)
	m := pulse.Len()
	if m == 0 || n <= 0 {
		return &instruction.Pattern{}
	}
	reps := n / m
	var parts []instruction.Instruction
	if reps > 0 {
		parts = append(parts, instruction.Repeat(reps, pulse))
	}
	if rem := n - reps*m; rem > 0 {
		parts = append(parts, instruction.Repeat(rem, instruction.NewPattern(instruction.Value(false))))
	}
	return instruction.Concat(parts...)
}

// changeMask reports, for every tick of the target's own resolution,
// whether at least one of its compiled fields differs from its
// predecessor (tick 0 always counts as a change). It is the Go
// equivalent of treating the target's already-stacked sequence as one
// struct-dtype array and comparing adjacent elements for equality, the
// way compute_shot_parameters.py's get_adaptive_clock does over a single
// merged sequence; materializing it with Expand is the explicit device-
// boundary use spec.md §4.5 carves out for that conversion.
func changeMask(fields map[string]instruction.Instruction) []bool {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	var length int64 = -1
	for name, f := range fields {
		names = append(names, name)
		if length == -1 {
			length = f.Len()
		}
	}
	sort.Strings(names)
	cols := make([][]instruction.Value, len(names))
	for i, name := range names {
		cols[i] = instruction.Expand(fields[name])
	}
	out := make([]bool, length)
	if length > 0 {
		out[0] = true
	}
	for t := int64(1); t < length; t++ {
		for _, col := range cols {
			if col[t] != col[t-1] {
				out[t] = true
				break
			}
		}
	}
	return out
}

// adaptiveClock emits one pulse at the start of every maximal run where
// changed is false throughout the rest of the run, then pads the
// remainder of that run with silence, ported from get_adaptive_clock's
// handling of a Repeated node whose child has length 1 (the "locally
// constant region" spec.md names): one clock edge announces the value,
// none follow until it changes again. The result is padded or truncated
// to exactly totalLen ticks, as the original does with its own
// sequence_length safety net.
func adaptiveClock(changed []bool, pulse instruction.Instruction, totalLen int64) instruction.Instruction {
	if len(changed) == 0 || totalLen <= 0 {
		return &instruction.Pattern{}
	}
	m := pulse.Len()
	var parts []instruction.Instruction
	i := 0
	for i < len(changed) {
		j := i + 1
		for j < len(changed) && !changed[j] {
			j++
		}
		runLen := int64(j - i)
		parts = append(parts, pulse)
		if runLen > 1 && m > 0 {
			parts = append(parts, instruction.Repeat((runLen-1)*m, instruction.NewPattern(instruction.Value(false))))
		}
		i = j
	}
	out := instruction.Concat(parts...)
	switch {
	case out.Len() > totalLen:
		out = instruction.Slice(out, 0, totalLen)
	case out.Len() < totalLen:
		out = instruction.Concat(out, instruction.Repeat(totalLen-out.Len(), instruction.NewPattern(instruction.Value(false))))
	}
	return out
}
