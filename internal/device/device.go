// Package device implements the device compiler of spec.md §4.6: it
// aggregates per-channel advance/delay budgets, evaluates and
// type-checks every channel of a sequencer configuration, stacks them
// into one multi-field instruction, and synthesizes the trigger/clock
// waveform that drives a dependent device (grounded on
// caqtus.device.sequencer.compilation._compiler.SequencerCompiler and
// core.control.compute_device_parameters.compute_shot_parameters).
package device

import (
	"fmt"

	"github.com/pkg/errors"

	"shotcompile/internal/channel"
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/instruction"
	"shotcompile/internal/units"
)

// ChannelKind is the declared dtype of a channel's output (spec.md §3,
// "Device configuration").
type ChannelKind int

const (
	ChannelDigital ChannelKind = iota
	ChannelAnalog
)

// ChannelConfig is one sequencer channel: its declared kind, the base
// unit its Analog output must be expressed in (ignored for Digital, ""
// meaning dimensionless), and the channel-output tree that produces it.
type ChannelConfig struct {
	Kind       ChannelKind
	OutputUnit string
	Output     channel.Output
}

// Configuration is a sequencer device configuration (spec.md §3).
type Configuration struct {
	TimeStep decimaltime.TimeStep
	Trigger  Trigger
	Channels []ChannelConfig
}

// Compiled is the result of compiling one device: the stacked sequence
// cmd/shotc or an orchestrator would upload, plus the unstacked per-
// channel fields (kept around so a dependent device's ExternalClockOnChange
// trigger can inspect them for "did anything change" masking) and the
// configuration values spec.md §6's compile_device reports alongside the
// sequence.
type Compiled struct {
	Sequence *instruction.Stacked
	Fields   map[string]instruction.Instruction
	TimeStep decimaltime.TimeStep
	Trigger  Trigger
}

// ChannelError names the failing channel of a device that otherwise
// compiled some channels successfully (spec.md §7, "SequencerCompilationError:
// aggregate — contains per-channel errors as causes").
type ChannelError struct {
	Index int
	Cause error
}

func (e *ChannelError) Error() string { return fmt.Sprintf("channel %d: %v", e.Index, e.Cause) }
func (e *ChannelError) Unwrap() error { return e.Cause }

// SequencerCompilationError aggregates every ChannelError produced while
// compiling one device, so a single Compile call reports every fault
// rather than stopping at the first (spec.md §7, "Propagation policy").
// It mirrors _compiler.py's ExceptionGroup-based SequencerCompilationError,
// adding the formatter-style device name caqtus.formatter provides there
// (SUPPLEMENTED FEATURES #2b).
type SequencerCompilationError struct {
	Device string
	Errors []*ChannelError
}

func (e *SequencerCompilationError) Error() string {
	msg := fmt.Sprintf("device %q: %d channel(s) failed to compile", e.Device, len(e.Errors))
	for _, ce := range e.Errors {
		msg += "\n  " + ce.Error()
	}
	return msg
}

// Compile evaluates every channel of cfg against ctx (spec.md §4.6):
// first the uniform (max_advance, max_delay) every channel must be given
// room for, then each channel's own evaluation and type check, collecting
// failures rather than stopping at the first one.
func Compile(name string, cfg Configuration, ctx channel.Context) (*Compiled, error) {
	maxAdvance, maxDelay, err := maxAdvanceAndDelay(cfg, ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "device %q: computing advance/delay budget", name)
	}

	fields := make(map[string]instruction.Instruction, len(cfg.Channels))
	var channelErrs []*ChannelError
	for i, ch := range cfg.Channels {
		inst, err := compileChannel(ch, ctx, maxAdvance, maxDelay)
		if err != nil {
			channelErrs = append(channelErrs, &ChannelError{Index: i, Cause: err})
			continue
		}
		fields[fmt.Sprintf("ch %d", i)] = inst
	}
	if len(channelErrs) > 0 {
		return nil, &SequencerCompilationError{Device: name, Errors: channelErrs}
	}

	return &Compiled{
		Sequence: instruction.Stack(fields),
		Fields:   fields,
		TimeStep: cfg.TimeStep,
		Trigger:  cfg.Trigger,
	}, nil
}

// maxAdvanceAndDelay recurses through every channel's output tree
// (spec.md §4.6 step 1). Unlike the per-channel evaluate loop, a failure
// here is not aggregated: this mirrors _compiler.py's
// _find_max_advance_and_delays, which raises directly rather than
// collecting into the ExceptionGroup.
func maxAdvanceAndDelay(cfg Configuration, ctx channel.Context) (int64, int64, error) {
	var maxAdvance, maxDelay int64
	for i, ch := range cfg.Channels {
		a, d, err := ch.Output.MaxAdvanceAndDelay(ctx)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "channel %d", i)
		}
		if a > maxAdvance {
			maxAdvance = a
		}
		if d > maxDelay {
			maxDelay = d
		}
	}
	return maxAdvance, maxDelay, nil
}

func compileChannel(ch ChannelConfig, ctx channel.Context, prepend, appnd int64) (instruction.Instruction, error) {
	series, err := ch.Output.Evaluate(ctx, prepend, appnd)
	if err != nil {
		return nil, err
	}
	switch ch.Kind {
	case ChannelDigital:
		if series.HasUnit {
			return nil, invalidDimensionality("digital channel output has units %s, expected none", series.Dim.Symbol())
		}
		return series.Values, nil
	case ChannelAnalog:
		var required units.Dimension
		if ch.OutputUnit != "" {
			u, ok := units.Lookup(ch.OutputUnit)
			if !ok {
				return nil, invalidValue("unknown output unit %q", ch.OutputUnit)
			}
			required = u.Dim
		}
		if !series.Dim.Equal(required) {
			return nil, invalidDimensionality("analog channel output has dimension %s, expected %s", series.Dim.Symbol(), required.Symbol())
		}
		return series.Values, nil
	default:
		panic("device: unrecognized channel kind")
	}
}
