package shot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"shotcompile/internal/decimaltime"
	"shotcompile/internal/device"
)

// CompileReport is the successful result of a whole-shot Compile call:
// every device's compiled instruction, stamped with the run's
// correlation id so an out-of-process orchestrator can tie a compiled
// artifact back to the invocation that produced it (SPEC_FULL.md's
// ambient "run correlation id" concern).
type CompileReport struct {
	RunID   uuid.UUID
	Devices map[string]*device.Compiled
}

// ShotCompilationError aggregates the per-device failures of a whole-shot
// Compile call, mirroring device.SequencerCompilationError one level up:
// a single compile call reports every device's fault in one pass rather
// than stopping at the first (spec.md §7, "Propagation policy").
type ShotCompilationError struct {
	RunID  uuid.UUID
	Errors map[string]error
}

func (e *ShotCompilationError) Error() string {
	names := make([]string, 0, len(e.Errors))
	for name := range e.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	fmt.Fprintf(&sb, "shot %s: %d device(s) failed to compile", e.RunID, len(e.Errors))
	for _, name := range names {
		fmt.Fprintf(&sb, "\n  %s: %v", name, e.Errors[name])
	}
	return sb.String()
}

// Compile compiles every device of s, resolving DeviceTrigger references
// in dependency order (spec.md §4.6) and collecting per-device failures
// into a ShotCompilationError instead of stopping at the first one.
func Compile(s *Shot) (*CompileReport, error) {
	runID := uuid.New()

	if err := s.Lanes.validate(); err != nil {
		return nil, err
	}
	bounds, err := stepBounds(s)
	if err != nil {
		return nil, err
	}
	order, err := compileOrder(s.Devices)
	if err != nil {
		return nil, err
	}

	compiled := make(map[string]*device.Compiled, len(s.Devices))
	failed := map[string]error{}
	for _, name := range order {
		cfg := s.Devices[name]
		length := decimaltime.NumberTicks(decimaltime.Zero(), bounds[len(bounds)-1], cfg.TimeStep)
		ctx := &shotContext{shot: s, bounds: bounds, device: name, timeStep: cfg.TimeStep, length: length, compiled: compiled}
		c, err := device.Compile(name, cfg, ctx)
		if err != nil {
			failed[name] = err
			continue
		}
		compiled[name] = c
	}
	if len(failed) > 0 {
		return nil, &ShotCompilationError{RunID: runID, Errors: failed}
	}
	return &CompileReport{RunID: runID, Devices: compiled}, nil
}

// CompileDevice compiles a single named device against s, useful for
// spec.md §6's compile_device entry point when a caller wants just one
// device's result without paying for a full-shot aggregate error. Any
// device it depends on via DeviceTrigger is compiled first, the same way
// Compile orders the whole shot.
func CompileDevice(deviceName string, s *Shot) (*device.Compiled, error) {
	if _, ok := s.Devices[deviceName]; !ok {
		return nil, invalidValue("no device named %q in this shot", deviceName)
	}
	if err := s.Lanes.validate(); err != nil {
		return nil, err
	}
	bounds, err := stepBounds(s)
	if err != nil {
		return nil, err
	}
	order, err := compileOrder(s.Devices)
	if err != nil {
		return nil, err
	}
	needed := transitiveDeps(s.Devices, deviceName)

	compiled := make(map[string]*device.Compiled, len(needed))
	for _, name := range order {
		if !needed[name] {
			continue
		}
		c := s.Devices[name]
		length := decimaltime.NumberTicks(decimaltime.Zero(), bounds[len(bounds)-1], c.TimeStep)
		ctx := &shotContext{shot: s, bounds: bounds, device: name, timeStep: c.TimeStep, length: length, compiled: compiled}
		result, err := device.Compile(name, c, ctx)
		if err != nil {
			return nil, err
		}
		compiled[name] = result
	}
	return compiled[deviceName], nil
}
