package shot

import (
	"fmt"

	"shotcompile/internal/channel"
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/device"
	"shotcompile/internal/instruction"
	"shotcompile/internal/lane"
	"shotcompile/internal/typedexpr"
)

// shotContext implements channel.Context scoped to one device being
// compiled: its own time step and shot-wide tick length, plus read access
// to every other device already compiled earlier in dependency order
// (spec.md §4.6, "a ShotContext exposing parameters, time lanes, and the
// set of other device compilers in the same sequence").
type shotContext struct {
	shot     *Shot
	bounds   []decimaltime.Decimal
	device   string
	timeStep decimaltime.TimeStep
	length   int64
	compiled map[string]*device.Compiled
}

func (c *shotContext) Parameters() typedexpr.Parameters  { return c.shot.Parameters }
func (c *shotContext) TimeStep() decimaltime.TimeStep     { return c.timeStep }
func (c *shotContext) BaseLength() int64                  { return c.length }

func (c *shotContext) Lane(name string) (*lane.Lane, []decimaltime.Decimal, bool) {
	l, ok := c.shot.Lanes.Lanes[name]
	if !ok {
		return nil, nil, false
	}
	return l, c.bounds, true
}

// DeviceTrigger implements channel.Context.DeviceTrigger: it looks up the
// named device's configuration and its already-compiled fields (present
// whenever the caller walks devices in compileOrder's dependency order)
// and asks internal/device to synthesize the waveform this (triggering)
// device must emit to drive it.
func (c *shotContext) DeviceTrigger(deviceName string, length int64) (instruction.Instruction, bool, error) {
	target, ok := c.shot.Devices[deviceName]
	if !ok {
		return nil, false, nil
	}
	targetCompiled, ok := c.compiled[deviceName]
	if !ok {
		return nil, true, fmt.Errorf("device %q references device %q's trigger, but %q has not been compiled yet", c.device, deviceName, deviceName)
	}
	inst, err := device.SynthesizeTrigger(target, targetCompiled.Fields, c.timeStep, length)
	if err != nil {
		return nil, true, err
	}
	return inst, true, nil
}

var _ channel.Context = (*shotContext)(nil)
