package shot

import (
	"testing"

	"shotcompile/internal/channel"
	"shotcompile/internal/device"
)

func falseDefault(t *testing.T) channel.Constant {
	return channel.Constant{Expr: mustCompile(t, "false", false)}
}

func TestDeviceRefsFindsReferenceUnderWrappingVariants(t *testing.T) {
	out := channel.Advance{
		Amount: mustCompile(t, "1 ns", false),
		Input:  channel.NotGate{Input: channel.DeviceTrigger{DeviceName: "clk", Default: falseDefault(t)}},
	}
	refs := map[string]bool{}
	deviceRefs(out, refs)
	if !refs["clk"] {
		t.Fatalf("expected deviceRefs to find %q through Advance/NotGate, got %v", "clk", refs)
	}
}

func TestCompileOrderPlacesDependencyFirst(t *testing.T) {
	devices := map[string]device.Configuration{
		"a": {Channels: []device.ChannelConfig{{Output: channel.DeviceTrigger{DeviceName: "b", Default: falseDefault(t)}}}},
		"b": {},
	}
	order, err := compileOrder(devices)
	if err != nil {
		t.Fatal(err)
	}
	posA, posB := indexOf(order, "a"), indexOf(order, "b")
	if posB >= posA {
		t.Fatalf("order = %v, want %q before %q", order, "b", "a")
	}
}

func TestCompileOrderDetectsCycle(t *testing.T) {
	devices := map[string]device.Configuration{
		"a": {Channels: []device.ChannelConfig{{Output: channel.DeviceTrigger{DeviceName: "b", Default: falseDefault(t)}}}},
		"b": {Channels: []device.ChannelConfig{{Output: channel.DeviceTrigger{DeviceName: "a", Default: falseDefault(t)}}}},
	}
	if _, err := compileOrder(devices); err == nil {
		t.Fatal("expected an error for a trigger reference cycle")
	}
}

func TestTransitiveDepsFollowsChain(t *testing.T) {
	devices := map[string]device.Configuration{
		"a": {Channels: []device.ChannelConfig{{Output: channel.DeviceTrigger{DeviceName: "b", Default: falseDefault(t)}}}},
		"b": {Channels: []device.ChannelConfig{{Output: channel.DeviceTrigger{DeviceName: "c", Default: falseDefault(t)}}}},
		"c": {},
	}
	needed := transitiveDeps(devices, "a")
	for _, name := range []string{"a", "b", "c"} {
		if !needed[name] {
			t.Fatalf("expected %q to be reachable from %q, got %v", name, "a", needed)
		}
	}
}

func indexOf(names []string, target string) int {
	for i, n := range names {
		if n == target {
			return i
		}
	}
	return -1
}
