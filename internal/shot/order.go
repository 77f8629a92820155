package shot

import (
	"sort"

	"shotcompile/internal/channel"
	"shotcompile/internal/device"
)

// deviceRefs collects every device name a channel-output tree reaches
// through a DeviceTrigger node, recursing through every wrapping variant
// (spec.md §4.3's closed sum type) so a trigger reference buried under an
// Advance/Delay/BroadenLeft/NotGate/CalibratedAnalogMapping is still found.
func deviceRefs(out channel.Output, refs map[string]bool) {
	switch v := out.(type) {
	case channel.DeviceTrigger:
		refs[v.DeviceName] = true
		deviceRefs(v.Default, refs)
	case channel.LaneValues:
		deviceRefs(v.Default, refs)
	case channel.Advance:
		deviceRefs(v.Input, refs)
	case channel.Delay:
		deviceRefs(v.Input, refs)
	case channel.BroadenLeft:
		deviceRefs(v.Input, refs)
	case channel.NotGate:
		deviceRefs(v.Input, refs)
	case channel.CalibratedAnalogMapping:
		deviceRefs(v.Input, refs)
	case channel.Constant:
		// no references
	}
}

// transitiveDeps returns start plus every device reachable from it
// through DeviceTrigger references, used by CompileDevice to compile
// only what a single device actually needs rather than the whole shot.
func transitiveDeps(devices map[string]device.Configuration, start string) map[string]bool {
	seen := map[string]bool{start: true}
	var visit func(name string)
	visit = func(name string) {
		cfg, ok := devices[name]
		if !ok {
			return
		}
		refs := map[string]bool{}
		for _, ch := range cfg.Channels {
			deviceRefs(ch.Output, refs)
		}
		for dep := range refs {
			if !seen[dep] {
				seen[dep] = true
				visit(dep)
			}
		}
	}
	visit(start)
	return seen
}

// compileOrder topologically sorts devices so that any device B a
// channel of A reaches via DeviceTrigger(B, ...) compiles before A
// (spec.md §4.6: DeviceTrigger reads the target device's own trigger
// policy and, for ExternalClockOnChange, its already-compiled output).
// A reference to a device absent from the configuration set is left
// unordered here; it resolves to DeviceTrigger's Default at evaluate
// time, the same as any other missing-lane/missing-device fallback.
func compileOrder(devices map[string]device.Configuration) ([]string, error) {
	refs := make(map[string]map[string]bool, len(devices))
	for name, cfg := range devices {
		set := map[string]bool{}
		for _, ch := range cfg.Channels {
			deviceRefs(ch.Output, set)
		}
		refs[name] = set
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(devices))
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return invalidValue("device %q's trigger references form a cycle", name)
		}
		state[name] = visiting
		deps := make([]string, 0, len(refs[name]))
		for dep := range refs[name] {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		for _, dep := range deps {
			if _, ok := devices[dep]; !ok {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
