// Package shot ties the compiler's leaf packages together into the
// top-level "Shot compilation API" of spec.md §6: a TimeLanes data model,
// a parameter binding, a set of named device configurations, and a
// Compile entry point that compiles every device, resolving inter-device
// trigger references in dependency order.
package shot

import (
	"sort"

	"shotcompile/internal/compileerr"
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/device"
	"shotcompile/internal/lane"
	"shotcompile/internal/typedexpr"
)

// TimeLanes is the (step_names, step_durations, lanes) triple of spec.md
// §3: every lane in Lanes must have a total span equal to len(StepNames).
type TimeLanes struct {
	StepNames     []string
	StepDurations []*typedexpr.CompiledExpression
	Lanes         map[string]*lane.Lane
}

func (t TimeLanes) validate() error {
	if len(t.StepDurations) != len(t.StepNames) {
		return invalidValue("time lanes declare %d step names but %d step durations", len(t.StepNames), len(t.StepDurations))
	}
	numSteps := int64(len(t.StepNames))
	names := make([]string, 0, len(t.Lanes))
	for name := range t.Lanes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		l := t.Lanes[name]
		if span := l.TotalSpan(); span != numSteps {
			return invalidValue("lane %q has total span %d, expected %d steps", name, span, numSteps)
		}
	}
	return nil
}

// Shot is one compile call's full input: the shot's shared step partition
// and lanes, the named sequencer devices driven from them, and the
// parameter values bound for this particular invocation (spec.md §5,
// "parameter bindings are read-only for the duration of a compile").
type Shot struct {
	Lanes      TimeLanes
	Devices    map[string]device.Configuration
	Parameters typedexpr.Parameters
}

// stepBounds returns the cumulative step-boundary times, in seconds, of
// length len(StepNames)+1: bounds[i] is the start time of step i,
// bounds[len(StepNames)] is the shot's total duration.
func stepBounds(s *Shot) ([]decimaltime.Decimal, error) {
	bounds := make([]decimaltime.Decimal, len(s.Lanes.StepDurations)+1)
	bounds[0] = decimaltime.Zero()
	for i, expr := range s.Lanes.StepDurations {
		asSeconds, err := expr.AsQuantityExact("s")
		if err != nil {
			return nil, err
		}
		seconds, err := asSeconds(s.Parameters)
		if err != nil {
			return nil, err
		}
		bounds[i+1] = bounds[i].Add(seconds)
	}
	return bounds, nil
}

func invalidValue(format string, args ...interface{}) error {
	return compileerr.New(compileerr.KindInvalidValue, compileerr.Span{}, format, args...)
}
