// Package shotfile is the caller-side JSON format for a shot description:
// parameter schema and bindings, time lanes, and device configurations.
// Nothing under internal/ imports this package; it exists only for
// cmd/shotc to turn a file on disk into the internal/shot types the core
// compiler actually consumes (spec.md §1/§6, "No CLI, env vars, or
// on-disk format are part of the core").
package shotfile

import "encoding/json"

// Document is the root of a shot file.
type Document struct {
	Schema     SchemaDoc           `json:"schema"`
	Parameters map[string]ValueDoc `json:"parameters"`
	Lanes      TimeLanesDoc        `json:"lanes"`
	Devices    map[string]DeviceDoc `json:"devices"`
}

// SchemaDoc is the parameter schema: named compile-time constants plus
// the declared type of every variable a caller must bind in Parameters.
type SchemaDoc struct {
	Constants map[string]ValueDoc    `json:"constants"`
	Variables map[string]ParamTypeDoc `json:"variables"`
}

// ParamTypeDoc names a variable's declared type. Unit is only consulted
// when Kind is "Quantity": it names any registry unit of the dimension
// the variable must carry (e.g. "ms" for Time, "MHz" for 1/Time).
type ParamTypeDoc struct {
	Kind string `json:"kind"`
	Unit string `json:"unit,omitempty"`
}

// ValueDoc is a literal scalar value: a constant's value in the schema,
// or a caller's binding for a variable.
type ValueDoc struct {
	Kind   string  `json:"kind"`
	Bool   bool    `json:"bool,omitempty"`
	Number float64 `json:"number,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

// TimeLanesDoc is the shot's shared step partition and named lanes.
type TimeLanesDoc struct {
	StepNames     []string            `json:"step_names"`
	StepDurations []string            `json:"step_durations"`
	Lanes         map[string]LaneDoc  `json:"lanes"`
}

// LaneDoc is one named lane: a kind ("digital", "analog", "camera") and
// its ordered blocks.
type LaneDoc struct {
	Kind   string     `json:"kind"`
	Blocks []BlockDoc `json:"blocks"`
}

// BlockDoc is one block of a lane: how many steps it spans, and a
// kind-specific value. For a digital lane, Value is `true`/`false` or
// `{"expr": "..."}`. For an analog lane, Value is `{"expr": "..."}` or
// the string `"ramp"`. For a camera lane, Value is `null` or
// `{"label": "..."}`.
type BlockDoc struct {
	Span  int64           `json:"span"`
	Value json.RawMessage `json:"value"`
}

// DeviceDoc is one named sequencer device configuration.
type DeviceDoc struct {
	TimeStepNs string       `json:"time_step_ns"`
	Trigger    TriggerDoc   `json:"trigger"`
	Channels   []ChannelDoc `json:"channels"`
}

// TriggerDoc names a device's trigger/clock policy (spec.md §4.6). Type
// is one of "software", "external_trigger_start", "external_clock",
// "external_clock_on_change". Edge is "rising" (default) or "falling".
type TriggerDoc struct {
	Type string `json:"type"`
	Edge string `json:"edge,omitempty"`
}

// ChannelDoc is one sequencer channel: its declared kind ("digital" or
// "analog"), the unit an analog output must carry (ignored for
// digital), and its channel-output tree.
type ChannelDoc struct {
	Kind       string          `json:"kind"`
	OutputUnit string          `json:"output_unit,omitempty"`
	Output     json.RawMessage `json:"output"`
}

// OutputDoc is the discriminated wire form of a channel.Output node.
// Type selects which of the other fields apply; Input/Default nest
// another OutputDoc as raw JSON so the tree decodes recursively.
type OutputDoc struct {
	Type string `json:"type"`

	Expr string `json:"expr,omitempty"` // constant

	LaneName string          `json:"lane,omitempty"`    // lane
	Device   string          `json:"device,omitempty"`  // device_trigger
	Default  json.RawMessage `json:"default,omitempty"` // lane, device_trigger

	Amount json.RawMessage `json:"amount,omitempty"` // advance, delay (expr string)
	Width  json.RawMessage `json:"width,omitempty"`  // broaden_left (expr string)
	Input  json.RawMessage `json:"input,omitempty"`  // advance, delay, broaden_left, not, calibrated_analog_mapping

	InputUnit  string              `json:"input_unit,omitempty"`  // calibrated_analog_mapping
	OutputUnit string              `json:"output_unit,omitempty"` // calibrated_analog_mapping, "" means dimensionless
	Points     []CalibrationPointDoc `json:"points,omitempty"`    // calibrated_analog_mapping
}

// CalibrationPointDoc is one measured (input, output) pair.
type CalibrationPointDoc struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}
