package shotfile

import (
	"encoding/json"
	"fmt"

	"shotcompile/internal/channel"
	"shotcompile/internal/decimaltime"
	"shotcompile/internal/device"
	"shotcompile/internal/lane"
	"shotcompile/internal/shot"
	"shotcompile/internal/typedexpr"
	"shotcompile/internal/units"
)

// Parse decodes a shot file's JSON bytes into a Document, performing no
// further validation: Build does the semantic work.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("shotfile: %w", err)
	}
	return &doc, nil
}

// Build compiles a parsed Document into the internal/shot types the core
// compiler consumes: the parameter schema drives every expression
// compile, so it is built once up front and threaded through lanes and
// devices alike.
func Build(doc *Document) (*shot.Shot, error) {
	schema, err := buildSchema(doc.Schema)
	if err != nil {
		return nil, err
	}
	params, err := buildParameters(doc.Parameters)
	if err != nil {
		return nil, err
	}
	lanes, err := buildTimeLanes(doc.Lanes, schema)
	if err != nil {
		return nil, err
	}
	devices, err := buildDevices(doc.Devices, schema)
	if err != nil {
		return nil, err
	}
	return &shot.Shot{Lanes: lanes, Devices: devices, Parameters: params}, nil
}

func buildValue(v ValueDoc) (typedexpr.ScalarValue, error) {
	switch v.Kind {
	case "Boolean":
		return typedexpr.BoolValue(v.Bool), nil
	case "Integer":
		return typedexpr.IntValue(decimaltime.FromFloat64(v.Number)), nil
	case "Float":
		return typedexpr.FloatValue(decimaltime.FromFloat64(v.Number)), nil
	case "Quantity":
		q, ok := units.FromLiteral(decimaltime.FromFloat64(v.Number), v.Unit)
		if !ok {
			return typedexpr.ScalarValue{}, fmt.Errorf("shotfile: unknown unit %q", v.Unit)
		}
		return typedexpr.QuantityValue(q), nil
	default:
		return typedexpr.ScalarValue{}, fmt.Errorf("shotfile: unknown value kind %q", v.Kind)
	}
}

func buildParamType(p ParamTypeDoc) (typedexpr.ParamType, error) {
	switch p.Kind {
	case "Boolean":
		return typedexpr.Boolean(), nil
	case "Integer":
		return typedexpr.Integer(), nil
	case "Float":
		return typedexpr.Float(), nil
	case "Quantity":
		u, ok := units.Lookup(p.Unit)
		if !ok {
			return typedexpr.ParamType{}, fmt.Errorf("shotfile: unknown unit %q", p.Unit)
		}
		return typedexpr.Quantity(u.Dim), nil
	default:
		return typedexpr.ParamType{}, fmt.Errorf("shotfile: unknown parameter type %q", p.Kind)
	}
}

func buildSchema(doc SchemaDoc) (*typedexpr.Schema, error) {
	schema := typedexpr.NewSchema()
	for name, v := range doc.Constants {
		val, err := buildValue(v)
		if err != nil {
			return nil, fmt.Errorf("shotfile: constant %q: %w", name, err)
		}
		schema.Constants[name] = val
	}
	for name, p := range doc.Variables {
		typ, err := buildParamType(p)
		if err != nil {
			return nil, fmt.Errorf("shotfile: variable %q: %w", name, err)
		}
		schema.Variables[name] = typ
	}
	return schema, nil
}

func buildParameters(doc map[string]ValueDoc) (typedexpr.Parameters, error) {
	params := make(typedexpr.Parameters, len(doc))
	for name, v := range doc {
		val, err := buildValue(v)
		if err != nil {
			return nil, fmt.Errorf("shotfile: parameter %q: %w", name, err)
		}
		params[name] = val
	}
	return params, nil
}

func compileExpr(source string, schema *typedexpr.Schema, timeDependent bool) (*typedexpr.CompiledExpression, error) {
	expr, err := typedexpr.Compile(source, schema, timeDependent)
	if err != nil {
		return nil, fmt.Errorf("shotfile: compiling %q: %w", source, err)
	}
	return expr, nil
}

func buildTimeLanes(doc TimeLanesDoc, schema *typedexpr.Schema) (shot.TimeLanes, error) {
	durations := make([]*typedexpr.CompiledExpression, len(doc.StepDurations))
	for i, src := range doc.StepDurations {
		expr, err := compileExpr(src, schema, false)
		if err != nil {
			return shot.TimeLanes{}, err
		}
		durations[i] = expr
	}
	lanes := make(map[string]*lane.Lane, len(doc.Lanes))
	for name, l := range doc.Lanes {
		built, err := buildLane(l, schema)
		if err != nil {
			return shot.TimeLanes{}, fmt.Errorf("shotfile: lane %q: %w", name, err)
		}
		lanes[name] = built
	}
	return shot.TimeLanes{StepNames: doc.StepNames, StepDurations: durations, Lanes: lanes}, nil
}

func buildLane(doc LaneDoc, schema *typedexpr.Schema) (*lane.Lane, error) {
	var kind lane.Kind
	switch doc.Kind {
	case "digital":
		kind = lane.KindDigital
	case "analog":
		kind = lane.KindAnalog
	case "camera":
		kind = lane.KindCamera
	default:
		return nil, fmt.Errorf("unknown lane kind %q", doc.Kind)
	}
	blocks := make([]lane.Block, len(doc.Blocks))
	for i, b := range doc.Blocks {
		var value interface{}
		var err error
		switch kind {
		case lane.KindDigital:
			value, err = buildDigitalValue(b.Value, schema)
		case lane.KindAnalog:
			value, err = buildAnalogValue(b.Value, schema)
		case lane.KindCamera:
			value, err = buildCameraValue(b.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		blocks[i] = lane.Block{Value: value, Span: b.Span}
	}
	return &lane.Lane{Kind: kind, Blocks: blocks}, nil
}

func buildDigitalValue(raw json.RawMessage, schema *typedexpr.Schema) (interface{}, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return lane.DigitalConstant(b), nil
	}
	var wrapped struct {
		Expr string `json:"expr"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("digital block value must be a boolean or {\"expr\": ...}: %w", err)
	}
	expr, err := compileExpr(wrapped.Expr, schema, false)
	if err != nil {
		return nil, err
	}
	return lane.DigitalExpr{Expr: expr}, nil
}

func buildAnalogValue(raw json.RawMessage, schema *typedexpr.Schema) (interface{}, error) {
	var literal string
	if err := json.Unmarshal(raw, &literal); err == nil && literal == "ramp" {
		return lane.AnalogRamp{}, nil
	}
	var wrapped struct {
		Expr string `json:"expr"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf(`analog block value must be "ramp" or {"expr": ...}: %w`, err)
	}
	expr, err := compileExpr(wrapped.Expr, schema, true)
	if err != nil {
		return nil, err
	}
	return lane.AnalogExpr{Expr: expr}, nil
}

func buildCameraValue(raw json.RawMessage) (interface{}, error) {
	if raw == nil || string(raw) == "null" {
		return lane.CameraNone{}, nil
	}
	var wrapped struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf(`camera block value must be null or {"label": ...}: %w`, err)
	}
	return lane.TakePicture{Label: wrapped.Label}, nil
}

func buildDevices(docs map[string]DeviceDoc, schema *typedexpr.Schema) (map[string]device.Configuration, error) {
	devices := make(map[string]device.Configuration, len(docs))
	for name, d := range docs {
		cfg, err := buildDevice(d, schema)
		if err != nil {
			return nil, fmt.Errorf("shotfile: device %q: %w", name, err)
		}
		devices[name] = cfg
	}
	return devices, nil
}

func buildDevice(doc DeviceDoc, schema *typedexpr.Schema) (device.Configuration, error) {
	ns, err := decimaltime.FromString(doc.TimeStepNs)
	if err != nil {
		return device.Configuration{}, fmt.Errorf("time_step_ns: %w", err)
	}
	trigger, err := buildTrigger(doc.Trigger)
	if err != nil {
		return device.Configuration{}, fmt.Errorf("trigger: %w", err)
	}
	channels := make([]device.ChannelConfig, len(doc.Channels))
	for i, c := range doc.Channels {
		ch, err := buildChannel(c, schema)
		if err != nil {
			return device.Configuration{}, fmt.Errorf("channel %d: %w", i, err)
		}
		channels[i] = ch
	}
	return device.Configuration{
		TimeStep: decimaltime.NewTimeStep(ns),
		Trigger:  trigger,
		Channels: channels,
	}, nil
}

func buildEdge(s string) (device.TriggerEdge, error) {
	switch s {
	case "", "rising":
		return device.EdgeRising, nil
	case "falling":
		return device.EdgeFalling, nil
	default:
		return 0, fmt.Errorf("unknown trigger edge %q", s)
	}
}

func buildTrigger(doc TriggerDoc) (device.Trigger, error) {
	edge, err := buildEdge(doc.Edge)
	if err != nil {
		return nil, err
	}
	switch doc.Type {
	case "software":
		return device.SoftwareTrigger{}, nil
	case "external_trigger_start":
		return device.ExternalTriggerStart{Edge: edge}, nil
	case "external_clock":
		return device.ExternalClock{Edge: edge}, nil
	case "external_clock_on_change":
		return device.ExternalClockOnChange{Edge: edge}, nil
	default:
		return nil, fmt.Errorf("unknown trigger type %q", doc.Type)
	}
}

func buildChannel(doc ChannelDoc, schema *typedexpr.Schema) (device.ChannelConfig, error) {
	var kind device.ChannelKind
	switch doc.Kind {
	case "digital":
		kind = device.ChannelDigital
	case "analog":
		kind = device.ChannelAnalog
	default:
		return device.ChannelConfig{}, fmt.Errorf("unknown channel kind %q", doc.Kind)
	}
	out, err := buildOutput(doc.Output, schema)
	if err != nil {
		return device.ChannelConfig{}, err
	}
	return device.ChannelConfig{Kind: kind, OutputUnit: doc.OutputUnit, Output: out}, nil
}

// buildOutput recursively decodes a channel.Output tree (spec.md §4.3's
// closed sum type) from its discriminated JSON form.
func buildOutput(raw json.RawMessage, schema *typedexpr.Schema) (channel.Output, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing channel output")
	}
	var doc OutputDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding channel output: %w", err)
	}

	decodeInput := func(field json.RawMessage, name string) (channel.Output, error) {
		out, err := buildOutput(field, schema)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", doc.Type, name, err)
		}
		return out, nil
	}
	decodeExprField := func(field json.RawMessage, name string, timeDependent bool) (*typedexpr.CompiledExpression, error) {
		var src string
		if err := json.Unmarshal(field, &src); err != nil {
			return nil, fmt.Errorf("%s.%s must be an expression string: %w", doc.Type, name, err)
		}
		return compileExpr(src, schema, timeDependent)
	}

	switch doc.Type {
	case "constant":
		expr, err := compileExpr(doc.Expr, schema, false)
		if err != nil {
			return nil, err
		}
		return channel.Constant{Expr: expr}, nil

	case "lane":
		def, err := decodeInput(doc.Default, "default")
		if err != nil {
			return nil, err
		}
		return channel.LaneValues{LaneName: doc.LaneName, Default: def}, nil

	case "device_trigger":
		def, err := decodeInput(doc.Default, "default")
		if err != nil {
			return nil, err
		}
		return channel.DeviceTrigger{DeviceName: doc.Device, Default: def}, nil

	case "advance":
		amount, err := decodeExprField(doc.Amount, "amount", false)
		if err != nil {
			return nil, err
		}
		input, err := decodeInput(doc.Input, "input")
		if err != nil {
			return nil, err
		}
		return channel.Advance{Amount: amount, Input: input}, nil

	case "delay":
		amount, err := decodeExprField(doc.Amount, "amount", false)
		if err != nil {
			return nil, err
		}
		input, err := decodeInput(doc.Input, "input")
		if err != nil {
			return nil, err
		}
		return channel.Delay{Amount: amount, Input: input}, nil

	case "broaden_left":
		width, err := decodeExprField(doc.Width, "width", false)
		if err != nil {
			return nil, err
		}
		input, err := decodeInput(doc.Input, "input")
		if err != nil {
			return nil, err
		}
		return channel.BroadenLeft{Width: width, Input: input}, nil

	case "not":
		input, err := decodeInput(doc.Input, "input")
		if err != nil {
			return nil, err
		}
		return channel.NotGate{Input: input}, nil

	case "calibrated_analog_mapping":
		input, err := decodeInput(doc.Input, "input")
		if err != nil {
			return nil, err
		}
		inputDim, err := dimensionOf(doc.InputUnit)
		if err != nil {
			return nil, fmt.Errorf("calibrated_analog_mapping.input_unit: %w", err)
		}
		var outputDim units.Dimension
		hasOutput := doc.OutputUnit != ""
		if hasOutput {
			outputDim, err = dimensionOf(doc.OutputUnit)
			if err != nil {
				return nil, fmt.Errorf("calibrated_analog_mapping.output_unit: %w", err)
			}
		}
		points := make([]channel.CalibrationPoint, len(doc.Points))
		for i, p := range doc.Points {
			points[i] = channel.CalibrationPoint{Input: p.Input, Output: p.Output}
		}
		return channel.NewCalibratedAnalogMapping(input, inputDim, outputDim, hasOutput, points), nil

	default:
		return nil, fmt.Errorf("unknown channel output type %q", doc.Type)
	}
}

func dimensionOf(unitName string) (units.Dimension, error) {
	u, ok := units.Lookup(unitName)
	if !ok {
		return units.Dimension{}, fmt.Errorf("unknown unit %q", unitName)
	}
	return u.Dim, nil
}
