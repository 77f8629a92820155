package shotfile

import (
	"testing"
)

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}

const minimalShot = `{
  "schema": {
    "constants": {},
    "variables": {}
  },
  "parameters": {},
  "lanes": {
    "step_names": ["load", "probe"],
    "step_durations": ["1 ms", "2 ms"],
    "lanes": {
      "ttl_lane": {
        "kind": "digital",
        "blocks": [
          {"span": 1, "value": true},
          {"span": 1, "value": false}
        ]
      }
    }
  },
  "devices": {
    "ttl_card": {
      "time_step_ns": "1",
      "trigger": {"type": "software"},
      "channels": [
        {
          "kind": "digital",
          "output": {"type": "lane", "lane": "ttl_lane", "default": {"type": "constant", "expr": "false"}}
        }
      ]
    }
  }
}`

func TestBuildDecodesMinimalShot(t *testing.T) {
	doc, err := Parse([]byte(minimalShot))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Build(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Lanes.StepNames) != 2 {
		t.Fatalf("len(StepNames) = %d, want 2", len(s.Lanes.StepNames))
	}
	if _, ok := s.Devices["ttl_card"]; !ok {
		t.Fatalf("expected device %q, got %v", "ttl_card", s.Devices)
	}
	if len(s.Devices["ttl_card"].Channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(s.Devices["ttl_card"].Channels))
	}
}

const deepOutputShot = `{
  "schema": {"constants": {}, "variables": {}},
  "parameters": {},
  "lanes": {"step_names": ["a"], "step_durations": ["1 ms"], "lanes": {}},
  "devices": {
    "aom": {
      "time_step_ns": "1",
      "trigger": {"type": "software"},
      "channels": [
        {
          "kind": "digital",
          "output": {
            "type": "not",
            "input": {
              "type": "advance",
              "amount": "1 ns",
              "input": {"type": "constant", "expr": "true"}
            }
          }
        }
      ]
    }
  }
}`

func TestBuildDecodesNestedOutputTree(t *testing.T) {
	doc, err := Parse([]byte(deepOutputShot))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Build(doc)
	if err != nil {
		t.Fatal(err)
	}
	ch := s.Devices["aom"].Channels[0]
	if ch.Output == nil {
		t.Fatal("expected a non-nil decoded output tree")
	}
}

const calibratedShot = `{
  "schema": {"constants": {}, "variables": {}},
  "parameters": {},
  "lanes": {"step_names": ["a"], "step_durations": ["1 ms"], "lanes": {}},
  "devices": {
    "aom": {
      "time_step_ns": "1",
      "trigger": {"type": "software"},
      "channels": [
        {
          "kind": "analog",
          "output_unit": "W",
          "output": {
            "type": "calibrated_analog_mapping",
            "input": {"type": "constant", "expr": "5 V"},
            "input_unit": "V",
            "output_unit": "W",
            "points": [{"input": 0, "output": 0}, {"input": 10, "output": 100}]
          }
        }
      ]
    }
  }
}`

func TestBuildDecodesCalibratedAnalogMapping(t *testing.T) {
	doc, err := Parse([]byte(calibratedShot))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Build(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Devices["aom"].Channels) != 1 {
		t.Fatal("expected the calibrated channel to decode")
	}
}

func TestBuildRejectsUnknownOutputType(t *testing.T) {
	doc, err := Parse([]byte(`{
      "schema": {"constants": {}, "variables": {}},
      "parameters": {},
      "lanes": {"step_names": [], "step_durations": [], "lanes": {}},
      "devices": {
        "x": {"time_step_ns": "1", "trigger": {"type": "software"},
          "channels": [{"kind": "digital", "output": {"type": "bogus"}}]}
      }
    }`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Build(doc); err == nil {
		t.Fatal("expected an error for an unknown output type")
	}
}

func TestBuildRejectsUnknownTriggerType(t *testing.T) {
	doc, err := Parse([]byte(`{
      "schema": {"constants": {}, "variables": {}},
      "parameters": {},
      "lanes": {"step_names": [], "step_durations": [], "lanes": {}},
      "devices": {
        "x": {"time_step_ns": "1", "trigger": {"type": "bogus"}, "channels": []}
      }
    }`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Build(doc); err == nil {
		t.Fatal("expected an error for an unknown trigger type")
	}
}

func TestBuildQuantityConstantInSchema(t *testing.T) {
	doc, err := Parse([]byte(`{
      "schema": {
        "constants": {"f_rabi": {"kind": "Quantity", "number": 2, "unit": "MHz"}},
        "variables": {}
      },
      "parameters": {},
      "lanes": {"step_names": [], "step_durations": [], "lanes": {}},
      "devices": {}
    }`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Build(doc); err != nil {
		t.Fatal(err)
	}
}

func TestBuildRejectsUnknownUnitInSchemaConstant(t *testing.T) {
	doc, err := Parse([]byte(`{
      "schema": {
        "constants": {"bad": {"kind": "Quantity", "number": 1, "unit": "bogus_unit"}},
        "variables": {}
      },
      "parameters": {},
      "lanes": {"step_names": [], "step_durations": [], "lanes": {}},
      "devices": {}
    }`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Build(doc); err == nil {
		t.Fatal("expected an error for an unknown unit")
	}
}
