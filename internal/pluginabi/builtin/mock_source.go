// Package builtin provides the in-process reference plugins bundled with
// the host: a constant test source, a live-plotter-class sampler, a
// performance-monitor-class timing probe, and a CSV-recorder sink.
// Their contracts, not their internals, are what the spec actually
// cares about — these exist to exercise the engine end to end.
package builtin

import (
	"encoding/json"

	"github.com/rtsyn/rtsyn/internal/pluginabi"
)

// MockSourceKind is the built-in kind used by scenario 1/2 of the
// testable-properties suite: a constant output source, defaulting to 5.0
// ("mock_out_5"), configurable via config.value.
const MockSourceKind = "mock_source"

// MockSource is a no-input, single-output plugin returning a fixed value
// every tick. It has no behavior_json/ui_schema_json capability.
type MockSource struct {
	id    uint64
	value float64
}

func NewMockSource(id uint64) *MockSource {
	return &MockSource{id: id, value: 5.0}
}

func (p *MockSource) ID() uint64   { return p.id }
func (p *MockSource) Kind() string { return MockSourceKind }
func (p *MockSource) Meta() pluginabi.Meta {
	return pluginabi.Meta{
		DisplayName:      "Mock Source",
		DefaultVariables: map[string]float64{"value": p.value},
	}
}

func (p *MockSource) Inputs() []pluginabi.Port  { return nil }
func (p *MockSource) Outputs() []pluginabi.Port { return []pluginabi.Port{"out"} }

func (p *MockSource) SetConfig(config map[string]any) error {
	if v, ok := config["value"]; ok {
		if f, ok := toFloat(v); ok {
			p.value = f
		}
	}
	return nil
}

func (p *MockSource) SetInput(pluginabi.Port, float64) {}

func (p *MockSource) Process(pluginabi.ProcessContext) error { return nil }

func (p *MockSource) GetOutput(pluginabi.Port) float64 { return pluginabi.Sanitize(p.value) }

func (p *MockSource) Behavior() *pluginabi.Behavior  { return nil }
func (p *MockSource) UISchema() json.RawMessage      { return nil }

func (p *MockSource) Close() error { return nil }

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
