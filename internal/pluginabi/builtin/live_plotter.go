package builtin

import (
	"encoding/json"

	"github.com/rtsyn/rtsyn/internal/pluginabi"
)

// LivePlotterKind is an extendable-inputs sink with no outputs; its
// input_values are read by the engine's per-tick sample buffer, not by
// any downstream plugin (§4.4 step 4, §4.5 "Per-plotter sample buffers").
const LivePlotterKind = "live_plotter"

type LivePlotter struct {
	id          uint64
	inputCount  int
	inputValues []float64
	running     bool
}

func NewLivePlotter(id uint64) *LivePlotter {
	return &LivePlotter{id: id}
}

func (p *LivePlotter) ID() uint64   { return p.id }
func (p *LivePlotter) Kind() string { return LivePlotterKind }
func (p *LivePlotter) Meta() pluginabi.Meta {
	return pluginabi.Meta{
		DisplayName: "Live Plotter",
		DefaultVariables: map[string]float64{
			"input_count": float64(p.inputCount),
			"refresh_hz":  60,
		},
	}
}

func (p *LivePlotter) Inputs() []pluginabi.Port {
	ports := make([]pluginabi.Port, p.inputCount)
	for i := range ports {
		ports[i] = extendablePort(i)
	}
	return ports
}

func (p *LivePlotter) Outputs() []pluginabi.Port { return nil }

func (p *LivePlotter) SetConfig(config map[string]any) error {
	if n, ok := config["input_count"]; ok {
		if f, ok := toFloat(n); ok {
			p.resize(int(f))
		}
	}
	if r, ok := config["running"].(bool); ok {
		p.running = r
	}
	return nil
}

func (p *LivePlotter) resize(n int) {
	if n < 0 {
		n = 0
	}
	if p.inputCount == n {
		return
	}
	p.inputCount = n
	values := make([]float64, n)
	copy(values, p.inputValues)
	p.inputValues = values
}

func (p *LivePlotter) SetInput(port pluginabi.Port, value float64) {
	idx, ok := portIndex(port)
	if !ok || idx < 0 || idx >= len(p.inputValues) {
		return
	}
	p.inputValues[idx] = value
}

func (p *LivePlotter) Process(pluginabi.ProcessContext) error { return nil }

func (p *LivePlotter) GetOutput(pluginabi.Port) float64 { return 0 }

// SampleValues is read once per tick by the engine to feed the per-plugin
// plotter sample buffer; it is not part of the pluginabi.Plugin surface
// because built-in plugins may expose it directly without going through
// the ABI.
func (p *LivePlotter) SampleValues() []float64 {
	out := make([]float64, len(p.inputValues))
	copy(out, p.inputValues)
	return out
}

func (p *LivePlotter) Behavior() *pluginabi.Behavior {
	return &pluginabi.Behavior{ExtendableInputs: true, AutoExtendInputs: true, SupportsStartStop: true}
}

func (p *LivePlotter) UISchema() json.RawMessage { return nil }

func (p *LivePlotter) Close() error { return nil }
