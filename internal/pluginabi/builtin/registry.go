package builtin

import (
	"fmt"

	"github.com/rtsyn/rtsyn/internal/pluginabi"
)

// Registry is a pluginabi.Factory dispatching over the fixed set of
// built-in kinds — the "{BuiltinA, BuiltinB, ..., Dynamic(vtable)}"
// tagged variant from §9 "Design notes", restricted to the in-process
// half of it. pluginhost.Host consults this first and falls back to
// dynload.Loader for unrecognised kinds.
type Registry struct{}

func NewRegistry() *Registry { return &Registry{} }

// Kinds lists every kind this registry can construct; Supports checks
// against it.
func (r *Registry) Kinds() []string {
	return []string{MockSourceKind, LivePlotterKind, PerformanceMonitorKind, CsvRecorderKind}
}

func (r *Registry) Supports(kind string) bool {
	for _, k := range r.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func (r *Registry) New(id uint64, kind string, config map[string]any) (pluginabi.Plugin, error) {
	var p pluginabi.Plugin
	switch kind {
	case MockSourceKind:
		p = NewMockSource(id)
	case LivePlotterKind:
		p = NewLivePlotter(id)
	case PerformanceMonitorKind:
		p = NewPerformanceMonitor(id)
	case CsvRecorderKind:
		p = NewCsvRecorder(id)
	default:
		return nil, fmt.Errorf("builtin: unrecognised kind %q", kind)
	}
	if err := p.SetConfig(config); err != nil {
		return nil, fmt.Errorf("builtin %q: set_config: %w", kind, err)
	}
	return p, nil
}
