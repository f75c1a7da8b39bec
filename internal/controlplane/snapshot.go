package controlplane

// PortKey addresses one (plugin, port) slot in a published snapshot.
type PortKey struct {
	Plugin uint64
	Port   string
}

// VariableKey addresses one (plugin, internal_variable_name) slot.
type VariableKey struct {
	Plugin   uint64
	Variable string
}

// PlotterSample is one tick's worth of live-plotter input values.
type PlotterSample struct {
	Tick   uint64
	Values []float64
}

// Snapshot is the single outbound message published by the RT thread at
// most once per 1/ui_hz interval (§4.5 "State snapshot"). It collects every
// tick since the previous publication. The supervisor drains it at its own
// rate; when the channel is full the engine drops the oldest buffered
// snapshot, and the data in it, rather than block.
type Snapshot struct {
	Tick uint64

	Outputs          map[PortKey]float64
	MaterializedInputs map[PortKey]float64
	Variables        map[VariableKey]any
	ViewerValues     map[uint64]float64

	// PlotterSamples accumulates every tick's samples since the last
	// publication, keyed by plugin id, so ticks between publications are
	// not lost; samples in a snapshot the engine drops are lost with it.
	PlotterSamples map[uint64][]PlotterSample

	RealtimeViolation bool
	OverrunCount      uint64
}

// NewSnapshot allocates an empty snapshot ready for incremental filling.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Outputs:            make(map[PortKey]float64),
		MaterializedInputs: make(map[PortKey]float64),
		Variables:          make(map[VariableKey]any),
		ViewerValues:       make(map[uint64]float64),
		PlotterSamples:     make(map[uint64][]PlotterSample),
	}
}
