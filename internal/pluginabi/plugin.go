// Package pluginabi defines the capability set every RTSyn plugin
// satisfies, whether it is an in-process built-in or a dynamically loaded
// shared library. The engine addresses plugins only through this
// interface; internal/pluginabi/dynload adapts the C vtable ABI to it and
// internal/pluginabi/builtin provides in-process implementations.
package pluginabi

import (
	"encoding/json"
	"fmt"
)

// Port is a stable string identifier for an input or output signal.
type Port string

// ProcessContext carries the per-tick state a plugin's process call needs.
type ProcessContext struct {
	Tick          uint64
	PeriodSeconds float64
	TimeScale     float64
	TimeLabel     string
}

// Meta is a plugin's display metadata and default variable bindings,
// queried once at load time and again on demand via introspection.
type Meta struct {
	DisplayName      string             `json:"display_name"`
	DefaultVariables map[string]float64 `json:"default_variables,omitempty"`
}

// Behavior describes optional capabilities the supervisor needs to know
// about but the engine itself never interprets.
type Behavior struct {
	ExtendableInputs    bool `json:"extendable_inputs"`
	AutoExtendInputs    bool `json:"auto_extend_inputs"`
	SupportsStartStop   bool `json:"supports_start_stop"`
	SupportsRestart     bool `json:"supports_restart"`
	LoadsStarted        bool `json:"loads_started"`
	ExternalWindow      bool `json:"external_window"`
	ConnectionDependent bool `json:"connection_dependent"`
}

// ErrProcessingFailed is returned by Process when a plugin's tick logic
// fails; it is never fatal to the engine (§7 "Processing" error kind).
type ErrProcessingFailed struct {
	Kind   string
	Reason string
}

func (e *ErrProcessingFailed) Error() string {
	return fmt.Sprintf("plugin %s: processing failed: %s", e.Kind, e.Reason)
}

// Plugin is the capability set every graph node satisfies. Built-in
// plugins implement it directly; dynload.Instance adapts the shared
// object vtable to the same surface.
type Plugin interface {
	ID() uint64
	Kind() string
	Meta() Meta

	Inputs() []Port
	Outputs() []Port

	SetConfig(config map[string]any) error
	SetInput(port Port, value float64)
	Process(ctx ProcessContext) error
	GetOutput(port Port) float64

	// Behavior and UISchema return nil when the plugin declines the
	// corresponding optional capability (nullable entry points in §4.2).
	Behavior() *Behavior
	UISchema() json.RawMessage

	// Close destroys the plugin instance, mirroring the ABI's destroy
	// entry point. Called on removal from the active set and as the
	// first half of a restart.
	Close() error
}

// Factory constructs a fresh Plugin instance for a given kind, id, and
// config — used uniformly by the engine's plugin diff (create new,
// destroy removed) and by RestartPlugin (destroy + create + set_config).
type Factory interface {
	New(id uint64, kind string, config map[string]any) (Plugin, error)
}
