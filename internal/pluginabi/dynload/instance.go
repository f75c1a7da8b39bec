package dynload

import (
	"encoding/json"
	"fmt"
	"math"
	"unsafe"

	"github.com/rtsyn/rtsyn/internal/pluginabi"
)

// dynMeta is the wire shape of meta_json, carrying the advisory
// api_version the loader validates against its supported range.
type dynMeta struct {
	DisplayName      string             `json:"display_name"`
	DefaultVariables map[string]float64 `json:"default_variables,omitempty"`
	APIVersion       uint32             `json:"api_version"`
}

// Instance adapts one dlopen'd plugin handle to pluginabi.Plugin. It owns
// the foreign handle returned by create(); Close() destroys it exactly
// once.
type Instance struct {
	id      uint64
	kind    string
	lib     *library
	handle  uintptr
	meta    pluginabi.Meta
	inputs  []pluginabi.Port
	outputs []pluginabi.Port
	closed  bool
}

// newInstance calls create(id) on the library's vtable and queries the
// fixed introspection surface (meta/inputs/outputs) once, up front.
func newInstance(lib *library, id uint64, kind string) (*Instance, error) {
	handleR1, _ := lib.vt.call(slotCreate, uintptr(id))
	if handleR1 == 0 {
		return nil, fmt.Errorf("plugin %q: create(%d) returned a null handle", kind, id)
	}

	inst := &Instance{id: id, kind: kind, lib: lib, handle: handleR1}

	metaRaw, err := inst.callString(slotMetaJSON)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: meta_json: %w", kind, err)
	}
	var dm dynMeta
	if err := json.Unmarshal(metaRaw, &dm); err != nil {
		return nil, fmt.Errorf("plugin %q: decode meta_json: %w", kind, err)
	}
	inst.meta = pluginabi.Meta{DisplayName: dm.DisplayName, DefaultVariables: dm.DefaultVariables}

	inputsRaw, err := inst.callString(slotInputsJSON)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: inputs_json: %w", kind, err)
	}
	inst.inputs, err = decodePorts(inputsRaw)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: decode inputs_json: %w", kind, err)
	}

	outputsRaw, err := inst.callString(slotOutputsJSON)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: outputs_json: %w", kind, err)
	}
	inst.outputs, err = decodePorts(outputsRaw)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: decode outputs_json: %w", kind, err)
	}

	return inst, nil
}

func decodePorts(raw []byte) ([]pluginabi.Port, error) {
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, err
	}
	ports := make([]pluginabi.Port, len(names))
	for i, n := range names {
		ports[i] = pluginabi.Port(n)
	}
	return ports, nil
}

// probeAPIVersion creates a throwaway instance solely to read the
// advisory api_version out of meta_json, then destroys it — used by the
// loader's compatibility check before committing to a full load.
func (l *library) probeAPIVersion(probeID uint64) (uint32, error) {
	handleR1, _ := l.vt.call(slotCreate, uintptr(probeID))
	if handleR1 == 0 {
		return 0, fmt.Errorf("create(%d) returned a null handle", probeID)
	}
	defer l.vt.call(slotDestroy, handleR1)

	ptr, length := l.vt.call(slotMetaJSON, handleR1)
	raw := l.readString(ptr, length)
	var dm dynMeta
	if err := json.Unmarshal(raw, &dm); err != nil {
		return 0, fmt.Errorf("decode meta_json: %w", err)
	}
	return dm.APIVersion, nil
}

func (inst *Instance) callString(slot vtableSlot) ([]byte, error) {
	ptr, length := inst.lib.vt.call(slot, inst.handle)
	return inst.lib.readString(ptr, length), nil
}

func (inst *Instance) ID() uint64   { return inst.id }
func (inst *Instance) Kind() string { return inst.kind }
func (inst *Instance) Meta() pluginabi.Meta { return inst.meta }

func (inst *Instance) Inputs() []pluginabi.Port  { return inst.inputs }
func (inst *Instance) Outputs() []pluginabi.Port { return inst.outputs }

func (inst *Instance) SetConfig(config map[string]any) error {
	payload, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("plugin %q: marshal config: %w", inst.kind, err)
	}
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	ptr := uintptr(unsafe.Pointer(&payload[0]))
	inst.lib.vt.call(slotSetConfigJSON, inst.handle, ptr, uintptr(len(payload)))
	return nil
}

func (inst *Instance) SetInput(port pluginabi.Port, value float64) {
	name := []byte(port)
	var namePtr uintptr
	if len(name) > 0 {
		namePtr = uintptr(unsafe.Pointer(&name[0]))
	}
	inst.lib.vt.call(slotSetInput, inst.handle, namePtr, uintptr(len(name)), math.Float64bits(value))
}

func (inst *Instance) Process(ctx pluginabi.ProcessContext) error {
	r1, _ := inst.lib.vt.call(slotProcess, inst.handle, uintptr(ctx.Tick), math.Float64bits(ctx.PeriodSeconds))
	if r1 != 0 {
		return &pluginabi.ErrProcessingFailed{Kind: inst.kind, Reason: "process() returned non-zero status"}
	}
	return nil
}

func (inst *Instance) GetOutput(port pluginabi.Port) float64 {
	if inst.lib.getOutput == nil {
		return 0
	}
	name := []byte(port)
	var namePtr uintptr
	if len(name) > 0 {
		namePtr = uintptr(unsafe.Pointer(&name[0]))
	}
	value := inst.lib.getOutput(inst.handle, namePtr, uintptr(len(name)))
	return pluginabi.Sanitize(value)
}

func (inst *Instance) Behavior() *pluginabi.Behavior {
	if !inst.lib.vt.hasSlot(slotBehaviorJSON) {
		return nil
	}
	raw, _ := inst.callString(slotBehaviorJSON)
	b, err := pluginabi.ParseBehavior(raw)
	if err != nil {
		return nil
	}
	return b
}

func (inst *Instance) UISchema() json.RawMessage {
	if !inst.lib.vt.hasSlot(slotUISchemaJSON) {
		return nil
	}
	raw, _ := inst.callString(slotUISchemaJSON)
	if pluginabi.ValidateUISchema(raw) != nil {
		return nil
	}
	return raw
}

func (inst *Instance) Close() error {
	if inst.closed {
		return fmt.Errorf("plugin %q: destroy after use", inst.kind)
	}
	inst.closed = true
	inst.lib.vt.call(slotDestroy, inst.handle)
	return nil
}
