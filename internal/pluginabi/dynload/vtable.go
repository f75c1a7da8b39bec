// Package dynload loads RTSyn plugin shared objects and adapts their
// extern "C" vtable to the pluginabi.Plugin interface, using purego to
// avoid a cgo dependency (§4.2 "Dynamic-library ABI").
package dynload

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// vtableSlot indexes one extern "C" function pointer inside the PluginApi
// struct, in the declaration order from §4.2. The struct itself is
// foreign memory; Go only ever sees it as a flat array of function
// pointers read at known offsets.
type vtableSlot int

const (
	slotCreate vtableSlot = iota
	slotDestroy
	slotMetaJSON
	slotInputsJSON
	slotOutputsJSON
	slotSetConfigJSON
	slotSetInput
	slotProcess
	slotGetOutput
	slotBehaviorJSON
	slotUISchemaJSON
	slotFreeString
	slotCount
)

type vtable struct {
	fns [slotCount]uintptr
}

func readVtable(ptr uintptr) *vtable {
	raw := (*[slotCount]uintptr)(unsafe.Pointer(ptr))
	vt := &vtable{}
	copy(vt.fns[:], raw[:])
	return vt
}

// call invokes one vtable slot with raw word-sized arguments. Float
// arguments must be passed as math.Float64bits(x); purego's calling
// stub mirrors the first argument slots into both the integer and
// floating-point register files, which is what lets a single untyped
// call site feed a C function that actually expects a double.
// SyscallN only surfaces the integer return registers (rax/rdx), so it
// cannot be used for a slot whose C signature returns a double — get_output
// returns through XMM0 instead and is called through a typed
// purego.RegisterFunc binding (library.getOutput) rather than through call.
func (vt *vtable) call(slot vtableSlot, args ...uintptr) (uintptr, uintptr) {
	r1, r2, errno := purego.SyscallN(vt.fns[slot], args...)
	if errno != 0 {
		panic(fmt.Sprintf("plugin ABI call (slot %d) returned errno %d", slot, errno))
	}
	return r1, r2
}

func (vt *vtable) hasSlot(slot vtableSlot) bool {
	return vt.fns[slot] != 0
}

// library wraps one dlopen'd shared object and its resolved vtable.
type library struct {
	handle uintptr
	path   string
	vt     *vtable

	// getOutput is bound via purego.RegisterFunc rather than vt.call,
	// since get_output returns a C double in XMM0 and SyscallN only
	// surfaces integer return registers.
	getOutput func(handle, namePtr, nameLen uintptr) float64
}

// openLibrary dlopens path and resolves the single exported symbol
// rtsyn_plugin_api, calling it to obtain the static vtable pointer.
func openLibrary(path string) (*library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %q: %w", path, err)
	}
	sym, err := purego.Dlsym(handle, "rtsyn_plugin_api")
	if err != nil {
		return nil, fmt.Errorf("symbol rtsyn_plugin_api missing in %q: %w", path, err)
	}
	r1, _, errno := purego.SyscallN(sym)
	if errno != 0 {
		return nil, fmt.Errorf("rtsyn_plugin_api() in %q: errno %d", path, errno)
	}
	if r1 == 0 {
		return nil, fmt.Errorf("rtsyn_plugin_api() in %q returned a null vtable", path)
	}

	vt := readVtable(r1)
	lib := &library{handle: handle, path: path, vt: vt}
	if vt.hasSlot(slotGetOutput) {
		purego.RegisterFunc(&lib.getOutput, vt.fns[slotGetOutput])
	}
	return lib, nil
}

// readString converts a (ptr, len) PluginString pair into an owned Go
// byte slice, then calls the vtable's free thunk so the plugin reclaims
// its allocation. A zero ptr means the optional capability declined
// (behavior_json / ui_schema_json returning null).
func (l *library) readString(ptr, length uintptr) []byte {
	if ptr == 0 {
		return nil
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(length))
	out := make([]byte, len(raw))
	copy(out, raw)
	l.vt.call(slotFreeString, ptr, length)
	return out
}
