// Package pluginhost composes the two plugin sources the engine can draw
// from — the in-process built-in registry and the dynamically loaded
// shared-library ABI — behind a single pluginabi.Factory, so the engine
// itself never needs to know which kind of plugin it is instantiating.
package pluginhost

import (
	"fmt"
	"sync"

	"github.com/rtsyn/rtsyn/internal/pluginabi"
	"github.com/rtsyn/rtsyn/internal/pluginabi/builtin"
	"github.com/rtsyn/rtsyn/internal/pluginabi/dynload"
)

// Host resolves a plugin kind to either the built-in registry or a
// dynamically loaded library, caching the latter's per-kind factory once
// the manifest has been resolved.
type Host struct {
	builtin *builtin.Registry
	loader  *dynload.Loader

	mu          sync.Mutex
	libraryPath map[string]string // kind -> shared library path, from installed manifests
	dynFactory  map[string]pluginabi.Factory
}

// New builds a Host. loader may be nil if dynamic loading is disabled for
// this process (e.g. a test harness that only exercises built-ins).
func New(loader *dynload.Loader) *Host {
	return &Host{
		builtin:     builtin.NewRegistry(),
		loader:      loader,
		libraryPath: make(map[string]string),
		dynFactory:  make(map[string]pluginabi.Factory),
	}
}

// RegisterLibrary associates a plugin kind (as declared in a plugin.toml
// manifest) with the shared library that implements it, so later New
// calls for that kind resolve through the dynamic loader.
func (h *Host) RegisterLibrary(kind, libraryPath string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.libraryPath[kind] = libraryPath
	delete(h.dynFactory, kind) // a re-registration invalidates any cached factory
}

// New implements pluginabi.Factory.
func (h *Host) New(id uint64, kind string, config map[string]any) (pluginabi.Plugin, error) {
	if h.builtin.Supports(kind) {
		return h.builtin.New(id, kind, config)
	}

	h.mu.Lock()
	factory, ok := h.dynFactory[kind]
	if !ok {
		libPath, known := h.libraryPath[kind]
		if !known || h.loader == nil {
			h.mu.Unlock()
			return nil, fmt.Errorf("unknown plugin kind %q", kind)
		}
		var err error
		factory, err = h.loader.Factory(kind, libPath)
		if err != nil {
			h.mu.Unlock()
			return nil, err
		}
		h.dynFactory[kind] = factory
	}
	h.mu.Unlock()

	return factory.New(id, kind, config)
}
