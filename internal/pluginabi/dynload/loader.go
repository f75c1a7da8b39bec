package dynload

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rtsyn/rtsyn/internal/obs"
	"github.com/rtsyn/rtsyn/internal/pluginabi"
)

// CompatibilityWarning is a non-fatal loader error (§7 "Loader"): the
// offending plugin is not instantiated, but the rest of the graph runs.
type CompatibilityWarning struct {
	Kind    string
	Library string
	Reason  string
}

func (w *CompatibilityWarning) Error() string {
	return fmt.Sprintf("plugin %q (%s): %s", w.Kind, w.Library, w.Reason)
}

// Loader dlopens and caches shared-object libraries by path, validating
// each against the host's supported api_version range before plugins of
// that kind may be instantiated.
type Loader struct {
	log            *zap.Logger
	apiVersionMin  uint32
	apiVersionMax  uint32

	mu   sync.Mutex
	libs map[string]*library
}

func NewLoader(log *zap.Logger, apiVersionMin, apiVersionMax uint32) *Loader {
	return &Loader{
		log:           log,
		apiVersionMin: apiVersionMin,
		apiVersionMax: apiVersionMax,
		libs:          make(map[string]*library),
	}
}

// Factory returns a pluginabi.Factory bound to one shared-object path,
// after validating its api_version. On incompatibility it logs a
// compatibility warning and returns the warning as an error; the caller
// (supervisor/engine) must skip this plugin kind without failing the
// rest of the load.
func (l *Loader) Factory(kind, libraryPath string) (pluginabi.Factory, error) {
	lib, err := l.open(kind, libraryPath)
	if err != nil {
		return nil, err
	}
	version, err := lib.probeAPIVersion(0)
	if err != nil {
		w := &CompatibilityWarning{Kind: kind, Library: libraryPath, Reason: err.Error()}
		obs.LoaderCompatibilityWarnings.Inc()
		l.log.Warn("plugin loader compatibility warning", obs.String("kind", kind), obs.String("library", libraryPath), obs.Err(w))
		return nil, w
	}
	if version < l.apiVersionMin || version > l.apiVersionMax {
		w := &CompatibilityWarning{
			Kind:    kind,
			Library: libraryPath,
			Reason:  fmt.Sprintf("api_version %d outside supported range [%d,%d]", version, l.apiVersionMin, l.apiVersionMax),
		}
		obs.LoaderCompatibilityWarnings.Inc()
		l.log.Warn("plugin loader compatibility warning", obs.String("kind", kind), obs.String("library", libraryPath), obs.Err(w))
		return nil, w
	}
	return &dynFactory{lib: lib, kind: kind}, nil
}

func (l *Loader) open(kind, libraryPath string) (*library, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lib, ok := l.libs[libraryPath]; ok {
		return lib, nil
	}
	lib, err := openLibrary(libraryPath)
	if err != nil {
		return nil, &CompatibilityWarning{Kind: kind, Library: libraryPath, Reason: err.Error()}
	}
	l.libs[libraryPath] = lib
	return lib, nil
}

// dynFactory implements pluginabi.Factory for one resolved shared object.
type dynFactory struct {
	lib  *library
	kind string
}

func (f *dynFactory) New(id uint64, kind string, config map[string]any) (pluginabi.Plugin, error) {
	inst, err := newInstance(f.lib, id, kind)
	if err != nil {
		return nil, err
	}
	if err := inst.SetConfig(config); err != nil {
		_ = inst.Close()
		return nil, err
	}
	return inst, nil
}
