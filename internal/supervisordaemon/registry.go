package supervisordaemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rtsyn/rtsyn/internal/pluginabi"
)

// Registry is the supervisor-owned installed-plugin registry (§6
// "Installed-plugin registry"): a JSON file the engine never reads or
// writes. It tracks both bundled built-ins (non-removable, no library
// path) and dynamically loaded plugins discovered under the configured
// plugin directories.
type Registry struct {
	path string

	mu        sync.Mutex
	Installed []pluginabi.InstalledPlugin `json:"installed"`
}

func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// Load reads the registry file, tolerating its absence (a fresh daemon
// install starts with an empty registry, not an error).
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		r.Installed = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("read plugin registry: %w", err)
	}
	var envelope struct {
		Installed []pluginabi.InstalledPlugin `json:"installed"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("parse plugin registry: %w", err)
	}
	r.Installed = envelope.Installed
	return nil
}

func (r *Registry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked()
}

func (r *Registry) saveLocked() error {
	envelope := struct {
		Installed []pluginabi.InstalledPlugin `json:"installed"`
	}{Installed: r.Installed}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plugin registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	return os.WriteFile(r.path, data, 0o644)
}

// List returns a snapshot of every installed plugin.
func (r *Registry) List() []pluginabi.InstalledPlugin {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pluginabi.InstalledPlugin, len(r.Installed))
	copy(out, r.Installed)
	return out
}

func matches(p pluginabi.InstalledPlugin, kindOrName string) bool {
	return p.Manifest.Kind == kindOrName || strings.EqualFold(p.Manifest.Name, kindOrName)
}

// FindByKindOrName looks up an installed plugin by its kind or by its
// display name, case-insensitively on the name (§ catalog.rs lookup
// convention).
func (r *Registry) FindByKindOrName(kindOrName string) (pluginabi.InstalledPlugin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.Installed {
		if matches(p, kindOrName) {
			return p, true
		}
	}
	return pluginabi.InstalledPlugin{}, false
}

// SeedBuiltins registers every built-in kind as a non-removable, no-path
// installed plugin if it is not already present, so "plugin list" shows
// the bundled set alongside anything dynamically loaded.
func (r *Registry) SeedBuiltins(kinds []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, kind := range kinds {
		found := false
		for _, p := range r.Installed {
			if p.Manifest.Kind == kind {
				found = true
				break
			}
		}
		if found {
			continue
		}
		r.Installed = append(r.Installed, pluginabi.InstalledPlugin{
			Manifest:  pluginabi.Manifest{Name: kind, Kind: kind},
			Removable: false,
		})
	}
}

// InstallFromFolder reads plugin.toml from folder and registers the
// plugin as installed, resolving its shared-library path relative to the
// manifest. Bundled kinds already seeded as non-removable are rejected to
// avoid shadowing a built-in with a same-named dynamic library.
func (r *Registry) InstallFromFolder(folder string) (pluginabi.InstalledPlugin, error) {
	manifestPath := filepath.Join(folder, "plugin.toml")
	m, err := pluginabi.LoadManifest(manifestPath)
	if err != nil {
		return pluginabi.InstalledPlugin{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.Installed {
		if p.Manifest.Kind == m.Kind && !p.Removable {
			return pluginabi.InstalledPlugin{}, fmt.Errorf("kind %q is a bundled plugin and cannot be shadowed", m.Kind)
		}
	}

	installed := pluginabi.InstalledPlugin{
		Manifest:    *m,
		Path:        manifestPath,
		LibraryPath: m.LibraryPath(manifestPath),
		Removable:   true,
	}
	r.Installed = append(r.Installed, installed)
	if err := r.saveLocked(); err != nil {
		return pluginabi.InstalledPlugin{}, err
	}
	return installed, nil
}

// Uninstall removes a previously installed (removable) plugin.
func (r *Registry) Uninstall(kindOrName string) (pluginabi.InstalledPlugin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.Installed {
		if !matches(p, kindOrName) {
			continue
		}
		if !p.Removable {
			return pluginabi.InstalledPlugin{}, fmt.Errorf("plugin %q is bundled and cannot be uninstalled", kindOrName)
		}
		r.Installed = append(r.Installed[:i], r.Installed[i+1:]...)
		if err := r.saveLocked(); err != nil {
			return pluginabi.InstalledPlugin{}, err
		}
		return p, nil
	}
	return pluginabi.InstalledPlugin{}, fmt.Errorf("plugin %q is not installed", kindOrName)
}

// ScanDirs discovers plugin.toml manifests under every configured plugin
// directory and installs any not already known, mirroring
// scan_detected_plugins_in's one-shot startup discovery.
func (r *Registry) ScanDirs(dirs []string) {
	for _, dir := range dirs {
		for _, detected := range pluginabi.ScanFolder(dir) {
			folder := filepath.Dir(detected.Path)
			if _, ok := r.FindByKindOrName(detected.Manifest.Kind); ok {
				continue
			}
			_, _ = r.InstallFromFolder(folder)
		}
	}
}
