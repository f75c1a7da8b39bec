package pluginabi

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is the decoded form of a plugin.toml file (§6 "Plugin
// manifest"). Library is relative to the folder containing the manifest.
type Manifest struct {
	Name        string   `toml:"name"`
	Kind        string   `toml:"kind"`
	Version     string   `toml:"version,omitempty"`
	Description string   `toml:"description,omitempty"`
	Library     string   `toml:"library,omitempty"`
	APIVersion  uint32   `toml:"api_version,omitempty"`
	Inputs      []string `toml:"inputs,omitempty"`
	Outputs     []string `toml:"outputs,omitempty"`
	Variables   []string `toml:"variables,omitempty"`

	SupportsStartStop   bool `toml:"supports_start_stop,omitempty"`
	SupportsRestart     bool `toml:"supports_restart,omitempty"`
	ExtendableInputs    bool `toml:"extendable_inputs,omitempty"`
	AutoExtendInputs    bool `toml:"auto_extend_inputs,omitempty"`
	ConnectionDependent bool `toml:"connection_dependent,omitempty"`
	LoadsStarted        bool `toml:"loads_started,omitempty"`
}

// LoadManifest decodes a plugin.toml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %q: %w", path, err)
	}
	if m.Name == "" || m.Kind == "" {
		return nil, fmt.Errorf("manifest %q: name and kind are required", path)
	}
	return &m, nil
}

// LibraryPath resolves Library relative to the manifest's containing
// directory, or returns "" when the manifest describes a built-in kind
// with no shared object.
func (m *Manifest) LibraryPath(manifestPath string) string {
	if m.Library == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(manifestPath), m.Library)
}

// DetectedPlugin pairs a manifest with the folder it was found in, before
// any registration decision has been made — the loader's candidate list.
type DetectedPlugin struct {
	Manifest Manifest `json:"manifest"`
	Path     string   `json:"path"`
}

// InstalledPlugin is one entry in the installed-plugin registry (§6
// "Installed-plugin registry"), maintained by supervisors; the engine
// never reads or writes it.
type InstalledPlugin struct {
	Manifest           Manifest `json:"manifest"`
	Path               string   `json:"path"`
	LibraryPath        string   `json:"library_path,omitempty"`
	Removable          bool     `json:"removable"`
	MetadataInputs     []string `json:"metadata_inputs,omitempty"`
	MetadataOutputs    []string `json:"metadata_outputs,omitempty"`
	DisplaySchema      []byte   `json:"display_schema,omitempty"`
	UISchema           []byte   `json:"ui_schema,omitempty"`
}

// ScanFolder walks a plugin directory for plugin.toml files one level
// deep (each plugin lives in its own subfolder), returning the detected
// manifests. Missing or malformed manifests are skipped, never fatal —
// loader errors are compatibility warnings, not loader failures (§7).
func ScanFolder(dir string) []DetectedPlugin {
	var found []DetectedPlugin
	entries, err := os.ReadDir(dir)
	if err != nil {
		return found
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		manifestPath := filepath.Join(dir, e.Name(), "plugin.toml")
		m, err := LoadManifest(manifestPath)
		if err != nil {
			continue
		}
		found = append(found, DetectedPlugin{Manifest: *m, Path: manifestPath})
	}
	return found
}
