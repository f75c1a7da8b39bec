package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// workspaceOnDisk mirrors the JSON schema in spec.md §6; Settings is
// optional and Running defaults to true when absent, both handled by
// LoadFromFile below.
type workspaceOnDisk struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	TargetHz    float64                 `json:"target_hz"`
	Plugins     []pluginOnDisk          `json:"plugins"`
	Connections []ConnectionDefinition  `json:"connections"`
	Settings    *TimingSettings         `json:"settings,omitempty"`
}

type pluginOnDisk struct {
	ID       uint64         `json:"id"`
	Kind     string         `json:"kind"`
	Config   map[string]any `json:"config"`
	Priority int            `json:"priority"`
	Running  *bool          `json:"running,omitempty"`
}

// LoadFromFile reads a workspace JSON file. Unknown fields are tolerated
// (encoding/json already ignores them by default); settings default when
// absent; running defaults to true when absent. It does not prune
// extendable-input connections referring to ports beyond a plugin's
// declared input count: PruneExtendableInputs does that for one plugin
// when given the count, and nothing on the load path calls it.
func LoadFromFile(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace file %q: %w", path, err)
	}
	var onDisk workspaceOnDisk
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return nil, fmt.Errorf("parse workspace file %q: %w", path, err)
	}

	w := &Workspace{
		Name:        onDisk.Name,
		Description: onDisk.Description,
		TargetHz:    onDisk.TargetHz,
		Connections: onDisk.Connections,
	}
	if onDisk.Settings != nil {
		w.Settings = *onDisk.Settings
	} else {
		w.Settings = DefaultSettings()
	}
	w.Settings.SelectedCores = NormalizeCores(w.Settings.SelectedCores)

	w.Plugins = make([]PluginDefinition, 0, len(onDisk.Plugins))
	for _, p := range onDisk.Plugins {
		running := true
		if p.Running != nil {
			running = *p.Running
		}
		w.Plugins = append(w.Plugins, PluginDefinition{
			ID:       p.ID,
			Kind:     p.Kind,
			Config:   p.Config,
			Priority: p.Priority,
			Running:  running,
		})
	}
	w.syncIDAllocator()
	return w, nil
}

// SaveToFile writes the workspace as JSON, creating parent directories as
// needed.
func (w *Workspace) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create workspace dir %q: %w", dir, err)
		}
	}
	onDisk := workspaceOnDisk{
		Name:        w.Name,
		Description: w.Description,
		TargetHz:    w.TargetHz,
		Connections: w.Connections,
		Settings:    &w.Settings,
	}
	onDisk.Plugins = make([]pluginOnDisk, 0, len(w.Plugins))
	for _, p := range w.Plugins {
		running := p.Running
		onDisk.Plugins = append(onDisk.Plugins, pluginOnDisk{
			ID:       p.ID,
			Kind:     p.Kind,
			Config:   p.Config,
			Priority: p.Priority,
			Running:  &running,
		})
	}
	data, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal workspace: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write workspace file %q: %w", path, err)
	}
	return nil
}

// Entry summarises one workspace file on disk, used by the supervisor
// daemon's "workspace list" command.
type Entry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PluginCount int      `json:"plugins"`
	PluginKinds []string `json:"plugin_kinds"`
	Path        string   `json:"path"`
}

// ScanEntries enumerates every *.json file in dir that parses as a
// workspace, sorted by name.
func ScanEntries(dir string) []Entry {
	_ = os.MkdirAll(dir, 0o755)
	var entries []Entry
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return entries
	}
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, de.Name())
		ws, err := LoadFromFile(path)
		if err != nil {
			continue
		}
		kinds := make([]string, 0, len(ws.Plugins))
		for _, p := range ws.Plugins {
			kinds = append(kinds, p.Kind)
		}
		entries = append(entries, Entry{
			Name:        ws.Name,
			Description: ws.Description,
			PluginCount: len(ws.Plugins),
			PluginKinds: kinds,
			Path:        path,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// FilePathFor returns the conventional on-disk path for a workspace name.
func FilePathFor(dir, name string) string {
	safe := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	return filepath.Join(dir, safe+".json")
}

// ToUMLDiagram renders the plugin graph as a PlantUML component diagram:
// one component per plugin, one labeled edge per connection. Supplements
// spec.md's distillation with the CLI's "workspace uml" export, grounded
// on original_source/rtsyn-core/src/workspace/io.rs.
func (w *Workspace) ToUMLDiagram() string {
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("skinparam componentStyle rectangle\n")
	b.WriteString("skinparam ranksep 120\n")
	b.WriteString("skinparam nodesep 120\n")
	b.WriteString("skinparam ArrowFontSize 11\n\n")
	fmt.Fprintf(&b, "title RTSyn Workspace - %s\n\n", umlEscape(w.Name))

	for _, p := range w.Plugins {
		name := p.Kind
		if n, ok := p.Config["name"].(string); ok && strings.TrimSpace(n) != "" {
			name = n
		}
		fmt.Fprintf(&b, "component \"%s-%d\" as P%d\n", umlEscape(name), p.ID, p.ID)
	}
	b.WriteString("\n")
	if len(w.Plugins) == 0 {
		b.WriteString("note \"No plugins in workspace\" as N0\n")
	}

	for _, c := range w.Connections {
		fromPort := umlEscape(c.FromPort)
		toPort := umlEscape(c.ToPort)
		fmt.Fprintf(&b, "P%d --> P%d\n", c.FromPlugin, c.ToPlugin)
		b.WriteString("note on link\n")
		if fromPort == toPort {
			b.WriteString(fromPort + "\n")
		} else {
			fmt.Fprintf(&b, "%s to %s\n", fromPort, toPort)
		}
		b.WriteString("end note\n\n")
	}
	if len(w.Connections) == 0 {
		b.WriteString("note \"No connections in workspace\" as N1\n")
	}

	b.WriteString("@enduml")
	return b.String()
}

func umlEscape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
