package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.json")

	w := &Workspace{
		Name:        "demo",
		Description: "round trip",
		Plugins: []PluginDefinition{
			{ID: 1, Kind: "mock_out_5", Config: map[string]any{"value": 5.0}, Running: true},
		},
		Settings: DefaultSettings(),
	}
	if err := w.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.Name != "demo" {
		t.Fatalf("expected name 'demo', got %q", loaded.Name)
	}
	if len(loaded.Plugins) != 1 || loaded.Plugins[0].Kind != "mock_out_5" {
		t.Fatalf("unexpected plugins after round trip: %+v", loaded.Plugins)
	}
}

func TestLoadFromFileDefaultsRunningTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no_running_field.json")
	raw := `{"name":"n","plugins":[{"id":1,"kind":"k","config":{}}]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ws, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if !ws.Plugins[0].Running {
		t.Fatal("expected running to default to true when absent")
	}
}

func TestLoadFromFileDefaultsSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no_settings.json")
	raw := `{"name":"n","plugins":[]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ws, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	period, err := ws.Settings.PeriodSeconds()
	if err != nil {
		t.Fatalf("PeriodSeconds: %v", err)
	}
	if period != 0.001 {
		t.Fatalf("expected default 1ms period, got %v", period)
	}
}

func TestToUMLDiagramIncludesPluginsAndConnections(t *testing.T) {
	w := &Workspace{
		Name: "uml-demo",
		Plugins: []PluginDefinition{
			{ID: 1, Kind: "source"},
			{ID: 2, Kind: "sink"},
		},
		Connections: []ConnectionDefinition{
			{FromPlugin: 1, FromPort: "out_0", ToPlugin: 2, ToPort: "in_0"},
		},
	}
	diagram := w.ToUMLDiagram()
	if !containsAll(diagram, "@startuml", "@enduml", "P1", "P2", "P1 --> P2") {
		t.Fatalf("diagram missing expected fragments:\n%s", diagram)
	}
}

func containsAll(s string, fragments ...string) bool {
	for _, f := range fragments {
		if !strings.Contains(s, f) {
			return false
		}
	}
	return true
}
