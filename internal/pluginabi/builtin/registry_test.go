package builtin

import (
	"testing"

	"github.com/rtsyn/rtsyn/internal/pluginabi"
)

func TestMockSourceReturnsConfiguredValue(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.New(1, MockSourceKind, map[string]any{"value": 7.0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Process(pluginabi.ProcessContext{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := p.GetOutput("out"); got != 7.0 {
		t.Fatalf("expected 7.0, got %v", got)
	}
}

func TestMockSourceDefaultsToFive(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.New(1, MockSourceKind, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := p.GetOutput("out"); got != 5.0 {
		t.Fatalf("expected default 5.0, got %v", got)
	}
}

func TestLivePlotterResizesInputsOnConfig(t *testing.T) {
	p := NewLivePlotter(1)
	if err := p.SetConfig(map[string]any{"input_count": 3.0}); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if len(p.Inputs()) != 3 {
		t.Fatalf("expected 3 inputs, got %d", len(p.Inputs()))
	}
	p.SetInput("in_1", 42.0)
	samples := p.SampleValues()
	if samples[1] != 42.0 {
		t.Fatalf("expected sample[1]=42.0, got %v", samples[1])
	}
}

func TestRegistryRejectsUnknownKind(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.New(1, "not_a_real_kind", nil); err == nil {
		t.Fatal("expected error for unrecognised kind")
	}
}

func TestRegistrySupports(t *testing.T) {
	reg := NewRegistry()
	if !reg.Supports(MockSourceKind) {
		t.Fatal("expected registry to support mock_source")
	}
	if reg.Supports("bogus") {
		t.Fatal("expected registry to reject bogus kind")
	}
}
