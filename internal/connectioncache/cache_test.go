package connectioncache

import (
	"math"
	"testing"

	"github.com/rtsyn/rtsyn/internal/workspace"
)

func TestInputSumAddsTwoSources(t *testing.T) {
	ws := &workspace.Workspace{
		Connections: []workspace.ConnectionDefinition{
			{FromPlugin: 1, FromPort: "out", ToPlugin: 3, ToPort: "in"},
			{FromPlugin: 2, FromPort: "out", ToPlugin: 3, ToPort: "in"},
		},
	}
	cache := Build(ws)
	outputs := map[OutputKey]float64{
		{Plugin: 1, Port: "out"}: 3.0,
		{Plugin: 2, Port: "out"}: 4.0,
	}
	if got := cache.InputSum(outputs, 3, "in"); got != 7.0 {
		t.Fatalf("expected 7.0, got %v", got)
	}
}

func TestInputSumSanitisesNonFinite(t *testing.T) {
	ws := &workspace.Workspace{
		Connections: []workspace.ConnectionDefinition{
			{FromPlugin: 1, FromPort: "out", ToPlugin: 2, ToPort: "in"},
		},
	}
	cache := Build(ws)
	outputs := map[OutputKey]float64{
		{Plugin: 1, Port: "out"}: math.NaN(),
	}
	if got := cache.InputSum(outputs, 2, "in"); got != 0.0 {
		t.Fatalf("expected 0.0 for NaN source, got %v", got)
	}
}

func TestInputSumZeroWhenUnconnected(t *testing.T) {
	cache := Build(&workspace.Workspace{})
	if got := cache.InputSum(nil, 1, "in"); got != 0.0 {
		t.Fatalf("expected 0.0 for unconnected port, got %v", got)
	}
}

func TestIncomingAndPortSets(t *testing.T) {
	ws := &workspace.Workspace{
		Connections: []workspace.ConnectionDefinition{
			{FromPlugin: 1, FromPort: "out", ToPlugin: 2, ToPort: "in_0"},
		},
	}
	cache := Build(ws)
	sources := cache.Incoming(2, "in_0")
	if len(sources) != 1 || sources[0] != (OutputKey{Plugin: 1, Port: "out"}) {
		t.Fatalf("unexpected sources: %+v", sources)
	}
	if ports := cache.IncomingPorts(2); len(ports) != 1 || ports[0] != "in_0" {
		t.Fatalf("unexpected incoming ports: %v", ports)
	}
	if ports := cache.OutgoingPorts(1); len(ports) != 1 || ports[0] != "out" {
		t.Fatalf("unexpected outgoing ports: %v", ports)
	}
}
