package workspace

import "testing"

func idsEqual(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTopologicallyOrderLinearChain(t *testing.T) {
	plugins := []PluginDefinition{{ID: 3}, {ID: 1}, {ID: 2}}
	connections := []ConnectionDefinition{
		{FromPlugin: 1, FromPort: "out_0", ToPlugin: 2, ToPort: "in_0"},
		{FromPlugin: 2, FromPort: "out_0", ToPlugin: 3, ToPort: "in_0"},
	}
	got := TopologicallyOrder(plugins, connections)
	want := []uint64{1, 2, 3}
	if !idsEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTopologicallyOrderRespectsPriorityClasses(t *testing.T) {
	plugins := []PluginDefinition{
		{ID: 10, Priority: 1},
		{ID: 1, Priority: 0},
		{ID: 2, Priority: 0},
	}
	got := TopologicallyOrder(plugins, nil)
	if got[len(got)-1] != 10 {
		t.Fatalf("expected priority-1 plugin to run last, order was %v", got)
	}
	if got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected priority-0 plugins ordered by id first, got %v", got)
	}
}

func TestTopologicallyOrderBreaksCyclesDeterministically(t *testing.T) {
	plugins := []PluginDefinition{{ID: 1}, {ID: 2}}
	connections := []ConnectionDefinition{
		{FromPlugin: 1, FromPort: "out_0", ToPlugin: 2, ToPort: "in_0"},
		{FromPlugin: 2, FromPort: "out_0", ToPlugin: 1, ToPort: "in_0"},
	}
	got := TopologicallyOrder(plugins, connections)
	if len(got) != 2 {
		t.Fatalf("expected both cyclic nodes present, got %v", got)
	}
}

func TestTopologicallyOrderIgnoresCrossClassEdges(t *testing.T) {
	plugins := []PluginDefinition{
		{ID: 1, Priority: 0},
		{ID: 2, Priority: 1},
	}
	// Edge crosses priority classes; ordering is governed purely by
	// priority, not by this edge.
	connections := []ConnectionDefinition{
		{FromPlugin: 2, FromPort: "out_0", ToPlugin: 1, ToPort: "in_0"},
	}
	got := TopologicallyOrder(plugins, connections)
	want := []uint64{1, 2}
	if !idsEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
