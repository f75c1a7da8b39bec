package workspace

import "testing"

func newTestWorkspace() *Workspace {
	return &Workspace{
		Plugins: []PluginDefinition{
			{ID: 1, Kind: "source_a"},
			{ID: 2, Kind: "source_b"},
			{ID: 3, Kind: "sink"},
		},
		Settings: DefaultSettings(),
	}
}

func TestValidateConnectionRejectsSelfConnection(t *testing.T) {
	w := newTestWorkspace()
	if err := w.ValidateConnection(1, "out_0", 1, "in_0"); err != ErrSelfConnection {
		t.Fatalf("expected ErrSelfConnection, got %v", err)
	}
}

func TestValidateConnectionRejectsDuplicate(t *testing.T) {
	w := newTestWorkspace()
	if err := w.AddConnection(ConnectionDefinition{FromPlugin: 1, FromPort: "out_0", ToPlugin: 3, ToPort: "in_0"}); err != nil {
		t.Fatalf("first connection should succeed: %v", err)
	}
	if err := w.ValidateConnection(1, "out_0", 3, "in_0"); err != ErrDuplicateConnection {
		t.Fatalf("expected ErrDuplicateConnection, got %v", err)
	}
}

func TestValidateConnectionEnforcesMaxPerInputDefault(t *testing.T) {
	w := newTestWorkspace()
	if err := w.AddConnection(ConnectionDefinition{FromPlugin: 1, FromPort: "out_0", ToPlugin: 3, ToPort: "in_0"}); err != nil {
		t.Fatalf("first connection should succeed: %v", err)
	}
	if err := w.ValidateConnection(2, "out_0", 3, "in_0"); err != ErrInputLimitExceeded {
		t.Fatalf("expected ErrInputLimitExceeded, got %v", err)
	}
}

func TestValidateConnectionAllowsTwoSourcesWhenMaxPerInputRaised(t *testing.T) {
	w := newTestWorkspace()
	w.SetMaxPerInput(2)
	if err := w.AddConnection(ConnectionDefinition{FromPlugin: 1, FromPort: "out_0", ToPlugin: 3, ToPort: "in_0"}); err != nil {
		t.Fatalf("first connection should succeed: %v", err)
	}
	if err := w.AddConnection(ConnectionDefinition{FromPlugin: 2, FromPort: "out_0", ToPlugin: 3, ToPort: "in_0"}); err != nil {
		t.Fatalf("second connection should succeed with MaxPerInput=2: %v", err)
	}
	if len(w.Connections) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(w.Connections))
	}
}

func TestRemoveExtendableInputRenumbersDown(t *testing.T) {
	w := newTestWorkspace()
	_ = w.AddConnection(ConnectionDefinition{FromPlugin: 1, FromPort: "out_0", ToPlugin: 3, ToPort: "in_0"})
	w.SetMaxPerInput(99)
	_ = w.AddConnection(ConnectionDefinition{FromPlugin: 2, FromPort: "out_0", ToPlugin: 3, ToPort: "in_1"})

	w.RemoveExtendableInput(3, 0)

	if len(w.Connections) != 1 {
		t.Fatalf("expected 1 connection remaining, got %d", len(w.Connections))
	}
	if w.Connections[0].ToPort != "in_0" {
		t.Fatalf("expected remaining connection renumbered to in_0, got %s", w.Connections[0].ToPort)
	}
}

func TestPruneExtendableInputsDropsOutOfRange(t *testing.T) {
	w := newTestWorkspace()
	w.SetMaxPerInput(99)
	_ = w.AddConnection(ConnectionDefinition{FromPlugin: 1, FromPort: "out_0", ToPlugin: 3, ToPort: "in_0"})
	_ = w.AddConnection(ConnectionDefinition{FromPlugin: 2, FromPort: "out_0", ToPlugin: 3, ToPort: "in_1"})

	w.PruneExtendableInputs(3, 1)

	if len(w.Connections) != 1 {
		t.Fatalf("expected 1 connection after pruning, got %d", len(w.Connections))
	}
	if w.Connections[0].ToPort != "in_0" {
		t.Fatalf("expected in_0 to survive pruning, got %s", w.Connections[0].ToPort)
	}
}

func TestValidateRejectsDuplicatePluginIDs(t *testing.T) {
	w := newTestWorkspace()
	w.Plugins = append(w.Plugins, PluginDefinition{ID: 1, Kind: "duplicate"})
	if err := w.Validate(); err == nil {
		t.Fatal("expected error for duplicate plugin id")
	}
}
