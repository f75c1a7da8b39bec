package workspace

import "fmt"

// ConnectionError is the synchronous result of a rejected connection
// mutation; it never reaches the engine (spec §7 "Validation").
type ConnectionError string

const (
	ErrSelfConnection     ConnectionError = "self_connection"
	ErrInputLimitExceeded ConnectionError = "input_limit_exceeded"
	ErrDuplicateConnection ConnectionError = "duplicate_connection"
)

func (e ConnectionError) Error() string { return string(e) }

// ValidateConnection checks whether a candidate connection may be added,
// without mutating the workspace.
func (w *Workspace) ValidateConnection(from uint64, fromPort string, to uint64, toPort string) error {
	if from == to {
		return ErrSelfConnection
	}

	count := 0
	for _, c := range w.Connections {
		if c.ToPlugin == to && c.ToPort == toPort {
			count++
		}
		if c.FromPlugin == from && c.FromPort == fromPort && c.ToPlugin == to && c.ToPort == toPort {
			return ErrDuplicateConnection
		}
		// Same (from_plugin, from_port) fanning into a different port of
		// the same target is also rejected — prevents accidental
		// double-mixing into one sink.
		if c.FromPlugin == from && c.FromPort == fromPort && c.ToPlugin == to && c.ToPort != toPort {
			return ErrDuplicateConnection
		}
	}
	if count >= w.MaxPerInput() {
		return ErrInputLimitExceeded
	}
	return nil
}

// AddConnection validates and appends a connection.
func (w *Workspace) AddConnection(conn ConnectionDefinition) error {
	if err := w.ValidateConnection(conn.FromPlugin, conn.FromPort, conn.ToPlugin, conn.ToPort); err != nil {
		return err
	}
	if conn.Kind == "" {
		conn.Kind = ConnectionKindInProcess
	}
	w.Connections = append(w.Connections, conn)
	return nil
}

// RemoveConnection removes the first connection matching all four
// endpoints exactly. Returns false if no such connection existed.
func (w *Workspace) RemoveConnection(from uint64, fromPort string, to uint64, toPort string) bool {
	for i, c := range w.Connections {
		if c.FromPlugin == from && c.FromPort == fromPort && c.ToPlugin == to && c.ToPort == toPort {
			w.Connections = append(w.Connections[:i], w.Connections[i+1:]...)
			return true
		}
	}
	return false
}

// extendableInputPort reports whether port is of the dense in_0..in_{N-1}
// shape and returns its index.
func extendableInputPort(port string) (int, bool) {
	var idx int
	n, err := fmt.Sscanf(port, "in_%d", &idx)
	if err != nil || n != 1 || idx < 0 {
		return 0, false
	}
	return idx, true
}

// PruneExtendableInputs drops connections referring to in_i with i >= n
// for the given plugin, per invariant 6: live input ports are exactly
// in_0..in_{N-1}.
func (w *Workspace) PruneExtendableInputs(pluginID uint64, n int) {
	kept := w.Connections[:0:0]
	for _, c := range w.Connections {
		if c.ToPlugin == pluginID {
			if idx, ok := extendableInputPort(c.ToPort); ok && idx >= n {
				continue
			}
		}
		kept = append(kept, c)
	}
	w.Connections = kept
}

// RemoveExtendableInput removes input idx from plugin's extendable input
// range and renumbers higher-indexed siblings down by one, keeping the
// dense range invariant with no gaps.
func (w *Workspace) RemoveExtendableInput(pluginID uint64, idx int) {
	target := fmt.Sprintf("in_%d", idx)
	kept := w.Connections[:0:0]
	for _, c := range w.Connections {
		if c.ToPlugin == pluginID && c.ToPort == target {
			continue
		}
		kept = append(kept, c)
	}
	for i := range kept {
		c := &kept[i]
		if c.ToPlugin != pluginID {
			continue
		}
		if i2, ok := extendableInputPort(c.ToPort); ok && i2 > idx {
			c.ToPort = fmt.Sprintf("in_%d", i2-1)
		}
	}
	w.Connections = kept
}

// NextPluginID hands out a strictly increasing id, reusing freed ids only
// from the explicit free-list (invariant 1).
func (w *Workspace) NextPluginID() uint64 {
	if len(w.freeIDs) > 0 {
		id := w.freeIDs[len(w.freeIDs)-1]
		w.freeIDs = w.freeIDs[:len(w.freeIDs)-1]
		return id
	}
	w.nextID++
	return w.nextID
}

// FreePluginID returns id to the free-list for future reuse, and should be
// called whenever a PluginDefinition is removed from the workspace.
func (w *Workspace) FreePluginID(id uint64) {
	w.freeIDs = append(w.freeIDs, id)
}

// syncIDAllocator brings nextID up to at least the highest id present,
// called after loading a workspace from disk so future NextPluginID calls
// never collide with ids already on record.
func (w *Workspace) syncIDAllocator() {
	for _, p := range w.Plugins {
		if p.ID > w.nextID {
			w.nextID = p.ID
		}
	}
}

// Validate checks the workspace-level invariants that don't belong to a
// single connection mutation: unique plugin ids, non-empty core selection,
// positive period.
func (w *Workspace) Validate() error {
	seen := make(map[uint64]bool, len(w.Plugins))
	for _, p := range w.Plugins {
		if seen[p.ID] {
			return fmt.Errorf("duplicate plugin id %d", p.ID)
		}
		seen[p.ID] = true
	}
	if _, err := w.Settings.PeriodSeconds(); err != nil {
		return fmt.Errorf("invalid timing settings: %w", err)
	}
	if len(NormalizeCores(w.Settings.SelectedCores)) == 0 {
		return fmt.Errorf("selected_cores must be non-empty after normalisation")
	}
	return nil
}
