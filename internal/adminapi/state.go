package adminapi

import (
	"context"
	"sync"

	"github.com/rtsyn/rtsyn/internal/controlplane"
	"github.com/rtsyn/rtsyn/internal/workspace"
)

// State mirrors the engine's control plane for HTTP access: a
// cached copy of the active workspace (updated whenever this surface
// issues an UpdateWorkspace command) and the most recently published
// snapshot (drained continuously so a request never blocks on the
// engine's own publication cadence).
type State struct {
	commands chan<- controlplane.Command

	mu       sync.RWMutex
	ws       *workspace.Workspace
	snapshot *controlplane.Snapshot
}

// NewState wraps an engine's command channel. snapshots should be the
// same channel the engine publishes to; Run drains it continuously.
func NewState(commands chan<- controlplane.Command, ws *workspace.Workspace) *State {
	return &State{commands: commands, ws: ws}
}

// Run drains snapshots until ctx is cancelled, keeping the latest one
// available to handlers without contending with the engine's publisher.
func (s *State) Run(ctx context.Context, snapshots <-chan *controlplane.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			s.mu.Lock()
			s.snapshot = snap
			s.mu.Unlock()
		}
	}
}

func (s *State) Workspace() *workspace.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ws
}

func (s *State) SetWorkspace(ws *workspace.Workspace) {
	s.mu.Lock()
	s.ws = ws
	s.mu.Unlock()
}

func (s *State) LatestSnapshot() *controlplane.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *State) Send(cmd controlplane.Command) {
	s.commands <- cmd
}
