// Package transport bridges one engine's command/snapshot channels to
// NATS core pub/sub for an out-of-process supervisor that cannot hold a
// Go channel or dial the supervisor daemon's Unix socket (§4.5
// "Control / state plane", §1 "other consumer/producer, same shape").
// It is strictly opt-in: nothing in internal/engine or
// internal/supervisordaemon depends on this package, and a process that
// never constructs a Bridge never touches NATS.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/rtsyn/rtsyn/internal/controlplane"
	"github.com/rtsyn/rtsyn/internal/obs"
	"github.com/rtsyn/rtsyn/internal/workspace"
)

// Config configures the NATS bridge's connection and subject names.
type Config struct {
	URL             string        `mapstructure:"url"`
	SnapshotSubject string        `mapstructure:"snapshot_subject"`
	CommandSubject  string        `mapstructure:"command_subject"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

func DefaultConfig() Config {
	return Config{
		URL:             nats.DefaultURL,
		SnapshotSubject: "rtsyn.snapshot",
		CommandSubject:  "rtsyn.command",
		ConnectTimeout:  5 * time.Second,
	}
}

// portValue flattens one (plugin, port) -> value slot so it survives a
// JSON round trip; controlplane.PortKey is a struct and cannot be a JSON
// map key.
type portValue struct {
	Plugin uint64  `json:"plugin"`
	Port   string  `json:"port"`
	Value  float64 `json:"value"`
}

// snapshotDTO is the wire-safe mirror of controlplane.Snapshot published
// to SnapshotSubject, one message per publication (never batched, never
// retried: a dropped message is just a skipped sample, as the engine's
// own publication already is).
type snapshotDTO struct {
	Tick              uint64      `json:"tick"`
	Outputs           []portValue `json:"outputs"`
	MaterializedInputs []portValue `json:"materialized_inputs"`
	RealtimeViolation bool        `json:"realtime_violation"`
	OverrunCount      uint64      `json:"overrun_count"`
}

func toSnapshotDTO(snap *controlplane.Snapshot) snapshotDTO {
	dto := snapshotDTO{
		Tick:              snap.Tick,
		RealtimeViolation: snap.RealtimeViolation,
		OverrunCount:      snap.OverrunCount,
	}
	for k, v := range snap.Outputs {
		dto.Outputs = append(dto.Outputs, portValue{Plugin: k.Plugin, Port: k.Port, Value: v})
	}
	for k, v := range snap.MaterializedInputs {
		dto.MaterializedInputs = append(dto.MaterializedInputs, portValue{Plugin: k.Plugin, Port: k.Port, Value: v})
	}
	return dto
}

// commandKind names the subset of controlplane.CommandKind that makes
// sense to accept from an external, unauthenticated-by-default NATS
// subject: settings/workspace/plugin-lifecycle commands, not
// introspection queries, which carry a local-only reply channel that
// cannot cross a NATS message boundary.
type commandKind string

const (
	cmdUpdateSettings   commandKind = "update_settings"
	cmdUpdateWorkspace  commandKind = "update_workspace"
	cmdSetPluginRunning commandKind = "set_plugin_running"
	cmdRestartPlugin    commandKind = "restart_plugin"
	cmdSetPluginVariable commandKind = "set_plugin_variable"
)

// commandDTO is the wire shape accepted on CommandSubject.
type commandDTO struct {
	Kind commandKind `json:"kind"`

	Settings  *workspace.TimingSettings `json:"settings,omitempty"`
	Workspace *workspace.Workspace      `json:"workspace,omitempty"`

	PluginID uint64 `json:"plugin_id,omitempty"`
	Running  bool   `json:"running,omitempty"`

	VariableName  string  `json:"variable_name,omitempty"`
	VariableValue float64 `json:"variable_value,omitempty"`
}

func (dto commandDTO) toCommand() (controlplane.Command, error) {
	switch dto.Kind {
	case cmdUpdateSettings:
		if dto.Settings == nil {
			return controlplane.Command{}, fmt.Errorf("update_settings requires settings")
		}
		return controlplane.UpdateSettings(*dto.Settings), nil
	case cmdUpdateWorkspace:
		if dto.Workspace == nil {
			return controlplane.Command{}, fmt.Errorf("update_workspace requires workspace")
		}
		return controlplane.UpdateWorkspace(dto.Workspace), nil
	case cmdSetPluginRunning:
		return controlplane.SetPluginRunning(dto.PluginID, dto.Running), nil
	case cmdRestartPlugin:
		return controlplane.RestartPlugin(dto.PluginID), nil
	case cmdSetPluginVariable:
		return controlplane.SetPluginVariable(dto.PluginID, dto.VariableName, dto.VariableValue), nil
	default:
		return controlplane.Command{}, fmt.Errorf("unsupported command kind %q over NATS transport", dto.Kind)
	}
}

// Bridge relays one engine's snapshots onto NATS and forwards a
// restricted command vocabulary the other way.
type Bridge struct {
	cfg  Config
	log  *zap.Logger
	conn *nats.Conn
	sub  *nats.Subscription
}

// Connect dials NATS; call Close when the bridge is no longer needed.
func Connect(cfg Config, log *zap.Logger) (*Bridge, error) {
	conn, err := nats.Connect(cfg.URL, nats.Timeout(cfg.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}
	return &Bridge{cfg: cfg, log: log, conn: conn}, nil
}

// PublishSnapshots drains snapshots and publishes each as JSON until ctx
// is cancelled or the channel closes. One goroutine, one subject; a
// publish error is logged and the next snapshot is tried rather than
// tearing down the bridge.
func (b *Bridge) PublishSnapshots(ctx context.Context, snapshots <-chan *controlplane.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			data, err := json.Marshal(toSnapshotDTO(snap))
			if err != nil {
				b.log.Warn("marshal snapshot for NATS publish", obs.Err(err))
				continue
			}
			if err := b.conn.Publish(b.cfg.SnapshotSubject, data); err != nil {
				b.log.Warn("publish snapshot to NATS", obs.Err(err))
			}
		}
	}
}

// SubscribeCommands forwards decoded commands onto the engine's inbound
// channel. The subscription is asynchronous (nats.Conn's own goroutine
// invokes the handler); sends to commands use a non-blocking attempt so
// a saturated command buffer drops and logs rather than stalling NATS's
// dispatch loop.
func (b *Bridge) SubscribeCommands(commands chan<- controlplane.Command) error {
	sub, err := b.conn.Subscribe(b.cfg.CommandSubject, func(msg *nats.Msg) {
		var dto commandDTO
		if err := json.Unmarshal(msg.Data, &dto); err != nil {
			b.log.Warn("decode command from NATS", obs.Err(err))
			return
		}
		cmd, err := dto.toCommand()
		if err != nil {
			b.log.Warn("build command from NATS message", obs.Err(err))
			return
		}
		select {
		case commands <- cmd:
		default:
			b.log.Warn("command buffer full, dropping NATS command", obs.String("kind", string(dto.Kind)))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.cfg.CommandSubject, err)
	}
	b.sub = sub
	return nil
}

// Close unsubscribes and closes the underlying NATS connection without
// draining it.
func (b *Bridge) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}
