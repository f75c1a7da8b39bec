// Package controlplane defines the asynchronous command and
// state-snapshot shapes that flow between a supervisor (GUI or CLI
// daemon) and the RT thread (§4.5 "Control / state plane"). Neither
// channel blocks the other; reply channels carry caller-supplied
// timeouts on the caller's side.
package controlplane

import (
	"github.com/rtsyn/rtsyn/internal/workspace"
)

// CommandKind tags the Command union so the engine can dispatch without
// a type switch registry growing unboundedly.
type CommandKind int

const (
	CmdUpdateSettings CommandKind = iota
	CmdUpdateWorkspace
	CmdSetPluginRunning
	CmdRestartPlugin
	CmdQueryPluginBehavior
	CmdQueryPluginMetadata
	CmdGetPluginVariable
	CmdSetPluginVariable
)

// BehaviorReply is the response to QueryPluginBehavior.
type BehaviorReply struct {
	Behavior map[string]any
	Err      error
}

// MetadataReply is the response to QueryPluginMetadata.
type MetadataReply struct {
	DisplayName      string
	DefaultVariables map[string]float64
	Inputs           []string
	Outputs          []string
	Err              error
}

// VariableReply is the response to GetPluginVariable.
type VariableReply struct {
	Value float64
	Found bool
	Err   error
}

// Command is the single inbound message shape the RT thread drains
// between ticks. Exactly the fields relevant to Kind are populated; the
// rest are zero. Commands never block the RT thread — queries answer via
// their own Reply channel.
type Command struct {
	Kind CommandKind

	Settings  workspace.TimingSettings
	Workspace *workspace.Workspace

	PluginID uint64
	Running  bool

	PluginKind string // plugin kind, for QueryPluginBehavior/Metadata
	LibPath    string

	VariableName  string
	VariableValue float64

	BehaviorReply chan BehaviorReply
	MetadataReply chan MetadataReply
	VariableReply chan VariableReply
}

// UpdateSettings builds a settings-replacement command. s is cloned so the
// engine never shares a SelectedCores backing array with a caller that
// keeps mutating its own settings value afterwards.
func UpdateSettings(s workspace.TimingSettings) Command {
	return Command{Kind: CmdUpdateSettings, Settings: s.Clone()}
}

// UpdateWorkspace builds a wholesale graph-swap command. ws is deep-copied
// so the engine takes sole ownership of its own Workspace; the caller's
// pointer (typically the supervisor's actively-edited current workspace)
// is never aliased into RT-thread state.
func UpdateWorkspace(ws *workspace.Workspace) Command {
	return Command{Kind: CmdUpdateWorkspace, Workspace: ws.Clone()}
}

// SetPluginRunning builds a start/stop command.
func SetPluginRunning(id uint64, running bool) Command {
	return Command{Kind: CmdSetPluginRunning, PluginID: id, Running: running}
}

// RestartPlugin builds a restart command (destroy + create + set_config).
func RestartPlugin(id uint64) Command {
	return Command{Kind: CmdRestartPlugin, PluginID: id}
}

// QueryPluginBehavior builds an introspection command; reply must be
// buffered or drained promptly so the RT thread never blocks on send.
func QueryPluginBehavior(kind, libPath string, reply chan BehaviorReply) Command {
	return Command{Kind: CmdQueryPluginBehavior, PluginKind: kind, LibPath: libPath, BehaviorReply: reply}
}

// QueryPluginMetadata builds a metadata-introspection command.
func QueryPluginMetadata(kind string, reply chan MetadataReply) Command {
	return Command{Kind: CmdQueryPluginMetadata, PluginKind: kind, MetadataReply: reply}
}

// GetPluginVariable builds a variable-read command.
func GetPluginVariable(id uint64, name string, reply chan VariableReply) Command {
	return Command{Kind: CmdGetPluginVariable, PluginID: id, VariableName: name, VariableReply: reply}
}

// SetPluginVariable builds a variable-write command.
func SetPluginVariable(id uint64, name string, value float64) Command {
	return Command{Kind: CmdSetPluginVariable, PluginID: id, VariableName: name, VariableValue: value}
}
