package controlplane

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn/rtsyn/internal/workspace"
)

func TestCommandConstructors(t *testing.T) {
	settings := workspace.DefaultSettings()
	cmd := UpdateSettings(settings)
	require.Equal(t, CmdUpdateSettings, cmd.Kind)
	require.Equal(t, settings, cmd.Settings)

	// SelectedCores must not alias the caller's backing array.
	settings.SelectedCores[0] = 99
	require.Equal(t, 0, cmd.Settings.SelectedCores[0])

	ws := &workspace.Workspace{Name: "test"}
	cmd = UpdateWorkspace(ws)
	require.Equal(t, CmdUpdateWorkspace, cmd.Kind)
	require.Equal(t, ws, cmd.Workspace)
	require.NotSame(t, ws, cmd.Workspace)

	// Mutating the caller's workspace after handing it to the command
	// must never reach the command's own copy.
	ws.Name = "mutated-after-send"
	require.Equal(t, "test", cmd.Workspace.Name)

	cmd = SetPluginRunning(7, true)
	require.Equal(t, CmdSetPluginRunning, cmd.Kind)
	require.Equal(t, uint64(7), cmd.PluginID)
	require.True(t, cmd.Running)

	cmd = RestartPlugin(3)
	require.Equal(t, CmdRestartPlugin, cmd.Kind)
	require.Equal(t, uint64(3), cmd.PluginID)

	cmd = SetPluginVariable(9, "gain", 0.5)
	require.Equal(t, CmdSetPluginVariable, cmd.Kind)
	require.Equal(t, "gain", cmd.VariableName)
	require.Equal(t, 0.5, cmd.VariableValue)
}

func TestQueryCommandsCarryReplyChannels(t *testing.T) {
	behaviorReply := make(chan BehaviorReply, 1)
	cmd := QueryPluginBehavior("mock_source", "", behaviorReply)
	require.Equal(t, CmdQueryPluginBehavior, cmd.Kind)
	require.Equal(t, "mock_source", cmd.PluginKind)
	require.NotNil(t, cmd.BehaviorReply)

	metadataReply := make(chan MetadataReply, 1)
	cmd = QueryPluginMetadata("mock_source", metadataReply)
	require.Equal(t, CmdQueryPluginMetadata, cmd.Kind)
	require.NotNil(t, cmd.MetadataReply)

	variableReply := make(chan VariableReply, 1)
	cmd = GetPluginVariable(5, "phase", variableReply)
	require.Equal(t, CmdGetPluginVariable, cmd.Kind)
	require.Equal(t, uint64(5), cmd.PluginID)
	require.NotNil(t, cmd.VariableReply)
}

func TestNewSnapshotInitialisesMaps(t *testing.T) {
	snap := NewSnapshot()
	require.NotNil(t, snap.Outputs)
	require.NotNil(t, snap.MaterializedInputs)
	require.NotNil(t, snap.Variables)
	require.NotNil(t, snap.ViewerValues)
	require.NotNil(t, snap.PlotterSamples)

	snap.Outputs[PortKey{Plugin: 1, Port: "out"}] = 1.5
	require.Equal(t, 1.5, snap.Outputs[PortKey{Plugin: 1, Port: "out"}])
}
