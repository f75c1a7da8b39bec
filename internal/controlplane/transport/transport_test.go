package transport

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn/rtsyn/internal/controlplane"
	"github.com/rtsyn/rtsyn/internal/workspace"
)

func TestToSnapshotDTOFlattensPortKeys(t *testing.T) {
	snap := controlplane.NewSnapshot()
	snap.Tick = 42
	snap.Outputs[controlplane.PortKey{Plugin: 1, Port: "out"}] = 0.75
	snap.OverrunCount = 3

	dto := toSnapshotDTO(snap)
	require.Equal(t, uint64(42), dto.Tick)
	require.Equal(t, uint64(3), dto.OverrunCount)
	require.Len(t, dto.Outputs, 1)
	require.Equal(t, uint64(1), dto.Outputs[0].Plugin)
	require.Equal(t, "out", dto.Outputs[0].Port)
	require.Equal(t, 0.75, dto.Outputs[0].Value)

	// Must survive a JSON round trip, since PortKey itself cannot be a map key.
	data, err := json.Marshal(dto)
	require.NoError(t, err)
	var decoded snapshotDTO
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, dto, decoded)
}

func TestCommandDTOToCommand(t *testing.T) {
	cases := []struct {
		name string
		dto  commandDTO
		kind controlplane.CommandKind
	}{
		{"set_plugin_running", commandDTO{Kind: cmdSetPluginRunning, PluginID: 2, Running: true}, controlplane.CmdSetPluginRunning},
		{"restart_plugin", commandDTO{Kind: cmdRestartPlugin, PluginID: 9}, controlplane.CmdRestartPlugin},
		{"set_plugin_variable", commandDTO{Kind: cmdSetPluginVariable, PluginID: 1, VariableName: "gain", VariableValue: 0.2}, controlplane.CmdSetPluginVariable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := tc.dto.toCommand()
			require.NoError(t, err)
			require.Equal(t, tc.kind, cmd.Kind)
		})
	}
}

func TestCommandDTORequiresSettingsPayload(t *testing.T) {
	_, err := commandDTO{Kind: cmdUpdateSettings}.toCommand()
	require.Error(t, err)

	settings := workspace.DefaultSettings()
	cmd, err := commandDTO{Kind: cmdUpdateSettings, Settings: &settings}.toCommand()
	require.NoError(t, err)
	require.Equal(t, controlplane.CmdUpdateSettings, cmd.Kind)
}

func TestCommandDTORequiresWorkspacePayload(t *testing.T) {
	_, err := commandDTO{Kind: cmdUpdateWorkspace}.toCommand()
	require.Error(t, err)

	ws := &workspace.Workspace{Name: "test"}
	cmd, err := commandDTO{Kind: cmdUpdateWorkspace, Workspace: ws}.toCommand()
	require.NoError(t, err)
	require.Equal(t, controlplane.CmdUpdateWorkspace, cmd.Kind)
}

func TestCommandDTORejectsIntrospectionKinds(t *testing.T) {
	_, err := commandDTO{Kind: "query_plugin_behavior"}.toCommand()
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "rtsyn.snapshot", cfg.SnapshotSubject)
	require.Equal(t, "rtsyn.command", cfg.CommandSubject)
	require.Greater(t, cfg.ConnectTimeout.Seconds(), 0.0)
}
