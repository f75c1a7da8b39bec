package rtsynproto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOkAndErrorf(t *testing.T) {
	ok := Ok("plugin added")
	require.Equal(t, RespOk, ok.Type)
	require.Equal(t, "plugin added", ok.Message)

	errResp := Errorf("unknown plugin kind")
	require.Equal(t, RespError, errResp.Type)
	require.Equal(t, "unknown plugin kind", errResp.Message)
}

func TestDaemonRequestRoundTrip(t *testing.T) {
	saveAs := "my-workspace"
	req := DaemonRequest{
		Type:          ReqWorkspaceSave,
		WorkspaceName: "current",
		SaveAs:        &saveAs,
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded DaemonRequest
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, ReqWorkspaceSave, decoded.Type)
	require.Equal(t, "current", decoded.WorkspaceName)
	require.NotNil(t, decoded.SaveAs)
	require.Equal(t, saveAs, *decoded.SaveAs)
}

func TestDaemonResponsePluginList(t *testing.T) {
	version := "1.2.0"
	resp := DaemonResponse{
		Type: RespPluginList,
		Plugins: []PluginSummary{
			{Kind: "mock_source", Name: "Mock Source", Version: &version, Removable: true},
		},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded DaemonResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, RespPluginList, decoded.Type)
	require.Len(t, decoded.Plugins, 1)
	require.Equal(t, "mock_source", decoded.Plugins[0].Kind)
	require.Equal(t, version, *decoded.Plugins[0].Version)
}

func TestDaemonRequestLineDelimited(t *testing.T) {
	reqA := DaemonRequest{Type: ReqPluginList}
	reqB := DaemonRequest{Type: ReqConnectionAdd, FromPlugin: 1, FromPort: "out", ToPlugin: 2, ToPort: "in"}

	lineA, err := json.Marshal(reqA)
	require.NoError(t, err)
	lineB, err := json.Marshal(reqB)
	require.NoError(t, err)

	// Each marshalled request must fit on one line: the wire format is
	// newline-delimited, so no embedded newlines are allowed.
	require.NotContains(t, string(lineA), "\n")
	require.NotContains(t, string(lineB), "\n")
}
