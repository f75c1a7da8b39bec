package adminapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/rtsyn/rtsyn/internal/controlplane"
	"github.com/rtsyn/rtsyn/internal/workspace"
)

func newTestHandler(t *testing.T) (*Handler, *State, chan controlplane.Command) {
	t.Helper()
	commands := make(chan controlplane.Command, 8)
	ws := &workspace.Workspace{Name: "test-workspace"}
	state := NewState(commands, ws)
	return NewHandler(state, 100, 10, 50*time.Millisecond), state, commands
}

func TestGetWorkspace(t *testing.T) {
	h, _, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/workspace", nil)
	rec := httptest.NewRecorder()

	h.GetWorkspace(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "test-workspace")
}

func TestGetSnapshotWithoutPublicationReturnsUnavailable(t *testing.T) {
	h, _, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
	rec := httptest.NewRecorder()

	h.GetSnapshot(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetSnapshotAfterPublication(t *testing.T) {
	h, state, _ := newTestHandler(t)
	snap := controlplane.NewSnapshot()
	snap.Tick = 7
	snap.Outputs[controlplane.PortKey{Plugin: 1, Port: "out"}] = 1.25
	state.snapshot = snap

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
	rec := httptest.NewRecorder()

	h.GetSnapshot(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"tick":7`)
}

func TestStartStopRestartPluginSendCommands(t *testing.T) {
	h, _, commands := newTestHandler(t)

	router := mux.NewRouter()
	router.HandleFunc("/plugins/{id}/start", h.StartPlugin)
	router.HandleFunc("/plugins/{id}/stop", h.StopPlugin)
	router.HandleFunc("/plugins/{id}/restart", h.RestartPlugin)

	req := httptest.NewRequest(http.MethodPost, "/plugins/3/start", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	cmd := <-commands
	require.Equal(t, controlplane.CmdSetPluginRunning, cmd.Kind)
	require.Equal(t, uint64(3), cmd.PluginID)
	require.True(t, cmd.Running)

	req = httptest.NewRequest(http.MethodPost, "/plugins/3/stop", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	cmd = <-commands
	require.False(t, cmd.Running)

	req = httptest.NewRequest(http.MethodPost, "/plugins/3/restart", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	cmd = <-commands
	require.Equal(t, controlplane.CmdRestartPlugin, cmd.Kind)
}

func TestStartPluginRejectsInvalidID(t *testing.T) {
	h, _, _ := newTestHandler(t)
	router := mux.NewRouter()
	router.HandleFunc("/plugins/{id}/start", h.StartPlugin)

	req := httptest.NewRequest(http.MethodPost, "/plugins/not-a-number/start", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIntrospectMetadataTimesOutWithoutEngineReply(t *testing.T) {
	h, _, commands := newTestHandler(t)
	router := mux.NewRouter()
	router.HandleFunc("/introspect/{kind}/metadata", h.GetIntrospectMetadata)

	req := httptest.NewRequest(http.MethodGet, "/introspect/mock_source/metadata", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	// drain so the test doesn't leak a blocked send on the buffered channel
	<-commands
}

func TestIntrospectMetadataRateLimited(t *testing.T) {
	commands := make(chan controlplane.Command, 8)
	state := NewState(commands, &workspace.Workspace{})
	h := NewHandler(state, 0.0001, 1, 10*time.Millisecond)

	router := mux.NewRouter()
	router.HandleFunc("/introspect/{kind}/metadata", h.GetIntrospectMetadata)

	req := httptest.NewRequest(http.MethodGet, "/introspect/mock_source/metadata", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	<-commands

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
