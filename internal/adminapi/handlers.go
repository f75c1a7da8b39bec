package adminapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/rtsyn/rtsyn/internal/controlplane"
	"github.com/rtsyn/rtsyn/internal/workspace"
)

// portValue is the JSON-friendly form of a controlplane.PortKey -> value
// entry; PortKey itself cannot be a JSON map key since it is a struct.
type portValue struct {
	Plugin uint64  `json:"plugin"`
	Port   string  `json:"port"`
	Value  float64 `json:"value"`
}

type snapshotView struct {
	Tick              uint64      `json:"tick"`
	Outputs           []portValue `json:"outputs"`
	MaterializedInputs []portValue `json:"materialized_inputs"`
	RealtimeViolation bool        `json:"realtime_violation"`
	OverrunCount      uint64      `json:"overrun_count"`
}

func toSnapshotView(snap *controlplane.Snapshot) *snapshotView {
	if snap == nil {
		return nil
	}
	v := &snapshotView{
		Tick:              snap.Tick,
		RealtimeViolation: snap.RealtimeViolation,
		OverrunCount:      snap.OverrunCount,
	}
	for k, val := range snap.Outputs {
		v.Outputs = append(v.Outputs, portValue{Plugin: k.Plugin, Port: k.Port, Value: val})
	}
	for k, val := range snap.MaterializedInputs {
		v.MaterializedInputs = append(v.MaterializedInputs, portValue{Plugin: k.Plugin, Port: k.Port, Value: val})
	}
	return v
}

// Handler bundles the State a request needs; every method is a
// mux-compatible http.HandlerFunc.
type Handler struct {
	state             *State
	introspectLimiter *rate.Limiter
	replyTimeout      time.Duration
}

// NewHandler wires a Handler against its engine State. introspectRateHz
// and introspectBurst bound the metadata/behavior endpoints, the only
// ones that can make the engine construct a plugin instance (its
// probePlugin, used when no live instance of the kind exists) just to
// answer the query — a runaway poller should not be able to force
// repeated plugin construction against the RT thread's command channel.
func NewHandler(state *State, introspectRateHz float64, introspectBurst int, replyTimeout time.Duration) *Handler {
	return &Handler{
		state:             state,
		introspectLimiter: rate.NewLimiter(rate.Limit(introspectRateHz), introspectBurst),
		replyTimeout:      replyTimeout,
	}
}

func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Workspace())
}

func (h *Handler) PutWorkspace(w http.ResponseWriter, r *http.Request) {
	var ws workspace.Workspace
	if err := json.NewDecoder(r.Body).Decode(&ws); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid workspace JSON: "+err.Error())
		return
	}
	if err := ws.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "INVALID_WORKSPACE", err.Error())
		return
	}
	h.state.Send(controlplane.UpdateWorkspace(&ws))
	h.state.SetWorkspace(&ws)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	view := toSnapshotView(h.state.LatestSnapshot())
	if view == nil {
		writeError(w, http.StatusServiceUnavailable, "NO_SNAPSHOT", "no snapshot has been published yet")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) SetPluginRunning(w http.ResponseWriter, r *http.Request, running bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid plugin id")
		return
	}
	h.state.Send(controlplane.SetPluginRunning(id, running))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) StartPlugin(w http.ResponseWriter, r *http.Request) { h.SetPluginRunning(w, r, true) }
func (h *Handler) StopPlugin(w http.ResponseWriter, r *http.Request)  { h.SetPluginRunning(w, r, false) }

func (h *Handler) RestartPlugin(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid plugin id")
		return
	}
	h.state.Send(controlplane.RestartPlugin(id))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) GetIntrospectMetadata(w http.ResponseWriter, r *http.Request) {
	if !h.introspectLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many introspection queries")
		return
	}
	kind := mux.Vars(r)["kind"]
	reply := make(chan controlplane.MetadataReply, 1)
	h.state.Send(controlplane.QueryPluginMetadata(kind, reply))

	select {
	case resp := <-reply:
		if resp.Err != nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", resp.Err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case <-time.After(h.replyTimeout):
		writeError(w, http.StatusGatewayTimeout, "TIMEOUT", "engine did not reply in time")
	}
}

func (h *Handler) GetIntrospectBehavior(w http.ResponseWriter, r *http.Request) {
	if !h.introspectLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many introspection queries")
		return
	}
	kind := mux.Vars(r)["kind"]
	reply := make(chan controlplane.BehaviorReply, 1)
	h.state.Send(controlplane.QueryPluginBehavior(kind, "", reply))

	select {
	case resp := <-reply:
		if resp.Err != nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", resp.Err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp.Behavior)
	case <-time.After(h.replyTimeout):
		writeError(w, http.StatusGatewayTimeout, "TIMEOUT", "engine did not reply in time")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}
