// Package rtsynproto defines the line-delimited JSON envelope exchanged
// over the control-plane Unix socket between cmd/rtsyn and
// internal/supervisordaemon (§6 "Control-plane IPC"). It is exported so a
// third party can write another client against the same wire format
// without depending on the daemon's internals.
package rtsynproto

import "time"

// DefaultSocketPath is the daemon's well-known Unix domain socket.
const DefaultSocketPath = "/tmp/rtsyn-daemon.sock"

// RequestType discriminates DaemonRequest the way the original protocol's
// serde tag did; Go has no tagged-union sum type, so one struct carries
// every request's fields and RequestType says which are populated.
type RequestType string

const (
	ReqPluginList          RequestType = "plugin_list"
	ReqPluginInstall       RequestType = "plugin_install"
	ReqPluginUninstall     RequestType = "plugin_uninstall"
	ReqPluginAdd           RequestType = "plugin_add"
	ReqPluginRemove        RequestType = "plugin_remove"
	ReqWorkspaceList       RequestType = "workspace_list"
	ReqWorkspaceLoad       RequestType = "workspace_load"
	ReqWorkspaceNew        RequestType = "workspace_new"
	ReqWorkspaceSave       RequestType = "workspace_save"
	ReqWorkspaceEdit       RequestType = "workspace_edit"
	ReqConnectionAdd       RequestType = "connection_add"
	ReqConnectionRemove    RequestType = "connection_remove"
	ReqRuntimeSettingsShow    RequestType = "runtime_settings_show"
	ReqRuntimeSettingsSet     RequestType = "runtime_settings_set"
	ReqRuntimeSettingsSave    RequestType = "runtime_settings_save"
	ReqRuntimeSettingsRestore RequestType = "runtime_settings_restore"
	ReqRuntimeSettingsOptions RequestType = "runtime_settings_options"
	ReqRuntimeUMLDiagram      RequestType = "runtime_uml_diagram"
)

// DaemonRequest is one line of the request stream.
type DaemonRequest struct {
	Type RequestType `json:"type"`

	// PluginInstall
	Path string `json:"path,omitempty"`
	// PluginUninstall / PluginAdd
	Name string `json:"name,omitempty"`
	// PluginRemove
	ID uint64 `json:"id,omitempty"`
	// WorkspaceLoad / WorkspaceNew / WorkspaceEdit
	WorkspaceName string `json:"workspace_name,omitempty"`
	// WorkspaceSave: nil means "save to the currently loaded name"
	SaveAs *string `json:"save_as,omitempty"`

	// ConnectionAdd / ConnectionRemove
	FromPlugin uint64 `json:"from_plugin,omitempty"`
	FromPort   string `json:"from_port,omitempty"`
	ToPlugin   uint64 `json:"to_plugin,omitempty"`
	ToPort     string `json:"to_port,omitempty"`

	// RuntimeSettingsSet: raw JSON of a full TimingSettings document; it
	// replaces the current settings, so omitted fields become zero.
	SettingsJSON string `json:"settings_json,omitempty"`
}

// ResponseType discriminates DaemonResponse the same way.
type ResponseType string

const (
	RespOk                     ResponseType = "ok"
	RespError                  ResponseType = "error"
	RespPluginList             ResponseType = "plugin_list"
	RespPluginAdded            ResponseType = "plugin_added"
	RespWorkspaceList          ResponseType = "workspace_list"
	RespRuntimeSettings        ResponseType = "runtime_settings"
	RespRuntimeSettingsOptions ResponseType = "runtime_settings_options"
	RespRuntimeUMLDiagram      ResponseType = "runtime_uml_diagram"
)

// PluginSummary describes one installed plugin for PluginList responses.
type PluginSummary struct {
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	Version   *string `json:"version,omitempty"`
	Removable bool    `json:"removable"`
	Path      *string `json:"path,omitempty"`
}

// WorkspaceSummary describes one saved workspace for WorkspaceList responses.
type WorkspaceSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Plugins     int      `json:"plugins"`
	PluginKinds []string `json:"plugin_kinds"`
}

// RuntimeSettingsOptions enumerates the valid ranges the CLI/GUI should
// present for timing settings (§3 TimingSettings, §4.4 catch-up policy).
type RuntimeSettingsOptions struct {
	FrequencyUnits         []string `json:"frequency_units"`
	PeriodUnits            []string `json:"period_units"`
	MinFrequencyValue      float64  `json:"min_frequency_value"`
	MinPeriodValue         float64  `json:"min_period_value"`
	MaxIntegrationStepsMin int      `json:"max_integration_steps_min"`
	MaxIntegrationStepsMax int      `json:"max_integration_steps_max"`
}

// DaemonResponse is one line of the response stream, always answering
// exactly one DaemonRequest line in order (§5 "Ordering").
type DaemonResponse struct {
	Type    ResponseType `json:"type"`
	Message string       `json:"message,omitempty"`

	Plugins     []PluginSummary    `json:"plugins,omitempty"`
	PluginID    uint64             `json:"plugin_id,omitempty"`
	Workspaces  []WorkspaceSummary `json:"workspaces,omitempty"`
	SettingsRaw string             `json:"settings_raw,omitempty"`
	Options     *RuntimeSettingsOptions `json:"options,omitempty"`
	UML         string             `json:"uml,omitempty"`
}

// Ok builds a success response carrying only a human-readable message.
func Ok(message string) DaemonResponse { return DaemonResponse{Type: RespOk, Message: message} }

// Errorf builds an error response.
func Errorf(message string) DaemonResponse { return DaemonResponse{Type: RespError, Message: message} }

// ClientTimeout bounds how long a CLI invocation waits for one response
// line before giving up (distinct from the engine's own reply timeouts).
const ClientTimeout = 10 * time.Second
