package supervisordaemon

import (
	"encoding/json"
	"fmt"

	"github.com/rtsyn/rtsyn/internal/controlplane"
	"github.com/rtsyn/rtsyn/internal/workspace"
	"github.com/rtsyn/rtsyn/pkg/rtsynproto"
)

// handle dispatches one decoded request to its operation, matching the
// request set spec.md §6 enumerates for the control-plane IPC.
func (d *Daemon) handle(req rtsynproto.DaemonRequest) rtsynproto.DaemonResponse {
	switch req.Type {
	case rtsynproto.ReqPluginList:
		return d.handlePluginList()
	case rtsynproto.ReqPluginInstall:
		return d.handlePluginInstall(req)
	case rtsynproto.ReqPluginUninstall:
		return d.handlePluginUninstall(req)
	case rtsynproto.ReqPluginAdd:
		return d.handlePluginAdd(req)
	case rtsynproto.ReqPluginRemove:
		return d.handlePluginRemove(req)
	case rtsynproto.ReqWorkspaceList:
		return d.handleWorkspaceList()
	case rtsynproto.ReqWorkspaceLoad, rtsynproto.ReqWorkspaceEdit:
		return d.handleWorkspaceLoad(req)
	case rtsynproto.ReqWorkspaceNew:
		return d.handleWorkspaceNew(req)
	case rtsynproto.ReqWorkspaceSave:
		return d.handleWorkspaceSave(req)
	case rtsynproto.ReqConnectionAdd:
		return d.handleConnectionAdd(req)
	case rtsynproto.ReqConnectionRemove:
		return d.handleConnectionRemove(req)
	case rtsynproto.ReqRuntimeSettingsShow:
		return d.handleRuntimeSettingsShow()
	case rtsynproto.ReqRuntimeSettingsSet:
		return d.handleRuntimeSettingsSet(req)
	case rtsynproto.ReqRuntimeSettingsSave:
		return d.handleRuntimeSettingsSave()
	case rtsynproto.ReqRuntimeSettingsRestore:
		return d.handleRuntimeSettingsRestore()
	case rtsynproto.ReqRuntimeSettingsOptions:
		return d.handleRuntimeSettingsOptions()
	case rtsynproto.ReqRuntimeUMLDiagram:
		return d.handleRuntimeUMLDiagram()
	default:
		return rtsynproto.Errorf(fmt.Sprintf("unknown request type %q", req.Type))
	}
}

func (d *Daemon) handlePluginList() rtsynproto.DaemonResponse {
	installed := d.registry.List()
	summaries := make([]rtsynproto.PluginSummary, 0, len(installed))
	for _, p := range installed {
		var version, path *string
		if p.Manifest.Version != "" {
			v := p.Manifest.Version
			version = &v
		}
		if p.Path != "" {
			pp := p.Path
			path = &pp
		}
		summaries = append(summaries, rtsynproto.PluginSummary{
			Kind:      p.Manifest.Kind,
			Name:      p.Manifest.Name,
			Version:   version,
			Removable: p.Removable,
			Path:      path,
		})
	}
	return rtsynproto.DaemonResponse{Type: rtsynproto.RespPluginList, Plugins: summaries}
}

func (d *Daemon) handlePluginInstall(req rtsynproto.DaemonRequest) rtsynproto.DaemonResponse {
	installed, err := d.registry.InstallFromFolder(req.Path)
	if err != nil {
		return rtsynproto.Errorf(err.Error())
	}
	if installed.LibraryPath != "" {
		d.host.RegisterLibrary(installed.Manifest.Kind, installed.LibraryPath)
	}
	return rtsynproto.Ok(fmt.Sprintf("installed plugin %q", installed.Manifest.Name))
}

func (d *Daemon) handlePluginUninstall(req rtsynproto.DaemonRequest) rtsynproto.DaemonResponse {
	removed, err := d.registry.Uninstall(req.Name)
	if err != nil {
		return rtsynproto.Errorf(err.Error())
	}
	return rtsynproto.Ok(fmt.Sprintf("uninstalled plugin %q", removed.Manifest.Name))
}

func (d *Daemon) handlePluginAdd(req rtsynproto.DaemonRequest) rtsynproto.DaemonResponse {
	installed, ok := d.registry.FindByKindOrName(req.Name)
	if !ok {
		return rtsynproto.Errorf(fmt.Sprintf("plugin %q is not installed", req.Name))
	}

	ws, _ := d.currentWorkspace()
	id := ws.NextPluginID()
	ws.Plugins = append(ws.Plugins, workspace.PluginDefinition{
		ID:      id,
		Kind:    installed.Manifest.Kind,
		Config:  map[string]any{},
		Running: true,
	})
	d.Commands() <- controlplane.UpdateWorkspace(ws)
	return rtsynproto.DaemonResponse{Type: rtsynproto.RespPluginAdded, PluginID: id}
}

func (d *Daemon) handlePluginRemove(req rtsynproto.DaemonRequest) rtsynproto.DaemonResponse {
	ws, _ := d.currentWorkspace()
	idx := -1
	for i, p := range ws.Plugins {
		if p.ID == req.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return rtsynproto.Errorf(fmt.Sprintf("plugin %d not found", req.ID))
	}
	ws.Plugins = append(ws.Plugins[:idx], ws.Plugins[idx+1:]...)

	kept := ws.Connections[:0]
	for _, c := range ws.Connections {
		if c.FromPlugin != req.ID && c.ToPlugin != req.ID {
			kept = append(kept, c)
		}
	}
	ws.Connections = kept
	ws.FreePluginID(req.ID)

	d.Commands() <- controlplane.UpdateWorkspace(ws)
	return rtsynproto.Ok(fmt.Sprintf("removed plugin %d", req.ID))
}

func (d *Daemon) handleWorkspaceList() rtsynproto.DaemonResponse {
	entries := workspace.ScanEntries(d.cfg.Daemon.WorkspaceDir)
	summaries := make([]rtsynproto.WorkspaceSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, rtsynproto.WorkspaceSummary{
			Name:        e.Name,
			Description: e.Description,
			Plugins:     e.PluginCount,
			PluginKinds: e.PluginKinds,
		})
	}
	return rtsynproto.DaemonResponse{Type: rtsynproto.RespWorkspaceList, Workspaces: summaries}
}

func (d *Daemon) handleWorkspaceLoad(req rtsynproto.DaemonRequest) rtsynproto.DaemonResponse {
	path := workspace.FilePathFor(d.cfg.Daemon.WorkspaceDir, req.WorkspaceName)
	ws, err := workspace.LoadFromFile(path)
	if err != nil {
		return rtsynproto.Errorf(err.Error())
	}
	d.setWorkspace(req.WorkspaceName, ws)
	d.Commands() <- controlplane.UpdateWorkspace(ws)
	return rtsynproto.Ok(fmt.Sprintf("loaded workspace %q", req.WorkspaceName))
}

func (d *Daemon) handleWorkspaceNew(req rtsynproto.DaemonRequest) rtsynproto.DaemonResponse {
	ws := &workspace.Workspace{Name: req.WorkspaceName, Settings: workspace.DefaultSettings()}
	d.setWorkspace(req.WorkspaceName, ws)
	d.Commands() <- controlplane.UpdateWorkspace(ws)
	return rtsynproto.Ok(fmt.Sprintf("created workspace %q", req.WorkspaceName))
}

func (d *Daemon) handleWorkspaceSave(req rtsynproto.DaemonRequest) rtsynproto.DaemonResponse {
	ws, name := d.currentWorkspace()
	if req.SaveAs != nil && *req.SaveAs != "" {
		name = *req.SaveAs
	}
	path := workspace.FilePathFor(d.cfg.Daemon.WorkspaceDir, name)
	if err := ws.SaveToFile(path); err != nil {
		return rtsynproto.Errorf(err.Error())
	}
	d.setWorkspace(name, ws)
	return rtsynproto.Ok(fmt.Sprintf("saved workspace %q", name))
}

func (d *Daemon) handleConnectionAdd(req rtsynproto.DaemonRequest) rtsynproto.DaemonResponse {
	ws, _ := d.currentWorkspace()
	conn := workspace.ConnectionDefinition{
		FromPlugin: req.FromPlugin,
		FromPort:   req.FromPort,
		ToPlugin:   req.ToPlugin,
		ToPort:     req.ToPort,
		Kind:       workspace.ConnectionKindInProcess,
	}
	if err := ws.AddConnection(conn); err != nil {
		return rtsynproto.Errorf(err.Error())
	}
	d.Commands() <- controlplane.UpdateWorkspace(ws)
	return rtsynproto.Ok("connection added")
}

func (d *Daemon) handleConnectionRemove(req rtsynproto.DaemonRequest) rtsynproto.DaemonResponse {
	ws, _ := d.currentWorkspace()
	if !ws.RemoveConnection(req.FromPlugin, req.FromPort, req.ToPlugin, req.ToPort) {
		return rtsynproto.Errorf("connection not found")
	}
	d.Commands() <- controlplane.UpdateWorkspace(ws)
	return rtsynproto.Ok("connection removed")
}

func (d *Daemon) handleRuntimeSettingsShow() rtsynproto.DaemonResponse {
	ws, _ := d.currentWorkspace()
	raw, err := json.Marshal(ws.Settings)
	if err != nil {
		return rtsynproto.Errorf(err.Error())
	}
	return rtsynproto.DaemonResponse{Type: rtsynproto.RespRuntimeSettings, SettingsRaw: string(raw)}
}

func (d *Daemon) handleRuntimeSettingsSet(req rtsynproto.DaemonRequest) rtsynproto.DaemonResponse {
	var settings workspace.TimingSettings
	if err := json.Unmarshal([]byte(req.SettingsJSON), &settings); err != nil {
		return rtsynproto.Errorf("invalid settings JSON: " + err.Error())
	}
	if _, err := settings.PeriodSeconds(); err != nil {
		return rtsynproto.Errorf(err.Error())
	}
	// A frequency-only update (PeriodSeconds falls back to FrequencyValue
	// above) can legitimately leave PeriodUnit unset; default it to "ms"
	// the same way workspace.DefaultSettings does, rather than rejecting
	// an otherwise-valid payload.
	periodUnit := settings.PeriodUnit
	if periodUnit == "" {
		periodUnit = workspace.PeriodMs
	}
	scale, label, err := workspace.TimeScaleAndLabel(periodUnit)
	if err != nil {
		return rtsynproto.Errorf(err.Error())
	}
	settings.TimeScale = scale
	settings.TimeLabel = label

	ws, _ := d.currentWorkspace()
	ws.Settings = settings
	d.Commands() <- controlplane.UpdateSettings(settings)
	return rtsynproto.Ok("runtime settings updated")
}

func (d *Daemon) handleRuntimeSettingsSave() rtsynproto.DaemonResponse {
	return d.handleWorkspaceSave(rtsynproto.DaemonRequest{Type: rtsynproto.ReqWorkspaceSave})
}

func (d *Daemon) handleRuntimeSettingsRestore() rtsynproto.DaemonResponse {
	ws, _ := d.currentWorkspace()
	ws.Settings = workspace.DefaultSettings()
	d.Commands() <- controlplane.UpdateSettings(ws.Settings)
	return rtsynproto.Ok("default values restored")
}

func (d *Daemon) handleRuntimeSettingsOptions() rtsynproto.DaemonResponse {
	options := &rtsynproto.RuntimeSettingsOptions{
		FrequencyUnits:         []string{"hz", "khz", "mhz"},
		PeriodUnits:            []string{"ns", "us", "ms", "s"},
		MinFrequencyValue:      0.001,
		MinPeriodValue:         1,
		MaxIntegrationStepsMin: 1,
		MaxIntegrationStepsMax: 100,
	}
	return rtsynproto.DaemonResponse{Type: rtsynproto.RespRuntimeSettingsOptions, Options: options}
}

func (d *Daemon) handleRuntimeUMLDiagram() rtsynproto.DaemonResponse {
	ws, _ := d.currentWorkspace()
	return rtsynproto.DaemonResponse{Type: rtsynproto.RespRuntimeUMLDiagram, UML: ws.ToUMLDiagram()}
}
