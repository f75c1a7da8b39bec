// Package supervisordaemon implements the "CLI daemon" supervisor: the
// Unix-socket control-plane IPC server (§6 "Control-plane IPC"), the
// installed-plugin registry, and the workspace lifecycle (load/new/save)
// that feeds internal/engine's command channel.
package supervisordaemon

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rtsyn/rtsyn/internal/config"
	"github.com/rtsyn/rtsyn/internal/controlplane"
	"github.com/rtsyn/rtsyn/internal/engine"
	"github.com/rtsyn/rtsyn/internal/obs"
	"github.com/rtsyn/rtsyn/internal/pluginabi/dynload"
	"github.com/rtsyn/rtsyn/internal/pluginhost"
	"github.com/rtsyn/rtsyn/internal/workspace"
)

// Daemon owns the engine, the plugin registry, and the currently active
// workspace's name/path bookkeeping (the engine only ever sees a
// *workspace.Workspace value, never a filename).
type Daemon struct {
	cfg *config.Config
	log *zap.Logger

	registry *Registry
	host     *pluginhost.Host
	engine   *engine.Engine
	cron     *cron.Cron

	mu          sync.Mutex
	current     *workspace.Workspace
	currentName string
}

// New wires every collaborator but does not yet start the engine or
// socket listener; call Run for that.
func New(cfg *config.Config, log *zap.Logger) *Daemon {
	loader := dynload.NewLoader(log, cfg.Loader.APIVersionMin, cfg.Loader.APIVersionMax)
	host := pluginhost.New(loader)

	eng := engine.New(engine.Config{
		Log:            log,
		Factory:        host,
		Backend:        engine.BackendPlain,
		CommandBuffer:  cfg.ControlPlane.CommandBufferSize,
		SnapshotBuffer: cfg.ControlPlane.SnapshotBufferSize,
	})

	return &Daemon{
		cfg:      cfg,
		log:      log,
		registry: NewRegistry(cfg.Daemon.RegistryPath),
		host:     host,
		engine:   eng,
	}
}

// Bootstrap loads the plugin registry, scans plugin directories, and
// loads (or creates) the starting workspace. It must run before Run.
func (d *Daemon) Bootstrap() error {
	if err := d.registry.Load(); err != nil {
		return err
	}
	d.registry.SeedBuiltins([]string{"mock_source", "live_plotter", "performance_monitor", "csv_recorder"})
	d.registry.ScanDirs(d.cfg.Daemon.PluginDirs)
	for _, p := range d.registry.List() {
		if p.LibraryPath != "" {
			d.host.RegisterLibrary(p.Manifest.Kind, p.LibraryPath)
		}
	}

	entries := workspace.ScanEntries(d.cfg.Daemon.WorkspaceDir)
	if len(entries) > 0 {
		ws, err := workspace.LoadFromFile(entries[0].Path)
		if err != nil {
			return fmt.Errorf("load starting workspace: %w", err)
		}
		d.setWorkspace(entries[0].Name, ws)
		return nil
	}

	ws := &workspace.Workspace{Name: "default", Settings: workspace.DefaultSettings()}
	d.setWorkspace("default", ws)
	return nil
}

func (d *Daemon) setWorkspace(name string, ws *workspace.Workspace) {
	d.mu.Lock()
	d.current = ws
	d.currentName = name
	d.mu.Unlock()
}

func (d *Daemon) currentWorkspace() (*workspace.Workspace, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, d.currentName
}

// Run starts the engine's RT thread, the auto-persist cron job, and the
// Unix-socket IPC server; it blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	ws, _ := d.currentWorkspace()
	prepared := make(chan error, 1)
	engineErrCh := make(chan error, 1)
	go func() {
		engineErrCh <- d.engine.Run(ctx, ws, prepared)
	}()
	if err := <-prepared; err != nil {
		return fmt.Errorf("engine failed to start: %w", err)
	}

	d.cron = cron.New()
	if _, err := d.cron.AddFunc(d.cfg.Daemon.AutoPersistCron, d.autoPersist); err != nil {
		return fmt.Errorf("schedule auto-persist: %w", err)
	}
	d.cron.Start()
	defer d.cron.Stop()

	listener, err := newSocketListener(d.cfg.Daemon.SocketPath)
	if err != nil {
		return err
	}
	defer listener.Close()

	go acceptLoop(ctx, listener, d.log, d.handle)

	select {
	case <-ctx.Done():
		return nil
	case err := <-engineErrCh:
		return err
	}
}

// autoPersist saves the current workspace to its conventional path on the
// configured cron schedule (default every 30s), so an unclean shutdown
// loses at most one interval of edits.
func (d *Daemon) autoPersist() {
	ws, name := d.currentWorkspace()
	if ws == nil || name == "" {
		return
	}
	path := workspace.FilePathFor(d.cfg.Daemon.WorkspaceDir, name)
	if err := ws.SaveToFile(path); err != nil {
		d.log.Warn("auto-persist failed", obs.String("workspace", name), obs.Err(err))
	}
}

// Commands exposes the engine's inbound command channel to callers
// outside the package, such as cmd/rtsyn wiring an optional admin HTTP
// surface alongside the socket server.
func (d *Daemon) Commands() chan<- controlplane.Command { return d.engine.Commands() }

// Snapshots exposes the engine's outbound state-snapshot channel.
func (d *Daemon) Snapshots() <-chan *controlplane.Snapshot { return d.engine.Snapshots() }

// CurrentWorkspace returns the workspace currently loaded by the daemon.
func (d *Daemon) CurrentWorkspace() *workspace.Workspace {
	ws, _ := d.currentWorkspace()
	return ws
}

// Reload re-scans the configured plugin directories for newly dropped
// manifests without restarting the process, mirroring what a SIGHUP
// means to most Unix daemons.
func (d *Daemon) Reload() {
	d.registry.ScanDirs(d.cfg.Daemon.PluginDirs)
	for _, p := range d.registry.List() {
		if p.LibraryPath != "" {
			d.host.RegisterLibrary(p.Manifest.Kind, p.LibraryPath)
		}
	}
	d.log.Info("plugin directories rescanned")
}
