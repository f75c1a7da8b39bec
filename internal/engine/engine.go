// Package engine implements the RT thread: the single dedicated
// goroutine that owns the plugin graph, the connection cache, and the
// outputs table, and periodically evaluates the graph at the workspace's
// configured frequency (§4.4 "Execution engine").
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rtsyn/rtsyn/internal/connectioncache"
	"github.com/rtsyn/rtsyn/internal/controlplane"
	"github.com/rtsyn/rtsyn/internal/obs"
	"github.com/rtsyn/rtsyn/internal/pluginabi"
	"github.com/rtsyn/rtsyn/internal/workspace"
)

// pluginEntry is one live graph node: the running instance plus the
// definition it was built from, so a workspace swap can diff by
// (id, kind) without reconstructing unchanged plugins.
type pluginEntry struct {
	def     workspace.PluginDefinition
	plugin  pluginabi.Plugin
	sampler plotterSampler
}

// plotterSampler is implemented by built-in plugins (e.g. live_plotter)
// that expose a per-tick sample buffer; dynamically loaded plugins never
// satisfy it, since the ABI has no equivalent entry point.
type plotterSampler interface {
	SampleValues() []float64
}

// Engine owns all RT-thread state. Every field below is touched only
// from the goroutine running Run; Snapshots() and Commands() are the
// only channels safe to use from other goroutines.
type Engine struct {
	log     *zap.Logger
	factory pluginabi.Factory
	backend RTThreadBackend

	commands  chan controlplane.Command
	snapshots chan *controlplane.Snapshot

	ws       *workspace.Workspace
	cache    *connectioncache.Cache
	order    []uint64
	plugins  map[uint64]*pluginEntry
	outputs  map[connectioncache.OutputKey]float64

	tick            uint64
	lastPublish     time.Time
	pending         *controlplane.Snapshot
	overrunCount    uint64
}

// Config bundles the dependencies an Engine needs at construction time.
type Config struct {
	Log              *zap.Logger
	Factory          pluginabi.Factory
	Backend          BackendKind
	CommandBuffer    int
	SnapshotBuffer   int
}

func New(cfg Config) *Engine {
	return &Engine{
		log:       cfg.Log,
		factory:   cfg.Factory,
		backend:   NewBackend(cfg.Backend),
		commands:  make(chan controlplane.Command, cfg.CommandBuffer),
		snapshots: make(chan *controlplane.Snapshot, cfg.SnapshotBuffer),
		plugins:   make(map[uint64]*pluginEntry),
		outputs:   make(map[connectioncache.OutputKey]float64),
		pending:   controlplane.NewSnapshot(),
	}
}

// Commands returns the inbound command channel; supervisors send on it,
// never receive.
func (e *Engine) Commands() chan<- controlplane.Command { return e.commands }

// Snapshots returns the outbound snapshot channel; supervisors receive
// from it at their own pace.
func (e *Engine) Snapshots() <-chan *controlplane.Snapshot { return e.snapshots }

// Run blocks until ctx is cancelled, executing the tick cycle described
// in §4.4. prepared is closed once Prepare has reported back, so callers
// can observe startup errors synchronously.
func (e *Engine) Run(ctx context.Context, ws *workspace.Workspace, prepared chan<- error) error {
	if err := e.backend.Prepare(); err != nil {
		prepared <- err
		close(prepared)
		return err
	}

	// ws is handed off directly by the caller (supervisordaemon.Run),
	// bypassing the UpdateWorkspace command constructor that clones on
	// every later swap; clone here too so the engine never aliases the
	// supervisor's own copy from first tick.
	e.swapWorkspace(ws.Clone())

	period, err := e.ws.Settings.PeriodSeconds()
	if err != nil {
		prepared <- err
		close(prepared)
		return err
	}
	periodDuration := time.Duration(period * float64(time.Second))
	if err := e.backend.InitSleep(periodDuration); err != nil {
		prepared <- err
		close(prepared)
		return err
	}
	prepared <- nil
	close(prepared)

	e.lastPublish = time.Now()
	deadline := time.Now().Add(periodDuration)

	for {
		select {
		case <-ctx.Done():
			e.closeAll()
			return nil
		default:
		}

		e.drainCommands()

		steps := 0
		maxSteps := e.ws.Settings.MaxIntegrationSteps
		if maxSteps <= 0 {
			maxSteps = 10
		}
		for time.Now().After(deadline) && steps < maxSteps {
			e.runTick(periodDuration)
			e.overrunCount++
			obs.TickOverruns.Inc()
			deadline = deadline.Add(periodDuration)
			steps++
		}
		if steps == 0 {
			e.runTick(periodDuration)
			deadline = deadline.Add(periodDuration)
		}

		if err := e.backend.Sleep(deadline); err != nil {
			e.log.Warn("RT thread sleep error", obs.Err(err))
		}
	}
}

func (e *Engine) runTick(periodDuration time.Duration) {
	start := time.Now()
	period := periodDuration.Seconds()
	timeScale, timeLabel := e.ws.Settings.TimeScale, e.ws.Settings.TimeLabel
	if timeScale == 0 {
		timeScale, timeLabel = 1.0, "time_s"
	}
	ctx := pluginabi.ProcessContext{Tick: e.tick, PeriodSeconds: period, TimeScale: timeScale, TimeLabel: timeLabel}

	violation := false
	for _, id := range e.order {
		entry, ok := e.plugins[id]
		if !ok || !entry.def.Running {
			continue
		}

		for _, port := range e.cache.IncomingPorts(id) {
			value := e.cache.InputSum(e.outputs, id, port)
			entry.plugin.SetInput(pluginabi.Port(port), value)
			e.pending.MaterializedInputs[controlplane.PortKey{Plugin: id, Port: port}] = value
		}

		if perr := entry.plugin.Process(ctx); perr != nil {
			violation = true
			obs.PluginProcessingFailures.WithLabelValues(entry.def.Kind).Inc()
			e.log.Warn("plugin processing failed", obs.String("kind", entry.def.Kind), obs.Uint64("plugin_id", id), obs.Err(perr))
		}

		for _, port := range entry.plugin.Outputs() {
			raw := entry.plugin.GetOutput(port)
			sanitised := pluginabi.Sanitize(raw)
			if sanitised != raw {
				obs.PluginSanitisedOutputs.WithLabelValues(entry.def.Kind).Inc()
			}
			key := connectioncache.OutputKey{Plugin: id, Port: string(port)}
			e.outputs[key] = sanitised
			e.pending.Outputs[controlplane.PortKey{Plugin: id, Port: string(port)}] = sanitised
		}

		if entry.sampler != nil {
			values := entry.sampler.SampleValues()
			e.pending.PlotterSamples[id] = append(e.pending.PlotterSamples[id], controlplane.PlotterSample{Tick: e.tick, Values: values})
		}
	}

	e.tick++
	e.pending.Tick = e.tick
	e.pending.RealtimeViolation = e.pending.RealtimeViolation || violation
	e.pending.OverrunCount = e.overrunCount

	obs.TicksExecuted.Inc()
	obs.TickDuration.Observe(time.Since(start).Seconds())

	uiHz := e.ws.Settings.UIHz
	if uiHz <= 0 {
		uiHz = 30
	}
	if time.Since(e.lastPublish) >= time.Duration(float64(time.Second)/uiHz) {
		e.publish()
	}
}

func (e *Engine) publish() {
	snap := e.pending
	select {
	case e.snapshots <- snap:
		obs.SnapshotsPublished.Inc()
	default:
		// Supervisor is lagging; drop the oldest buffered snapshot so
		// the RT thread never blocks on a full channel (§5 "Ordering").
		select {
		case <-e.snapshots:
		default:
		}
		e.snapshots <- snap
	}
	e.pending = controlplane.NewSnapshot()
	e.lastPublish = time.Now()
}

func (e *Engine) closeAll() {
	for _, entry := range e.plugins {
		_ = entry.plugin.Close()
	}
}

// drainCommands processes every command queued since the last tick, in
// arrival order, without blocking (§4.4 step 1).
func (e *Engine) drainCommands() {
	for {
		select {
		case cmd := <-e.commands:
			e.handleCommand(cmd)
		default:
			return
		}
	}
}

func (e *Engine) handleCommand(cmd controlplane.Command) {
	switch cmd.Kind {
	case controlplane.CmdUpdateSettings:
		e.ws.Settings = cmd.Settings
	case controlplane.CmdUpdateWorkspace:
		e.swapWorkspace(cmd.Workspace)
	case controlplane.CmdSetPluginRunning:
		if entry, ok := e.plugins[cmd.PluginID]; ok {
			entry.def.Running = cmd.Running
		}
	case controlplane.CmdRestartPlugin:
		e.restartPlugin(cmd.PluginID)
	case controlplane.CmdQueryPluginMetadata:
		e.replyPluginMetadata(cmd)
	case controlplane.CmdQueryPluginBehavior:
		e.replyPluginBehavior(cmd)
	case controlplane.CmdGetPluginVariable:
		e.replyGetVariable(cmd)
	case controlplane.CmdSetPluginVariable:
		// Variables are plugin-defined state surfaced only through
		// Meta().DefaultVariables today; a richer per-instance variable
		// store belongs to a future plugin-side capability.
	}
}

// pluginByKind returns a live instance of the given kind if the graph
// already holds one, to avoid a spurious probe instantiation for the
// common introspection case (a plugin already on the canvas).
func (e *Engine) pluginByKind(kind string) (pluginabi.Plugin, bool) {
	for _, candidate := range e.plugins {
		if candidate.def.Kind == kind {
			return candidate.plugin, true
		}
	}
	return nil, false
}

// probePlugin answers an introspection query for a kind that is not
// currently loaded by constructing and immediately discarding an instance
// with empty config — the query never touches the live graph or its
// connection cache.
func (e *Engine) probePlugin(kind string) (pluginabi.Plugin, error) {
	p, err := e.factory.New(0, kind, nil)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (e *Engine) replyPluginMetadata(cmd controlplane.Command) {
	if cmd.MetadataReply == nil {
		return
	}
	plugin, ok := e.pluginByKind(cmd.PluginKind)
	if !ok {
		probed, err := e.probePlugin(cmd.PluginKind)
		if err != nil {
			cmd.MetadataReply <- controlplane.MetadataReply{Err: fmt.Errorf("no plugin of kind %q loaded: %w", cmd.PluginKind, err)}
			return
		}
		defer probed.Close()
		plugin = probed
	}
	meta := plugin.Meta()
	inputs := make([]string, len(plugin.Inputs()))
	for i, p := range plugin.Inputs() {
		inputs[i] = string(p)
	}
	outputs := make([]string, len(plugin.Outputs()))
	for i, p := range plugin.Outputs() {
		outputs[i] = string(p)
	}
	cmd.MetadataReply <- controlplane.MetadataReply{
		DisplayName:      meta.DisplayName,
		DefaultVariables: meta.DefaultVariables,
		Inputs:           inputs,
		Outputs:          outputs,
	}
}

func (e *Engine) replyPluginBehavior(cmd controlplane.Command) {
	if cmd.BehaviorReply == nil {
		return
	}
	plugin, ok := e.pluginByKind(cmd.PluginKind)
	if !ok {
		probed, err := e.probePlugin(cmd.PluginKind)
		if err != nil {
			cmd.BehaviorReply <- controlplane.BehaviorReply{Err: fmt.Errorf("no plugin of kind %q loaded: %w", cmd.PluginKind, err)}
			return
		}
		defer probed.Close()
		plugin = probed
	}
	b := plugin.Behavior()
	if b == nil {
		cmd.BehaviorReply <- controlplane.BehaviorReply{Behavior: nil}
		return
	}
	cmd.BehaviorReply <- controlplane.BehaviorReply{Behavior: map[string]any{
		"extendable_inputs":    b.ExtendableInputs,
		"auto_extend_inputs":   b.AutoExtendInputs,
		"supports_start_stop":  b.SupportsStartStop,
		"supports_restart":     b.SupportsRestart,
		"loads_started":        b.LoadsStarted,
		"external_window":      b.ExternalWindow,
		"connection_dependent": b.ConnectionDependent,
	}}
}

func (e *Engine) replyGetVariable(cmd controlplane.Command) {
	if cmd.VariableReply == nil {
		return
	}
	entry, ok := e.plugins[cmd.PluginID]
	if !ok {
		cmd.VariableReply <- controlplane.VariableReply{Found: false}
		return
	}
	value, found := entry.plugin.Meta().DefaultVariables[cmd.VariableName]
	cmd.VariableReply <- controlplane.VariableReply{Value: value, Found: found}
}

// restartPlugin reconstructs one plugin instance (destroy + create +
// set_config) without touching the rest of the graph (§4.4 "Restart").
func (e *Engine) restartPlugin(id uint64) {
	entry, ok := e.plugins[id]
	if !ok {
		return
	}
	_ = entry.plugin.Close()
	fresh, err := e.factory.New(id, entry.def.Kind, entry.def.Config)
	if err != nil {
		e.log.Error("restart failed", obs.Uint64("plugin_id", id), obs.Err(err))
		delete(e.plugins, id)
		return
	}
	entry.plugin = fresh
	if sampler, ok := fresh.(plotterSampler); ok {
		entry.sampler = sampler
	} else {
		entry.sampler = nil
	}
}

// swapWorkspace replaces the active workspace wholesale, diffing plugin
// instances by (id, kind): unchanged entries are preserved, new ones are
// created, removed ones are destroyed (§4.5 "UpdateWorkspace").
func (e *Engine) swapWorkspace(ws *workspace.Workspace) {
	next := make(map[uint64]*pluginEntry, len(ws.Plugins))
	for _, def := range ws.Plugins {
		if existing, ok := e.plugins[def.ID]; ok && existing.def.Kind == def.Kind {
			existing.def = def
			next[def.ID] = existing
			delete(e.plugins, def.ID)
			continue
		}
		plugin, err := e.factory.New(def.ID, def.Kind, def.Config)
		if err != nil {
			e.log.Error("failed to instantiate plugin", obs.Uint64("plugin_id", def.ID), obs.String("kind", def.Kind), obs.Err(err))
			continue
		}
		entry := &pluginEntry{def: def, plugin: plugin}
		if sampler, ok := plugin.(plotterSampler); ok {
			entry.sampler = sampler
		}
		next[def.ID] = entry
	}
	for _, stale := range e.plugins {
		_ = stale.plugin.Close()
	}

	e.ws = ws
	e.plugins = next
	e.cache = connectioncache.Build(ws)
	e.order = workspace.TopologicallyOrder(ws.Plugins, ws.Connections)
	e.outputs = make(map[connectioncache.OutputKey]float64)
	obs.ActivePlugins.Set(float64(len(next)))
}
