package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtsyn/rtsyn/internal/config"
	"github.com/rtsyn/rtsyn/internal/controlplane"
	"github.com/rtsyn/rtsyn/internal/engine"
	"github.com/rtsyn/rtsyn/internal/obs"
	"github.com/rtsyn/rtsyn/internal/pluginabi/dynload"
	"github.com/rtsyn/rtsyn/internal/pluginhost"
	"github.com/rtsyn/rtsyn/internal/workspace"
)

// newRunCmd builds the top-level "run --ticks N [--no-gui]" command: an
// in-process, headless engine run bounded to a fixed number of ticks,
// for scripting and smoke-testing a workspace without a daemon.
// --no-gui is accepted for command-line compatibility; no GUI
// supervisor exists in this build, so the run is always headless.
func newRunCmd() *cobra.Command {
	var ticks uint64
	var noGUI bool
	var workspacePath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine in-process for a bounded number of ticks",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = noGUI
			return runHeadless(workspacePath, ticks)
		},
	}
	cmd.Flags().Uint64Var(&ticks, "ticks", 1000, "number of ticks to execute before exiting")
	cmd.Flags().BoolVar(&noGUI, "no-gui", false, "accepted for CLI compatibility; this build is always headless")
	cmd.Flags().StringVar(&workspacePath, "workspace", "", "workspace JSON file to load (default: an empty workspace)")
	return cmd
}

func runHeadless(workspacePath string, ticks uint64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := obs.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	var ws *workspace.Workspace
	if workspacePath != "" {
		ws, err = workspace.LoadFromFile(workspacePath)
		if err != nil {
			return fmt.Errorf("load workspace: %w", err)
		}
	} else {
		ws = &workspace.Workspace{Name: "headless", Settings: workspace.DefaultSettings()}
	}

	loader := dynload.NewLoader(logger, cfg.Loader.APIVersionMin, cfg.Loader.APIVersionMax)
	host := pluginhost.New(loader)

	eng := engine.New(engine.Config{
		Log:            logger,
		Factory:        host,
		Backend:        engine.BackendPlain,
		CommandBuffer:  cfg.ControlPlane.CommandBufferSize,
		SnapshotBuffer: cfg.ControlPlane.SnapshotBufferSize,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prepared := make(chan error, 1)
	engineErrCh := make(chan error, 1)
	go func() { engineErrCh <- eng.Run(ctx, ws, prepared) }()
	if err := <-prepared; err != nil {
		return fmt.Errorf("engine failed to start: %w", err)
	}

	go drainUntil(eng.Snapshots(), ticks, cancel)

	select {
	case <-ctx.Done():
		return nil
	case err := <-engineErrCh:
		return err
	}
}

func drainUntil(snapshots <-chan *controlplane.Snapshot, ticks uint64, cancel context.CancelFunc) {
	for snap := range snapshots {
		if snap.Tick >= ticks {
			cancel()
			return
		}
	}
}
