package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rtsyn/rtsyn/internal/adminapi"
	"github.com/rtsyn/rtsyn/internal/config"
	"github.com/rtsyn/rtsyn/internal/controlplane"
	"github.com/rtsyn/rtsyn/internal/controlplane/transport"
	"github.com/rtsyn/rtsyn/internal/obs"
	"github.com/rtsyn/rtsyn/internal/supervisordaemon"
)

// teeSnapshots fans the engine's single snapshot channel out to two
// downstream consumers (the admin HTTP surface and the optional NATS
// bridge). Each side gets a small buffered channel and a non-blocking
// send, consistent with snapshot publication already being sampled and
// lossy-by-design: a slow consumer misses samples, it never stalls the
// other consumer or the engine.
func teeSnapshots(in <-chan *controlplane.Snapshot) (a, b <-chan *controlplane.Snapshot) {
	chanA := make(chan *controlplane.Snapshot, 8)
	chanB := make(chan *controlplane.Snapshot, 8)
	go func() {
		defer close(chanA)
		defer close(chanB)
		for snap := range in {
			select {
			case chanA <- snap:
			default:
			}
			select {
			case chanB <- snap:
			default:
			}
		}
	}()
	return chanA, chanB
}

func drainDiscard(snapshots <-chan *controlplane.Snapshot) {
	for range snapshots {
	}
}

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the RTSyn supervisor daemon",
	}
	cmd.AddCommand(newDaemonRunCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonReloadCmd())
	cmd.AddCommand(newPluginCmd())
	cmd.AddCommand(newWorkspaceCmd())
	cmd.AddCommand(newConnectionCmd())
	cmd.AddCommand(newRuntimeCmd())
	return cmd
}

func newDaemonRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the supervisor daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := obs.NewLogger(cfg.Observability.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync()

			d := supervisordaemon.New(cfg, logger)
			if err := d.Bootstrap(); err != nil {
				return fmt.Errorf("bootstrap daemon: %w", err)
			}

			if err := writePidFile(cfg.Daemon.PidPath); err != nil {
				logger.Warn("failed to write pid file", obs.Err(err))
			}
			defer os.Remove(cfg.Daemon.PidPath)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 2)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
			go func() {
				for sig := range sigCh {
					if sig == syscall.SIGHUP {
						d.Reload()
						continue
					}
					logger.Info("signal received, shutting down", obs.String("signal", sig.String()))
					cancel()
					return
				}
			}()

			readyCheck := func(context.Context) error { return nil }
			httpSrv := obs.StartHTTPServer(cfg, readyCheck)
			defer func() { _ = httpSrv.Shutdown(context.Background()) }()

			adminSnapshots, natsSnapshots := teeSnapshots(d.Snapshots())

			if cfg.AdminAPI.Enabled {
				state := adminapi.NewState(d.Commands(), d.CurrentWorkspace())
				adminCfg := adminapi.DefaultConfig()
				adminCfg.ListenAddr = cfg.AdminAPI.ListenAddr
				adminCfg.IntrospectRateHz = cfg.ControlPlane.IntrospectionRateHz
				adminCfg.IntrospectBurst = cfg.ControlPlane.IntrospectionBurst
				adminCfg.IntrospectReplyTimeout = cfg.ControlPlane.IntrospectionTimeout
				adminSrv := adminapi.NewServer(adminCfg, logger, state)
				go adminSrv.Run(ctx, adminSnapshots)
				go func() {
					if err := adminSrv.ListenAndServe(); err != nil {
						logger.Error("admin HTTP surface stopped", obs.Err(err))
					}
				}()
				defer func() { _ = adminSrv.Shutdown(context.Background()) }()
			} else {
				go drainDiscard(adminSnapshots)
			}

			if cfg.NATS.Enabled {
				natsCfg := transport.DefaultConfig()
				natsCfg.URL = cfg.NATS.URL
				natsCfg.SnapshotSubject = cfg.NATS.SnapshotSubject
				natsCfg.CommandSubject = cfg.NATS.CommandSubject
				bridge, err := transport.Connect(natsCfg, logger)
				if err != nil {
					return fmt.Errorf("connect NATS bridge: %w", err)
				}
				defer bridge.Close()
				if err := bridge.SubscribeCommands(d.Commands()); err != nil {
					return fmt.Errorf("subscribe NATS commands: %w", err)
				}
				go bridge.PublishSnapshots(ctx, natsSnapshots)
			} else {
				go drainDiscard(natsSnapshots)
			}

			logger.Info("daemon starting", obs.String("socket", cfg.Daemon.SocketPath))
			return d.Run(ctx)
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running supervisor daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := signalDaemon(cfg.Daemon.PidPath, syscall.SIGTERM); err != nil {
				return err
			}
			fmt.Println("stop signal sent")
			return nil
		},
	}
}

func newDaemonReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask a running daemon to rescan its plugin directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := signalDaemon(cfg.Daemon.PidPath, syscall.SIGHUP); err != nil {
				return err
			}
			fmt.Println("reload signal sent")
			return nil
		},
	}
}
