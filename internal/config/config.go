// Copyright 2025 James Ross
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Daemon holds the supervisor daemon's own process settings: where to
// listen, what to log, and where plugins live on disk. This is distinct
// from the Workspace JSON file (internal/workspace), which is engine data
// mutated by commands, not process configuration.
type Daemon struct {
	SocketPath      string   `mapstructure:"socket_path"`
	PidPath         string   `mapstructure:"pid_path"`
	WorkspaceDir    string   `mapstructure:"workspace_dir"`
	PluginDirs      []string `mapstructure:"plugin_dirs"`
	RegistryPath    string   `mapstructure:"registry_path"`
	AutoPersistCron string   `mapstructure:"auto_persist_cron"`
}

type ControlPlane struct {
	CommandBufferSize     int           `mapstructure:"command_buffer_size"`
	SnapshotBufferSize    int           `mapstructure:"snapshot_buffer_size"`
	IntrospectionTimeout  time.Duration `mapstructure:"introspection_timeout"`
	IntrospectionRateHz   float64       `mapstructure:"introspection_rate_hz"`
	IntrospectionBurst    int           `mapstructure:"introspection_burst"`
}

type Loader struct {
	APIVersionMin uint32 `mapstructure:"api_version_min"`
	APIVersionMax uint32 `mapstructure:"api_version_max"`
}

type AdminAPI struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// NATS configures the optional out-of-process control-plane bridge
// (internal/controlplane/transport). Disabled by default: the Unix
// socket and HTTP surfaces are sufficient for a single-host deployment.
type NATS struct {
	Enabled         bool   `mapstructure:"enabled"`
	URL             string `mapstructure:"url"`
	SnapshotSubject string `mapstructure:"snapshot_subject"`
	CommandSubject  string `mapstructure:"command_subject"`
}

type ObservabilityConfig struct {
	MetricsPort int    `mapstructure:"metrics_port"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"`
}

// Observability is a backwards-compatible alias.
type Observability = ObservabilityConfig

type Config struct {
	Daemon        Daemon        `mapstructure:"daemon"`
	ControlPlane  ControlPlane  `mapstructure:"control_plane"`
	Loader        Loader        `mapstructure:"loader"`
	AdminAPI      AdminAPI      `mapstructure:"admin_api"`
	NATS          NATS          `mapstructure:"nats"`
	Observability Observability `mapstructure:"observability"`
}

func defaultConfig() *Config {
	return &Config{
		Daemon: Daemon{
			SocketPath:      "/tmp/rtsyn-daemon.sock",
			PidPath:         "/tmp/rtsyn-daemon.pid",
			WorkspaceDir:    "./workspaces",
			PluginDirs:      []string{"./plugins", "./app_plugins", "./rtsyn-plugins"},
			RegistryPath:    "./installed_plugins.json",
			AutoPersistCron: "@every 30s",
		},
		ControlPlane: ControlPlane{
			CommandBufferSize:    256,
			SnapshotBufferSize:   8,
			IntrospectionTimeout: 500 * time.Millisecond,
			IntrospectionRateHz:  10,
			IntrospectionBurst:   5,
		},
		Loader: Loader{
			APIVersionMin: 1,
			APIVersionMax: 1,
		},
		AdminAPI: AdminAPI{
			Enabled:    true,
			ListenAddr: ":8090",
		},
		NATS: NATS{
			Enabled:         false,
			URL:             "nats://127.0.0.1:4222",
			SnapshotSubject: "rtsyn.snapshot",
			CommandSubject:  "rtsyn.command",
		},
		Observability: Observability{
			MetricsPort: 9090,
			LogLevel:    "info",
			LogFile:     "./rtsyn-daemon.log",
		},
	}
}

// Load reads configuration from a YAML file plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaultConfig()
	v.SetDefault("daemon.socket_path", def.Daemon.SocketPath)
	v.SetDefault("daemon.pid_path", def.Daemon.PidPath)
	v.SetDefault("daemon.workspace_dir", def.Daemon.WorkspaceDir)
	v.SetDefault("daemon.plugin_dirs", def.Daemon.PluginDirs)
	v.SetDefault("daemon.registry_path", def.Daemon.RegistryPath)
	v.SetDefault("daemon.auto_persist_cron", def.Daemon.AutoPersistCron)

	v.SetDefault("control_plane.command_buffer_size", def.ControlPlane.CommandBufferSize)
	v.SetDefault("control_plane.snapshot_buffer_size", def.ControlPlane.SnapshotBufferSize)
	v.SetDefault("control_plane.introspection_timeout", def.ControlPlane.IntrospectionTimeout)
	v.SetDefault("control_plane.introspection_rate_hz", def.ControlPlane.IntrospectionRateHz)
	v.SetDefault("control_plane.introspection_burst", def.ControlPlane.IntrospectionBurst)

	v.SetDefault("loader.api_version_min", def.Loader.APIVersionMin)
	v.SetDefault("loader.api_version_max", def.Loader.APIVersionMax)

	v.SetDefault("admin_api.enabled", def.AdminAPI.Enabled)
	v.SetDefault("admin_api.listen_addr", def.AdminAPI.ListenAddr)

	v.SetDefault("nats.enabled", def.NATS.Enabled)
	v.SetDefault("nats.url", def.NATS.URL)
	v.SetDefault("nats.snapshot_subject", def.NATS.SnapshotSubject)
	v.SetDefault("nats.command_subject", def.NATS.CommandSubject)

	v.SetDefault("observability.metrics_port", def.Observability.MetricsPort)
	v.SetDefault("observability.log_level", def.Observability.LogLevel)
	v.SetDefault("observability.log_file", def.Observability.LogFile)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks config constraints and returns an error on invalid settings.
func Validate(cfg *Config) error {
	if cfg.Daemon.SocketPath == "" {
		return fmt.Errorf("daemon.socket_path must not be empty")
	}
	if len(cfg.Daemon.PluginDirs) == 0 {
		return fmt.Errorf("daemon.plugin_dirs must be non-empty")
	}
	if cfg.ControlPlane.CommandBufferSize < 1 {
		return fmt.Errorf("control_plane.command_buffer_size must be >= 1")
	}
	if cfg.ControlPlane.SnapshotBufferSize < 1 {
		return fmt.Errorf("control_plane.snapshot_buffer_size must be >= 1")
	}
	if cfg.ControlPlane.IntrospectionTimeout <= 0 {
		return fmt.Errorf("control_plane.introspection_timeout must be > 0")
	}
	if cfg.Loader.APIVersionMin > cfg.Loader.APIVersionMax {
		return fmt.Errorf("loader.api_version_min must be <= loader.api_version_max")
	}
	if cfg.Observability.MetricsPort <= 0 || cfg.Observability.MetricsPort > 65535 {
		return fmt.Errorf("observability.metrics_port must be 1..65535")
	}
	return nil
}
