// Copyright 2025 James Ross
package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("DAEMON_SOCKET_PATH")
	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Daemon.SocketPath != "/tmp/rtsyn-daemon.sock" {
		t.Fatalf("expected default socket path, got %q", cfg.Daemon.SocketPath)
	}
	if len(cfg.Daemon.PluginDirs) == 0 {
		t.Fatalf("expected default plugin dirs")
	}
}

func TestValidateFails(t *testing.T) {
	cfg := defaultConfig()
	cfg.Daemon.SocketPath = ""
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for empty socket path")
	}

	cfg = defaultConfig()
	cfg.ControlPlane.CommandBufferSize = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for command_buffer_size < 1")
	}

	cfg = defaultConfig()
	cfg.Loader.APIVersionMin = 5
	cfg.Loader.APIVersionMax = 1
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for api_version_min > api_version_max")
	}

	cfg = defaultConfig()
	cfg.Observability.MetricsPort = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for invalid metrics port")
	}
}
