package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/rtsyn/rtsyn/internal/config"
	"github.com/rtsyn/rtsyn/pkg/rtsynproto"
)

// resolveSocketPath loads the daemon's configured socket path unless
// --socket overrides it, so client subcommands agree with "daemon run"
// on where to connect without requiring --socket on every invocation.
func resolveSocketPath() (string, error) {
	if socketOverride != "" {
		return socketOverride, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.Daemon.SocketPath, nil
}

// roundTrip sends one request line to the daemon and reads back the one
// response line it answers with, per the control-plane IPC's ordering
// guarantee (one response per request, in arrival order).
func roundTrip(req rtsynproto.DaemonRequest) (rtsynproto.DaemonResponse, error) {
	socketPath, err := resolveSocketPath()
	if err != nil {
		return rtsynproto.DaemonResponse{}, err
	}

	conn, err := net.DialTimeout("unix", socketPath, rtsynproto.ClientTimeout)
	if err != nil {
		return rtsynproto.DaemonResponse{}, fmt.Errorf("connect to daemon at %s: %w (is it running?)", socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(rtsynproto.ClientTimeout))

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return rtsynproto.DaemonResponse{}, fmt.Errorf("send request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return rtsynproto.DaemonResponse{}, fmt.Errorf("read response: %w", err)
		}
		return rtsynproto.DaemonResponse{}, fmt.Errorf("daemon closed the connection without a response")
	}

	var resp rtsynproto.DaemonResponse
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return rtsynproto.DaemonResponse{}, fmt.Errorf("parse response: %w", err)
	}
	if resp.Type == rtsynproto.RespError {
		return resp, fmt.Errorf("%s", resp.Message)
	}
	return resp, nil
}
