// Package adminapi exposes an HTTP surface over the engine's control
// plane: health/readiness/metrics for operators, JSON introspection
// endpoints, and a few mutating endpoints (workspace replacement, plugin
// start/stop/restart) issuing the same commands the Unix-socket daemon
// sends (§"HTTP surface" — for supervisors that prefer HTTP to
// the socket protocol).
package adminapi

import "time"

// Config configures the HTTP listener. There is no auth layer here, for
// the mutating endpoints either: the surface is intended for trusted
// operator tooling on the same host or behind an operator-managed reverse
// proxy.
type Config struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// IntrospectRateHz/IntrospectBurst bound the /introspect endpoints,
	// which construct a plugin instance just to answer the query.
	IntrospectRateHz   float64       `mapstructure:"introspect_rate_hz"`
	IntrospectBurst    int           `mapstructure:"introspect_burst"`
	IntrospectReplyTimeout time.Duration `mapstructure:"introspect_reply_timeout"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:             ":8090",
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		ShutdownTimeout:        5 * time.Second,
		IntrospectRateHz:       10,
		IntrospectBurst:        5,
		IntrospectReplyTimeout: 500 * time.Millisecond,
	}
}
