// Package connectioncache provides a pre-indexed, read-only view of a
// workspace's connections, answering per-port fan-in lookups in O(1)
// (§4.3 "Connection cache"). It is rebuilt wholesale on every workspace
// swap and never mutated in place.
package connectioncache

import (
	"github.com/rtsyn/rtsyn/internal/pluginabi"
	"github.com/rtsyn/rtsyn/internal/workspace"
)

// source identifies one producer port feeding a sink port.
type source struct {
	plugin uint64
	port   string
}

// OutputKey addresses one (plugin, port) output slot in the engine's
// outputs table.
type OutputKey struct {
	Plugin uint64
	Port   string
}

// Cache answers fan-in queries for one frozen workspace snapshot.
type Cache struct {
	incomingByTargetPort map[uint64]map[string][]source
	incomingPorts        map[uint64]map[string]struct{}
	outgoingPorts        map[uint64]map[string]struct{}
}

// Build indexes every connection in ws. Connections referencing ids not
// present in ws.Plugins are still indexed — the engine's outputs table
// simply never has a matching entry for them, and input_sum degenerates
// to 0.0.
func Build(ws *workspace.Workspace) *Cache {
	c := &Cache{
		incomingByTargetPort: make(map[uint64]map[string][]source),
		incomingPorts:        make(map[uint64]map[string]struct{}),
		outgoingPorts:        make(map[uint64]map[string]struct{}),
	}
	for _, conn := range ws.Connections {
		byPort, ok := c.incomingByTargetPort[conn.ToPlugin]
		if !ok {
			byPort = make(map[string][]source)
			c.incomingByTargetPort[conn.ToPlugin] = byPort
		}
		byPort[conn.ToPort] = append(byPort[conn.ToPort], source{plugin: conn.FromPlugin, port: conn.FromPort})

		inPorts, ok := c.incomingPorts[conn.ToPlugin]
		if !ok {
			inPorts = make(map[string]struct{})
			c.incomingPorts[conn.ToPlugin] = inPorts
		}
		inPorts[conn.ToPort] = struct{}{}

		outPorts, ok := c.outgoingPorts[conn.FromPlugin]
		if !ok {
			outPorts = make(map[string]struct{})
			c.outgoingPorts[conn.FromPlugin] = outPorts
		}
		outPorts[conn.FromPort] = struct{}{}
	}
	return c
}

// Incoming returns the (plugin, port) producers feeding (plugin, port),
// in connection order.
func (c *Cache) Incoming(plugin uint64, port string) []OutputKey {
	sources := c.incomingByTargetPort[plugin][port]
	out := make([]OutputKey, len(sources))
	for i, s := range sources {
		out[i] = OutputKey{Plugin: s.plugin, Port: s.port}
	}
	return out
}

// IncomingPorts returns the set of input ports of plugin that have at
// least one connection feeding them.
func (c *Cache) IncomingPorts(plugin uint64) []string {
	return keys(c.incomingPorts[plugin])
}

// OutgoingPorts returns the set of output ports of plugin that feed at
// least one connection.
func (c *Cache) OutgoingPorts(plugin uint64) []string {
	return keys(c.outgoingPorts[plugin])
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// InputSum is the canonical fan-in reducer for scalar graphs: the
// sanitised sum of every connected producer's sanitised output. The
// result is itself sanitised so NaN can never enter via the summation
// step (e.g. +Inf plus -Inf).
func (c *Cache) InputSum(outputs map[OutputKey]float64, plugin uint64, port string) float64 {
	sources := c.incomingByTargetPort[plugin][port]
	if len(sources) == 0 {
		return 0.0
	}
	var total float64
	for _, s := range sources {
		total += pluginabi.Sanitize(outputs[OutputKey{Plugin: s.plugin, Port: s.port}])
	}
	return pluginabi.Sanitize(total)
}
