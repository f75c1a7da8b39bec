package workspace

import "sort"

// TopologicallyOrder returns an execution order respecting, in priority:
//  1. priority class (ascending), then
//  2. within a class, a topological sort of the induced sub-DAG, and
//  3. on a cycle, nodes that are not pure sinks first, remaining appended
//     by id order — the engine never refuses to run a cyclic graph; it
//     just breaks ties deterministically.
func TopologicallyOrder(plugins []PluginDefinition, connections []ConnectionDefinition) []uint64 {
	byPriority := make(map[int][]PluginDefinition)
	var priorities []int
	for _, p := range plugins {
		if _, ok := byPriority[p.Priority]; !ok {
			priorities = append(priorities, p.Priority)
		}
		byPriority[p.Priority] = append(byPriority[p.Priority], p)
	}
	sort.Ints(priorities)

	var order []uint64
	for _, prio := range priorities {
		class := byPriority[prio]
		order = append(order, orderClass(class, connections)...)
	}
	return order
}

// orderClass topologically sorts one priority class; on a cycle it falls
// back to a deterministic tie-break: non-sink nodes first, then the
// remainder by id order.
func orderClass(class []PluginDefinition, connections []ConnectionDefinition) []uint64 {
	ids := make(map[uint64]bool, len(class))
	for _, p := range class {
		ids[p.ID] = true
	}

	// edges restricted to this class: from -> [to...]
	edges := make(map[uint64][]uint64)
	indegree := make(map[uint64]int)
	isSink := make(map[uint64]bool, len(class))
	for _, p := range class {
		indegree[p.ID] = 0
		isSink[p.ID] = true
	}
	for _, c := range connections {
		if ids[c.FromPlugin] && ids[c.ToPlugin] && c.FromPlugin != c.ToPlugin {
			edges[c.FromPlugin] = append(edges[c.FromPlugin], c.ToPlugin)
			indegree[c.ToPlugin]++
			isSink[c.FromPlugin] = false
		}
	}

	sortedIDs := func(ids []uint64) []uint64 {
		out := append([]uint64(nil), ids...)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}

	var orderedPluginIDs []uint64
	for _, p := range class {
		orderedPluginIDs = append(orderedPluginIDs, p.ID)
	}
	orderedPluginIDs = sortedIDs(orderedPluginIDs)

	// Kahn's algorithm with a deterministic (id-ordered) ready queue.
	inDeg := make(map[uint64]int, len(indegree))
	for k, v := range indegree {
		inDeg[k] = v
	}
	var ready []uint64
	for _, id := range orderedPluginIDs {
		if inDeg[id] == 0 {
			ready = append(ready, id)
		}
	}

	var result []uint64
	visited := make(map[uint64]bool, len(class))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		id := ready[0]
		ready = ready[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		result = append(result, id)
		for _, to := range edges[id] {
			inDeg[to]--
			if inDeg[to] == 0 {
				ready = append(ready, to)
			}
		}
	}

	if len(result) == len(class) {
		return result
	}

	// Cycle present: deterministic tie-break. Nodes that are not pure
	// sinks come first (they still produce something useful downstream
	// even inside the cycle), remaining appended by id order.
	remaining := make(map[uint64]bool)
	for _, id := range orderedPluginIDs {
		if !visited[id] {
			remaining[id] = true
		}
	}
	var nonSinks, sinks []uint64
	for _, id := range orderedPluginIDs {
		if !remaining[id] {
			continue
		}
		if isSink[id] {
			sinks = append(sinks, id)
		} else {
			nonSinks = append(nonSinks, id)
		}
	}
	result = append(result, nonSinks...)
	result = append(result, sinks...)
	return result
}
