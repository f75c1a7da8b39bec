package builtin

import (
	"fmt"

	"github.com/rtsyn/rtsyn/internal/pluginabi"
)

func extendablePort(idx int) pluginabi.Port {
	return pluginabi.Port(fmt.Sprintf("in_%d", idx))
}

func portIndex(port pluginabi.Port) (int, bool) {
	var idx int
	n, err := fmt.Sscanf(string(port), "in_%d", &idx)
	if err != nil || n != 1 {
		return 0, false
	}
	return idx, true
}
