package pluginabi

import "math"

// Sanitize replaces non-finite floats with 0.0. Every value read from
// GetOutput passes through this before it enters the connection cache
// (§4.2 "Isolation"), so NaN/±Inf never propagate downstream.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return v
}
