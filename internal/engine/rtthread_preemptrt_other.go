//go:build !linux

package engine

// newPreemptRTBackend degrades to the plain backend outside Linux: there
// is no SCHED_FIFO/clock_nanosleep to request, so the degradation is
// unconditional rather than probed at runtime.
func newPreemptRTBackend() RTThreadBackend { return newPlainBackend() }
