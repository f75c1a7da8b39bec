package engine

import "time"

// RTThreadBackend is the run-time-selected discipline the RT thread
// uses to keep tick jitter bounded (§4.4 "RT thread discipline"). All
// three backends share this interface; prepare/init_sleep/sleep map
// directly onto the spec's naming.
type RTThreadBackend interface {
	// Prepare requests whatever scheduling privilege the backend needs.
	// A failure here is not necessarily fatal — PreemptRT degrades
	// gracefully rather than erroring.
	Prepare() error

	// InitSleep primes the backend's notion of "now" immediately before
	// the first tick, establishing the first absolute deadline.
	InitSleep(period time.Duration) error

	// Sleep blocks until the given absolute deadline.
	Sleep(deadline time.Time) error
}

// BackendKind selects one of the three backends at run time, through
// NewBackend. Build constraints decide only how BackendPreemptRT is
// implemented: SCHED_FIFO on Linux, the plain backend elsewhere.
type BackendKind string

const (
	BackendPreemptRT BackendKind = "preempt_rt"
	BackendPlain     BackendKind = "plain"
	BackendReserved  BackendKind = "reserved"
)

// NewBackend constructs the requested backend. BackendReserved always
// returns an error from Prepare — it is a placeholder for a future
// Xenomai integration (§4.4).
func NewBackend(kind BackendKind) RTThreadBackend {
	switch kind {
	case BackendPreemptRT:
		return newPreemptRTBackend()
	case BackendReserved:
		return &reservedBackend{}
	default:
		return &plainBackend{}
	}
}

type reservedBackend struct{}

func (r *reservedBackend) Prepare() error {
	return errReservedBackendUnavailable
}
func (r *reservedBackend) InitSleep(time.Duration) error { return errReservedBackendUnavailable }
func (r *reservedBackend) Sleep(time.Time) error         { return errReservedBackendUnavailable }
