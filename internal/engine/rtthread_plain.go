package engine

import (
	"errors"
	"time"
)

var errReservedBackendUnavailable = errors.New("reserved (Xenomai) RT backend is not available in this build")

// spinWaitThreshold is the final stretch before each deadline that
// plainBackend busy-waits instead of relying on the OS scheduler's sleep
// granularity, trading CPU for reduced jitter (§4.4 "Plain").
const spinWaitThreshold = 500 * time.Microsecond

// plainBackend uses the standard library's timer facilities, augmented
// with a spin-wait over the last spinWaitThreshold before every deadline.
// The spin does not depend on the tick period: long periods spin for the
// same final stretch as short ones.
type plainBackend struct{}

func newPlainBackend() *plainBackend { return &plainBackend{} }

func (p *plainBackend) Prepare() error { return nil }

func (p *plainBackend) InitSleep(time.Duration) error { return nil }

func (p *plainBackend) Sleep(deadline time.Time) error {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return nil
	}
	if remaining > spinWaitThreshold {
		time.Sleep(remaining - spinWaitThreshold)
	}
	for time.Now().Before(deadline) {
		// Busy-wait the last stretch (at most spinWaitThreshold) rather
		// than trust the scheduler to wake the thread on time.
	}
	return nil
}
