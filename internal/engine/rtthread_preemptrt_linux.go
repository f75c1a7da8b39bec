//go:build linux

package engine

import (
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/rtsyn/rtsyn/internal/obs"
)

// preemptRTPriority is the SCHED_FIFO priority requested at thread entry
// (§4.4 "Preempt-RT": "sets SCHED_FIFO priority 99").
const preemptRTPriority = 99

func newPreemptRTBackend() RTThreadBackend { return &preemptRTBackend{} }

// preemptRTBackend pins the calling goroutine to its OS thread and
// requests SCHED_FIFO, falling back to standard priority (never a fatal
// error) when the kernel denies elevation. The degradation is recorded only
// in the obs.RTPriorityDegraded gauge; the backend does not log it.
type preemptRTBackend struct {
	degraded bool
	next     unix.Timespec
}

func (b *preemptRTBackend) Prepare() error {
	runtime.LockOSThread()
	err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, &unix.SchedParam{Priority: preemptRTPriority})
	if err != nil {
		b.degraded = true
		obs.RTPriorityDegraded.Set(1)
	}
	return nil
}

func (b *preemptRTBackend) InitSleep(time.Duration) error {
	var now unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &now); err != nil {
		return err
	}
	b.next = now
	return nil
}

func (b *preemptRTBackend) Sleep(deadline time.Time) error {
	if b.degraded {
		remaining := time.Until(deadline)
		if remaining > 0 {
			time.Sleep(remaining)
		}
		return nil
	}
	var now unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &now); err != nil {
		return err
	}
	sec, nsec := deadlineToMonotonic(now, deadline)
	target := unix.Timespec{Sec: sec, Nsec: nsec}
	for {
		err := unix.ClockNanosleep(unix.CLOCK_MONOTONIC, unix.TIMER_ABSTIME, &target, nil)
		if err == unix.EINTR {
			continue
		}
		b.next = target
		return nil
	}
}

// deadlineToMonotonic converts a wall-clock deadline into a CLOCK_MONOTONIC
// timespec by advancing now, a monotonic reading taken just before, by the
// time remaining until deadline.
func deadlineToMonotonic(now unix.Timespec, deadline time.Time) (int64, int64) {
	delta := time.Until(deadline)
	total := time.Duration(now.Sec)*time.Second + time.Duration(now.Nsec) + delta
	sec := int64(total / time.Second)
	nsec := int64(total % time.Second)
	return sec, nsec
}
