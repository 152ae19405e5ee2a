//go:build linux

package sched

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// MaxPriority is the highest SCHED_FIFO priority
const MaxPriority = 99

// SetRealtimePriority moves the calling thread to SCHED_FIFO at the given priority. Priorities above
// MaxPriority are capped; zero or below returns the thread to SCHED_NORMAL.
func SetRealtimePriority(priority int) error {
	attr := unix.SchedAttr{
		Size:   unix.SizeofSchedAttr,
		Policy: unix.SCHED_NORMAL,
	}

	if priority > 0 {
		if priority > MaxPriority {
			priority = MaxPriority
		}
		attr.Policy = unix.SCHED_FIFO
		attr.Priority = uint32(priority)
	}

	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		return errors.Wrapf(err, "sched_setattr policy %d priority %d", attr.Policy, attr.Priority)
	}
	return nil
}
