//go:build !linux

package sched

import "github.com/cockroachdb/errors"

const MaxPriority = 99

// SetRealtimePriority is only supported on linux
func SetRealtimePriority(priority int) error {
	if priority <= 0 {
		return nil
	}
	return errors.New("real-time scheduling priorities are only supported on linux")
}
