//go:build linux

package sched

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalPriorityNeedsNoPrivileges(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	require.NoError(t, SetRealtimePriority(0))
	require.NoError(t, SetRealtimePriority(-5))
}
