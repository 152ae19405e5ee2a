package boost

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebounceTimerRearmExtendsDeadline(t *testing.T) {
	var timer debounceTimer
	fired := make(chan time.Time, 4)
	timer.Init(func() func() {
		fired <- time.Now()
		return nil
	})

	start := time.Now()
	require.True(t, timer.Kick(100*time.Millisecond, nil))

	time.Sleep(60 * time.Millisecond)
	require.True(t, timer.Kick(80*time.Millisecond, nil))

	select {
	case at := <-fired:
		require.GreaterOrEqual(t, at.Sub(start), 140*time.Millisecond)
	case <-time.After(time.Second):
		require.Fail(t, "timer never fired")
	}

	select {
	case <-fired:
		require.Fail(t, "timer fired twice")
	case <-time.After(150 * time.Millisecond):
	}
	require.False(t, timer.Pending())
}

func TestDebounceTimerRejectedApplyDoesNotArm(t *testing.T) {
	var timer debounceTimer
	var expiries atomic.Int32
	timer.Init(func() func() {
		expiries.Add(1)
		return nil
	})

	require.False(t, timer.Kick(10*time.Millisecond, func() bool { return false }))
	require.False(t, timer.Pending())

	time.Sleep(40 * time.Millisecond)
	require.Equal(t, int32(0), expiries.Load())
}

func TestDebounceTimerPostRunsOutsideLock(t *testing.T) {
	var timer debounceTimer
	done := make(chan bool, 1)
	timer.Init(func() func() {
		return func() {
			// Re-arming from the post func would deadlock if the mutex were still held
			done <- timer.Kick(time.Hour, nil)
		}
	})

	require.True(t, timer.Kick(5*time.Millisecond, nil))

	select {
	case armed := <-done:
		require.True(t, armed)
	case <-time.After(time.Second):
		require.Fail(t, "post func never ran")
	}

	require.True(t, timer.Pending())
	require.True(t, timer.Cancel())
	require.False(t, timer.Pending())
}

func TestDebounceTimerStop(t *testing.T) {
	var timer debounceTimer
	var expiries atomic.Int32
	timer.Init(func() func() {
		expiries.Add(1)
		return nil
	})

	require.True(t, timer.Kick(20*time.Millisecond, nil))
	timer.Stop()
	require.False(t, timer.Kick(20*time.Millisecond, nil))

	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(0), expiries.Load())
}

func TestClusterTiers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BoostPrimeCluster = false

	tiers, ok := clusterTiers(ClusterLowPower, &cfg)
	require.True(t, ok)
	require.Equal(t, [TierCount]bool{TierLowPower: true}, tiers)

	tiers, ok = clusterTiers(ClusterPerformance, &cfg)
	require.True(t, ok)
	require.Equal(t, [TierCount]bool{TierPerformance: true}, tiers)

	cfg.BoostPrimeCluster = true
	tiers, ok = clusterTiers(ClusterPerformance, &cfg)
	require.True(t, ok)
	require.Equal(t, [TierCount]bool{TierPerformance: true, TierPrime: true}, tiers)

	cfg.RestrictSecondaryBoost = true
	_, ok = clusterTiers(ClusterPerformance, &cfg)
	require.False(t, ok)

	_, ok = clusterTiers(Cluster(3), &cfg)
	require.False(t, ok)
}

func TestGPULevelFor(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 5, cfg.GPU.LevelFor(427000))
	require.Equal(t, 5, cfg.GPU.LevelFor(587000))
	require.Equal(t, 6, cfg.GPU.LevelFor(400000))
	require.Equal(t, 7, cfg.GPU.LevelFor(257000))
	require.Equal(t, -1, cfg.GPU.LevelFor(100000))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.FlexBoostDuration = -time.Millisecond
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.GPU.Levels = append(cfg.GPU.Levels, GPULevel{Frequency: 427000, Level: 1})
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ThreadPriority = -1
	require.Error(t, cfg.Validate())
}
