package boost

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/freqkit/freqkit/boostutils"
)

// Tier is the hardware class of a CPU cluster
type Tier uint8

const (
	TierLowPower Tier = iota
	TierPerformance
	TierPrime

	TierCount
)

var tierNames = [TierCount]string{
	TierLowPower:    "LowPower",
	TierPerformance: "Performance",
	TierPrime:       "Prime",
}

func (t Tier) String() string {
	if t >= TierCount {
		return "Unknown"
	}
	return tierNames[t]
}

// GPULevel maps a GPU frequency onto the power level that selects it
type GPULevel struct {
	Frequency uint32
	Level     int
}

// GPUConfig holds the boost targets of the GPU domain
type GPUConfig struct {
	// BoostFrequency is the floor applied while an input boost is active
	BoostFrequency uint32
	// MinFrequency is the floor applied once the boost expires
	MinFrequency uint32
	// Levels is the frequency to power level table used to translate floors into level overrides
	Levels []GPULevel
}

// LevelFor returns the power level of the highest table frequency that does not exceed freq,
// or -1 if the table has no such entry
func (c *GPUConfig) LevelFor(freq uint32) int {
	level := -1
	best := uint32(0)
	for _, entry := range c.Levels {
		if entry.Frequency <= freq && (level < 0 || entry.Frequency >= best) {
			best = entry.Frequency
			level = entry.Level
		}
	}
	return level
}

// DevfreqConfig holds the boost target of a single device-frequency domain
type DevfreqConfig struct {
	BoostFrequency uint32
}

// StuneConfig holds the scheduler-tuning side channel settings. A computed level of zero or below
// disables the corresponding boost.
type StuneConfig struct {
	Base        int
	InputOffset int
	MaxOffset   int
	FlexOffset  int

	// InputExtension is added to the input boost duration for the input stune boost
	InputExtension time.Duration
	// MaxExtension is added to cluster and wake boost durations for the max stune boost
	MaxExtension time.Duration
}

// Config is the runtime configuration of a Driver. It can be replaced at any time with
// Driver.SetConfig; coordinators pick up the new values on their next wake.
type Config struct {
	InputBoostDuration time.Duration
	FlexBoostDuration  time.Duration
	WakeBoostDuration  time.Duration
	// GPUBoostExtension is added to the input boost duration for the GPU domain
	GPUBoostExtension time.Duration

	// ThreadPriority is the SCHED_FIFO priority of the coordinator threads. Zero leaves them at normal
	// priority; 99 or above selects the maximum real-time priority.
	ThreadPriority int

	// RestrictSecondaryBoost turns cluster-2 kicks into no-ops
	RestrictSecondaryBoost bool
	// BoostPrimeCluster includes the prime tier in cluster-2 kicks
	BoostPrimeCluster bool

	CPU     [TierCount]boostutils.Frequencies
	GPU     GPUConfig
	Devfreq map[DomainID]DevfreqConfig
	Stune   StuneConfig
}

// DefaultConfig returns the configuration used when none is provided
func DefaultConfig() Config {
	return Config{
		InputBoostDuration: 100 * time.Millisecond,
		FlexBoostDuration:  1000 * time.Millisecond,
		WakeBoostDuration:  500 * time.Millisecond,
		GPUBoostExtension:  0,

		BoostPrimeCluster: true,

		CPU: [TierCount]boostutils.Frequencies{
			TierLowPower: {
				Input: 1036800,
				Flex:  1036800,
				Max:   1785600,
				Idle:  300000,
			},
			TierPerformance: {
				Input: 1056000,
				Flex:  1056000,
				Max:   2419200,
				Idle:  710400,
			},
			TierPrime: {
				Input: 1056000,
				Flex:  1056000,
				Max:   2841600,
				Idle:  825600,
			},
		},
		GPU: GPUConfig{
			BoostFrequency: 427000,
			MinFrequency:   257000,
			Levels: []GPULevel{
				{Frequency: 427000, Level: 5},
				{Frequency: 345000, Level: 6},
				{Frequency: 257000, Level: 7},
			},
		},
		Devfreq: map[DomainID]DevfreqConfig{},
		Stune: StuneConfig{
			Base:        20,
			InputOffset: 0,
			MaxOffset:   10,
			FlexOffset:  0,
		},
	}
}

func (c *Config) Validate() error {
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"InputBoostDuration", c.InputBoostDuration},
		{"FlexBoostDuration", c.FlexBoostDuration},
		{"WakeBoostDuration", c.WakeBoostDuration},
		{"GPUBoostExtension", c.GPUBoostExtension},
		{"Stune.InputExtension", c.Stune.InputExtension},
		{"Stune.MaxExtension", c.Stune.MaxExtension},
	}
	for _, duration := range durations {
		if duration.value < 0 {
			return errors.Newf("%s must not be negative, got %s", duration.name, duration.value)
		}
	}

	if c.ThreadPriority < 0 {
		return errors.Newf("ThreadPriority must not be negative, got %d", c.ThreadPriority)
	}

	seen := make(map[uint32]struct{}, len(c.GPU.Levels))
	for _, entry := range c.GPU.Levels {
		if _, duplicate := seen[entry.Frequency]; duplicate {
			return errors.Newf("GPU level table lists frequency %d more than once", entry.Frequency)
		}
		seen[entry.Frequency] = struct{}{}
	}

	return nil
}

// Clone returns a deep copy of the configuration
func (c *Config) Clone() Config {
	clone := *c

	clone.GPU.Levels = append([]GPULevel(nil), c.GPU.Levels...)
	sort.Slice(clone.GPU.Levels, func(i, j int) bool {
		return clone.GPU.Levels[i].Frequency < clone.GPU.Levels[j].Frequency
	})

	clone.Devfreq = make(map[DomainID]DevfreqConfig, len(c.Devfreq))
	for id, devfreq := range c.Devfreq {
		clone.Devfreq[id] = devfreq
	}

	return clone
}
