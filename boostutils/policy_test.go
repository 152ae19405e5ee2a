package boostutils_test

import (
	"sync"
	"testing"

	"github.com/freqkit/freqkit/boostutils"
	"github.com/stretchr/testify/require"
)

var testLimits = boostutils.Limits{Min: 300000, Max: 1800000}

var testFrequencies = boostutils.Frequencies{
	Input: 1000000,
	Flex:  800000,
	Max:   2400000,
	Idle:  400000,
}

func TestComputePolicyExhaustive(t *testing.T) {
	allStates := boostutils.State(1) << boostutils.KindCount

	for state := boostutils.State(0); state < allStates; state++ {
		first := boostutils.ComputePolicy(state, testFrequencies, testLimits)
		second := boostutils.ComputePolicy(state, testFrequencies, testLimits)
		require.Equal(t, first, second, "state %s", state)

		require.GreaterOrEqual(t, first.Floor, testLimits.Min, "state %s", state)
		require.LessOrEqual(t, first.Floor, testLimits.Max, "state %s", state)
		require.Equal(t, -1, first.Level)

		screenOff := state.Has(boostutils.KindScreenOff)
		wake := state.Has(boostutils.KindWake)

		switch {
		case screenOff && wake:
			require.Equal(t, boostutils.ReasonScreenOffWake, first.Reason, "state %s", state)
			require.True(t, first.MaxBoost)
			require.Equal(t, testLimits.Max, first.Floor)
		case screenOff:
			require.Equal(t, boostutils.ReasonScreenOff, first.Reason, "state %s", state)
			require.False(t, first.MaxBoost)
			require.Equal(t, testLimits.Min, first.Floor)
		case state.Has(boostutils.KindMax) || wake:
			require.Equal(t, boostutils.ReasonMax, first.Reason, "state %s", state)
			require.True(t, first.MaxBoost)
			require.Equal(t, testLimits.Max, first.Floor)
		case state.Has(boostutils.KindInput):
			require.Equal(t, boostutils.ReasonInput, first.Reason, "state %s", state)
			require.False(t, first.MaxBoost)
			require.Equal(t, testFrequencies.Input, first.Floor)
		case state.Has(boostutils.KindFlex):
			require.Equal(t, boostutils.ReasonFlex, first.Reason, "state %s", state)
			require.False(t, first.MaxBoost)
			require.Equal(t, testFrequencies.Flex, first.Floor)
		default:
			require.Equal(t, boostutils.ReasonIdle, first.Reason, "state %s", state)
			require.False(t, first.MaxBoost)
			require.Equal(t, testFrequencies.Idle, first.Floor)
		}
	}
}

func TestComputePolicyClampsToHardware(t *testing.T) {
	freqs := boostutils.Frequencies{
		Input: 5000000,
		Flex:  100,
		Max:   100,
		Idle:  0,
	}

	policy := boostutils.ComputePolicy(boostutils.StateOf(boostutils.KindInput), freqs, testLimits)
	require.Equal(t, testLimits.Max, policy.Floor)

	policy = boostutils.ComputePolicy(boostutils.StateOf(boostutils.KindFlex), freqs, testLimits)
	require.Equal(t, testLimits.Min, policy.Floor)

	policy = boostutils.ComputePolicy(boostutils.StateOf(boostutils.KindMax), freqs, testLimits)
	require.Equal(t, testLimits.Min, policy.Floor)
	require.True(t, policy.MaxBoost)

	policy = boostutils.ComputePolicy(0, freqs, testLimits)
	require.Equal(t, testLimits.Min, policy.Floor)
}

func TestStateSetGate(t *testing.T) {
	var set boostutils.StateSet

	allowed, changed := set.SetGated(boostutils.KindWake, boostutils.KindScreenOff.Bit(), 0)
	require.False(t, allowed)
	require.False(t, changed)

	require.True(t, set.Set(boostutils.KindScreenOff))
	require.False(t, set.Set(boostutils.KindScreenOff))

	allowed, changed = set.SetGated(boostutils.KindInput, 0, boostutils.KindScreenOff.Bit())
	require.False(t, allowed)
	require.False(t, changed)

	allowed, changed = set.SetGated(boostutils.KindWake, boostutils.KindScreenOff.Bit(), 0)
	require.True(t, allowed)
	require.True(t, changed)

	allowed, changed = set.SetGated(boostutils.KindWake, boostutils.KindScreenOff.Bit(), 0)
	require.True(t, allowed)
	require.False(t, changed)

	cleared := set.ClearMask(boostutils.StateOf(boostutils.KindMax, boostutils.KindWake))
	require.Equal(t, boostutils.StateOf(boostutils.KindWake), cleared)
	require.Equal(t, boostutils.StateOf(boostutils.KindScreenOff), set.Load())
	require.Equal(t, "ScreenOff", set.Load().String())
}

func TestStateSetConcurrentProducers(t *testing.T) {
	var set boostutils.StateSet
	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		kind := boostutils.Kind(1 + i%4)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				set.Set(kind)
				set.Set(boostutils.KindScreenOff)
				set.Clear(boostutils.KindScreenOff)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, boostutils.BoostKinds, set.Load())
}

func TestFlagStringMapping(t *testing.T) {
	type testFlags uint32
	mapping := boostutils.NewFlagStringMapping[testFlags]()
	mapping.Register(1, "First")
	mapping.Register(4, "Third")

	require.Equal(t, "None", mapping.FlagsToString(0))
	require.Equal(t, "First|Third", mapping.FlagsToString(5))
	require.Equal(t, "First|Unknown", mapping.FlagsToString(3))
}
