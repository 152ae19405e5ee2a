package boostutils

import "github.com/cockroachdb/errors"

// Limits are the hardware frequency bounds of a boost domain, in kHz
type Limits struct {
	Min uint32
	Max uint32
}

func (l Limits) Validate() error {
	if l.Max == 0 {
		return errors.New("hardware maximum frequency must be positive")
	}
	return CheckRange(l.Min, 0, l.Max, "hardware minimum frequency")
}

// Frequencies are the configured boost targets of a boost domain, in kHz
type Frequencies struct {
	// Input is the floor applied while an input boost is active
	Input uint32
	// Flex is the floor applied while only a flex boost is active
	Flex uint32
	// Max is the boost ceiling applied for max and wake boosts
	Max uint32
	// Idle is the floor applied while nothing is boosted
	Idle uint32
}

// PolicyReason records which precedence rule produced a Policy
type PolicyReason uint8

const (
	ReasonIdle PolicyReason = iota
	ReasonScreenOffWake
	ReasonScreenOff
	ReasonMax
	ReasonInput
	ReasonFlex
)

var policyReasonNames = map[PolicyReason]string{
	ReasonIdle:          "Idle",
	ReasonScreenOffWake: "ScreenOffWake",
	ReasonScreenOff:     "ScreenOff",
	ReasonMax:           "Max",
	ReasonInput:         "Input",
	ReasonFlex:          "Flex",
}

func (r PolicyReason) String() string {
	name, ok := policyReasonNames[r]
	if !ok {
		return "Unknown"
	}
	return name
}

// Policy is what a coordinator hands to a policy sink
type Policy struct {
	// Floor is the minimum frequency in kHz, always within the hardware limits
	Floor uint32
	// MaxBoost requests the device's maximum performance state
	MaxBoost bool
	// Level is the GPU power level override, or -1 when the domain has no level table
	Level int
	// Reason is the precedence rule that selected this policy
	Reason PolicyReason
}

// ComputePolicy maps a state register snapshot onto a policy. It is pure: the result only
// depends on its arguments. Precedence, highest first:
//
//  1. screen off with a wake boost: boost ceiling
//  2. screen off: hardware minimum
//  3. max or wake boost: boost ceiling
//  4. input boost, then flex boost: the respective boost frequency
//  5. otherwise the idle floor
func ComputePolicy(state State, freqs Frequencies, limits Limits) Policy {
	ceiling := Policy{
		Floor:    Clamp(freqs.Max, limits.Min, limits.Max),
		MaxBoost: true,
		Level:    -1,
	}

	switch {
	case state.Has(KindScreenOff) && state.Has(KindWake):
		ceiling.Reason = ReasonScreenOffWake
		return ceiling
	case state.Has(KindScreenOff):
		return Policy{Floor: limits.Min, Level: -1, Reason: ReasonScreenOff}
	case state.Has(KindMax) || state.Has(KindWake):
		ceiling.Reason = ReasonMax
		return ceiling
	case state.Has(KindInput):
		return Policy{Floor: Clamp(freqs.Input, limits.Min, limits.Max), Level: -1, Reason: ReasonInput}
	case state.Has(KindFlex):
		return Policy{Floor: Clamp(freqs.Flex, limits.Min, limits.Max), Level: -1, Reason: ReasonFlex}
	}

	return Policy{Floor: Clamp(freqs.Idle, limits.Min, limits.Max), Level: -1, Reason: ReasonIdle}
}
