package boostutils

// Kind identifies one bit of a boost domain's state register
type Kind uint8

const (
	// KindScreenOff is the display gate. While it is set only wake boosts are accepted
	KindScreenOff Kind = iota
	// KindInput is the primary input boost, kicked by touch and key activity
	KindInput
	// KindFlex is the secondary input boost
	KindFlex
	// KindMax forces the domain to its boost ceiling for an explicit duration
	KindMax
	// KindWake forces the domain to its boost ceiling while the display is waking up.
	// It shares its deadline with KindMax.
	KindWake

	KindCount
)

var kindNames = [KindCount]string{
	KindScreenOff: "ScreenOff",
	KindInput:     "Input",
	KindFlex:      "Flex",
	KindMax:       "Max",
	KindWake:      "Wake",
}

func (k Kind) String() string {
	if k >= KindCount {
		return "Unknown"
	}
	return kindNames[k]
}

// Bit returns the State containing only this kind
func (k Kind) Bit() State {
	return State(1) << k
}

// IsValid reports whether the kind is one of the declared kinds
func (k Kind) IsValid() bool {
	return k < KindCount
}

// BoostKinds is every kind that represents an actual boost, i.e. everything but the screen gate
const BoostKinds = State(1)<<KindInput | State(1)<<KindFlex | State(1)<<KindMax | State(1)<<KindWake
