package boostutils

import (
	"strings"
	"sync/atomic"
)

// State is an immutable snapshot of a boost domain's state register
type State uint32

// StateOf builds a State from a list of kinds
func StateOf(kinds ...Kind) State {
	var s State
	for _, kind := range kinds {
		s |= kind.Bit()
	}
	return s
}

func (s State) Has(kind Kind) bool {
	return s&kind.Bit() != 0
}

func (s State) With(kind Kind) State {
	return s | kind.Bit()
}

// Kinds lists the kinds set in this state in declaration order
func (s State) Kinds() []Kind {
	var kinds []Kind
	for kind := Kind(0); kind < KindCount; kind++ {
		if s.Has(kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func (s State) String() string {
	if s == 0 {
		return "None"
	}

	var sb strings.Builder
	for _, kind := range s.Kinds() {
		if sb.Len() > 0 {
			sb.WriteRune('|')
		}
		sb.WriteString(kind.String())
	}
	return sb.String()
}

// StateSet is the concurrently updated state register of a boost domain. Every mutation is
// a compare-and-swap loop so that concurrent producers never lose each other's bits.
type StateSet struct {
	bits atomic.Uint32
}

func (s *StateSet) Load() State {
	return State(s.bits.Load())
}

func (s *StateSet) Has(kind Kind) bool {
	return s.Load().Has(kind)
}

// Set sets kind and reports whether the register changed
func (s *StateSet) Set(kind Kind) bool {
	_, changed := s.update(func(old State) (State, bool) {
		return old.With(kind), true
	})
	return changed
}

// Clear clears kind and reports whether the register changed
func (s *StateSet) Clear(kind Kind) bool {
	return s.ClearMask(kind.Bit()) != 0
}

// ClearMask clears every bit in mask and returns the bits that were actually cleared
func (s *StateSet) ClearMask(mask State) State {
	old, _ := s.update(func(old State) (State, bool) {
		return old &^ mask, true
	})
	return old & mask
}

// SetGated sets kind only if every bit of required is set and no bit of forbidden is set,
// as one atomic step. It reports whether the gate allowed the kind and whether the register
// changed.
func (s *StateSet) SetGated(kind Kind, required, forbidden State) (allowed bool, changed bool) {
	_, changed = s.update(func(old State) (State, bool) {
		allowed = false
		if old&required != required || old&forbidden != 0 {
			return old, false
		}
		allowed = true
		return old.With(kind), true
	})
	return allowed, changed
}

func (s *StateSet) update(mutate func(old State) (State, bool)) (State, bool) {
	for {
		old := s.bits.Load()
		next, ok := mutate(State(old))
		if !ok || uint32(next) == old {
			return State(old), false
		}

		if s.bits.CompareAndSwap(old, uint32(next)) {
			return State(old), true
		}
	}
}
