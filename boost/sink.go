package boost

import (
	"context"

	"github.com/freqkit/freqkit/boostutils"
)

// PolicySink applies a computed policy to the hardware a domain controls. Apply must be safe to call
// repeatedly with the same policy. Failures are logged and counted by the coordinator; the next state
// transition corrects a missed application.
type PolicySink interface {
	Apply(ctx context.Context, policy boostutils.Policy) error
}

// PolicySinkFunc adapts a function to the PolicySink interface
type PolicySinkFunc func(ctx context.Context, policy boostutils.Policy) error

func (f PolicySinkFunc) Apply(ctx context.Context, policy boostutils.Policy) error {
	return f(ctx, policy)
}

// StuneSlot correlates an applied scheduler-tuning boost with the call that reverts it
type StuneSlot int

// StuneBooster is the scheduler-tuning side channel. Apply raises the boost of the schedtune group
// identified by tag and returns the slot that Revert needs to undo it.
type StuneBooster interface {
	Apply(tag string, level int) (StuneSlot, error)
	Revert(tag string, slot StuneSlot) error
}

type boundSink struct {
	sink PolicySink
}
