package boost

import (
	"time"

	"golang.org/x/exp/slog"
)

type stuneKind uint8

const (
	stuneInput stuneKind = iota
	stuneMax
	stuneFlex

	stuneKindCount
)

var stuneKindNames = [stuneKindCount]string{
	stuneInput: "Input",
	stuneMax:   "Max",
	stuneFlex:  "Flex",
}

func (k stuneKind) String() string {
	if k >= stuneKindCount {
		return "Unknown"
	}
	return stuneKindNames[k]
}

// stuneBoosts drives the scheduler-tuning side channel. Each kind owns a debounce timer; the
// boost is applied at most once per kind while it is held and reverted on expiry. The applied flag
// and slot of each kind are guarded by that kind's timer mutex.
type stuneBoosts struct {
	logger  *slog.Logger
	booster StuneBooster
	tag     string

	timers  [stuneKindCount]debounceTimer
	applied [stuneKindCount]bool
	slots   [stuneKindCount]StuneSlot
}

func newStuneBoosts(logger *slog.Logger, booster StuneBooster, tag string) *stuneBoosts {
	s := &stuneBoosts{
		logger:  logger,
		booster: booster,
		tag:     tag,
	}

	for kind := stuneKind(0); kind < stuneKindCount; kind++ {
		kind := kind
		s.timers[kind].Init(func() func() {
			s.revert(kind)
			return nil
		})
	}

	return s
}

func stuneLevel(cfg *Config, kind stuneKind) int {
	switch kind {
	case stuneInput:
		return cfg.Stune.Base + cfg.Stune.InputOffset
	case stuneMax:
		return cfg.Stune.Base + cfg.Stune.MaxOffset
	}
	return cfg.Stune.Base + cfg.Stune.FlexOffset
}

// kick holds the stune boost of kind for duration. A level of zero or below only arms the timer.
func (s *stuneBoosts) kick(kind stuneKind, level int, duration time.Duration) {
	if s == nil || duration <= 0 {
		return
	}

	s.timers[kind].Kick(duration, func() bool {
		if level <= 0 || s.applied[kind] {
			return true
		}

		slot, err := s.booster.Apply(s.tag, level)
		if err != nil {
			s.logger.Error("failed to apply stune boost",
				slog.Any("Error", err),
				slog.String("Kind", kind.String()),
				slog.Int("Level", level))
			return true
		}

		s.applied[kind] = true
		s.slots[kind] = slot
		return true
	})
}

// revert runs under the timer mutex of kind
func (s *stuneBoosts) revert(kind stuneKind) {
	if !s.applied[kind] {
		return
	}

	s.applied[kind] = false
	err := s.booster.Revert(s.tag, s.slots[kind])
	if err != nil {
		s.logger.Error("failed to revert stune boost",
			slog.Any("Error", err),
			slog.String("Kind", kind.String()),
			slog.Int("Slot", int(s.slots[kind])))
	}
}

// held reports whether the stune boost of kind is applied
func (s *stuneBoosts) held(kind stuneKind) bool {
	if s == nil {
		return false
	}

	s.timers[kind].mutex.Lock()
	defer s.timers[kind].mutex.Unlock()
	return s.applied[kind]
}

// stop reverts every applied boost and disarms the timers
func (s *stuneBoosts) stop() {
	if s == nil {
		return
	}

	for kind := stuneKind(0); kind < stuneKindCount; kind++ {
		s.timers[kind].Stop()

		s.timers[kind].mutex.Lock()
		s.revert(kind)
		s.timers[kind].mutex.Unlock()
	}
}
