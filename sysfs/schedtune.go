package sysfs

import (
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/freqkit/freqkit/boost"
	"golang.org/x/exp/slog"
)

// DefaultSchedtuneRoot is where the schedtune cgroup hierarchy is normally mounted
const DefaultSchedtuneRoot = "/dev/stune"

type schedtuneGroup struct {
	boost *attribute
	base  int64
	held  map[boost.StuneSlot]int
}

// effective is the boost written to the group: the strongest held boost, or the group's own
// value when nothing stronger is held
func (g *schedtuneGroup) effective() int64 {
	level := g.base
	for _, held := range g.held {
		if int64(held) > level {
			level = int64(held)
		}
	}
	return level
}

// SchedtuneBooster raises schedtune.boost of a cgroup while boosts are held. Overlapping boosts
// stack by taking the strongest, and the group's original value comes back once every slot has
// been reverted.
type SchedtuneBooster struct {
	logger *slog.Logger
	root   string

	mutex    sync.Mutex
	groups   map[string]*schedtuneGroup
	nextSlot boost.StuneSlot
}

var _ boost.StuneBooster = &SchedtuneBooster{}

// NewSchedtuneBooster returns a booster for the schedtune hierarchy mounted at root
func NewSchedtuneBooster(logger *slog.Logger, root string) *SchedtuneBooster {
	return &SchedtuneBooster{
		logger: logger,
		root:   root,
		groups: make(map[string]*schedtuneGroup),
	}
}

func (b *SchedtuneBooster) group(tag string) (*schedtuneGroup, error) {
	group, ok := b.groups[tag]
	if ok {
		return group, nil
	}

	path := filepath.Join(b.root, tag, "schedtune.boost")
	base, err := readInt(path)
	if err != nil {
		return nil, err
	}

	group = &schedtuneGroup{
		boost: newAttribute(path),
		base:  base,
		held:  make(map[boost.StuneSlot]int),
	}
	b.groups[tag] = group
	return group, nil
}

func (b *SchedtuneBooster) Apply(tag string, level int) (boost.StuneSlot, error) {
	b.logger.Debug("SchedtuneBooster::Apply", slog.String("Tag", tag), slog.Int("Level", level))

	b.mutex.Lock()
	defer b.mutex.Unlock()

	group, err := b.group(tag)
	if err != nil {
		return 0, err
	}

	b.nextSlot++
	slot := b.nextSlot
	group.held[slot] = level

	if err := group.boost.write(group.effective()); err != nil {
		delete(group.held, slot)
		return 0, err
	}
	return slot, nil
}

func (b *SchedtuneBooster) Revert(tag string, slot boost.StuneSlot) error {
	b.logger.Debug("SchedtuneBooster::Revert", slog.String("Tag", tag), slog.Int("Slot", int(slot)))

	b.mutex.Lock()
	defer b.mutex.Unlock()

	group, ok := b.groups[tag]
	if !ok {
		return errors.Newf("schedtune group %s has no held boosts", tag)
	}
	if _, held := group.held[slot]; !held {
		return errors.Newf("schedtune group %s does not hold slot %d", tag, slot)
	}

	delete(group.held, slot)
	return group.boost.write(group.effective())
}
