package boost

import (
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/freqkit/freqkit/boostutils"
	"golang.org/x/exp/slog"
)

// DomainID names a boost domain, for instance "cpu0", "gpu" or the devfreq device name
type DomainID string

// DomainClass selects how a domain derives its boost frequencies from the Config
type DomainClass uint8

const (
	ClassCPU DomainClass = iota
	ClassGPU
	ClassDevfreq
)

var domainClassNames = map[DomainClass]string{
	ClassCPU:     "CPU",
	ClassGPU:     "GPU",
	ClassDevfreq: "Devfreq",
}

func (c DomainClass) String() string {
	name, ok := domainClassNames[c]
	if !ok {
		return "Unknown"
	}
	return name
}

// DomainInfo describes a boost domain to the Driver
type DomainInfo struct {
	ID    DomainID
	Class DomainClass
	// Tier is the cluster tier of a CPU domain; other classes ignore it
	Tier Tier
	// Limits are the hardware frequency bounds of the domain
	Limits boostutils.Limits
	// Wakeable domains keep their boosts through screen-off and accept wake boosts
	Wakeable bool
}

func (i *DomainInfo) Validate() error {
	if i.ID == "" {
		return errors.New("boost domain ID must not be empty")
	}
	if _, ok := domainClassNames[i.Class]; !ok {
		return errors.Newf("boost domain %s has unknown class %d", i.ID, i.Class)
	}
	if i.Class == ClassCPU && i.Tier >= TierCount {
		return errors.Newf("boost domain %s has unknown tier %d", i.ID, i.Tier)
	}
	if err := i.Limits.Validate(); err != nil {
		return errors.Wrapf(err, "boost domain %s", i.ID)
	}
	return nil
}

type timerSlot uint8

const (
	slotInput timerSlot = iota
	slotFlex
	slotMax

	slotCount
)

// slotKinds lists the kinds each timer slot clears on expiry. Wake shares the max slot.
var slotKinds = [slotCount]boostutils.State{
	slotInput: boostutils.StateOf(boostutils.KindInput),
	slotFlex:  boostutils.StateOf(boostutils.KindFlex),
	slotMax:   boostutils.StateOf(boostutils.KindMax, boostutils.KindWake),
}

func slotFor(kind boostutils.Kind) timerSlot {
	switch kind {
	case boostutils.KindInput:
		return slotInput
	case boostutils.KindFlex:
		return slotFlex
	}
	return slotMax
}

// gateFor returns the bits that must be set and the bits that must be clear for kind to be raised
func gateFor(kind boostutils.Kind) (required, forbidden boostutils.State) {
	if kind == boostutils.KindWake {
		return boostutils.KindScreenOff.Bit(), 0
	}
	return 0, boostutils.KindScreenOff.Bit()
}

// Domain is one independently boosted frequency domain. It owns a state register, one debounce
// timer per boost slot, and the coordinator goroutine that turns state changes into policies.
type Domain struct {
	info   DomainInfo
	driver *Driver
	logger *slog.Logger

	state  boostutils.StateSet
	timers [slotCount]debounceTimer
	sink   atomic.Pointer[boundSink]
	wake   chan struct{}

	lastPolicy atomic.Pointer[boostutils.Policy]

	kicks         atomic.Int64
	unboosts      atomic.Int64
	applications  atomic.Int64
	applyFailures atomic.Int64
}

func newDomain(driver *Driver, info DomainInfo) *Domain {
	d := &Domain{
		info:   info,
		driver: driver,
		logger: driver.logger.With(slog.String("Domain", string(info.ID))),
		wake:   make(chan struct{}, 1),
	}

	for slot := timerSlot(0); slot < slotCount; slot++ {
		mask := slotKinds[slot]
		d.timers[slot].Init(func() func() {
			return d.expire(mask)
		})
	}

	return d
}

// ID returns the identifier the domain was created with
func (d *Domain) ID() DomainID {
	return d.info.ID
}

// Info returns the description the domain was created with
func (d *Domain) Info() DomainInfo {
	return d.info
}

// State returns a snapshot of the domain's state register
func (d *Domain) State() boostutils.State {
	return d.state.Load()
}

// Policy returns the last policy the coordinator handed to the sink, and false if none was applied yet
func (d *Domain) Policy() (boostutils.Policy, bool) {
	policy := d.lastPolicy.Load()
	if policy == nil {
		return boostutils.Policy{}, false
	}
	return *policy, true
}

// Registered reports whether a policy sink is bound to the domain
func (d *Domain) Registered() bool {
	return d.sink.Load() != nil
}

// Unregister unbinds the domain's policy sink. Kicks against the domain are dropped until a new sink
// is registered.
func (d *Domain) Unregister() {
	d.logger.Debug("Domain::Unregister")

	d.sink.Store(nil)
	for slot := range d.timers {
		d.timers[slot].Cancel()
	}
	d.state.ClearMask(boostutils.BoostKinds)
}

// AddStatistics adds this domain's counters to the provided statistics
func (d *Domain) AddStatistics(stats *boostutils.Statistics) {
	stats.Kicks += int(d.kicks.Load())
	stats.Unboosts += int(d.unboosts.Load())
	stats.Applications += int(d.applications.Load())
	stats.ApplyFailures += int(d.applyFailures.Load())
}

// Validate checks the domain's state register and its last applied policy
func (d *Domain) Validate() error {
	state := d.state.Load()
	known := boostutils.KindScreenOff.Bit() | boostutils.BoostKinds
	if state&^known != 0 {
		return errors.Newf("boost domain %s has unknown state bits %#x", d.info.ID, uint32(state&^known))
	}

	if policy, ok := d.Policy(); ok {
		if err := boostutils.CheckRange(policy.Floor, d.info.Limits.Min, d.info.Limits.Max, "policy floor"); err != nil {
			return errors.Wrapf(err, "boost domain %s", d.info.ID)
		}
	}

	return nil
}

func (d *Domain) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// kick raises kind and re-arms its timer slot. Kicks with a non-positive duration, kicks against an
// unregistered domain, and kicks that fail the screen-off gate are dropped. It reports whether the
// kick was accepted.
func (d *Domain) kick(kind boostutils.Kind, duration time.Duration) bool {
	if duration <= 0 {
		return false
	}

	if d.sink.Load() == nil {
		return false
	}

	required, forbidden := gateFor(kind)
	var changed bool
	accepted := d.timers[slotFor(kind)].Kick(duration, func() bool {
		var allowed bool
		allowed, changed = d.state.SetGated(kind, required, forbidden)
		return allowed
	})
	if !accepted {
		return false
	}

	d.kicks.Add(1)
	if changed {
		d.signal()
		d.driver.callbacks.Boost(d.info.ID, kind.Bit())
	}

	return true
}

// expire runs under the slot's timer mutex
func (d *Domain) expire(mask boostutils.State) func() {
	cleared := d.state.ClearMask(mask)
	if cleared == 0 {
		return nil
	}

	d.unboosts.Add(1)
	d.signal()

	return func() {
		d.driver.callbacks.Unboost(d.info.ID, cleared)
	}
}

// blank enters screen-off. Domains that are not wakeable drop their boosts immediately.
func (d *Domain) blank() {
	changed := d.state.Set(boostutils.KindScreenOff)

	var cleared boostutils.State
	if !d.info.Wakeable {
		cleared = d.state.ClearMask(boostutils.BoostKinds)
	}

	if changed || cleared != 0 {
		d.signal()
	}
	if cleared != 0 {
		d.driver.callbacks.Unboost(d.info.ID, cleared)
	}
}

func (d *Domain) unblank() {
	if d.state.Clear(boostutils.KindScreenOff) {
		d.signal()
	}
}

// frequencies returns the boost targets of this domain under cfg
func (d *Domain) frequencies(cfg *Config) boostutils.Frequencies {
	switch d.info.Class {
	case ClassGPU:
		return boostutils.Frequencies{
			Input: cfg.GPU.BoostFrequency,
			Flex:  cfg.GPU.BoostFrequency,
			Max:   d.info.Limits.Max,
			Idle:  cfg.GPU.MinFrequency,
		}
	case ClassDevfreq:
		boostFrequency := cfg.Devfreq[d.info.ID].BoostFrequency
		return boostutils.Frequencies{
			Input: boostFrequency,
			Flex:  boostFrequency,
			Max:   d.info.Limits.Max,
			Idle:  d.info.Limits.Min,
		}
	}

	return cfg.CPU[d.info.Tier]
}

func (d *Domain) inputDuration(cfg *Config) time.Duration {
	if d.info.Class == ClassGPU {
		return cfg.InputBoostDuration + cfg.GPUBoostExtension
	}
	return cfg.InputBoostDuration
}

func (d *Domain) computePolicy(state boostutils.State, cfg *Config) boostutils.Policy {
	policy := boostutils.ComputePolicy(state, d.frequencies(cfg), d.info.Limits)
	if d.info.Class == ClassGPU {
		policy.Level = cfg.GPU.LevelFor(policy.Floor)
	}
	return policy
}

func (d *Domain) stop() {
	for slot := range d.timers {
		d.timers[slot].Stop()
	}
}
