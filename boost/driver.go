package boost

import (
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/freqkit/freqkit/boostutils"
	"golang.org/x/exp/slog"
	"gopkg.in/tomb.v2"
)

// Cluster is the CPU cluster number used by cluster-targeted kicks
type Cluster int

const (
	// ClusterLowPower targets the low-power tier
	ClusterLowPower Cluster = 1
	// ClusterPerformance targets the performance tier, plus the prime tier when
	// Config.BoostPrimeCluster is set
	ClusterPerformance Cluster = 2
)

// Driver routes input, display and explicit kicks onto its boost domains. All methods are safe
// to call concurrently.
type Driver struct {
	logger *slog.Logger
	config atomic.Pointer[Config]

	domains     []*Domain
	domainIndex map[DomainID]*Domain

	stune     *stuneBoosts
	callbacks driverCallbacks

	tomb      tomb.Tomb
	destroyed atomic.Bool
}

// RegisterDomain binds sink to the domain named id and returns the domain as a handle.
// Registering again replaces the previous sink.
func (d *Driver) RegisterDomain(id DomainID, sink PolicySink) (*Domain, error) {
	d.logger.Debug("Driver::RegisterDomain", slog.String("Domain", string(id)))

	if sink == nil {
		return nil, errors.New("policy sink must not be nil")
	}

	domain, ok := d.domainIndex[id]
	if !ok {
		return nil, errors.Wrapf(boostutils.ErrNotRegistered, "unknown boost domain %s", id)
	}

	domain.sink.Store(&boundSink{sink: sink})
	domain.signal()
	return domain, nil
}

// Domain returns the domain named id
func (d *Driver) Domain(id DomainID) (*Domain, bool) {
	domain, ok := d.domainIndex[id]
	return domain, ok
}

// Domains returns every domain in creation order
func (d *Driver) Domains() []*Domain {
	return append([]*Domain(nil), d.domains...)
}

// Config returns a copy of the active configuration
func (d *Driver) Config() Config {
	return d.config.Load().Clone()
}

// SetConfig validates and installs a new configuration. Every coordinator re-evaluates its policy,
// so frequency changes take effect without waiting for the next kick.
func (d *Driver) SetConfig(config Config) error {
	d.logger.Debug("Driver::SetConfig")

	if err := config.Validate(); err != nil {
		return errors.Wrap(err, "invalid boost configuration")
	}

	cfg := config.Clone()
	d.config.Store(&cfg)

	for _, domain := range d.domains {
		domain.signal()
	}
	return nil
}

// InputEvent records user input. It kicks the primary input boost.
func (d *Driver) InputEvent() {
	d.KickPrimary()
}

// KickPrimary kicks the input boost on every domain. The input stune boost follows when at least
// one domain accepted the kick.
func (d *Driver) KickPrimary() {
	cfg := d.config.Load()

	var accepted bool
	for _, domain := range d.domains {
		if domain.kick(boostutils.KindInput, domain.inputDuration(cfg)) {
			accepted = true
		}
	}
	if !accepted {
		return
	}

	d.stune.kick(stuneInput, stuneLevel(cfg, stuneInput), cfg.InputBoostDuration+cfg.Stune.InputExtension)
}

// KickSecondary kicks the flex boost on every CPU and devfreq domain, and the flex stune boost
// when any of them accepted
func (d *Driver) KickSecondary() {
	cfg := d.config.Load()

	var accepted bool
	for _, domain := range d.domains {
		if domain.info.Class == ClassGPU {
			continue
		}
		if domain.kick(boostutils.KindFlex, cfg.FlexBoostDuration) {
			accepted = true
		}
	}
	if !accepted {
		return
	}

	d.stune.kick(stuneFlex, stuneLevel(cfg, stuneFlex), cfg.FlexBoostDuration)
}

// KickCluster raises the CPU domains of cluster to their boost ceiling for duration
func (d *Driver) KickCluster(cluster Cluster, duration time.Duration) {
	d.logger.Debug("Driver::KickCluster", slog.Int("Cluster", int(cluster)), slog.Duration("Duration", duration))
	d.kickCluster(cluster, boostutils.KindMax, duration)
}

// KickWake raises the CPU domains of cluster to their boost ceiling for duration. It is only
// accepted while the screen is off.
func (d *Driver) KickWake(cluster Cluster, duration time.Duration) {
	d.logger.Debug("Driver::KickWake", slog.Int("Cluster", int(cluster)), slog.Duration("Duration", duration))
	d.kickCluster(cluster, boostutils.KindWake, duration)
}

func (d *Driver) kickCluster(cluster Cluster, kind boostutils.Kind, duration time.Duration) {
	if duration <= 0 {
		return
	}

	cfg := d.config.Load()
	tiers, ok := clusterTiers(cluster, cfg)
	if !ok {
		return
	}

	var accepted bool
	for _, domain := range d.domains {
		if domain.info.Class != ClassCPU || !tiers[domain.info.Tier] {
			continue
		}
		if domain.kick(kind, duration) {
			accepted = true
		}
	}
	if !accepted {
		return
	}

	d.stune.kick(stuneMax, stuneLevel(cfg, stuneMax), duration+cfg.Stune.MaxExtension)
}

// clusterTiers maps a cluster number onto the tiers it boosts. The second result is false when the
// kick must be dropped.
func clusterTiers(cluster Cluster, cfg *Config) ([TierCount]bool, bool) {
	var tiers [TierCount]bool

	switch cluster {
	case ClusterLowPower:
		tiers[TierLowPower] = true
	case ClusterPerformance:
		if cfg.RestrictSecondaryBoost {
			return tiers, false
		}
		tiers[TierPerformance] = true
		tiers[TierPrime] = cfg.BoostPrimeCluster
	default:
		return tiers, false
	}

	return tiers, true
}

// KickDevice raises the devfreq domain named id to its boost ceiling for duration
func (d *Driver) KickDevice(id DomainID, duration time.Duration) {
	d.logger.Debug("Driver::KickDevice", slog.String("Domain", string(id)), slog.Duration("Duration", duration))

	domain, ok := d.domainIndex[id]
	if !ok || domain.info.Class != ClassDevfreq {
		return
	}
	domain.kick(boostutils.KindMax, duration)
}

// DisplayBlank enters screen-off on every domain
func (d *Driver) DisplayBlank() {
	d.logger.Debug("Driver::DisplayBlank")

	for _, domain := range d.domains {
		domain.blank()
	}
}

// DisplayUnblank wakes every wakeable domain to its boost ceiling for the configured wake duration,
// then leaves screen-off. The wake boost is raised first because it is only accepted while the
// screen is still off.
func (d *Driver) DisplayUnblank() {
	d.logger.Debug("Driver::DisplayUnblank")

	cfg := d.config.Load()
	for _, domain := range d.domains {
		if domain.info.Wakeable {
			domain.kick(boostutils.KindWake, cfg.WakeBoostDuration)
		}
	}

	for _, domain := range d.domains {
		domain.unblank()
	}
}
