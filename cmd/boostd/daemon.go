package main

import (
	"github.com/cockroachdb/errors"
	"github.com/freqkit/freqkit/boost"
	"github.com/freqkit/freqkit/display"
	"github.com/freqkit/freqkit/input"
	"github.com/freqkit/freqkit/internal/config"
	"github.com/freqkit/freqkit/sysfs"
	"github.com/godbus/dbus/v5"
	"golang.org/x/exp/slog"
)

// daemon owns the boost driver and everything feeding it
type daemon struct {
	logger *slog.Logger
	driver *boost.Driver

	watcher  *config.Watcher
	source   *input.Source
	notifier *display.Notifier
}

// sinkedDomain pairs a discovered domain with the sink that drives its hardware
type sinkedDomain struct {
	info boost.DomainInfo
	sink boost.PolicySink
}

func discoverDomains(logger *slog.Logger, opts *options) ([]sinkedDomain, error) {
	policies, err := sysfs.DiscoverCPUPolicies(opts.SysfsRoot)
	if err != nil {
		return nil, err
	}

	var domains []sinkedDomain
	for _, policy := range policies {
		logger.Info("found cpufreq policy",
			slog.String("Domain", string(policy.Domain.ID)),
			slog.String("Tier", policy.Domain.Tier.String()),
			slog.Any("Limits", policy.Domain.Limits))

		domains = append(domains, sinkedDomain{
			info: policy.Domain,
			sink: sysfs.NewCPUFreqSink(logger, opts.SysfsRoot, policy.CPU),
		})
	}

	if opts.GPU != "" {
		info, err := sysfs.DiscoverKGSL(opts.SysfsRoot, opts.GPU)
		if err != nil {
			return nil, err
		}
		domains = append(domains, sinkedDomain{
			info: info,
			sink: sysfs.NewKGSLSink(logger, opts.SysfsRoot, opts.GPU),
		})
	}

	for _, device := range opts.Devfreq {
		info, err := sysfs.DiscoverDevfreq(opts.SysfsRoot, device)
		if err != nil {
			return nil, err
		}
		domains = append(domains, sinkedDomain{
			info: info,
			sink: sysfs.NewDevfreqSink(logger, opts.SysfsRoot, device),
		})
	}

	return domains, nil
}

// startDaemon creates the driver and its stimulus sources. Sources that cannot be set up on this
// system are logged and skipped; only a driver failure is fatal.
func startDaemon(logger *slog.Logger, opts *options) (*daemon, error) {
	cfg := boost.DefaultConfig()
	if opts.Config != "" {
		var err error
		cfg, err = config.Load(opts.Config)
		if err != nil {
			return nil, err
		}
	}

	domains, err := discoverDomains(logger, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to discover boost domains")
	}

	createOptions := boost.CreateOptions{StuneTag: opts.StuneTag}
	for _, domain := range domains {
		createOptions.Domains = append(createOptions.Domains, domain.info)
	}
	if !opts.NoStune {
		createOptions.StuneBooster = sysfs.NewSchedtuneBooster(logger, opts.StuneRoot)
	}

	driver, err := boost.New(logger, cfg, createOptions)
	if err != nil {
		return nil, err
	}

	d := &daemon{
		logger: logger,
		driver: driver,
	}

	for _, domain := range domains {
		if _, err := driver.RegisterDomain(domain.info.ID, domain.sink); err != nil {
			return nil, errors.CombineErrors(err, d.stop())
		}
	}

	if opts.Config != "" {
		d.watcher, err = config.Watch(logger, opts.Config, driver)
		if err != nil {
			logger.Warn("configuration will not be reloaded", slog.Any("Error", err))
		}
	}

	if !opts.NoInput {
		d.source, err = input.NewSource(logger, driver, input.SourceOptions{DeviceGlob: opts.InputGlob})
		if err != nil {
			logger.Warn("input boosts are disabled", slog.Any("Error", err))
		}
	}

	if !opts.NoDisplay {
		d.notifier, err = startNotifier(logger, driver)
		if err != nil {
			logger.Warn("screen-off handling is disabled", slog.Any("Error", err))
		}
	}

	return d, nil
}

func startNotifier(logger *slog.Logger, listener display.Listener) (*display.Notifier, error) {
	bus, err := dbus.SessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to the session bus")
	}
	return display.NewNotifier(logger, bus, listener, display.NotifierOptions{})
}

// stop tears the daemon down in the reverse order of startDaemon
func (d *daemon) stop() error {
	var err error

	if d.notifier != nil {
		err = errors.CombineErrors(err, d.notifier.Stop())
	}
	if d.source != nil {
		err = errors.CombineErrors(err, d.source.Stop())
	}
	if d.watcher != nil {
		err = errors.CombineErrors(err, d.watcher.Stop())
	}

	return errors.CombineErrors(err, d.driver.Destroy())
}
