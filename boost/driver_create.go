package boost

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

const defaultStuneTag = "top-app"

// CreateOptions contains the settings used to create a Driver
type CreateOptions struct {
	// Domains lists every boost domain the driver manages. Each starts without a policy sink and
	// ignores kicks until one is registered with Driver.RegisterDomain.
	Domains []DomainInfo

	// StuneBooster is the optional scheduler-tuning side channel
	StuneBooster StuneBooster
	// StuneTag is the schedtune group boosted through StuneBooster. Defaults to "top-app".
	StuneTag string

	// CallbackOptions is an optional set of callbacks executed as boosts come and go
	CallbackOptions *CallbackOptions
}

// New creates a Driver and starts one coordinator per domain. Call Destroy to stop them.
func New(logger *slog.Logger, config Config, options CreateOptions) (*Driver, error) {
	if logger == nil {
		return nil, errors.New("logger must not be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid boost configuration")
	}

	driver := &Driver{
		logger:      logger,
		domainIndex: make(map[DomainID]*Domain, len(options.Domains)),
	}
	driver.callbacks = driverCallbacks{
		Callbacks: options.CallbackOptions,
		Driver:    driver,
	}

	cfg := config.Clone()
	driver.config.Store(&cfg)

	for i := range options.Domains {
		info := options.Domains[i]
		if err := info.Validate(); err != nil {
			return nil, err
		}
		if _, duplicate := driver.domainIndex[info.ID]; duplicate {
			return nil, errors.Newf("boost domain %s is listed more than once", info.ID)
		}

		domain := newDomain(driver, info)
		driver.domains = append(driver.domains, domain)
		driver.domainIndex[info.ID] = domain
	}

	if options.StuneBooster != nil {
		tag := options.StuneTag
		if tag == "" {
			tag = defaultStuneTag
		}
		driver.stune = newStuneBoosts(logger.With(slog.String("Stune", tag)), options.StuneBooster, tag)
	}

	ctx := driver.tomb.Context(nil)
	driver.tomb.Go(func() error {
		for _, domain := range driver.domains {
			domain := domain
			driver.tomb.Go(func() error {
				return domain.run(ctx)
			})
		}

		<-driver.tomb.Dying()
		return nil
	})

	logger.Debug("Driver::New", slog.Int("Domains", len(driver.domains)))
	return driver, nil
}

// Destroy stops every timer and coordinator and reverts any held stune boost. The driver
// must not be used afterward.
func (d *Driver) Destroy() error {
	d.logger.Debug("Driver::Destroy")

	if !d.destroyed.CompareAndSwap(false, true) {
		return errors.New("attempted to destroy a boost driver twice")
	}

	for _, domain := range d.domains {
		domain.stop()
	}
	d.stune.stop()

	d.tomb.Kill(nil)
	return d.tomb.Wait()
}
