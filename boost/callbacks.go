package boost

import "github.com/freqkit/freqkit/boostutils"

type BoostCallback func(
	driver *Driver,
	domain DomainID,
	kinds boostutils.State,
	userData interface{},
)

type ApplyCallback func(
	driver *Driver,
	domain DomainID,
	policy boostutils.Policy,
	err error,
	userData interface{},
)

// CallbackOptions is an optional set of callbacks executed as boosts come and go. Boost and Unboost
// fire when a kick or an expiry changes a domain's state register. Apply fires from the domain's
// coordinator after every policy application, successful or not.
type CallbackOptions struct {
	Boost    BoostCallback
	Unboost  BoostCallback
	Apply    ApplyCallback
	UserData interface{}
}

type driverCallbacks struct {
	Callbacks *CallbackOptions
	Driver    *Driver
}

func (c *driverCallbacks) Boost(
	domain DomainID,
	kinds boostutils.State,
) {
	if c.Callbacks != nil && c.Callbacks.Boost != nil {
		c.Callbacks.Boost(c.Driver, domain, kinds, c.Callbacks.UserData)
	}
}

func (c *driverCallbacks) Unboost(
	domain DomainID,
	kinds boostutils.State,
) {
	if c.Callbacks != nil && c.Callbacks.Unboost != nil {
		c.Callbacks.Unboost(c.Driver, domain, kinds, c.Callbacks.UserData)
	}
}

func (c *driverCallbacks) Apply(
	domain DomainID,
	policy boostutils.Policy,
	err error,
) {
	if c.Callbacks != nil && c.Callbacks.Apply != nil {
		c.Callbacks.Apply(c.Driver, domain, policy, err, c.Callbacks.UserData)
	}
}
