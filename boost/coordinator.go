package boost

import (
	"context"
	"runtime"

	"github.com/freqkit/freqkit/boost/internal/sched"
	"github.com/freqkit/freqkit/boostutils"
	"golang.org/x/exp/slog"
)

// observation is everything a policy depends on. The coordinator only applies a policy when the
// observation differs from the last one it acted upon.
type observation struct {
	state  boostutils.State
	config *Config
	sink   *boundSink
}

// run is the coordinator loop of a domain. It sleeps until signalled, then reconciles the sink
// with the domain's current state.
func (d *Domain) run(ctx context.Context) error {
	var last observation
	priority := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.wake:
		}

		cfg := d.driver.config.Load()
		if cfg.ThreadPriority != priority {
			priority = d.setPriority(priority, cfg.ThreadPriority)
		}

		current := observation{
			state:  d.state.Load(),
			config: cfg,
			sink:   d.sink.Load(),
		}
		if current == last {
			continue
		}
		last = current

		if current.sink == nil {
			continue
		}

		d.apply(ctx, current)
	}
}

func (d *Domain) apply(ctx context.Context, obs observation) {
	policy := d.computePolicy(obs.state, obs.config)

	err := obs.sink.sink.Apply(ctx, policy)
	d.applications.Add(1)
	if err != nil {
		d.applyFailures.Add(1)
		d.logger.Error("failed to apply boost policy",
			slog.Any("Error", err),
			slog.String("State", obs.state.String()),
			slog.Int("Floor", int(policy.Floor)))
	} else {
		d.lastPolicy.Store(&policy)
		boostutils.DebugValidate(d)
	}

	d.driver.callbacks.Apply(d.info.ID, policy, err)
}

// setPriority returns the requested priority even on failure so that a rejected priority is
// only retried after the configuration changes
func (d *Domain) setPriority(current, requested int) int {
	if current == 0 {
		// Scheduling attributes are per thread, so the coordinator keeps its thread from here on
		runtime.LockOSThread()
	}

	err := sched.SetRealtimePriority(requested)
	if err != nil {
		d.logger.Warn("failed to change coordinator priority",
			slog.Any("Error", err),
			slog.Int("Priority", requested))
	}

	return requested
}
