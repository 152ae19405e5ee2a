// Package input turns evdev activity into boost kicks
package input

import (
	"github.com/cockroachdb/errors"
	evdev "github.com/gvalkov/golang-evdev"
	"golang.org/x/exp/slog"
	"gopkg.in/tomb.v2"
)

// DefaultDeviceGlob matches every evdev node
const DefaultDeviceGlob = "/dev/input/event*"

// Pulser receives one pulse per batch of input events. *boost.Driver implements it.
type Pulser interface {
	InputEvent()
}

type reader interface {
	Read() ([]evdev.InputEvent, error)
}

// SourceOptions contains the settings used to create a Source
type SourceOptions struct {
	// DeviceGlob selects the evdev nodes to inspect. Defaults to DefaultDeviceGlob.
	DeviceGlob string
}

// Source reads every touchscreen, touchpad and keypad on the system and pulses a Pulser whenever
// one of them reports activity
type Source struct {
	logger  *slog.Logger
	pulser  Pulser
	devices []*evdev.InputDevice

	tomb tomb.Tomb
}

// NewSource opens the matching devices and starts reading them. Devices that are not activity
// sources are closed again. Call Stop to release the rest.
func NewSource(logger *slog.Logger, pulser Pulser, options SourceOptions) (*Source, error) {
	if pulser == nil {
		return nil, errors.New("pulser must not be nil")
	}

	glob := options.DeviceGlob
	if glob == "" {
		glob = DefaultDeviceGlob
	}

	candidates, err := evdev.ListInputDevices(glob)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list input devices matching %s", glob)
	}

	source := &Source{
		logger: logger,
		pulser: pulser,
	}

	for _, dev := range candidates {
		kind := Classify(Capabilities(dev.Capabilities))
		if kind == DeviceNone {
			dev.File.Close()
			continue
		}

		logger.Info("watching input device",
			slog.String("Path", dev.Fn),
			slog.String("Name", dev.Name),
			slog.String("Kind", kind.String()))
		source.devices = append(source.devices, dev)
	}

	source.start()
	return source, nil
}

func (s *Source) start() {
	s.tomb.Go(func() error {
		for _, dev := range s.devices {
			dev := dev
			s.tomb.Go(func() error {
				return s.pump(dev.Fn, dev)
			})
		}

		<-s.tomb.Dying()
		for _, dev := range s.devices {
			dev.File.Close()
		}
		return nil
	})
}

// pump reads r until it fails. A device that goes away only ends its own reader.
func (s *Source) pump(name string, r reader) error {
	for {
		events, err := r.Read()
		if err != nil {
			select {
			case <-s.tomb.Dying():
			default:
				s.logger.Warn("stopped reading input device", slog.String("Path", name), slog.Any("Error", err))
			}
			return nil
		}

		for i := range events {
			if events[i].Type != evdev.EV_SYN {
				s.pulser.InputEvent()
				break
			}
		}
	}
}

// Devices returns the paths of the devices being read
func (s *Source) Devices() []string {
	paths := make([]string, 0, len(s.devices))
	for _, dev := range s.devices {
		paths = append(paths, dev.Fn)
	}
	return paths
}

// Stop closes every device and waits for the readers to exit
func (s *Source) Stop() error {
	s.tomb.Kill(nil)
	return s.tomb.Wait()
}
