// Package display forwards screen power transitions from D-Bus to a boost driver
package display

import (
	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"
	"golang.org/x/exp/slog"
	"gopkg.in/tomb.v2"
)

const (
	// DefaultInterface is the screensaver interface whose ActiveChanged signal reports blanking
	DefaultInterface = "org.freedesktop.ScreenSaver"
	// DefaultMember is the signal carrying the new screensaver state
	DefaultMember = "ActiveChanged"
)

// Listener is told about screen transitions before they happen. *boost.Driver implements it.
type Listener interface {
	DisplayBlank()
	DisplayUnblank()
}

// Bus is the part of *dbus.Conn the notifier uses
type Bus interface {
	AddMatchSignal(options ...dbus.MatchOption) error
	RemoveMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
}

// NotifierOptions contains the settings used to create a Notifier
type NotifierOptions struct {
	// Interface defaults to DefaultInterface
	Interface string
	// Member defaults to DefaultMember
	Member string
}

type screenState uint8

const (
	screenUnknown screenState = iota
	screenOn
	screenOff
)

// Notifier subscribes to a screensaver signal carrying a single boolean and forwards changes of it
// to a Listener: true blanks and false unblanks. Repeated signals with the same value are dropped.
type Notifier struct {
	logger   *slog.Logger
	bus      Bus
	listener Listener
	match    []dbus.MatchOption
	name     string

	signals chan *dbus.Signal
	state   screenState

	tomb tomb.Tomb
}

// NewNotifier subscribes to the screensaver signal on bus and starts forwarding it
func NewNotifier(logger *slog.Logger, bus Bus, listener Listener, options NotifierOptions) (*Notifier, error) {
	if bus == nil || listener == nil {
		return nil, errors.New("bus and listener must not be nil")
	}

	iface := options.Interface
	if iface == "" {
		iface = DefaultInterface
	}
	member := options.Member
	if member == "" {
		member = DefaultMember
	}

	n := &Notifier{
		logger:   logger.With(slog.String("Signal", iface+"."+member)),
		bus:      bus,
		listener: listener,
		match: []dbus.MatchOption{
			dbus.WithMatchInterface(iface),
			dbus.WithMatchMember(member),
		},
		name:    iface + "." + member,
		signals: make(chan *dbus.Signal, 16),
	}

	if err := bus.AddMatchSignal(n.match...); err != nil {
		return nil, errors.Wrapf(err, "failed to subscribe to %s", n.name)
	}
	bus.Signal(n.signals)

	n.tomb.Go(n.loop)
	return n, nil
}

func (n *Notifier) loop() error {
	for {
		select {
		case <-n.tomb.Dying():
			return nil
		case signal, ok := <-n.signals:
			if !ok {
				return nil
			}
			n.handleSignal(signal)
		}
	}
}

func (n *Notifier) handleSignal(signal *dbus.Signal) {
	if signal == nil || signal.Name != n.name {
		return
	}

	var active bool
	if err := dbus.Store(signal.Body, &active); err != nil {
		n.logger.Warn("ignoring malformed signal", slog.Any("Error", err))
		return
	}

	next := screenOn
	if active {
		next = screenOff
	}
	if next == n.state {
		return
	}
	n.state = next

	n.logger.Debug("Notifier::handleSignal", slog.Bool("Active", active))
	if active {
		n.listener.DisplayBlank()
	} else {
		n.listener.DisplayUnblank()
	}
}

// Stop unsubscribes and waits for the forwarding goroutine to exit
func (n *Notifier) Stop() error {
	n.bus.RemoveSignal(n.signals)
	err := n.bus.RemoveMatchSignal(n.match...)

	n.tomb.Kill(nil)
	return errors.CombineErrors(err, n.tomb.Wait())
}
