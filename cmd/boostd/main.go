package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"golang.org/x/exp/slog"
)

var (
	Stderr io.Writer = os.Stderr

	opts   options
	parser *flags.Parser = flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
)

const (
	shortHelp = "Boost CPU, GPU and bus frequencies on user activity"
	longHelp  = `
boostd raises frequency floors for a short while whenever the user touches
the screen or presses a key, and drops them while the screen is off.
Sending SIGUSR1 logs the current boost statistics.
`
)

type options struct {
	Config    string   `short:"c" long:"config" description:"YAML configuration file, reloaded when it changes"`
	SysfsRoot string   `long:"sysfs-root" default:"/sys" description:"Where sysfs is mounted"`
	StuneRoot string   `long:"stune-root" default:"/dev/stune" description:"Where the schedtune cgroup hierarchy is mounted"`
	StuneTag  string   `long:"stune-tag" default:"top-app" description:"Schedtune group to boost"`
	NoStune   bool     `long:"no-stune" description:"Do not boost schedtune"`
	GPU       string   `long:"gpu" description:"KGSL device to boost, for instance kgsl-3d0"`
	Devfreq   []string `long:"devfreq" description:"Devfreq device to boost, may be repeated"`
	InputGlob string   `long:"input-glob" default:"/dev/input/event*" description:"Input devices to watch"`
	NoInput   bool     `long:"no-input" description:"Do not watch input devices"`
	NoDisplay bool     `long:"no-display" description:"Do not follow the screensaver on the session bus"`
	Verbose   bool     `short:"v" long:"verbose" description:"Log at debug level"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	parser.ShortDescription = shortHelp
	parser.LongDescription = longHelp

	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(Stderr, err)
			return nil
		}
		return err
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(Stderr, &slog.HandlerOptions{Level: level}))

	d, err := startDaemon(logger, &opts)
	if err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(signals)

	for sig := range signals {
		if sig == syscall.SIGUSR1 {
			logger.Info("boost statistics", slog.String("Stats", d.driver.BuildStatsString()))
			continue
		}

		logger.Info("shutting down", slog.String("Signal", sig.String()))
		break
	}

	return d.stop()
}
