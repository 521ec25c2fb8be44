package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/gwillem/bionichand/pkg/hand"
)

type Options struct {
	Verbose bool   `short:"v" long:"verbose" description:"Show debug output including bus traffic"`
	Config  string `short:"c" long:"config" default:"bionichand.json" description:"Configuration file"`

	Setup   SetupCommand   `command:"setup" description:"Find the hand, calibrate finger centres and pair a ring"`
	Info    InfoCommand    `command:"info" description:"Show the state of every finger servo"`
	Gesture GestureCommand `command:"gesture" description:"Perform a named gesture"`
	Follow  FollowCommand  `command:"follow" description:"Mirror the ring wearer's finger on the hand"`
	Rings   RingsCommand   `command:"rings" description:"List nearby Colmi rings"`
	Zero    ZeroCommand    `command:"zero" description:"Move servos to 0 degrees for mounting the horns"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Bionic hand - control a bus-servo hand and follow a Colmi ring"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// newLogger returns a development logger with --verbose and a quiet
// production logger otherwise.
func newLogger() *zap.Logger {
	if opts.Verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadConfig loads the configuration or exits with a hint to run setup.
func loadConfig() *hand.Config {
	if !hand.ConfigExistsAt(opts.Config) {
		fmt.Fprintf(os.Stderr, "No configuration found at %s. Run 'bionichand setup' first.\n", opts.Config)
		os.Exit(1)
	}

	cfg, err := hand.LoadConfigFrom(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Port == "" {
		fmt.Fprintln(os.Stderr, "Hand not configured. Run 'bionichand setup' first.")
		os.Exit(1)
	}
	return cfg
}
