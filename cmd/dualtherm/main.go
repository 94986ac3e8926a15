// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// dualtherm is a dual thermostat and temperature alarm for two DS1621 on the
// same I²C bus.
//
// Telemetry records are written to stdout, one JSON object per line. Status
// lines go to stderr.
//
// Every flag can also be set with a DUALTHERM_ prefixed environment variable,
// for example DUALTHERM_MIN_TEMP, read from the environment or from a .env
// file in the working directory, or from the file given with --config.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/dualtherm/alarm"
	"github.com/GermanBionicSystems/dualtherm/bandview"
	"github.com/GermanBionicSystems/dualtherm/ds1621"
	"github.com/GermanBionicSystems/dualtherm/internal/logger"
	"github.com/GermanBionicSystems/dualtherm/panel"
	"github.com/GermanBionicSystems/dualtherm/thermostat"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2

	envPrefix = "DUALTHERM"
	bandCells = 40
)

type settings struct {
	cfg    thermostat.RunConfig
	bus    string
	player []string
	band   bool
	oled   bool
	level  zapcore.Level
}

func defaultSound() string {
	exe, err := os.Executable()
	if err != nil {
		return "alarm.mp3"
	}
	return filepath.Join(filepath.Dir(exe), "alarm.mp3")
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	f := pflag.NewFlagSet("dualtherm", pflag.ContinueOnError)
	f.SetOutput(stderr)
	f.Usage = func() {
		fmt.Fprintf(stderr, "usage: dualtherm [flags]\n\nDual thermostat and temperature alarm.\n\n")
		f.PrintDefaults()
	}
	f.Bool("configure", false, "Configure thermostats")
	f.String("start", "", "Activate thermostats for one-shot use or continuous use: oneshot or continuous")
	f.Int("poll", 0, "Read from thermostats periodically, in seconds")
	f.Int("iterations", 0, "Number of times to read thermostats. Defaults to unlimited if --poll is specified, otherwise 1")
	f.Bool("stop", false, "Deactivate continuous operation")
	f.Bool("alarm", false, "Play a sound when the temperature leaves the band")
	f.String("high-temp-sound", defaultSound(), "Audio file for high temperature alarm")
	f.String("low-temp-sound", defaultSound(), "Audio file for low temperature alarm")
	f.String("player", strings.Join(alarm.DefaultCommand, " "), "Command playing the alarm sound, the file is appended")
	f.Float64("min-temp", thermostat.DefaultMinTempF, "Lowest comfortable temperature, in °F")
	f.Float64("max-temp", thermostat.DefaultMaxTempF, "Highest comfortable temperature, in °F")
	f.Float64("hysteresis", thermostat.DefaultHysteresisF, "Thermostat hysteresis, in °F")
	f.String("bus", "", "I²C bus to use")
	f.Bool("band", false, "Show the comfort band on stderr when it is a terminal")
	f.Bool("oled", false, "Show readings on an SSD1306 display on the same bus")
	f.String("log-level", logger.InfoLevel, "Log level: debug, info, warn or error")
	f.String("config", "", "Optional configuration file, any format supported by viper")
	return f
}

func usageError(err error) error {
	var usage *thermostat.UsageError
	if errors.As(err, &usage) {
		return err
	}
	return &thermostat.UsageError{Msg: err.Error()}
}

// parseSettings resolves flags, environment and configuration file into
// settings. No device is accessed.
func parseSettings(args []string, stderr io.Writer) (*settings, error) {
	f := newFlagSet(stderr)
	if len(args) == 0 {
		f.Usage()
		return nil, &thermostat.UsageError{Msg: "no arguments"}
	}
	if err := f.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, usageError(err)
	}
	if f.NArg() != 0 {
		return nil, &thermostat.UsageError{Msg: fmt.Sprintf("unexpected arguments %q", f.Args())}
	}

	v := viper.New()
	if err := v.BindPFlags(f); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, usageError(fmt.Errorf("reading %s: %w", path, err))
		}
	}

	start, err := thermostat.ParseStartMode(v.GetString("start"))
	if err != nil {
		return nil, err
	}
	level, err := logger.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return nil, usageError(err)
	}
	player := strings.Fields(v.GetString("player"))
	if len(player) == 0 {
		return nil, &thermostat.UsageError{Msg: "empty player command"}
	}

	poll := time.Duration(v.GetInt("poll")) * time.Second
	var explicit *int
	if v.IsSet("iterations") {
		n := v.GetInt("iterations")
		explicit = &n
	}
	s := &settings{
		cfg: thermostat.RunConfig{
			MinTempF:       v.GetFloat64("min-temp"),
			MaxTempF:       v.GetFloat64("max-temp"),
			HysteresisF:    v.GetFloat64("hysteresis"),
			Poll:           poll,
			Iterations:     thermostat.ResolveIterations(explicit, poll),
			AlarmEnabled:   v.GetBool("alarm"),
			HighAlarmSound: v.GetString("high-temp-sound"),
			LowAlarmSound:  v.GetString("low-temp-sound"),
			Configure:      v.GetBool("configure"),
			Start:          start,
			Stop:           v.GetBool("stop"),
		},
		bus:    v.GetString("bus"),
		player: player,
		band:   v.GetBool("band"),
		oled:   v.GetBool("oled"),
		level:  level,
	}
	if err = s.cfg.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// loadDotEnv loads .env from the working directory, if any. Variables already
// set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

type halter interface {
	Halt() error
}

// openDisplays returns the optional displays and the resources to halt at
// exit.
func openDisplays(s *settings, bus i2c.Bus, log *zap.SugaredLogger) ([]thermostat.Display, []halter, error) {
	var displays []thermostat.Display
	var halters []halter
	if s.band {
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			b, err := bandview.New(&bandview.Opts{Cells: bandCells, MinTempF: s.cfg.MinTempF, MaxTempF: s.cfg.MaxTempF})
			if err != nil {
				return nil, nil, err
			}
			displays = append(displays, b)
			halters = append(halters, b)
		} else {
			log.Warn("stderr is not a terminal, not showing the comfort band")
		}
	}
	if s.oled {
		dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
		if err != nil {
			return nil, halters, fmt.Errorf("ssd1306: %w", err)
		}
		p, err := panel.New(dev, s.cfg.MinTempF, s.cfg.MaxTempF, nil)
		if err != nil {
			return nil, halters, err
		}
		log.Infow("showing readings", "display", dev)
		displays = append(displays, p)
		halters = append(halters, p)
	}
	return displays, halters, nil
}

func mainImpl(s *settings, stdout io.Writer, log *zap.SugaredLogger) error {
	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(s.bus)
	if err != nil {
		return err
	}
	defer bus.Close()

	heater, err := ds1621.NewI2C(bus, thermostat.Heater.Address(), nil)
	if err != nil {
		return err
	}
	cooler, err := ds1621.NewI2C(bus, thermostat.Cooler.Address(), nil)
	if err != nil {
		return err
	}
	log.Debugw("devices", "heater", heater, "cooler", cooler)

	displays, halters, err := openDisplays(s, bus, log)
	defer func() {
		for _, h := range halters {
			if herr := h.Halt(); herr != nil {
				log.Warnw("halting display", "error", herr)
			}
		}
	}()
	if err != nil {
		return err
	}

	opts := []thermostat.Option{thermostat.WithLogger(log), thermostat.WithDisplays(displays...)}
	if s.cfg.AlarmEnabled {
		opts = append(opts, thermostat.WithPlayer(alarm.New(s.player...)))
	}
	c, err := thermostat.NewController(heater, cooler, thermostat.NewEmitter(stdout), s.cfg, opts...)
	if err != nil {
		return err
	}
	return c.Run()
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := loadDotEnv(); err != nil {
		fmt.Fprintf(stderr, "dualtherm: %v\n", err)
		return exitFailure
	}
	s, err := parseSettings(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "dualtherm: %v\n", err)
		return exitUsage
	}

	log := logger.New(s.level, stderr).With("run", uuid.NewString())
	defer func() { _ = log.Sync() }()
	if err = mainImpl(s, stdout, log); err != nil {
		log.Errorw("dualtherm failed", "error", err)
		var usage *thermostat.UsageError
		if errors.As(err, &usage) {
			return exitUsage
		}
		return exitFailure
	}
	return exitOK
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
