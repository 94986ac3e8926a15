// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermostat

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GermanBionicSystems/dualtherm/ds1621"
)

// SettleDelay is the wait after switching to continuous conversion, before
// the first sample.
const SettleDelay = 600 * time.Millisecond

// Player plays an alarm clip and returns once it is done.
type Player interface {
	Play(path string) error
}

// Display shows a reading. Failures are logged and otherwise ignored.
type Display interface {
	Show(r Reading) error
}

// ReadStrategy reads a channel. It is selected once per run.
type ReadStrategy interface {
	Read(s Sensor) (ds1621.Reading, error)
	String() string
}

type continuousReader struct{}

func (continuousReader) Read(s Sensor) (ds1621.Reading, error) {
	return s.Read()
}

func (continuousReader) String() string {
	return "continuous"
}

type oneShotReader struct{}

func (oneShotReader) Read(s Sensor) (ds1621.Reading, error) {
	return s.ReadOneShot()
}

func (oneShotReader) String() string {
	return "oneshot"
}

// Option customizes a Controller.
type Option func(*Controller)

// WithPlayer sets the alarm player. Without one, alarms are only reported in
// the telemetry.
func WithPlayer(p Player) Option {
	return func(c *Controller) { c.player = p }
}

// WithDisplays adds displays updated after every sample.
func WithDisplays(d ...Display) Option {
	return func(c *Controller) { c.displays = append(c.displays, d...) }
}

// WithLogger sets the logger for status lines.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Controller) { c.log = l }
}

// WithClock replaces time.Now and time.Sleep.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(c *Controller) {
		c.now = now
		c.sleep = sleep
	}
}

// Controller runs the configure, sample and stop sequence against a Heater
// and a Cooler device. It owns the devices for the duration of Run.
type Controller struct {
	heater   Sensor
	cooler   Sensor
	cfg      RunConfig
	emitter  *Emitter
	player   Player
	displays []Display
	log      *zap.SugaredLogger
	now      func() time.Time
	sleep    func(time.Duration)
}

// NewController returns a Controller for cfg. Telemetry records are written
// to emitter.
func NewController(heater, cooler Sensor, emitter *Emitter, cfg RunConfig, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		heater:  heater,
		cooler:  cooler,
		cfg:     cfg,
		emitter: emitter,
		log:     zap.NewNop().Sugar(),
		now:     time.Now,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Controller) channels() []channelSensor {
	return []channelSensor{{Heater, c.heater}, {Cooler, c.cooler}}
}

// Run executes the whole sequence.
//
// A configuration failure aborts before anything is sampled. A read failure
// aborts the sampling; the devices are still stopped afterward when Stop is
// set and both errors are returned.
func (c *Controller) Run() error {
	if c.cfg.Configure {
		if _, err := Configure(c.heater, c.cooler, c.cfg, c.log); err != nil {
			return err
		}
	} else {
		c.log.Warn("assuming thermostats are already configured")
	}

	err := c.sampleAll()
	if c.cfg.Stop {
		err = errors.Join(err, c.Stop())
	}
	return err
}

func (c *Controller) sampleAll() error {
	strategy, err := c.SelectMode()
	if err != nil {
		return err
	}
	c.log.Debugw("sampling", "reader", strategy, "iterations", c.cfg.Iterations, "poll", c.cfg.Poll)
	for i := 0; c.cfg.Iterations.More(i); i++ {
		if _, err = c.Sample(strategy, i); err != nil {
			return err
		}
		if c.cfg.Poll > 0 && c.cfg.Iterations.More(i+1) {
			c.sleep(c.cfg.Poll)
		}
	}
	return nil
}

// SelectMode applies the start mode and returns the reader to use for the
// rest of the run.
func (c *Controller) SelectMode() (ReadStrategy, error) {
	switch c.cfg.Start {
	case StartContinuous:
		c.log.Info("activating thermostats for continuous operation")
		for _, ch := range c.channels() {
			if err := ch.dev.SetMode(ds1621.Continuous); err != nil {
				return nil, &BusError{Phase: PhaseModeSelect, Channel: ch.ch, Err: err}
			}
		}
		c.sleep(SettleDelay)
		return continuousReader{}, nil
	case StartOneShot:
		c.log.Info("reading thermostats in one-shot mode")
		return oneShotReader{}, nil
	default:
		c.log.Warn("assuming thermostats already operating continuously")
		return continuousReader{}, nil
	}
}

// Sample takes sample number i: reads both channels, emits the telemetry
// record, updates the displays and plays the alarms.
func (c *Controller) Sample(strategy ReadStrategy, i int) (Reading, error) {
	var temps [2]ds1621.Reading
	for _, ch := range c.channels() {
		r, err := strategy.Read(ch.dev)
		if err != nil {
			return Reading{}, &BusError{Phase: PhaseSample, Channel: ch.ch, Iteration: i, Err: err}
		}
		// HighRes is logged as-is; on the Cooler part it is known to be off.
		c.log.Debugw("read", "channel", ch.ch, "iteration", i, "byte", r.Byte, "word", r.Word, "highres", r.HighRes)
		temps[ch.ch] = r
	}

	reading := NewReading(c.now(), TemperatureToFarenheit(temps[Heater].Word), TemperatureToFarenheit(temps[Cooler].Word), c.cfg)
	if err := c.emitter.Emit(reading); err != nil {
		return reading, fmt.Errorf("telemetry: %w", err)
	}
	for _, d := range c.displays {
		if err := d.Show(reading); err != nil {
			c.log.Warnw("display update failed", "error", err)
		}
	}
	c.dispatchAlarms(reading)
	return reading, nil
}

// dispatchAlarms plays the high alarm then the low alarm. Playback is best
// effort.
func (c *Controller) dispatchAlarms(r Reading) {
	if !c.cfg.AlarmEnabled || c.player == nil {
		return
	}
	if r.HighAlarm {
		c.play(c.cfg.HighAlarmSound)
	}
	if r.LowAlarm {
		c.play(c.cfg.LowAlarmSound)
	}
}

func (c *Controller) play(path string) {
	if err := c.player.Play(path); err != nil {
		c.log.Warnw("alarm playback failed", "error", &PlaybackError{Path: path, Err: err})
	}
}

// Stop stops conversion on both devices. Both are attempted even if the first
// one fails.
func (c *Controller) Stop() error {
	c.log.Info("stopping continuous operation")
	var errs []error
	for _, ch := range c.channels() {
		if err := ch.dev.StopConversion(); err != nil {
			errs = append(errs, &BusError{Phase: PhaseStop, Channel: ch.ch, Err: err})
		}
	}
	return errors.Join(errs...)
}
