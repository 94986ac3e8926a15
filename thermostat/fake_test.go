// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermostat

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/dualtherm/ds1621"
)

var errBus = errors.New("i2ctest: remote I/O error")

// fakeSensor records every call in a log shared by both channels.
type fakeSensor struct {
	name  string
	calls *[]string
	// fail makes the named operation fail.
	fail string
	// failAfterReads makes reads fail once that many succeeded. 0 disables.
	failAfterReads int

	reads     int
	temps     []physic.Temperature
	low, high physic.Temperature
	activeLow bool
	mode      ds1621.Mode
}

func newFakeSensor(name string, calls *[]string, temps ...physic.Temperature) *fakeSensor {
	return &fakeSensor{name: name, calls: calls, temps: temps}
}

func (f *fakeSensor) record(op string) error {
	*f.calls = append(*f.calls, f.name+"."+op)
	if f.fail == op {
		return errBus
	}
	return nil
}

func (f *fakeSensor) WakeUp() error {
	return f.record("WakeUp")
}

func (f *fakeSensor) SetThermostat(low, high physic.Temperature) error {
	if err := f.record("SetThermostat"); err != nil {
		return err
	}
	f.low, f.high = low, high
	return nil
}

func (f *fakeSensor) Thermostat() (physic.Temperature, physic.Temperature, error) {
	if err := f.record("Thermostat"); err != nil {
		return 0, 0, err
	}
	return f.low, f.high, nil
}

func (f *fakeSensor) SetActiveLow(activeLow bool) error {
	if err := f.record("SetActiveLow"); err != nil {
		return err
	}
	f.activeLow = activeLow
	return nil
}

func (f *fakeSensor) SetMode(m ds1621.Mode) error {
	if err := f.record("SetMode"); err != nil {
		return err
	}
	f.mode = m
	return nil
}

func (f *fakeSensor) read(op string) (ds1621.Reading, error) {
	if err := f.record(op); err != nil {
		return ds1621.Reading{}, err
	}
	if f.failAfterReads > 0 && f.reads >= f.failAfterReads {
		return ds1621.Reading{}, errBus
	}
	t := f.temps[len(f.temps)-1]
	if f.reads < len(f.temps) {
		t = f.temps[f.reads]
	}
	f.reads++
	// Only Word carries the configured temperature, so a reading taken from
	// another resolution shows up in the telemetry.
	return ds1621.Reading{Byte: t - 500*physic.MilliKelvin, Word: t, HighRes: t + 3*physic.Kelvin}, nil
}

func (f *fakeSensor) Read() (ds1621.Reading, error) {
	return f.read("Read")
}

func (f *fakeSensor) ReadOneShot() (ds1621.Reading, error) {
	return f.read("ReadOneShot")
}

func (f *fakeSensor) StopConversion() error {
	return f.record("StopConversion")
}

type fakePlayer struct {
	played []string
	err    error
}

func (p *fakePlayer) Play(path string) error {
	p.played = append(p.played, path)
	return p.err
}

type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
	// onSleep is called after each sleep is recorded.
	onSleep func(n int)
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
	if c.onSleep != nil {
		c.onSleep(len(c.sleeps))
	}
}

func celsius(c float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Kelvin))
}
