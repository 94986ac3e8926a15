// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermostat

import (
	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/dualtherm/ds1621"
)

// Bounds is the low/high setpoint pair of a channel. The device rounds both
// to the nearest 0.5°C, see ds1621.Round.
type Bounds struct {
	Low  physic.Temperature
	High physic.Temperature
}

// Farenheit returns the bounds in °F.
func (b Bounds) Farenheit() (low, high float64) {
	return TemperatureToFarenheit(b.Low), TemperatureToFarenheit(b.High)
}

// Setpoints are the bounds read back from both devices.
type Setpoints struct {
	Heater Bounds
	Cooler Bounds
}

// HeaterBounds returns the bounds that turn the heater on below minF and off
// once minF+hysteresisF is reached.
func HeaterBounds(minF, hysteresisF float64) Bounds {
	return Bounds{Low: FarenheitToTemperature(minF), High: FarenheitToTemperature(minF + hysteresisF)}
}

// CoolerBounds returns the bounds that turn the cooler on above maxF and off
// once maxF-hysteresisF is reached.
func CoolerBounds(maxF, hysteresisF float64) Bounds {
	return Bounds{Low: FarenheitToTemperature(maxF - hysteresisF), High: FarenheitToTemperature(maxF)}
}

// Configure programs the thermostat setpoints and output polarity of both
// devices, then reads the setpoints back and logs them.
//
// Any bus error is returned as a *BusError and the devices must be considered
// unconfigured.
func Configure(heater, cooler Sensor, cfg RunConfig, log *zap.SugaredLogger) (Setpoints, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := cfg.Validate(); err != nil {
		return Setpoints{}, err
	}
	hb := HeaterBounds(cfg.MinTempF, cfg.HysteresisF)
	cb := CoolerBounds(cfg.MaxTempF, cfg.HysteresisF)
	for _, b := range []Bounds{hb, cb} {
		if ds1621.Round(b.Low) >= ds1621.Round(b.High) {
			return Setpoints{}, usageErrorf("hysteresis %g°F leaves an empty thermostat range at 0.5°C resolution", cfg.HysteresisF)
		}
	}

	log.Info("configuring thermostats")
	channels := []struct {
		channelSensor
		bounds    Bounds
		activeLow bool
	}{
		{channelSensor{Heater, heater}, hb, false},
		{channelSensor{Cooler, cooler}, cb, true},
	}

	// The first reading after power up only wakes the device up.
	for _, c := range channels {
		if err := c.dev.WakeUp(); err != nil {
			return Setpoints{}, &BusError{Phase: PhaseConfigure, Channel: c.ch, Err: err}
		}
	}
	for _, c := range channels {
		if err := c.dev.SetThermostat(c.bounds.Low, c.bounds.High); err != nil {
			return Setpoints{}, &BusError{Phase: PhaseConfigure, Channel: c.ch, Err: err}
		}
	}
	for _, c := range channels {
		if err := c.dev.SetActiveLow(c.activeLow); err != nil {
			return Setpoints{}, &BusError{Phase: PhaseConfigure, Channel: c.ch, Err: err}
		}
	}

	var sp Setpoints
	for _, c := range channels {
		low, high, err := c.dev.Thermostat()
		if err != nil {
			return Setpoints{}, &BusError{Phase: PhaseConfigure, Channel: c.ch, Err: err}
		}
		b := Bounds{Low: low, High: high}
		lowF, highF := b.Farenheit()
		if c.ch == Heater {
			sp.Heater = b
			log.Infof("Heater on: %g F, Heater off: %g F", lowF, highF)
		} else {
			sp.Cooler = b
			log.Infof("Cooler off: %g F, Cooler on: %g F", lowF, highF)
		}
	}
	return sp, nil
}
