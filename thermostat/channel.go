// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermostat

import (
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/dualtherm/ds1621"
)

// Channel is one of the two sensor and actuator pairs.
type Channel int

const (
	// Heater drives a heater: its output is active below the band.
	Heater Channel = iota
	// Cooler drives a cooling device: its output is active above the band.
	Cooler
)

// Bus addresses, per the A0-A2 strapping of each device.
const (
	HeaterAddress uint16 = 0x49
	CoolerAddress uint16 = 0x4f
)

// Address returns the fixed I²C address of the channel.
func (c Channel) Address() uint16 {
	if c == Cooler {
		return CoolerAddress
	}
	return HeaterAddress
}

func (c Channel) String() string {
	switch c {
	case Heater:
		return "Heater"
	case Cooler:
		return "Cooler"
	default:
		return "unknown"
	}
}

// Sensor is the subset of *ds1621.Dev used to control a channel.
type Sensor interface {
	WakeUp() error
	SetThermostat(low, high physic.Temperature) error
	Thermostat() (low, high physic.Temperature, err error)
	SetActiveLow(activeLow bool) error
	SetMode(m ds1621.Mode) error
	Read() (ds1621.Reading, error)
	ReadOneShot() (ds1621.Reading, error)
	StopConversion() error
}

var _ Sensor = &ds1621.Dev{}

type channelSensor struct {
	ch  Channel
	dev Sensor
}
