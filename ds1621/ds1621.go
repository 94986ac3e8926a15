// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds1621

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Mode is the conversion mode of the device.
type Mode byte

const (
	// Continuous makes the device convert temperature continuously once a
	// conversion has been started. The thermostat output is only updated in
	// this mode.
	Continuous Mode = 0
	// OneShot makes the device perform a single conversion each time one is
	// started, then go idle.
	OneShot Mode = 1
)

func (m Mode) String() string {
	switch m {
	case Continuous:
		return "continuous"
	case OneShot:
		return "oneshot"
	default:
		return "unknown"
	}
}

const (
	// DefaultAddress is the address with A0-A2 pulled low.
	DefaultAddress uint16 = 0x48

	cmdReadTemperature byte = 0xaa
	cmdAccessTH        byte = 0xa1
	cmdAccessTL        byte = 0xa2
	cmdReadCounter     byte = 0xa8
	cmdReadSlope       byte = 0xa9
	cmdStartConvert    byte = 0xee
	cmdStopConvert     byte = 0x22
	cmdAccessConfig    byte = 0xac

	// MinimumTemperature is the lowest temperature the device measures.
	MinimumTemperature physic.Temperature = physic.ZeroCelsius - 55*physic.Kelvin
	// MaximumTemperature is the highest temperature the device measures.
	MaximumTemperature physic.Temperature = physic.ZeroCelsius + 125*physic.Kelvin

	resolution = 500 * physic.MilliKelvin
)

// Config is the content of the configuration/status register.
type Config byte

const (
	// ConfigDone is set when a conversion has completed.
	ConfigDone Config = 1 << 7
	// ConfigTHF is set once the temperature reached TH. Cleared by writing 0.
	ConfigTHF Config = 1 << 6
	// ConfigTLF is set once the temperature dropped to TL. Cleared by writing
	// 0.
	ConfigTLF Config = 1 << 5
	// ConfigNVB is set while an EEPROM write is in progress.
	ConfigNVB Config = 1 << 4
	// ConfigPOL makes Tout active high.
	ConfigPOL Config = 1 << 1
	// ConfigOneShot selects OneShot mode.
	ConfigOneShot Config = 1 << 0
)

func (c Config) String() string {
	return fmt.Sprintf("Done=%t THF=%t TLF=%t NVB=%t POL=%t 1SHOT=%t",
		c&ConfigDone != 0, c&ConfigTHF != 0, c&ConfigTLF != 0,
		c&ConfigNVB != 0, c&ConfigPOL != 0, c&ConfigOneShot != 0)
}

// Reading holds one temperature sample at the three resolutions the device
// can provide.
type Reading struct {
	// Byte is the integer part only, from the most significant byte.
	Byte physic.Temperature
	// Word is the full 9 bit, 0.5°C resolution, value.
	Word physic.Temperature
	// HighRes is computed from the counter and slope registers. It is not
	// reliable on every part.
	HighRes physic.Temperature
}

// Opts holds the timing options of the device.
type Opts struct {
	// ConversionTimeout bounds the wait for a one-shot conversion to
	// complete. 0 means no timeout.
	ConversionTimeout time.Duration
	// PollInterval is the delay between two reads of the DONE flag.
	PollInterval time.Duration
	// WakeDelay is how long WakeUp waits for the first conversion before
	// reading it.
	WakeDelay time.Duration
	// WriteDelay is the EEPROM write time after TH, TL or the configuration
	// register was written.
	WriteDelay time.Duration
}

// DefaultOpts are the timings from the datasheet.
var DefaultOpts = Opts{
	ConversionTimeout: time.Second,
	PollInterval:      10 * time.Millisecond,
	WakeDelay:         750 * time.Millisecond,
	WriteDelay:        10 * time.Millisecond,
}

// ConversionTimeoutError is returned when a one-shot conversion did not
// complete within Opts.ConversionTimeout.
type ConversionTimeoutError struct {
	Timeout time.Duration
}

func (e *ConversionTimeoutError) Error() string {
	return fmt.Sprintf("ds1621: conversion did not complete within %s", e.Timeout)
}

// Dev is a handle to a DS1621.
type Dev struct {
	d    *i2c.Dev
	opts Opts
	mu   sync.Mutex
}

// NewI2C returns a handle to a DS1621 at addr. It does not communicate with
// the device. The Opts can be nil.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if addr < 0x48 || addr > 0x4f {
		return nil, fmt.Errorf("ds1621: invalid address 0x%02x, must be between 0x48 and 0x4f", addr)
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	return &Dev{d: &i2c.Dev{Bus: b, Addr: addr}, opts: *opts}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ds1621: %s", d.d.String())
}

// WakeUp starts a conversion and discards the first result. The first
// reading after power up is not usable.
func (d *Dev) WakeUp() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.command(cmdStartConvert); err != nil {
		return err
	}
	time.Sleep(d.opts.WakeDelay)
	_, err := d.readTemperature()
	return err
}

// StartConversion starts converting. In OneShot mode a single conversion is
// done.
func (d *Dev) StartConversion() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.command(cmdStartConvert)
}

// StopConversion stops continuous conversion.
func (d *Dev) StopConversion() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.command(cmdStopConvert)
}

// Config returns the configuration/status register.
func (d *Dev) Config() (Config, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readConfig()
}

// SetMode selects the conversion mode. Continuous also starts converting.
func (d *Dev) SetMode(m Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var v Config
	switch m {
	case Continuous:
	case OneShot:
		v = ConfigOneShot
	default:
		return fmt.Errorf("ds1621: invalid mode %d", m)
	}
	if err := d.updateConfig(ConfigOneShot, v); err != nil {
		return err
	}
	if m == Continuous {
		return d.command(cmdStartConvert)
	}
	return nil
}

// SetActiveLow sets the polarity of the thermostat output. When activeLow is
// false, Tout is driven high while the thermostat is triggered.
func (d *Dev) SetActiveLow(activeLow bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var v Config
	if !activeLow {
		v = ConfigPOL
	}
	return d.updateConfig(ConfigPOL, v)
}

// SetThermostat programs the TL and TH registers. Values are rounded to the
// nearest 0.5°C by the encoding.
func (d *Dev) SetThermostat(low, high physic.Temperature) error {
	if low >= high {
		return errors.New("ds1621: invalid thermostat range, low must be below high")
	}
	lowBytes, err := temperatureToCount(low)
	if err != nil {
		return err
	}
	highBytes, err := temperatureToCount(high)
	if err != nil {
		return err
	}
	if lowBytes == highBytes {
		return fmt.Errorf("ds1621: thermostat range %s - %s is below the device resolution", low, high)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err = d.d.Tx([]byte{cmdAccessTL, lowBytes[0], lowBytes[1]}, nil); err != nil {
		return fmt.Errorf("ds1621: error writing TL: %w", err)
	}
	time.Sleep(d.opts.WriteDelay)
	if err = d.d.Tx([]byte{cmdAccessTH, highBytes[0], highBytes[1]}, nil); err != nil {
		return fmt.Errorf("ds1621: error writing TH: %w", err)
	}
	time.Sleep(d.opts.WriteDelay)
	return nil
}

// Thermostat returns the TL and TH registers.
func (d *Dev) Thermostat() (low, high physic.Temperature, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := make([]byte, 2)
	if err = d.d.Tx([]byte{cmdAccessTL}, r); err != nil {
		err = fmt.Errorf("ds1621: error reading TL: %w", err)
		return
	}
	low = countToTemperature(r)
	if err = d.d.Tx([]byte{cmdAccessTH}, r); err != nil {
		err = fmt.Errorf("ds1621: error reading TH: %w", err)
		return
	}
	high = countToTemperature(r)
	return
}

// Read returns the last converted temperature without starting a
// conversion. Use it while the device is converting continuously.
func (d *Dev) Read() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readAll()
}

// ReadOneShot starts a single conversion, waits for it to complete and
// returns the result. The device is switched to OneShot mode first if
// needed.
func (d *Dev) ReadOneShot() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.updateConfig(ConfigOneShot, ConfigOneShot); err != nil {
		return Reading{}, err
	}
	if err := d.command(cmdStartConvert); err != nil {
		return Reading{}, err
	}
	if err := d.waitDone(); err != nil {
		return Reading{}, err
	}
	return d.readAll()
}

// Sense implements physic.SenseEnv. It reads the 0.5°C resolution value
// without starting a conversion.
func (d *Dev) Sense(e *physic.Env) error {
	r, err := d.Read()
	if err != nil {
		return err
	}
	e.Temperature = r.Word
	return nil
}

// SenseContinuous implements physic.SenseEnv.
func (d *Dev) SenseContinuous(time.Duration) (<-chan physic.Env, error) {
	return nil, errors.New("ds1621: not implemented, use Read in Continuous mode")
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = resolution
	e.Pressure = 0
	e.Humidity = 0
}

// Halt stops continuous conversion. Implements conn.Resource.
func (d *Dev) Halt() error {
	return d.StopConversion()
}

func (d *Dev) command(cmd byte) error {
	if err := d.d.Tx([]byte{cmd}, nil); err != nil {
		return fmt.Errorf("ds1621: error sending command 0x%02x: %w", cmd, err)
	}
	return nil
}

func (d *Dev) readConfig() (Config, error) {
	r := make([]byte, 1)
	if err := d.d.Tx([]byte{cmdAccessConfig}, r); err != nil {
		return 0, fmt.Errorf("ds1621: error reading configuration: %w", err)
	}
	return Config(r[0]), nil
}

// updateConfig writes the bits selected by mask only if they differ, since
// every write wears the EEPROM.
func (d *Dev) updateConfig(mask, value Config) error {
	current, err := d.readConfig()
	if err != nil {
		return err
	}
	next := (current &^ mask) | (value & mask)
	if next == current {
		return nil
	}
	if err = d.d.Tx([]byte{cmdAccessConfig, byte(next)}, nil); err != nil {
		return fmt.Errorf("ds1621: error writing configuration: %w", err)
	}
	time.Sleep(d.opts.WriteDelay)
	return nil
}

func (d *Dev) waitDone() error {
	end := time.Now().Add(d.opts.ConversionTimeout)
	for {
		c, err := d.readConfig()
		if err != nil {
			return err
		}
		if c&ConfigDone != 0 {
			return nil
		}
		if d.opts.ConversionTimeout > 0 && time.Now().After(end) {
			return &ConversionTimeoutError{Timeout: d.opts.ConversionTimeout}
		}
		time.Sleep(d.opts.PollInterval)
	}
}

func (d *Dev) readTemperature() ([]byte, error) {
	r := make([]byte, 2)
	if err := d.d.Tx([]byte{cmdReadTemperature}, r); err != nil {
		return nil, fmt.Errorf("ds1621: error reading temperature: %w", err)
	}
	return r, nil
}

func (d *Dev) readAll() (Reading, error) {
	raw, err := d.readTemperature()
	if err != nil {
		return Reading{}, err
	}
	r := make([]byte, 1)
	if err = d.d.Tx([]byte{cmdReadCounter}, r); err != nil {
		return Reading{}, fmt.Errorf("ds1621: error reading counter: %w", err)
	}
	remain := r[0]
	if err = d.d.Tx([]byte{cmdReadSlope}, r); err != nil {
		return Reading{}, fmt.Errorf("ds1621: error reading slope: %w", err)
	}
	return Reading{
		Byte:    countToTemperature(raw[:1]),
		Word:    countToTemperature(raw),
		HighRes: highResolution(raw[0], remain, r[0]),
	}, nil
}

// countToTemperature decodes the 9 bit two's complement format shared by the
// temperature, TH and TL registers. With a single byte only the integer part
// is decoded.
func countToTemperature(b []byte) physic.Temperature {
	t := physic.ZeroCelsius + physic.Temperature(int8(b[0]))*physic.Kelvin
	if len(b) > 1 && b[1]&0x80 != 0 {
		t += resolution
	}
	return t
}

// temperatureToCount encodes temp, rounded to the nearest 0.5°C.
func temperatureToCount(temp physic.Temperature) ([2]byte, error) {
	var result [2]byte
	if temp < MinimumTemperature || temp > MaximumTemperature {
		return result, fmt.Errorf("ds1621: temperature %s out of range", temp)
	}
	halves := int(math.Round(temp.Celsius() * 2))
	result[0] = byte(int8(halves >> 1))
	if halves&1 != 0 {
		result[1] = 0x80
	}
	return result, nil
}

// Round returns temp rounded to the nearest 0.5°C, the value the TH and TL
// registers hold once temp is written to them.
func Round(temp physic.Temperature) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(math.Round(temp.Celsius()*2))*resolution
}

// highResolution implements
//
//	T = TEMP_READ - 0.25 + (COUNT_PER_C - COUNT_REMAIN) / COUNT_PER_C
//
// where TEMP_READ is the truncated integer part.
func highResolution(msb, remain, slope byte) physic.Temperature {
	t := physic.ZeroCelsius + physic.Temperature(int8(msb))*physic.Kelvin - 250*physic.MilliKelvin
	if slope == 0 {
		return t
	}
	return t + physic.Temperature(float64(physic.Kelvin)*float64(int(slope)-int(remain))/float64(slope))
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
