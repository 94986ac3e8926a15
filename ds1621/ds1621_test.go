// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds1621

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

const addr uint16 = 0x49

// No waiting against a playback bus.
var testOpts = Opts{}

func celsius(milli int64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(milli)*physic.MilliKelvin
}

func getDev(t *testing.T, ops []i2ctest.IO) (*Dev, *i2ctest.Playback) {
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	dev, err := NewI2C(pb, addr, &testOpts)
	if err != nil {
		t.Fatal(err)
	}
	return dev, pb
}

func closePlayback(t *testing.T, pb *i2ctest.Playback) {
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestCountToTemperature(t *testing.T) {
	tests := []struct {
		bits     []byte
		expected physic.Temperature
	}{
		{[]byte{0x7d, 0x00}, celsius(125_000)},
		{[]byte{0x19, 0x00}, celsius(25_000)},
		{[]byte{0x19, 0x80}, celsius(25_500)},
		{[]byte{0x00, 0x80}, celsius(500)},
		{[]byte{0x00, 0x00}, physic.ZeroCelsius},
		{[]byte{0xff, 0x80}, celsius(-500)},
		{[]byte{0xe7, 0x00}, celsius(-25_000)},
		{[]byte{0xc9, 0x00}, celsius(-55_000)},
		{[]byte{0x19}, celsius(25_000)},
	}
	for _, test := range tests {
		if got := countToTemperature(test.bits); got != test.expected {
			t.Errorf("countToTemperature(%#v)=%s expected %s", test.bits, got, test.expected)
		}
	}
}

func TestTemperatureToCount(t *testing.T) {
	tests := []struct {
		temp     physic.Temperature
		expected [2]byte
	}{
		{celsius(20_000), [2]byte{0x14, 0x00}},
		{celsius(20_200), [2]byte{0x14, 0x00}},
		{celsius(20_300), [2]byte{0x14, 0x80}},
		{celsius(20_560), [2]byte{0x14, 0x80}},
		{celsius(25_800), [2]byte{0x1a, 0x00}},
		{celsius(-500), [2]byte{0xff, 0x80}},
		{celsius(-25_000), [2]byte{0xe7, 0x00}},
		{MinimumTemperature, [2]byte{0xc9, 0x00}},
		{MaximumTemperature, [2]byte{0x7d, 0x00}},
	}
	for _, test := range tests {
		got, err := temperatureToCount(test.temp)
		if err != nil {
			t.Errorf("temperatureToCount(%s) %v", test.temp, err)
			continue
		}
		if got != test.expected {
			t.Errorf("temperatureToCount(%s)=%#v expected %#v", test.temp, got, test.expected)
		}
	}

	for _, temp := range []physic.Temperature{MinimumTemperature - physic.Kelvin, MaximumTemperature + physic.Kelvin} {
		if _, err := temperatureToCount(temp); err == nil {
			t.Errorf("temperatureToCount(%s) expected error", temp)
		}
	}
}

func TestRound(t *testing.T) {
	data := []struct {
		in   physic.Temperature
		want physic.Temperature
	}{
		{celsius(20000), celsius(20000)},
		{celsius(20167), celsius(20000)},
		{celsius(20250), celsius(20500)},
		{celsius(20556), celsius(20500)},
		{celsius(25389), celsius(25500)},
		{celsius(-300), celsius(-500)},
		{celsius(-55000), celsius(-55000)},
	}
	for _, line := range data {
		if got := Round(line.in); got != line.want {
			t.Errorf("Round(%s)=%s expected %s", line.in, got, line.want)
		}
	}
	// Round agrees with the register encoding.
	for milli := int64(-55000); milli <= 125000; milli += 37 {
		temp := celsius(milli)
		b, err := temperatureToCount(temp)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := Round(temp), countToTemperature(b[:]); got != want {
			t.Fatalf("Round(%s)=%s but the register holds %s", temp, got, want)
		}
	}
}

func TestHighResolution(t *testing.T) {
	// 25 - 0.25 + (16-10)/16
	if got := highResolution(0x19, 10, 16); got != celsius(25_125) {
		t.Errorf("highResolution()=%s expected 25.125°C", got)
	}
	if got := highResolution(0x19, 10, 0); got != celsius(24_750) {
		t.Errorf("highResolution() with zero slope=%s expected 24.75°C", got)
	}
}

func TestNewI2C(t *testing.T) {
	for _, a := range []uint16{0x47, 0x50} {
		if _, err := NewI2C(&i2ctest.Playback{}, a, nil); err == nil {
			t.Errorf("NewI2C(0x%02x) expected error", a)
		}
	}
	dev, err := NewI2C(&i2ctest.Playback{}, DefaultAddress, nil)
	if err != nil {
		t.Fatal(err)
	}
	if dev.opts != DefaultOpts {
		t.Errorf("opts=%#v expected DefaultOpts", dev.opts)
	}
	if len(dev.String()) == 0 {
		t.Error("invalid String() result")
	}
}

func TestWakeUp(t *testing.T) {
	dev, pb := getDev(t, []i2ctest.IO{
		{Addr: addr, W: []byte{cmdStartConvert}},
		{Addr: addr, W: []byte{cmdReadTemperature}, R: []byte{0x00, 0x00}},
	})
	if err := dev.WakeUp(); err != nil {
		t.Fatal(err)
	}
	closePlayback(t, pb)
}

func TestSetThermostat(t *testing.T) {
	dev, pb := getDev(t, []i2ctest.IO{
		{Addr: addr, W: []byte{cmdAccessTL, 0x14, 0x00}},
		{Addr: addr, W: []byte{cmdAccessTH, 0x14, 0x80}},
		{Addr: addr, W: []byte{cmdAccessTL}, R: []byte{0x14, 0x00}},
		{Addr: addr, W: []byte{cmdAccessTH}, R: []byte{0x14, 0x80}},
	})
	if err := dev.SetThermostat(celsius(20_000), celsius(20_560)); err != nil {
		t.Fatal(err)
	}
	low, high, err := dev.Thermostat()
	if err != nil {
		t.Fatal(err)
	}
	if low != celsius(20_000) || high != celsius(20_500) {
		t.Errorf("Thermostat()=%s, %s expected 20°C, 20.5°C", low, high)
	}
	closePlayback(t, pb)
}

func TestSetThermostatInvalid(t *testing.T) {
	dev, pb := getDev(t, nil)
	tests := []struct {
		low, high physic.Temperature
	}{
		{celsius(25_000), celsius(20_000)},
		{celsius(20_000), celsius(20_000)},
		// Both round to 20°C.
		{celsius(20_000), celsius(20_200)},
		{celsius(20_000), MaximumTemperature + physic.Kelvin},
	}
	for _, test := range tests {
		if err := dev.SetThermostat(test.low, test.high); err == nil {
			t.Errorf("SetThermostat(%s, %s) expected error", test.low, test.high)
		}
	}
	closePlayback(t, pb)
}

func TestSetMode(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		ops  []i2ctest.IO
	}{
		{"continuous", Continuous, []i2ctest.IO{
			{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x83}},
			{Addr: addr, W: []byte{cmdAccessConfig, 0x82}},
			{Addr: addr, W: []byte{cmdStartConvert}},
		}},
		{"continuous-unchanged", Continuous, []i2ctest.IO{
			{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x02}},
			{Addr: addr, W: []byte{cmdStartConvert}},
		}},
		{"oneshot", OneShot, []i2ctest.IO{
			{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x00}},
			{Addr: addr, W: []byte{cmdAccessConfig, 0x01}},
		}},
		{"oneshot-unchanged", OneShot, []i2ctest.IO{
			{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x01}},
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dev, pb := getDev(t, test.ops)
			if err := dev.SetMode(test.mode); err != nil {
				t.Fatal(err)
			}
			closePlayback(t, pb)
		})
	}

	dev, _ := getDev(t, nil)
	if err := dev.SetMode(Mode(7)); err == nil {
		t.Error("SetMode(7) expected error")
	}
}

func TestSetActiveLow(t *testing.T) {
	dev, pb := getDev(t, []i2ctest.IO{
		{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x00}},
		{Addr: addr, W: []byte{cmdAccessConfig, 0x02}},
		{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x03}},
		{Addr: addr, W: []byte{cmdAccessConfig, 0x01}},
		{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x01}},
	})
	if err := dev.SetActiveLow(false); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetActiveLow(true); err != nil {
		t.Fatal(err)
	}
	// Already active low, nothing written.
	if err := dev.SetActiveLow(true); err != nil {
		t.Fatal(err)
	}
	closePlayback(t, pb)
}

func TestConfig(t *testing.T) {
	dev, pb := getDev(t, []i2ctest.IO{
		{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x83}},
	})
	c, err := dev.Config()
	if err != nil {
		t.Fatal(err)
	}
	if c != ConfigDone|ConfigPOL|ConfigOneShot {
		t.Errorf("Config()=%s", c)
	}
	closePlayback(t, pb)
}

var readOps = []i2ctest.IO{
	{Addr: addr, W: []byte{cmdReadTemperature}, R: []byte{0x19, 0x80}},
	{Addr: addr, W: []byte{cmdReadCounter}, R: []byte{0x0a}},
	{Addr: addr, W: []byte{cmdReadSlope}, R: []byte{0x10}},
}

var expectedReading = Reading{
	Byte:    celsius(25_000),
	Word:    celsius(25_500),
	HighRes: celsius(25_125),
}

func TestRead(t *testing.T) {
	dev, pb := getDev(t, readOps)
	r, err := dev.Read()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(expectedReading, r); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
	closePlayback(t, pb)
}

func TestReadOneShot(t *testing.T) {
	ops := []i2ctest.IO{
		{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x00}},
		{Addr: addr, W: []byte{cmdAccessConfig, 0x01}},
		{Addr: addr, W: []byte{cmdStartConvert}},
		{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x01}},
		{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x81}},
	}
	dev, pb := getDev(t, append(ops, readOps...))
	r, err := dev.ReadOneShot()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(expectedReading, r); diff != "" {
		t.Errorf("ReadOneShot() mismatch (-want +got):\n%s", diff)
	}
	closePlayback(t, pb)
}

func TestReadOneShotTimeout(t *testing.T) {
	pb := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x01}},
		{Addr: addr, W: []byte{cmdStartConvert}},
		{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x01}},
		{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x01}},
		{Addr: addr, W: []byte{cmdAccessConfig}, R: []byte{0x01}},
	}, DontPanic: true}
	dev, err := NewI2C(pb, addr, &Opts{ConversionTimeout: time.Nanosecond, PollInterval: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	_, err = dev.ReadOneShot()
	var timeout *ConversionTimeoutError
	if !errors.As(err, &timeout) {
		t.Errorf("ReadOneShot() err=%v expected ConversionTimeoutError", err)
	}
}

func TestSense(t *testing.T) {
	dev, pb := getDev(t, readOps)
	e := physic.Env{}
	if err := dev.Sense(&e); err != nil {
		t.Fatal(err)
	}
	if e.Temperature != expectedReading.Word {
		t.Errorf("Sense()=%s expected %s", e.Temperature, expectedReading.Word)
	}
	closePlayback(t, pb)

	dev.Precision(&e)
	if e.Temperature != 500*physic.MilliKelvin {
		t.Errorf("Precision()=%s", e.Temperature)
	}
	if _, err := dev.SenseContinuous(time.Second); err == nil {
		t.Error("SenseContinuous() expected error")
	}
}

func TestHalt(t *testing.T) {
	dev, pb := getDev(t, []i2ctest.IO{
		{Addr: addr, W: []byte{cmdStopConvert}},
	})
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	closePlayback(t, pb)
}

func TestBusError(t *testing.T) {
	dev, _ := getDev(t, nil)
	if _, err := dev.Read(); err == nil {
		t.Error("Read() on an empty playback expected error")
	} else if !strings.HasPrefix(err.Error(), "ds1621: error reading temperature: ") {
		t.Errorf("Read() err=%q", err)
	}
	if _, _, err := dev.Thermostat(); err == nil {
		t.Error("Thermostat() on an empty playback expected error")
	}
	if err := dev.StopConversion(); err == nil {
		t.Error("StopConversion() on an empty playback expected error")
	}
}
