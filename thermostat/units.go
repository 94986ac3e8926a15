// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermostat

import (
	"math"

	"periph.io/x/conn/v3/physic"
)

// farenheitToCelsiusFactor is 5/9 truncated to seven decimals. Setpoints
// programmed by earlier releases used it, so it is kept for parity. The
// round trip error is below 1e-5°F over -20°F - 120°F.
const farenheitToCelsiusFactor = 0.5555555

// CelsiusToFarenheit converts degrees Celsius to degrees Farenheit.
func CelsiusToFarenheit(c float64) float64 {
	return 1.8*c + 32
}

// FarenheitToCelsius converts degrees Farenheit to degrees Celsius.
func FarenheitToCelsius(f float64) float64 {
	return (f - 32) * farenheitToCelsiusFactor
}

// FarenheitToTemperature converts degrees Farenheit to a physic.Temperature,
// rounded to the nanokelvin.
func FarenheitToTemperature(f float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(math.Round(FarenheitToCelsius(f)*float64(physic.Kelvin)))
}

// TemperatureToFarenheit converts a physic.Temperature to degrees Farenheit.
func TemperatureToFarenheit(t physic.Temperature) float64 {
	return CelsiusToFarenheit(t.Celsius())
}
