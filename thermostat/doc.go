// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermostat drives a pair of DS1621 thermostats as a comfort band
// controller.
//
// The Heater channel switches its output while the temperature is below the
// band, the Cooler channel while it is above. The Controller optionally
// programs both devices from a Fahrenheit band and a hysteresis, then samples
// them, writes one JSON telemetry record per sample and plays an alarm clip
// when the band is breached.
//
// Execution is strictly sequential: the Heater is always read before the
// Cooler, and the only wait is the poll period between samples.
package thermostat
