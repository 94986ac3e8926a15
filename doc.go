// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dualtherm is a container for a dual thermostat built on two DS1621.
//
// The ds1621 package is the device driver. The thermostat package derives the
// heater and cooler setpoints, samples both devices and raises alarms. The
// command lives in cmd/dualtherm.
package dualtherm
