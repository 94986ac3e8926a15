// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.
//
// Package ds1621 provides a driver for the Maxim (Dallas) DS1621 I²C digital
// thermometer and thermostat.
//
// Range: -55°C - 125°C
//
// Resolution: 0.5°C (9 bits). A higher resolution value is derived from the
// counter and slope registers; on some parts it is wildly inaccurate and it
// is returned as-is.
//
// The thermostat output (Tout) is driven by the device itself by comparing
// the temperature against the TH and TL registers. Both registers and the
// configuration register live in EEPROM, so they survive power cycles.
//
// Up to eight devices share a bus, at addresses 0x48 to 0x4f selected by the
// A0-A2 pins.
//
// For detailed information, refer to the [datasheet].
//
// [datasheet]: https://www.analog.com/media/en/technical-documentation/data-sheets/DS1621.pdf
package ds1621
