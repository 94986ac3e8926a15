// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermostat

import (
	"encoding/json"
	"io"
	"time"
)

// Reading is one sample of both channels.
type Reading struct {
	Timestamp    time.Time
	HeaterTempF  float64
	CoolerTempF  float64
	AverageTempF float64
	// HighAlarm is set when the cooler side is above the band.
	HighAlarm bool
	// LowAlarm is set when the heater side is below the band.
	LowAlarm bool
}

// NewReading builds a Reading and evaluates the alarms against the band in
// cfg. The average is taken on the Farenheit values.
func NewReading(ts time.Time, heaterF, coolerF float64, cfg RunConfig) Reading {
	return Reading{
		Timestamp:    ts,
		HeaterTempF:  heaterF,
		CoolerTempF:  coolerF,
		AverageTempF: (heaterF + coolerF) / 2,
		HighAlarm:    coolerF > cfg.MaxTempF,
		LowAlarm:     heaterF < cfg.MinTempF,
	}
}

// Record is the wire format of a telemetry record. The field order is part of
// the format.
type Record struct {
	Timestamp     string  `json:"Timestamp"`
	HeaterTemp    float64 `json:"HeaterTemp"`
	CoolerTemp    float64 `json:"CoolerTemp"`
	AverageTemp   float64 `json:"AverageTemp"`
	TempUnit      string  `json:"TempUnit"`
	HighTempAlarm bool    `json:"HighTempAlarm"`
	LowTempAlarm  bool    `json:"LowTempAlarm"`
}

// Record returns the telemetry record of r.
func (r Reading) Record() Record {
	return Record{
		Timestamp:     r.Timestamp.Format(time.RFC3339Nano),
		HeaterTemp:    r.HeaterTempF,
		CoolerTemp:    r.CoolerTempF,
		AverageTemp:   r.AverageTempF,
		TempUnit:      "F",
		HighTempAlarm: r.HighAlarm,
		LowTempAlarm:  r.LowAlarm,
	}
}

// Emitter writes one JSON record per line.
type Emitter struct {
	enc *json.Encoder
}

// NewEmitter returns an Emitter writing to w. Each record is written with a
// single Write call.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{enc: json.NewEncoder(w)}
}

// Emit writes the record of r.
func (e *Emitter) Emit(r Reading) error {
	return e.enc.Encode(r.Record())
}
