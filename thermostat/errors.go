// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermostat

import "fmt"

// Phase is the step of a run during which an error happened.
type Phase string

const (
	PhaseConfigure  Phase = "configure"
	PhaseModeSelect Phase = "mode-select"
	PhaseSample     Phase = "sample"
	PhaseStop       Phase = "stop"
)

// UsageError reports invalid arguments. No device was accessed.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Msg
}

func usageErrorf(format string, a ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, a...)}
}

// BusError reports a failed exchange with one of the devices. It is fatal to
// the phase it happened in.
type BusError struct {
	Phase   Phase
	Channel Channel
	// Iteration is the index of the sample, only meaningful in PhaseSample.
	Iteration int
	Err       error
}

func (e *BusError) Error() string {
	if e.Phase == PhaseSample {
		return fmt.Sprintf("%s: %s channel, iteration %d: %v", e.Phase, e.Channel, e.Iteration, e.Err)
	}
	return fmt.Sprintf("%s: %s channel: %v", e.Phase, e.Channel, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// PlaybackError reports an alarm clip that could not be played. Sampling
// continues after it.
type PlaybackError struct {
	Path string
	Err  error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playing %q: %v", e.Path, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}
