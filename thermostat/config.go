// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermostat

import (
	"strconv"
	"time"
)

// Defaults for the comfort band, in °F.
const (
	DefaultMinTempF    = 68.0
	DefaultMaxTempF    = 78.0
	DefaultHysteresisF = 1.0
)

// StartMode selects how the devices are read.
type StartMode int

const (
	// StartNone assumes another process already made the devices convert
	// continuously. Nothing is written to them.
	StartNone StartMode = iota
	// StartOneShot triggers a conversion for every read.
	StartOneShot
	// StartContinuous switches both devices to continuous conversion.
	StartContinuous
)

// ParseStartMode parses the value of the --start flag. The empty string is
// StartNone.
func ParseStartMode(s string) (StartMode, error) {
	switch s {
	case "":
		return StartNone, nil
	case "oneshot":
		return StartOneShot, nil
	case "continuous":
		return StartContinuous, nil
	default:
		return StartNone, usageErrorf("invalid start mode %q, must be oneshot or continuous", s)
	}
}

func (m StartMode) String() string {
	switch m {
	case StartOneShot:
		return "oneshot"
	case StartContinuous:
		return "continuous"
	default:
		return "none"
	}
}

// Iterations is the number of samples of a run, either a count or unbounded.
// The zero value is a count of 0.
type Iterations struct {
	n         int
	unbounded bool
}

// Count returns a bounded number of iterations.
func Count(n int) Iterations {
	return Iterations{n: n}
}

// Unbounded returns iterations that never end. The run stops when the process
// is terminated.
func Unbounded() Iterations {
	return Iterations{unbounded: true}
}

// ResolveIterations applies the command line rules: an explicit count wins,
// otherwise polling runs forever, otherwise a single sample is taken.
func ResolveIterations(explicit *int, poll time.Duration) Iterations {
	switch {
	case explicit != nil:
		return Count(*explicit)
	case poll > 0:
		return Unbounded()
	default:
		return Count(1)
	}
}

// IsUnbounded reports whether the run never ends.
func (i Iterations) IsUnbounded() bool {
	return i.unbounded
}

// N returns the count. It is meaningless when IsUnbounded.
func (i Iterations) N() int {
	return i.n
}

// More reports whether another sample follows the first done ones.
func (i Iterations) More(done int) bool {
	return i.unbounded || done < i.n
}

func (i Iterations) String() string {
	if i.unbounded {
		return "unbounded"
	}
	return strconv.Itoa(i.n)
}

// RunConfig is the immutable description of one run.
type RunConfig struct {
	MinTempF    float64
	MaxTempF    float64
	HysteresisF float64
	// Poll is the delay between two samples. 0 means back to back.
	Poll       time.Duration
	Iterations Iterations

	AlarmEnabled   bool
	HighAlarmSound string
	LowAlarmSound  string

	// Configure programs the setpoints before sampling.
	Configure bool
	Start     StartMode
	// Stop stops conversion on both devices after sampling.
	Stop bool
}

// Validate checks the invariants of the configuration.
func (c *RunConfig) Validate() error {
	if c.MinTempF >= c.MaxTempF {
		return usageErrorf("min temperature %g°F must be below max temperature %g°F", c.MinTempF, c.MaxTempF)
	}
	if c.HysteresisF < 0 {
		return usageErrorf("hysteresis %g°F must not be negative", c.HysteresisF)
	}
	if c.Poll < 0 {
		return usageErrorf("poll period %s must not be negative", c.Poll)
	}
	if !c.Iterations.unbounded && c.Iterations.n < 0 {
		return usageErrorf("iterations %d must not be negative", c.Iterations.n)
	}
	if c.Start < StartNone || c.Start > StartContinuous {
		return usageErrorf("invalid start mode %d", c.Start)
	}
	if c.AlarmEnabled && (c.HighAlarmSound == "" || c.LowAlarmSound == "") {
		return usageErrorf("alarm enabled without a sound file")
	}
	return nil
}
