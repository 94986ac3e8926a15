// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bandview implements a 1D display.Drawer that shows where the Heater
// and Cooler readings sit in the comfort band, on a terminal using ANSI color
// codes.
//
// The strip covers the band plus a margin on each side. Cells inside the band
// are green, the Heater reading is a blue marker and the Cooler reading a red
// one. A marker turns white when its alarm is raised.
package bandview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/dualtherm/thermostat"
)

var (
	colorOutside = color.NRGBA{48, 48, 48, 255}
	colorBand    = color.NRGBA{0, 96, 0, 255}
	colorHeater  = color.NRGBA{0, 0, 255, 255}
	colorCooler  = color.NRGBA{255, 0, 0, 255}
	colorBoth    = color.NRGBA{255, 0, 255, 255}
	colorAlarm   = color.NRGBA{255, 255, 255, 255}
)

// Opts represents the options available for this display.
type Opts struct {
	// Cells is the width of the strip.
	Cells int
	// MinTempF and MaxTempF delimit the comfort band.
	MinTempF float64
	MaxTempF float64
	// MarginF is shown on each side of the band. Defaults to half the band.
	MarginF float64
	Palette *ansi256.Palette
	// W defaults to stderr, so stdout only carries telemetry.
	W io.Writer

	_ struct{}
}

// Dev is a comfort band strip printed to a terminal.
type Dev struct {
	w       io.Writer
	l       int
	palette ansi256.Palette
	lowF    float64
	highF   float64
	minF    float64
	maxF    float64

	pixels []byte
	label  string
	buf    bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.Cells < 2 {
		return nil, fmt.Errorf("bandview: need at least 2 cells, got %d", opts.Cells)
	}
	if opts.MinTempF >= opts.MaxTempF {
		return nil, fmt.Errorf("bandview: invalid band %g°F - %g°F", opts.MinTempF, opts.MaxTempF)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStderr()
	}
	margin := opts.MarginF
	if margin <= 0 {
		margin = (opts.MaxTempF - opts.MinTempF) / 2
	}
	return &Dev{
		w:       w,
		l:       opts.Cells,
		palette: *p,
		lowF:    opts.MinTempF - margin,
		highF:   opts.MaxTempF + margin,
		minF:    opts.MinTempF,
		maxF:    opts.MaxTempF,
		pixels:  make([]byte, 3*opts.Cells),
	}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("BandView{%g°F - %g°F}", d.minF, d.maxF)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors and ends the line.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: d.l, Y: 1}}
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	deltaX3 := 3 * (r.Min.X - srcR.Min.X)
	for sX := srcR.Min.X; sX < srcR.Max.X; sX++ {
		r16, g16, b16, _ := src.At(sX, srcR.Min.Y).RGBA()
		dX3 := 3*sX + deltaX3
		d.pixels[dX3] = byte(r16 >> 8)
		d.pixels[dX3+1] = byte(g16 >> 8)
		d.pixels[dX3+2] = byte(b16 >> 8)
	}
	return d.refresh()
}

// Show renders r on the strip. It implements thermostat.Display.
func (d *Dev) Show(r thermostat.Reading) error {
	img := image.NewNRGBA(d.Bounds())
	for x := 0; x < d.l; x++ {
		c := colorOutside
		if f := d.temperatureAt(x); f >= d.minF && f <= d.maxF {
			c = colorBand
		}
		img.SetNRGBA(x, 0, c)
	}
	h, c := d.cell(r.HeaterTempF), d.cell(r.CoolerTempF)
	heater, cooler := colorHeater, colorCooler
	if r.LowAlarm {
		heater = colorAlarm
	}
	if r.HighAlarm {
		cooler = colorAlarm
	}
	img.SetNRGBA(h, 0, heater)
	if h == c && !r.LowAlarm && !r.HighAlarm {
		img.SetNRGBA(c, 0, colorBoth)
	} else {
		img.SetNRGBA(c, 0, cooler)
	}
	d.label = fmt.Sprintf("H %.1f°F C %.1f°F", r.HeaterTempF, r.CoolerTempF)
	return d.Draw(d.Bounds(), img, image.Point{})
}

// cell returns the cell showing temperature f, clamped to the strip.
func (d *Dev) cell(f float64) int {
	x := int(math.Round((f - d.lowF) / (d.highF - d.lowF) * float64(d.l-1)))
	return min(max(x, 0), d.l-1)
}

// temperatureAt returns the temperature at the center of cell x.
func (d *Dev) temperatureAt(x int) float64 {
	return d.lowF + float64(x)*(d.highF-d.lowF)/float64(d.l-1)
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := 0; i < len(d.pixels)/3; i++ {
		c := color.NRGBA{d.pixels[3*i], d.pixels[3*i+1], d.pixels[3*i+2], 255}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, _ = d.buf.WriteString(d.label)
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
var _ thermostat.Display = &Dev{}
