// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package panel renders the latest reading on a small graphical display, for
// example an SSD1306 OLED sharing the I²C bus with the thermostats.
//
// The frame shows both channels and the average in °F, a gauge of the comfort
// band with one tick per channel, and HIGH or LOW when an alarm is raised.
package panel

import (
	"errors"
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/dualtherm/thermostat"
)

// Opts holds the rendering options.
type Opts struct {
	// FontSize in points. Defaults to 12, three lines on a 128x64 display.
	FontSize float64
	// MarginF is the part of the gauge outside the band on each side.
	// Defaults to half the band.
	MarginF float64
}

// DefaultOpts suits a 128x64 display.
var DefaultOpts = Opts{FontSize: 12}

// Panel draws readings on a display.Drawer.
type Panel struct {
	dev   display.Drawer
	face  font.Face
	minF  float64
	maxF  float64
	lowF  float64
	highF float64
}

// New returns a Panel drawing on dev for the band minF - maxF. The Opts can be
// nil.
func New(dev display.Drawer, minF, maxF float64, opts *Opts) (*Panel, error) {
	if minF >= maxF {
		return nil, fmt.Errorf("panel: invalid band %g°F - %g°F", minF, maxF)
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	size := opts.FontSize
	if size <= 0 {
		size = DefaultOpts.FontSize
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.Join(errors.New("panel: could not parse font"), err)
	}
	margin := opts.MarginF
	if margin <= 0 {
		margin = (maxF - minF) / 2
	}
	return &Panel{
		dev:   dev,
		face:  truetype.NewFace(f, &truetype.Options{Size: size}),
		minF:  minF,
		maxF:  maxF,
		lowF:  minF - margin,
		highF: maxF + margin,
	}, nil
}

func (p *Panel) String() string {
	return fmt.Sprintf("Panel{%s}", p.dev)
}

// Render returns the frame for r, white on black, sized to the display.
func (p *Panel) Render(r thermostat.Reading) image.Image {
	b := p.dev.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)
	dc.SetFontFace(p.face)

	_, lh := dc.MeasureString("Hg")
	lines := []string{
		fmt.Sprintf("Heater %.1f°F", r.HeaterTempF),
		fmt.Sprintf("Cooler %.1f°F", r.CoolerTempF),
		fmt.Sprintf("Avg %.1f°F", r.AverageTempF),
	}
	for i, l := range lines {
		dc.DrawString(l, 1, float64(i+1)*(lh+2))
	}
	switch {
	case r.HighAlarm && r.LowAlarm:
		dc.DrawStringAnchored("HI/LO", w-1, lh+2, 1, 0)
	case r.HighAlarm:
		dc.DrawStringAnchored("HIGH", w-1, lh+2, 1, 0)
	case r.LowAlarm:
		dc.DrawStringAnchored("LOW", w-1, lh+2, 1, 0)
	}

	// Gauge: band outline with a tick for each channel.
	y := h - 6
	x0, x1 := p.x(p.minF, w), p.x(p.maxF, w)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x0, y, x1-x0, 4)
	dc.Stroke()
	for _, f := range []float64{r.HeaterTempF, r.CoolerTempF} {
		x := p.x(f, w)
		dc.DrawLine(x, y-2, x, h)
		dc.Stroke()
	}
	return dc.Image()
}

// Show renders r and draws it. It implements thermostat.Display.
func (p *Panel) Show(r thermostat.Reading) error {
	return p.dev.Draw(p.dev.Bounds(), p.Render(r), image.Point{})
}

// Halt halts the underlying display.
func (p *Panel) Halt() error {
	return p.dev.Halt()
}

// x returns the horizontal position of f on the gauge, clamped to the frame.
func (p *Panel) x(f, w float64) float64 {
	x := (f - p.lowF) / (p.highF - p.lowF) * (w - 1)
	return min(max(x, 0), w-1)
}

var _ thermostat.Display = &Panel{}
