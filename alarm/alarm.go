// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package alarm plays alarm clips through an external audio player.
package alarm

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultCommand plays mp3 files quietly.
var DefaultCommand = []string{"/usr/bin/mpg123", "-q"}

// Player runs Command with the clip path appended and waits for it to exit.
type Player struct {
	Command []string
}

// New returns a Player using command, or DefaultCommand when it is empty.
func New(command ...string) *Player {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &Player{Command: command}
}

// Play plays the clip at path and returns once playback is done.
func (p *Player) Play(path string) error {
	if len(p.Command) == 0 {
		return errors.New("alarm: no player command")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("alarm: %w", err)
	}
	args := append(append([]string{}, p.Command[1:]...), path)
	cmd := exec.Command(p.Command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("alarm: %s: %w: %s", p.Command[0], err, msg)
		}
		return fmt.Errorf("alarm: %s: %w", p.Command[0], err)
	}
	return nil
}

func (p *Player) String() string {
	return strings.Join(p.Command, " ")
}
