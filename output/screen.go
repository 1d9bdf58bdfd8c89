// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package output attaches rendered graph nodes to physical displays.
//
// A Surface tracks one named display through a ScreenService. Displays come
// and go at runtime (projectors get plugged in mid-show), so the surface
// runs a small state machine: Unbound until given a screen name, Searching
// while the named screen is absent, Bound once it appears. While Bound it
// renders its visible node each frame at the screen's native size; while
// Searching it holds the last rendered frame.
package output

import (
	"image"
	"sync"
)

// Screen describes one attached display.
type Screen struct {
	// Name is the display's stable identifier (e.g. "HDMI-1").
	Name string

	// Geometry is the display's pixel rectangle in desktop coordinates.
	Geometry image.Rectangle
}

// ScreenService enumerates attached displays and signals topology changes.
// Implementations wrap whatever the host platform provides.
type ScreenService interface {
	// Screens returns the currently attached displays.
	Screens() []Screen

	// Changed returns a channel that receives a value when the set of
	// attached displays may have changed. The channel must not be closed.
	Changed() <-chan struct{}
}

// StaticService is a ScreenService backed by a settable list. It serves
// tests and hosts that learn about displays by other means.
type StaticService struct {
	mu      sync.Mutex
	screens []Screen
	changed chan struct{}
}

// NewStaticService creates a service with the given initial displays.
func NewStaticService(screens ...Screen) *StaticService {
	return &StaticService{
		screens: screens,
		changed: make(chan struct{}, 1),
	}
}

// Screens implements ScreenService.
func (s *StaticService) Screens() []Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Screen, len(s.screens))
	copy(out, s.screens)
	return out
}

// Changed implements ScreenService.
func (s *StaticService) Changed() <-chan struct{} { return s.changed }

// SetScreens replaces the display list and signals the change.
func (s *StaticService) SetScreens(screens ...Screen) {
	s.mu.Lock()
	s.screens = make([]Screen, len(screens))
	copy(s.screens, screens)
	s.mu.Unlock()

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

var _ ScreenService = (*StaticService)(nil)
