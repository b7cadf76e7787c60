// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package control implements the viewer controls: pointer
// and keyboard input accumulated into a camera offset, and
// the conversion of that offset into a reference space.
package control

import (
	"math"

	"github.com/gviegas/xrcube/wsi"
)

// MaxPitch is the largest magnitude the pitch angle can
// reach, in radians.
const MaxPitch = math.Pi / 2

// State is the accumulated viewer offset.
// Translations are in reference-space units and angles
// in radians.
// The zero value is the rest state.
type State struct {
	Lateral  float32
	Vertical float32
	Axial    float32
	Yaw      float32
	Pitch    float32
}

// IsZero reports whether all five values are zero.
func (s *State) IsZero() bool { return *s == State{} }

// Reset zeroes all five values.
func (s *State) Reset() { *s = State{} }

// Scheme configures how input is converted into state
// changes.
type Scheme struct {
	// MouseSpeed is the rotation in radians per unit of
	// pointer motion.
	MouseSpeed float32
	// MoveDistance is the translation per key press.
	MoveDistance float32
	// RotateButton is the button that must be held for
	// pointer motion to rotate the view.
	RotateButton wsi.Button
}

// DefaultScheme returns the default control scheme.
func DefaultScheme() Scheme {
	return Scheme{
		MouseSpeed:   0.003,
		MoveDistance: 0.1,
		RotateButton: wsi.BtnRight,
	}
}

// ApplyPointerDelta rotates the view by a pointer motion of
// (dx, dy).
// Yaw is unbounded; pitch is clamped to ±MaxPitch.
func (s *State) ApplyPointerDelta(sc *Scheme, dx, dy float32) {
	s.Yaw -= dx * sc.MouseSpeed
	s.Pitch -= dy * sc.MouseSpeed
	if s.Pitch < -MaxPitch {
		s.Pitch = -MaxPitch
	} else if s.Pitch > MaxPitch {
		s.Pitch = MaxPitch
	}
}

// ApplyKey applies the effect of a key press.
// It reports whether the key is part of the control set;
// other keys leave s unchanged.
//
//	W/S        forward/back
//	A/D        left/right
//	Up/Down    up/down
//	R          reset
func (s *State) ApplyKey(sc *Scheme, key wsi.Key) bool {
	d := sc.MoveDistance
	switch key {
	case wsi.KeyW:
		s.Axial += d
	case wsi.KeyS:
		s.Axial -= d
	case wsi.KeyA:
		s.Lateral += d
	case wsi.KeyD:
		s.Lateral -= d
	case wsi.KeyUp:
		s.Vertical -= d
	case wsi.KeyDown:
		s.Vertical += d
	case wsi.KeyR:
		s.Reset()
	default:
		return false
	}
	return true
}

// Handler feeds wsi events into a State.
// It implements wsi.KeyboardHandler and wsi.PointerHandler.
type Handler struct {
	State  State
	Scheme Scheme
	// Mouse and Keyboard enable the respective input
	// sources.
	Mouse    bool
	Keyboard bool
}

// NewHandler creates a Handler with both input sources
// enabled.
func NewHandler(sc Scheme) *Handler {
	return &Handler{
		Scheme:   sc,
		Mouse:    true,
		Keyboard: true,
	}
}

// KeyboardKey applies key presses; releases are ignored.
func (h *Handler) KeyboardKey(key wsi.Key, pressed bool, _ wsi.Modifier) {
	if !h.Keyboard || !pressed {
		return
	}
	h.State.ApplyKey(&h.Scheme, key)
}

// PointerMotion rotates the view while the rotate button
// is held.
func (h *Handler) PointerMotion(dx, dy float32, held wsi.ButtonMask) {
	if !h.Mouse || !held.Has(h.Scheme.RotateButton) {
		return
	}
	h.State.ApplyPointerDelta(&h.Scheme, dx, dy)
}

// PointerButton is a no-op; button state arrives with
// PointerMotion.
func (h *Handler) PointerButton(wsi.Button, bool) {}
