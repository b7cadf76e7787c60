// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package xr defines a set of interfaces encompassing the
// XR device functionality needed to present immersive
// content.
// It mirrors the shape of the WebXR Device API so that a
// browser binding can be implemented in a mostly
// straightforward manner, while also allowing emulated
// devices.
package xr

import (
	"context"
	"errors"
	"time"

	"github.com/gviegas/xrcube/driver"
)

// Mode is the type of session modes.
type Mode int

// Session modes.
const (
	ImmersiveVR Mode = iota
	Inline
)

// String returns the WebXR name of the mode.
func (m Mode) String() string {
	switch m {
	case ImmersiveVR:
		return "immersive-vr"
	case Inline:
		return "inline"
	}
	return "unknown"
}

// ParseMode converts a WebXR session mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "immersive-vr":
		return ImmersiveVR, nil
	case "inline":
		return Inline, nil
	}
	return 0, ErrBadMode
}

// SpaceType is the type of reference spaces.
type SpaceType int

// Reference space types.
const (
	// SpaceLocal is world-locked, with its origin near
	// the viewer's position at session start.
	SpaceLocal SpaceType = iota
	// SpaceViewer is locked to the viewer.
	SpaceViewer
)

// String returns the WebXR name of the space type.
func (t SpaceType) String() string {
	switch t {
	case SpaceLocal:
		return "local"
	case SpaceViewer:
		return "viewer"
	}
	return "unknown"
}

// SpaceFor returns the reference space type used for
// sessions of the given mode: world-locked for fully
// immersive sessions, viewer-locked otherwise.
func SpaceFor(m Mode) SpaceType {
	if m == ImmersiveVR {
		return SpaceLocal
	}
	return SpaceViewer
}

// ErrNotSupported means that the device does not support
// the requested session mode or reference space.
var ErrNotSupported = errors.New("xr: not supported")

// ErrSessionEnded means that an operation was attempted
// on a session that has already ended.
var ErrSessionEnded = errors.New("xr: session ended")

// ErrBadMode means that a session mode name is invalid.
var ErrBadMode = errors.New("xr: invalid session mode")

// Device is the interface that provides session
// acquisition.
type Device interface {
	// IsSessionSupported reports whether sessions of the
	// given mode can be requested.
	IsSessionSupported(ctx context.Context, mode Mode) (bool, error)

	// RequestSession requests a new session.
	// It fails with ErrNotSupported if the mode is not
	// supported.
	RequestSession(ctx context.Context, mode Mode) (Session, error)
}

// Handle identifies a pending animation frame request.
// The zero Handle is never returned by a session.
type Handle uint32

// FrameFunc is the type of animation frame callbacks.
// t is the frame's time relative to the device's time
// origin.
type FrameFunc func(t time.Duration, frame Frame)

// Session is the interface that defines an active XR
// session.
// Callers should assume that Session methods are not
// safe for parallel execution.
type Session interface {
	// Mode returns the mode the session was created with.
	Mode() Mode

	// RequestReferenceSpace requests a reference space
	// of the given type.
	RequestReferenceSpace(ctx context.Context, typ SpaceType) (ReferenceSpace, error)

	// NewLayer creates a presentation layer that renders
	// into framebuffers of the given graphics context.
	// The context must have been opened with
	// driver.Options.XRCompatible set.
	NewLayer(ctx driver.Context) (Layer, error)

	// UpdateRenderState replaces the session's render
	// state.
	UpdateRenderState(rs RenderState)

	// RenderState returns the current render state.
	RenderState() RenderState

	// RequestAnimationFrame schedules fn to be called on
	// the next display refresh.
	// Callbacks requested from within a callback run on
	// the following frame.
	RequestAnimationFrame(fn FrameFunc) Handle

	// CancelAnimationFrame removes a pending request.
	// Cancelling an unknown or already-run handle has no
	// effect.
	CancelAnimationFrame(h Handle)

	// OnEnd registers fn to be called once the session
	// ends, regardless of whether the end was requested
	// by the application or by the device.
	OnEnd(fn func())

	// End requests termination of the session and waits
	// for the device to acknowledge it. The end observers
	// may or may not have run when End returns.
	// Ending an ended session returns ErrSessionEnded.
	End() error
}

// RenderState is the session's render configuration.
type RenderState struct {
	BaseLayer Layer
}

// Layer is the interface that defines the presentation
// layer a session renders into.
type Layer interface {
	// Framebuffer returns the framebuffer to bind when
	// rendering a frame. A nil value means the default
	// framebuffer.
	Framebuffer() driver.Framebuffer

	// Viewport returns the region of the framebuffer
	// that the given view renders into.
	Viewport(v *View) Viewport
}

// Viewport is a rectangle in framebuffer coordinates.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// ReferenceSpace is the interface that defines a coordinate
// frame against which poses are reported.
// Reference spaces are immutable.
type ReferenceSpace interface {
	// Type returns the type of the space.
	Type() SpaceType

	// Offset creates a new reference space whose origin is
	// placed at t relative to this space.
	// The receiver is not modified.
	Offset(t RigidTransform) ReferenceSpace
}

// Frame is the interface that defines the state of all
// tracked objects at a given time.
// A frame is only valid within the callback it is
// delivered to.
type Frame interface {
	// Session returns the session that produced the frame.
	Session() Session

	// ViewerPose returns the viewer's pose relative to
	// space. It returns false if the pose is not
	// available (e.g., tracking was lost).
	ViewerPose(space ReferenceSpace) (*Pose, bool)
}

// Eye identifies which eye a view is rendered for.
type Eye int

// Eyes.
const (
	EyeNone Eye = iota
	EyeLeft
	EyeRight
)

// String returns the WebXR name of the eye.
func (e Eye) String() string {
	switch e {
	case EyeLeft:
		return "left"
	case EyeRight:
		return "right"
	}
	return "none"
}
