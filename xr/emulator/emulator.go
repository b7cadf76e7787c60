// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package emulator implements an in-process xr.Device.
// Sessions do not run on their own: the owner calls
// Device.Tick once per display refresh, which delivers the
// pending animation frame callbacks.
package emulator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/gviegas/xrcube/driver"
	"github.com/gviegas/xrcube/internal/log"
	"github.com/gviegas/xrcube/xr"
)

// ErrBusy means that a session was requested while another
// one is still running.
var ErrBusy = errors.New("emulator: session already running")

// ErrNoContext means that a layer was requested without a
// graphics context.
var ErrNoContext = errors.New("emulator: nil graphics context")

// Config describes the emulated headset.
type Config struct {
	// Modes are the supported session modes.
	Modes []xr.Mode
	// Stereo selects one view per eye instead of a
	// single view.
	Stereo bool
	// Width and Height are the size of the layer's
	// framebuffer.
	Width, Height int
	// IPD is the distance between the eyes, in meters.
	IPD float32
	// FOV is the vertical field of view, in degrees.
	FOV       float32
	Near, Far float32
}

// DefaultConfig returns a mono device supporting both
// session modes.
func DefaultConfig() Config {
	return Config{
		Modes:  []xr.Mode{xr.ImmersiveVR, xr.Inline},
		Width:  800,
		Height: 600,
		IPD:    0.064,
		FOV:    60,
		Near:   0.1,
		Far:    1000,
	}
}

// Device is an emulated XR device.
type Device struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	head     xr.RigidTransform
	tracking bool

	sess *Session
}

// New creates a new Device.
// l may be nil.
func New(cfg Config, l *zap.Logger) *Device {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		def := DefaultConfig()
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.FOV <= 0 {
		cfg.FOV = DefaultConfig().FOV
	}
	if cfg.Near <= 0 || cfg.Far <= cfg.Near {
		def := DefaultConfig()
		cfg.Near, cfg.Far = def.Near, def.Far
	}
	return &Device{
		cfg:      cfg,
		log:      log.OrNop(l),
		head:     xr.Identity(),
		tracking: true,
	}
}

// Config returns the device's configuration.
func (d *Device) Config() Config { return d.cfg }

func (d *Device) supports(mode xr.Mode) bool {
	for _, m := range d.cfg.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// IsSessionSupported implements xr.Device.
func (d *Device) IsSessionSupported(ctx context.Context, mode xr.Mode) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return d.supports(mode), nil
}

// RequestSession implements xr.Device.
func (d *Device) RequestSession(ctx context.Context, mode xr.Mode) (xr.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.supports(mode) {
		return nil, xr.ErrNotSupported
	}
	if d.sess != nil {
		return nil, ErrBusy
	}
	d.sess = &Session{
		dev:     d,
		mode:    mode,
		pending: make(map[xr.Handle]xr.FrameFunc),
	}
	d.log.Debug("session started", zap.Stringer("mode", mode))
	return d.sess, nil
}

// Session returns the running session, or nil if there is
// none.
func (d *Device) Session() *Session { return d.sess }

// SetHead sets the pose of the viewer's head in the
// device's world space.
func (d *Device) SetHead(t xr.RigidTransform) {
	d.mu.Lock()
	d.head = t
	d.mu.Unlock()
}

// SetTracking sets whether the head is being tracked.
// While tracking is lost, frames report no viewer pose.
func (d *Device) SetTracking(ok bool) {
	d.mu.Lock()
	d.tracking = ok
	d.mu.Unlock()
}

func (d *Device) headPose() (xr.RigidTransform, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.head, d.tracking
}

// Tick delivers the running session's pending frame
// callbacks, with t as the frame's time.
// It returns the number of callbacks invoked.
func (d *Device) Tick(t time.Duration) int {
	if d.sess == nil {
		return 0
	}
	return d.sess.tick(t)
}

// ForceEnd ends the running session as if the user had
// left it through the device (e.g., by removing the
// headset).
func (d *Device) ForceEnd() {
	if d.sess == nil {
		return
	}
	d.log.Debug("session ended by device")
	d.sess.end()
}

// Session is an emulated xr.Session.
type Session struct {
	dev   *Device
	mode  xr.Mode
	rs    xr.RenderState
	ended bool
	onEnd []func()

	last    xr.Handle
	order   []xr.Handle
	pending map[xr.Handle]xr.FrameFunc
}

// Mode implements xr.Session.
func (s *Session) Mode() xr.Mode { return s.mode }

// RequestReferenceSpace implements xr.Session.
// Local spaces are only available to immersive sessions.
func (s *Session) RequestReferenceSpace(ctx context.Context, typ xr.SpaceType) (xr.ReferenceSpace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.ended {
		return nil, xr.ErrSessionEnded
	}
	switch typ {
	case xr.SpaceViewer:
	case xr.SpaceLocal:
		if s.mode != xr.ImmersiveVR {
			return nil, xr.ErrNotSupported
		}
	default:
		return nil, xr.ErrNotSupported
	}
	return &space{typ: typ, origin: xr.Identity()}, nil
}

// NewLayer implements xr.Session.
// The layer renders into the context's default
// framebuffer.
func (s *Session) NewLayer(ctx driver.Context) (xr.Layer, error) {
	if s.ended {
		return nil, xr.ErrSessionEnded
	}
	if ctx == nil {
		return nil, ErrNoContext
	}
	return &layer{
		stereo: s.dev.cfg.Stereo,
		width:  s.dev.cfg.Width,
		height: s.dev.cfg.Height,
	}, nil
}

// UpdateRenderState implements xr.Session.
func (s *Session) UpdateRenderState(rs xr.RenderState) {
	if !s.ended {
		s.rs = rs
	}
}

// RenderState implements xr.Session.
func (s *Session) RenderState() xr.RenderState { return s.rs }

// RequestAnimationFrame implements xr.Session.
// Requests made after the session ends are never run.
func (s *Session) RequestAnimationFrame(fn xr.FrameFunc) xr.Handle {
	s.last++
	if !s.ended {
		s.order = append(s.order, s.last)
		s.pending[s.last] = fn
	}
	return s.last
}

// CancelAnimationFrame implements xr.Session.
func (s *Session) CancelAnimationFrame(h xr.Handle) { delete(s.pending, h) }

// Pending returns the number of pending frame callbacks.
func (s *Session) Pending() int { return len(s.pending) }

// OnEnd implements xr.Session.
// If the session has already ended, fn is called
// immediately.
func (s *Session) OnEnd(fn func()) {
	if s.ended {
		fn()
		return
	}
	s.onEnd = append(s.onEnd, fn)
}

// End implements xr.Session.
func (s *Session) End() error {
	if s.ended {
		return xr.ErrSessionEnded
	}
	s.end()
	return nil
}

// Ended reports whether the session has ended.
func (s *Session) Ended() bool { return s.ended }

func (s *Session) end() {
	s.ended = true
	s.order = nil
	clear(s.pending)
	if s.dev.sess == s {
		s.dev.sess = nil
	}
	obs := s.onEnd
	s.onEnd = nil
	for _, fn := range obs {
		fn()
	}
}

func (s *Session) tick(t time.Duration) int {
	batch := s.order
	s.order = nil
	f := &frame{sess: s, active: true}
	n := 0
	for _, h := range batch {
		fn, ok := s.pending[h]
		if !ok {
			continue
		}
		delete(s.pending, h)
		fn(t, f)
		n++
		if s.ended {
			break
		}
	}
	f.active = false
	return n
}

// frame is an emulated xr.Frame.
type frame struct {
	sess   *Session
	active bool
}

func (f *frame) Session() xr.Session { return f.sess }

// ViewerPose implements xr.Frame.
func (f *frame) ViewerPose(rs xr.ReferenceSpace) (*xr.Pose, bool) {
	sp, ok := rs.(*space)
	if !f.active || !ok || f.sess.ended {
		return nil, false
	}
	head, ok := f.sess.dev.headPose()
	if !ok {
		return nil, false
	}
	// Pose of the space's origin in device world space.
	world := sp.origin
	if sp.typ == xr.SpaceViewer {
		world = head.Mul(sp.origin)
	}
	pose := world.Inverse().Mul(head)
	return &xr.Pose{
		Transform: pose,
		Views:     f.sess.dev.views(pose),
	}, true
}

func (d *Device) views(pose xr.RigidTransform) []xr.View {
	fovy := mgl32.DegToRad(d.cfg.FOV)
	if !d.cfg.Stereo {
		aspect := float32(d.cfg.Width) / float32(d.cfg.Height)
		return []xr.View{{
			Eye:        xr.EyeNone,
			Projection: mgl32.Perspective(fovy, aspect, d.cfg.Near, d.cfg.Far),
			Transform:  pose,
		}}
	}
	aspect := float32(d.cfg.Width/2) / float32(d.cfg.Height)
	proj := mgl32.Perspective(fovy, aspect, d.cfg.Near, d.cfg.Far)
	half := d.cfg.IPD / 2
	return []xr.View{
		{
			Eye:        xr.EyeLeft,
			Projection: proj,
			Transform:  pose.Mul(xr.NewRigidTransform(mgl32.Vec3{-half, 0, 0}, mgl32.QuatIdent())),
		},
		{
			Eye:        xr.EyeRight,
			Projection: proj,
			Transform:  pose.Mul(xr.NewRigidTransform(mgl32.Vec3{half, 0, 0}, mgl32.QuatIdent())),
		},
	}
}

// space is an emulated xr.ReferenceSpace.
// origin is relative to the space it was derived from,
// composed down to the base space.
type space struct {
	typ    xr.SpaceType
	origin xr.RigidTransform
}

func (s *space) Type() xr.SpaceType { return s.typ }

func (s *space) Offset(t xr.RigidTransform) xr.ReferenceSpace {
	return &space{typ: s.typ, origin: s.origin.Mul(t)}
}

// layer renders into the default framebuffer, split in
// halves for stereo.
type layer struct {
	stereo        bool
	width, height int
}

func (l *layer) Framebuffer() driver.Framebuffer { return nil }

func (l *layer) Viewport(v *xr.View) xr.Viewport {
	half := l.width / 2
	switch v.Eye {
	case xr.EyeLeft:
		return xr.Viewport{Width: half, Height: l.height}
	case xr.EyeRight:
		return xr.Viewport{X: half, Width: half, Height: l.height}
	}
	return xr.Viewport{Width: l.width, Height: l.height}
}
