// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package session manages the lifecycle of the XR session
// that presents the cube.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gviegas/xrcube/control"
	"github.com/gviegas/xrcube/diag"
	"github.com/gviegas/xrcube/driver"
	"github.com/gviegas/xrcube/internal/log"
	"github.com/gviegas/xrcube/render"
	"github.com/gviegas/xrcube/texture"
	"github.com/gviegas/xrcube/wsi"
	"github.com/gviegas/xrcube/xr"
)

// State is the type of controller states.
type State int

// Controller states.
const (
	Idle State = iota
	Starting
	Active
	Ending
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Ending:
		return "ending"
	}
	return "unknown"
}

// Button labels.
const (
	LabelEnter = "Enter WebXR"
	LabelExit  = "Exit WebXR"
)

// ErrBusy means that Start was called while a session was
// already running or being set up.
var ErrBusy = errors.New("session: controller is not idle")

// StartPosition is the position of the viewer offset
// applied to the reference space at session start. The
// cube is placed at the same position.
var StartPosition = mgl32.Vec3{0, 0, -10}

// StartOffset returns the offset applied to the reference
// space at session start.
func StartOffset() xr.RigidTransform {
	return xr.NewRigidTransform(StartPosition, mgl32.Quat{W: 1, V: mgl32.Vec3{0, 0, 1}})
}

// Button is the interface of the UI element that starts
// and ends sessions.
type Button interface {
	SetLabel(s string)
	SetEnabled(enabled bool)
}

// Options configure a Controller.
type Options struct {
	Mode   xr.Mode
	Driver driver.Driver
	// Width and Height are passed to Driver.Open.
	Width, Height int

	// Textures fetches TextureURL at session start.
	// If either is unset, the placeholder texel is kept.
	Textures   *texture.Cache
	TextureURL string

	// Rotate and Rates configure the cube's rotation.
	// Rates are in degrees per second about X, Y and Z.
	Rotate bool
	Rates  mgl32.Vec3

	Scheme   control.Scheme
	Mouse    bool
	Keyboard bool

	// Sink receives the diagnostic matrices.
	// Hub, if set, is also fed and tagged with the
	// session's identifier.
	Sink diag.Sink
	Hub  *diag.Hub

	Log *zap.Logger
}

// Controller owns the XR session and renders into it.
// It implements wsi.KeyboardHandler and wsi.PointerHandler.
// A Controller must only be used from a single goroutine:
// the one that delivers UI events and animation frames.
type Controller struct {
	dev  xr.Device
	btn  Button
	opts Options
	log  *zap.Logger
	slog *zap.Logger

	state State
	// gen is incremented for every session, so that
	// callbacks of previous sessions can be told apart.
	gen uint64
	id  uuid.UUID

	sess   xr.Session
	gctx   driver.Context
	res    *render.Resources
	rend   *render.Renderer
	base   xr.ReferenceSpace
	handle xr.Handle
	cancel context.CancelFunc

	last     time.Duration
	rendered bool
	frames   int

	input *control.Handler
}

// New creates a new Controller.
func New(dev xr.Device, btn Button, opts Options) *Controller {
	l := log.OrNop(opts.Log)
	input := control.NewHandler(opts.Scheme)
	input.Mouse = opts.Mouse
	input.Keyboard = opts.Keyboard
	return &Controller{
		dev:   dev,
		btn:   btn,
		opts:  opts,
		log:   l,
		slog:  l,
		input: input,
	}
}

// State returns the controller's state.
func (c *Controller) State() State { return c.state }

// ID returns the identifier of the current (or last)
// session.
func (c *Controller) ID() uuid.UUID { return c.id }

// Renderer returns the current session's renderer, or nil
// if there is no session.
func (c *Controller) Renderer() *render.Renderer { return c.rend }

// Control returns the viewer control state.
func (c *Controller) Control() *control.State { return &c.input.State }

// Frames returns the number of frames rendered in the
// current (or last) session.
func (c *Controller) Frames() int { return c.frames }

// Setup enables the button if the device supports the
// configured session mode.
func (c *Controller) Setup(ctx context.Context) error {
	c.btn.SetLabel(LabelEnter)
	ok, err := c.dev.IsSessionSupported(ctx, c.opts.Mode)
	if err != nil {
		c.btn.SetEnabled(false)
		return fmt.Errorf("session: support query: %w", err)
	}
	c.btn.SetEnabled(ok)
	c.log.Info("session support", zap.Stringer("mode", c.opts.Mode), zap.Bool("supported", ok))
	return nil
}

// Toggle starts a session if none is running and ends the
// running one otherwise.
func (c *Controller) Toggle(ctx context.Context) error {
	switch c.state {
	case Idle:
		return c.Start(ctx)
	case Active:
		return c.End()
	}
	return nil
}

// Start requests a session and prepares it for rendering.
// On failure, the controller returns to Idle.
func (c *Controller) Start(ctx context.Context) error {
	if c.state != Idle {
		return ErrBusy
	}
	c.state = Starting
	sess, err := c.dev.RequestSession(ctx, c.opts.Mode)
	if err != nil {
		c.state = Idle
		c.log.Warn("session request failed", zap.Stringer("mode", c.opts.Mode), zap.Error(err))
		return fmt.Errorf("session: request: %w", err)
	}

	c.gen++
	gen := c.gen
	c.id = uuid.New()
	c.slog = c.log.With(zap.Stringer("session", c.id))
	c.sess = sess
	c.frames = 0
	c.rendered = false
	c.input.State.Reset()
	sess.OnEnd(func() { c.ended(gen) })

	if err := c.prepare(ctx); err != nil {
		c.slog.Error("session setup failed", zap.Error(err))
		sess.End()
		c.ended(gen)
		return err
	}
	if c.gen != gen || c.sess == nil {
		// Ended by the device while being set up.
		return xr.ErrSessionEnded
	}

	c.handle = sess.RequestAnimationFrame(c.frameFunc(gen))
	c.state = Active
	c.btn.SetLabel(LabelExit)
	c.slog.Info("session started", zap.Stringer("mode", c.opts.Mode))
	return nil
}

func (c *Controller) prepare(ctx context.Context) error {
	if c.opts.Driver == nil {
		return fmt.Errorf("session: %w", driver.ErrNotRegistered)
	}
	gctx, err := c.opts.Driver.Open(driver.Options{
		XRCompatible: true,
		Width:        c.opts.Width,
		Height:       c.opts.Height,
	})
	if err != nil {
		return fmt.Errorf("session: graphics context: %w", err)
	}
	c.gctx = gctx

	res, err := render.NewResources(gctx)
	if err != nil {
		return fmt.Errorf("session: render resources: %w", err)
	}
	c.res = res
	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	if c.opts.Textures != nil && c.opts.TextureURL != "" {
		res.Receive(c.opts.Textures.Load(lctx, c.opts.TextureURL))
	}

	layer, err := c.sess.NewLayer(gctx)
	if err != nil {
		return fmt.Errorf("session: layer: %w", err)
	}
	c.sess.UpdateRenderState(xr.RenderState{BaseLayer: layer})

	typ := xr.SpaceFor(c.opts.Mode)
	space, err := c.sess.RequestReferenceSpace(ctx, typ)
	if err != nil {
		return fmt.Errorf("session: %v reference space: %w", typ, err)
	}
	c.base = space.Offset(StartOffset())

	sink := c.opts.Sink
	if c.opts.Hub != nil {
		c.opts.Hub.SetSession(c.id.String())
		if sink == nil {
			sink = c.opts.Hub
		} else {
			sink = diag.Multi{sink, c.opts.Hub}
		}
	}
	cube := render.NewCube(StartPosition, c.opts.Rates, c.opts.Rotate)
	c.rend = render.New(gctx, res, cube, sink, c.slog)
	return nil
}

// End requests the end of the running session.
// Calling End while no session is running has no effect.
// Teardown happens when the session reports that it has
// ended or, at the latest, when the request completes.
func (c *Controller) End() error {
	switch c.state {
	case Idle, Ending:
		return nil
	}
	c.state = Ending
	gen := c.gen
	c.slog.Info("ending session")
	err := c.sess.End()
	// No-op if the end observer already ran.
	c.ended(gen)
	if err != nil && !errors.Is(err, xr.ErrSessionEnded) {
		return fmt.Errorf("session: end: %w", err)
	}
	return nil
}

// ended tears down the session of generation gen.
// It runs for both application and device initiated ends.
func (c *Controller) ended(gen uint64) {
	if gen != c.gen || c.sess == nil {
		return
	}
	if c.handle != 0 {
		c.sess.CancelAnimationFrame(c.handle)
		c.handle = 0
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.res != nil {
		c.res.Destroy()
		c.res = nil
	}
	c.sess = nil
	c.gctx = nil
	c.rend = nil
	c.base = nil
	c.state = Idle
	c.btn.SetLabel(LabelEnter)
	c.slog.Info("session ended", zap.Int("frames", c.frames))
}

func (c *Controller) frameFunc(gen uint64) xr.FrameFunc {
	var fn xr.FrameFunc
	fn = func(t time.Duration, frame xr.Frame) {
		if gen != c.gen || c.state != Active {
			return
		}
		sess := frame.Session()
		c.handle = sess.RequestAnimationFrame(fn)

		space, mouse := control.Adjust(c.base, &c.input.State)
		pose, ok := frame.ViewerPose(space)
		if !ok {
			return
		}
		var dt float32
		if c.rendered && t > c.last {
			dt = float32((t - c.last).Seconds())
		}
		c.last = t
		c.rendered = true

		c.rend.DrawFrame(pose, sess.RenderState().BaseLayer, dt, &mouse)
		c.frames++
	}
	return fn
}

// KeyboardKey implements wsi.KeyboardHandler.
// Keys are only handled while a session is active.
func (c *Controller) KeyboardKey(key wsi.Key, pressed bool, mod wsi.Modifier) {
	if c.state == Active {
		c.input.KeyboardKey(key, pressed, mod)
	}
}

// PointerMotion implements wsi.PointerHandler.
func (c *Controller) PointerMotion(dx, dy float32, held wsi.ButtonMask) {
	if c.state == Active {
		c.input.PointerMotion(dx, dy, held)
	}
}

// PointerButton implements wsi.PointerHandler.
func (c *Controller) PointerButton(btn wsi.Button, pressed bool) {
	if c.state == Active {
		c.input.PointerButton(btn, pressed)
	}
}
