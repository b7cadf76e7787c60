// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build js && wasm

// Package webxr implements xr.Device on top of the
// browser's WebXR Device API.
package webxr

import (
	"context"
	"errors"
	"fmt"
	"syscall/js"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/gviegas/xrcube/driver"
	"github.com/gviegas/xrcube/driver/webgl"
	"github.com/gviegas/xrcube/internal/jsutil"
	"github.com/gviegas/xrcube/internal/log"
	"github.com/gviegas/xrcube/xr"
)

// ErrNoXR means that the browser does not expose
// navigator.xr.
var ErrNoXR = errors.New("webxr: navigator.xr is not available")

// ErrNoGL means that a layer was requested for a context
// that is not backed by WebGL.
var ErrNoGL = errors.New("webxr: context is not a WebGL context")

// Device implements xr.Device.
type Device struct {
	v   js.Value
	log *zap.Logger
}

// New returns the browser's XR device.
// l may be nil.
func New(l *zap.Logger) (*Device, error) {
	v := js.Global().Get("navigator").Get("xr")
	if !jsutil.Valid(v) {
		return nil, ErrNoXR
	}
	return &Device{v: v, log: log.OrNop(l)}, nil
}

// IsSessionSupported implements xr.Device.
func (d *Device) IsSessionSupported(ctx context.Context, mode xr.Mode) (bool, error) {
	if !jsutil.Valid(d.v.Get("isSessionSupported")) {
		// Older implementations only have supportsSession,
		// which rejects when unsupported.
		_, err := jsutil.Await(ctx, d.v.Call("supportsSession", mode.String()))
		if errors.Is(err, jsutil.ErrRejected) {
			return false, nil
		}
		return err == nil, err
	}
	v, err := jsutil.Await(ctx, d.v.Call("isSessionSupported", mode.String()))
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// RequestSession implements xr.Device.
func (d *Device) RequestSession(ctx context.Context, mode xr.Mode) (xr.Session, error) {
	v, err := jsutil.Await(ctx, d.v.Call("requestSession", mode.String()))
	if err != nil {
		if errors.Is(err, jsutil.ErrRejected) {
			return nil, fmt.Errorf("%w: %v", xr.ErrNotSupported, err)
		}
		return nil, err
	}
	s := &Session{
		v:     v,
		mode:  mode,
		log:   d.log,
		funcs: make(map[xr.Handle]js.Func),
	}
	s.endFn = js.FuncOf(func(js.Value, []js.Value) any {
		s.finish()
		return nil
	})
	v.Call("addEventListener", "end", s.endFn)
	return s, nil
}

// Session implements xr.Session.
type Session struct {
	v     js.Value
	mode  xr.Mode
	log   *zap.Logger
	rs    xr.RenderState
	ended bool
	onEnd []func()
	endFn js.Func
	funcs map[xr.Handle]js.Func
	views [3]js.Value
}

func (s *Session) Mode() xr.Mode { return s.mode }

// RequestReferenceSpace implements xr.Session.
func (s *Session) RequestReferenceSpace(ctx context.Context, typ xr.SpaceType) (xr.ReferenceSpace, error) {
	if s.ended {
		return nil, xr.ErrSessionEnded
	}
	v, err := jsutil.Await(ctx, s.v.Call("requestReferenceSpace", typ.String()))
	if err != nil {
		if errors.Is(err, jsutil.ErrRejected) {
			return nil, fmt.Errorf("%w: %v", xr.ErrNotSupported, err)
		}
		return nil, err
	}
	return &space{typ: typ, v: v}, nil
}

// NewLayer implements xr.Session.
func (s *Session) NewLayer(ctx driver.Context) (xr.Layer, error) {
	if s.ended {
		return nil, xr.ErrSessionEnded
	}
	gc, ok := ctx.(interface{ JSValue() js.Value })
	if !ok {
		return nil, ErrNoGL
	}
	v := js.Global().Get("XRWebGLLayer").New(s.v, gc.JSValue())
	return &layer{sess: s, v: v}, nil
}

// UpdateRenderState implements xr.Session.
func (s *Session) UpdateRenderState(rs xr.RenderState) {
	init := map[string]any{}
	if l, ok := rs.BaseLayer.(*layer); ok {
		init["baseLayer"] = l.v
	}
	s.v.Call("updateRenderState", init)
	s.rs = rs
}

func (s *Session) RenderState() xr.RenderState { return s.rs }

// RequestAnimationFrame implements xr.Session.
func (s *Session) RequestAnimationFrame(fn xr.FrameFunc) xr.Handle {
	var h xr.Handle
	var f js.Func
	f = js.FuncOf(func(_ js.Value, args []js.Value) any {
		delete(s.funcs, h)
		f.Release()
		ms := args[0].Float()
		fr := &frame{sess: s, v: args[1]}
		fn(time.Duration(ms*float64(time.Millisecond)), fr)
		return nil
	})
	h = xr.Handle(s.v.Call("requestAnimationFrame", f).Int())
	s.funcs[h] = f
	return h
}

// CancelAnimationFrame implements xr.Session.
func (s *Session) CancelAnimationFrame(h xr.Handle) {
	f, ok := s.funcs[h]
	if !ok {
		return
	}
	s.v.Call("cancelAnimationFrame", int(h))
	delete(s.funcs, h)
	f.Release()
}

func (s *Session) releaseFrames() {
	for h, f := range s.funcs {
		f.Release()
		delete(s.funcs, h)
	}
}

// OnEnd implements xr.Session.
func (s *Session) OnEnd(fn func()) {
	if s.ended {
		fn()
		return
	}
	s.onEnd = append(s.onEnd, fn)
}

// endTimeout bounds the wait for XRSession.end.
const endTimeout = 5 * time.Second

// End implements xr.Session.
// It waits for the promise returned by XRSession.end and
// then runs the end observers, unless the end event has
// already done so. It must not be called from the
// goroutine that runs JS callbacks.
func (s *Session) End() error {
	if s.ended {
		return xr.ErrSessionEnded
	}
	ctx, cancel := context.WithTimeout(context.Background(), endTimeout)
	defer cancel()
	_, err := jsutil.Await(ctx, s.v.Call("end"))
	if err != nil {
		s.log.Warn("webxr session end", zap.Error(err))
	}
	s.finish()
	return nil
}

// finish marks the session as ended and runs the end
// observers. Only the first call has any effect.
func (s *Session) finish() {
	if s.ended {
		return
	}
	s.ended = true
	s.log.Debug("webxr session ended", zap.Stringer("mode", s.mode))
	s.releaseFrames()
	obs := s.onEnd
	s.onEnd = nil
	for _, fn := range obs {
		fn()
	}
	s.v.Call("removeEventListener", "end", s.endFn)
	s.endFn.Release()
}

type space struct {
	typ xr.SpaceType
	v   js.Value
}

func (s *space) Type() xr.SpaceType { return s.typ }

func (s *space) Offset(t xr.RigidTransform) xr.ReferenceSpace {
	p, q := t.Position, t.Orientation
	rt := js.Global().Get("XRRigidTransform").New(
		map[string]any{"x": p[0], "y": p[1], "z": p[2], "w": 1},
		map[string]any{"x": q.V[0], "y": q.V[1], "z": q.V[2], "w": q.W},
	)
	return &space{typ: s.typ, v: s.v.Call("getOffsetReferenceSpace", rt)}
}

type frame struct {
	sess *Session
	v    js.Value
}

func (f *frame) Session() xr.Session { return f.sess }

// ViewerPose implements xr.Frame.
func (f *frame) ViewerPose(rs xr.ReferenceSpace) (*xr.Pose, bool) {
	sp, ok := rs.(*space)
	if !ok {
		return nil, false
	}
	p := f.v.Call("getViewerPose", sp.v)
	if !jsutil.Valid(p) {
		return nil, false
	}
	views := p.Get("views")
	n := views.Get("length").Int()
	pose := &xr.Pose{
		Transform: rigidTransform(p.Get("transform")),
		Views:     make([]xr.View, n),
	}
	for i := 0; i < n; i++ {
		v := views.Index(i)
		eye := parseEye(v.Get("eye").String())
		pose.Views[i] = xr.View{
			Eye:        eye,
			Projection: mat4(v.Get("projectionMatrix")),
			Transform:  rigidTransform(v.Get("transform")),
		}
		f.sess.views[eye] = v
	}
	return pose, true
}

func parseEye(s string) xr.Eye {
	switch s {
	case "left":
		return xr.EyeLeft
	case "right":
		return xr.EyeRight
	}
	return xr.EyeNone
}

func rigidTransform(v js.Value) xr.RigidTransform {
	p, o := v.Get("position"), v.Get("orientation")
	return xr.RigidTransform{
		Position: mgl32.Vec3{
			float32(p.Get("x").Float()),
			float32(p.Get("y").Float()),
			float32(p.Get("z").Float()),
		},
		Orientation: mgl32.Quat{
			W: float32(o.Get("w").Float()),
			V: mgl32.Vec3{
				float32(o.Get("x").Float()),
				float32(o.Get("y").Float()),
				float32(o.Get("z").Float()),
			},
		},
	}
}

func mat4(v js.Value) (m mgl32.Mat4) {
	for i := range m {
		m[i] = float32(v.Index(i).Float())
	}
	return
}

type layer struct {
	sess *Session
	v    js.Value
}

func (l *layer) Framebuffer() driver.Framebuffer {
	fb := l.v.Get("framebuffer")
	if !jsutil.Valid(fb) {
		return nil
	}
	return webgl.NewFramebuffer(fb)
}

func (l *layer) Viewport(v *xr.View) xr.Viewport {
	jv := l.sess.views[v.Eye]
	if !jsutil.Valid(jv) {
		return xr.Viewport{
			Width:  l.v.Get("framebufferWidth").Int(),
			Height: l.v.Get("framebufferHeight").Int(),
		}
	}
	vp := l.v.Call("getViewport", jv)
	return xr.Viewport{
		X:      vp.Get("x").Int(),
		Y:      vp.Get("y").Int(),
		Width:  vp.Get("width").Int(),
		Height: vp.Get("height").Int(),
	}
}
