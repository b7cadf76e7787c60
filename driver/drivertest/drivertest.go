// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package drivertest provides a driver.Context that records
// the calls made to it, for use in tests.
package drivertest

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/xrcube/driver"
)

// Driver is a driver.Driver whose contexts are Recorders.
type Driver struct {
	name string
	rec  *Recorder
	// Opened counts the calls to Open that created a
	// new context.
	Opened int
	// LastOptions is the value passed to the last call
	// to Open.
	LastOptions driver.Options
}

// New creates a Driver with the given name.
func New(name string) *Driver { return &Driver{name: name} }

// Open returns the driver's Recorder, creating it if
// needed.
func (d *Driver) Open(opts driver.Options) (driver.Context, error) {
	d.LastOptions = opts
	if d.rec == nil {
		d.rec = NewRecorder(d)
		d.Opened++
	}
	if opts.Width > 0 && opts.Height > 0 {
		d.rec.width, d.rec.height = opts.Width, opts.Height
	}
	return d.rec, nil
}

// Name returns the driver's name.
func (d *Driver) Name() string { return d.name }

// Close discards the driver's Recorder.
func (d *Driver) Close() { d.rec = nil }

// Recorder returns the current Recorder, or nil if the
// driver is not open.
func (d *Driver) Recorder() *Recorder { return d.rec }

// Call is a recorded method call.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string { return fmt.Sprintf("%s%v", c.Name, c.Args) }

// Recorder implements driver.Context by recording calls.
// Handles it creates are valid values that compare by
// identity.
type Recorder struct {
	drv    driver.Driver
	Calls  []Call
	width  int
	height int
	errs   []driver.Error

	// Uniforms holds the last value set for each uniform
	// name (mgl32.Mat4 or int).
	Uniforms map[string]any

	// FailCompile makes NewProgram fail with
	// driver.ErrCompile.
	FailCompile bool
}

// NewRecorder creates a Recorder owned by drv.
func NewRecorder(drv driver.Driver) *Recorder {
	return &Recorder{
		drv:      drv,
		width:    300,
		height:   150,
		Uniforms: make(map[string]any),
	}
}

func (r *Recorder) record(name string, args ...any) {
	r.Calls = append(r.Calls, Call{name, args})
}

// Reset clears the recorded calls.
func (r *Recorder) Reset() { r.Calls = r.Calls[:0] }

// Count returns how many recorded calls have the given name.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Find returns the recorded calls with the given name.
func (r *Recorder) Find(name string) []Call {
	var cs []Call
	for _, c := range r.Calls {
		if c.Name == name {
			cs = append(cs, c)
		}
	}
	return cs
}

// Names returns the names of all recorded calls, in order.
func (r *Recorder) Names() []string {
	s := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		s[i] = c.Name
	}
	return s
}

// InjectError queues an error to be returned by Error.
func (r *Recorder) InjectError(e driver.Error) { r.errs = append(r.errs, e) }

// Program is the Recorder's driver.Program.
type Program struct {
	VertSrc, FragSrc string
	Destroyed        bool
}

func (p *Program) Destroy() { p.Destroyed = true }

// Buffer is the Recorder's driver.Buffer.
type Buffer struct {
	Floats    []float32
	Indices   []uint16
	Destroyed bool
}

func (b *Buffer) Destroy() { b.Destroyed = true }

func (b *Buffer) Len() int {
	if b.Indices != nil {
		return len(b.Indices)
	}
	return len(b.Floats)
}

// Texture is the Recorder's driver.Texture.
type Texture struct {
	Image     *image.RGBA
	Uploads   int
	Destroyed bool
}

func (t *Texture) Destroy() { t.Destroyed = true }

func (t *Texture) Size() (int, int) {
	if t.Image == nil {
		return 0, 0
	}
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Framebuffer is a driver.Framebuffer for use by fake
// presentation layers.
type Framebuffer struct {
	Label     string
	Destroyed bool
}

func (f *Framebuffer) Destroy() { f.Destroyed = true }

// Uniform is the Recorder's driver.Uniform.
type Uniform string

func (u Uniform) Name() string { return string(u) }

// Attributes known to every program created by the
// Recorder, in location order.
var Attributes = []string{"aVertexPosition", "aVertexNormal", "aTextureCoord"}

func (r *Recorder) Driver() driver.Driver { return r.drv }

func (r *Recorder) BindFramebuffer(fb driver.Framebuffer) { r.record("BindFramebuffer", fb) }

func (r *Recorder) ClearColor(cr, cg, cb, ca float32) { r.record("ClearColor", cr, cg, cb, ca) }

func (r *Recorder) ClearDepth(d float32) { r.record("ClearDepth", d) }

func (r *Recorder) Clear(mask driver.ClearMask) { r.record("Clear", mask) }

func (r *Recorder) Enable(c driver.Cap) { r.record("Enable", c) }

func (r *Recorder) DepthFunc(f driver.CmpFunc) { r.record("DepthFunc", f) }

func (r *Recorder) Viewport(x, y, width, height int) { r.record("Viewport", x, y, width, height) }

func (r *Recorder) SetCanvasSize(width, height int) {
	r.record("SetCanvasSize", width, height)
	r.width, r.height = width, height
}

func (r *Recorder) CanvasSize() (int, int) { return r.width, r.height }

func (r *Recorder) NewProgram(vertSrc, fragSrc string) (driver.Program, error) {
	r.record("NewProgram")
	if r.FailCompile {
		return nil, fmt.Errorf("%w: vertex shader: forced failure", driver.ErrCompile)
	}
	return &Program{VertSrc: vertSrc, FragSrc: fragSrc}, nil
}

func (r *Recorder) UseProgram(p driver.Program) { r.record("UseProgram", p) }

func (r *Recorder) AttribLocation(_ driver.Program, name string) int {
	for i, a := range Attributes {
		if a == name {
			return i
		}
	}
	return -1
}

func (r *Recorder) UniformLocation(_ driver.Program, name string) driver.Uniform {
	return Uniform(name)
}

func (r *Recorder) NewVertexBuffer(data []float32) (driver.Buffer, error) {
	r.record("NewVertexBuffer", len(data))
	return &Buffer{Floats: append([]float32(nil), data...)}, nil
}

func (r *Recorder) NewIndexBuffer(data []uint16) (driver.Buffer, error) {
	r.record("NewIndexBuffer", len(data))
	return &Buffer{Indices: append([]uint16(nil), data...)}, nil
}

func (r *Recorder) BindBuffer(target driver.Target, buf driver.Buffer) {
	r.record("BindBuffer", target, buf)
}

func (r *Recorder) VertexAttribPointer(loc int, f driver.VertexFmt, normalized bool, stride, offset int) {
	r.record("VertexAttribPointer", loc, f, normalized, stride, offset)
}

func (r *Recorder) EnableVertexAttribArray(loc int) { r.record("EnableVertexAttribArray", loc) }

func (r *Recorder) NewTexture() (driver.Texture, error) {
	r.record("NewTexture")
	return &Texture{}, nil
}

func (r *Recorder) TexImage(t driver.Texture, img *image.RGBA) {
	r.record("TexImage", t, img.Bounds())
	tex := t.(*Texture)
	tex.Image = img
	tex.Uploads++
}

func (r *Recorder) ActiveTexture(unit int) { r.record("ActiveTexture", unit) }

func (r *Recorder) BindTexture(t driver.Texture) { r.record("BindTexture", t) }

func (r *Recorder) UniformMatrix4(u driver.Uniform, m *mgl32.Mat4) {
	r.record("UniformMatrix4", u.Name(), *m)
	r.Uniforms[u.Name()] = *m
}

func (r *Recorder) Uniform1i(u driver.Uniform, v int) {
	r.record("Uniform1i", u.Name(), v)
	r.Uniforms[u.Name()] = v
}

func (r *Recorder) DrawElements(t driver.Topology, count int, f driver.IndexFmt, offset int) {
	r.record("DrawElements", t, count, f, offset)
}

func (r *Recorder) Error() error {
	if len(r.errs) == 0 {
		return nil
	}
	e := r.errs[0]
	r.errs = r.errs[1:]
	return e
}
