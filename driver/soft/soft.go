// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package soft implements a software driver.Context that
// draws with Ebitengine.
// It supports the lit, textured triangle pipeline used to
// render the cube, not arbitrary shaders: programs must
// compute gl_Position as P * MV * position, and may light
// vertices with a normal matrix and sample one texture.
// Depth testing is approximated by drawing triangles from
// back to front.
package soft

import (
	"image"
	"image/color"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/xrcube/driver"
	"github.com/gviegas/xrcube/driver/soft/raster"
)

const driverName = "soft"

// Default surface dimensions.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

const maxUnits = 8

// Driver implements driver.Driver.
type Driver struct {
	// NewSurface creates the context's surface.
	// nil means NewEbitenSurface.
	NewSurface func(width, height int) Surface

	ctx *Context
}

func init() { driver.Register(new(Driver)) }

// Open implements driver.Driver.
// Every context is XR compatible.
func (d *Driver) Open(opts driver.Options) (driver.Context, error) {
	if d.ctx != nil {
		return d.ctx, nil
	}
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth, DefaultHeight
	}
	var sf Surface
	if d.NewSurface != nil {
		sf = d.NewSurface(w, h)
	} else {
		sf = NewEbitenSurface(w, h)
	}
	d.ctx = &Context{
		drv:       d,
		sf:        sf,
		clearA:    1,
		depthFunc: driver.CLess,
		viewport:  raster.Viewport{Width: float32(w), Height: float32(h)},
		attribs:   make(map[int]*attrib),
	}
	return d.ctx, nil
}

// Name implements driver.Driver.
func (d *Driver) Name() string { return driverName }

// Close implements driver.Driver.
func (d *Driver) Close() { d.ctx = nil }

// Context returns the open context, or nil.
func (d *Driver) Context() *Context { return d.ctx }

// attrib is the state of a vertex attribute location.
type attrib struct {
	buf     *buffer
	comps   int
	stride  int
	offset  int
	enabled bool
}

// fetch returns the value of the attribute for vertex i,
// filling missing components with (0, 0, 0, 1).
func (a *attrib) fetch(i int) (v mgl32.Vec4, ok bool) {
	v = mgl32.Vec4{0, 0, 0, 1}
	if a == nil || !a.enabled || a.buf == nil {
		return v, false
	}
	stride := a.stride / 4
	if stride == 0 {
		stride = a.comps
	}
	base := a.offset/4 + i*stride
	if base+a.comps > len(a.buf.f32) {
		return v, false
	}
	copy(v[:a.comps], a.buf.f32[base:])
	return v, true
}

// count returns how many whole vertices the attribute's
// buffer holds.
func (a *attrib) count() int {
	if a == nil || a.buf == nil {
		return 0
	}
	stride := a.stride / 4
	if stride == 0 {
		stride = a.comps
	}
	n := len(a.buf.f32) - a.offset/4
	if n < a.comps {
		return 0
	}
	return (n-a.comps)/stride + 1
}

type buffer struct {
	f32       []float32
	u16       []uint16
	destroyed bool
}

func (b *buffer) Len() int {
	if b.f32 != nil {
		return len(b.f32)
	}
	return len(b.u16)
}

func (b *buffer) Destroy() {
	b.f32, b.u16 = nil, nil
	b.destroyed = true
}

// Context implements driver.Context.
type Context struct {
	drv *Driver
	sf  Surface

	clearR, clearG, clearB, clearA float32
	clearDepth                     float32

	depthTest bool
	cullFace  bool
	depthFunc driver.CmpFunc
	viewport  raster.Viewport

	prog    *program
	array   *buffer
	element *buffer
	attribs map[int]*attrib
	unit    int
	units   [maxUnits]*Texture

	errs []driver.Error
}

// Surface returns the context's surface.
func (c *Context) Surface() Surface { return c.sf }

func (c *Context) seterr(e driver.Error) {
	// Like WebGL, only the first error of each kind is
	// kept until read.
	if !slices.Contains(c.errs, e) {
		c.errs = append(c.errs, e)
	}
}

func (c *Context) Driver() driver.Driver { return c.drv }

// BindFramebuffer implements driver.Context.
// Only the default framebuffer exists.
func (c *Context) BindFramebuffer(fb driver.Framebuffer) {
	if fb != nil {
		c.seterr(driver.InvalidFramebufferOperation)
	}
}

func (c *Context) ClearColor(r, g, b, a float32) {
	c.clearR, c.clearG, c.clearB, c.clearA = r, g, b, a
}

func (c *Context) ClearDepth(d float32) { c.clearDepth = mgl32.Clamp(d, 0, 1) }

// Clear implements driver.Context.
// Triangles are depth sorted, so there is no depth buffer
// to clear.
func (c *Context) Clear(mask driver.ClearMask) {
	if mask&^(driver.ColorBit|driver.DepthBit|driver.StencilBit) != 0 {
		c.seterr(driver.InvalidValue)
		return
	}
	if mask&driver.ColorBit != 0 {
		c.sf.Fill(color.NRGBA{
			R: unorm(c.clearR),
			G: unorm(c.clearG),
			B: unorm(c.clearB),
			A: unorm(c.clearA),
		})
	}
}

func unorm(x float32) uint8 { return uint8(mgl32.Clamp(x, 0, 1)*255 + 0.5) }

func (c *Context) Enable(cp driver.Cap) {
	switch cp {
	case driver.CapDepthTest:
		c.depthTest = true
	case driver.CapCullFace:
		c.cullFace = true
	case driver.CapBlend:
	default:
		c.seterr(driver.InvalidEnum)
	}
}

func (c *Context) DepthFunc(f driver.CmpFunc) {
	if f < driver.CNever || f > driver.CAlways {
		c.seterr(driver.InvalidEnum)
		return
	}
	c.depthFunc = f
}

func (c *Context) Viewport(x, y, width, height int) {
	if width < 0 || height < 0 {
		c.seterr(driver.InvalidValue)
		return
	}
	c.viewport = raster.Viewport{
		X:      float32(x),
		Y:      float32(y),
		Width:  float32(width),
		Height: float32(height),
	}
}

func (c *Context) SetCanvasSize(width, height int) {
	if width <= 0 || height <= 0 {
		c.seterr(driver.InvalidValue)
		return
	}
	c.sf.Resize(width, height)
}

func (c *Context) CanvasSize() (width, height int) { return c.sf.Size() }

func (c *Context) NewProgram(vertSrc, fragSrc string) (driver.Program, error) {
	p, err := link(vertSrc, fragSrc)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Context) UseProgram(p driver.Program) {
	if p == nil {
		c.prog = nil
		return
	}
	sp, ok := p.(*program)
	if !ok || sp.destroyed {
		c.seterr(driver.InvalidOperation)
		return
	}
	c.prog = sp
}

func (c *Context) AttribLocation(p driver.Program, name string) int {
	sp, ok := p.(*program)
	if !ok {
		c.seterr(driver.InvalidOperation)
		return -1
	}
	return sp.attrLoc(name)
}

func (c *Context) UniformLocation(p driver.Program, name string) driver.Uniform {
	sp, ok := p.(*program)
	if !ok {
		c.seterr(driver.InvalidOperation)
		return nil
	}
	if _, ok := sp.uniforms[name]; !ok {
		return nil
	}
	return &uniform{prog: sp, name: name}
}

func (c *Context) NewVertexBuffer(data []float32) (driver.Buffer, error) {
	return &buffer{f32: slices.Clone(data)}, nil
}

func (c *Context) NewIndexBuffer(data []uint16) (driver.Buffer, error) {
	return &buffer{u16: slices.Clone(data)}, nil
}

func (c *Context) BindBuffer(t driver.Target, buf driver.Buffer) {
	var b *buffer
	if buf != nil {
		var ok bool
		if b, ok = buf.(*buffer); !ok || b.destroyed {
			c.seterr(driver.InvalidOperation)
			return
		}
	}
	switch t {
	case driver.TArray:
		if b != nil && b.f32 == nil {
			c.seterr(driver.InvalidOperation)
			return
		}
		c.array = b
	case driver.TElementArray:
		if b != nil && b.u16 == nil {
			c.seterr(driver.InvalidOperation)
			return
		}
		c.element = b
	default:
		c.seterr(driver.InvalidEnum)
	}
}

func (c *Context) attrib(loc int) *attrib {
	a := c.attribs[loc]
	if a == nil {
		a = new(attrib)
		c.attribs[loc] = a
	}
	return a
}

func (c *Context) VertexAttribPointer(loc int, f driver.VertexFmt, normalized bool, stride, offset int) {
	switch {
	case loc < 0:
		c.seterr(driver.InvalidValue)
		return
	case f < driver.Float32 || f > driver.Float32x4:
		c.seterr(driver.InvalidEnum)
		return
	case stride < 0 || offset < 0 || stride%4 != 0 || offset%4 != 0:
		c.seterr(driver.InvalidOperation)
		return
	case c.array == nil:
		c.seterr(driver.InvalidOperation)
		return
	}
	a := c.attrib(loc)
	a.buf = c.array
	a.comps = f.Components()
	a.stride = stride
	a.offset = offset
}

func (c *Context) EnableVertexAttribArray(loc int) {
	if loc < 0 {
		c.seterr(driver.InvalidValue)
		return
	}
	c.attrib(loc).enabled = true
}

func (c *Context) NewTexture() (driver.Texture, error) { return new(Texture), nil }

// TexImage implements driver.Context.
// Sampling is always linear, without mipmaps.
func (c *Context) TexImage(t driver.Texture, img *image.RGBA) {
	st, ok := t.(*Texture)
	if !ok || st.destroyed || img == nil {
		c.seterr(driver.InvalidOperation)
		return
	}
	cp := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	for y := 0; y < cp.Rect.Dy(); y++ {
		i := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(cp.Pix[y*cp.Stride:][:cp.Stride], img.Pix[i:])
	}
	st.img = cp
	st.gen++
}

func (c *Context) ActiveTexture(unit int) {
	if unit < 0 || unit >= maxUnits {
		c.seterr(driver.InvalidEnum)
		return
	}
	c.unit = unit
}

func (c *Context) BindTexture(t driver.Texture) {
	if t == nil {
		c.units[c.unit] = nil
		return
	}
	st, ok := t.(*Texture)
	if !ok || st.destroyed {
		c.seterr(driver.InvalidOperation)
		return
	}
	c.units[c.unit] = st
}

// setUniform stores v for u, which must belong to the
// current program. A nil u is ignored.
func (c *Context) setUniform(u driver.Uniform, typ string, v any) {
	if u == nil {
		return
	}
	su, ok := u.(*uniform)
	if !ok || c.prog == nil || su.prog != c.prog {
		c.seterr(driver.InvalidOperation)
		return
	}
	if t := c.prog.uniforms[su.name]; t != typ && !(typ == "int" && t == "sampler2D") {
		c.seterr(driver.InvalidOperation)
		return
	}
	c.prog.values[su.name] = v
}

func (c *Context) UniformMatrix4(u driver.Uniform, m *mgl32.Mat4) {
	c.setUniform(u, "mat4", *m)
}

func (c *Context) Uniform1i(u driver.Uniform, v int) { c.setUniform(u, "int", v) }

func (c *Context) mat4(name string) mgl32.Mat4 {
	if m, ok := c.prog.values[name].(mgl32.Mat4); ok {
		return m
	}
	return mgl32.Mat4{}
}

// DrawElements implements driver.Context.
// Only triangles with 16-bit indices are supported.
func (c *Context) DrawElements(t driver.Topology, count int, f driver.IndexFmt, offset int) {
	switch {
	case t != driver.TTriangle || f != driver.Index16:
		c.seterr(driver.InvalidEnum)
		return
	case count < 0 || offset < 0:
		c.seterr(driver.InvalidValue)
		return
	case c.prog == nil || c.element == nil || offset%2 != 0:
		c.seterr(driver.InvalidOperation)
		return
	}
	first := offset / 2
	if first+count > len(c.element.u16) {
		c.seterr(driver.InvalidOperation)
		return
	}
	if count == 0 {
		return
	}
	idx := c.element.u16[first : first+count]

	p := c.prog
	pos := c.attribs[p.attrLoc(p.pos)]
	if pos == nil || !pos.enabled {
		c.seterr(driver.InvalidOperation)
		return
	}
	norm := c.attribs[p.attrLoc(p.norm)]
	uv := c.attribs[p.attrLoc(p.texCoord)]
	n := pos.count()
	if hi := slices.Max(idx); int(hi) >= n {
		c.seterr(driver.InvalidOperation)
		return
	}

	mvp := c.mat4(p.proj).Mul4(c.mat4(p.modelView))
	nm := c.mat4(p.normMat)
	verts := make([]raster.Vertex, n)
	for i := range verts {
		v, _ := pos.fetch(i)
		verts[i].Pos = mvp.Mul4x1(v)
		verts[i].Light = 1
		if p.norm != "" {
			if nv, ok := norm.fetch(i); ok {
				nv[3] = 1
				verts[i].Light = raster.Lighting(nm.Mul4x1(nv).Vec3())
			}
		}
		if tc, ok := uv.fetch(i); ok {
			verts[i].UV = tc.Vec2()
		}
	}

	_, h := c.sf.Size()
	tris := raster.Assemble(verts, idx, c.viewport, float32(h), c.cullFace)
	if c.depthTest {
		switch c.depthFunc {
		case driver.CNever:
			return
		case driver.CGreater, driver.CGreaterEqual:
			raster.SortBackToFront(tris)
			slices.Reverse(tris)
		case driver.CLess, driver.CLessEqual:
			raster.SortBackToFront(tris)
		}
	}

	var tex *Texture
	if p.sampler != "" {
		unit, _ := p.values[p.sampler].(int)
		if unit >= 0 && unit < maxUnits {
			tex = c.units[unit]
		}
	}
	c.sf.DrawTriangles(tris, tex)
}

func (c *Context) Error() error {
	if len(c.errs) == 0 {
		return nil
	}
	e := c.errs[0]
	c.errs = c.errs[1:]
	return e
}
