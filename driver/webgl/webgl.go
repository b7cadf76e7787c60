// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build js && wasm

// Package webgl implements driver.Driver on top of the
// browser's WebGL 1 API.
package webgl

import (
	"fmt"
	"image"
	"syscall/js"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/xrcube/driver"
	"github.com/gviegas/xrcube/internal/jsutil"
)

const driverName = "webgl"

func init() {
	driver.Register(new(Driver))
}

// Driver implements driver.Driver.
type Driver struct {
	ctx  *Context
	opts driver.Options
}

// Open implements driver.Driver.
func (d *Driver) Open(opts driver.Options) (driver.Context, error) {
	if d.ctx != nil {
		if opts == d.opts {
			return d.ctx, nil
		}
		d.Close()
	}
	doc := js.Global().Get("document")
	if !jsutil.Valid(doc) {
		return nil, driver.ErrNotInstalled
	}
	var canvas js.Value
	if opts.Target != "" {
		canvas = doc.Call("querySelector", opts.Target)
	}
	if !jsutil.Valid(canvas) {
		canvas = doc.Call("createElement", "canvas")
		doc.Get("body").Call("appendChild", canvas)
	}
	if opts.Width > 0 && opts.Height > 0 {
		canvas.Set("width", opts.Width)
		canvas.Set("height", opts.Height)
	}
	attrs := map[string]any{"xrCompatible": opts.XRCompatible}
	gl := canvas.Call("getContext", "webgl", attrs)
	if !jsutil.Valid(gl) {
		return nil, fmt.Errorf("%w: WebGL", driver.ErrNotInstalled)
	}
	c := &Context{drv: d, canvas: canvas, gl: gl}
	c.loadConsts()
	d.ctx = c
	d.opts = opts
	return c, nil
}

// Name implements driver.Driver.
func (d *Driver) Name() string { return driverName }

// Close implements driver.Driver.
func (d *Driver) Close() {
	if d.ctx == nil {
		return
	}
	if ext := d.ctx.gl.Call("getExtension", "WEBGL_lose_context"); jsutil.Valid(ext) {
		ext.Call("loseContext")
	}
	d.ctx = nil
}

type consts struct {
	colorBit, depthBit, stencilBit int
	depthTest, cullFace, blend     int
	cmp                            [8]int
	arrayBuffer, elementArray      int
	staticDraw                     int
	float, unsignedShort, uint     int
	points, lines, triangles       int
	framebuffer                    int
	texture2D, texture0            int
	rgba, unsignedByte             int
	wrapS, wrapT, clampToEdge      int
	minFilter, linear              int
	vertexShader, fragmentShader   int
	compileStatus, linkStatus      int
}

// Context implements driver.Context.
type Context struct {
	drv    *Driver
	canvas js.Value
	gl     js.Value
	k      consts
}

func (c *Context) loadConsts() {
	g := func(name string) int { return c.gl.Get(name).Int() }
	c.k = consts{
		colorBit:   g("COLOR_BUFFER_BIT"),
		depthBit:   g("DEPTH_BUFFER_BIT"),
		stencilBit: g("STENCIL_BUFFER_BIT"),
		depthTest:  g("DEPTH_TEST"),
		cullFace:   g("CULL_FACE"),
		blend:      g("BLEND"),
		cmp: [8]int{
			g("NEVER"), g("LESS"), g("EQUAL"), g("LEQUAL"),
			g("GREATER"), g("NOTEQUAL"), g("GEQUAL"), g("ALWAYS"),
		},
		arrayBuffer:    g("ARRAY_BUFFER"),
		elementArray:   g("ELEMENT_ARRAY_BUFFER"),
		staticDraw:     g("STATIC_DRAW"),
		float:          g("FLOAT"),
		unsignedShort:  g("UNSIGNED_SHORT"),
		uint:           g("UNSIGNED_INT"),
		points:         g("POINTS"),
		lines:          g("LINES"),
		triangles:      g("TRIANGLES"),
		framebuffer:    g("FRAMEBUFFER"),
		texture2D:      g("TEXTURE_2D"),
		texture0:       g("TEXTURE0"),
		rgba:           g("RGBA"),
		unsignedByte:   g("UNSIGNED_BYTE"),
		wrapS:          g("TEXTURE_WRAP_S"),
		wrapT:          g("TEXTURE_WRAP_T"),
		clampToEdge:    g("CLAMP_TO_EDGE"),
		minFilter:      g("TEXTURE_MIN_FILTER"),
		linear:         g("LINEAR"),
		vertexShader:   g("VERTEX_SHADER"),
		fragmentShader: g("FRAGMENT_SHADER"),
		compileStatus:  g("COMPILE_STATUS"),
		linkStatus:     g("LINK_STATUS"),
	}
}

// JSValue returns the WebGLRenderingContext.
func (c *Context) JSValue() js.Value { return c.gl }

// Driver implements driver.Context.
func (c *Context) Driver() driver.Driver { return c.drv }

// BindFramebuffer implements driver.Context.
func (c *Context) BindFramebuffer(fb driver.Framebuffer) {
	v := js.Null()
	if f, ok := fb.(*Framebuffer); ok && f != nil {
		v = f.v
	}
	c.gl.Call("bindFramebuffer", c.k.framebuffer, v)
}

func (c *Context) ClearColor(r, g, b, a float32) { c.gl.Call("clearColor", r, g, b, a) }

func (c *Context) ClearDepth(d float32) { c.gl.Call("clearDepth", d) }

func (c *Context) Clear(mask driver.ClearMask) {
	var m int
	if mask&driver.ColorBit != 0 {
		m |= c.k.colorBit
	}
	if mask&driver.DepthBit != 0 {
		m |= c.k.depthBit
	}
	if mask&driver.StencilBit != 0 {
		m |= c.k.stencilBit
	}
	c.gl.Call("clear", m)
}

func (c *Context) Enable(cp driver.Cap) {
	switch cp {
	case driver.CapDepthTest:
		c.gl.Call("enable", c.k.depthTest)
	case driver.CapCullFace:
		c.gl.Call("enable", c.k.cullFace)
	case driver.CapBlend:
		c.gl.Call("enable", c.k.blend)
	}
}

func (c *Context) DepthFunc(f driver.CmpFunc) {
	if f >= driver.CNever && f <= driver.CAlways {
		c.gl.Call("depthFunc", c.k.cmp[f])
	}
}

func (c *Context) Viewport(x, y, width, height int) { c.gl.Call("viewport", x, y, width, height) }

func (c *Context) SetCanvasSize(width, height int) {
	c.canvas.Set("width", width)
	c.canvas.Set("height", height)
}

func (c *Context) CanvasSize() (int, int) {
	return c.canvas.Get("width").Int(), c.canvas.Get("height").Int()
}

func (c *Context) compile(typ int, src string) (js.Value, error) {
	sh := c.gl.Call("createShader", typ)
	c.gl.Call("shaderSource", sh, src)
	c.gl.Call("compileShader", sh)
	if !c.gl.Call("getShaderParameter", sh, c.k.compileStatus).Bool() {
		msg := c.gl.Call("getShaderInfoLog", sh).String()
		c.gl.Call("deleteShader", sh)
		return js.Null(), fmt.Errorf("%w: %s", driver.ErrCompile, msg)
	}
	return sh, nil
}

// NewProgram implements driver.Context.
func (c *Context) NewProgram(vertSrc, fragSrc string) (driver.Program, error) {
	vs, err := c.compile(c.k.vertexShader, vertSrc)
	if err != nil {
		return nil, err
	}
	fs, err := c.compile(c.k.fragmentShader, fragSrc)
	if err != nil {
		c.gl.Call("deleteShader", vs)
		return nil, err
	}
	p := c.gl.Call("createProgram")
	c.gl.Call("attachShader", p, vs)
	c.gl.Call("attachShader", p, fs)
	c.gl.Call("linkProgram", p)
	c.gl.Call("deleteShader", vs)
	c.gl.Call("deleteShader", fs)
	if !c.gl.Call("getProgramParameter", p, c.k.linkStatus).Bool() {
		msg := c.gl.Call("getProgramInfoLog", p).String()
		c.gl.Call("deleteProgram", p)
		return nil, fmt.Errorf("%w: %s", driver.ErrLink, msg)
	}
	return &program{gl: c.gl, v: p}, nil
}

func (c *Context) UseProgram(p driver.Program) { c.gl.Call("useProgram", p.(*program).v) }

func (c *Context) AttribLocation(p driver.Program, name string) int {
	return c.gl.Call("getAttribLocation", p.(*program).v, name).Int()
}

func (c *Context) UniformLocation(p driver.Program, name string) driver.Uniform {
	v := c.gl.Call("getUniformLocation", p.(*program).v, name)
	if !jsutil.Valid(v) {
		return nil
	}
	return &uniform{name: name, v: v}
}

func (c *Context) newBuffer(target int, data js.Value, n int) *buffer {
	b := c.gl.Call("createBuffer")
	c.gl.Call("bindBuffer", target, b)
	c.gl.Call("bufferData", target, data, c.k.staticDraw)
	return &buffer{gl: c.gl, v: b, n: n}
}

func (c *Context) NewVertexBuffer(data []float32) (driver.Buffer, error) {
	return c.newBuffer(c.k.arrayBuffer, jsutil.Float32Array(data), len(data)), nil
}

func (c *Context) NewIndexBuffer(data []uint16) (driver.Buffer, error) {
	return c.newBuffer(c.k.elementArray, jsutil.Uint16Array(data), len(data)), nil
}

func (c *Context) BindBuffer(target driver.Target, buf driver.Buffer) {
	t := c.k.arrayBuffer
	if target == driver.TElementArray {
		t = c.k.elementArray
	}
	c.gl.Call("bindBuffer", t, buf.(*buffer).v)
}

func (c *Context) VertexAttribPointer(loc int, f driver.VertexFmt, normalized bool, stride, offset int) {
	c.gl.Call("vertexAttribPointer", loc, f.Components(), c.k.float, normalized, stride, offset)
}

func (c *Context) EnableVertexAttribArray(loc int) { c.gl.Call("enableVertexAttribArray", loc) }

func (c *Context) NewTexture() (driver.Texture, error) {
	return &texture{gl: c.gl, v: c.gl.Call("createTexture")}, nil
}

func isPowerOf2(n int) bool { return n > 0 && n&(n-1) == 0 }

// TexImage implements driver.Context.
func (c *Context) TexImage(t driver.Texture, img *image.RGBA) {
	tex := t.(*texture)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	pix := img.Pix
	if img.Stride != w*4 || img.Rect.Min != (image.Point{}) {
		pix = make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
			copy(pix[y*w*4:(y+1)*w*4], img.Pix[off:off+w*4])
		}
	}
	k := &c.k
	c.gl.Call("bindTexture", k.texture2D, tex.v)
	c.gl.Call("texImage2D", k.texture2D, 0, k.rgba, w, h, 0, k.rgba, k.unsignedByte, jsutil.Uint8Array(pix))
	if isPowerOf2(w) && isPowerOf2(h) {
		c.gl.Call("generateMipmap", k.texture2D)
	} else {
		c.gl.Call("texParameteri", k.texture2D, k.wrapS, k.clampToEdge)
		c.gl.Call("texParameteri", k.texture2D, k.wrapT, k.clampToEdge)
		c.gl.Call("texParameteri", k.texture2D, k.minFilter, k.linear)
	}
	tex.w, tex.h = w, h
}

func (c *Context) ActiveTexture(unit int) { c.gl.Call("activeTexture", c.k.texture0+unit) }

func (c *Context) BindTexture(t driver.Texture) { c.gl.Call("bindTexture", c.k.texture2D, t.(*texture).v) }

func (c *Context) UniformMatrix4(u driver.Uniform, m *mgl32.Mat4) {
	if u == nil {
		return
	}
	c.gl.Call("uniformMatrix4fv", u.(*uniform).v, false, jsutil.Float32Array(m[:]))
}

func (c *Context) Uniform1i(u driver.Uniform, v int) {
	if u == nil {
		return
	}
	c.gl.Call("uniform1i", u.(*uniform).v, v)
}

func (c *Context) DrawElements(t driver.Topology, count int, f driver.IndexFmt, offset int) {
	mode := c.k.triangles
	switch t {
	case driver.TPoint:
		mode = c.k.points
	case driver.TLine:
		mode = c.k.lines
	}
	typ := c.k.unsignedShort
	if f == driver.Index32 {
		typ = c.k.uint
	}
	c.gl.Call("drawElements", mode, count, typ, offset)
}

// Error implements driver.Context.
func (c *Context) Error() error {
	if e := c.gl.Call("getError").Int(); e != 0 {
		return driver.Error(e)
	}
	return nil
}

type program struct {
	gl js.Value
	v  js.Value
}

func (p *program) Destroy() { p.gl.Call("deleteProgram", p.v) }

type buffer struct {
	gl js.Value
	v  js.Value
	n  int
}

func (b *buffer) Destroy() { b.gl.Call("deleteBuffer", b.v) }

func (b *buffer) Len() int { return b.n }

type texture struct {
	gl   js.Value
	v    js.Value
	w, h int
}

func (t *texture) Destroy() { t.gl.Call("deleteTexture", t.v) }

func (t *texture) Size() (int, int) { return t.w, t.h }

type uniform struct {
	name string
	v    js.Value
}

func (u *uniform) Name() string { return u.name }

// Framebuffer wraps a WebGLFramebuffer created outside the
// driver, such as the one backing an XR layer.
type Framebuffer struct {
	v js.Value
}

// NewFramebuffer wraps v. A null v denotes the default
// framebuffer.
func NewFramebuffer(v js.Value) *Framebuffer { return &Framebuffer{v: v} }

// Destroy is a no-op: the framebuffer is owned by its
// creator.
func (f *Framebuffer) Destroy() {}
