// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/xrcube/driver"
	"github.com/gviegas/xrcube/driver/soft/raster"
	"github.com/gviegas/xrcube/render"
	"github.com/gviegas/xrcube/texture"
	"github.com/gviegas/xrcube/xr"
)

// surface is a Surface that records what is drawn.
type surface struct {
	w, h  int
	fills []color.Color
	draws [][]raster.Triangle
	texs  []*Texture
}

func (s *surface) Size() (int, int)         { return s.w, s.h }
func (s *surface) Resize(width, height int) { s.w, s.h = width, height }
func (s *surface) Fill(c color.Color)       { s.fills = append(s.fills, c) }

func (s *surface) DrawTriangles(tris []raster.Triangle, tex *Texture) {
	s.draws = append(s.draws, tris)
	s.texs = append(s.texs, tex)
}

func open(t *testing.T) (*Context, *surface) {
	t.Helper()
	var sf *surface
	d := &Driver{NewSurface: func(w, h int) Surface {
		sf = &surface{w: w, h: h}
		return sf
	}}
	ctx, err := d.Open(driver.Options{XRCompatible: true, Width: 200, Height: 100})
	require.NoError(t, err)
	return ctx.(*Context), sf
}

const vert = `
attribute vec4 aPos;
attribute vec3 aNorm;
attribute vec2 aUV;
uniform mat4 uN;
uniform mat4 uMV;
uniform mat4 uP;
void main(void) {
	gl_Position = uP * uMV * aPos;
	highp vec4 n = uN * vec4(aNorm, 1.0);
}
`

const frag = `
uniform sampler2D uTex;
void main() {}
`

func TestRegistered(t *testing.T) {
	d, err := driver.Lookup("soft")
	require.NoError(t, err)
	assert.IsType(t, new(Driver), d)
}

func TestOpen(t *testing.T) {
	n := 0
	d := &Driver{NewSurface: func(w, h int) Surface {
		n++
		return &surface{w: w, h: h}
	}}
	c1, err := d.Open(driver.Options{})
	require.NoError(t, err)
	c2, _ := d.Open(driver.Options{Width: 10, Height: 10})
	assert.Same(t, c1, c2)
	assert.Equal(t, 1, n)
	w, h := c1.CanvasSize()
	if w != DefaultWidth || h != DefaultHeight {
		t.Fatalf("CanvasSize:\nhave %dx%d\nwant %dx%d", w, h, DefaultWidth, DefaultHeight)
	}
	assert.Equal(t, driverName, d.Name())
	assert.Same(t, d, c1.Driver())
	assert.Same(t, c1, d.Context())

	d.Close()
	assert.Nil(t, d.Context())
	c3, _ := d.Open(driver.Options{})
	assert.NotSame(t, c1, c3)
	assert.Equal(t, 2, n)
}

func TestLink(t *testing.T) {
	p, err := link(vert, frag)
	require.NoError(t, err)
	assert.Equal(t, []string{"aPos", "aNorm", "aUV"}, p.attrs)
	assert.Equal(t, "uP", p.proj)
	assert.Equal(t, "uMV", p.modelView)
	assert.Equal(t, "aPos", p.pos)
	assert.Equal(t, "uN", p.normMat)
	assert.Equal(t, "aNorm", p.norm)
	assert.Equal(t, "aUV", p.texCoord)
	assert.Equal(t, "uTex", p.sampler)
	assert.Equal(t, "sampler2D", p.uniforms["uTex"])
}

func TestLinkCubeProgram(t *testing.T) {
	p, err := link(render.ShaderSources())
	require.NoError(t, err)
	assert.Equal(t, []string{"aVertexPosition", "aVertexNormal", "aTextureCoord"}, p.attrs)
	assert.Equal(t, "uProjectionMatrix", p.proj)
	assert.Equal(t, "uModelViewMatrix", p.modelView)
	assert.Equal(t, "aVertexPosition", p.pos)
	assert.Equal(t, "uNormalMatrix", p.normMat)
	assert.Equal(t, "aVertexNormal", p.norm)
	assert.Equal(t, "aTextureCoord", p.texCoord)
	assert.Equal(t, "uSampler", p.sampler)
}

func TestLinkErrors(t *testing.T) {
	_, err := link("attribute vec4 a;", frag)
	assert.True(t, errors.Is(err, driver.ErrCompile), "no main")

	_, err = link("void main() { gl_Position = vec4(0); }", frag)
	assert.True(t, errors.Is(err, driver.ErrLink), "no transform")

	_, err = link("attribute vec4 a;\nuniform mat4 m;\nvoid main() { gl_Position = m * x * a; }", frag)
	assert.True(t, errors.Is(err, driver.ErrLink), "undeclared uniform")
}

func TestLocations(t *testing.T) {
	c, _ := open(t)
	p, err := c.NewProgram(vert, frag)
	require.NoError(t, err)
	assert.Equal(t, 0, c.AttribLocation(p, "aPos"))
	assert.Equal(t, 2, c.AttribLocation(p, "aUV"))
	assert.Equal(t, -1, c.AttribLocation(p, "nope"))
	assert.Equal(t, "uMV", c.UniformLocation(p, "uMV").Name())
	assert.Nil(t, c.UniformLocation(p, "nope"))
	assert.NoError(t, c.Error())
}

func TestErrorQueue(t *testing.T) {
	c, _ := open(t)
	assert.NoError(t, c.Error())
	c.DrawElements(driver.TTriangle, 3, driver.Index16, 0)
	c.DrawElements(driver.TTriangle, 3, driver.Index16, 0)
	c.Viewport(0, 0, -1, 1)
	assert.Equal(t, driver.InvalidOperation, c.Error())
	assert.Equal(t, driver.InvalidValue, c.Error())
	assert.NoError(t, c.Error())

	c.BindFramebuffer(nil)
	assert.NoError(t, c.Error())
	c.DrawElements(driver.TLine, 2, driver.Index16, 0)
	assert.Equal(t, driver.InvalidEnum, c.Error())
}

func TestClear(t *testing.T) {
	c, sf := open(t)
	c.ClearColor(1, 0, 0, 1)
	c.Clear(driver.DepthBit)
	assert.Empty(t, sf.fills)
	c.Clear(driver.ColorBit | driver.DepthBit)
	require.Len(t, sf.fills, 1)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, sf.fills[0])
}

func TestTexImage(t *testing.T) {
	c, _ := open(t)
	tx, err := c.NewTexture()
	require.NoError(t, err)
	w, h := tx.Size()
	assert.Zero(t, w+h)

	src := texture.Solid(color.RGBA{G: 255, A: 255})
	sub := image.NewRGBA(image.Rect(0, 0, 4, 2))
	sub.SetRGBA(2, 1, color.RGBA{R: 7, A: 255})
	c.TexImage(tx, src)
	c.TexImage(tx, sub.SubImage(image.Rect(1, 1, 3, 2)).(*image.RGBA))
	w, h = tx.Size()
	assert.Equal(t, [2]int{2, 1}, [2]int{w, h})
	assert.Equal(t, color.RGBA{R: 7, A: 255}, tx.(*Texture).RGBA().RGBAAt(1, 0))
	assert.Equal(t, 2, tx.(*Texture).gen)

	tx.Destroy()
	c.TexImage(tx, src)
	assert.Equal(t, driver.InvalidOperation, c.Error())
}

// quad sets up a unit quad facing +Z drawn with identity
// transforms.
func quad(t *testing.T, c *Context) {
	t.Helper()
	p, err := c.NewProgram(vert, frag)
	require.NoError(t, err)
	pos, _ := c.NewVertexBuffer([]float32{-0.5, -0.5, 0, 0.5, -0.5, 0, 0.5, 0.5, 0, -0.5, 0.5, 0})
	norm, _ := c.NewVertexBuffer([]float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1})
	uv, _ := c.NewVertexBuffer([]float32{0, 1, 1, 1, 1, 0, 0, 0})
	idx, _ := c.NewIndexBuffer([]uint16{0, 1, 2, 0, 2, 3})

	for _, a := range [...]struct {
		buf driver.Buffer
		loc int
		f   driver.VertexFmt
	}{{pos, 0, driver.Float32x3}, {norm, 1, driver.Float32x3}, {uv, 2, driver.Float32x2}} {
		c.BindBuffer(driver.TArray, a.buf)
		c.VertexAttribPointer(a.loc, a.f, false, 0, 0)
		c.EnableVertexAttribArray(a.loc)
	}
	c.BindBuffer(driver.TElementArray, idx)
	c.UseProgram(p)
	id := mgl32.Ident4()
	for _, s := range [...]string{"uP", "uMV", "uN"} {
		c.UniformMatrix4(c.UniformLocation(p, s), &id)
	}
	c.Uniform1i(c.UniformLocation(p, "uTex"), 0)
	require.NoError(t, c.Error())
}

func TestDrawElements(t *testing.T) {
	c, sf := open(t)
	quad(t, c)
	tx, _ := c.NewTexture()
	c.TexImage(tx, texture.Solid(texture.Placeholder))
	c.ActiveTexture(0)
	c.BindTexture(tx)

	c.Viewport(0, 0, 200, 100)
	c.DrawElements(driver.TTriangle, 6, driver.Index16, 0)
	require.NoError(t, c.Error())
	require.Len(t, sf.draws, 1)
	assert.Same(t, tx, sf.texs[0])

	tris := sf.draws[0]
	require.Len(t, tris, 2)
	p := tris[0].P[0]
	assert.InDelta(t, 50, p.X, 1e-4)
	assert.InDelta(t, 75, p.Y, 1e-4)
	assert.InDelta(t, 0.5, p.Z, 1e-4)
	assert.Equal(t, mgl32.Vec2{0, 1}, p.UV)
	assert.InDelta(t, raster.Lighting(mgl32.Vec3{0, 0, 1}), p.Light, 1e-6)

	// Second half of the index buffer only.
	c.DrawElements(driver.TTriangle, 3, driver.Index16, 6)
	require.NoError(t, c.Error())
	assert.Len(t, sf.draws[1], 1)

	c.DrawElements(driver.TTriangle, 6, driver.Index16, 2)
	assert.Equal(t, driver.InvalidOperation, c.Error())
}

func TestDrawElementsCull(t *testing.T) {
	c, sf := open(t)
	quad(t, c)
	flip := mgl32.HomogRotate3DY(mgl32.DegToRad(180))
	c.UniformMatrix4(c.UniformLocation(c.prog, "uMV"), &flip)

	c.DrawElements(driver.TTriangle, 6, driver.Index16, 0)
	assert.Len(t, sf.draws[0], 2)
	assert.Nil(t, sf.texs[0], "no texture bound")

	c.Enable(driver.CapCullFace)
	c.DrawElements(driver.TTriangle, 6, driver.Index16, 0)
	assert.Empty(t, sf.draws[1])
}

func TestDrawElementsDepthOrder(t *testing.T) {
	c, sf := open(t)
	quad(t, c)
	c.Enable(driver.CapDepthTest)
	c.DepthFunc(driver.CLessEqual)
	tilt := mgl32.HomogRotate3DX(mgl32.DegToRad(30))
	c.UniformMatrix4(c.UniformLocation(c.prog, "uMV"), &tilt)
	c.DrawElements(driver.TTriangle, 6, driver.Index16, 0)
	tris := sf.draws[0]
	require.Len(t, tris, 2)
	assert.GreaterOrEqual(t, tris[0].Depth, tris[1].Depth)

	c.DepthFunc(driver.CNever)
	c.DrawElements(driver.TTriangle, 6, driver.Index16, 0)
	assert.Len(t, sf.draws, 1)
}

// layer is a mono xr.Layer covering the whole surface.
type layer struct{ w, h int }

func (l layer) Framebuffer() driver.Framebuffer { return nil }
func (l layer) Viewport(*xr.View) xr.Viewport   { return xr.Viewport{Width: l.w, Height: l.h} }

func TestRenderCube(t *testing.T) {
	c, sf := open(t)
	res, err := render.NewResources(c)
	require.NoError(t, err)
	r := render.New(c, res, render.NewCube(mgl32.Vec3{0, 0, -10}, mgl32.Vec3{25, 15, 35}, true), nil, nil)

	pose := &xr.Pose{
		Transform: xr.Identity(),
		Views: []xr.View{{
			Projection: mgl32.Perspective(mgl32.DegToRad(60), 2, 0.1, 1000),
			Transform:  xr.Identity(),
		}},
	}
	mouse := mgl32.Ident4()
	r.DrawFrame(pose, layer{200, 100}, 0.5, &mouse)
	require.NoError(t, c.Error())

	require.Len(t, sf.fills, 1)
	require.Len(t, sf.draws, 1)
	tris := sf.draws[0]
	// Without culling every face is drawn.
	assert.Len(t, tris, render.IndexCount/3)
	for _, tri := range tris {
		for _, p := range tri.P {
			assert.True(t, p.X > 0 && p.X < 200 && p.Y > 0 && p.Y < 100, "cube is on screen")
		}
	}
	for i := 1; i < len(tris); i++ {
		assert.GreaterOrEqual(t, tris[i-1].Depth, tris[i].Depth)
	}
	require.NotNil(t, sf.texs[0])
	assert.Equal(t, texture.Placeholder, sf.texs[0].RGBA().RGBAAt(0, 0))
}
