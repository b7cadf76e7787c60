// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gviegas/xrcube/diag"
	"github.com/gviegas/xrcube/driver"
	"github.com/gviegas/xrcube/driver/drivertest"
	"github.com/gviegas/xrcube/texture"
	"github.com/gviegas/xrcube/xr"
)

// layer is an xr.Layer splitting a 200x100 framebuffer
// between the eyes.
type layer struct {
	fb *drivertest.Framebuffer
}

func (l *layer) Framebuffer() driver.Framebuffer {
	if l.fb == nil {
		return nil
	}
	return l.fb
}

func (l *layer) Viewport(v *xr.View) xr.Viewport {
	switch v.Eye {
	case xr.EyeLeft:
		return xr.Viewport{X: 0, Y: 0, Width: 100, Height: 100}
	case xr.EyeRight:
		return xr.Viewport{X: 100, Y: 0, Width: 100, Height: 100}
	}
	return xr.Viewport{Width: 200, Height: 100}
}

func newRenderer(t *testing.T, cube Cube) (*Renderer, *drivertest.Recorder, *diag.Table) {
	t.Helper()
	rec := drivertest.NewRecorder(nil)
	res, err := NewResources(rec)
	require.NoError(t, err)
	tab := new(diag.Table)
	return New(rec, res, cube, tab, nil), rec, tab
}

func monoPose() *xr.Pose {
	return &xr.Pose{
		Transform: xr.Identity(),
		Views: []xr.View{{
			Eye:        xr.EyeNone,
			Projection: mgl32.Perspective(mgl32.DegToRad(90), 2, 0.1, 1000),
			Transform:  xr.Identity(),
		}},
	}
}

func stereoPose() *xr.Pose {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 1000)
	return &xr.Pose{
		Transform: xr.Identity(),
		Views: []xr.View{
			{Eye: xr.EyeLeft, Projection: proj, Transform: xr.NewRigidTransform(mgl32.Vec3{-0.032, 0, 0}, mgl32.QuatIdent())},
			{Eye: xr.EyeRight, Projection: proj, Transform: xr.NewRigidTransform(mgl32.Vec3{0.032, 0, 0}, mgl32.QuatIdent())},
		},
	}
}

var rates = mgl32.Vec3{25, 15, 35}

func TestNewResources(t *testing.T) {
	rec := drivertest.NewRecorder(nil)
	res, err := NewResources(rec)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Attrib.Position)
	assert.Equal(t, 1, res.Attrib.Normal)
	assert.Equal(t, 2, res.Attrib.TexCoord)
	assert.Equal(t, 72, res.Position.Len())
	assert.Equal(t, 72, res.Normal.Len())
	assert.Equal(t, 48, res.TexCoord.Len())
	assert.Equal(t, IndexCount, res.Indices.Len())

	tex := res.Texture.(*drivertest.Texture)
	require.NotNil(t, tex.Image)
	assert.Equal(t, texture.Placeholder, tex.Image.RGBAAt(0, 0))

	for _, i := range cubeIdx {
		if int(i) >= len(cubePos)/3 {
			t.Fatalf("cubeIdx: index %d out of range", i)
		}
	}

	res.Destroy()
	assert.True(t, res.Program.(*drivertest.Program).Destroyed)
	assert.True(t, tex.Destroyed)
}

func TestNewResourcesCompileError(t *testing.T) {
	rec := drivertest.NewRecorder(nil)
	rec.FailCompile = true
	_, err := NewResources(rec)
	assert.True(t, errors.Is(err, driver.ErrCompile))
}

func TestCubeAdvanceZero(t *testing.T) {
	c := NewCube(mgl32.Vec3{0, 0, -10}, rates, true)
	m := c.Matrix
	c.Advance(0)
	assert.Equal(t, m, c.Matrix)
}

func TestCubeAdvance(t *testing.T) {
	const dt = 0.016
	c := NewCube(mgl32.Vec3{0, 0, -10}, rates, true)
	start := c.Matrix
	c.Advance(dt)
	want := start.
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(rates[2] * dt))).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(rates[1] * dt))).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(rates[0] * dt)))
	assert.InDeltaSlice(t, want[:], c.Matrix[:], 1e-6)
	// Rotation does not move the cube.
	assert.Equal(t, start.Col(3), c.Matrix.Col(3))

	c = NewCube(mgl32.Vec3{0, 0, -10}, rates, false)
	c.Advance(dt)
	assert.Equal(t, start, c.Matrix)
}

func TestRenderSceneZeroDelta(t *testing.T) {
	r, _, _ := newRenderer(t, NewCube(mgl32.Vec3{0, 0, -10}, rates, true))
	m := r.Cube.Matrix
	pose := monoPose()
	mouse := mgl32.Ident4()
	r.RenderScene(&pose.Views[0], 0, &mouse)
	assert.Equal(t, m, r.Cube.Matrix)
}

func TestRenderScene(t *testing.T) {
	r, rec, tab := newRenderer(t, NewCube(mgl32.Vec3{0, 0, -10}, rates, false))
	rec.Reset()
	pose := monoPose()
	view := &pose.Views[0]
	view.Transform = xr.NewRigidTransform(mgl32.Vec3{1, 2, 3}, mgl32.QuatRotate(0.4, mgl32.Vec3{0, 1, 0}))
	mouse := mgl32.Translate3D(0, 0, 1)
	r.RenderScene(view, 0, &mouse)

	wantMV := view.Transform.Matrix().Inv().Mul4(r.Cube.Matrix)
	mv := r.ModelView()
	assert.InDeltaSlice(t, wantMV[:], mv[:], 1e-4)
	wantN := mv.Inv().Transpose()
	assert.Equal(t, wantN, r.Normal())

	assert.Equal(t, r.ModelView(), rec.Uniforms[unifModelView])
	assert.Equal(t, view.Projection, rec.Uniforms[unifProjection])
	assert.Equal(t, r.Normal(), rec.Uniforms[unifNormal])
	assert.Equal(t, 0, rec.Uniforms[unifSampler])

	draws := rec.Find("DrawElements")
	require.Len(t, draws, 1)
	assert.Equal(t, []any{driver.TTriangle, IndexCount, driver.Index16, 0}, draws[0].Args)
	assert.Equal(t, 3, rec.Count("EnableVertexAttribArray"))
	assert.Equal(t, []any{driver.CapDepthTest}, rec.Find("Enable")[0].Args)
	assert.Equal(t, []any{driver.CLessEqual}, rec.Find("DepthFunc")[0].Args)

	for _, s := range [...]diag.Slot{diag.Projection, diag.ModelView, diag.Camera, diag.Mouse} {
		_, ok := tab.Get(s)
		assert.True(t, ok, s.String())
	}
	cam, _ := tab.Get(diag.Camera)
	assert.Equal(t, view.Transform.Matrix(), cam)
	mm, _ := tab.Get(diag.Mouse)
	assert.Equal(t, mouse, mm)
}

func TestDrawFrameMono(t *testing.T) {
	r, rec, _ := newRenderer(t, NewCube(mgl32.Vec3{0, 0, -10}, rates, true))
	rec.Reset()
	l := &layer{fb: &drivertest.Framebuffer{Label: "xr"}}
	mouse := mgl32.Ident4()
	r.DrawFrame(monoPose(), l, 0.016, &mouse)

	names := rec.Names()
	require.GreaterOrEqual(t, len(names), 4)
	assert.Equal(t, []string{"BindFramebuffer", "ClearColor", "ClearDepth", "Clear"}, names[:4])
	assert.Equal(t, []any{driver.Framebuffer(l.fb)}, rec.Calls[0].Args)
	assert.Equal(t, []any{float32(0), float32(0), float32(0), float32(1)}, rec.Calls[1].Args)
	assert.Equal(t, []any{driver.ColorBit | driver.DepthBit}, rec.Calls[3].Args)
	assert.Equal(t, []any{0, 0, 200, 100}, rec.Find("Viewport")[0].Args)
	w, h := rec.CanvasSize()
	assert.Equal(t, [2]int{200, 100}, [2]int{w, h})
	assert.Equal(t, 1, rec.Count("DrawElements"))
}

func TestDrawFrameStereo(t *testing.T) {
	const dt = 0.016
	r, rec, _ := newRenderer(t, NewCube(mgl32.Vec3{0, 0, -10}, rates, true))
	rec.Reset()
	l := &layer{}
	mouse := mgl32.Ident4()
	want := NewCube(mgl32.Vec3{0, 0, -10}, rates, true)
	want.Advance(dt)

	r.DrawFrame(stereoPose(), l, dt, &mouse)
	assert.Equal(t, 2, rec.Count("DrawElements"))
	vps := rec.Find("Viewport")
	require.Len(t, vps, 2)
	assert.Equal(t, []any{0, 0, 100, 100}, vps[0].Args)
	assert.Equal(t, []any{100, 0, 100, 100}, vps[1].Args)
	// Eyes side by side.
	w, h := rec.CanvasSize()
	assert.Equal(t, [2]int{200, 100}, [2]int{w, h})
	// One rotation step per frame, not per eye.
	assert.Equal(t, want.Matrix, r.Cube.Matrix)
}

func TestDrawFrameTexture(t *testing.T) {
	r, rec, _ := newRenderer(t, NewCube(mgl32.Vec3{}, rates, false))
	ch := make(chan *image.RGBA, 1)
	r.res.Receive(ch)
	mouse := mgl32.Ident4()

	r.DrawFrame(monoPose(), &layer{}, 0, &mouse)
	tex := r.res.Texture.(*drivertest.Texture)
	assert.Equal(t, 1, tex.Uploads, "placeholder only")

	ch <- image.NewRGBA(image.Rect(0, 0, 4, 4))
	r.DrawFrame(monoPose(), &layer{}, 0, &mouse)
	assert.Equal(t, 2, tex.Uploads)
	w, h := tex.Size()
	assert.Equal(t, [2]int{4, 4}, [2]int{w, h})

	// Channel is no longer read.
	ch <- image.NewRGBA(image.Rect(0, 0, 8, 8))
	r.DrawFrame(monoPose(), &layer{}, 0, &mouse)
	assert.Equal(t, 2, tex.Uploads)
	_ = rec
}

func TestDrawFrameTextureFailure(t *testing.T) {
	r, _, _ := newRenderer(t, NewCube(mgl32.Vec3{}, rates, false))
	ch := make(chan *image.RGBA)
	close(ch)
	r.res.Receive(ch)
	mouse := mgl32.Ident4()
	r.DrawFrame(monoPose(), &layer{}, 0, &mouse)
	tex := r.res.Texture.(*drivertest.Texture)
	assert.Equal(t, 1, tex.Uploads)
	assert.Equal(t, texture.Placeholder, tex.Image.RGBAAt(0, 0))
}

func TestCheckError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	rec := drivertest.NewRecorder(nil)
	res, err := NewResources(rec)
	require.NoError(t, err)
	r := New(rec, res, NewCube(mgl32.Vec3{}, rates, false), nil, zap.New(core))

	rec.InjectError(driver.InvalidOperation)
	mouse := mgl32.Ident4()
	r.DrawFrame(monoPose(), &layer{}, 0, &mouse)

	entries := logs.FilterMessage("graphics error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "BindFramebuffer", entries[0].ContextMap()["where"])
}

type flushSink struct {
	diag.Table
	flushes int
}

func (f *flushSink) Flush() { f.flushes++ }

func TestDrawFrameFlush(t *testing.T) {
	rec := drivertest.NewRecorder(nil)
	res, err := NewResources(rec)
	require.NoError(t, err)
	sink := new(flushSink)
	r := New(rec, res, NewCube(mgl32.Vec3{}, rates, false), sink, nil)
	mouse := mgl32.Ident4()
	r.DrawFrame(stereoPose(), &layer{}, 0, &mouse)
	assert.Equal(t, 1, sink.flushes)
}
