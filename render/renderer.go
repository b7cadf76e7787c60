// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package render draws the textured cube into the views of
// an XR frame.
package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/gviegas/xrcube/diag"
	"github.com/gviegas/xrcube/driver"
	"github.com/gviegas/xrcube/internal/log"
	"github.com/gviegas/xrcube/xr"
)

// Renderer renders frames of the cube scene.
type Renderer struct {
	ctx  driver.Context
	res  *Resources
	sink diag.Sink
	log  *zap.Logger

	// Cube is the scene's only object.
	Cube Cube

	modelView mgl32.Mat4
	normal    mgl32.Mat4
}

// New creates a Renderer.
// sink and l may be nil.
func New(ctx driver.Context, res *Resources, cube Cube, sink diag.Sink, l *zap.Logger) *Renderer {
	if sink == nil {
		sink = diag.Discard
	}
	return &Renderer{
		ctx:  ctx,
		res:  res,
		sink: sink,
		log:  log.OrNop(l),
		Cube: cube,
	}
}

// ModelView returns the model-view matrix of the last view
// rendered.
func (r *Renderer) ModelView() mgl32.Mat4 { return r.modelView }

// Normal returns the normal matrix of the last view
// rendered.
func (r *Renderer) Normal() mgl32.Mat4 { return r.normal }

// checkError logs any error recorded by the context.
// Errors are reported, not acted upon.
func (r *Renderer) checkError(where string) {
	if err := r.ctx.Error(); err != nil {
		r.log.Error("graphics error", zap.String("where", where), zap.Error(err))
	}
}

// DrawFrame renders one frame of pose into layer.
// dt is the time in seconds since the previous frame and
// mouse is the viewer offset applied to the reference
// space, shown in diagnostics.
// The cube advances by dt once per frame, however many
// views the pose has.
func (r *Renderer) DrawFrame(pose *xr.Pose, layer xr.Layer, dt float32, mouse *mgl32.Mat4) {
	if r.res.poll(r.ctx) {
		r.log.Debug("texture uploaded")
		r.checkError("TexImage")
	}

	r.ctx.BindFramebuffer(layer.Framebuffer())
	r.checkError("BindFramebuffer")

	r.ctx.ClearColor(0, 0, 0, 1)
	r.ctx.ClearDepth(1)
	r.ctx.Clear(driver.ColorBit | driver.DepthBit)
	r.checkError("Clear")

	n := len(pose.Views)
	for i := range pose.Views {
		view := &pose.Views[i]
		vp := layer.Viewport(view)
		r.ctx.Viewport(vp.X, vp.Y, vp.Width, vp.Height)
		r.checkError("Viewport for eye " + view.Eye.String())
		r.ctx.SetCanvasSize(vp.Width*n, vp.Height)
		step := dt
		if i > 0 {
			step = 0
		}
		r.RenderScene(view, step, mouse)
	}

	if f, ok := r.sink.(diag.Flusher); ok {
		f.Flush()
	}
}

// RenderScene advances the cube by dt seconds and draws it
// for view.
func (r *Renderer) RenderScene(view *xr.View, dt float32, mouse *mgl32.Mat4) {
	r.Cube.Advance(dt)

	r.ctx.Enable(driver.CapDepthTest)
	r.ctx.DepthFunc(driver.CLessEqual)

	camera := view.Transform.Matrix()
	r.modelView = view.Transform.Inverse().Matrix().Mul4(r.Cube.Matrix)
	r.normal = r.modelView.Inv().Transpose()

	r.sink.Show(diag.Projection, &view.Projection)
	r.sink.Show(diag.ModelView, &r.modelView)
	r.sink.Show(diag.Camera, &camera)
	r.sink.Show(diag.Mouse, mouse)

	res := r.res
	r.bindAttrib(res.Position, res.Attrib.Position, driver.Float32x3)
	r.bindAttrib(res.TexCoord, res.Attrib.TexCoord, driver.Float32x2)
	r.bindAttrib(res.Normal, res.Attrib.Normal, driver.Float32x3)

	r.ctx.BindBuffer(driver.TElementArray, res.Indices)
	r.ctx.UseProgram(res.Program)

	r.ctx.UniformMatrix4(res.Uniform.Projection, &view.Projection)
	r.ctx.UniformMatrix4(res.Uniform.ModelView, &r.modelView)
	r.ctx.UniformMatrix4(res.Uniform.Normal, &r.normal)
	r.ctx.ActiveTexture(0)
	r.ctx.BindTexture(res.Texture)
	r.ctx.Uniform1i(res.Uniform.Sampler, 0)

	r.ctx.DrawElements(driver.TTriangle, IndexCount, driver.Index16, 0)
}

// bindAttrib binds buf as the tightly packed source of the
// attribute at loc. Attributes the program lacks (loc < 0)
// are skipped.
func (r *Renderer) bindAttrib(buf driver.Buffer, loc int, f driver.VertexFmt) {
	if loc < 0 {
		return
	}
	r.ctx.BindBuffer(driver.TArray, buf)
	r.ctx.VertexAttribPointer(loc, f, false, 0, 0)
	r.ctx.EnableVertexAttribArray(loc)
}
