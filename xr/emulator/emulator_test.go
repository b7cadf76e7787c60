// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package emulator

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/xrcube/driver/drivertest"
	"github.com/gviegas/xrcube/xr"
)

func newSession(t *testing.T, cfg Config, mode xr.Mode) (*Device, *Session) {
	t.Helper()
	d := New(cfg, nil)
	s, err := d.RequestSession(context.Background(), mode)
	require.NoError(t, err)
	return d, s.(*Session)
}

func TestSupport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Modes = []xr.Mode{xr.Inline}
	d := New(cfg, nil)
	ctx := context.Background()

	ok, err := d.IsSessionSupported(ctx, xr.ImmersiveVR)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = d.IsSessionSupported(ctx, xr.Inline)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = d.RequestSession(ctx, xr.ImmersiveVR)
	assert.ErrorIs(t, err, xr.ErrNotSupported)
	assert.Nil(t, d.Session())

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = d.IsSessionSupported(cctx, xr.Inline)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequestSessionBusy(t *testing.T) {
	d, s := newSession(t, DefaultConfig(), xr.ImmersiveVR)
	_, err := d.RequestSession(context.Background(), xr.ImmersiveVR)
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, s.End())
	s2, err := d.RequestSession(context.Background(), xr.Inline)
	require.NoError(t, err)
	assert.Equal(t, xr.Inline, s2.Mode())
}

func TestReferenceSpace(t *testing.T) {
	ctx := context.Background()
	_, s := newSession(t, DefaultConfig(), xr.Inline)
	_, err := s.RequestReferenceSpace(ctx, xr.SpaceLocal)
	assert.ErrorIs(t, err, xr.ErrNotSupported)
	sp, err := s.RequestReferenceSpace(ctx, xr.SpaceViewer)
	require.NoError(t, err)
	assert.Equal(t, xr.SpaceViewer, sp.Type())

	_, s = newSession(t, DefaultConfig(), xr.ImmersiveVR)
	sp, err = s.RequestReferenceSpace(ctx, xr.SpaceLocal)
	require.NoError(t, err)
	off := sp.Offset(xr.NewRigidTransform(mgl32.Vec3{1, 0, 0}, mgl32.QuatIdent()))
	assert.Equal(t, xr.SpaceLocal, off.Type())
	assert.True(t, sp.(*space).origin.IsIdentity(), "Offset must not modify the receiver")

	require.NoError(t, s.End())
	_, err = s.RequestReferenceSpace(ctx, xr.SpaceLocal)
	assert.ErrorIs(t, err, xr.ErrSessionEnded)
}

func TestAnimationFrame(t *testing.T) {
	d, s := newSession(t, DefaultConfig(), xr.ImmersiveVR)

	var got []time.Duration
	var fn xr.FrameFunc
	fn = func(t time.Duration, f xr.Frame) {
		got = append(got, t)
		// Requests made during a frame run on the next one.
		s.RequestAnimationFrame(fn)
	}
	h := s.RequestAnimationFrame(fn)
	assert.NotZero(t, h)

	assert.Equal(t, 1, d.Tick(10*time.Millisecond))
	assert.Equal(t, 1, d.Tick(20*time.Millisecond))
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, got)
	assert.Equal(t, 1, s.Pending())

	h2 := s.RequestAnimationFrame(func(time.Duration, xr.Frame) { t.Fatal("cancelled callback was called") })
	assert.NotEqual(t, h, h2)
	s.CancelAnimationFrame(h2)
	s.CancelAnimationFrame(h2)
	s.CancelAnimationFrame(12345)
	assert.Equal(t, 1, d.Tick(30*time.Millisecond))
}

func TestEnd(t *testing.T) {
	d, s := newSession(t, DefaultConfig(), xr.ImmersiveVR)
	ended := 0
	s.OnEnd(func() { ended++ })
	s.RequestAnimationFrame(func(time.Duration, xr.Frame) { t.Fatal("callback ran after End") })

	require.NoError(t, s.End())
	assert.True(t, s.Ended())
	assert.Equal(t, 1, ended)
	assert.Zero(t, s.Pending())
	assert.Nil(t, d.Session())
	assert.Zero(t, d.Tick(0))

	assert.ErrorIs(t, s.End(), xr.ErrSessionEnded)
	assert.Equal(t, 1, ended)

	s.RequestAnimationFrame(func(time.Duration, xr.Frame) {})
	assert.Zero(t, s.Pending())

	late := false
	s.OnEnd(func() { late = true })
	assert.True(t, late)
}

func TestForceEnd(t *testing.T) {
	d, s := newSession(t, DefaultConfig(), xr.ImmersiveVR)
	ended := false
	s.OnEnd(func() { ended = true })
	s.RequestAnimationFrame(func(time.Duration, xr.Frame) {})
	d.ForceEnd()
	assert.True(t, ended)
	assert.True(t, s.Ended())
	assert.Zero(t, s.Pending())
	d.ForceEnd()
}

func TestEndWithinFrame(t *testing.T) {
	d, s := newSession(t, DefaultConfig(), xr.ImmersiveVR)
	n := 0
	for i := 0; i < 3; i++ {
		s.RequestAnimationFrame(func(time.Duration, xr.Frame) {
			n++
			s.End()
		})
	}
	assert.Equal(t, 1, d.Tick(0))
	assert.Equal(t, 1, n)
}

func TestViewerPose(t *testing.T) {
	ctx := context.Background()
	d, s := newSession(t, DefaultConfig(), xr.ImmersiveVR)
	base, err := s.RequestReferenceSpace(ctx, xr.SpaceLocal)
	require.NoError(t, err)
	d.SetHead(xr.NewRigidTransform(mgl32.Vec3{0, 1.6, 0}, mgl32.QuatIdent()))

	var pose *xr.Pose
	var saved xr.Frame
	s.RequestAnimationFrame(func(_ time.Duration, f xr.Frame) {
		assert.Same(t, s, f.Session())
		var ok bool
		pose, ok = f.ViewerPose(base.Offset(xr.NewRigidTransform(mgl32.Vec3{0, 0, -10}, mgl32.QuatIdent())))
		require.True(t, ok)
		saved = f
	})
	d.Tick(0)
	require.NotNil(t, pose)
	assert.InDeltaSlice(t, []float32{0, 1.6, 10}, pose.Transform.Position[:], 1e-5)
	require.Len(t, pose.Views, 1)
	assert.Equal(t, xr.EyeNone, pose.Views[0].Eye)
	assert.Equal(t, pose.Transform, pose.Views[0].Transform)

	_, ok := saved.ViewerPose(base)
	assert.False(t, ok, "frame must not be used outside its callback")
}

func TestViewerSpace(t *testing.T) {
	ctx := context.Background()
	d, s := newSession(t, DefaultConfig(), xr.Inline)
	base, err := s.RequestReferenceSpace(ctx, xr.SpaceViewer)
	require.NoError(t, err)
	d.SetHead(xr.NewRigidTransform(mgl32.Vec3{5, 5, 5}, mgl32.QuatRotate(1, mgl32.Vec3{0, 1, 0})))

	s.RequestAnimationFrame(func(_ time.Duration, f xr.Frame) {
		pose, ok := f.ViewerPose(base)
		require.True(t, ok)
		assert.InDeltaSlice(t, []float32{0, 0, 0}, pose.Transform.Position[:], 1e-5)
	})
	assert.Equal(t, 1, d.Tick(0))
}

func TestTrackingLost(t *testing.T) {
	ctx := context.Background()
	d, s := newSession(t, DefaultConfig(), xr.ImmersiveVR)
	base, err := s.RequestReferenceSpace(ctx, xr.SpaceLocal)
	require.NoError(t, err)

	d.SetTracking(false)
	s.RequestAnimationFrame(func(_ time.Duration, f xr.Frame) {
		_, ok := f.ViewerPose(base)
		assert.False(t, ok)
	})
	assert.Equal(t, 1, d.Tick(0))
}

func TestStereo(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Stereo = true
	d, s := newSession(t, cfg, xr.ImmersiveVR)
	base, err := s.RequestReferenceSpace(ctx, xr.SpaceLocal)
	require.NoError(t, err)
	l, err := s.NewLayer(drivertest.NewRecorder(nil))
	require.NoError(t, err)
	assert.Nil(t, l.Framebuffer())

	s.RequestAnimationFrame(func(_ time.Duration, f xr.Frame) {
		pose, ok := f.ViewerPose(base)
		require.True(t, ok)
		require.Len(t, pose.Views, 2)
		left, right := &pose.Views[0], &pose.Views[1]
		assert.Equal(t, xr.EyeLeft, left.Eye)
		assert.Equal(t, xr.EyeRight, right.Eye)
		assert.InDelta(t, -cfg.IPD/2, left.Transform.Position[0], 1e-6)
		assert.InDelta(t, cfg.IPD/2, right.Transform.Position[0], 1e-6)
		assert.Equal(t, xr.Viewport{Width: 400, Height: 600}, l.Viewport(left))
		assert.Equal(t, xr.Viewport{X: 400, Width: 400, Height: 600}, l.Viewport(right))
	})
	assert.Equal(t, 1, d.Tick(0))

	_, err = s.NewLayer(nil)
	assert.ErrorIs(t, err, ErrNoContext)
}

func TestRenderState(t *testing.T) {
	_, s := newSession(t, DefaultConfig(), xr.ImmersiveVR)
	l, err := s.NewLayer(drivertest.NewRecorder(nil))
	require.NoError(t, err)
	s.UpdateRenderState(xr.RenderState{BaseLayer: l})
	assert.Same(t, l, s.RenderState().BaseLayer)
	assert.Equal(t, xr.Viewport{Width: 800, Height: 600}, l.Viewport(&xr.View{}))

	require.NoError(t, s.End())
	_, err = s.NewLayer(drivertest.NewRecorder(nil))
	assert.ErrorIs(t, err, xr.ErrSessionEnded)
}
