// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package control

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/xrcube/xr"
)

var (
	axisX = mgl32.Vec3{1, 0, 0}
	axisY = mgl32.Vec3{0, 1, 0}
)

// Transform returns the rigid transform that s describes:
// the inverse of the pitch rotation followed by the inverse
// of the yaw rotation, translated by the three offsets.
func (s *State) Transform() xr.RigidTransform {
	q := mgl32.QuatRotate(-s.Pitch, axisX).Mul(mgl32.QuatRotate(-s.Yaw, axisY))
	return xr.NewRigidTransform(mgl32.Vec3{s.Lateral, s.Vertical, s.Axial}, q)
}

// Adjust returns the reference space to use for the current
// frame, along with the offset matrix that was applied.
// If s is zero, base itself and the identity matrix are
// returned.
// The offset is computed from s alone, so calling Adjust
// every frame never accumulates onto a previous result.
func Adjust(base xr.ReferenceSpace, s *State) (xr.ReferenceSpace, mgl32.Mat4) {
	if s.IsZero() {
		return base, mgl32.Ident4()
	}
	t := s.Transform()
	return base.Offset(t), t.Matrix()
}
