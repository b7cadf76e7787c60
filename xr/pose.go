// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package xr

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RigidTransform is a position and orientation, without
// scale.
// The orientation is kept normalized.
type RigidTransform struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
}

// Identity returns the identity transform.
func Identity() RigidTransform {
	return RigidTransform{Orientation: mgl32.QuatIdent()}
}

// NewRigidTransform creates a transform from a position and
// an orientation. The orientation is normalized; a zero
// quaternion is treated as the identity.
func NewRigidTransform(pos mgl32.Vec3, orient mgl32.Quat) RigidTransform {
	return RigidTransform{
		Position:    pos,
		Orientation: orient.Normalize(),
	}
}

// Matrix returns the column-major matrix that applies the
// orientation followed by the translation.
func (t RigidTransform) Matrix() mgl32.Mat4 {
	p := t.Position
	return mgl32.Translate3D(p[0], p[1], p[2]).Mul4(t.Orientation.Mat4())
}

// Inverse returns the transform that undoes t.
func (t RigidTransform) Inverse() RigidTransform {
	inv := t.Orientation.Conjugate()
	return RigidTransform{
		Position:    inv.Rotate(t.Position.Mul(-1)),
		Orientation: inv,
	}
}

// Mul returns the composition t ⋅ u, that is, the
// transform that applies u and then t.
func (t RigidTransform) Mul(u RigidTransform) RigidTransform {
	return RigidTransform{
		Position:    t.Position.Add(t.Orientation.Rotate(u.Position)),
		Orientation: t.Orientation.Mul(u.Orientation).Normalize(),
	}
}

// IsIdentity reports whether t is exactly the identity.
func (t RigidTransform) IsIdentity() bool {
	return t.Position == (mgl32.Vec3{}) && t.Orientation == mgl32.QuatIdent()
}

// View describes one of the viewpoints a frame must be
// rendered from.
type View struct {
	Eye        Eye
	Projection mgl32.Mat4
	// Transform is the view's pose in the reference
	// space the viewer pose was queried against.
	Transform RigidTransform
}

// Pose is the viewer's pose for a given frame.
type Pose struct {
	Transform RigidTransform
	// Views has one element per eye, or a single
	// element for non-stereo presentation.
	Views []View
}
