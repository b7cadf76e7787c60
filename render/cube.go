// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Cube is the pose of the rendered cube in world space.
type Cube struct {
	Matrix mgl32.Mat4
	// Rates are the rotation speeds about the X, Y and Z
	// axes, in degrees per second.
	Rates mgl32.Vec3
	// Rotate enables the rotation.
	Rotate bool
}

// NewCube creates a cube translated to pos.
func NewCube(pos, rates mgl32.Vec3, rotate bool) Cube {
	return Cube{
		Matrix: mgl32.Translate3D(pos[0], pos[1], pos[2]),
		Rates:  rates,
		Rotate: rotate,
	}
}

// Advance rotates the cube by its rates scaled by dt
// seconds, about Z, then Y, then X.
// It does nothing if rotation is disabled or dt is zero.
func (c *Cube) Advance(dt float32) {
	if !c.Rotate || dt == 0 {
		return
	}
	rx := mgl32.DegToRad(c.Rates[0]) * dt
	ry := mgl32.DegToRad(c.Rates[1]) * dt
	rz := mgl32.DegToRad(c.Rates[2]) * dt
	c.Matrix = c.Matrix.
		Mul4(mgl32.HomogRotate3DZ(rz)).
		Mul4(mgl32.HomogRotate3DY(ry)).
		Mul4(mgl32.HomogRotate3DX(rx))
}
