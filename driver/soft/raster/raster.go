// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package raster implements the geometry stages of a
// software renderer: near-plane clipping, viewport mapping,
// face culling and depth ordering.
// Pixel filling is left to the caller.
package raster

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a vertex in clip space.
type Vertex struct {
	Pos mgl32.Vec4
	UV  mgl32.Vec2
	// Light is the vertex's light intensity.
	Light float32
}

// Point is a vertex in window space.
// X and Y are in pixels, with the origin at the top-left
// corner; Z is the depth in [0, 1].
type Point struct {
	X, Y, Z float32
	UV      mgl32.Vec2
	Light   float32
}

// Viewport is a GL viewport: X and Y locate its
// bottom-left corner.
type Viewport struct {
	X, Y, Width, Height float32
}

// Triangle is a window-space triangle.
type Triangle struct {
	P [3]Point
	// Depth is the mean depth of the vertices.
	Depth float32
}

// wEpsilon keeps clipped vertices away from the eye plane.
const wEpsilon = 1e-5

func lerp(a, b Vertex, t float32) Vertex {
	return Vertex{
		Pos:   a.Pos.Add(b.Pos.Sub(a.Pos).Mul(t)),
		UV:    a.UV.Add(b.UV.Sub(a.UV).Mul(t)),
		Light: a.Light + (b.Light-a.Light)*t,
	}
}

// nearDist is the signed distance to the near plane
// (z = -w); non-negative values are inside.
func nearDist(v Vertex) float32 { return v.Pos[2] + v.Pos[3] }

// ClipNear clips a triangle against the near plane.
// It returns a convex polygon of zero, three or four
// vertices.
func ClipNear(tri [3]Vertex) []Vertex {
	out := make([]Vertex, 0, 4)
	for i := range tri {
		a, b := tri[i], tri[(i+1)%3]
		da, db := nearDist(a), nearDist(b)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			out = append(out, lerp(a, b, da/(da-db)))
		}
	}
	for i := range out {
		if out[i].Pos[3] < wEpsilon {
			out[i].Pos[3] = wEpsilon
		}
	}
	if len(out) < 3 {
		return out[:0]
	}
	return out
}

// Project maps a clip-space vertex to window space.
// height is the height of the render target, used to move
// the origin to the top.
func Project(v Vertex, vp Viewport, height float32) Point {
	w := v.Pos[3]
	nx, ny, nz := v.Pos[0]/w, v.Pos[1]/w, v.Pos[2]/w
	x := vp.X + (nx+1)/2*vp.Width
	y := vp.Y + (ny+1)/2*vp.Height
	return Point{
		X:     x,
		Y:     height - y,
		Z:     (nz + 1) / 2,
		UV:    v.UV,
		Light: v.Light,
	}
}

// SignedArea returns twice the signed area of the triangle
// abc in window space. It is positive for triangles that
// are counter-clockwise as seen by the viewer.
func SignedArea(a, b, c Point) float32 {
	// Window Y points down, so the usual sign is flipped.
	return -((b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y))
}

// Assemble builds the window-space triangles described by
// idx. If cull is set, triangles that do not face the
// viewer (including degenerate ones) are discarded.
func Assemble(verts []Vertex, idx []uint16, vp Viewport, height float32, cull bool) []Triangle {
	var tris []Triangle
	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := int(idx[i]), int(idx[i+1]), int(idx[i+2])
		if a >= len(verts) || b >= len(verts) || c >= len(verts) {
			continue
		}
		poly := ClipNear([3]Vertex{verts[a], verts[b], verts[c]})
		if len(poly) == 0 {
			continue
		}
		pts := make([]Point, len(poly))
		for j := range poly {
			pts[j] = Project(poly[j], vp, height)
		}
		for j := 1; j+1 < len(pts); j++ {
			t := Triangle{P: [3]Point{pts[0], pts[j], pts[j+1]}}
			if cull && SignedArea(t.P[0], t.P[1], t.P[2]) <= 0 {
				continue
			}
			t.Depth = (t.P[0].Z + t.P[1].Z + t.P[2].Z) / 3
			tris = append(tris, t)
		}
	}
	return tris
}

// SortBackToFront orders tris from farthest to nearest.
func SortBackToFront(tris []Triangle) {
	slices.SortStableFunc(tris, func(a, b Triangle) int {
		return cmp.Compare(b.Depth, a.Depth)
	})
}

// LightDir is the direction towards the directional light,
// in view space.
var LightDir = mgl32.Vec3{0.85, 0.8, 0.75}.Normalize()

// Ambient is the ambient light intensity.
const Ambient = 0.3

// Lighting returns the light intensity of a vertex whose
// view-space normal is n. The result is clamped to 1.
func Lighting(n mgl32.Vec3) float32 {
	d := n.Dot(LightDir)
	if d < 0 {
		d = 0
	}
	return min(Ambient+d, 1)
}
