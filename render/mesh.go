// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

// IndexCount is the number of indices drawn for the cube:
// two triangles per face.
const IndexCount = 36

// Cube positions, four vertices per face.
var cubePos = [24 * 3]float32{
	// Front.
	-1, -1, +1,
	+1, -1, +1,
	+1, +1, +1,
	-1, +1, +1,

	// Back.
	-1, -1, -1,
	-1, +1, -1,
	+1, +1, -1,
	+1, -1, -1,

	// Top.
	-1, +1, -1,
	-1, +1, +1,
	+1, +1, +1,
	+1, +1, -1,

	// Bottom.
	-1, -1, -1,
	+1, -1, -1,
	+1, -1, +1,
	-1, -1, +1,

	// Right.
	+1, -1, -1,
	+1, +1, -1,
	+1, +1, +1,
	+1, -1, +1,

	// Left.
	-1, -1, -1,
	-1, -1, +1,
	-1, +1, +1,
	-1, +1, -1,
}

// Cube normals.
var cubeNorm = [24 * 3]float32{
	0, 0, +1, 0, 0, +1, 0, 0, +1, 0, 0, +1,
	0, 0, -1, 0, 0, -1, 0, 0, -1, 0, 0, -1,
	0, +1, 0, 0, +1, 0, 0, +1, 0, 0, +1, 0,
	0, -1, 0, 0, -1, 0, 0, -1, 0, 0, -1, 0,
	+1, 0, 0, +1, 0, 0, +1, 0, 0, +1, 0, 0,
	-1, 0, 0, -1, 0, 0, -1, 0, 0, -1, 0, 0,
}

// Cube texture coordinates.
// Every face maps the whole texture.
var cubeTexCoord = [24 * 2]float32{
	0, 0, 1, 0, 1, 1, 0, 1,
	0, 0, 1, 0, 1, 1, 0, 1,
	0, 0, 1, 0, 1, 1, 0, 1,
	0, 0, 1, 0, 1, 1, 0, 1,
	0, 0, 1, 0, 1, 1, 0, 1,
	0, 0, 1, 0, 1, 1, 0, 1,
}

// Cube indices.
var cubeIdx = [IndexCount]uint16{
	0, 1, 2, 0, 2, 3,
	4, 5, 6, 4, 6, 7,
	8, 9, 10, 8, 10, 11,
	12, 13, 14, 12, 14, 15,
	16, 17, 18, 16, 18, 19,
	20, 21, 22, 20, 22, 23,
}
