// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"fmt"
	"image"

	"github.com/gviegas/xrcube/driver"
	"github.com/gviegas/xrcube/texture"
)

// Resources holds the graphics objects needed to draw the
// cube. They are created once per session and are not
// modified afterwards, except for the texture image, which
// is replaced when the fetched image arrives.
type Resources struct {
	Program driver.Program

	Attrib struct {
		Position int
		Normal   int
		TexCoord int
	}

	Uniform struct {
		Projection driver.Uniform
		ModelView  driver.Uniform
		Normal     driver.Uniform
		Sampler    driver.Uniform
	}

	Position driver.Buffer
	Normal   driver.Buffer
	TexCoord driver.Buffer
	Indices  driver.Buffer
	Texture  driver.Texture

	pending <-chan *image.RGBA
}

// NewResources creates the program, buffers and texture
// used to render the cube.
// The texture starts as a single texture.Placeholder
// texel.
func NewResources(ctx driver.Context) (*Resources, error) {
	r := new(Resources)
	var err error
	if r.Program, err = ctx.NewProgram(vertSrc, fragSrc); err != nil {
		return nil, err
	}
	r.Attrib.Position = ctx.AttribLocation(r.Program, attrPosition)
	r.Attrib.Normal = ctx.AttribLocation(r.Program, attrNormal)
	r.Attrib.TexCoord = ctx.AttribLocation(r.Program, attrTexCoord)
	r.Uniform.Projection = ctx.UniformLocation(r.Program, unifProjection)
	r.Uniform.ModelView = ctx.UniformLocation(r.Program, unifModelView)
	r.Uniform.Normal = ctx.UniformLocation(r.Program, unifNormal)
	r.Uniform.Sampler = ctx.UniformLocation(r.Program, unifSampler)

	if r.Position, err = ctx.NewVertexBuffer(cubePos[:]); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("render: position buffer: %w", err)
	}
	if r.Normal, err = ctx.NewVertexBuffer(cubeNorm[:]); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("render: normal buffer: %w", err)
	}
	if r.TexCoord, err = ctx.NewVertexBuffer(cubeTexCoord[:]); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("render: texture coordinate buffer: %w", err)
	}
	if r.Indices, err = ctx.NewIndexBuffer(cubeIdx[:]); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("render: index buffer: %w", err)
	}
	if r.Texture, err = ctx.NewTexture(); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("render: texture: %w", err)
	}
	ctx.TexImage(r.Texture, texture.Solid(texture.Placeholder))
	return r, nil
}

// Receive makes r take its texture image from ch.
// The first image received replaces the placeholder; ch
// is not read afterwards. Closing ch without sending
// keeps the placeholder.
func (r *Resources) Receive(ch <-chan *image.RGBA) { r.pending = ch }

// poll uploads the pending texture image if it has
// arrived. It never blocks.
func (r *Resources) poll(ctx driver.Context) bool {
	if r.pending == nil {
		return false
	}
	select {
	case img, ok := <-r.pending:
		r.pending = nil
		if !ok || img == nil {
			return false
		}
		ctx.TexImage(r.Texture, img)
		return true
	default:
		return false
	}
}

// Destroy destroys every resource that was created.
// The graphics context releases them anyway when it is
// torn down, so calling Destroy is only needed when the
// context outlives the session.
func (r *Resources) Destroy() {
	for _, d := range [...]driver.Destroyer{r.Program, r.Position, r.Normal, r.TexCoord, r.Indices, r.Texture} {
		if d != nil {
			d.Destroy()
		}
	}
}
