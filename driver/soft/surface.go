// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gviegas/xrcube/driver/soft/raster"
)

// Surface is the pixel store of a software context.
// It fills window-space triangles produced by the
// geometry stages.
type Surface interface {
	// Size returns the surface dimensions.
	Size() (width, height int)

	// Resize changes the surface dimensions. The contents
	// are undefined afterwards.
	Resize(width, height int)

	// Fill sets every pixel to c.
	Fill(c color.Color)

	// DrawTriangles draws tris in order, sampling tex.
	// tex may be nil, in which case the triangles are
	// black, as with an incomplete texture.
	DrawTriangles(tris []raster.Triangle, tex *Texture)
}

// Texture is the driver.Texture of the software context.
type Texture struct {
	img *image.RGBA
	gen int

	// Ebiten copy of img, at generation ebiGen.
	ebi    *ebiten.Image
	ebiGen int

	destroyed bool
}

// RGBA returns the last uploaded image, or nil.
func (t *Texture) RGBA() *image.RGBA { return t.img }

// Size implements driver.Texture.
func (t *Texture) Size() (width, height int) {
	if t.img == nil {
		return 0, 0
	}
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// Destroy implements driver.Destroyer.
func (t *Texture) Destroy() {
	if t.ebi != nil {
		t.ebi.Deallocate()
		t.ebi = nil
	}
	t.img = nil
	t.destroyed = true
}

// EbitenSurface is a Surface backed by an offscreen
// ebiten.Image. Hosts draw Image onto the screen.
type EbitenSurface struct {
	img   *ebiten.Image
	blank *ebiten.Image
	vs    []ebiten.Vertex
	is    []uint16
}

// NewEbitenSurface creates an EbitenSurface.
func NewEbitenSurface(width, height int) *EbitenSurface {
	blank := ebiten.NewImage(1, 1)
	blank.Fill(color.Black)
	return &EbitenSurface{
		img:   ebiten.NewImage(width, height),
		blank: blank,
	}
}

// Image returns the surface's image.
// It changes when the surface is resized.
func (s *EbitenSurface) Image() *ebiten.Image { return s.img }

func (s *EbitenSurface) Size() (width, height int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *EbitenSurface) Resize(width, height int) {
	if w, h := s.Size(); w == width && h == height {
		return
	}
	s.img.Deallocate()
	s.img = ebiten.NewImage(width, height)
}

func (s *EbitenSurface) Fill(c color.Color) { s.img.Fill(c) }

func (s *EbitenSurface) DrawTriangles(tris []raster.Triangle, tex *Texture) {
	if len(tris) == 0 {
		return
	}
	src := s.blank
	sw, sh := float32(1), float32(1)
	if tex != nil && tex.img != nil {
		if tex.ebi == nil || tex.ebiGen != tex.gen {
			if tex.ebi != nil {
				tex.ebi.Deallocate()
			}
			tex.ebi = ebiten.NewImageFromImage(tex.img)
			tex.ebiGen = tex.gen
		}
		src = tex.ebi
		w, h := tex.Size()
		sw, sh = float32(w), float32(h)
	}

	s.vs = s.vs[:0]
	s.is = s.is[:0]
	for _, t := range tris {
		for _, p := range t.P {
			s.is = append(s.is, uint16(len(s.vs)))
			s.vs = append(s.vs, ebiten.Vertex{
				DstX:   p.X,
				DstY:   p.Y,
				SrcX:   p.UV[0] * sw,
				SrcY:   p.UV[1] * sh,
				ColorR: p.Light,
				ColorG: p.Light,
				ColorB: p.Light,
				ColorA: 1,
			})
		}
	}
	s.img.DrawTriangles(s.vs, s.is, src, &ebiten.DrawTrianglesOptions{
		Filter:  ebiten.FilterLinear,
		Address: ebiten.AddressRepeat,
	})
}
