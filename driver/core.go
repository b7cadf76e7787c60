// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Context is the main interface to an underlying driver
// implementation.
// It is used to create resources and to issue drawing
// commands. A Context is obtained from a call to
// Driver.Open.
// Like WebGL, the context is a state machine: bindings
// persist across calls until changed.
// Callers should assume that Context methods are not safe
// for parallel execution.
type Context interface {
	// Driver returns the Driver that owns the context.
	Driver() Driver

	// BindFramebuffer makes fb the render target.
	// A nil fb selects the default framebuffer.
	BindFramebuffer(fb Framebuffer)

	// ClearColor sets the color used by Clear.
	ClearColor(r, g, b, a float32)

	// ClearDepth sets the depth value used by Clear.
	ClearDepth(d float32)

	// Clear clears the buffers selected by mask.
	Clear(mask ClearMask)

	// Enable enables a capability.
	Enable(c Cap)

	// DepthFunc sets the depth comparison function.
	DepthFunc(f CmpFunc)

	// Viewport sets the viewport transform.
	Viewport(x, y, width, height int)

	// SetCanvasSize resizes the drawing surface.
	SetCanvasSize(width, height int)

	// CanvasSize returns the drawing surface dimensions.
	CanvasSize() (width, height int)

	// NewProgram compiles and links a program from vertex
	// and fragment shader sources.
	// Compilation failures wrap ErrCompile and link
	// failures wrap ErrLink.
	NewProgram(vertSrc, fragSrc string) (Program, error)

	// UseProgram makes p the current program.
	UseProgram(p Program)

	// AttribLocation returns the location of a vertex
	// attribute, or -1 if p has no such attribute.
	AttribLocation(p Program, name string) int

	// UniformLocation returns the location of a uniform,
	// or nil if p has no such uniform.
	UniformLocation(p Program, name string) Uniform

	// NewVertexBuffer creates a buffer for vertex data.
	NewVertexBuffer(data []float32) (Buffer, error)

	// NewIndexBuffer creates a buffer for index data.
	NewIndexBuffer(data []uint16) (Buffer, error)

	// BindBuffer binds buf to target.
	BindBuffer(target Target, buf Buffer)

	// VertexAttribPointer describes the layout of the
	// attribute at loc within the buffer bound to
	// TArray.
	VertexAttribPointer(loc int, f VertexFmt, normalized bool, stride, offset int)

	// EnableVertexAttribArray enables the attribute at loc.
	EnableVertexAttribArray(loc int)

	// NewTexture creates an empty 2D texture.
	NewTexture() (Texture, error)

	// TexImage uploads img into t, replacing its contents.
	// Textures whose dimensions are powers of 2 get a
	// mipmap chain; others are clamped and linearly
	// filtered.
	TexImage(t Texture, img *image.RGBA)

	// ActiveTexture selects the texture unit that
	// BindTexture affects.
	ActiveTexture(unit int)

	// BindTexture binds t to the active texture unit.
	BindTexture(t Texture)

	// UniformMatrix4 sets a mat4 uniform of the current
	// program.
	UniformMatrix4(u Uniform, m *mgl32.Mat4)

	// Uniform1i sets an int (or sampler) uniform of the
	// current program.
	Uniform1i(u Uniform, v int)

	// DrawElements draws count indices from the buffer
	// bound to TElementArray, starting at byte offset.
	DrawElements(t Topology, count int, f IndexFmt, offset int)

	// Error returns and clears the oldest error recorded
	// by the context, or nil if there is none.
	// Non-nil values are of type Error.
	Error() error
}

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external
// memory that is not managed by GC, so Destroy must be
// called explicitly to ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// Program is the interface that defines a linked shader
// program.
type Program interface {
	Destroyer
}

// Buffer is the interface that defines a GPU buffer.
type Buffer interface {
	Destroyer

	// Len returns the number of elements the buffer was
	// created with.
	Len() int
}

// Texture is the interface that defines a 2D texture.
type Texture interface {
	Destroyer

	// Size returns the dimensions of the last uploaded
	// image.
	Size() (width, height int)
}

// Framebuffer is the interface that defines a render
// target other than the default framebuffer.
type Framebuffer interface {
	Destroyer
}

// Uniform is the interface that identifies a uniform
// location.
type Uniform interface {
	// Name returns the uniform's name in the shader.
	Name() string
}

// ClearMask is a mask of buffers to clear.
type ClearMask int

// Clear mask bits.
const (
	ColorBit ClearMask = 1 << iota
	DepthBit
	StencilBit
)

// Cap is the type of context capabilities.
type Cap int

// Capabilities.
const (
	CapDepthTest Cap = iota
	CapCullFace
	CapBlend
)

// CmpFunc is the type of comparison functions.
type CmpFunc int

// Comparison functions.
const (
	CNever CmpFunc = iota
	CLess
	CEqual
	CLessEqual
	CGreater
	CNotEqual
	CGreaterEqual
	CAlways
)

// Compare applies f to a and b.
func (f CmpFunc) Compare(a, b float32) bool {
	switch f {
	case CLess:
		return a < b
	case CEqual:
		return a == b
	case CLessEqual:
		return a <= b
	case CGreater:
		return a > b
	case CNotEqual:
		return a != b
	case CGreaterEqual:
		return a >= b
	case CAlways:
		return true
	}
	return false
}

// Target is the type of buffer binding points.
type Target int

// Buffer targets.
const (
	TArray Target = iota
	TElementArray
)

// VertexFmt describes the format of a vertex attribute.
type VertexFmt int

// Vertex formats.
const (
	Float32 VertexFmt = iota
	Float32x2
	Float32x3
	Float32x4
)

// Components returns the number of components in f.
func (f VertexFmt) Components() int { return int(f) + 1 }

// Topology is the type of primitive topologies.
type Topology int

// Primitive topologies.
const (
	TPoint Topology = iota
	TLine
	TTriangle
)

// IndexFmt is the type of index formats.
type IndexFmt int

// Index formats.
const (
	Index16 IndexFmt = iota
	Index32
)

// Size returns the size in bytes of one index.
func (f IndexFmt) Size() int {
	if f == Index32 {
		return 4
	}
	return 2
}

// Error is the type of errors reported by Context.Error.
// Values match the WebGL error enums.
type Error int

// Context errors.
const (
	InvalidEnum                 Error = 0x0500
	InvalidValue                Error = 0x0501
	InvalidOperation            Error = 0x0502
	OutOfMemory                 Error = 0x0505
	InvalidFramebufferOperation Error = 0x0506
	ContextLost                 Error = 0x9242
)

func (e Error) Error() string {
	var s string
	switch e {
	case InvalidEnum:
		s = "invalid enum"
	case InvalidValue:
		s = "invalid value"
	case InvalidOperation:
		s = "invalid operation"
	case OutOfMemory:
		s = "out of memory"
	case InvalidFramebufferOperation:
		s = "invalid framebuffer operation"
	case ContextLost:
		s = "context lost"
	default:
		return fmt.Sprintf("driver: error %#04x", int(e))
	}
	return "driver: " + s
}
