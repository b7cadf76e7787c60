// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"fmt"
	"regexp"

	"github.com/gviegas/xrcube/driver"
)

// The software pipeline does not interpret GLSL. Instead,
// the declarations of a program are scanned and each one
// is assigned a fixed role in the lit, textured pipeline.
var (
	reMain    = regexp.MustCompile(`\bvoid\s+main\s*\(`)
	reAttrib  = regexp.MustCompile(`(?m)^\s*attribute\s+(?:(?:lowp|mediump|highp)\s+)?(vec[234]|float)\s+(\w+)\s*;`)
	reUniform = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?(mat4|sampler2D|\w+)\s+(\w+)\s*;`)
	rePos     = regexp.MustCompile(`gl_Position\s*=\s*(\w+)\s*\*\s*(\w+)\s*\*\s*(\w+)\s*;`)
	reNorm    = regexp.MustCompile(`(\w+)\s*\*\s*vec4\s*\(\s*(\w+)\s*,\s*1(?:\.0*)?\s*\)`)
)

// program is the driver.Program of the software context.
type program struct {
	attrs    []string
	uniforms map[string]string
	values   map[string]any

	// Roles, by name.
	proj, modelView, normMat, sampler string
	pos, norm, texCoord              string

	destroyed bool
}

func (p *program) Destroy() { p.destroyed = true }

// attrLoc returns the location of the named attribute.
func (p *program) attrLoc(name string) int {
	for i, s := range p.attrs {
		if s == name {
			return i
		}
	}
	return -1
}

// compile checks that src looks like a shader.
func compile(stage, src string) error {
	if !reMain.MatchString(src) {
		return fmt.Errorf("%w: %s shader has no main function", driver.ErrCompile, stage)
	}
	return nil
}

// link scans the sources and assigns roles.
func link(vertSrc, fragSrc string) (*program, error) {
	if err := compile("vertex", vertSrc); err != nil {
		return nil, err
	}
	if err := compile("fragment", fragSrc); err != nil {
		return nil, err
	}
	p := &program{
		uniforms: make(map[string]string),
		values:   make(map[string]any),
	}
	attrType := make(map[string]string)
	for _, m := range reAttrib.FindAllStringSubmatch(vertSrc, -1) {
		p.attrs = append(p.attrs, m[2])
		attrType[m[2]] = m[1]
	}
	for _, src := range [...]string{vertSrc, fragSrc} {
		for _, m := range reUniform.FindAllStringSubmatch(src, -1) {
			p.uniforms[m[2]] = m[1]
			if m[1] == "sampler2D" && p.sampler == "" {
				p.sampler = m[2]
			}
		}
	}

	m := rePos.FindStringSubmatch(vertSrc)
	if m == nil {
		return nil, fmt.Errorf("%w: unsupported program: no projection of the form P * MV * position", driver.ErrLink)
	}
	p.proj, p.modelView, p.pos = m[1], m[2], m[3]
	for _, s := range [...]string{p.proj, p.modelView} {
		if p.uniforms[s] != "mat4" {
			return nil, fmt.Errorf("%w: %q is not a mat4 uniform", driver.ErrLink, s)
		}
	}
	if _, ok := attrType[p.pos]; !ok {
		return nil, fmt.Errorf("%w: %q is not an attribute", driver.ErrLink, p.pos)
	}

	if m := reNorm.FindStringSubmatch(vertSrc); m != nil &&
		p.uniforms[m[1]] == "mat4" && attrType[m[2]] == "vec3" {
		p.normMat, p.norm = m[1], m[2]
	}
	for _, s := range p.attrs {
		if attrType[s] == "vec2" {
			p.texCoord = s
			break
		}
	}
	return p, nil
}

// uniform is the driver.Uniform of the software context.
type uniform struct {
	prog *program
	name string
}

func (u *uniform) Name() string { return u.name }
