// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

// Attribute and uniform names shared by the shaders and
// Resources.
const (
	attrPosition = "aVertexPosition"
	attrNormal   = "aVertexNormal"
	attrTexCoord = "aTextureCoord"

	unifProjection = "uProjectionMatrix"
	unifModelView  = "uModelViewMatrix"
	unifNormal     = "uNormalMatrix"
	unifSampler    = "uSampler"
)

// vertSrc applies the model-view and projection transforms
// and computes per-vertex directional lighting.
const vertSrc = `
attribute vec4 aVertexPosition;
attribute vec3 aVertexNormal;
attribute vec2 aTextureCoord;

uniform mat4 uNormalMatrix;
uniform mat4 uModelViewMatrix;
uniform mat4 uProjectionMatrix;

varying highp vec2 vTextureCoord;
varying highp vec3 vLighting;

void main(void) {
	gl_Position = uProjectionMatrix * uModelViewMatrix * aVertexPosition;
	vTextureCoord = aTextureCoord;

	highp vec3 ambientLight = vec3(0.3, 0.3, 0.3);
	highp vec3 directionalLightColor = vec3(1, 1, 1);
	highp vec3 directionalVector = normalize(vec3(0.85, 0.8, 0.75));

	highp vec4 transformedNormal = uNormalMatrix * vec4(aVertexNormal, 1.0);

	highp float directional = max(dot(transformedNormal.xyz, directionalVector), 0.0);
	vLighting = ambientLight + (directionalLightColor * directional);
}
`

// fragSrc modulates the sampled texel by the lighting.
const fragSrc = `
varying highp vec2 vTextureCoord;
varying highp vec3 vLighting;

uniform sampler2D uSampler;

void main(void) {
	highp vec4 texelColor = texture2D(uSampler, vTextureCoord);
	gl_FragColor = vec4(texelColor.rgb * vLighting, texelColor.a);
}
`


// ShaderSources returns the vertex and fragment shader
// sources of the cube's program.
func ShaderSources() (vert, frag string) { return vertSrc, fragSrc }
