// Package shaders holds GLSL sources for the scene renderers.
package shaders

// ChunkVertexShader places a chunk mesh at its world offset.
const ChunkVertexShader = `#version 410 core

layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aTexCoord;

uniform mat4 uViewProj;
uniform vec3 uOffset;

out vec3 vNormal;
out vec2 vTexCoord;
out vec3 vWorldPos;

void main() {
    vec3 world = aPosition + uOffset;
    vWorldPos = world;
    vNormal = aNormal;
    vTexCoord = aTexCoord;
    gl_Position = uViewProj * vec4(world, 1.0);
}
`

// ChunkFragmentShader applies the region texture, a directional light and
// distance fog that hides chunks popping in at the view limit.
const ChunkFragmentShader = `#version 410 core

in vec3 vNormal;
in vec2 vTexCoord;
in vec3 vWorldPos;

uniform sampler2D uTexture;
uniform vec3 uLightDir;
uniform vec3 uAmbient;
uniform vec3 uCameraPos;
uniform float uFogNear;
uniform float uFogFar;
uniform vec3 uFogColor;

out vec4 FragColor;

void main() {
    vec3 albedo = texture(uTexture, vTexCoord).rgb;
    float diffuse = max(dot(normalize(vNormal), -normalize(uLightDir)), 0.0);
    vec3 color = albedo * (uAmbient + (1.0 - uAmbient) * diffuse);

    float dist = distance(vWorldPos.xz, uCameraPos.xz);
    float fog = clamp((dist - uFogNear) / max(uFogFar - uFogNear, 0.001), 0.0, 1.0);
    FragColor = vec4(mix(color, uFogColor, fog), 1.0);
}
`
