// Package shader provides OpenGL shader compilation utilities.
package shader

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/endless-terrain/pkg/math"
)

// Program is a linked shader program with cached uniform locations.
type Program struct {
	ID       uint32
	uniforms map[string]int32
}

// New compiles and links a program from vertex and fragment sources.
func New(vertexSrc, fragmentSrc string) (*Program, error) {
	id, err := CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	return &Program{ID: id, uniforms: make(map[string]int32)}, nil
}

// Use binds the program.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Uniform returns the location of a uniform, or -1 if it is inactive.
// GL ignores writes to -1, so optional uniforms need no special casing.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(name+"\x00"))
	p.uniforms[name] = loc
	return loc
}

// SetMat4 uploads a column-major 4x4 matrix.
func (p *Program) SetMat4(name string, m *math.Mat4) {
	gl.UniformMatrix4fv(p.Uniform(name), 1, false, m.Ptr())
}

// SetVec3 uploads a vec3.
func (p *Program) SetVec3(name string, x, y, z float32) {
	gl.Uniform3f(p.Uniform(name), x, y, z)
}

// SetFloat uploads a float.
func (p *Program) SetFloat(name string, v float32) {
	gl.Uniform1f(p.Uniform(name), v)
}

// SetInt uploads an int or sampler unit.
func (p *Program) SetInt(name string, v int32) {
	gl.Uniform1i(p.Uniform(name), v)
}

// Delete releases the program.
func (p *Program) Delete() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Returns the program ID or an error if compilation/linking fails.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		msg := infoLog(logLen, func(buf *uint8) { gl.GetProgramInfoLog(program, logLen, nil, buf) })
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", msg)
	}

	return program, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		msg := infoLog(logLen, func(buf *uint8) { gl.GetShaderInfoLog(shader, logLen, nil, buf) })
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, msg)
	}

	return shader, nil
}

// infoLog reads a driver log of logLen bytes; some drivers report zero.
func infoLog(logLen int32, read func(*uint8)) string {
	if logLen <= 0 {
		return "no info log"
	}
	buf := make([]byte, logLen)
	read(&buf[0])
	return gl.GoStr(&buf[0])
}
