//go:build !test
// +build !test

package view

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"dronefield/internal/sim"
)

const vertexShaderSource = `
#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aShade;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

out vec3 vertexShade;
out vec3 worldPos;

void main() {
    vec4 wp = model * vec4(aPos, 1.0);
    worldPos = wp.xyz;
    gl_Position = projection * view * wp;
    vertexShade = aShade;
}
` + "\x00"

const fragmentShaderSource = `
#version 410 core
in vec3 vertexShade;
in vec3 worldPos;
out vec4 FragColor;

uniform int uUseChecker;   // 1 = ground checker, 0 = tinted solid
uniform vec3 uTint;
uniform float uTileSize;
uniform vec3 uColorA;
uniform vec3 uColorB;
uniform vec3 uCameraPos;
uniform vec3 uFogColor;
uniform float uFogDensity;

void main() {
    vec3 base;
    if (uUseChecker == 1) {
        float tx = floor(worldPos.x / uTileSize);
        float tz = floor(worldPos.z / uTileSize);
        base = mix(uColorA, uColorB, mod(tx + tz, 2.0));
    } else {
        base = uTint * vertexShade;
    }
    float fog = 1.0 - exp(-uFogDensity * distance(worldPos, uCameraPos));
    FragColor = vec4(mix(base, uFogColor, clamp(fog, 0.0, 1.0)), 1.0);
}
` + "\x00"

// Renderer draws the world with one shader: a checkered ground and tinted
// unit cubes for everything else.
type Renderer struct {
	program   uint32
	cubeVAO   uint32
	groundVAO uint32

	modelLoc      int32
	viewLoc       int32
	projectionLoc int32
	useCheckerLoc int32
	tintLoc       int32
	tileSizeLoc   int32
	colorALoc     int32
	colorBLoc     int32
	cameraPosLoc  int32
	fogColorLoc   int32
	fogDensityLoc int32

	view       [16]float32
	projection [16]float32
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{}
	if err := r.initShaders(); err != nil {
		return nil, err
	}
	r.initGeometry()
	return r, nil
}

func (r *Renderer) initShaders() error {
	program, err := linkProgram(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		return err
	}
	r.program = program

	loc := func(name string) int32 { return gl.GetUniformLocation(r.program, gl.Str(name+"\x00")) }
	r.modelLoc = loc("model")
	r.viewLoc = loc("view")
	r.projectionLoc = loc("projection")
	r.useCheckerLoc = loc("uUseChecker")
	r.tintLoc = loc("uTint")
	r.tileSizeLoc = loc("uTileSize")
	r.colorALoc = loc("uColorA")
	r.colorBLoc = loc("uColorB")
	r.cameraPosLoc = loc("uCameraPos")
	r.fogColorLoc = loc("uFogColor")
	r.fogDensityLoc = loc("uFogDensity")
	return nil
}

func (r *Renderer) initGeometry() {
	r.cubeVAO = uploadMesh(unitCube, unitCubeIndices)

	ground := []float32{
		-400, 0, -400, 1, 1, 1,
		400, 0, -400, 1, 1, 1,
		400, 0, 400, 1, 1, 1,
		-400, 0, 400, 1, 1, 1,
	}
	r.groundVAO = uploadMesh(ground, []uint32{0, 1, 2, 2, 3, 0})
}

func uploadMesh(vertices []float32, indices []uint32) uint32 {
	var vao, vbo, ebo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.GenBuffers(1, &ebo)

	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 6*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 6*4, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)
	return vao
}

// Begin loads the camera for the frame.
func (r *Renderer) Begin(cam *sim.Camera, width, height int) {
	r.view = cam.GetViewMatrix().Float32()
	r.projection = cam.GetProjectionMatrix(width, height).Float32()

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.viewLoc, 1, false, &r.view[0])
	gl.UniformMatrix4fv(r.projectionLoc, 1, false, &r.projection[0])
	gl.Uniform3f(r.cameraPosLoc, float32(cam.Position.X), float32(cam.Position.Y), float32(cam.Position.Z))
	gl.Uniform3f(r.fogColorLoc, 0.5, 0.7, 0.9)
	gl.Uniform1f(r.fogDensityLoc, 0.006)
}

// Ground draws the checkered plane under the camera target so it never ends.
func (r *Renderer) Ground(target sim.Vec3) {
	model := sim.TranslationMat4(sim.Vec3{X: target.X, Z: target.Z}).Float32()
	gl.UniformMatrix4fv(r.modelLoc, 1, false, &model[0])
	gl.Uniform1i(r.useCheckerLoc, 1)
	gl.Uniform1f(r.tileSizeLoc, 4)
	gl.Uniform3f(r.colorALoc, 0.28, 0.65, 0.28)
	gl.Uniform3f(r.colorBLoc, 0.24, 0.58, 0.24)

	gl.BindVertexArray(r.groundVAO)
	gl.DrawElements(gl.TRIANGLES, 6, gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}

// Parts draws tinted unit cubes.
func (r *Renderer) Parts(parts []part) {
	gl.Uniform1i(r.useCheckerLoc, 0)
	gl.BindVertexArray(r.cubeVAO)
	for _, p := range parts {
		model := p.Model.Float32()
		gl.UniformMatrix4fv(r.modelLoc, 1, false, &model[0])
		gl.Uniform3f(r.tintLoc, p.Color.R, p.Color.G, p.Color.B)
		gl.DrawElements(gl.TRIANGLES, int32(len(unitCubeIndices)), gl.UNSIGNED_INT, gl.PtrOffset(0))
	}
	gl.BindVertexArray(0)
}

func linkProgram(vertexSource, fragmentSource string) (uint32, error) {
	vs, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("failed to link shader program: %v", log)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	cSources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, cSources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("failed to compile shader: %v", log)
	}
	return shader, nil
}
