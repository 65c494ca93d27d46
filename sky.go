package main

import (
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// sky draws a horizon gradient behind the terrain with one oversized
// triangle whose vertices are generated in the shader.
type sky struct {
	program uint32
	vao     uint32
}

func newSky() *sky {
	s := &sky{program: linkProgram("shaders/sky.vert", "shaders/sky.frag")}
	// Core profile needs a bound VAO even when no attributes are read.
	gl.GenVertexArrays(1, &s.vao)
	return s
}

// Draw must run after clearing and before the terrain, with the same
// matrices used for the world.
func (s *sky) Draw(projection, view mgl32.Mat4) {
	// Translation does not matter for a direction lookup.
	rotation := view.Mat3().Mat4()
	inverse := projection.Mul4(rotation).Inv()

	gl.DepthMask(false)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)

	gl.UseProgram(s.program)
	gl.UniformMatrix4fv(gl.GetUniformLocation(s.program, gl.Str("inverseViewProjection\x00")), 1, false, &inverse[0])
	gl.BindVertexArray(s.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	// Restore state expected by the rest of the pipeline
	gl.Enable(gl.CULL_FACE)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(true)
}
