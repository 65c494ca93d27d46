package main

import (
	"fmt"
	"os"
	"strings"

	"ChunkTerrain/chunk"
	"ChunkTerrain/mesh"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

func loadShader(shaderFilePath string, shaderType uint32) uint32 {
	source, err := os.ReadFile(shaderFilePath)
	if err != nil {
		panic(err)
	}

	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(string(source) + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		panic(fmt.Sprintf("compile %s: %s", shaderFilePath, log))
	}
	return shader
}

func linkProgram(vertexPath, fragmentPath string) uint32 {
	vertexShader := loadShader(vertexPath, gl.VERTEX_SHADER)
	fragmentShader := loadShader(fragmentPath, gl.FRAGMENT_SHADER)
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vertexShader)
	gl.AttachShader(prog, fragmentShader)
	gl.LinkProgram(prog)
	gl.DetachShader(prog, vertexShader)
	gl.DetachShader(prog, fragmentShader)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)
	return prog
}

// glUploader keeps each chunk mesh in its own VAO with separate position,
// normal and element buffers.
type glUploader struct{}

func (glUploader) Upload(m *mesh.Mesh) (chunk.Handles, error) {
	if err := m.Validate(); err != nil {
		return chunk.Handles{}, err
	}
	var h chunk.Handles
	if m.IsEmpty() {
		return h, nil
	}

	gl.GenVertexArrays(1, &h.VAO)
	gl.BindVertexArray(h.VAO)

	// Position attribute
	gl.GenBuffers(1, &h.Positions)
	gl.BindBuffer(gl.ARRAY_BUFFER, h.Positions)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Positions)*3*4, gl.Ptr(m.Positions), gl.STATIC_DRAW)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)

	// Normal attribute
	gl.GenBuffers(1, &h.Normals)
	gl.BindBuffer(gl.ARRAY_BUFFER, h.Normals)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Normals)*3*4, gl.Ptr(m.Normals), gl.STATIC_DRAW)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(1)

	gl.GenBuffers(1, &h.Elements)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, h.Elements)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	if code := gl.GetError(); code != gl.NO_ERROR {
		glUploader{}.Release(h)
		return chunk.Handles{}, fmt.Errorf("upload mesh: gl error 0x%x", code)
	}
	h.IndexCount = int32(len(m.Indices))
	return h, nil
}

func (glUploader) Release(h chunk.Handles) {
	buffers := []uint32{h.Positions, h.Normals, h.Elements}
	gl.DeleteBuffers(int32(len(buffers)), &buffers[0])
	if h.VAO != 0 {
		gl.DeleteVertexArrays(1, &h.VAO)
	}
}

// drawChunks renders every active chunk. Positions are already in world
// space so the model matrix is the identity.
func drawChunks(program uint32, store *chunk.Store, view, projection mgl32.Mat4) int {
	gl.UseProgram(program)
	model := mgl32.Ident4()
	gl.UniformMatrix4fv(gl.GetUniformLocation(program, gl.Str("model\x00")), 1, false, &model[0])
	gl.UniformMatrix4fv(gl.GetUniformLocation(program, gl.Str("view\x00")), 1, false, &view[0])
	gl.UniformMatrix4fv(gl.GetUniformLocation(program, gl.Str("projection\x00")), 1, false, &projection[0])

	triangles := 0
	for _, coord := range store.ActiveCoordinates() {
		ch, ok := store.Get(coord)
		if !ok || !ch.GPULoaded || ch.GPU.IndexCount == 0 {
			continue
		}
		gl.BindVertexArray(ch.GPU.VAO)
		gl.DrawElements(gl.TRIANGLES, ch.GPU.IndexCount, gl.UNSIGNED_INT, nil)
		triangles += int(ch.GPU.IndexCount) / 3
	}
	gl.BindVertexArray(0)
	return triangles
}
