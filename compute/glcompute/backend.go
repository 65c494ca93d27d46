// Package glcompute runs compute programs on an OpenGL 4.3 context through
// shader storage buffers.
package glcompute

import (
	"fmt"
	"log"
	"strings"
	"unsafe"

	"ChunkTerrain/compute"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

var _ compute.Backend = (*Backend)(nil)

// Backend requires a current GL 4.3 context on the calling thread with
// gl.Init already done.
type Backend struct {
	sizes     map[compute.Buffer]int
	mapped    map[compute.Buffer]bool
	locations map[compute.Program]map[string]int32
}

func New() *Backend {
	version := gl.GoStr(gl.GetString(gl.VERSION))
	log.Printf("[Compute] OpenGL %s", version)
	return &Backend{
		sizes:     make(map[compute.Buffer]int),
		mapped:    make(map[compute.Buffer]bool),
		locations: make(map[compute.Program]map[string]int32),
	}
}

func compileShader(source string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		info := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(info))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: %s", compute.ErrCompileFailed, strings.TrimRight(info, "\x00"))
	}
	return shader, nil
}

func (b *Backend) CompileProgram(src compute.Source) (compute.Program, error) {
	shader, err := compileShader(src.GLSL)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", src.Name, err)
	}
	prog := gl.CreateProgram()
	gl.AttachShader(prog, shader)
	gl.LinkProgram(prog)
	gl.DetachShader(prog, shader)
	gl.DeleteShader(shader)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLength)
		info := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(prog, logLength, nil, gl.Str(info))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("%s: %w: link: %s", src.Name, compute.ErrCompileFailed, strings.TrimRight(info, "\x00"))
	}

	p := compute.Program(prog)
	b.locations[p] = make(map[string]int32)
	return p, nil
}

func (b *Backend) DeleteProgram(p compute.Program) {
	delete(b.locations, p)
	gl.DeleteProgram(uint32(p))
}

func (b *Backend) UseProgram(p compute.Program) {
	gl.UseProgram(uint32(p))
}

func (b *Backend) CreateBuffer(n int) (compute.Buffer, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d elements", compute.ErrAllocFailed, n)
	}
	var ssbo uint32
	gl.GenBuffers(1, &ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, n*4, nil, gl.DYNAMIC_COPY)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &ssbo)
		return 0, fmt.Errorf("%w: %d elements, gl error 0x%x", compute.ErrAllocFailed, n, code)
	}
	buf := compute.Buffer(ssbo)
	b.sizes[buf] = n
	return buf, nil
}

func (b *Backend) WriteBuffer(buf compute.Buffer, data []float32) error {
	size, ok := b.sizes[buf]
	if !ok {
		return fmt.Errorf("%w: %d", compute.ErrUnknownBuffer, buf)
	}
	if len(data) > size {
		return fmt.Errorf("compute: write of %d elements into buffer of %d", len(data), size)
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, uint32(buf))
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(data)*4, gl.Ptr(data))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	return nil
}

func (b *Backend) DeleteBuffer(buf compute.Buffer) {
	delete(b.sizes, buf)
	delete(b.mapped, buf)
	ssbo := uint32(buf)
	gl.DeleteBuffers(1, &ssbo)
}

func (b *Backend) BindBuffer(buf compute.Buffer, slot uint32) {
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, slot, uint32(buf))
}

func (b *Backend) location(p compute.Program, name string) int32 {
	cache, ok := b.locations[p]
	if !ok {
		return -1
	}
	if loc, ok := cache[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
	cache[name] = loc
	return loc
}

func (b *Backend) SetFloat(p compute.Program, name string, v float32) {
	gl.ProgramUniform1f(uint32(p), b.location(p, name), v)
}

func (b *Backend) SetInt(p compute.Program, name string, v int32) {
	gl.ProgramUniform1i(uint32(p), b.location(p, name), v)
}

func (b *Backend) SetVec3(p compute.Program, name string, v mgl32.Vec3) {
	gl.ProgramUniform3f(uint32(p), b.location(p, name), v[0], v[1], v[2])
}

func (b *Backend) SetIVec3(p compute.Program, name string, v [3]int32) {
	gl.ProgramUniform3i(uint32(p), b.location(p, name), v[0], v[1], v[2])
}

func (b *Backend) Dispatch(x, y, z uint32) error {
	var current int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &current)
	if current == 0 {
		return compute.ErrNoProgram
	}
	gl.DispatchCompute(x, y, z)
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("compute: dispatch %dx%dx%d: gl error 0x%x", x, y, z, code)
	}
	return nil
}

func (b *Backend) MemoryBarrier() {
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)
}

func (b *Backend) MapBuffer(buf compute.Buffer) ([]float32, error) {
	size, ok := b.sizes[buf]
	if !ok {
		return nil, fmt.Errorf("%w: %d", compute.ErrUnknownBuffer, buf)
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, uint32(buf))
	ptr := gl.MapBufferRange(gl.SHADER_STORAGE_BUFFER, 0, size*4, gl.MAP_READ_BIT)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	if ptr == nil {
		log.Printf("[Compute] map of buffer %d failed, gl error 0x%x", buf, gl.GetError())
		return nil, compute.ErrMapFailed
	}
	b.mapped[buf] = true
	return unsafe.Slice((*float32)(ptr), size), nil
}

func (b *Backend) UnmapBuffer(buf compute.Buffer) error {
	if !b.mapped[buf] {
		return fmt.Errorf("%w: %d", compute.ErrBufferNotMapped, buf)
	}
	delete(b.mapped, buf)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, uint32(buf))
	ok := gl.UnmapBuffer(gl.SHADER_STORAGE_BUFFER)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	if !ok {
		// The store was corrupted while mapped. The copy already taken is
		// stale and must not be trusted.
		return fmt.Errorf("%w: buffer %d contents lost during mapping", compute.ErrMapFailed, buf)
	}
	return nil
}

func (b *Backend) Close() error {
	for buf := range b.sizes {
		b.DeleteBuffer(buf)
	}
	for p := range b.locations {
		b.DeleteProgram(p)
	}
	return nil
}
