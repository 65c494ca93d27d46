package compute

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrMapFailed       = errors.New("compute: map buffer for read failed")
	ErrMissingBarrier  = errors.New("compute: buffer read before memory barrier")
	ErrUnknownProgram  = errors.New("compute: unknown program")
	ErrUnknownBuffer   = errors.New("compute: unknown buffer")
	ErrNoProgram       = errors.New("compute: dispatch without a program in use")
	ErrAllocFailed     = errors.New("compute: buffer allocation failed")
	ErrCompileFailed   = errors.New("compute: program compilation failed")
	ErrBufferNotMapped = errors.New("compute: buffer is not mapped")
)

// Program and Buffer are device handles. Zero is never a valid handle.
type Program uint32
type Buffer uint32

// Source describes one compute program. GL devices compile GLSL, the CPU
// device runs Kernel once per invocation.
type Source struct {
	Name      string
	GLSL      string
	LocalSize [3]uint32
	Kernel    Kernel
}

// Backend is the compute dispatch service the generators drive. All calls
// are synchronous and must come from the thread that owns the device.
type Backend interface {
	CompileProgram(src Source) (Program, error)
	DeleteProgram(p Program)
	UseProgram(p Program)

	CreateBuffer(n int) (Buffer, error)
	WriteBuffer(b Buffer, data []float32) error
	DeleteBuffer(b Buffer)
	BindBuffer(b Buffer, slot uint32)

	SetFloat(p Program, name string, v float32)
	SetInt(p Program, name string, v int32)
	SetVec3(p Program, name string, v mgl32.Vec3)
	SetIVec3(p Program, name string, v [3]int32)

	Dispatch(x, y, z uint32) error
	MemoryBarrier()

	MapBuffer(b Buffer) ([]float32, error)
	UnmapBuffer(b Buffer) error

	Close() error
}

// GroupCount returns how many work groups of size local cover n invocations.
func GroupCount(n int, local uint32) uint32 {
	if n <= 0 || local == 0 {
		return 0
	}
	return (uint32(n) + local - 1) / local
}

// ReadBack inserts a barrier, maps buf, copies its contents out and unmaps it.
func ReadBack(b Backend, buf Buffer) ([]float32, error) {
	b.MemoryBarrier()
	mapped, err := b.MapBuffer(buf)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(mapped))
	copy(out, mapped)
	if err := b.UnmapBuffer(buf); err != nil {
		return nil, fmt.Errorf("unmap buffer %d: %w", buf, err)
	}
	return out, nil
}
