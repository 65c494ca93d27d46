package compute

import (
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"
)

// Kernel is the CPU body of a compute program, run once per invocation.
type Kernel func(inv *Invocation)

// Invocation exposes the bound state of a dispatch to a Kernel.
type Invocation struct {
	ID [3]uint32

	uniforms *uniforms
	slots    map[uint32][]float32
}

func (inv *Invocation) Float(name string) float32    { return inv.uniforms.floats[name] }
func (inv *Invocation) Int(name string) int32        { return inv.uniforms.ints[name] }
func (inv *Invocation) Vec3(name string) mgl32.Vec3  { return inv.uniforms.vec3s[name] }
func (inv *Invocation) IVec3(name string) [3]int32   { return inv.uniforms.ivec3s[name] }
func (inv *Invocation) Buffer(slot uint32) []float32 { return inv.slots[slot] }

type uniforms struct {
	floats map[string]float32
	ints   map[string]int32
	vec3s  map[string]mgl32.Vec3
	ivec3s map[string][3]int32
}

type cpuProgram struct {
	src      Source
	uniforms uniforms
}

type cpuBuffer struct {
	data    []float32
	pending bool
	mapped  bool
}

// Stats counts device operations since the device was created.
type Stats struct {
	Programs   int
	Buffers    int
	Dispatches int
	Barriers   int
	Maps       int
}

// CPU is a deterministic single-threaded compute device. It keeps the same
// visibility rules as a GPU: writes from a dispatch are only visible to
// later dispatches or mappings after MemoryBarrier.
type CPU struct {
	programs map[Program]*cpuProgram
	buffers  map[Buffer]*cpuBuffer
	bindings map[uint32]Buffer
	current  Program
	next     uint32
	failMaps int
	stats    Stats
	// MaxBufferSize caps allocations, in elements. Zero means no cap.
	MaxBufferSize int
}

func NewCPU() *CPU {
	return &CPU{
		programs: make(map[Program]*cpuProgram),
		buffers:  make(map[Buffer]*cpuBuffer),
		bindings: make(map[uint32]Buffer),
	}
}

// FailMaps makes the next n MapBuffer calls fail as a lost device would.
func (c *CPU) FailMaps(n int) {
	c.failMaps = n
}

func (c *CPU) Stats() Stats {
	return c.stats
}

// Live reports how many programs and buffers are still allocated.
func (c *CPU) Live() (programs, buffers int) {
	return len(c.programs), len(c.buffers)
}

func (c *CPU) handle() uint32 {
	c.next++
	return c.next
}

func (c *CPU) CompileProgram(src Source) (Program, error) {
	if src.Kernel == nil {
		return 0, fmt.Errorf("%w: %s has no cpu kernel", ErrCompileFailed, src.Name)
	}
	for i, n := range src.LocalSize {
		if n == 0 {
			return 0, fmt.Errorf("%w: %s local size axis %d is zero", ErrCompileFailed, src.Name, i)
		}
	}
	p := Program(c.handle())
	c.programs[p] = &cpuProgram{
		src: src,
		uniforms: uniforms{
			floats: make(map[string]float32),
			ints:   make(map[string]int32),
			vec3s:  make(map[string]mgl32.Vec3),
			ivec3s: make(map[string][3]int32),
		},
	}
	c.stats.Programs++
	return p, nil
}

func (c *CPU) DeleteProgram(p Program) {
	delete(c.programs, p)
	if c.current == p {
		c.current = 0
	}
}

func (c *CPU) UseProgram(p Program) {
	c.current = p
}

func (c *CPU) CreateBuffer(n int) (Buffer, error) {
	if n <= 0 || (c.MaxBufferSize > 0 && n > c.MaxBufferSize) {
		return 0, fmt.Errorf("%w: %d elements", ErrAllocFailed, n)
	}
	b := Buffer(c.handle())
	c.buffers[b] = &cpuBuffer{data: make([]float32, n)}
	c.stats.Buffers++
	return b, nil
}

func (c *CPU) WriteBuffer(b Buffer, data []float32) error {
	buf, ok := c.buffers[b]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, b)
	}
	if len(data) > len(buf.data) {
		return fmt.Errorf("compute: write of %d elements into buffer of %d", len(data), len(buf.data))
	}
	copy(buf.data, data)
	return nil
}

func (c *CPU) DeleteBuffer(b Buffer) {
	delete(c.buffers, b)
	for slot, bound := range c.bindings {
		if bound == b {
			delete(c.bindings, slot)
		}
	}
}

func (c *CPU) BindBuffer(b Buffer, slot uint32) {
	c.bindings[slot] = b
}

func (c *CPU) SetFloat(p Program, name string, v float32) {
	if prog, ok := c.programs[p]; ok {
		prog.uniforms.floats[name] = v
	}
}

func (c *CPU) SetInt(p Program, name string, v int32) {
	if prog, ok := c.programs[p]; ok {
		prog.uniforms.ints[name] = v
	}
}

func (c *CPU) SetVec3(p Program, name string, v mgl32.Vec3) {
	if prog, ok := c.programs[p]; ok {
		prog.uniforms.vec3s[name] = v
	}
}

func (c *CPU) SetIVec3(p Program, name string, v [3]int32) {
	if prog, ok := c.programs[p]; ok {
		prog.uniforms.ivec3s[name] = v
	}
}

func (c *CPU) Dispatch(x, y, z uint32) error {
	prog, ok := c.programs[c.current]
	if !ok {
		return ErrNoProgram
	}

	slots := make(map[uint32][]float32, len(c.bindings))
	for slot, b := range c.bindings {
		buf, ok := c.buffers[b]
		if !ok {
			return fmt.Errorf("%w: %d bound at slot %d", ErrUnknownBuffer, b, slot)
		}
		if buf.pending {
			return fmt.Errorf("%w: buffer %d bound at slot %d", ErrMissingBarrier, b, slot)
		}
		slots[slot] = buf.data
	}

	local := prog.src.LocalSize
	inv := &Invocation{uniforms: &prog.uniforms, slots: slots}
	for gz := uint32(0); gz < z; gz++ {
		for gy := uint32(0); gy < y; gy++ {
			for gx := uint32(0); gx < x; gx++ {
				for lz := uint32(0); lz < local[2]; lz++ {
					for ly := uint32(0); ly < local[1]; ly++ {
						for lx := uint32(0); lx < local[0]; lx++ {
							inv.ID = [3]uint32{gx*local[0] + lx, gy*local[1] + ly, gz*local[2] + lz}
							prog.src.Kernel(inv)
						}
					}
				}
			}
		}
	}

	// Every bound storage buffer is treated as written.
	for _, b := range c.bindings {
		c.buffers[b].pending = true
	}
	c.stats.Dispatches++
	return nil
}

func (c *CPU) MemoryBarrier() {
	for _, buf := range c.buffers {
		buf.pending = false
	}
	c.stats.Barriers++
}

func (c *CPU) MapBuffer(b Buffer) ([]float32, error) {
	buf, ok := c.buffers[b]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBuffer, b)
	}
	c.stats.Maps++
	if c.failMaps > 0 {
		c.failMaps--
		log.Printf("[Compute] simulated map failure on buffer %d", b)
		return nil, ErrMapFailed
	}
	if buf.pending {
		return nil, fmt.Errorf("%w: buffer %d", ErrMissingBarrier, b)
	}
	buf.mapped = true
	return buf.data, nil
}

func (c *CPU) UnmapBuffer(b Buffer) error {
	buf, ok := c.buffers[b]
	if !ok || !buf.mapped {
		return fmt.Errorf("%w: %d", ErrBufferNotMapped, b)
	}
	buf.mapped = false
	return nil
}

func (c *CPU) Close() error {
	c.programs = make(map[Program]*cpuProgram)
	c.buffers = make(map[Buffer]*cpuBuffer)
	c.bindings = make(map[uint32]Buffer)
	c.current = 0
	return nil
}
