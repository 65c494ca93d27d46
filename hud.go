package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"slices"
	"strconv"
	"time"

	"ChunkTerrain/chunk"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/freetype"
	"golang.org/x/image/font/gofont/goregular"
)

const hudSize = 512

// hud draws a few lines of debug text onto one texture that is redrawn
// whenever the text changes.
type hud struct {
	ctx     *freetype.Context
	dst     *image.RGBA
	program uint32
	vao     uint32
	texture uint32
	lines   []string
}

func newHUD(program uint32) *hud {
	font, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		panic(err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, hudSize, hudSize))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.Transparent}, image.Point{}, draw.Src)
	ctx := freetype.NewContext()
	ctx.SetFont(font)
	ctx.SetFontSize(16)
	ctx.SetDst(dst)
	ctx.SetClip(dst.Bounds())
	ctx.SetSrc(image.White)
	ctx.SetHinting(2) // For sharp text

	h := &hud{ctx: ctx, dst: dst, program: program}
	h.initQuad()

	gl.GenTextures(1, &h.texture)
	gl.BindTexture(gl.TEXTURE_2D, h.texture)
	gl.TexImage2D(
		gl.TEXTURE_2D, 0, gl.RGBA,
		hudSize, hudSize,
		0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(dst.Pix),
	)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return h
}

func (h *hud) initQuad() {
	vertices := []float32{
		0.0, 1.0, 0.0, 0.0, 1.0, // Top-left
		0.0, 0.0, 0.0, 0.0, 0.0, // Bottom-left
		1.0, 0.0, 0.0, 1.0, 0.0, // Bottom-right

		0.0, 1.0, 0.0, 0.0, 1.0, // Top-left
		1.0, 0.0, 0.0, 1.0, 0.0, // Bottom-right
		1.0, 1.0, 0.0, 1.0, 1.0,
	}

	gl.GenVertexArrays(1, &h.vao)
	gl.BindVertexArray(h.vao)

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 5*4, nil)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 5*4, uintptr(3*4))
	gl.BindVertexArray(0)
}

// SetLines redraws the texture if lines differ from what is shown.
func (h *hud) SetLines(lines ...string) {
	if slices.Equal(h.lines, lines) {
		return
	}
	h.lines = append(h.lines[:0], lines...)

	for i := range h.dst.Pix {
		h.dst.Pix[i] = 0
	}
	lineHeight := int(h.ctx.PointToFixed(20) >> 6)
	for i, line := range lines {
		pt := freetype.Pt(8, lineHeight*(i+1))
		if _, err := h.ctx.DrawString(line, pt); err != nil {
			panic(err)
		}
	}

	gl.BindTexture(gl.TEXTURE_2D, h.texture)
	gl.TexSubImage2D(
		gl.TEXTURE_2D,
		0,    // Mipmap level
		0, 0, // Offset in the texture
		hudSize, hudSize,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(h.dst.Pix),
	)
}

func (h *hud) Draw(width, height int) {
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.UseProgram(h.program)

	orthographicProjection := mgl32.Ortho(0, float32(width), float32(height), 0, -1, 1)
	model := mgl32.Translate3D(0, 0, 0).Mul4(mgl32.Scale3D(hudSize, hudSize, 1))
	gl.UniformMatrix4fv(gl.GetUniformLocation(h.program, gl.Str("projection\x00")), 1, false, &orthographicProjection[0])
	gl.UniformMatrix4fv(gl.GetUniformLocation(h.program, gl.Str("model\x00")), 1, false, &model[0])
	gl.Uniform1i(gl.GetUniformLocation(h.program, gl.Str("textTexture\x00")), 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, h.texture)
	gl.BindVertexArray(h.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
}

func updateFPS() {
	currentTime := time.Now()
	timeElapsed := currentTime.Sub(startTime)

	if timeElapsed >= (250 * time.Millisecond) {
		fps = float64(frameCount) / timeElapsed.Seconds()
		fpsString = "FPS: " + strconv.FormatFloat(mgl64.Round(fps, 1), 'f', -1, 64)
		frameCount = 0
		startTime = currentTime
	}
}

func debugLines(camera mgl32.Vec3, stats chunk.Stats, store *chunk.Store, triangles int) []string {
	return []string{
		fpsString,
		fmt.Sprintf("Position: %.1f, %.1f, %.1f", camera[0], camera[1], camera[2]),
		"Chunk: " + stats.Center.String(),
		fmt.Sprintf("Chunks: %d active / %d stored", len(store.ActiveCoordinates()), store.Len()),
		"Triangles: " + strconv.Itoa(triangles),
	}
}
