package main

import (
	"flag"
	"log"
	"runtime"
	"time"

	"ChunkTerrain/chunk"
	"ChunkTerrain/compute"
	"ChunkTerrain/compute/glcompute"
	"ChunkTerrain/config"
	"ChunkTerrain/mesh"
	"ChunkTerrain/noise"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	yaw            float64 = -90.0
	pitch          float64 = -20.0
	lastX          float64
	lastY          float64
	firstMouse     bool = true
	cameraPosition      = mgl32.Vec3{0.0, 25, 0.0}
	cameraFront         = frontVector(yaw, pitch)
	cameraUp            = mgl32.Vec3{0.0, 1.0, 0.0}
	cameraRight         = cameraFront.Cross(cameraUp).Normalize()
	velocity            = mgl32.Vec3{0, 0, 0}
	previousFrame       = time.Now()
	fps            float64
	fpsString      string
	frameCount     int
	startTime      = time.Now() // for FPS display
	monitor        *glfw.Monitor
	showDebug      bool = true
	wireframe      bool
	regenerate     bool
	windowWidth    int
	windowHeight   int
)

var configPath = flag.String("config", "", "path to a terrain YAML file")

func initProjectionMatrix(viewDistance int, cell mgl32.Vec3) mgl32.Mat4 {
	aspectRatio := float32(windowWidth) / float32(windowHeight)
	fieldOfView := float32(70)
	nearClipPlane := float32(0.1)
	farClipPlane := float32(viewDistance+2) * cell.Len()

	return mgl32.Perspective(mgl32.DegToRad(fieldOfView), aspectRatio, nearClipPlane, farClipPlane)
}

func OnWindowResize(w *glfw.Window, width int, height int) {
	if width == 0 || height == 0 {
		return
	}
	windowWidth, windowHeight = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

func lerp(a, b mgl32.Vec3, alpha float32) mgl32.Vec3 {
	return (b.Sub(a)).Mul(alpha).Add(a) // Linear interpolation between a and b
}

func newBackend(name string) compute.Backend {
	if name == "cpu" {
		log.Printf("[Compute] using cpu device")
		return compute.NewCPU()
	}
	return glcompute.New()
}

// startPosition puts the camera above the first chunk.
func startPosition(cfg *config.Settings) mgl32.Vec3 {
	cell := cfg.CellSize()
	if cfg.Dims() == 2 {
		return mgl32.Vec3{cell[0] / 2, 4 * cfg.NoiseParams().TotalAmplitude(), cell[2] / 2}
	}
	return mgl32.Vec3{cell[0] / 2, cfg.DropoffPlane + cell[1]/4, cell[2] / 2}
}

// reload rereads the config file and applies whatever the controller can
// change in place. Seed, basis and backend only take effect on restart.
func reload(controller *chunk.Controller, current *config.Settings) *config.Settings {
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("[Config] reload: %v", err)
		return current
	}
	if cfg.Seed != current.Seed || cfg.Basis != current.Basis || cfg.Backend != current.Backend {
		log.Printf("[Config] seed, basis and backend changes need a restart")
	}
	if err := controller.Reconfigure(cfg.ChunkSettings()); err != nil {
		log.Printf("[Config] reconfigure: %v", err)
		return current
	}
	return cfg
}

func main() {
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	windowWidth, windowHeight = cfg.WindowWidth, cfg.WindowHeight

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	window, err := glfw.CreateWindow(windowWidth, windowHeight, "Chunk Terrain", nil, nil)
	if err != nil {
		panic(err)
	}
	window.MakeContextCurrent()
	window.SetFramebufferSizeCallback(OnWindowResize)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	window.SetCursorPosCallback(mouseMoveCallback)
	window.SetKeyCallback(input)
	if cfg.Vsync {
		glfw.SwapInterval(1)
	}

	if err := gl.Init(); err != nil {
		panic(err)
	}
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0.53, 0.75, 0.92, 1)

	backend := newBackend(cfg.Backend)
	defer backend.Close()
	gen, err := noise.NewGenerator(backend, cfg.Seed, cfg.NoiseBasis())
	if err != nil {
		log.Fatal(err)
	}
	defer gen.Close()
	synth, err := mesh.NewSynthesizer(gen)
	if err != nil {
		log.Fatal(err)
	}
	defer synth.Close()

	controller, err := chunk.NewController(chunk.NewStore(), synth, glUploader{}, cfg.ChunkSettings())
	if err != nil {
		log.Fatal(err)
	}
	defer controller.Reset()

	terrainProgram := linkProgram("shaders/terrain.vert", "shaders/terrain.frag")
	textProgram := linkProgram("shaders/text.vert", "shaders/text.frag")
	debug := newHUD(textProgram)
	background := newSky()

	gl.UseProgram(terrainProgram)
	lightDir := mgl32.Vec3{-0.4, -1, -0.3}
	gl.Uniform3fv(gl.GetUniformLocation(terrainProgram, gl.Str("lightDir\x00")), 1, &lightDir[0])

	cameraPosition = startPosition(cfg)
	log.Printf("[Chunks] %s terrain, %s noise, seed %d, view distance %d", cfg.Mesh, cfg.Basis, cfg.Seed, cfg.ViewDistance)

	for !window.ShouldClose() {
		deltaTime := float32(time.Since(previousFrame).Seconds())
		previousFrame = time.Now()
		glfw.PollEvents()

		updateFPS()
		movement(window, deltaTime)
		if regenerate {
			regenerate = false
			cfg = reload(controller, cfg)
		}
		stats := controller.Tick(flyCamera{})

		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		projection := initProjectionMatrix(cfg.ViewDistance, cfg.CellSize())
		view := viewMatrix()
		background.Draw(projection, view)
		if wireframe {
			gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		}
		triangles := drawChunks(terrainProgram, controller.Store(), view, projection)
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)

		if showDebug {
			debug.SetLines(debugLines(cameraPosition, stats, controller.Store(), triangles)...)
			debug.Draw(windowWidth, windowHeight)
		}
		window.SwapBuffers()
		frameCount++
	}
}
