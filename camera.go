package main

import (
	"math"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	flyingSpeed   float32 = 40
	sprintFactor  float32 = 4
	mouseSense            = 0.2
	velocityDecay float32 = 0.35
)

// flyCamera reports the free-flying camera to the streaming controller.
type flyCamera struct{}

func (flyCamera) Position() mgl32.Vec3 {
	return cameraPosition
}

func input(window *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyEscape:
		window.SetShouldClose(true)
	case glfw.KeyF3:
		showDebug = !showDebug
	case glfw.KeyF4:
		wireframe = !wireframe
	case glfw.KeyR:
		regenerate = true
	case glfw.KeyF11:
		if monitor == nil {
			//set to fullscreen
			monitor = glfw.GetPrimaryMonitor()
			mode := monitor.GetVideoMode()
			window.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
		} else {
			//set to windowed
			mode := monitor.GetVideoMode()
			monitor = nil
			window.SetMonitor(nil, (mode.Width-windowWidth)/2, (mode.Height-windowHeight)/2, windowWidth, windowHeight, 0)
		}
	}
}

func mouseMoveCallback(window *glfw.Window, xPos, yPos float64) {
	if firstMouse {
		lastX = xPos
		lastY = yPos
		firstMouse = false
	}

	xoffset := (xPos - lastX) * mouseSense
	yoffset := (lastY - yPos) * mouseSense // Reversed since y-coordinates go from bottom to top
	lastX = xPos
	lastY = yPos

	yaw += xoffset
	pitch = math.Max(-89, math.Min(89, pitch+yoffset))

	cameraFront = frontVector(yaw, pitch)
	cameraRight = cameraFront.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	cameraUp = cameraRight.Cross(cameraFront).Normalize()
}

// frontVector is the unit view direction for yaw and pitch in degrees.
func frontVector(yaw, pitch float64) mgl32.Vec3 {
	y, p := mgl64.DegToRad(yaw), mgl64.DegToRad(pitch)
	return mgl32.Vec3{
		float32(math.Cos(y) * math.Cos(p)),
		float32(math.Sin(p)),
		float32(math.Sin(y) * math.Cos(p)),
	}.Normalize()
}

// Movement inputs, checked each frame for fast responses.
func movement(window *glfw.Window, dt float32) {
	speed := flyingSpeed
	if window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		speed *= sprintFactor
	}

	var direction mgl32.Vec3
	if window.GetKey(glfw.KeyW) == glfw.Press {
		direction = direction.Add(cameraFront)
	}
	if window.GetKey(glfw.KeyS) == glfw.Press {
		direction = direction.Sub(cameraFront)
	}
	if window.GetKey(glfw.KeyA) == glfw.Press {
		direction = direction.Sub(cameraRight)
	}
	if window.GetKey(glfw.KeyD) == glfw.Press {
		direction = direction.Add(cameraRight)
	}
	if window.GetKey(glfw.KeySpace) == glfw.Press {
		direction = direction.Add(mgl32.Vec3{0, 1, 0})
	}
	if window.GetKey(glfw.KeyLeftControl) == glfw.Press {
		direction = direction.Sub(mgl32.Vec3{0, 1, 0})
	}
	if direction.Len() > 0 {
		direction = direction.Normalize()
	}

	// Ease toward the target velocity at a frame-rate independent rate.
	alpha := 1 - float32(math.Pow(float64(1-velocityDecay), float64(dt*60)))
	velocity = lerp(velocity, direction.Mul(speed), alpha)
	cameraPosition = cameraPosition.Add(velocity.Mul(dt))
}

func viewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(cameraPosition, cameraPosition.Add(cameraFront), cameraUp)
}
