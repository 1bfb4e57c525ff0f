package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const polarEps = 1e-6

// Controls is a damped orbit controller: the camera circles Target, pans in
// screen space and dollies between MinDistance and MaxDistance.
type Controls struct {
	cam    *Camera
	Target mgl64.Vec3

	EnableDamping      bool
	DampingFactor      float64
	ScreenSpacePanning bool
	MinDistance        float64
	MaxDistance        float64
	MinPolarAngle      float64
	MaxPolarAngle      float64
	RotateSpeed        float64
	ZoomStep           float64 // dolly scale per zoom step, < 1

	deltaTheta float64
	deltaPhi   float64
	scale      float64
	panOffset  mgl64.Vec3
	disposed   bool
}

// DefaultMaxDistance is the zoom-out limit for content that fits well
// inside it; Fit raises it for larger extents.
const DefaultMaxDistance = 4000

func NewControls(cam *Camera) *Controls {
	return &Controls{
		cam:                cam,
		Target:             cam.Target,
		EnableDamping:      true,
		DampingFactor:      0.05,
		ScreenSpacePanning: true,
		MinDistance:        50,
		MaxDistance:        DefaultMaxDistance,
		MaxPolarAngle:      math.Pi / 2.05,
		RotateSpeed:        1,
		ZoomStep:           0.95,
		scale:              1,
	}
}

// RotateLeft orbits around the vertical axis by angle radians.
func (c *Controls) RotateLeft(angle float64) { c.deltaTheta -= angle }

// RotateUp tilts the camera by angle radians.
func (c *Controls) RotateUp(angle float64) { c.deltaPhi -= angle }

// Rotate converts a pointer drag of (dx, dy) pixels on a surface of height h
// into an orbit, one full turn per surface height.
func (c *Controls) Rotate(dx, dy float64, h int) {
	if h <= 0 {
		return
	}
	c.RotateLeft(2 * math.Pi * dx / float64(h) * c.RotateSpeed)
	c.RotateUp(2 * math.Pi * dy / float64(h) * c.RotateSpeed)
}

// Pan moves the target by a pointer drag of (dx, dy) pixels so the point
// under the pointer follows it.
func (c *Controls) Pan(dx, dy float64, h int) {
	if h <= 0 {
		return
	}
	offset := c.cam.Position.Sub(c.Target)
	dist := offset.Len() * math.Tan(mgl64.DegToRad(c.cam.FovY)/2)
	forward := c.Target.Sub(c.cam.Position)
	if forward.Len() == 0 {
		return
	}
	forward = forward.Normalize()
	right := forward.Cross(c.cam.Up)
	if right.Len() == 0 {
		return
	}
	right = right.Normalize()
	up := right.Cross(forward)
	if !c.ScreenSpacePanning {
		up = c.cam.Up.Cross(right)
	}
	c.panOffset = c.panOffset.
		Add(right.Mul(-2 * dx * dist / float64(h))).
		Add(up.Mul(2 * dy * dist / float64(h)))
}

// ZoomIn moves the camera one step closer to the target.
func (c *Controls) ZoomIn() { c.scale *= c.ZoomStep }

// ZoomOut moves the camera one step away from the target.
func (c *Controls) ZoomOut() { c.scale /= c.ZoomStep }

// Reset points the camera at target and drops any pending motion.
func (c *Controls) Reset(target mgl64.Vec3) {
	c.Target = target
	c.cam.Target = target
	c.deltaTheta, c.deltaPhi = 0, 0
	c.panOffset = mgl64.Vec3{}
	c.scale = 1
}

// Distance is the current camera-to-target distance.
func (c *Controls) Distance() float64 { return c.cam.Position.Sub(c.Target).Len() }

// Update applies pending motion to the camera and reports whether it moved.
// With damping enabled, motion decays over subsequent calls.
func (c *Controls) Update() bool {
	if c.disposed {
		return false
	}
	offset := c.cam.Position.Sub(c.Target)
	radius := offset.Len()
	theta := math.Atan2(offset.X(), offset.Z())
	phi := 0.0
	if radius > 0 {
		phi = math.Acos(mgl64.Clamp(offset.Y()/radius, -1, 1))
	}

	f := 1.0
	if c.EnableDamping {
		f = c.DampingFactor
	}
	theta += c.deltaTheta * f
	phi += c.deltaPhi * f
	phi = mgl64.Clamp(phi, math.Max(c.MinPolarAngle, polarEps), math.Min(c.MaxPolarAngle, math.Pi-polarEps))
	radius = mgl64.Clamp(radius*c.scale, c.MinDistance, c.MaxDistance)

	oldTarget := c.Target
	c.Target = c.Target.Add(c.panOffset.Mul(f))

	sinPhi := math.Sin(phi)
	pos := c.Target.Add(mgl64.Vec3{
		radius * sinPhi * math.Sin(theta),
		radius * math.Cos(phi),
		radius * sinPhi * math.Cos(theta),
	})

	if c.EnableDamping {
		c.deltaTheta *= 1 - f
		c.deltaPhi *= 1 - f
		c.panOffset = c.panOffset.Mul(1 - f)
	} else {
		c.deltaTheta, c.deltaPhi = 0, 0
		c.panOffset = mgl64.Vec3{}
	}
	c.scale = 1

	moved := pos.Sub(c.cam.Position).Len() > 1e-6 || c.Target.Sub(oldTarget).Len() > 1e-6
	c.cam.Position = pos
	c.cam.Target = c.Target
	return moved
}

// Dispose stops the controller; further updates are no-ops.
func (c *Controls) Dispose() {
	c.disposed = true
	c.deltaTheta, c.deltaPhi = 0, 0
	c.panOffset = mgl64.Vec3{}
}
