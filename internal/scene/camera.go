package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera looking at Target.
type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
	FovY     float64 // degrees
	Aspect   float64
	Near     float64
	Far      float64
}

// NewCamera returns the initial camera: 50 degree vertical FOV, near 0.1,
// far 10000, at (300, 300, 600) looking at the origin.
func NewCamera() *Camera {
	return &Camera{
		Position: mgl64.Vec3{300, 300, 600},
		Up:       mgl64.Vec3{0, 1, 0},
		FovY:     50,
		Aspect:   1,
		Near:     0.1,
		Far:      10000,
	}
}

func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

func (c *Camera) ViewProj() mgl64.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Ray returns the world ray through viewport pixel (px, py) of a w x h
// surface. The origin lies on the near plane.
func (c *Camera) Ray(px, py float64, w, h int) (origin, dir mgl64.Vec3, ok bool) {
	if w <= 0 || h <= 0 {
		return origin, dir, false
	}
	x := px/float64(w)*2 - 1
	y := 1 - py/float64(h)*2
	inv := c.ViewProj().Inv()
	unproject := func(z float64) (mgl64.Vec3, bool) {
		v := inv.Mul4x1(mgl64.Vec4{x, y, z, 1})
		if v.W() == 0 {
			return mgl64.Vec3{}, false
		}
		return v.Vec3().Mul(1 / v.W()), true
	}
	near, ok1 := unproject(-1)
	far, ok2 := unproject(1)
	if !ok1 || !ok2 {
		return origin, dir, false
	}
	d := far.Sub(near)
	if d.Len() == 0 {
		return origin, dir, false
	}
	return near, d.Normalize(), true
}
