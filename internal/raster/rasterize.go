package raster

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Light is an ambient term plus one directional Lambert term.
type Light struct {
	Ambient     float64
	Directional float64
	// Dir points from the scene towards the light.
	Dir mgl64.Vec3
}

// Shade returns base lit for a face with normal n. Both sides of a face
// receive light, since triangles are drawn without backface culling.
func (l Light) Shade(base Color, n mgl64.Vec3) Color {
	d := l.Dir
	if d.Len() > 0 {
		d = d.Normalize()
	}
	ndl := math.Abs(n.Dot(d))
	return base.Scale(l.Ambient + l.Directional*ndl)
}

// Triangle is one flat-coloured world-space face.
type Triangle struct {
	V     [3]mgl64.Vec3
	Color Color
	Kind  Kind
	Owner int32
}

// Rasterizer draws triangles through a fixed view-projection matrix.
type Rasterizer struct {
	FB       *Framebuffer
	ViewProj mgl64.Mat4
}

// Draw clips t against the near plane, projects it and fills it with a
// depth test. Triangles fully behind the camera are dropped.
func (r *Rasterizer) Draw(t Triangle) {
	if r.FB == nil || r.FB.W == 0 || r.FB.H == 0 {
		return
	}
	var clip [3]mgl64.Vec4
	for i, v := range t.V {
		clip[i] = r.ViewProj.Mul4x1(v.Vec4(1))
	}
	poly := clipNear(clip[:])
	if len(poly) < 3 {
		return
	}
	pts := make([]mgl64.Vec3, len(poly))
	for i, c := range poly {
		inv := 1 / c.W()
		ndcX, ndcY, ndcZ := c.X()*inv, c.Y()*inv, c.Z()*inv
		pts[i] = mgl64.Vec3{
			(ndcX + 1) * 0.5 * float64(r.FB.W),
			(1 - ndcY) * 0.5 * float64(r.FB.H),
			ndcZ,
		}
	}
	for i := 1; i+1 < len(pts); i++ {
		r.fill(pts[0], pts[i], pts[i+1], t)
	}
}

// clipNear clips a clip-space polygon against z >= -w (Sutherland-Hodgman).
func clipNear(in []mgl64.Vec4) []mgl64.Vec4 {
	dist := func(v mgl64.Vec4) float64 { return v.Z() + v.W() }
	out := make([]mgl64.Vec4, 0, len(in)+1)
	for i := range in {
		a, b := in[i], in[(i+1)%len(in)]
		da, db := dist(a), dist(b)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			out = append(out, a.Add(b.Sub(a).Mul(t)))
		}
	}
	return out
}

func edge(a, b mgl64.Vec3, px, py float64) float64 {
	return (b.X()-a.X())*(py-a.Y()) - (b.Y()-a.Y())*(px-a.X())
}

func (r *Rasterizer) fill(a, b, c mgl64.Vec3, t Triangle) {
	area := edge(a, b, c.X(), c.Y())
	if area == 0 || math.IsNaN(area) {
		return
	}
	fb := r.FB
	minX := int(math.Max(0, math.Floor(math.Min(a.X(), math.Min(b.X(), c.X())))))
	maxX := int(math.Min(float64(fb.W-1), math.Ceil(math.Max(a.X(), math.Max(b.X(), c.X())))))
	minY := int(math.Max(0, math.Floor(math.Min(a.Y(), math.Min(b.Y(), c.Y())))))
	maxY := int(math.Min(float64(fb.H-1), math.Ceil(math.Max(a.Y(), math.Max(b.Y(), c.Y())))))
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := edge(b, c, px, py) / area
			w1 := edge(c, a, px, py) / area
			w2 := edge(a, b, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.Z() + w1*b.Z() + w2*c.Z()
			if z < -1 || z > 1 {
				continue
			}
			fb.plot(x, y, z, t.Color, t.Kind, t.Owner)
		}
	}
}
