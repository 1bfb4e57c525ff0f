package raster

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func tri(z float64, c Color, owner int32) Triangle {
	return Triangle{
		V:     [3]mgl64.Vec3{{-1, -1, z}, {1, -1, z}, {0, 1, z}},
		Color: c,
		Kind:  Solid,
		Owner: owner,
	}
}

func TestHex(t *testing.T) {
	if got, want := Hex(0xff6b6b), (Color{0xff, 0x6b, 0x6b}); got != want {
		t.Fatalf("Hex = %v, want %v", got, want)
	}
	if got := Hex(0x6aaefc).String(); got != "#6aaefc" {
		t.Fatalf("String = %q", got)
	}
	if got := (Color{200, 100, 10}).Scale(2); got != (Color{255, 200, 20}) {
		t.Fatalf("Scale = %v", got)
	}
}

func TestDrawFillsCenterAndRespectsDepth(t *testing.T) {
	fb := NewFramebuffer(20, 20)
	fb.Clear(Hex(0xf5f7fb))
	r := Rasterizer{FB: fb, ViewProj: mgl64.Ident4()}

	red, blue := Hex(0xff0000), Hex(0x0000ff)
	r.Draw(tri(0, red, 1))
	c, k, o := fb.At(10, 10)
	if c != red || k != Solid || o != 1 {
		t.Fatalf("center = %v %v %v, want red solid 1", c, k, o)
	}

	r.Draw(tri(0.5, blue, 2)) // behind
	if c, _, _ := fb.At(10, 10); c != red {
		t.Fatalf("farther triangle overwrote pixel: %v", c)
	}
	r.Draw(tri(-0.5, blue, 2)) // in front
	if c, _, o := fb.At(10, 10); c != blue || o != 2 {
		t.Fatalf("nearer triangle did not win: %v owner %d", c, o)
	}

	// corners stay background
	if _, k, _ := fb.At(0, 0); k != Empty {
		t.Fatalf("corner kind = %v, want Empty", k)
	}
}

func TestDrawDropsTrianglesBehindNearPlane(t *testing.T) {
	fb := NewFramebuffer(10, 10)
	fb.Clear(Color{})
	r := Rasterizer{FB: fb, ViewProj: mgl64.Ident4()}
	r.Draw(tri(-2, Hex(0xffffff), 1))
	for i, k := range fb.Kind {
		if k != Empty {
			t.Fatalf("pixel %d drawn for a triangle behind the near plane", i)
		}
	}
}

func TestClipNearSplitsStraddlingTriangle(t *testing.T) {
	in := []mgl64.Vec4{{0, 0, -2, 1}, {1, 0, 0, 1}, {0, 1, 0, 1}}
	out := clipNear(in)
	if len(out) != 4 {
		t.Fatalf("len(clipNear) = %d, want 4", len(out))
	}
	for _, v := range out {
		if v.Z()+v.W() < -1e-12 {
			t.Fatalf("vertex %v outside near plane", v)
		}
	}
}

func TestLightShade(t *testing.T) {
	l := Light{Ambient: 0.8, Directional: 0.6, Dir: mgl64.Vec3{0, 1, 0}}
	base := Color{100, 100, 100}
	if got := l.Shade(base, mgl64.Vec3{0, 1, 0}); got != (Color{140, 140, 140}) {
		t.Fatalf("lit = %v", got)
	}
	if got := l.Shade(base, mgl64.Vec3{1, 0, 0}); got != (Color{80, 80, 80}) {
		t.Fatalf("grazing = %v", got)
	}
}

func TestResizeKeepsBuffersWhenUnchanged(t *testing.T) {
	fb := NewFramebuffer(4, 2)
	first := &fb.Color[0]
	fb.Resize(4, 2)
	if &fb.Color[0] != first {
		t.Fatal("Resize reallocated for identical size")
	}
	fb.Resize(3, 3)
	if len(fb.Color) != 9 || fb.W != 3 || fb.H != 3 {
		t.Fatalf("Resize(3,3) = %dx%d len %d", fb.W, fb.H, len(fb.Color))
	}
}
