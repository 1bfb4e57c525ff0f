package scene

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"urban3d/internal/raster"
)

// FrameInterval is the tick period for fps frames per second (30 when
// fps is not positive).
func FrameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = 30
	}
	return time.Second / time.Duration(fps)
}

// Frame advances the controls and redraws the framebuffer. It reports false
// when the loop is not running (before Init or after Dispose).
func (v *Viewer) Frame() bool {
	if !v.running {
		return false
	}
	start := time.Now()
	v.controls.Update()
	v.render()
	v.opts.Metrics.FrameRendered(time.Since(start))
	return true
}

func (v *Viewer) render() {
	fb := v.fb
	fb.Clear(v.opts.Background)
	r := raster.Rasterizer{FB: fb, ViewProj: v.cam.ViewProj()}
	light := v.opts.Light

	half := v.GroundSize() / 2
	up := mgl64.Vec3{0, 1, 0}
	ground := light.Shade(v.opts.Ground, up)
	corners := [4]mgl64.Vec3{{-half, 0, -half}, {half, 0, -half}, {half, 0, half}, {-half, 0, half}}
	r.Draw(raster.Triangle{V: [3]mgl64.Vec3{corners[0], corners[1], corners[2]}, Color: ground, Kind: raster.Ground})
	r.Draw(raster.Triangle{V: [3]mgl64.Vec3{corners[0], corners[2], corners[3]}, Color: ground, Kind: raster.Ground})

	for i, m := range v.meshes {
		owner := int32(i + 1)
		for _, f := range m.Faces {
			r.Draw(raster.Triangle{
				V:     [3]mgl64.Vec3{f.V[0].Add(m.Position), f.V[1].Add(m.Position), f.V[2].Add(m.Position)},
				Color: light.Shade(m.Color, f.Normal),
				Kind:  raster.Solid,
				Owner: owner,
			})
		}
	}
}
