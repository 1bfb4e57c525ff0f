package tui

import (
	"urban3d/internal/raster"
)

// quantBits drops low colour bits so neighbouring shades of one face share a
// style run.
const quantBits = 3

type pixelGroup struct {
	owner int32
	kind  raster.Kind
	color raster.Color
}

// composeFramebuffer folds 2x4 micro-pixels into each braille cell. The most
// common surface in a cell becomes the cell background; every other pixel is
// a dot coloured with the mean of those pixels, so building edges and
// silhouettes show at micro-pixel resolution.
func composeFramebuffer(fb *raster.Framebuffer, w, h int) *brailleBuf {
	b := newBrailleBuf(w, h)
	if fb == nil {
		return b
	}
	var (
		groups [8]pixelGroup
		colors [8]raster.Color
		counts [8]int
	)
	for cy := 0; cy < h; cy++ {
		for cx := 0; cx < w; cx++ {
			n := 0
			for ry := 0; ry < 4; ry++ {
				for rx := 0; rx < 2; rx++ {
					c, k, o := fb.At(cx*2+rx, cy*4+ry)
					groups[n] = pixelGroup{owner: o, kind: k, color: c.Quantize(quantBits)}
					colors[n] = c
					n++
				}
			}

			best, bestN := 0, 0
			for i := 0; i < n; i++ {
				counts[i] = 0
				for j := 0; j < n; j++ {
					if groups[j] == groups[i] {
						counts[i]++
					}
				}
				if counts[i] > bestN {
					best, bestN = i, counts[i]
				}
			}

			var bgSum, fgSum [3]int
			bgN, fgN := 0, 0
			for i := 0; i < n; i++ {
				c := colors[i]
				if groups[i] == groups[best] {
					bgSum[0] += int(c.R)
					bgSum[1] += int(c.G)
					bgSum[2] += int(c.B)
					bgN++
					continue
				}
				fgSum[0] += int(c.R)
				fgSum[1] += int(c.G)
				fgSum[2] += int(c.B)
				fgN++
				b.setPixel(cx*2+i%2, cy*4+i/2)
			}
			b.bg[cy][cx] = mean(bgSum, bgN).Quantize(quantBits)
			if fgN > 0 {
				b.fg[cy][cx] = mean(fgSum, fgN).Quantize(quantBits)
			}
		}
	}
	return b
}

func mean(sum [3]int, n int) raster.Color {
	if n == 0 {
		return raster.Color{}
	}
	return raster.Color{R: uint8(sum[0] / n), G: uint8(sum[1] / n), B: uint8(sum[2] / n)}
}

// renderViewport draws the current frame into a w x h cell block.
func (m Model) renderViewport(w, h int) string {
	if m.viewer == nil || !m.viewer.Running() {
		return ""
	}
	return composeFramebuffer(m.viewer.Framebuffer(), w, h).render()
}
