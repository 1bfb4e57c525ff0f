package raster

import "math"

// Kind classifies what covers a pixel.
type Kind uint8

const (
	Empty Kind = iota
	Ground
	Solid
)

// Framebuffer stores colour, depth, kind and owner per micro-pixel. Owner is
// the caller-supplied object index plus one (0 = none).
type Framebuffer struct {
	W, H  int
	Color []Color
	Depth []float64
	Kind  []Kind
	Owner []int32
}

func NewFramebuffer(w, h int) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(w, h)
	return fb
}

// Resize reallocates the buffers when the dimensions change.
func (fb *Framebuffer) Resize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	if w == fb.W && h == fb.H && fb.Color != nil {
		return
	}
	n := w * h
	fb.W, fb.H = w, h
	fb.Color = make([]Color, n)
	fb.Depth = make([]float64, n)
	fb.Kind = make([]Kind, n)
	fb.Owner = make([]int32, n)
}

// Clear fills the buffer with bg at infinite depth.
func (fb *Framebuffer) Clear(bg Color) {
	for i := range fb.Color {
		fb.Color[i] = bg
		fb.Depth[i] = math.Inf(1)
		fb.Kind[i] = Empty
		fb.Owner[i] = 0
	}
}

// At returns the pixel at x, y. Out-of-range reads return the zero values.
func (fb *Framebuffer) At(x, y int) (Color, Kind, int32) {
	if x < 0 || y < 0 || x >= fb.W || y >= fb.H {
		return Color{}, Empty, 0
	}
	i := y*fb.W + x
	return fb.Color[i], fb.Kind[i], fb.Owner[i]
}

func (fb *Framebuffer) plot(x, y int, z float64, c Color, k Kind, owner int32) {
	i := y*fb.W + x
	if z >= fb.Depth[i] {
		return
	}
	fb.Depth[i] = z
	fb.Color[i] = c
	fb.Kind[i] = k
	fb.Owner[i] = owner
}
